package validation

import (
	"path"
	"regexp"
	"strings"
	"unicode"
)

// Matches the backend's ImageField max_length.
const maxFilenameRunes = 100

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

var reservedStems = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// Filename reduces an uploaded file name to a single safe path segment.
func Filename(name string) (string, error) {
	name = strings.ReplaceAll(strings.TrimSpace(name), `\`, "/")
	name = path.Base(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			continue
		}
		b.WriteRune(r)
	}
	cleaned := strings.TrimSpace(unsafeFilenameChars.ReplaceAllString(b.String(), "_"))

	if cleaned == "" || cleaned == "." || cleaned == ".." || cleaned == "/" {
		return "", filenameError("picture filename is empty")
	}
	if strings.HasPrefix(cleaned, ".") {
		return "", filenameError("picture filename may not be hidden")
	}

	stem, _, _ := strings.Cut(cleaned, ".")
	if _, reserved := reservedStems[strings.ToUpper(stem)]; reserved {
		return "", filenameError("picture filename is reserved")
	}

	// Keep the extension when truncating; the backend sniffs it.
	if runes := []rune(cleaned); len(runes) > maxFilenameRunes {
		ext := []rune(path.Ext(cleaned))
		if len(ext) >= maxFilenameRunes {
			ext = nil
		}
		cleaned = string(runes[:maxFilenameRunes-len(ext)]) + string(ext)
	}

	return cleaned, nil
}

func filenameError(message string) *Error {
	return &Error{Fields: []FieldError{{Field: "picture", Tag: "filename", Message: message}}}
}
