package model

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Meta tells the view which session generation a payload belongs to.
type Meta struct {
	Total        int    `json:"total,omitempty"`
	SessionEpoch uint64 `json:"session_epoch"`
	Resolving    bool   `json:"resolving,omitempty"`
}
