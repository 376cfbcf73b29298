package gatewaytest

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"moodflix-client/internal/model"
)

type ctxKey struct{}

type sessionInfo struct {
	userID  int
	tokenID string
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil {
			Fail(w, http.StatusForbidden, "Authentication credentials were not provided.")
			return
		}

		userID, jti, ok := s.parseSession(cookie.Value)
		s.mu.Lock()
		_, revoked := s.revoked[jti]
		_, exists := s.accounts[userID]
		s.mu.Unlock()
		if !ok || revoked || !exists {
			Fail(w, http.StatusForbidden, "Authentication credentials were not provided.")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, sessionInfo{userID: userID, tokenID: jti})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := r.Context().Value(ctxKey{}).(sessionInfo)
		s.mu.Lock()
		staff := s.accounts[info.userID].user.IsStaff
		s.mu.Unlock()
		if !staff {
			Fail(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func current(r *http.Request) sessionInfo {
	return r.Context().Value(ctxKey{}).(sessionInfo)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload model.Registration
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Username == "" || payload.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"This field is required."}})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.MinCost)
	if err != nil {
		Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	if _, taken := s.byUsername[strings.ToLower(payload.Username)]; taken {
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"A user with that username already exists."}})
		return
	}
	id := s.addUserLocked(payload.Username, hash, false)
	user := *s.accounts[id].user.Clone()
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}

	s.mu.Lock()
	id, ok := s.byUsername[strings.ToLower(creds.Username)]
	var hash []byte
	if ok {
		hash = s.accounts[id].passwordHash
	}
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(creds.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}

	token, err := s.issueSession(id)
	if err != nil {
		Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: token, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	info := current(r)
	s.mu.Lock()
	s.revoked[info.tokenID] = struct{}{}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	info := current(r)
	s.mu.Lock()
	user := *s.accounts[info.userID].user.Clone()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, user)
}

type profileRequest struct {
	Email   *string `json:"email"`
	Profile struct {
		Bio           *string `json:"bio"`
		FavoriteGenre *string `json:"favorite_genre"`
	} `json:"profile"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	info := current(r)
	var req profileRequest
	picture := ""

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		if v, ok := r.MultipartForm.Value["email"]; ok {
			req.Email = &v[0]
		}
		if v, ok := r.MultipartForm.Value["profile.bio"]; ok {
			req.Profile.Bio = &v[0]
		}
		if v, ok := r.MultipartForm.Value["profile.favorite_genre"]; ok {
			req.Profile.FavoriteGenre = &v[0]
		}
		if files := r.MultipartForm.File["profile.profile_picture"]; len(files) > 0 {
			picture = "/media/profile_pics/" + strconv.Itoa(info.userID) + "/" + files[0].Filename
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Fail(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	s.mu.Lock()
	acc := s.accounts[info.userID]
	if req.Email != nil {
		acc.user.Email = *req.Email
	}
	if req.Profile.Bio != nil {
		acc.user.Profile.Bio = *req.Profile.Bio
	}
	if req.Profile.FavoriteGenre != nil {
		acc.user.Profile.FavoriteGenre = *req.Profile.FavoriteGenre
	}
	if picture != "" {
		acc.user.Profile.ProfilePicture = picture
	}
	user := *acc.user.Clone()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleListWatchlist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Watchlist(current(r).userID))
}

func (s *Server) handleAddWatchlist(w http.ResponseWriter, r *http.Request) {
	info := current(r)
	var entry model.WatchlistEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil || entry.MovieID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"movie_id": {"A valid integer is required."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.watchlists[info.userID] {
		if existing.MovieID == entry.MovieID {
			writeJSON(w, http.StatusBadRequest, map[string][]string{
				"non_field_errors": {"The fields user, movie_id must make a unique set."},
			})
			return
		}
	}

	entry.ID = s.nextEntryID
	s.nextEntryID++
	entry.AddedAt = time.Now().UTC().Truncate(time.Second)
	s.watchlists[info.userID] = append(s.watchlists[info.userID], entry)
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleRemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	info := current(r)
	movieID, ok := pathInt(r, "movie_id")
	if !ok {
		Fail(w, http.StatusNotFound, "Not found.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.watchlists[info.userID]
	for i, existing := range list {
		if existing.MovieID == movieID {
			s.watchlists[info.userID] = append(list[:i:i], list[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	Fail(w, http.StatusNotFound, "Not found.")
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	mood := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("mood")))
	if mood == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "A 'mood' query parameter is required."})
		return
	}

	s.mu.Lock()
	movies := append([]model.Movie{}, s.moods[mood]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, movies)
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	users := sortedUsers(s.accounts)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	s.mu.Lock()
	acc, exists := s.accounts[id]
	var user model.User
	if exists {
		user = *acc.user.Clone()
	}
	s.mu.Unlock()

	if !ok || !exists {
		Fail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handlePatchUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	var update model.RoleUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		Fail(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, exists := s.accounts[id]
	if !ok || !exists {
		Fail(w, http.StatusNotFound, "Not found.")
		return
	}
	if update.IsStaff != nil {
		acc.user.IsStaff = *update.IsStaff
	}
	if update.IsActive != nil {
		active := *update.IsActive
		acc.user.IsActive = &active
	}
	writeJSON(w, http.StatusOK, *acc.user.Clone())
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, exists := s.accounts[id]
	if !ok || !exists {
		Fail(w, http.StatusNotFound, "Not found.")
		return
	}
	delete(s.byUsername, strings.ToLower(acc.user.Username))
	delete(s.accounts, id)
	delete(s.watchlists, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := model.AdminStats{TotalUsers: len(s.accounts)}
	for _, acc := range s.accounts {
		if acc.user.IsStaff {
			stats.StaffUsers++
		}
	}
	for _, list := range s.watchlists {
		stats.TotalWatchlistItems += len(list)
	}
	writeJSON(w, http.StatusOK, stats)
}
