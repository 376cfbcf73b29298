// Package gatewaytest runs an in-memory stand-in for the recommendation
// service's REST API so client code can be exercised end to end.
package gatewaytest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"moodflix-client/internal/model"
)

const SessionCookie = "sessionid"

type account struct {
	user         model.User
	passwordHash []byte
}

// Interceptor may answer a request itself by returning true.
type Interceptor func(w http.ResponseWriter, r *http.Request) bool

type Server struct {
	*httptest.Server

	secret []byte

	mu          sync.Mutex
	nextUserID  int
	nextEntryID int
	accounts    map[int]*account
	byUsername  map[string]int
	watchlists  map[int][]model.WatchlistEntry
	revoked     map[string]struct{}
	moods       map[string][]model.Movie
	interceptor Interceptor
	calls       map[string]int
}

func NewServer() *Server {
	s := &Server{
		secret:      []byte("gatewaytest-" + uuid.NewString()),
		nextUserID:  1,
		nextEntryID: 1,
		accounts:    map[int]*account{},
		byUsername:  map[string]int{},
		watchlists:  map[int][]model.WatchlistEntry{},
		revoked:     map[string]struct{}{},
		moods:       map[string][]model.Movie{},
		calls:       map[string]int{},
	}

	r := chi.NewRouter()
	r.Use(s.intercept)
	r.Route("/api", func(api chi.Router) {
		api.Post("/register/", s.handleRegister)
		api.Post("/login/", s.handleLogin)
		api.Group(func(authed chi.Router) {
			authed.Use(s.requireSession)
			authed.Post("/logout/", s.handleLogout)
			authed.Get("/user/", s.handleCurrentUser)
			authed.Put("/profile/", s.handleProfile)
			authed.Get("/watchlist/", s.handleListWatchlist)
			authed.Post("/watchlist/", s.handleAddWatchlist)
			authed.Delete("/watchlist/{movie_id}/", s.handleRemoveWatchlist)
			authed.Get("/recommendations/", s.handleRecommendations)

			authed.Route("/admin", func(admin chi.Router) {
				admin.Use(s.requireStaff)
				admin.Get("/users/", s.handleListUsers)
				admin.Get("/users/{id}/", s.handleGetUser)
				admin.Patch("/users/{id}/", s.handlePatchUser)
				admin.Delete("/users/{id}/", s.handleDeleteUser)
				admin.Get("/stats/", s.handleStats)
			})
		})
	})

	s.Server = httptest.NewServer(r)
	return s
}

// APIBaseURL is the value a gateway.Client should use as its base URL.
func (s *Server) APIBaseURL() string {
	return s.URL + "/api/"
}

// AddUser creates an account and returns its id.
func (s *Server) AddUser(username string, password string, staff bool) int {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, hash, staff)
}

func (s *Server) addUserLocked(username string, hash []byte, staff bool) int {
	id := s.nextUserID
	s.nextUserID++
	active := true
	s.accounts[id] = &account{
		user: model.User{
			ID:         id,
			Username:   username,
			IsStaff:    staff,
			IsActive:   &active,
			DateJoined: time.Now().UTC().Truncate(time.Second),
			Profile:    &model.Profile{},
		},
		passwordHash: hash,
	}
	s.byUsername[strings.ToLower(username)] = id
	return id
}

// SeedWatchlist replaces a user's server-side watchlist.
func (s *Server) SeedWatchlist(userID int, entries ...model.WatchlistEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]model.WatchlistEntry, 0, len(entries))
	for _, e := range entries {
		e.ID = s.nextEntryID
		s.nextEntryID++
		if e.AddedAt.IsZero() {
			e.AddedAt = time.Now().UTC().Truncate(time.Second)
		}
		list = append(list, e)
	}
	s.watchlists[userID] = list
}

func (s *Server) Watchlist(userID int) []model.WatchlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.WatchlistEntry(nil), s.watchlists[userID]...)
}

func (s *Server) SetMood(mood string, movies ...model.Movie) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moods[strings.ToLower(mood)] = movies
}

func (s *Server) SetStaff(userID int, staff bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[userID]; ok {
		acc.user.IsStaff = staff
	}
}

// Intercept installs fn ahead of every route; nil removes it.
func (s *Server) Intercept(fn Interceptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interceptor = fn
}

// Calls returns how many requests hit "METHOD /path".
func (s *Server) Calls(method string, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.Method+" "+r.URL.Path]++
		fn := s.interceptor
		s.mu.Unlock()

		if fn != nil && fn(w, r) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Fail answers with status and a DRF-style {"detail": ...} body.
func Fail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func sortedUsers(accounts map[int]*account) []model.User {
	users := make([]model.User, 0, len(accounts))
	for _, acc := range accounts {
		users = append(users, *acc.user.Clone())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func pathInt(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	return v, err == nil && v > 0
}

func (s *Server) issueSession(userID int) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.Itoa(userID),
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	return token.SignedString(s.secret)
}

func (s *Server) parseSession(raw string) (int, string, bool) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return 0, "", false
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", false
	}
	sub, _ := claims["sub"].(string)
	jti, _ := claims["jti"].(string)
	id, err := strconv.Atoi(sub)
	if err != nil {
		return 0, "", false
	}
	return id, jti, true
}
