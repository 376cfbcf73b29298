// Package metadata looks up movie details on TMDb for the movie view.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"moodflix-client/internal/logger"
	"moodflix-client/internal/metrics"
	"moodflix-client/internal/model"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3/"
	maxCast        = 10
	breakerName    = "tmdb"
)

type Options struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	Transport http.RoundTripper

	// FailuresToTrip consecutive failures open the breaker; CoolDown is how
	// long it stays open before a probe is let through.
	FailuresToTrip uint32
	CoolDown       time.Duration
}

type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
	group   singleflight.Group
	breaker *gobreaker.CircuitBreaker[model.Movie]
	log     *slog.Logger
}

func New(opts Options) (*Client, error) {
	raw := opts.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse tmdb base url: %w", err)
	}
	if base.Path == "" || base.Path[len(base.Path)-1] != '/' {
		base.Path += "/"
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	trip := opts.FailuresToTrip
	if trip == 0 {
		trip = 5
	}
	coolDown := opts.CoolDown
	if coolDown <= 0 {
		coolDown = 30 * time.Second
	}

	log := slog.Default().With(logger.ComponentKey, "metadata")
	metrics.MetadataBreakerState.Set(0)

	breaker := gobreaker.NewCircuitBreaker[model.Movie](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     coolDown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trip
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, model.ErrMovieNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.MetadataBreakerState.Set(stateValue(to))
		},
	})

	return &Client{
		baseURL: base,
		apiKey:  opts.APIKey,
		http:    &http.Client{Timeout: timeout, Transport: opts.Transport},
		breaker: breaker,
		log:     log,
	}, nil
}

func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Movie fetches details and top-billed cast. Concurrent lookups of the same
// id share one request.
func (c *Client) Movie(ctx context.Context, id int) (model.Movie, error) {
	if !c.Enabled() {
		return model.Movie{}, model.ErrMetadataNotConfigured
	}
	if id <= 0 {
		return model.Movie{}, model.ErrMovieNotFound
	}

	ch := c.group.DoChan(strconv.Itoa(id), func() (any, error) {
		// Shared by every waiter, so it must outlive any single caller.
		return c.breaker.Execute(func() (model.Movie, error) {
			return c.fetch(context.WithoutCancel(ctx), id)
		})
	})

	select {
	case <-ctx.Done():
		return model.Movie{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if errors.Is(res.Err, gobreaker.ErrOpenState) || errors.Is(res.Err, gobreaker.ErrTooManyRequests) {
				return model.Movie{}, fmt.Errorf("%w: %w", model.ErrMetadataUnavailable, res.Err)
			}
			return model.Movie{}, res.Err
		}
		return res.Val.(model.Movie), nil
	}
}

type tmdbMovie struct {
	ID          int           `json:"id"`
	Title       string        `json:"title"`
	Overview    string        `json:"overview"`
	PosterPath  string        `json:"poster_path"`
	ReleaseDate string        `json:"release_date"`
	Runtime     int           `json:"runtime"`
	VoteAverage float64       `json:"vote_average"`
	Genres      []model.Genre `json:"genres"`
	Credits     struct {
		Cast []struct {
			Name      string `json:"name"`
			Character string `json:"character"`
			Order     int    `json:"order"`
		} `json:"cast"`
	} `json:"credits"`
}

func (c *Client) fetch(ctx context.Context, id int) (model.Movie, error) {
	target := c.baseURL.ResolveReference(&url.URL{Path: "movie/" + strconv.Itoa(id)})
	target.RawQuery = url.Values{
		"api_key":            []string{c.apiKey},
		"append_to_response": []string{"credits"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return model.Movie{}, fmt.Errorf("build tmdb request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return model.Movie{}, fmt.Errorf("%w: %w", model.ErrMetadataUnavailable, err)
	}
	defer resp.Body.Close()
	c.log.Debug("tmdb request", "movie_id", id, "status", resp.StatusCode, "duration_ms", time.Since(started).Milliseconds())

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return model.Movie{}, model.ErrMovieNotFound
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return model.Movie{}, fmt.Errorf("%w: tmdb answered %d", model.ErrMetadataUnavailable, resp.StatusCode)
	}

	var body tmdbMovie
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Movie{}, fmt.Errorf("decode tmdb movie: %w", err)
	}

	movie := model.Movie{
		ID:          body.ID,
		Title:       body.Title,
		Overview:    body.Overview,
		PosterPath:  body.PosterPath,
		ReleaseDate: body.ReleaseDate,
		Runtime:     body.Runtime,
		VoteAverage: body.VoteAverage,
		Genres:      body.Genres,
	}
	for _, member := range body.Credits.Cast {
		if len(movie.Cast) == maxCast {
			break
		}
		movie.Cast = append(movie.Cast, model.CastMember{Name: member.Name, Character: member.Character})
	}
	return movie, nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
