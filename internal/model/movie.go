package model

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character"`
}

type Movie struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Overview    string       `json:"overview"`
	PosterPath  string       `json:"poster_path"`
	ReleaseDate string       `json:"release_date,omitempty"`
	Runtime     int          `json:"runtime,omitempty"`
	VoteAverage float64      `json:"vote_average,omitempty"`
	Genres      []Genre      `json:"genres,omitempty"`
	Cast        []CastMember `json:"cast,omitempty"`
}

// WatchlistEntry builds the entry a view submits when adding this movie.
func (m Movie) WatchlistEntry() WatchlistEntry {
	return WatchlistEntry{MovieID: m.ID, Title: m.Title, PosterPath: m.PosterPath}
}

type Recommendation struct {
	Mood   string  `json:"mood"`
	Movies []Movie `json:"recommendations"`
}
