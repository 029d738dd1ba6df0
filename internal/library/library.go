// Package library holds the catalog model (movies, series, seasons, episodes,
// watch progress) and builds catalogs from classified directory trees.
package library

import (
	"time"

	"github.com/vmunix/reelshelf/internal/fsaccess"
)

// LayoutType is the classifier's verdict on how a library root is arranged.
type LayoutType string

const (
	LayoutOrganized LayoutType = "organized"
	LayoutMovies    LayoutType = "movies"
	LayoutSeries    LayoutType = "series"
	LayoutMixed     LayoutType = "mixed"
	LayoutUnknown   LayoutType = "unknown"
)

// MediaType distinguishes what a progress record belongs to.
type MediaType string

const (
	MediaMovie   MediaType = "movie"
	MediaEpisode MediaType = "episode"
	MediaUnknown MediaType = "unknown"
)

// CompletionThreshold is the remaining playback time under which a title
// counts as watched.
const CompletionThreshold = 30.0

// Identity joins a containing path and an original name into the key used to
// match scan results against stored progress.
func Identity(path, originalName string) string {
	return path + "/" + originalName
}

// WatchProgress is the playback state of one media identity within a profile.
type WatchProgress struct {
	MediaIdentity string    `json:"media_identity"`
	Position      float64   `json:"position"`
	Duration      float64   `json:"duration"`
	Completed     bool      `json:"completed"`
	Timestamp     int64     `json:"timestamp"` // epoch milliseconds
	MediaType     MediaType `json:"media_type,omitempty"`
}

// IsCompleted reports whether position is within CompletionThreshold seconds
// of the end.
func IsCompleted(position, duration float64) bool {
	return duration > 0 && duration-position < CompletionThreshold
}

// Movie is a single video file classified as a film.
type Movie struct {
	Title        string         `json:"title"`
	OriginalName string         `json:"original_name"`
	Year         *int           `json:"year"`
	Path         string         `json:"path"`
	Ref          fsaccess.Ref   `json:"ref"`
	Progress     *WatchProgress `json:"progress"`
	// Ambiguous marks movies chosen only by the permissive default.
	Ambiguous bool `json:"ambiguous,omitempty"`
}

// Identity returns Path + "/" + OriginalName.
func (m Movie) Identity() string { return Identity(m.Path, m.OriginalName) }

// Episode is one video file of a series season.
type Episode struct {
	Title        string         `json:"title"`
	OriginalName string         `json:"original_name"`
	Season       int            `json:"season"`
	Episode      int            `json:"episode"`
	EpisodeLabel string         `json:"episode_label"`
	Path         string         `json:"path"`
	Ref          fsaccess.Ref   `json:"ref"`
	Progress     *WatchProgress `json:"progress"`
}

// Identity returns Path + "/" + OriginalName.
func (e Episode) Identity() string { return Identity(e.Path, e.OriginalName) }

// Season groups the episodes found in one season directory.
type Season struct {
	Name     string    `json:"name"`
	Number   int       `json:"number"`
	Episodes []Episode `json:"episodes"`
}

// AggregateProgress summarizes episode completion for a series.
type AggregateProgress struct {
	WatchedEpisodes int `json:"watched_episodes"`
	TotalEpisodes   int `json:"total_episodes"`
	Percentage      int `json:"percentage"`
}

// Series is a directory classified as a TV show.
type Series struct {
	Title         string            `json:"title"`
	OriginalName  string            `json:"original_name"`
	Path          string            `json:"path"`
	Ref           fsaccess.Ref      `json:"ref"`
	Seasons       []Season          `json:"seasons"`
	TotalEpisodes int               `json:"total_episodes"`
	Progress      AggregateProgress `json:"progress"`
}

// Identity returns Path + "/" + OriginalName.
func (s Series) Identity() string { return Identity(s.Path, s.OriginalName) }

// Catalog is one complete build of the library. Consumers must treat it as
// read-only; the cache hands the same instance to every caller.
type Catalog struct {
	Type        LayoutType     `json:"type"`
	Movies      []Movie        `json:"movies"`
	Series      []Series       `json:"series"`
	LastWatched *WatchProgress `json:"last_watched"`
	// Failures lists subtrees that could not be read during the build.
	Failures []string  `json:"failures,omitempty"`
	BuiltAt  time.Time `json:"built_at"`
}

// IsEmpty reports whether the catalog has neither movies nor series.
func (c *Catalog) IsEmpty() bool {
	return len(c.Movies) == 0 && len(c.Series) == 0
}

// Err returns ErrNoContent when nothing was found and at least one subtree
// failed to read, nil otherwise.
func (c *Catalog) Err() error {
	if c.IsEmpty() && len(c.Failures) > 0 {
		return ErrNoContent
	}
	return nil
}

// Analysis is the classifier output for one library root.
type Analysis struct {
	Type             LayoutType
	Movies           []Movie
	Series           []Series
	TotalFiles       int
	TotalDirectories int
	Failures         []string
}
