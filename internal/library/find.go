package library

import (
	"sort"
	"strings"

	"github.com/vmunix/reelshelf/internal/fsaccess"
	"github.com/vmunix/reelshelf/pkg/medianame"
)

// Match is one catalog search hit.
type Match struct {
	Type       MediaType                 `json:"type"` // movie, series or episode
	Title      string                    `json:"title"`
	Identity   string                    `json:"identity"`
	Episode    string                    `json:"episode,omitempty"` // S01E02 for episode hits
	Score      float64                   `json:"score"`
	Confidence medianame.MatchConfidence `json:"-"`
	Level      string                    `json:"confidence"`
}

// SeriesMediaType tags series in search results.
const SeriesMediaType MediaType = "series"

// Find fuzzy-matches query against movie and series titles. Results below low
// confidence are dropped; the rest are ordered by score, best first.
//
// A query carrying an episode marker ("friends s01e02") is scored against
// series titles only and returns the named episode of each matching series.
// Series lacking that episode are left out.
func (c *Catalog) Find(query string) []Match {
	q := medianame.ParseQuery(strings.TrimSpace(query))
	if len(q.Words) == 0 {
		return nil
	}

	var matches []Match
	add := func(m Match, title string) {
		m.Score = q.Score(title)
		m.Confidence = medianame.ConfidenceFor(m.Score)
		if m.Confidence == medianame.ConfidenceNone {
			return
		}
		m.Level = m.Confidence.String()
		matches = append(matches, m)
	}

	if q.HasEpisode() {
		for si := range c.Series {
			s := &c.Series[si]
			ep := findEpisode(s, q.Season, q.Episode)
			if ep == nil {
				continue
			}
			item := Item{Type: MediaEpisode, Episode: ep, Series: s}
			add(Match{Type: MediaEpisode, Title: item.Title(), Identity: ep.Identity(), Episode: ep.EpisodeLabel}, s.Title)
		}
	} else {
		for _, m := range c.Movies {
			add(Match{Type: MediaMovie, Title: m.Title, Identity: m.Identity()}, m.Title)
		}
		for _, s := range c.Series {
			add(Match{Type: SeriesMediaType, Title: s.Title, Identity: s.Identity()}, s.Title)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

func findEpisode(s *Series, season, episode int) *Episode {
	for si := range s.Seasons {
		eps := s.Seasons[si].Episodes
		for ei := range eps {
			if eps[ei].Season == season && eps[ei].Episode == episode {
				return &eps[ei]
			}
		}
	}
	return nil
}

// Item is a playable catalog entry resolved by identity.
type Item struct {
	Type    MediaType
	Movie   *Movie
	Episode *Episode
	Series  *Series // set for episodes
}

// Title returns a display title for the item.
func (i Item) Title() string {
	switch {
	case i.Movie != nil:
		return i.Movie.Title
	case i.Episode != nil && i.Series != nil:
		if i.Episode.Title != "" && i.Episode.Title != i.Series.Title {
			return i.Series.Title + " " + i.Episode.EpisodeLabel + " " + i.Episode.Title
		}
		return i.Series.Title + " " + i.Episode.EpisodeLabel
	default:
		return ""
	}
}

// Ref returns the file reference of the item.
func (i Item) Ref() fsaccess.Ref {
	switch {
	case i.Movie != nil:
		return i.Movie.Ref
	case i.Episode != nil:
		return i.Episode.Ref
	default:
		return ""
	}
}

// Lookup resolves a movie or episode identity. Returns ErrNotFound when the
// identity is not part of this catalog.
func (c *Catalog) Lookup(identity string) (Item, error) {
	for i := range c.Movies {
		if c.Movies[i].Identity() == identity {
			return Item{Type: MediaMovie, Movie: &c.Movies[i]}, nil
		}
	}
	for si := range c.Series {
		s := &c.Series[si]
		if !strings.HasPrefix(identity, s.Identity()+"/") {
			continue
		}
		for ssi := range s.Seasons {
			episodes := s.Seasons[ssi].Episodes
			for ei := range episodes {
				if episodes[ei].Identity() == identity {
					return Item{Type: MediaEpisode, Episode: &episodes[ei], Series: s}, nil
				}
			}
		}
	}
	return Item{}, ErrNotFound
}

// SeriesByIdentity returns the series with the given identity.
func (c *Catalog) SeriesByIdentity(identity string) (*Series, error) {
	for i := range c.Series {
		if c.Series[i].Identity() == identity {
			return &c.Series[i], nil
		}
	}
	return nil, ErrNotFound
}

// MediaTypeOf classifies an identity against the catalog, returning
// MediaUnknown when it is absent.
func (c *Catalog) MediaTypeOf(identity string) MediaType {
	item, err := c.Lookup(identity)
	if err != nil {
		return MediaUnknown
	}
	return item.Type
}
