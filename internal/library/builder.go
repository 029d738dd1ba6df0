package library

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/vmunix/reelshelf/internal/fsaccess"
)

// Analyzer classifies a library root. Implemented by classifier.Classifier.
type Analyzer interface {
	Classify(ctx context.Context, root fsaccess.Ref, rootName string) (*Analysis, error)
}

// ProgressLookup resolves stored watch progress. Implemented by progress.Store.
type ProgressLookup interface {
	// Get returns the progress for identity, or nil.
	Get(identity string) *WatchProgress
	// Latest returns the most recently updated progress of the profile, or nil.
	Latest() *WatchProgress
}

// Builder produces catalogs from a library root.
type Builder struct {
	analyzer Analyzer
	now      func() time.Time
	logger   *slog.Logger
}

// NewBuilder creates a catalog builder.
func NewBuilder(a Analyzer, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		analyzer: a,
		now:      time.Now,
		logger:   logger.With("component", "catalog-builder"),
	}
}

// WithClock overrides the time source used for BuiltAt.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build classifies root and merges progress from lookup into the result. A nil
// lookup builds a catalog without progress. Building twice over an unchanged
// tree and store yields equal catalogs apart from BuiltAt.
func (b *Builder) Build(ctx context.Context, root fsaccess.Ref, rootName string, lookup ProgressLookup) (*Catalog, error) {
	a, err := b.analyzer.Classify(ctx, root, rootName)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		Type:     a.Type,
		Movies:   a.Movies,
		Series:   a.Series,
		Failures: a.Failures,
		BuiltAt:  b.now(),
	}
	if c.Movies == nil {
		c.Movies = []Movie{}
	}
	if c.Series == nil {
		c.Series = []Series{}
	}

	attachProgress(c, lookup)

	b.logger.Debug("catalog built",
		"root", rootName,
		"type", c.Type,
		"movies", len(c.Movies),
		"series", len(c.Series))
	return c, nil
}

// WithProgress returns a copy of c carrying progress from lookup. The copy
// shares no slices with c, so a cached catalog can be overlaid per profile
// without a rescan.
func WithProgress(c *Catalog, lookup ProgressLookup) *Catalog {
	if c == nil {
		return nil
	}
	out := *c
	out.Movies = append([]Movie{}, c.Movies...)
	out.Series = make([]Series, len(c.Series))
	for i, s := range c.Series {
		s.Seasons = append([]Season(nil), s.Seasons...)
		for si := range s.Seasons {
			s.Seasons[si].Episodes = append([]Episode(nil), s.Seasons[si].Episodes...)
		}
		out.Series[i] = s
	}
	out.Failures = append([]string(nil), c.Failures...)
	out.LastWatched = nil
	attachProgress(&out, lookup)
	return &out
}

func attachProgress(c *Catalog, lookup ProgressLookup) {
	for i := range c.Movies {
		c.Movies[i].Progress = lookupCopy(lookup, c.Movies[i].Identity())
	}
	for i := range c.Series {
		attachSeriesProgress(&c.Series[i], lookup)
	}
	if lookup != nil {
		c.LastWatched = copyProgress(lookup.Latest())
	}
}

func attachSeriesProgress(s *Series, lookup ProgressLookup) {
	watched, total := 0, 0
	for si := range s.Seasons {
		episodes := s.Seasons[si].Episodes
		for ei := range episodes {
			episodes[ei].Progress = lookupCopy(lookup, episodes[ei].Identity())
			total++
			if p := episodes[ei].Progress; p != nil && p.Completed {
				watched++
			}
		}
	}
	s.Progress = Aggregate(watched, total)
}

// Aggregate computes series progress; the percentage is rounded and 0 when
// there are no episodes.
func Aggregate(watched, total int) AggregateProgress {
	p := AggregateProgress{WatchedEpisodes: watched, TotalEpisodes: total}
	if total > 0 {
		p.Percentage = int(math.Round(100 * float64(watched) / float64(total)))
	}
	return p
}

func lookupCopy(lookup ProgressLookup, identity string) *WatchProgress {
	if lookup == nil {
		return nil
	}
	return copyProgress(lookup.Get(identity))
}

func copyProgress(p *WatchProgress) *WatchProgress {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
