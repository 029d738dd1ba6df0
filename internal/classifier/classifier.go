// Package classifier decides how a library root is laid out and extracts
// movies and series from it using file and directory name heuristics.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/vmunix/reelshelf/internal/fsaccess"
	"github.com/vmunix/reelshelf/internal/library"
	"github.com/vmunix/reelshelf/internal/scanner"
	"github.com/vmunix/reelshelf/pkg/medianame"
)

// Scan depths for the individual extraction passes.
const (
	moviesDepth = 2
	seriesDepth = 3
	seasonDepth = 1
)

// syntheticSeasonName is used when a series has no season directories.
const syntheticSeasonName = "Season 1"

// Classifier turns scanned trees into a typed library analysis.
type Classifier struct {
	scanner  *scanner.Scanner
	maxDepth int
	logger   *slog.Logger
}

// New creates a classifier. maxDepth bounds the initial root scan; zero
// selects scanner.DefaultMaxDepth.
func New(s *scanner.Scanner, maxDepth int, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if maxDepth <= 0 {
		maxDepth = scanner.DefaultMaxDepth
	}
	return &Classifier{
		scanner:  s,
		maxDepth: maxDepth,
		logger:   logger.With("component", "classifier"),
	}
}

// Classify scans root and extracts its movies and series. rootName is the
// display name of root and the first segment of every identity.
//
// A root with sibling movies and series folders is organized. Otherwise the
// video files decide the movie side (at least one movie file and movie files
// at least half of all video files) and series-like directory names decide
// the series side. Only a failure to read root itself is returned.
func (c *Classifier) Classify(ctx context.Context, root fsaccess.Ref, rootName string) (*library.Analysis, error) {
	contents, err := c.scanner.Scan(ctx, root, rootName, c.maxDepth)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", rootName, err)
	}

	a := &library.Analysis{
		Type:             library.LayoutUnknown,
		TotalFiles:       len(contents.Files),
		TotalDirectories: len(contents.Directories),
	}
	c.recordFailures(a, contents)

	moviesDir, serialsDir, organized := findContainers(contents.Directories)
	if organized {
		a.Type = library.LayoutOrganized
		if a.Movies, err = c.moviesFromDirectory(ctx, moviesDir, a); err != nil {
			return nil, err
		}
		if a.Series, err = c.seriesFromDirectory(ctx, serialsDir, a); err != nil {
			return nil, err
		}
	} else {
		hasMovies := isMovieContent(contents.Files)
		hasSeries := hasSeriesDirectories(contents.Directories)

		if hasMovies {
			a.Movies = extractMovies(contents.Files)
		}
		if hasSeries {
			if a.Series, err = c.extractSeries(ctx, contents.Directories, a); err != nil {
				return nil, err
			}
		}

		switch {
		case hasMovies && hasSeries:
			a.Type = library.LayoutMixed
		case hasMovies:
			a.Type = library.LayoutMovies
		case hasSeries:
			a.Type = library.LayoutSeries
		}
	}

	if a.Movies == nil {
		a.Movies = []library.Movie{}
	}
	if a.Series == nil {
		a.Series = []library.Series{}
	}
	library.SortMovies(a.Movies)
	library.SortSeries(a.Series)
	a.Failures = dedupe(a.Failures)

	c.logger.Info("classification complete",
		"root", rootName,
		"type", a.Type,
		"movies", len(a.Movies),
		"series", len(a.Series),
		"failures", len(a.Failures))
	return a, nil
}

// findContainers looks for the movies/series folder pair among root's direct
// children.
func findContainers(dirs []scanner.MediaNode) (movies, serials scanner.MediaNode, ok bool) {
	var haveMovies, haveSerials bool
	for _, d := range dirs {
		if d.Depth != 0 {
			continue
		}
		if !haveMovies && medianame.IsMoviesContainer(d.Name) {
			movies, haveMovies = d, true
		} else if !haveSerials && medianame.IsSeriesContainer(d.Name) {
			serials, haveSerials = d, true
		}
	}
	return movies, serials, haveMovies && haveSerials
}

func isMovieContent(files []scanner.MediaNode) bool {
	movies := 0
	for _, f := range files {
		if medianame.IsMovieFile(f.Name) {
			movies++
		}
	}
	return movies > 0 && movies*2 >= len(files)
}

func hasSeriesDirectories(dirs []scanner.MediaNode) bool {
	for _, d := range dirs {
		if medianame.IsSeriesDirectoryName(d.Name) {
			return true
		}
	}
	return false
}

func extractMovies(files []scanner.MediaNode) []library.Movie {
	movies := make([]library.Movie, 0, len(files))
	for _, f := range files {
		if !medianame.IsMovieFile(f.Name) {
			continue
		}
		info := medianame.ParseMovieInfo(f.Name)
		m := library.Movie{
			Title:        info.Title,
			OriginalName: f.Name,
			Path:         f.Path,
			Ref:          f.Ref,
			Ambiguous:    info.Ambiguous,
		}
		if info.Year != 0 {
			year := info.Year
			m.Year = &year
		}
		movies = append(movies, m)
	}
	return movies
}

func (c *Classifier) moviesFromDirectory(ctx context.Context, dir scanner.MediaNode, a *library.Analysis) ([]library.Movie, error) {
	contents, ok, err := c.scanSubtree(ctx, dir, moviesDepth, a)
	if !ok {
		return nil, err
	}
	return extractMovies(contents.Files), nil
}

func (c *Classifier) seriesFromDirectory(ctx context.Context, dir scanner.MediaNode, a *library.Analysis) ([]library.Series, error) {
	contents, ok, err := c.scanSubtree(ctx, dir, seriesDepth, a)
	if !ok {
		return nil, err
	}
	return c.extractSeries(ctx, contents.Directories, a)
}

func (c *Classifier) extractSeries(ctx context.Context, dirs []scanner.MediaNode, a *library.Analysis) ([]library.Series, error) {
	var series []library.Series
	for _, d := range dirs {
		if !medianame.IsSeriesDirectoryName(d.Name) {
			continue
		}
		s, err := c.analyzeSeries(ctx, d, a)
		if err != nil {
			return nil, err
		}
		series = append(series, s)
	}
	return series, nil
}

// analyzeSeries builds one series from its directory. Every season directory
// found under it becomes a season, including empty ones. Without any, the
// episodes found become a synthetic first season, which is omitted when there
// are none. Unreadable parts leave the series partial.
func (c *Classifier) analyzeSeries(ctx context.Context, dir scanner.MediaNode, a *library.Analysis) (library.Series, error) {
	s := library.Series{
		Title:        medianame.CleanTitle(dir.Name),
		OriginalName: dir.Name,
		Path:         dir.Path,
		Ref:          dir.Ref,
		Seasons:      []library.Season{},
	}

	contents, ok, err := c.scanSubtree(ctx, dir, seriesDepth, a)
	if !ok {
		return s, err
	}

	var seasonDirs []scanner.MediaNode
	for _, d := range contents.Directories {
		if medianame.IsSeasonDirectory(d.Name) {
			seasonDirs = append(seasonDirs, d)
		}
	}

	if len(seasonDirs) > 0 {
		for _, sd := range seasonDirs {
			season, err := c.analyzeSeason(ctx, sd, a)
			if err != nil {
				return s, err
			}
			s.Seasons = append(s.Seasons, season)
		}
		library.SortSeasons(s.Seasons)
	} else if episodes := extractEpisodes(contents.Files); len(episodes) > 0 {
		s.Seasons = append(s.Seasons, library.Season{
			Name:     syntheticSeasonName,
			Number:   1,
			Episodes: episodes,
		})
	}

	for _, season := range s.Seasons {
		s.TotalEpisodes += len(season.Episodes)
	}
	c.logger.Debug("series analyzed", "series", s.Title, "seasons", len(s.Seasons), "episodes", s.TotalEpisodes)
	return s, nil
}

func (c *Classifier) analyzeSeason(ctx context.Context, dir scanner.MediaNode, a *library.Analysis) (library.Season, error) {
	season := library.Season{
		Name:     dir.Name,
		Number:   medianame.ExtractSeasonNumber(dir.Name),
		Episodes: []library.Episode{},
	}
	contents, ok, err := c.scanSubtree(ctx, dir, seasonDepth, a)
	if !ok {
		return season, err
	}
	season.Episodes = extractEpisodes(contents.Files)
	return season, nil
}

func extractEpisodes(files []scanner.MediaNode) []library.Episode {
	episodes := []library.Episode{}
	for _, f := range files {
		info, ok := medianame.ParseEpisodeInfo(f.Name)
		if !ok {
			continue
		}
		episodes = append(episodes, library.Episode{
			Title:        info.Title,
			OriginalName: f.Name,
			Season:       info.Season,
			Episode:      info.Episode,
			EpisodeLabel: info.Label,
			Path:         f.Path,
			Ref:          f.Ref,
		})
	}
	library.SortEpisodes(episodes)
	return episodes
}

// scanSubtree scans dir with its own identity as the base path. A read failure
// is recorded on the analysis and reported as ok=false with a nil error so the
// caller keeps going; only cancellation is returned.
func (c *Classifier) scanSubtree(ctx context.Context, dir scanner.MediaNode, depth int, a *library.Analysis) (*scanner.Result, bool, error) {
	base := dir.Identity()
	contents, err := c.scanner.Scan(ctx, dir.Ref, base, depth)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		c.logger.Warn("subtree unreadable", "path", base, "error", err)
		a.Failures = append(a.Failures, base)
		return nil, false, nil
	}
	c.recordFailures(a, contents)
	return contents, true, nil
}

func (c *Classifier) recordFailures(a *library.Analysis, res *scanner.Result) {
	for _, f := range res.Failures {
		a.Failures = append(a.Failures, f.Path)
	}
}

// dedupe sorts paths and drops repeats; nested scans revisit failed subtrees.
func dedupe(paths []string) []string {
	slices.Sort(paths)
	return slices.Compact(paths)
}
