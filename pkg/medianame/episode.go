package medianame

import (
	"fmt"
	"regexp"
	"strconv"
)

// EpisodeInfo holds the tokens parsed from an episode file name.
type EpisodeInfo struct {
	Season  int
	Episode int
	Label   string // S01E02, always zero-padded to two digits
	Title   string // name with season/episode markers removed; may be empty
}

// MovieInfo holds the tokens parsed from a movie file name.
type MovieInfo struct {
	Title string
	Year  int // 0 when no year was found
	// Ambiguous is set when the name carried neither a year nor any marker, so
	// the movie verdict came from the permissive default alone.
	Ambiguous bool
}

// EpisodeLabel formats a season/episode pair as S01E02.
func EpisodeLabel(season, episode int) string {
	return fmt.Sprintf("S%02dE%02d", season, episode)
}

// ParseEpisodeInfo extracts season and episode numbers from a file name.
// Combined markers are tried first; otherwise both an independent season and an
// independent episode marker must be present. Returns false for non-episodes.
func ParseEpisodeInfo(fileName string) (EpisodeInfo, bool) {
	name := StripExtension(fileName)

	for _, re := range episodeSeasonPatterns {
		m := re.FindStringSubmatch(name)
		if len(m) < 3 {
			continue
		}
		season, err1 := strconv.Atoi(m[1])
		episode, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			continue
		}
		return newEpisodeInfo(name, season, episode), true
	}

	season, okSeason := firstInt(name, looseSeasonRes...)
	episode, okEpisode := firstInt(name, looseEpisodeRes...)
	if okSeason && okEpisode {
		return newEpisodeInfo(name, season, episode), true
	}

	return EpisodeInfo{}, false
}

func newEpisodeInfo(name string, season, episode int) EpisodeInfo {
	return EpisodeInfo{
		Season:  season,
		Episode: episode,
		Label:   EpisodeLabel(season, episode),
		Title:   cleanEpisodeTitle(name),
	}
}

// cleanEpisodeTitle removes the first occurrence of every season/episode marker
// and cleans what remains.
func cleanEpisodeTitle(name string) string {
	cleaned := name
	for _, group := range [][]*regexp.Regexp{episodeSeasonPatterns, seasonPatterns, episodePatterns} {
		for _, re := range group {
			cleaned = removeFirst(re, cleaned)
		}
	}
	return CleanTitle(cleaned)
}

func removeFirst(re *regexp.Regexp, s string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}

// ParseMovieInfo extracts the display title and year from a movie file name.
func ParseMovieInfo(fileName string) MovieInfo {
	name := StripExtension(fileName)
	info := MovieInfo{Title: CleanTitle(name)}
	if year, ok := ExtractYear(name); ok {
		info.Year = year
	} else {
		info.Ambiguous = true
	}
	return info
}
