package medianame

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MatchConfidence grades a search score.
type MatchConfidence int

const (
	ConfidenceNone   MatchConfidence = iota // below 0.70
	ConfidenceLow                           // 0.70 and up
	ConfidenceMedium                        // 0.85 and up
	ConfidenceHigh                          // 0.95 and up
)

var confidenceNames = [...]string{"none", "low", "medium", "high"}

func (c MatchConfidence) String() string {
	if c < ConfidenceNone || c > ConfidenceHigh {
		return confidenceNames[ConfidenceNone]
	}
	return confidenceNames[c]
}

// ConfidenceFor grades a score in [0, 1].
func ConfidenceFor(score float64) MatchConfidence {
	for c := ConfidenceHigh; c > ConfidenceNone; c-- {
		if score >= confidenceFloor[c] {
			return c
		}
	}
	return ConfidenceNone
}

var confidenceFloor = [...]float64{0, 0.70, 0.85, 0.95}

// Query is a parsed catalog search. A season/episode marker in the input
// ("friends s01e02", "lost 1x03", "друзі сезон 1 серия 2") is lifted out of the
// title words so the search can land on that episode.
type Query struct {
	Raw     string
	Words   []string // folded title words, marker removed
	Season  int
	Episode int
}

// HasEpisode reports whether the query named a specific episode.
func (q Query) HasEpisode() bool { return q.Episode > 0 }

// Title is the folded title part of the query.
func (q Query) Title() string { return strings.Join(q.Words, " ") }

// Label returns the episode label (S01E02) or "" when no episode was named.
func (q Query) Label() string {
	if !q.HasEpisode() {
		return ""
	}
	return EpisodeLabel(q.Season, q.Episode)
}

// Loose markers count only as a season+episode pair, so a
// title word like "s3" alone never turns a search into an episode lookup.
var (
	looseQuerySeason  = regexp.MustCompile(`(?i)(?:^|[\s._-])(?:season\s*|сезон\s*|s)(\d{1,2})\b`)
	looseQueryEpisode = regexp.MustCompile(`(?i)(?:^|[\s._-])(?:episode\s*|ep\s*|серия\s*|серія\s*|e)(\d{1,3})\b`)
)

// ParseQuery splits a free-text search into title words and an optional
// episode marker.
func ParseQuery(s string) Query {
	q := Query{Raw: s}
	rest := s

	for _, re := range episodeSeasonPatterns {
		loc := re.FindStringSubmatchIndex(rest)
		if loc == nil {
			continue
		}
		season, _ := strconv.Atoi(rest[loc[2]:loc[3]])
		episode, _ := strconv.Atoi(rest[loc[4]:loc[5]])
		q.Season, q.Episode = season, episode
		rest = rest[:loc[0]] + " " + rest[loc[1]:]
		break
	}

	if !q.HasEpisode() {
		sl := looseQuerySeason.FindStringSubmatchIndex(rest)
		el := looseQueryEpisode.FindStringSubmatchIndex(rest)
		if sl != nil && el != nil && el[0] >= sl[1] {
			q.Season, _ = strconv.Atoi(rest[sl[2]:sl[3]])
			q.Episode, _ = strconv.Atoi(rest[el[2]:el[3]])
			rest = rest[:sl[0]] + " " + rest[sl[1]:el[0]] + " " + rest[el[1]:]
		}
	}

	q.Words = foldWords(rest)
	return q
}

// Score rates title against the query in [0, 1]. The episode marker plays no
// part here; callers resolve it against the matched series.
func (q Query) Score(title string) float64 {
	return scoreWords(q.Words, foldWords(title))
}

// Similarity scores how well a free-text query matches title in [0, 1].
func Similarity(query, title string) float64 {
	return ParseQuery(query).Score(title)
}

// FoldTitle normalizes a title for comparison: lowercase, accents removed,
// Roman numerals II-IX after the first word converted, leading articles of
// each colon-separated part dropped, punctuation removed.
func FoldTitle(title string) string {
	return strings.Join(foldWords(title), " ")
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var romanWords = map[string]string{
	"ii": "2", "iii": "3", "iv": "4", "v": "5",
	"vi": "6", "vii": "7", "viii": "8", "ix": "9",
}

var articles = map[string]bool{"the": true, "a": true, "an": true}

func foldWords(title string) []string {
	s, _, err := transform.String(stripMarks, strings.ToLower(title))
	if err != nil {
		s = strings.ToLower(title)
	}
	s = strings.NewReplacer("&", " and ", "'", "", "’", "").Replace(s)
	s = separatorRe.ReplaceAllString(s, " ")

	var words []string
	for _, part := range strings.Split(s, ":") {
		start := true
		for _, w := range strings.Fields(part) {
			w = strings.Map(keepWordRune, w)
			if w == "" {
				continue
			}
			if start && articles[w] {
				start = false
				continue
			}
			start = false
			if arabic, ok := romanWords[w]; ok && len(words) > 0 {
				w = arabic
			}
			words = append(words, w)
		}
	}
	return words
}

func keepWordRune(r rune) rune {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return r
	}
	return -1
}

// scoreWords blends Jaro-Winkler over the joined words with a word coverage
// floor: a query whose words all appear in the title scores at least 0.90, and
// the last word may be an unfinished prefix of three or more letters.
func scoreWords(query, title []string) float64 {
	if len(query) == 0 || len(title) == 0 {
		return 0
	}
	q, t := strings.Join(query, " "), strings.Join(title, " ")
	if q == t {
		return 1
	}

	score := float64(edlib.JaroWinklerSimilarity(q, t))
	if covers(title, query) {
		score = max(score, 0.90)
	}
	return adjustForNumbers(score, numericWords(query), numericWords(title))
}

func covers(title, query []string) bool {
	for i, w := range query {
		last := i == len(query)-1
		found := false
		for _, tw := range title {
			if tw == w || (last && len(w) >= 3 && strings.HasPrefix(tw, w)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func numericWords(words []string) []string {
	var out []string
	for _, w := range words {
		if _, err := strconv.Atoi(w); err == nil {
			out = append(out, w)
		}
	}
	return out
}

// adjustForNumbers steers sequel and year searches: a shared number lifts the
// score, a title without numbers or with different ones lowers it. Queries
// without numbers are left alone.
func adjustForNumbers(score float64, query, title []string) float64 {
	switch {
	case len(query) == 0:
		return score
	case len(title) == 0:
		return score * 0.85
	}
	for _, n := range query {
		for _, m := range title {
			if n == m {
				return min(score*1.05, 1)
			}
		}
	}
	return score * 0.90
}
