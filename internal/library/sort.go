package library

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortLanguage selects the collation used for catalog ordering.
var SortLanguage = language.Und

// Collator is not safe for concurrent use, so every sort builds its own.
func newCollator() *collate.Collator {
	return collate.New(SortLanguage, collate.Loose, collate.Numeric)
}

// SortMovies orders movies by title using locale-aware collation. Equal
// titles fall back to the original file name.
func SortMovies(movies []Movie) {
	c := newCollator()
	sort.SliceStable(movies, func(i, j int) bool {
		if r := c.CompareString(movies[i].Title, movies[j].Title); r != 0 {
			return r < 0
		}
		return movies[i].OriginalName < movies[j].OriginalName
	})
}

// SortSeries orders series by title using locale-aware collation.
func SortSeries(series []Series) {
	c := newCollator()
	sort.SliceStable(series, func(i, j int) bool {
		if r := c.CompareString(series[i].Title, series[j].Title); r != 0 {
			return r < 0
		}
		return series[i].Identity() < series[j].Identity()
	})
}

// SortEpisodes orders episodes by (season, episode); ties keep input order.
func SortEpisodes(episodes []Episode) {
	sort.SliceStable(episodes, func(i, j int) bool {
		if episodes[i].Season != episodes[j].Season {
			return episodes[i].Season < episodes[j].Season
		}
		return episodes[i].Episode < episodes[j].Episode
	})
}

// SortSeasons orders seasons by number; ties keep input order.
func SortSeasons(seasons []Season) {
	sort.SliceStable(seasons, func(i, j int) bool {
		return seasons[i].Number < seasons[j].Number
	})
}
