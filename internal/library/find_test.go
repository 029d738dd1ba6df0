package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmunix/reelshelf/internal/fsaccess"
)

func testCatalog() *Catalog {
	return &Catalog{
		Type: LayoutOrganized,
		Movies: []Movie{
			{Title: "Amélie (2001)", OriginalName: "Amélie (2001).mkv", Path: "Library/Movies"},
			{Title: "Heat (1995)", OriginalName: "Heat (1995).mkv", Path: "Library/Movies", Ref: "/Movies/Heat (1995).mkv"},
		},
		Series: []Series{
			{
				Title: "Friends", OriginalName: "Friends", Path: "Library/Serials",
				Seasons: []Season{{
					Name: "Season 01", Number: 1,
					Episodes: []Episode{
						{Title: "Friends", OriginalName: "Friends.S01E01.mkv", Season: 1, Episode: 1, EpisodeLabel: "S01E01", Path: "Library/Serials/Friends/Season 01"},
						{Title: "The One With the Sonogram", OriginalName: "S01E02 The One With the Sonogram.mkv", Season: 1, Episode: 2, EpisodeLabel: "S01E02", Path: "Library/Serials/Friends/Season 01"},
					},
				}},
			},
		},
	}
}

func TestCatalog_Find(t *testing.T) {
	c := testCatalog()

	matches := c.Find("amelie")
	require.NotEmpty(t, matches)
	assert.Equal(t, "Amélie (2001)", matches[0].Title)
	assert.Equal(t, MediaMovie, matches[0].Type)
	assert.Equal(t, "Library/Movies/Amélie (2001).mkv", matches[0].Identity)

	matches = c.Find("friends")
	require.NotEmpty(t, matches)
	assert.Equal(t, SeriesMediaType, matches[0].Type)
	assert.Equal(t, "high", matches[0].Level)

	assert.Empty(t, c.Find("zzzz qqqq"))
	assert.Nil(t, c.Find("   "))
}

func TestCatalog_Find_OrderedByScore(t *testing.T) {
	c := testCatalog()

	matches := c.Find("heat")
	require.NotEmpty(t, matches)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
	assert.Equal(t, "Heat (1995)", matches[0].Title)
}

func TestCatalog_Find_Episode(t *testing.T) {
	c := testCatalog()

	matches := c.Find("friends s01e02")
	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, MediaEpisode, m.Type)
	assert.Equal(t, "S01E02", m.Episode)
	assert.Equal(t, "Friends S01E02 The One With the Sonogram", m.Title)
	assert.Equal(t, "Library/Serials/Friends/Season 01/S01E02 The One With the Sonogram.mkv", m.Identity)
	assert.Equal(t, "high", m.Level)

	matches = c.Find("Friends season 1 episode 1")
	require.Len(t, matches, 1)
	assert.Equal(t, "S01E01", matches[0].Episode)

	assert.Empty(t, c.Find("friends s02e01"), "no such episode")
	assert.Empty(t, c.Find("heat 1x01"), "movies have no episodes")
	assert.Nil(t, c.Find("s01e01"), "marker without a title")
}

func TestCatalog_Find_PartialLastWord(t *testing.T) {
	c := testCatalog()

	matches := c.Find("frie")
	require.NotEmpty(t, matches)
	assert.Equal(t, "Friends", matches[0].Title)
	assert.GreaterOrEqual(t, matches[0].Score, 0.90)
}

func TestCatalog_Lookup(t *testing.T) {
	c := testCatalog()

	item, err := c.Lookup("Library/Movies/Heat (1995).mkv")
	require.NoError(t, err)
	assert.Equal(t, MediaMovie, item.Type)
	assert.Equal(t, "Heat (1995)", item.Title())
	assert.Equal(t, fsaccess.Ref("/Movies/Heat (1995).mkv"), item.Ref())

	item, err = c.Lookup("Library/Serials/Friends/Season 01/S01E02 The One With the Sonogram.mkv")
	require.NoError(t, err)
	assert.Equal(t, MediaEpisode, item.Type)
	assert.Equal(t, 2, item.Episode.Episode)
	assert.Equal(t, "Friends", item.Series.Title)
	assert.Equal(t, "Friends S01E02 The One With the Sonogram", item.Title())

	item, err = c.Lookup("Library/Serials/Friends/Season 01/Friends.S01E01.mkv")
	require.NoError(t, err)
	assert.Equal(t, "Friends S01E01", item.Title())
	assert.Empty(t, Item{}.Ref())

	_, err = c.Lookup("Library/Movies/Nope.mkv")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_SeriesByIdentity(t *testing.T) {
	c := testCatalog()

	s, err := c.SeriesByIdentity("Library/Serials/Friends")
	require.NoError(t, err)
	assert.Equal(t, "Friends", s.Title)

	_, err = c.SeriesByIdentity("Library/Serials/Lost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_MediaTypeOf(t *testing.T) {
	c := testCatalog()

	assert.Equal(t, MediaMovie, c.MediaTypeOf("Library/Movies/Heat (1995).mkv"))
	assert.Equal(t, MediaEpisode, c.MediaTypeOf("Library/Serials/Friends/Season 01/Friends.S01E01.mkv"))
	assert.Equal(t, MediaUnknown, c.MediaTypeOf("Library/elsewhere.mkv"))
}
