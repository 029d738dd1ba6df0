package medianame

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseEpisodeInfo(t *testing.T) {
	tests := []struct {
		name   string
		want   EpisodeInfo
		wantOK bool
	}{
		{
			name:   "Friends.S01E01.mkv",
			want:   EpisodeInfo{Season: 1, Episode: 1, Label: "S01E01", Title: "Friends"},
			wantOK: true,
		},
		{
			name:   "s1e2.mp4",
			want:   EpisodeInfo{Season: 1, Episode: 2, Label: "S01E02", Title: ""},
			wantOK: true,
		},
		{
			name:   "Show 1x05.avi",
			want:   EpisodeInfo{Season: 1, Episode: 5, Label: "S01E05", Title: "Show"},
			wantOK: true,
		},
		{
			name:   "Сезон 2 серия 3.mkv",
			want:   EpisodeInfo{Season: 2, Episode: 3, Label: "S02E03", Title: ""},
			wantOK: true,
		},
		{
			name:   "Show Season 2 Episode 5.mkv",
			want:   EpisodeInfo{Season: 2, Episode: 5, Label: "S02E05", Title: "Show"},
			wantOK: true,
		},
		{
			name:   "Inception (2010).mkv",
			wantOK: false,
		},
		{
			// an episode marker alone is not enough
			name:   "Movie.E05.mkv",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseEpisodeInfo(tt.name)
			if ok != tt.wantOK {
				t.Fatalf("ParseEpisodeInfo(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseEpisodeInfo(%q) mismatch (-want +got):\n%s", tt.name, diff)
			}
		})
	}
}

// Every SxxEyy spelling yields a label padded to two digits, whatever the
// input padding or case.
func TestParseEpisodeInfo_LabelPadding(t *testing.T) {
	formats := []string{"Show.S%dE%d.mkv", "Show.s%02de%02d.mkv", "show.S%02de%d.mp4", "show.s%de%02d.avi"}
	for season := 1; season <= 99; season += 7 {
		for episode := 1; episode <= 99; episode += 5 {
			want := fmt.Sprintf("S%02dE%02d", season, episode)
			for _, f := range formats {
				name := fmt.Sprintf(f, season, episode)
				got, ok := ParseEpisodeInfo(name)
				if !ok {
					t.Fatalf("ParseEpisodeInfo(%q) not an episode", name)
				}
				if got.Label != want {
					t.Errorf("ParseEpisodeInfo(%q).Label = %q, want %q", name, got.Label, want)
				}
				if got.Season != season || got.Episode != episode {
					t.Errorf("ParseEpisodeInfo(%q) = S%d E%d, want S%d E%d", name, got.Season, got.Episode, season, episode)
				}
			}
		}
	}
}

func TestParseMovieInfo(t *testing.T) {
	tests := []struct {
		name string
		want MovieInfo
	}{
		{"Inception (2010).mkv", MovieInfo{Title: "Inception (2010)", Year: 2010}},
		{"The.Matrix.1999.mp4", MovieInfo{Title: "The Matrix 1999", Year: 1999}},
		{"Up.mkv", MovieInfo{Title: "Up", Ambiguous: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseMovieInfo(tt.name)); diff != "" {
				t.Errorf("ParseMovieInfo(%q) mismatch (-want +got):\n%s", tt.name, diff)
			}
		})
	}
}
