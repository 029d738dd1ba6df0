package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	raw := RawEvent{
		EventType: EventPlaybackCompleted,
		Payload:   `{"type":"playback.completed","entity_type":"media","entity_id":"Library/Movies/Heat (1995).mkv","occurred_at":"2026-01-01T00:00:00Z","profile":"alice","media_type":"movie","position":6100,"duration":6120}`,
	}

	e, err := raw.Decode()
	require.NoError(t, err)

	done, ok := e.(*PlaybackCompleted)
	require.True(t, ok)
	assert.Equal(t, "alice", done.Profile)
	assert.Equal(t, "movie", done.MediaType)
	assert.Equal(t, 6100.0, done.Position)
	assert.Equal(t, "Library/Movies/Heat (1995).mkv", done.EntityID())
}

func TestDecode_EveryKnownType(t *testing.T) {
	for eventType := range kinds {
		t.Run(eventType, func(t *testing.T) {
			e, err := Decode(eventType, []byte(`{"type":"`+eventType+`","entity_type":"catalog","entity_id":"Library","occurred_at":"2026-01-01T00:00:00Z"}`))
			require.NoError(t, err)
			assert.Equal(t, eventType, e.EventType())
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode("unknown.event", []byte(`{}`))
	assert.True(t, errors.Is(err, ErrUnknownType))

	_, err = Decode(EventCatalogUpdated, []byte(`{invalid json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode catalog.updated payload")
}

func TestDecode_UnicodeProfile(t *testing.T) {
	e, err := Decode(EventProfileSwitched, []byte(`{"type":"profile.switched","entity_type":"profile","entity_id":"Олена","occurred_at":"2026-01-01T12:00:00Z","previous":"alice","current":"Олена"}`))
	require.NoError(t, err)

	switched := e.(*ProfileSwitched)
	assert.Equal(t, "alice", switched.Previous)
	assert.Equal(t, "Олена", switched.Current)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "catalog",
			event: &CatalogUpdated{Layout: "organized", Movies: 2, Series: 1},
			want:  "organized catalog: 2 movies, 1 series",
		},
		{
			name:  "catalog with failures",
			event: &CatalogUpdated{Layout: "mixed", Movies: 1, Failures: 3},
			want:  "mixed catalog: 1 movies, 0 series, 3 unreadable",
		},
		{
			name:  "first permission",
			event: &PermissionChanged{NewState: "granted"},
			want:  "library access granted",
		},
		{
			name:  "permission lost",
			event: &PermissionChanged{OldState: "granted", NewState: "denied"},
			want:  "library access granted -> denied",
		},
		{
			name: "playback",
			event: &PlaybackCompleted{
				BaseEvent: NewBaseEvent(EventPlaybackCompleted, EntityMedia, "Library/Movies/Heat (1995).mkv"),
				Profile:   "alice",
			},
			want: "alice finished Heat (1995).mkv",
		},
		{
			name:  "first profile",
			event: &ProfileSwitched{Current: "alice"},
			want:  "switched to alice",
		},
		{
			name:  "profile switch",
			event: &ProfileSwitched{Previous: "alice", Current: "bob"},
			want:  "switched from alice to bob",
		},
		{
			name:  "other",
			event: &testEvent{BaseEvent: NewBaseEvent("test.created", "test", "1")},
			want:  "test.created 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.event))
		})
	}
}
