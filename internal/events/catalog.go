package events

// Entity types
const (
	EntityCatalog = "catalog"
	EntityLibrary = "library"
	EntityMedia   = "media"
	EntityProfile = "profile"
)

// Event type constants
const (
	EventCatalogUpdated    = "catalog.updated"
	EventPermissionChanged = "permission.changed"
	EventPlaybackCompleted = "playback.completed"
	EventProfileSwitched   = "profile.switched"
)

// CatalogUpdated is emitted when a refresh finds a different set of movies or
// series than the catalog it replaced.
type CatalogUpdated struct {
	BaseEvent
	Layout      string `json:"layout"`
	Movies      int    `json:"movies"`
	Series      int    `json:"series"`
	Failures    int    `json:"failures,omitempty"`
	BuiltAtUnix int64  `json:"built_at"`
}

// PermissionChanged is emitted when read access to the library root changes.
type PermissionChanged struct {
	BaseEvent
	OldState string `json:"old_state"`
	NewState string `json:"new_state"`
}

// PlaybackCompleted is emitted when a title is finished, either by the player
// reporting its end or by an explicit mark.
type PlaybackCompleted struct {
	BaseEvent
	Profile   string  `json:"profile"`
	MediaType string  `json:"media_type"`
	Position  float64 `json:"position"`
	Duration  float64 `json:"duration"`
}

// ProfileSwitched is emitted when the current profile changes.
type ProfileSwitched struct {
	BaseEvent
	Previous string `json:"previous,omitempty"`
	Current  string `json:"current"`
}
