package config

import (
	"errors"
	"testing"
)

func TestConfigError_OrNil(t *testing.T) {
	if err := (&ConfigError{Path: "config.toml"}).orNil(); err != nil {
		t.Errorf("expected nil error without problems, got %v", err)
	}

	e := &ConfigError{Path: "config.toml", Errors: []string{"library.root: required"}}
	var got *ConfigError
	if err := e.orNil(); !errors.As(err, &got) || got != e {
		t.Errorf("expected the ConfigError itself, got %v", err)
	}
}

func TestConfigError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  ConfigError
		want string
	}{
		{
			name: "one missing variable",
			err:  ConfigError{Path: "/etc/reelshelf/config.toml", Missing: []string{"REELSHELF_LIBRARY"}},
			want: "config /etc/reelshelf/config.toml: 1 problem\n" +
				"  - environment variable REELSHELF_LIBRARY is not set",
		},
		{
			name: "required variable with hint",
			err:  ConfigError{Path: "config.toml", Missing: []string{"REELSHELF_LIBRARY: set it to your media folder"}},
			want: "config config.toml: 1 problem\n" +
				"  - environment variable REELSHELF_LIBRARY is not set (set it to your media folder)",
		},
		{
			name: "validation errors",
			err: ConfigError{
				Path:   "config.toml",
				Errors: []string{"server.port: must be 1-65535", "library.root: required"},
			},
			want: "config config.toml: 2 problems\n" +
				"  - server.port: must be 1-65535\n" +
				"  - library.root: required",
		},
		{
			name: "missing variables come first",
			err: ConfigError{
				Path:    "config.toml",
				Missing: []string{"HOME_MEDIA"},
				Errors:  []string{"server.port: must be 1-65535"},
			},
			want: "config config.toml: 2 problems\n" +
				"  - environment variable HOME_MEDIA is not set\n" +
				"  - server.port: must be 1-65535",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
