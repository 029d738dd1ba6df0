package config

import (
	"fmt"
	"strings"
)

// ConfigError reports every problem found in one config file, so a single
// run of "reelshelf config test" shows them all.
type ConfigError struct {
	Path    string
	Missing []string // unset variables, as "NAME" or "NAME: hint"
	Errors  []string // failed validation rules as "field: problem"
}

// Problems returns one line per problem, unset variables first.
func (e *ConfigError) Problems() []string {
	out := make([]string, 0, len(e.Missing)+len(e.Errors))
	for _, m := range e.Missing {
		name, hint, ok := strings.Cut(m, ": ")
		line := "environment variable " + name + " is not set"
		if ok {
			line += " (" + hint + ")"
		}
		out = append(out, line)
	}
	return append(out, e.Errors...)
}

func (e *ConfigError) Error() string {
	problems := e.Problems()
	var b strings.Builder
	fmt.Fprintf(&b, "config %s: %d problem", e.Path, len(problems))
	if len(problems) != 1 {
		b.WriteByte('s')
	}
	for _, p := range problems {
		b.WriteString("\n  - ")
		b.WriteString(p)
	}
	return b.String()
}

// orNil returns e as an error only when it holds problems.
func (e *ConfigError) orNil() error {
	if len(e.Missing) == 0 && len(e.Errors) == 0 {
		return nil
	}
	return e
}
