package decl

import (
	"fmt"
	"strings"
)

// Coordinate is a Maven-style dependency coordinate,
// `group:artifact[:version[:classifier]][@extension]`.
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string
	Extension  string
}

// ParseCoordinate parses a dependency notation string.
func ParseCoordinate(s string) (Coordinate, error) {
	var c Coordinate
	notation, ext, _ := strings.Cut(strings.TrimSpace(s), "@")
	c.Extension = ext

	parts := strings.Split(notation, ":")
	if len(parts) < 2 || len(parts) > 4 {
		return Coordinate{}, fmt.Errorf("invalid dependency coordinate %q", s)
	}
	for _, p := range parts[:2] {
		if p == "" {
			return Coordinate{}, fmt.Errorf("invalid dependency coordinate %q: empty group or artifact", s)
		}
	}
	c.Group, c.Artifact = parts[0], parts[1]
	if len(parts) > 2 {
		c.Version = parts[2]
	}
	if len(parts) > 3 {
		c.Classifier = parts[3]
	}
	return c, nil
}

// Module returns `group:artifact`, plus the classifier when present. Two
// declarations of the same module pin the same thing.
func (c Coordinate) Module() string {
	m := c.Group + ":" + c.Artifact
	if c.Classifier != "" {
		m += ":" + c.Classifier
	}
	return m
}

func (c Coordinate) String() string {
	s := c.Module()
	if c.Version != "" {
		s = c.Group + ":" + c.Artifact + ":" + c.Version
		if c.Classifier != "" {
			s += ":" + c.Classifier
		}
	}
	if c.Extension != "" {
		s += "@" + c.Extension
	}
	return s
}
