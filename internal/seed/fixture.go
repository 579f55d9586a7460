// Package seed loads fixture files and generates synthetic populations for
// local datastores.
package seed

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidFixture is returned for fixtures that reference unknown users or
// carry malformed values.
var ErrInvalidFixture = errors.New("invalid fixture")

// UserFixture is one user of a fixture file.
type UserFixture struct {
	ID        string    `yaml:"id"`
	FirstName string    `yaml:"first_name"`
	LastName  string    `yaml:"last_name"`
	Birthdate string    `yaml:"birthdate"`
	Gender    string    `yaml:"gender"`
	TZName    string    `yaml:"tz_name"`
	Teaches   []string  `yaml:"teaches"`
	Learns    []string  `yaml:"learns"`
	Embedding []float32 `yaml:"embedding,omitempty"`
}

// SwipeFixture is one swipe of a fixture file. DaysAgo is relative to the
// time the fixture is applied.
type SwipeFixture struct {
	Viewer    string `yaml:"viewer"`
	Candidate string `yaml:"candidate"`
	Status    string `yaml:"status"`
	DaysAgo   int    `yaml:"days_ago"`
}

// Fixture is a complete population.
type Fixture struct {
	Users  []UserFixture  `yaml:"users"`
	Swipes []SwipeFixture `yaml:"swipes"`
}

// Load decodes a fixture. Unknown keys are rejected.
func Load(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	return &f, nil
}

// LoadFile decodes the fixture at path.
func LoadFile(path string) (*Fixture, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer fh.Close()
	return Load(fh)
}

// Write encodes f as YAML.
func Write(w io.Writer, f *Fixture) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	return enc.Close()
}
