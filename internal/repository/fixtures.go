package repository

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/portal.yaml
var portalFixtures []byte

// FixtureSource loads the built-in portal data.
type FixtureSource struct {
	data []byte
}

// NewFixtureSource returns a source over the embedded fixtures.
func NewFixtureSource() *FixtureSource {
	return &FixtureSource{data: portalFixtures}
}

// Load parses the fixture document.
func (s *FixtureSource) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := yaml.Unmarshal(s.data, &snap); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &snap, nil
}
