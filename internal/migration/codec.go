package migration

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/schemashift/internal/change"
)

type document struct {
	Name            string        `yaml:"name"`
	Dependencies    []string      `yaml:"dependencies"`
	Upgrade         []change.Step `yaml:"upgrade"`
	Downgrade       []change.Step `yaml:"downgrade"`
	UpgradeExtras   []Extra       `yaml:"upgrade_extras,omitempty"`
	DowngradeExtras []Extra       `yaml:"downgrade_extras,omitempty"`
}

// Marshal renders a migration as a YAML document
func Marshal(m *Migration) ([]byte, error) {
	doc := document{
		Name:            m.Name,
		Dependencies:    m.Dependencies,
		Upgrade:         change.Steps(m.Upgrade),
		Downgrade:       change.Steps(m.Downgrade),
		UpgradeExtras:   m.UpgradeExtras,
		DowngradeExtras: m.DowngradeExtras,
	}
	if doc.Dependencies == nil {
		doc.Dependencies = []string{}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode migration %s: %w", m.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode migration %s: %w", m.Name, err)
	}
	return buf.Bytes(), nil
}

// Unmarshal parses a migration document, rejecting unknown top-level keys
func Unmarshal(data []byte) (*Migration, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode migration: %w", err)
	}
	m := &Migration{
		Name:            doc.Name,
		Dependencies:    doc.Dependencies,
		Upgrade:         change.Changes(doc.Upgrade),
		Downgrade:       change.Changes(doc.Downgrade),
		UpgradeExtras:   doc.UpgradeExtras,
		DowngradeExtras: doc.DowngradeExtras,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
