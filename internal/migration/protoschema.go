package migration

import (
	"fmt"

	"github.com/tordrt/schemashift/internal/change"
	"github.com/tordrt/schemashift/internal/schema"
)

// Protoschema replays every migration's upgrade steps, in graph order,
// onto an empty schema. No database is consulted.
func Protoschema(g *Graph) (*schema.Schema, error) {
	s := schema.New()
	for _, m := range g.Order() {
		if err := change.Apply(s, m.Upgrade); err != nil {
			return nil, fmt.Errorf("failed to replay migration %s: %w", m.Name, err)
		}
	}
	return s, nil
}
