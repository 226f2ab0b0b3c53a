package model

import (
	"context"
	"fmt"

	"github.com/tordrt/schemashift/internal/db"
	"github.com/tordrt/schemashift/internal/schema"
)

// DatabaseSource reads the target schema from a live database. It is used
// to bootstrap a model file from an existing database.
type DatabaseSource struct {
	Extractor db.Extractor
	// Tables limits extraction; empty means every table
	Tables []string
	// Exclude drops tables after extraction, e.g. the recorder table
	Exclude []string
}

// Load implements Source
func (d DatabaseSource) Load(ctx context.Context) (*schema.Schema, error) {
	s, err := d.Extractor.ExtractSchema(ctx, d.Tables)
	if err != nil {
		return nil, fmt.Errorf("failed to extract schema: %w", err)
	}
	s.Exclude(d.Exclude)
	return s, nil
}

// Static serves a schema held in memory
type Static struct {
	Schema *schema.Schema
}

// Load implements Source and returns a copy so callers may mutate it
func (s Static) Load(_ context.Context) (*schema.Schema, error) {
	if s.Schema == nil {
		return schema.New(), nil
	}
	return s.Schema.Clone(), nil
}
