package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/tordrt/schemashift/internal/schema"
)

// Extractor reads the live schema of a connected database
type Extractor interface {
	ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error)
}

// NewExtractor picks the extractor for the client's dialect. schemaName is
// the PostgreSQL schema or MySQL database; SQLite ignores it.
func NewExtractor(c *Client, schemaName string) (Extractor, error) {
	switch c.Dialect().Name() {
	case "postgres":
		if schemaName == "" {
			schemaName = "public"
		}
		return NewPostgresExtractor(c, schemaName), nil
	case "mysql":
		if schemaName == "" {
			return nil, fmt.Errorf("mysql extraction requires a database name")
		}
		return NewMySQLExtractor(c, schemaName), nil
	case "sqlite":
		return NewSQLiteExtractor(c), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.Dialect().Name())
	}
}

// tableExtractor is the per-table half every dialect implements
type tableExtractor interface {
	getTableNames(ctx context.Context, requested []string) ([]string, error)
	extractTable(ctx context.Context, tableName string) (*schema.Table, error)
}

// extractSchema walks the tables of e into a Schema
func extractSchema(ctx context.Context, e tableExtractor, tables []string) (*schema.Schema, error) {
	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	s := schema.New()
	for _, tableName := range tableNames {
		table, err := e.extractTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", tableName, err)
		}
		if err := s.AddTable(*table); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// markKeys moves single-column primary key and unique information onto the
// fields; composite unique keys stay as constraints
func markKeys(t *schema.Table, pk []string, uniques []schema.Constraint) {
	for _, name := range pk {
		if i := t.Field(name); i >= 0 {
			t.Fields[i].PrimaryKey = true
		}
	}
	for _, u := range uniques {
		if len(u.Fields) == 1 {
			if i := t.Field(u.Fields[0]); i >= 0 && !t.Fields[i].PrimaryKey {
				t.Fields[i].Unique = true
				continue
			}
		}
		t.Constraints = append(t.Constraints, u)
	}
}

// referentialAction normalizes an ON DELETE/UPDATE rule; the default is empty
func referentialAction(rule string) string {
	rule = strings.ToLower(strings.TrimSpace(rule))
	if rule == "no action" {
		return ""
	}
	return rule
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
