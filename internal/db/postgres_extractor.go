package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/tordrt/schemashift/internal/schema"
)

const varcharType = "varchar"

// PostgresExtractor handles schema extraction from PostgreSQL
type PostgresExtractor struct {
	client *Client
	schema string
}

// NewPostgresExtractor creates a new schema extractor
func NewPostgresExtractor(client *Client, schemaName string) *PostgresExtractor {
	return &PostgresExtractor{
		client: client,
		schema: schemaName,
	}
}

// ExtractSchema extracts the complete schema for specified tables
// If tables is empty, extracts all tables in the schema
func (e *PostgresExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	return extractSchema(ctx, e, tables)
}

// getTableNames returns the list of tables to extract
func (e *PostgresExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.client.DB().QueryContext(ctx, query, e.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

// extractTable extracts all information for a single table
func (e *PostgresExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	fields, err := e.extractFields(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Fields = fields

	if err := e.extractConstraints(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to extract constraints: %w", err)
	}

	indexes, err := e.extractIndexes(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract indexes: %w", err)
	}
	table.Indexes = indexes

	return table, nil
}

// normalizePostgresType maps verbose SQL type names to commonly-used
// PostgreSQL equivalents and splits out the size
func normalizePostgresType(dataType, udtName string, charMaxLength, precision, scale *int) (string, []int) {
	switch dataType {
	case "timestamp with time zone":
		return "timestamptz", nil
	case "timestamp without time zone":
		return "timestamp", nil
	case "time with time zone":
		return "timetz", nil
	case "time without time zone":
		return "time", nil
	case "character varying":
		if charMaxLength != nil {
			return varcharType, []int{*charMaxLength}
		}
		return varcharType, nil
	case "character":
		if charMaxLength != nil {
			return "char", []int{*charMaxLength}
		}
		return "char", nil
	case "numeric":
		if precision != nil && scale != nil {
			return "numeric", []int{*precision, *scale}
		}
		return "numeric", nil
	case "ARRAY":
		// udt_name has underscore prefix for arrays (e.g., "_text" for text[], "_int4" for integer[])
		if len(udtName) > 0 && udtName[0] == '_' {
			return normalizeUdtName(udtName[1:]) + "[]", nil
		}
		return "array", nil
	case "USER-DEFINED":
		return udtName, nil
	default:
		return dataType, nil
	}
}

// normalizeUdtName converts PostgreSQL internal type names to more readable forms
func normalizeUdtName(udtName string) string {
	switch udtName {
	case "int4":
		return "integer"
	case "int8":
		return "bigint"
	case "int2":
		return "smallint"
	case "float4":
		return "real"
	case "float8":
		return "double precision"
	case "bool":
		return "boolean"
	default:
		return udtName
	}
}

// extractFields extracts column information for a table
func (e *PostgresExtractor) extractFields(ctx context.Context, tableName string) ([]schema.Field, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default,
			c.udt_name,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale
		FROM information_schema.columns c
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := e.client.DB().QueryContext(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []schema.Field
	for rows.Next() {
		var f schema.Field
		var nullable, dataType, udtName string
		var charMaxLength, precision, scale *int

		if err := rows.Scan(&f.Name, &dataType, &nullable, &f.DefaultValue, &udtName, &charMaxLength, &precision, &scale); err != nil {
			return nil, err
		}

		f.Nullable = (nullable == "YES")
		f.Type, f.Size = normalizePostgresType(dataType, udtName, charMaxLength, precision, scale)
		fields = append(fields, f)
	}

	return fields, rows.Err()
}

var pgReferentialActions = map[string]string{
	"r": "restrict",
	"c": "cascade",
	"n": "set null",
	"d": "set default",
}

var pgMatchTypes = map[string]string{
	"f": "full",
	"p": "partial",
}

// extractConstraints reads primary key, unique, foreign key and check
// constraints from pg_constraint
func (e *PostgresExtractor) extractConstraints(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT
			c.conname,
			c.contype::text,
			COALESCE((
				SELECT string_agg(a.attname, ',' ORDER BY k.ord)
				FROM unnest(c.conkey) WITH ORDINALITY AS k(attnum, ord)
				JOIN pg_attribute a ON a.attrelid = c.conrelid AND a.attnum = k.attnum
			), '') AS columns,
			COALESCE(rt.relname, '') AS ref_table,
			COALESCE((
				SELECT string_agg(a.attname, ',' ORDER BY k.ord)
				FROM unnest(c.confkey) WITH ORDINALITY AS k(attnum, ord)
				JOIN pg_attribute a ON a.attrelid = c.confrelid AND a.attnum = k.attnum
			), '') AS ref_columns,
			c.confdeltype::text,
			c.confupdtype::text,
			c.confmatchtype::text,
			c.condeferrable,
			CASE WHEN c.contype = 'c' THEN pg_get_constraintdef(c.oid) ELSE '' END AS definition
		FROM pg_constraint c
		JOIN pg_class t ON t.oid = c.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		LEFT JOIN pg_class rt ON rt.oid = c.confrelid
		WHERE n.nspname = $1
			AND t.relname = $2
			AND c.contype IN ('p', 'u', 'f', 'c')
		ORDER BY c.conname
	`

	rows, err := e.client.DB().QueryContext(ctx, query, e.schema, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	var pk []string
	var uniques []schema.Constraint
	for rows.Next() {
		var name, contype, columns, refTable, refColumns, delType, updType, matchType, definition string
		var deferrable bool

		if err := rows.Scan(&name, &contype, &columns, &refTable, &refColumns, &delType, &updType, &matchType, &deferrable, &definition); err != nil {
			return err
		}

		c := schema.Constraint{Name: name, Fields: splitList(columns), Deferrable: deferrable}
		switch contype {
		case "p":
			pk = c.Fields
		case "u":
			c.Type = schema.Unique
			uniques = append(uniques, c)
		case "f":
			c.Type = schema.ForeignKey
			c.ReferenceTable = refTable
			c.ReferenceFields = splitList(refColumns)
			c.OnDelete = pgReferentialActions[delType]
			c.OnUpdate = pgReferentialActions[updType]
			c.MatchType = pgMatchTypes[matchType]
			table.Constraints = append(table.Constraints, c)
		case "c":
			c.Type = schema.Check
			c.Fields = nil
			c.Expression = strings.TrimSuffix(strings.TrimPrefix(definition, "CHECK ("), ")")
			table.Constraints = append(table.Constraints, c)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	markKeys(table, pk, uniques)
	return nil
}

// extractIndexes extracts indexes that do not back a constraint
func (e *PostgresExtractor) extractIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	query := `
		SELECT
			i.relname AS index_name,
			ix.indisunique AS is_unique,
			am.amname AS method,
			string_agg(a.attname, ',' ORDER BY array_position(ix.indkey, a.attnum)) AS column_names
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_am am ON am.oid = i.relam
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
			AND n.nspname = $1
			AND t.relname = $2
			AND NOT ix.indisprimary
			AND NOT EXISTS (SELECT 1 FROM pg_constraint c WHERE c.conindid = ix.indexrelid)
		GROUP BY i.relname, ix.indisunique, am.amname
		ORDER BY i.relname
	`

	rows, err := e.client.DB().QueryContext(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []schema.Index
	for rows.Next() {
		var idx schema.Index
		var columns string
		if err := rows.Scan(&idx.Name, &idx.Unique, &idx.Type, &columns); err != nil {
			return nil, err
		}
		if idx.Type == "btree" {
			idx.Type = ""
		}
		idx.Fields = splitList(columns)
		indexes = append(indexes, idx)
	}

	return indexes, rows.Err()
}
