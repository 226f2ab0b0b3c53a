package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tordrt/schemashift/internal/schema"
)

// MySQLExtractor handles schema extraction from MySQL
type MySQLExtractor struct {
	client     *Client
	schemaName string
}

// NewMySQLExtractor creates a new MySQL schema extractor
func NewMySQLExtractor(client *Client, schemaName string) *MySQLExtractor {
	return &MySQLExtractor{
		client:     client,
		schemaName: schemaName,
	}
}

// ExtractSchema extracts the complete schema for specified tables
// If tables is empty, extracts all tables in the schema
func (e *MySQLExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	return extractSchema(ctx, e, tables)
}

// getTableNames returns the list of tables to extract
func (e *MySQLExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.client.DB().QueryContext(ctx, query, e.schemaName)
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
func (e *MySQLExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	fields, err := e.extractFields(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Fields = fields

	pk, err := e.extractPrimaryKey(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract primary key: %w", err)
	}

	indexes, uniques, err := e.extractIndexes(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract indexes: %w", err)
	}

	foreignKeys, err := e.extractForeignKeys(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}
	table.Constraints = foreignKeys
	markKeys(table, pk, uniques)

	// MySQL creates an index named after each foreign key; it is owned by
	// the constraint, not the model
	fkNames := make(map[string]bool, len(foreignKeys))
	for _, fk := range foreignKeys {
		fkNames[fk.Name] = true
	}
	for _, idx := range indexes {
		if !fkNames[idx.Name] {
			table.Indexes = append(table.Indexes, idx)
		}
	}

	return table, nil
}

// extractFields extracts column information for a table
func (e *MySQLExtractor) extractFields(ctx context.Context, tableName string) ([]schema.Field, error) {
	query := `
		SELECT
			c.column_name,
			c.column_type,
			c.data_type,
			c.is_nullable,
			c.column_default,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position
	`

	rows, err := e.client.DB().QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []schema.Field
	for rows.Next() {
		var f schema.Field
		var columnType, dataType, nullable string
		var defaultVal sql.NullString
		var charMaxLength, precision, scale sql.NullInt64

		if err := rows.Scan(&f.Name, &columnType, &dataType, &nullable, &defaultVal, &charMaxLength, &precision, &scale); err != nil {
			return nil, err
		}

		f.Nullable = (nullable == "YES")
		if defaultVal.Valid {
			f.DefaultValue = &defaultVal.String
		}
		f.Type, f.Size = normalizeMySQLType(columnType, dataType, charMaxLength, precision, scale)
		fields = append(fields, f)
	}

	return fields, rows.Err()
}

// normalizeMySQLType splits the declared size out of a column type. ENUM
// and SET keep their full declaration since the values are the type.
func normalizeMySQLType(columnType, dataType string, charMaxLength, precision, scale sql.NullInt64) (string, []int) {
	dataType = strings.ToLower(dataType)
	switch dataType {
	case "enum", "set":
		return columnType, nil
	case "varchar", "char", "varbinary", "binary":
		if charMaxLength.Valid {
			return dataType, []int{int(charMaxLength.Int64)}
		}
	case "decimal":
		if precision.Valid && scale.Valid {
			return dataType, []int{int(precision.Int64), int(scale.Int64)}
		}
	}
	if strings.Contains(strings.ToLower(columnType), "unsigned") {
		return dataType + " unsigned", nil
	}
	return dataType, nil
}

// extractPrimaryKey extracts primary key columns
func (e *MySQLExtractor) extractPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
			AND table_name = ?
			AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`

	rows, err := e.client.DB().QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var colName string
		if err := rows.Scan(&colName); err != nil {
			return nil, err
		}
		pk = append(pk, colName)
	}

	return pk, rows.Err()
}

// extractForeignKeys extracts foreign key constraints with their rules
func (e *MySQLExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]schema.Constraint, error) {
	query := `
		SELECT
			kcu.constraint_name,
			GROUP_CONCAT(kcu.column_name ORDER BY kcu.ordinal_position),
			kcu.referenced_table_name,
			GROUP_CONCAT(kcu.referenced_column_name ORDER BY kcu.ordinal_position),
			rc.delete_rule,
			rc.update_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_schema = kcu.table_schema
			AND rc.constraint_name = kcu.constraint_name
		WHERE kcu.table_schema = ?
			AND kcu.table_name = ?
			AND kcu.referenced_table_name IS NOT NULL
		GROUP BY kcu.constraint_name, kcu.referenced_table_name, rc.delete_rule, rc.update_rule
		ORDER BY kcu.constraint_name
	`

	rows, err := e.client.DB().QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var constraints []schema.Constraint
	for rows.Next() {
		c := schema.Constraint{Type: schema.ForeignKey}
		var columns, refColumns, deleteRule, updateRule string
		if err := rows.Scan(&c.Name, &columns, &c.ReferenceTable, &refColumns, &deleteRule, &updateRule); err != nil {
			return nil, err
		}
		c.Fields = splitList(columns)
		c.ReferenceFields = splitList(refColumns)
		c.OnDelete = referentialAction(deleteRule)
		c.OnUpdate = referentialAction(updateRule)
		constraints = append(constraints, c)
	}

	return constraints, rows.Err()
}

// extractIndexes splits the table's non-primary indexes into plain indexes
// and unique keys
func (e *MySQLExtractor) extractIndexes(ctx context.Context, tableName string) ([]schema.Index, []schema.Constraint, error) {
	query := `
		SELECT
			s.index_name,
			s.non_unique = 0 AS is_unique,
			s.index_type,
			GROUP_CONCAT(s.column_name ORDER BY s.seq_in_index) AS column_names
		FROM information_schema.statistics s
		WHERE s.table_schema = ?
			AND s.table_name = ?
			AND s.index_name != 'PRIMARY'
		GROUP BY s.index_name, s.non_unique, s.index_type
		ORDER BY s.index_name
	`

	rows, err := e.client.DB().QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var indexes []schema.Index
	var uniques []schema.Constraint
	for rows.Next() {
		var name, indexType, columnNames string
		var isUnique int

		if err := rows.Scan(&name, &isUnique, &indexType, &columnNames); err != nil {
			return nil, nil, err
		}

		if isUnique == 1 {
			uniques = append(uniques, schema.Constraint{Name: name, Type: schema.Unique, Fields: splitList(columnNames)})
			continue
		}
		idx := schema.Index{Name: name, Fields: splitList(columnNames)}
		if !strings.EqualFold(indexType, "BTREE") {
			idx.Type = strings.ToLower(indexType)
		}
		indexes = append(indexes, idx)
	}

	return indexes, uniques, rows.Err()
}
