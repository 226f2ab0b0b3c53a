package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tordrt/schemashift/internal/schema"
)

// SQLiteExtractor handles schema extraction from SQLite
type SQLiteExtractor struct {
	client *Client
}

// NewSQLiteExtractor creates a new SQLite schema extractor
func NewSQLiteExtractor(client *Client) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
	}
}

// ExtractSchema extracts the complete schema for specified tables
// If tables is empty, extracts all tables in the database
func (e *SQLiteExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	return extractSchema(ctx, e, tables)
}

// getTableNames returns the list of tables to extract
func (e *SQLiteExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := e.client.DB().QueryContext(ctx, query)
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

// pragma runs a table-valued PRAGMA against a quoted name
func (e *SQLiteExtractor) pragma(ctx context.Context, name, arg string) (*sql.Rows, error) {
	return e.client.DB().QueryContext(ctx, fmt.Sprintf("PRAGMA %s(%s)", name, e.client.Dialect().QuoteIdent(arg)))
}

// extractTable extracts all information for a single table
func (e *SQLiteExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	fields, pk, err := e.extractFields(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Fields = fields

	indexes, uniques, err := e.extractIndexes(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract indexes: %w", err)
	}
	table.Indexes = indexes

	foreignKeys, err := e.extractForeignKeys(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}
	table.Constraints = foreignKeys
	markKeys(table, pk, uniques)

	return table, nil
}

var sizedType = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z ]*?)\s*\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\)\s*$`)

// splitSQLiteType separates "VARCHAR(255)" into varchar and [255]
func splitSQLiteType(declared string) (string, []int) {
	m := sizedType.FindStringSubmatch(declared)
	if m == nil {
		return strings.ToLower(strings.TrimSpace(declared)), nil
	}
	size := []int{}
	for _, part := range m[2:] {
		if part == "" {
			continue
		}
		n, _ := strconv.Atoi(part)
		size = append(size, n)
	}
	return strings.ToLower(m[1]), size
}

// extractFields extracts column information and the primary key in key order
func (e *SQLiteExtractor) extractFields(ctx context.Context, tableName string) ([]schema.Field, []string, error) {
	rows, err := e.pragma(ctx, "table_info", tableName)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var fields []schema.Field
	pkOrder := map[int]string{}

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, nil, err
		}

		f := schema.Field{Name: name, Nullable: notNull == 0 && pk == 0}
		f.Type, f.Size = splitSQLiteType(colType)
		if defaultValue.Valid {
			f.DefaultValue = &defaultValue.String
		}
		if pk > 0 {
			pkOrder[pk] = name
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	keys := make([]int, 0, len(pkOrder))
	for k := range pkOrder {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	pk := make([]string, len(keys))
	for i, k := range keys {
		pk[i] = pkOrder[k]
	}

	return fields, pk, nil
}

// indexColumns lists the columns of an index in key order
func (e *SQLiteExtractor) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := e.pragma(ctx, "index_info", indexName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var colName sql.NullString
		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, err
		}
		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}
	return columns, rows.Err()
}

// extractIndexes separates explicitly created indexes from the automatic
// ones backing UNIQUE constraints. Primary key indexes are skipped.
func (e *SQLiteExtractor) extractIndexes(ctx context.Context, tableName string) ([]schema.Index, []schema.Constraint, error) {
	type entry struct {
		name   string
		unique bool
		origin string
	}

	rows, err := e.pragma(ctx, "index_list", tableName)
	if err != nil {
		return nil, nil, err
	}
	var entries []entry
	for rows.Next() {
		var seq, unique, partial int
		var en entry
		if err := rows.Scan(&seq, &en.name, &unique, &en.origin, &partial); err != nil {
			rows.Close()
			return nil, nil, err
		}
		en.unique = unique == 1
		entries = append(entries, en)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	var indexes []schema.Index
	var uniques []schema.Constraint
	for _, en := range entries {
		if en.origin == "pk" {
			continue
		}
		columns, err := e.indexColumns(ctx, en.name)
		if err != nil {
			return nil, nil, err
		}
		if len(columns) == 0 {
			continue
		}
		if en.origin == "u" {
			uniques = append(uniques, schema.Constraint{Name: en.name, Type: schema.Unique, Fields: columns})
			continue
		}
		indexes = append(indexes, schema.Index{Name: en.name, Unique: en.unique, Fields: columns})
	}

	return indexes, uniques, nil
}

// extractForeignKeys groups PRAGMA foreign_key_list rows by constraint id.
// SQLite does not keep constraint names, so one is derived from the table.
func (e *SQLiteExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]schema.Constraint, error) {
	rows, err := e.pragma(ctx, "foreign_key_list", tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := map[int]*schema.Constraint{}
	var ids []int
	for rows.Next() {
		var id, seq int
		var targetTable, fromCol, onUpdate, onDelete, match string
		var toCol sql.NullString

		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		c, ok := byID[id]
		if !ok {
			c = &schema.Constraint{
				Name:           fmt.Sprintf("%s_fk%d", tableName, id),
				Type:           schema.ForeignKey,
				ReferenceTable: targetTable,
				OnDelete:       referentialAction(onDelete),
				OnUpdate:       referentialAction(onUpdate),
			}
			if m := strings.ToLower(match); m != "none" && m != "simple" {
				c.MatchType = m
			}
			byID[id] = c
			ids = append(ids, id)
		}
		c.Fields = append(c.Fields, fromCol)
		if toCol.Valid {
			c.ReferenceFields = append(c.ReferenceFields, toCol.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Ints(ids)
	constraints := make([]schema.Constraint, 0, len(ids))
	for _, id := range ids {
		constraints = append(constraints, *byID[id])
	}
	return constraints, nil
}
