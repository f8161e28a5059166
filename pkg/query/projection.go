// Package query builds parameterized SQL for list and lookup endpoints.
package query

import (
	"fmt"
	"strings"
)

// ProjectionMap maps API field names to qualified table columns.
type ProjectionMap struct {
	schema  string
	table   string
	alias   string
	columns []string
	bare    []string
	byView  map[string]string
}

// NewProjectionMap starts a projection over schema.table aliased as alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema: schema,
		table:  table,
		alias:  alias,
		byView: make(map[string]string),
	}
}

// Project adds column to the select list, addressable by viewName.
func (p *ProjectionMap) Project(column, viewName string) *ProjectionMap {
	qualified := fmt.Sprintf("%s.%s", p.alias, column)
	p.columns = append(p.columns, qualified)
	p.bare = append(p.bare, column)
	p.byView[viewName] = qualified
	return p
}

// Table returns the aliased FROM target.
func (p *ProjectionMap) Table() string {
	return fmt.Sprintf("%s.%s %s", p.schema, p.table, p.alias)
}

// Columns returns the comma-separated select list.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.columns, ", ")
}

// ColumnList returns the qualified columns in projection order.
func (p *ProjectionMap) ColumnList() []string {
	return append([]string(nil), p.columns...)
}

// Returning returns the unqualified column list for RETURNING clauses,
// which cannot reference the alias.
func (p *ProjectionMap) Returning() string {
	return strings.Join(p.bare, ", ")
}

// Column resolves a view name. Unknown names are returned unchanged.
func (p *ProjectionMap) Column(viewName string) string {
	if col, ok := p.byView[viewName]; ok {
		return col
	}
	return viewName
}

// Has reports whether viewName is projected.
func (p *ProjectionMap) Has(viewName string) bool {
	_, ok := p.byView[viewName]
	return ok
}
