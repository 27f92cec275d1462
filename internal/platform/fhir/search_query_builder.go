package fhir

import (
	"fmt"
	"net/url"
	"strings"
)

// SearchParamType is the FHIR search parameter type.
type SearchParamType int

const (
	SearchParamToken     SearchParamType = iota // status, code: exact or system|code
	SearchParamDate                             // supports eq/ne/lt/gt/le/ge/sa/eb/ap prefixes
	SearchParamString                           // case-insensitive prefix match, :exact/:contains
	SearchParamReference                        // "ResourceType/id" or bare id
)

// SearchParamConfig maps a FHIR search parameter to its database column.
type SearchParamConfig struct {
	Type      SearchParamType
	Column    string
	SysColumn string // system column for token params, when stored
}

// SearchQuery builds the SQL for a FHIR search against a single table. Soft
// deleted rows are always excluded.
type SearchQuery struct {
	table   string
	cols    string
	where   string
	args    []interface{}
	idx     int
	orderBy string
}

func NewSearchQuery(table, cols string) *SearchQuery {
	return &SearchQuery{table: table, cols: cols, idx: 1}
}

// Add appends a raw predicate (without a leading AND).
func (q *SearchQuery) Add(clause string, args ...interface{}) {
	q.where += " AND " + clause
	q.args = append(q.args, args...)
	q.idx += len(args)
}

func (q *SearchQuery) addClause(clause string, args []interface{}, nextIdx int) {
	q.where += " AND " + clause
	q.args = append(q.args, args...)
	q.idx = nextIdx
}

// ApplyParam applies one FHIR search parameter using its config. The name
// may carry a modifier suffix (for string params).
func (q *SearchQuery) ApplyParam(name, value string, config SearchParamConfig) {
	_, modifier := ParseParamModifier(name)
	switch config.Type {
	case SearchParamDate:
		clause, args, next := DateSearchClause(config.Column, value, q.idx)
		q.addClause(clause, args, next)
	case SearchParamToken:
		clause, args, next := TokenSearchClause(config.SysColumn, config.Column, value, q.idx)
		q.addClause(clause, args, next)
	case SearchParamString:
		clause, args, next := StringSearchClause(config.Column, value, modifier, q.idx)
		q.addClause(clause, args, next)
	case SearchParamReference:
		clause, args, next := ReferenceSearchClause(config.Column, value, q.idx)
		q.addClause(clause, args, next)
	}
}

// ApplyParams applies every parameter that has a config entry; unknown
// parameters are ignored.
func (q *SearchQuery) ApplyParams(params map[string]string, configs map[string]SearchParamConfig) {
	for name, value := range params {
		base, _ := ParseParamModifier(name)
		if config, ok := configs[base]; ok {
			q.ApplyParam(name, value, config)
		}
	}
}

// ApplySort translates the _sort parameter into ORDER BY using the config
// column mappings, falling back to defaultOrder. Unknown fields are skipped.
func (q *SearchQuery) ApplySort(sortParam, defaultOrder string, configs map[string]SearchParamConfig) {
	specs := ParseSort(sortParam)
	var parts []string
	for _, spec := range specs {
		config, ok := configs[spec.Field]
		if !ok {
			continue
		}
		if spec.Descending {
			parts = append(parts, config.Column+" DESC")
		} else {
			parts = append(parts, config.Column+" ASC")
		}
	}
	if len(parts) == 0 {
		q.orderBy = defaultOrder
		return
	}
	q.orderBy = strings.Join(parts, ", ")
}

// OrderBy sets the ORDER BY clause (without the keyword).
func (q *SearchQuery) OrderBy(orderBy string) { q.orderBy = orderBy }

// CountSQL is the total-count query over the same predicates.
func (q *SearchQuery) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE deleted_at IS NULL%s", q.table, q.where)
}

func (q *SearchQuery) CountArgs() []interface{} { return q.args }

// DataSQL is the page query with ORDER BY and LIMIT/OFFSET appended.
func (q *SearchQuery) DataSQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE deleted_at IS NULL%s", q.cols, q.table, q.where)
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", q.idx, q.idx+1)
	return sql
}

func (q *SearchQuery) DataArgs(limit, offset int) []interface{} {
	out := make([]interface{}, len(q.args), len(q.args)+2)
	copy(out, q.args)
	return append(out, limit, offset)
}

// ExtractSearchParams pulls the FHIR search parameters out of a query
// string, excluding control parameters (_count, _offset, _sort, ...).
func ExtractSearchParams(values url.Values) map[string]string {
	params := map[string]string{}
	for k, v := range values {
		if len(v) == 0 || strings.HasPrefix(k, "_") {
			continue
		}
		params[k] = v[0]
	}
	return params
}
