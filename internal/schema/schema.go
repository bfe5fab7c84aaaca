// Package schema defines the canonical column set every collector's output
// is mapped onto before export. The column list is process-wide read-only
// configuration: accessors return copies so callers cannot mutate it.
package schema

import "fmt"

// Kind is the semantic type of a column.
type Kind int

const (
	KindText Kind = iota
	KindURL
	KindDate
	KindEnum
	KindFreeText
	KindInteger
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindURL:
		return "url"
	case KindDate:
		return "date"
	case KindEnum:
		return "enum"
	case KindFreeText:
		return "free_text"
	case KindInteger:
		return "integer"
	default:
		return "unknown"
	}
}

// Column describes one canonical column.
type Column struct {
	Name     string
	Kind     Kind
	Nullable bool
}

// canonical is the full ordered column set of the combined export.
// The first twelve are the base columns collectors must produce; the rest
// are derived during cleaning.
var canonical = []Column{
	{Name: "source", Kind: KindEnum, Nullable: false},
	{Name: "url", Kind: KindURL, Nullable: false},
	{Name: "job_id", Kind: KindText, Nullable: false},
	{Name: "search_term", Kind: KindText, Nullable: true},
	{Name: "title", Kind: KindText, Nullable: true},
	{Name: "company", Kind: KindText, Nullable: true},
	{Name: "location_raw", Kind: KindFreeText, Nullable: true},
	{Name: "posted_date", Kind: KindDate, Nullable: true},
	{Name: "employment_type", Kind: KindFreeText, Nullable: true},
	{Name: "workload_raw", Kind: KindFreeText, Nullable: true},
	{Name: "salary_raw", Kind: KindFreeText, Nullable: true},
	{Name: "description_raw", Kind: KindFreeText, Nullable: true},

	{Name: "scraped_at", Kind: KindDate, Nullable: false},
	{Name: "canton", Kind: KindEnum, Nullable: true},
	{Name: "seniority", Kind: KindEnum, Nullable: true},
	{Name: "description_clean", Kind: KindFreeText, Nullable: true},
	{Name: "skills", Kind: KindText, Nullable: true},
	{Name: "skill_count", Kind: KindInteger, Nullable: false},
	{Name: "salary_available", Kind: KindInteger, Nullable: false},
}

// baseCount is the number of leading columns collectors are required to fill.
const baseCount = 12

// Columns returns the full canonical column set in export order.
func Columns() []Column {
	out := make([]Column, len(canonical))
	copy(out, canonical)
	return out
}

// ColumnNames returns the canonical column names in export order.
func ColumnNames() []string {
	out := make([]string, len(canonical))
	for i, c := range canonical {
		out[i] = c.Name
	}
	return out
}

// BaseColumnNames returns the names of the base columns every raw collector
// table must carry.
func BaseColumnNames() []string {
	out := make([]string, baseCount)
	for i := 0; i < baseCount; i++ {
		out[i] = canonical[i].Name
	}
	return out
}

// Record is one row keyed by column name. Values are strings; integer
// columns hold their decimal representation.
type Record map[string]string

// Clone returns a copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered set of columns plus rows. It is the unit of exchange
// between collectors, cleaning, and the pipeline. Tables are not safe for
// concurrent use; the pipeline owns each table exclusively.
type Table struct {
	columns []string
	rows    []Record
}

// NewTable creates an empty table with the given column order.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{columns: cols}
}

// Columns returns the table's column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether the table declares the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

// Append adds a row. Values for undeclared columns are kept in the record
// but ignored by Row.
func (t *Table) Append(r Record) {
	t.rows = append(t.rows, r)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Records returns the backing rows. Callers must not mutate rows they do
// not own.
func (t *Table) Records() []Record {
	return t.rows
}

// Row returns row i as a string slice in column order, with missing values
// rendered as empty strings.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.columns))
	for j, c := range t.columns {
		out[j] = t.rows[i][c]
	}
	return out
}

// Validate checks that every row has non-empty values in the named
// non-nullable columns.
func (t *Table) Validate(required ...string) error {
	for i, r := range t.rows {
		for _, c := range required {
			if r[c] == "" {
				return fmt.Errorf("row %d: required column %q is empty", i, c)
			}
		}
	}
	return nil
}
