package core

import (
	"fmt"
	"strings"
)

// Table is an ordered, read-only set of transactions sharing one header.
// Derived tables are new values; rows are never mutated in place.
type Table struct {
	columns []Column
	rows    []Transaction
}

// NewTable builds a table from the columns present in the source header.
func NewTable(columns []Column, rows []Transaction) *Table {
	return &Table{
		columns: append([]Column(nil), columns...),
		rows:    append([]Transaction(nil), rows...),
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Rows returns a copy of the rows in source order.
func (t *Table) Rows() []Transaction {
	if t == nil {
		return nil
	}
	return append([]Transaction(nil), t.rows...)
}

// Columns returns the header columns in source order.
func (t *Table) Columns() []Column {
	if t == nil {
		return nil
	}
	return append([]Column(nil), t.columns...)
}

// HasColumn reports whether the source header contained c.
func (t *Table) HasColumn(c Column) bool {
	if t == nil {
		return false
	}
	for _, have := range t.columns {
		if have == c {
			return true
		}
	}
	return false
}

// Require returns an ErrStructural error naming every missing column.
func (t *Table) Require(cols ...Column) error {
	var missing []string
	for _, c := range cols {
		if !t.HasColumn(c) {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %s", ErrStructural, strings.Join(missing, ", "))
	}
	return nil
}

// Filter returns a new table with the rows for which keep returns true.
func (t *Table) Filter(keep func(Transaction) bool) *Table {
	if t == nil {
		return NewTable(nil, nil)
	}
	out := make([]Transaction, 0, len(t.rows))
	for _, r := range t.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return &Table{columns: t.Columns(), rows: out}
}
