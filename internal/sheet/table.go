// Package sheet holds the in-memory tabular model that uploaded files are
// decoded into, plus the CSV and XLSX decoders that produce it.
//
// A Table is request-scoped: it is built from one upload, handed to the
// metrics engine and then discarded. Nothing here is persisted.
package sheet

import "strconv"

// Record is one row of a table, keyed by column name.
// Every record in a Table carries every column; cells that were absent in a
// ragged source row hold the empty string.
type Record map[string]string

// Get returns the cell for column and whether the column exists on the record.
func (r Record) Get(column string) (string, bool) {
	v, ok := r[column]
	return v, ok
}

// Table is an ordered sequence of records sharing one column set.
type Table struct {
	Name    string   // Source file name, used in error reporting
	Columns []string // Header order as decoded
	Records []Record

	columnSet map[string]struct{}
}

// NewTable builds a Table from a header row and data rows.
// Rows shorter than the header are padded with empty cells and cells past
// the last header column are dropped. Duplicate header names are suffixed
// ".1", ".2", ... in order of appearance so every column stays addressable.
func NewTable(name string, header []string, rows [][]string) *Table {
	columns := uniqueColumns(header)

	t := &Table{
		Name:      name,
		Columns:   columns,
		Records:   make([]Record, 0, len(rows)),
		columnSet: make(map[string]struct{}, len(columns)),
	}
	for _, c := range columns {
		t.columnSet[c] = struct{}{}
	}

	for _, row := range rows {
		rec := make(Record, len(columns))
		for i, c := range columns {
			if i < len(row) {
				rec[c] = row[i]
			} else {
				rec[c] = ""
			}
		}
		t.Records = append(t.Records, rec)
	}

	return t
}

// HasColumn reports whether the table's header contains column (exact match).
func (t *Table) HasColumn(column string) bool {
	if t.columnSet == nil {
		for _, c := range t.Columns {
			if c == column {
				return true
			}
		}
		return false
	}
	_, ok := t.columnSet[column]
	return ok
}

// Len returns the number of data records.
func (t *Table) Len() int {
	return len(t.Records)
}

// Column returns every value of column in record order.
// Returns nil if the column does not exist.
func (t *Table) Column(column string) []string {
	if !t.HasColumn(column) {
		return nil
	}
	out := make([]string, len(t.Records))
	for i, rec := range t.Records {
		out[i] = rec[column]
	}
	return out
}

func uniqueColumns(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		name := h
		if n, dup := seen[h]; dup {
			for {
				n++
				name = h + "." + strconv.Itoa(n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[h] = n
		}
		if _, ok := seen[name]; !ok {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}
