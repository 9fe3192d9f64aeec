package schema

// ColumnList is a position-stable ordered sequence of column descriptors,
// exclusively owned by one TableDescriptor.
type ColumnList struct {
	columns []*ColumnDescriptor
}

// NewColumnList returns an empty column list.
func NewColumnList() *ColumnList {
	return &ColumnList{}
}

// Append adds col to the tail of the list. A nil col is a no-op, matching
// the "setters return nil on argument error" contract of the column
// descriptor: callers that chained into a nil never corrupt the list.
func (l *ColumnList) Append(col *ColumnDescriptor) {
	if col == nil {
		return
	}
	l.columns = append(l.columns, col)
}

// Len returns the number of columns.
func (l *ColumnList) Len() int { return len(l.columns) }

// At returns the column at position, or nil if out of range.
func (l *ColumnList) At(position int) *ColumnDescriptor {
	if position < 0 || position >= len(l.columns) {
		return nil
	}
	return l.columns[position]
}

// All iterates front to back. Go idiom: return a slice rather than take a
// callback, since the list is already a stable, safe-to-range-over value.
func (l *ColumnList) All() []*ColumnDescriptor {
	return l.columns
}

// Clear releases every column, leaving the list empty.
func (l *ColumnList) Clear() {
	l.columns = nil
}
