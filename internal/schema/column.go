// Package schema implements the column descriptor, column list, and table
// manager components: the bridge between a declarative table shape and
// the CREATE TABLE statements the store facade executes.
package schema

import (
	"strings"

	"github.com/untoldecay/graphcep/internal/sqltype"
)

// ColumnDescriptor carries the six fields of one column. It is immutable
// once attached to a table manager's ColumnList; owned by that list.
type ColumnDescriptor struct {
	name          string
	typeTag       sqltype.Tag
	primaryKey    bool
	autoIncrement bool
	nullable      bool
	unique        bool
}

// NewColumn builds a descriptor for name/typeTag. Returns nil if name is
// empty or typeTag is sqltype.Error, matching the chain-or-null argument
// contract described in spec.md §4.2.
func NewColumn(name string, typeTag sqltype.Tag) *ColumnDescriptor {
	if strings.TrimSpace(name) == "" || typeTag == sqltype.Error {
		return nil
	}
	return &ColumnDescriptor{name: name, typeTag: typeTag}
}

func (c *ColumnDescriptor) Name() string        { return c.name }
func (c *ColumnDescriptor) TypeTag() sqltype.Tag { return c.typeTag }
func (c *ColumnDescriptor) PrimaryKey() bool     { return c.primaryKey }
func (c *ColumnDescriptor) AutoIncrement() bool  { return c.autoIncrement }
func (c *ColumnDescriptor) Nullable() bool       { return c.nullable }
func (c *ColumnDescriptor) Unique() bool         { return c.unique }

// WithPrimaryKey marks the column as the table's primary key. Returns the
// receiver to allow chaining descriptor setup; on a nil receiver (a
// rejected NewColumn) every setter returns nil, so the chain stays nil.
func (c *ColumnDescriptor) WithPrimaryKey() *ColumnDescriptor {
	if c == nil {
		return nil
	}
	c.primaryKey = true
	return c
}

// WithAutoIncrement marks the column AUTOINCREMENT. Only takes effect at
// render time if the column's type is the integer tag (§4.3).
func (c *ColumnDescriptor) WithAutoIncrement() *ColumnDescriptor {
	if c == nil {
		return nil
	}
	c.autoIncrement = true
	return c
}

// WithNullable marks the column as nullable (omits NOT NULL at render time).
func (c *ColumnDescriptor) WithNullable() *ColumnDescriptor {
	if c == nil {
		return nil
	}
	c.nullable = true
	return c
}

// WithUnique marks the column UNIQUE.
func (c *ColumnDescriptor) WithUnique() *ColumnDescriptor {
	if c == nil {
		return nil
	}
	c.unique = true
	return c
}

// clause renders this column's piece of the CREATE TABLE column list, per
// spec.md §4.3 step 2.
func (c *ColumnDescriptor) clause() string {
	var b strings.Builder
	b.WriteByte('\'')
	b.WriteString(c.name)
	b.WriteString("' ")
	b.WriteString(c.typeTag.String())
	if !c.nullable {
		b.WriteString(" NOT NULL")
	}
	if c.primaryKey {
		b.WriteString(" PRIMARY KEY")
		if c.typeTag.IsIntegerFamily() && c.autoIncrement {
			b.WriteString(" AUTOINCREMENT")
		}
	}
	if c.unique {
		b.WriteString(" UNIQUE")
	}
	return b.String()
}
