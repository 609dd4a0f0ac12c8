package recordset

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
)

// Kind is the value kind of a column.
type Kind int

const (
	Text Kind = iota
	Float
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Float:
		return "float"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column declares one column of a schema.
type Column struct {
	Name string
	Kind Kind
}

type columnInfo struct {
	kind Kind
	pos  int
}

// Schema is an ordered, duplicate-free list of typed columns.
type Schema struct {
	cols *orderedmap.OrderedMap[string, columnInfo]
}

// NewSchema builds a schema from columns in declaration order.
func NewSchema(cols ...Column) (*Schema, error) {
	m := orderedmap.NewOrderedMap[string, columnInfo]()
	for i, c := range cols {
		if c.Name == "" {
			return nil, &SchemaError{Message: fmt.Sprintf("column %d has an empty name", i)}
		}
		if c.Kind != Text && c.Kind != Float {
			return nil, &SchemaError{Column: c.Name, Message: "unknown kind " + c.Kind.String()}
		}
		if _, exists := m.Get(c.Name); exists {
			return nil, &SchemaError{Column: c.Name, Message: "duplicate column"}
		}
		m.Set(c.Name, columnInfo{kind: c.Kind, pos: i})
	}
	return &Schema{cols: m}, nil
}

// TextSchema declares text columns with the given names.
func TextSchema(names ...string) (*Schema, error) {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Kind: Text}
	}
	return NewSchema(cols...)
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return s.cols.Len()
}

// Names returns the column names in order.
func (s *Schema) Names() []string {
	return s.cols.Keys()
}

// Columns returns the column declarations in order.
func (s *Schema) Columns() []Column {
	out := make([]Column, 0, s.cols.Len())
	for el := s.cols.Front(); el != nil; el = el.Next() {
		out = append(out, Column{Name: el.Key, Kind: el.Value.kind})
	}
	return out
}

// Index returns the position of a column.
func (s *Schema) Index(name string) (int, bool) {
	info, ok := s.cols.Get(name)
	return info.pos, ok
}

// Kind returns the kind of a column.
func (s *Schema) Kind(name string) (Kind, bool) {
	info, ok := s.cols.Get(name)
	return info.kind, ok
}

// SchemaError reports an invalid schema declaration or a row that does not
// match its schema.
type SchemaError struct {
	Column  string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return "schema: " + e.Message
	}
	return fmt.Sprintf("schema: column %q: %s", e.Column, e.Message)
}
