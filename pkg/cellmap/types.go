package cellmap

// ItemsKey is the reserved top-level key holding the repeating line items.
const ItemsKey = "Items"

// Datatype is the declared type of a Heading cell.
type Datatype string

const (
	DatatypeText    Datatype = "text"
	DatatypeEmail   Datatype = "email"
	DatatypeNumber  Datatype = "number"
	DatatypeDecimal Datatype = "decimal"
	DatatypeDate    Datatype = "date"
)

// Valid reports whether d is one of the known datatypes.
func (d Datatype) Valid() bool {
	switch d {
	case DatatypeText, DatatypeEmail, DatatypeNumber, DatatypeDecimal, DatatypeDate:
		return true
	default:
		return false
	}
}

// Value is implemented by Leaf, Heading, Group and Items only.
type Value interface {
	isValue()
}

// Leaf binds the entry key (used as the field label) to one cell.
type Leaf struct {
	Cell string
}

// Heading binds the entry key (a cell coordinate) to a display heading and a
// declared datatype.
type Heading struct {
	Cell     string
	Heading  string
	Datatype Datatype
}

// Group holds nested entries that flatten into a single form section.
type Group struct {
	Entries []Entry
}

// Items describes a repeating block of rows.
type Items struct {
	Name    string
	Range   Range
	Content []Column
}

// Range is an inclusive, 1-based row range.
type Range struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Rows returns the number of rows covered by the range.
func (r Range) Rows() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Contains reports whether row falls inside the range.
func (r Range) Contains(row int) bool {
	return row >= r.Start && row <= r.End
}

// Column binds an item field name to the column letters it is written to.
type Column struct {
	Field   string
	Letters string
}

func (Leaf) isValue()    {}
func (Heading) isValue() {}
func (Group) isValue()   {}
func (Items) isValue()   {}

// Entry is one key/value pair of a Mapping or Group.
type Entry struct {
	Key   string
	Value Value
}

// Mapping is the ordered cell-mapping schema for one template footer.
type Mapping struct {
	Entries []Entry
	// Skipped lists entry paths dropped by a lenient load.
	Skipped []string
}

// Empty reports whether the mapping has no entries.
func (m Mapping) Empty() bool {
	return len(m.Entries) == 0
}

// Lookup returns the value stored under key at the top level.
func (m Mapping) Lookup(key string) (Value, bool) {
	for _, entry := range m.Entries {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return nil, false
}

// Column returns the column letters bound to field.
func (it Items) Column(field string) (string, bool) {
	for _, col := range it.Content {
		if col.Field == field {
			return col.Letters, true
		}
	}
	return "", false
}

// Fields returns the item field names in declaration order.
func (it Items) Fields() []string {
	out := make([]string, 0, len(it.Content))
	for _, col := range it.Content {
		out = append(out, col.Field)
	}
	return out
}
