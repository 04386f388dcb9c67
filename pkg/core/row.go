package core

// OriginIDField is the reserved field carrying a row's original relational key.
const OriginIDField = "pre_mongified_id"

// Field is one named value of a Row.
type Field struct {
	Name  string
	Value any
}

// Row is an ordered field to value mapping. Order is preserved in every
// statement built from the row.
type Row []Field

// NewRow builds a row from alternating name, value arguments.
// It panics when a name is not a string or a value is missing.
func NewRow(pairs ...any) Row {
	if len(pairs)%2 != 0 {
		panic("core.NewRow: odd number of arguments")
	}
	row := make(Row, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic("core.NewRow: field name must be a string")
		}
		row = row.Set(name, pairs[i+1])
	}
	return row
}

// Get returns the value of the named field.
func (r Row) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Has reports whether the row carries the named field.
func (r Row) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Set replaces the named field in place or appends it, returning the row.
func (r Row) Set(name string, value any) Row {
	for i := range r {
		if r[i].Name == name {
			r[i].Value = value
			return r
		}
	}
	return append(r, Field{Name: name, Value: value})
}

// Without returns a copy of the row without the named fields.
func (r Row) Without(names ...string) Row {
	out := make(Row, 0, len(r))
	for _, f := range r {
		skip := false
		for _, n := range names {
			if f.Name == n {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, f)
		}
	}
	return out
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Names returns the field names in order.
func (r Row) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Values returns the field values in order.
func (r Row) Values() []any {
	values := make([]any, len(r))
	for i, f := range r {
		values[i] = f.Value
	}
	return values
}

// OriginID returns the pre_mongified_id marker if present.
func (r Row) OriginID() (any, bool) {
	return r.Get(OriginIDField)
}

// Map returns the row as an unordered map.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r))
	for _, f := range r {
		m[f.Name] = f.Value
	}
	return m
}

// Record is a stored target record returned by FindOne.
type Record struct {
	// Key holds the target-assigned identifying columns (e.g. id, or _id).
	Key Row

	// Fields holds every column of the record, key columns included.
	Fields Row
}
