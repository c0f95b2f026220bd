package validate

// Field describes one field of the index pattern the formula runs
// against.
type Field struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Aggregatable bool   `json:"aggregatable"`
}

// FieldCatalog is the set of fields a formula may reference. It is
// produced by an external collaborator and versioned so that cache
// keys change when the catalog does.
type FieldCatalog struct {
	version string
	fields  map[string]Field
}

// NewFieldCatalog builds a catalog from a field list.
func NewFieldCatalog(version string, fields []Field) *FieldCatalog {
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}
	return &FieldCatalog{version: version, fields: byName}
}

// Version returns the catalog version string.
func (c *FieldCatalog) Version() string { return c.version }

// Lookup returns the field registered under name.
func (c *FieldCatalog) Lookup(name string) (Field, bool) {
	f, ok := c.fields[name]
	return f, ok
}

// Has reports whether name exists in the catalog.
func (c *FieldCatalog) Has(name string) bool {
	_, ok := c.fields[name]
	return ok
}

// Len returns the number of fields in the catalog.
func (c *FieldCatalog) Len() int { return len(c.fields) }
