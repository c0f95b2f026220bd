package functions

// CatalogEntry is the JSON shape of one registry entry as consumed by
// editor autocomplete and documentation collaborators.
type CatalogEntry struct {
	Name        string      `json:"name"`
	Category    Category    `json:"category"`
	MinArgs     int         `json:"minArgs"`
	MaxArgs     int         `json:"maxArgs"`
	NamedParams []ParamSpec `json:"namedParams,omitempty"`
	Description string      `json:"description"`
	Examples    []string    `json:"examples,omitempty"`
}

// Export renders the registry as a catalog, sorted by function name.
func (r *Registry) Export() []CatalogEntry {
	sigs := r.All()
	entries := make([]CatalogEntry, 0, len(sigs))
	for _, sig := range sigs {
		entries = append(entries, CatalogEntry{
			Name:        sig.Name,
			Category:    sig.Category,
			MinArgs:     sig.MinArgs,
			MaxArgs:     sig.MaxArgs,
			NamedParams: sig.NamedParams,
			Description: sig.Description,
			Examples:    sig.Examples,
		})
	}
	return entries
}

// Export renders the global registry as a catalog.
func Export() []CatalogEntry {
	return globalRegistry.Export()
}
