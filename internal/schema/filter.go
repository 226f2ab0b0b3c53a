package schema

// Exclude removes the named tables from the schema in place
func (s *Schema) Exclude(tables []string) {
	for _, name := range tables {
		delete(s.Tables, name)
	}
}

// Only keeps the named tables; an empty list keeps everything
func (s *Schema) Only(tables []string) {
	if len(tables) == 0 {
		return
	}
	keep := make(map[string]bool, len(tables))
	for _, name := range tables {
		keep[name] = true
	}
	for name := range s.Tables {
		if !keep[name] {
			delete(s.Tables, name)
		}
	}
}
