package schema

// FindFieldByTitle locates the field whose title matches, searching the
// given fields and every nested child depth-first. Returns false when
// no field anywhere in the tree matches.
func FindFieldByTitle(fields []Field, title string) (Field, bool) {
	for _, f := range fields {
		if f.Title == title {
			return f, true
		}
		if len(f.Fields) > 0 {
			if found, ok := FindFieldByTitle(f.Fields, title); ok {
				return found, true
			}
		}
	}
	return Field{}, false
}
