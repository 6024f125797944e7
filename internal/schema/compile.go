package schema

// Compile flattens an ordered field list into a single storage schema
// by shallow-merging each field's fragment left to right; on key
// collision the later field wins. The reserved widget key is removed.
//
// Compile is pure and idempotent; it performs no validation of the
// fragments themselves.
func Compile(fields []Field) map[string]string {
	out := make(map[string]string)
	for _, f := range fields {
		for k, v := range f.Schema {
			out[k] = v
		}
	}
	delete(out, WidgetKey)
	return out
}
