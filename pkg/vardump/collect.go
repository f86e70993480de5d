package vardump

// Collect drains an Iterator into a map so that generated expressions such
// as vardump.Collect(v.Items)["key"] can index into it. Keys must be
// comparable.
func Collect(it Iterator) map[any]any {
	out := make(map[any]any)
	if it == nil {
		return out
	}
	it.Iterate(func(key, value any) bool {
		out[key] = value
		return true
	})
	return out
}
