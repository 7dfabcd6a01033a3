package expressions

// Scope resolves variable references during guard evaluation and command
// interpolation. Unknown names resolve to the empty string, mirroring shell
// semantics for unset variables.
type Scope interface {
	Lookup(name string) string
}

// MapScope is a Scope backed by a plain map. Used by tests and by callers
// that evaluate expressions outside a workflow run.
type MapScope map[string]string

func (m MapScope) Lookup(name string) string {
	return m[name]
}
