package kscheme

// Fini invokes every plugin's fini symbol in reverse registration order
// (spec.md §4.B). Call once, when the Scheme is being torn down.
func (s *Scheme) Fini() {
	s.Plugins.FiniAll()
}
