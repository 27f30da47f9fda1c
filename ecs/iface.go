package ecs

import "unsafe"

// iface represents the internal memory layout of an interface{}.
// View uses it to read the *T stored in a column slot without reflection.
type iface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}
