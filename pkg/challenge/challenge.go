// Package challenge defines the challenge identifier (I) that keys every
// hash in the PoW scheme.
package challenge

// ID is an owned, immutable byte sequence of arbitrary length (typically 64
// bytes). It is shared by reference among memory, tree, search and
// verification; none of them modify it.
type ID struct {
	bytes []byte
}

// New copies bytes into a fresh ID. The caller keeps ownership of its slice.
func New(bytes []byte) *ID {
	b := make([]byte, len(bytes))
	copy(b, bytes)
	return &ID{bytes: b}
}

// Bytes returns the identifier bytes. Callers must not modify the returned
// slice.
func (id *ID) Bytes() []byte {
	return id.bytes
}

// Len returns the identifier length in bytes.
func (id *ID) Len() int {
	return len(id.bytes)
}
