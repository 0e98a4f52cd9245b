package engine

// Bounded parameters from the original implementation. They are exported
// as overridable Options fields (not package constants) so tests can build
// small tables without paying for MaxInodes-sized allocations.
const (
	DefaultMaxInodes     = 50
	DefaultMaxDirEntries = 20
	DefaultMaxFileName   = 40
)

// Options configures a Table/Engine. The zero value is not usable; use
// NewOptions or fill in every field explicitly.
type Options struct {
	// MaxInodes is the fixed size of the inode table. Slot 0 is always
	// the root directory.
	MaxInodes int

	// MaxDirEntries is the fixed capacity of every directory's entry
	// array.
	MaxDirEntries int

	// MaxFileName bounds the length of a whole request path, including
	// the C implementation's NUL terminator (so the usable length is
	// MaxFileName-1 bytes). It is enforced by wire.Parse, not by Engine.
	MaxFileName int
}

// NewOptions returns the suggested bounded parameters from the spec.
func NewOptions() Options {
	return Options{
		MaxInodes:     DefaultMaxInodes,
		MaxDirEntries: DefaultMaxDirEntries,
		MaxFileName:   DefaultMaxFileName,
	}
}
