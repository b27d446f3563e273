package paging

import "fmt"

// Size units, in bytes.
const (
	Byte uint64 = 1
	KB          = 1000 * Byte
	MB          = 1000 * KB
)

// Default sizes used when nothing else is configured.
const (
	DefaultBlockSize      = 8 * KB
	DefaultResidentSize   = 64 * KB
	DefaultBackingSize    = 1 * MB
	DefaultMinProcessSize = 1 * Byte
	DefaultMaxProcessSize = 1 * MB
)

// A Process is a unit of work that can be admitted into the backing tier.
type Process struct {
	ID   PID
	Size uint64
}

// SizeBounds is the inclusive range of valid process sizes.
type SizeBounds struct {
	Min uint64
	Max uint64
}

// DefaultSizeBounds returns the bounds used by NewProcess.
func DefaultSizeBounds() SizeBounds {
	return SizeBounds{Min: DefaultMinProcessSize, Max: DefaultMaxProcessSize}
}

// NewProcess creates a process whose size must be within the default bounds.
func NewProcess(id PID, size uint64) (Process, error) {
	return DefaultSizeBounds().NewProcess(id, size)
}

// NewProcess creates a process whose size must be within the bounds.
func (b SizeBounds) NewProcess(id PID, size uint64) (Process, error) {
	if size < b.Min || size > b.Max {
		return Process{}, fmt.Errorf(
			"process %d size is out of valid range: %d <= %d <= %d: %w",
			id, b.Min, size, b.Max, ErrInvalidProcessSize)
	}

	return Process{ID: id, Size: size}, nil
}
