// Package paging models a two-tier memory, a small resident tier and a large
// backing tier, both split into fixed-size blocks, and an MMU that pages
// blocks between them on demand.
package paging

import "fmt"

// PID stands for Process ID. IDs are assigned by the caller.
type PID uint32

// A Block is one fixed-size unit of a process's data. The pair of fields is
// the block identity and is used directly as a lookup key.
type Block struct {
	PID   PID
	Index int
}

// String renders the block as "pid:index".
func (b Block) String() string {
	return fmt.Sprintf("%d:%d", b.PID, b.Index)
}
