package ml

import (
	"fmt"
	"unsafe"
)

// Arena is a bump allocator over one flat float32 buffer.
// Allocations are never freed one by one: memory comes back only through
// Rewind/Reset, latest allocations first.
type Arena struct {
	buf  []float32
	used int
}

// Checkpoint is a saved arena cursor.
type Checkpoint int

const wordSize = int(unsafe.Sizeof(float32(0)))

// -------- CONSTRUCTORS ------- //
func NewArena(capacity int) *Arena {
	if capacity < 0 {
		panic("Arena capacity must be non-negative")
	}
	return &Arena{buf: make([]float32, capacity)}
}

// ------- ARENA METHODS ------ //

// Alloc carves words float32 slots from the arena and returns their offset.
// Running out of capacity is a contract violation and panics.
func (a *Arena) Alloc(words int) int {
	off, err := a.TryAlloc(words)
	if err != nil {
		panic(err)
	}
	return off
}

// TryAlloc is Alloc for callers that size the arena from untrusted input.
// On failure the cursor is left untouched.
func (a *Arena) TryAlloc(words int) (int, error) {
	if words < 0 {
		return 0, fmt.Errorf("%w: negative size %d", ErrArenaExhausted, words)
	}
	if a.used+words > len(a.buf) {
		return 0, fmt.Errorf("%w: requested %d words, %d of %d in use",
			ErrArenaExhausted, words, a.used, len(a.buf))
	}
	off := a.used
	a.used += words
	return off, nil
}

// slice returns the backing storage of an allocation made at off.
func (a *Arena) slice(off, words int) []float32 {
	return a.buf[off : off+words : off+words]
}

func (a *Arena) Save() Checkpoint {
	return Checkpoint(a.used)
}

// Rewind drops every allocation made after cp. The memory is not zeroed.
func (a *Arena) Rewind(cp Checkpoint) {
	if int(cp) < 0 || int(cp) > a.used {
		panic(fmt.Sprintf("Rewind to %d outside of used region [0, %d]", cp, a.used))
	}
	a.used = int(cp)
}

func (a *Arena) Reset() {
	a.Rewind(0)
}

func (a *Arena) Used() int {
	return a.used
}

func (a *Arena) Capacity() int {
	return len(a.buf)
}

func (a *Arena) OccupiedBytes() int {
	return a.used * wordSize
}
