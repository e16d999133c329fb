package scraper

// SequenceAllocator hands out monotonically increasing record ids,
// continuing from the highest id already present in the sink. It is the
// sole writer of the id field; rejection happens before allocation, so
// accepted ids contain no gaps.
type SequenceAllocator struct {
	next int64
}

// NewSequenceAllocator creates an allocator continuing from runStartOffset
func NewSequenceAllocator(runStartOffset int64) *SequenceAllocator {
	return &SequenceAllocator{next: runStartOffset}
}

// Allocate returns the next id
func (a *SequenceAllocator) Allocate() int64 {
	a.next++
	return a.next
}

// Last returns the most recently allocated id, or the start offset when
// nothing has been allocated yet
func (a *SequenceAllocator) Last() int64 {
	return a.next
}
