package parser

import (
	"container/heap"
	"context"
	"io"
)

// MergedSource combines multiple LogSources into a single stream ordered by
// timestamp, newest first. Each input must itself be newest first, which is
// what ReverseFileSource produces.
type MergedSource struct {
	sources     []LogSource
	heap        *lineHeap
	initialized bool
}

// NewMergedSource creates a LogSource that merges multiple sources by timestamp.
func NewMergedSource(sources ...LogSource) *MergedSource {
	return &MergedSource{
		sources: sources,
		heap:    &lineHeap{},
	}
}

// Next returns the newest remaining line across all sources.
// Returns io.EOF when all sources are exhausted.
func (m *MergedSource) Next(ctx context.Context) (*ParsedLine, error) {
	if !m.initialized {
		if err := m.initHeap(ctx); err != nil {
			return nil, err
		}
		m.initialized = true
	}

	if m.heap.Len() == 0 {
		return nil, io.EOF
	}

	item := heap.Pop(m.heap).(*heapItem)

	// Refill from the same source before handing the line out so the heap
	// always holds the head of every live source.
	next, err := m.sources[item.sourceIdx].Next(ctx)
	switch {
	case err == nil:
		heap.Push(m.heap, &heapItem{line: next, sourceIdx: item.sourceIdx})
	case err != io.EOF:
		return nil, err
	}

	return item.line, nil
}

func (m *MergedSource) initHeap(ctx context.Context) error {
	heap.Init(m.heap)

	for i, src := range m.sources {
		line, err := src.Next(ctx)
		if err == io.EOF {
			continue
		}
		if err != nil {
			return err
		}
		heap.Push(m.heap, &heapItem{line: line, sourceIdx: i})
	}

	return nil
}

// Close releases all source resources.
func (m *MergedSource) Close() error {
	var firstErr error
	for _, src := range m.sources {
		if err := src.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type heapItem struct {
	line      *ParsedLine
	sourceIdx int
}

// lineHeap pops the newest line first. Lines with a zero timestamp come
// before everything else: they sit at the end of a file, ahead of its first
// stamped line. Ties keep source order.
type lineHeap []*heapItem

func (h lineHeap) Len() int { return len(h) }

func (h lineHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	az, bz := a.line.Timestamp.IsZero(), b.line.Timestamp.IsZero()
	switch {
	case az != bz:
		return az
	case !a.line.Timestamp.Equal(b.line.Timestamp):
		return a.line.Timestamp.After(b.line.Timestamp)
	default:
		return a.sourceIdx < b.sourceIdx
	}
}

func (h lineHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *lineHeap) Push(x any) {
	*h = append(*h, x.(*heapItem))
}

func (h *lineHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
