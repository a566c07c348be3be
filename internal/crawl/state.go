// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

// VisitState tracks one canonical paper through the crawl.
type VisitState uint8

const (
	// Unvisited papers have not been referenced yet.
	Unvisited VisitState = iota
	// Queued papers are referenced and waiting for (or failed) a point lookup.
	Queued
	// Fetched papers have their own record in the graph.
	Fetched
)

func (s VisitState) String() string {
	switch s {
	case Unvisited:
		return "unvisited"
	case Queued:
		return "queued"
	case Fetched:
		return "fetched"
	}
	return "unknown"
}

// SegmentState is the state of one (query, source) segment.
type SegmentState uint8

const (
	StateIdle SegmentState = iota
	StatePaging
	StateExpanding
	StateDone
)

func (s SegmentState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePaging:
		return "paging"
	case StateExpanding:
		return "expanding"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// SegmentReport describes how one (query, source) segment ended.
type SegmentReport struct {
	Source  string
	Query   string
	State   SegmentState
	Pages   int
	Records int

	// Err is the search failure that abandoned the segment, if any.
	Err error
}

// Failed reports whether the segment was abandoned.
func (r SegmentReport) Failed() bool { return r.Err != nil }

// Summary holds the per-run crawl counters.
type Summary struct {
	Segments []SegmentReport

	Pages   int
	Records int
	Skipped int

	NeighborFetches  int
	NeighborFailures int
	CitedByLookups   int

	Merges int
}

// FailedSegments returns the number of abandoned segments.
func (s Summary) FailedSegments() int {
	n := 0
	for _, seg := range s.Segments {
		if seg.Failed() {
			n++
		}
	}
	return n
}

// allFailed reports whether every segment failed before returning a page.
func (s Summary) allFailed() bool {
	if len(s.Segments) == 0 {
		return false
	}
	for _, seg := range s.Segments {
		if !seg.Failed() || seg.Pages > 0 {
			return false
		}
	}
	return true
}
