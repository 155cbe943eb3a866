package frontier

import "net/url"

// Entry is one unit of pending crawl work: a canonical URL, its discovery
// depth, and the admission score that orders it in the frontier.
//
// Invariants:
//   - URL is already canonical; the frontier never normalizes.
//   - Admission (validity, robots, dedup) has already been decided by the
//     scheduler; the frontier MUST NOT re-evaluate admission semantics.
//   - Score is fixed at admission time and never revised.
type Entry struct {
	score float64
	url   url.URL
	depth int

	// seq breaks score ties by insertion order
	seq uint64
}

// NewEntry creates a frontier entry with the given score, canonical URL,
// and depth. Seeds enter at score 0 and depth 0.
func NewEntry(score float64, u url.URL, depth int) Entry {
	return Entry{
		score: score,
		url:   u,
		depth: depth,
	}
}

func (e *Entry) Score() float64 {
	return e.score
}

func (e *Entry) URL() url.URL {
	return e.url
}

func (e *Entry) Depth() int {
	return e.depth
}
