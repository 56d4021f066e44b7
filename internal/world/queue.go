package world

import "sync"

// BuildQueue is the FIFO of chunks waiting for population and meshing. A
// coordinate is queued at most once.
type BuildQueue struct {
	mu      sync.Mutex
	pending []ChunkCoord
	queued  map[ChunkCoord]struct{}
}

func NewBuildQueue() *BuildQueue {
	return &BuildQueue{
		queued: make(map[ChunkCoord]struct{}),
	}
}

// Enqueue appends coord and reports whether it was not already queued.
func (q *BuildQueue) Enqueue(coord ChunkCoord) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.queued[coord]; ok {
		return false
	}
	q.pending = append(q.pending, coord)
	q.queued[coord] = struct{}{}
	return true
}

// Prepend puts coords back at the head of the queue in their given order,
// skipping any that are already queued.
func (q *BuildQueue) Prepend(coords []ChunkCoord) {
	q.mu.Lock()
	defer q.mu.Unlock()
	head := make([]ChunkCoord, 0, len(coords)+len(q.pending))
	for _, coord := range coords {
		if _, ok := q.queued[coord]; ok {
			continue
		}
		q.queued[coord] = struct{}{}
		head = append(head, coord)
	}
	q.pending = append(head, q.pending...)
}

func (q *BuildQueue) Pop() (ChunkCoord, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return ChunkCoord{}, false
	}
	coord := q.pending[0]
	q.pending = q.pending[1:]
	if len(q.pending) == 0 {
		q.pending = nil
	}
	delete(q.queued, coord)
	return coord, true
}

// Drain removes up to max coordinates from the head. max <= 0 drains
// everything.
func (q *BuildQueue) Drain(max int) []ChunkCoord {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	var batch []ChunkCoord
	if max <= 0 || max >= len(q.pending) {
		batch = q.pending
		q.pending = nil
	} else {
		batch = append([]ChunkCoord(nil), q.pending[:max]...)
		q.pending = q.pending[max:]
	}
	for _, coord := range batch {
		delete(q.queued, coord)
	}
	return batch
}

// Remove drops coord from the queue and reports whether it was present.
func (q *BuildQueue) Remove(coord ChunkCoord) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.queued[coord]; !ok {
		return false
	}
	delete(q.queued, coord)
	for i, c := range q.pending {
		if c == coord {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			break
		}
	}
	if len(q.pending) == 0 {
		q.pending = nil
	}
	return true
}

func (q *BuildQueue) Contains(coord ChunkCoord) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.queued[coord]
	return ok
}

func (q *BuildQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Snapshot returns a copy of the queue in build order.
func (q *BuildQueue) Snapshot() []ChunkCoord {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]ChunkCoord(nil), q.pending...)
}
