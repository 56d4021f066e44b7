package world

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/block"
	"voxelworld/internal/config"
	"voxelworld/internal/mesh"
)

// Renderer receives finished chunk meshes. Upload is called once per build;
// SetVisible follows every activity change of a built chunk.
type Renderer interface {
	Upload(coord ChunkCoord, origin mgl32.Vec3, m *mesh.Mesh) error
	SetVisible(coord ChunkCoord, visible bool) error
}

type discardRenderer struct{}

func (discardRenderer) Upload(ChunkCoord, mgl32.Vec3, *mesh.Mesh) error { return nil }
func (discardRenderer) SetVisible(ChunkCoord, bool) error { return nil }

// Options configures a World.
type Options struct {
	World    config.WorldConfig
	Atlas    mesh.Atlas
	Registry *block.Registry
	Source   VoxelSource
	Renderer Renderer
	Logger   *log.Logger
}

// Stats is a point-in-time summary of the streaming state.
type Stats struct {
	Created   int
	Active    int
	Pending   int
	Built     int
	Cancelled int
}

// World owns every chunk and streams them in and out of the active set as
// the viewer moves. Streaming calls (Bootstrap, UpdateViewer,
// CheckViewDistance, Tick, TickParallel) must come from one goroutine;
// block queries are safe from any goroutine.
type World struct {
	dim          Dimensions
	size         int
	viewDistance int
	symmetric    bool
	cancel       bool

	registry *block.Registry
	atlas    mesh.Atlas
	source   VoxelSource
	renderer Renderer
	logger   *log.Logger

	mu        sync.RWMutex
	chunks    []*Chunk
	active    map[ChunkCoord]struct{}
	viewer    ChunkCoord
	hasViewer bool
	built     int
	cancelled int

	queue *BuildQueue
}

func New(opts Options) (*World, error) {
	if opts.Registry == nil {
		return nil, errors.New("world requires a block registry")
	}
	if opts.Source == nil {
		return nil, errors.New("world requires a voxel source")
	}
	cfg := opts.World
	if cfg.ChunkWidth <= 0 || cfg.ChunkHeight <= 0 {
		return nil, fmt.Errorf("invalid chunk dimensions %dx%d", cfg.ChunkWidth, cfg.ChunkHeight)
	}
	if cfg.SizeInChunks < 3 {
		return nil, fmt.Errorf("world size %d leaves no creatable chunks", cfg.SizeInChunks)
	}
	if opts.Atlas.Size <= 0 {
		return nil, fmt.Errorf("atlas size must be positive, got %d", opts.Atlas.Size)
	}

	renderer := opts.Renderer
	if renderer == nil {
		renderer = discardRenderer{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &World{
		dim:          Dimensions{Width: cfg.ChunkWidth, Height: cfg.ChunkHeight},
		size:         cfg.SizeInChunks,
		viewDistance: cfg.ViewDistance,
		symmetric:    cfg.SymmetricView,
		cancel:       cfg.CancelOutOfRange,
		registry:     opts.Registry,
		atlas:        opts.Atlas,
		source:       opts.Source,
		renderer:     renderer,
		logger:       logger,
		chunks:       make([]*Chunk, cfg.SizeInChunks*cfg.SizeInChunks),
		active:       make(map[ChunkCoord]struct{}),
		queue:        NewBuildQueue(),
	}, nil
}

func (w *World) Dimensions() Dimensions {
	return w.dim
}

func (w *World) SizeInChunks() int {
	return w.size
}

// WidthInBlocks is the horizontal extent of the world.
func (w *World) WidthInBlocks() int {
	return w.size * w.dim.Width
}

// Spawn is the centre of the world, just above the top of the chunks.
func (w *World) Spawn() mgl32.Vec3 {
	centre := float32(w.WidthInBlocks()) / 2
	return mgl32.Vec3{centre, float32(w.dim.Height + 2), centre}
}

// ChunkCoordOf floors a world-space position into chunk coordinates.
func (w *World) ChunkCoordOf(pos mgl32.Vec3) ChunkCoord {
	x := int(math.Floor(float64(pos.X())))
	z := int(math.Floor(float64(pos.Z())))
	return ChunkCoord{X: floorDiv(x, w.dim.Width), Z: floorDiv(z, w.dim.Width)}
}

// InWorld reports whether coord may hold a chunk. The outer ring of the
// grid is never created so border lookups always land inside the world.
func (w *World) InWorld(coord ChunkCoord) bool {
	return coord.X > 0 && coord.X < w.size-1 &&
		coord.Z > 0 && coord.Z < w.size-1
}

func (w *World) slot(coord ChunkCoord) int {
	return coord.X + coord.Z*w.size
}

func (w *World) gridContains(coord ChunkCoord) bool {
	return coord.X >= 0 && coord.Z >= 0 && coord.X < w.size && coord.Z < w.size
}

// Chunk returns the resident chunk at coord.
func (w *World) Chunk(coord ChunkCoord) (*Chunk, bool) {
	if !w.gridContains(coord) {
		return nil, false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	c := w.chunks[w.slot(coord)]
	return c, c != nil
}

// Chunks returns every resident chunk ordered by Z then X.
func (w *World) Chunks() []*Chunk {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*Chunk, 0, len(w.chunks))
	for _, c := range w.chunks {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// BlockAt resolves an absolute voxel. Populated resident chunks answer from
// their voxels; anything else is derived from the voxel source, and
// positions outside the world are air.
func (w *World) BlockAt(x, y, z int) block.ID {
	width := w.WidthInBlocks()
	if x < 0 || z < 0 || y < 0 || x >= width || z >= width || y >= w.dim.Height {
		return block.Air
	}
	coord := ChunkCoord{X: floorDiv(x, w.dim.Width), Z: floorDiv(z, w.dim.Width)}
	w.mu.RLock()
	c := w.chunks[w.slot(coord)]
	w.mu.RUnlock()
	if c != nil && c.Populated() {
		return c.blockAtAbsolute(x, y, z)
	}
	return w.source.BlockAt(x, y, z)
}

func (w *World) SolidAt(x, y, z int) bool {
	return w.registry.IsSolid(w.BlockAt(x, y, z))
}

// Viewer returns the last chunk the viewer was seen in.
func (w *World) Viewer() (ChunkCoord, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.viewer, w.hasViewer
}

// ActiveChunks returns the active set ordered by X then Z.
func (w *World) ActiveChunks() []ChunkCoord {
	w.mu.RLock()
	out := make([]ChunkCoord, 0, len(w.active))
	for coord := range w.active {
		out = append(out, coord)
	}
	w.mu.RUnlock()
	sortCoords(out)
	return out
}

// Pending returns the build queue in build order.
func (w *World) Pending() []ChunkCoord {
	return w.queue.Snapshot()
}

func (w *World) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	created := 0
	for _, c := range w.chunks {
		if c != nil {
			created++
		}
	}
	return Stats{
		Created:   created,
		Active:    len(w.active),
		Pending:   w.queue.Len(),
		Built:     w.built,
		Cancelled: w.cancelled,
	}
}

// Bootstrap builds the view square around spawn synchronously so the first
// frame has terrain, then records the viewer there.
func (w *World) Bootstrap(spawn mgl32.Vec3) error {
	centre := w.ChunkCoordOf(spawn)
	coords := w.viewSquare(centre)

	w.mu.Lock()
	fresh := make([]*Chunk, 0, len(coords))
	for _, coord := range coords {
		c := w.chunks[w.slot(coord)]
		if c == nil {
			c = NewChunk(coord, w.dim)
			w.chunks[w.slot(coord)] = c
		}
		c.setActive(true)
		w.active[coord] = struct{}{}
		if !c.Built() {
			fresh = append(fresh, c)
		}
	}
	w.viewer = centre
	w.hasViewer = true
	w.mu.Unlock()

	for _, c := range fresh {
		w.queue.Remove(c.coord)
		if c.State() == StateCreated {
			if err := c.Populate(w.source); err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
		}
	}
	for _, c := range fresh {
		if err := w.meshAndPublish(c); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}
	w.logger.Printf("bootstrapped %d chunks around %v", len(fresh), centre)
	return nil
}

// UpdateViewer records a new viewer position and recomputes the active set
// when it crossed into another chunk. It reports whether a recompute ran.
func (w *World) UpdateViewer(pos mgl32.Vec3) bool {
	coord := w.ChunkCoordOf(pos)
	if last, ok := w.Viewer(); ok && last == coord {
		return false
	}
	w.CheckViewDistance(coord)
	return true
}

// viewSquare lists the creatable coordinates around centre.
func (w *World) viewSquare(centre ChunkCoord) []ChunkCoord {
	xlo, xhi := viewSpan(centre.X, w.viewDistance, w.symmetric)
	zlo, zhi := viewSpan(centre.Z, w.viewDistance, w.symmetric)
	xlo, xhi = max(xlo, 1), min(xhi, w.size-1)
	zlo, zhi = max(zlo, 1), min(zhi, w.size-1)
	if xhi <= xlo || zhi <= zlo {
		return nil
	}
	coords := make([]ChunkCoord, 0, (xhi-xlo)*(zhi-zlo))
	for x := xlo; x < xhi; x++ {
		for z := zlo; z < zhi; z++ {
			coord := ChunkCoord{X: x, Z: z}
			if w.InWorld(coord) {
				coords = append(coords, coord)
			}
		}
	}
	return coords
}

// CheckViewDistance makes the view square around centre the active set.
// Missing chunks are created and queued, inactive ones are shown again, and
// chunks that fell out of range are hidden with their data kept. Running it
// twice for the same centre changes nothing.
func (w *World) CheckViewDistance(centre ChunkCoord) {
	coords := w.viewSquare(centre)

	type visibility struct {
		coord   ChunkCoord
		visible bool
	}
	var changes []visibility
	created, queued, cancelled := 0, 0, 0

	w.mu.Lock()
	previous := w.active
	next := make(map[ChunkCoord]struct{}, len(coords))
	for _, coord := range coords {
		c := w.chunks[w.slot(coord)]
		if c == nil {
			c = NewChunk(coord, w.dim)
			w.chunks[w.slot(coord)] = c
			created++
		}
		if !c.Built() && w.queue.Enqueue(coord) {
			queued++
		}
		if c.setActive(true) && c.Built() {
			changes = append(changes, visibility{coord: coord, visible: true})
		}
		next[coord] = struct{}{}
		delete(previous, coord)
	}
	for coord := range previous {
		c := w.chunks[w.slot(coord)]
		if c.setActive(false) && c.Built() {
			changes = append(changes, visibility{coord: coord, visible: false})
		}
		if w.cancel && !c.Built() && w.queue.Remove(coord) {
			cancelled++
		}
	}
	w.active = next
	w.viewer = centre
	w.hasViewer = true
	w.cancelled += cancelled
	w.mu.Unlock()

	for _, change := range changes {
		if err := w.renderer.SetVisible(change.coord, change.visible); err != nil {
			w.logger.Printf("set chunk %v visible=%t: %v", change.coord, change.visible, err)
		}
	}
	if created > 0 || queued > 0 || cancelled > 0 || len(changes) > 0 {
		w.logger.Printf("view %v: %d active, %d created, %d queued, %d cancelled, %d visibility changes",
			centre, len(next), created, queued, cancelled, len(changes))
	}
}

// Tick builds the chunk at the head of the queue. It reports false when the
// queue was empty.
func (w *World) Tick() (ChunkCoord, bool, error) {
	coord, ok := w.queue.Pop()
	if !ok {
		return ChunkCoord{}, false, nil
	}
	c, ok := w.Chunk(coord)
	if !ok {
		return coord, true, fmt.Errorf("queued chunk %v is not resident", coord)
	}
	if c.State() == StateCreated {
		if err := c.Populate(w.source); err != nil {
			return coord, true, err
		}
	}
	if err := w.meshAndPublish(c); err != nil {
		return coord, true, err
	}
	return coord, true, nil
}

// TickParallel builds up to workers queued chunks at once. All chunks of the
// batch are populated before any is meshed; meshes are published in queue
// order from the calling goroutine. Chunks not reached before ctx ends go
// back to the head of the queue.
func (w *World) TickParallel(ctx context.Context, workers int) ([]ChunkCoord, error) {
	if workers <= 1 {
		coord, ok, err := w.Tick()
		if !ok {
			return nil, err
		}
		return []ChunkCoord{coord}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := w.queue.Drain(workers)
	if len(batch) == 0 {
		return nil, nil
	}
	chunks := make([]*Chunk, len(batch))
	for i, coord := range batch {
		c, ok := w.Chunk(coord)
		if !ok {
			return nil, fmt.Errorf("queued chunk %v is not resident", coord)
		}
		chunks[i] = c
	}

	populateErrs := w.parallel(ctx, chunks, func(_ int, c *Chunk) error {
		if c.State() != StateCreated {
			return nil
		}
		return c.Populate(w.source)
	})
	meshes := make([]*mesh.Mesh, len(chunks))
	meshErrs := w.parallel(ctx, chunks, func(i int, c *Chunk) error {
		if !c.Populated() {
			return ErrNotPopulated
		}
		m, err := c.BuildMesh(w, w.registry, w.atlas)
		if err != nil {
			return err
		}
		meshes[i] = m
		return nil
	})

	var (
		done    []ChunkCoord
		requeue []ChunkCoord
		errs    []error
	)
	for i, c := range chunks {
		if err := populateErrs[i]; err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			errs = append(errs, fmt.Errorf("populate chunk %v: %w", c.coord, err))
			continue
		}
		if meshes[i] == nil {
			if err := meshErrs[i]; err != nil && ctx.Err() == nil {
				errs = append(errs, fmt.Errorf("build chunk %v: %w", c.coord, err))
				continue
			}
			requeue = append(requeue, c.coord)
			continue
		}
		w.publish(c, meshes[i])
		done = append(done, c.coord)
	}
	if len(requeue) > 0 {
		w.queue.Prepend(requeue)
	}
	if len(errs) > 0 {
		return done, errors.Join(errs...)
	}
	return done, ctx.Err()
}

// parallel runs fn on one goroutine per chunk and returns the errors in
// input order. Batches never exceed the worker count.
func (w *World) parallel(ctx context.Context, chunks []*Chunk, fn func(int, *Chunk) error) []error {
	errs := make([]error, len(chunks))
	var wg sync.WaitGroup
	for i, c := range chunks {
		wg.Add(1)
		go func(idx int, c *Chunk) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return
			}
			errs[idx] = fn(idx, c)
		}(i, c)
	}
	wg.Wait()
	return errs
}

func (w *World) meshAndPublish(c *Chunk) error {
	m, err := c.BuildMesh(w, w.registry, w.atlas)
	if err != nil {
		return err
	}
	w.publish(c, m)
	return nil
}

// publish hands a finished mesh to the renderer and shows it if the chunk
// is still in view.
func (w *World) publish(c *Chunk, m *mesh.Mesh) {
	w.mu.Lock()
	w.built++
	w.mu.Unlock()

	if err := w.renderer.Upload(c.coord, c.Origin(), m); err != nil {
		w.logger.Printf("upload chunk %v: %v", c.coord, err)
		return
	}
	if err := w.renderer.SetVisible(c.coord, c.Active()); err != nil {
		w.logger.Printf("set chunk %v visible=%t: %v", c.coord, c.Active(), err)
	}
}

func sortCoords(coords []ChunkCoord) {
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].X == coords[j].X {
			return coords[i].Z < coords[j].Z
		}
		return coords[i].X < coords[j].X
	})
}
