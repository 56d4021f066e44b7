package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"voxelworld/internal/block"
	"voxelworld/internal/config"
	"voxelworld/internal/mesh"
	"voxelworld/internal/noise"
	"voxelworld/internal/render"
	"voxelworld/internal/terrain"
	"voxelworld/internal/world"
)

const (
	defaultStep    = time.Second / 60
	statsLogPeriod = 120
)

// engine is the headless host loop: it walks a viewer across the world and
// drives chunk streaming once per tick.
type engine struct {
	cfg      *config.Config
	logger   *log.Logger
	world    *world.World
	recorder *render.Recorder
	archive  *render.Archive
	viewer   *viewer
	step     time.Duration
}

func newEngine(cfg *config.Config, logger *log.Logger) (*engine, error) {
	if logger == nil {
		logger = log.Default()
	}
	registry, err := block.NewRegistry(cfg.Blocks)
	if err != nil {
		return nil, fmt.Errorf("block registry: %w", err)
	}
	atlas, err := mesh.NewAtlas(cfg.Atlas.SizeInBlocks)
	if err != nil {
		return nil, err
	}
	source := noise.New(cfg.Engine.Seed)
	gen, err := terrain.New(cfg.Biome, cfg.World, registry, source)
	if err != nil {
		return nil, fmt.Errorf("terrain generator: %w", err)
	}

	recorder := render.NewRecorder()
	sinks := render.Fanout{recorder}
	var archive *render.Archive
	if cfg.Output.ArchivePath != "" {
		archive, err = render.OpenArchive(cfg.Output.ArchivePath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, archive)
	}

	w, err := world.New(world.Options{
		World:    cfg.World,
		Atlas:    atlas,
		Registry: registry,
		Source:   gen,
		Renderer: sinks,
		Logger:   logger,
	})
	if err != nil {
		if archive != nil {
			archive.Close()
		}
		return nil, fmt.Errorf("world: %w", err)
	}

	step := cfg.Engine.TickRate.Duration()
	if step <= 0 {
		step = defaultStep
	}
	logger.Printf("biome %q with lodes %v, seed %d, %dx%d chunks", cfg.Biome.Name, gen.Lodes(), source.Seed(), w.SizeInChunks(), w.SizeInChunks())

	return &engine{
		cfg:      cfg,
		logger:   logger,
		world:    w,
		recorder: recorder,
		archive:  archive,
		viewer:   newViewer(w.Spawn(), cfg.Viewer, float32(w.WidthInBlocks())),
		step:     step,
	}, nil
}

// Run bootstraps the world at spawn and ticks until ctx ends or the
// configured tick budget is spent. Outputs are written on the way out.
func (e *engine) Run(ctx context.Context) error {
	if err := e.world.Bootstrap(e.viewer.Position()); err != nil {
		return errors.Join(err, e.close())
	}
	if err := e.checkpoint(); err != nil {
		return errors.Join(err, e.close())
	}

	var ticker *time.Ticker
	if rate := e.cfg.Engine.TickRate.Duration(); rate > 0 {
		ticker = time.NewTicker(rate)
		defer ticker.Stop()
	}

	var runErr error
	for tick := 0; e.cfg.Engine.MaxTicks == 0 || tick < e.cfg.Engine.MaxTicks; tick++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
			case <-ticker.C:
			}
		}
		if ctx.Err() != nil {
			break
		}
		if err := e.tick(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			runErr = err
			break
		}
		if tick > 0 && tick%statsLogPeriod == 0 {
			e.logStats()
			if err := e.checkpoint(); err != nil {
				runErr = err
				break
			}
		}
	}

	e.logStats()
	return errors.Join(runErr, e.close())
}

func (e *engine) tick(ctx context.Context) error {
	e.viewer.Advance(e.step)
	e.world.UpdateViewer(e.viewer.Position())

	if workers := e.cfg.Engine.BuildWorkers; workers > 1 {
		_, err := e.world.TickParallel(ctx, workers)
		return err
	}
	_, _, err := e.world.Tick()
	return err
}

func (e *engine) logStats() {
	stats := e.world.Stats()
	pos := e.viewer.Position()
	e.logger.Printf("viewer (%.1f, %.1f) chunks created=%d active=%d pending=%d built=%d cancelled=%d faces=%d",
		pos.X(), pos.Z(), stats.Created, stats.Active, stats.Pending, stats.Built, stats.Cancelled, e.recorder.VisibleFaces())
}

// checkpoint flushes archived meshes to disk.
func (e *engine) checkpoint() error {
	if e.archive == nil {
		return nil
	}
	if err := e.archive.Sync(); err != nil {
		return fmt.Errorf("sync archive: %w", err)
	}
	return nil
}

// close writes the preview and closes the archive.
func (e *engine) close() error {
	var errs []error
	if path := e.cfg.Output.PreviewPath; path != "" {
		if err := world.SavePreview(e.world, path); err != nil {
			errs = append(errs, fmt.Errorf("save preview: %w", err))
		} else {
			e.logger.Printf("preview written to %s", path)
		}
	}
	if e.archive != nil {
		if err := e.archive.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close archive: %w", err))
		} else {
			e.logger.Printf("archived %d chunk meshes to %s", e.archive.Len(), e.cfg.Output.ArchivePath)
		}
		e.archive = nil
	}
	return errors.Join(errs...)
}
