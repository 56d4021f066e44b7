package main

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/config"
)

// viewer walks in a straight line over the XZ plane and turns back at the
// world edges.
type viewer struct {
	position mgl32.Vec3
	heading  float32 // radians
	speed    float32
	limit    float32
}

func newViewer(spawn mgl32.Vec3, cfg config.ViewerConfig, worldWidth float32) *viewer {
	return &viewer{
		position: spawn,
		heading:  mgl32.DegToRad(float32(cfg.Heading)),
		speed:    float32(cfg.Speed),
		limit:    worldWidth,
	}
}

func (v *viewer) Position() mgl32.Vec3 {
	return v.position
}

func (v *viewer) Advance(dt time.Duration) {
	if v.speed == 0 {
		return
	}
	dir := mgl32.Vec3{
		float32(math.Cos(float64(v.heading))),
		0,
		float32(math.Sin(float64(v.heading))),
	}
	next := v.position.Add(dir.Mul(v.speed * float32(dt.Seconds())))

	bounced := false
	if next.X() < 0 || next.X() >= v.limit {
		next[0] = clamp32(next.X(), 0, v.limit-1)
		dir[0] = -dir[0]
		bounced = true
	}
	if next.Z() < 0 || next.Z() >= v.limit {
		next[2] = clamp32(next.Z(), 0, v.limit-1)
		dir[2] = -dir[2]
		bounced = true
	}
	if bounced {
		v.heading = float32(math.Atan2(float64(dir.Z()), float64(dir.X())))
	}
	v.position = next
}

func clamp32(value, lo, hi float32) float32 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
