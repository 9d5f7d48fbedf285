package animation

import (
	"context"
	"time"
)

// Banner bundles the dashboard animation: the login particle field, the
// DNA/cell field and the scheduler that steps them.
type Banner struct {
	scheduler *Scheduler
	particles *ParticleField
	helix     *HelixField
}

// Snapshot is one rendered frame of the banner state.
type Snapshot struct {
	Running   bool       `json:"running"`
	Frame     uint64     `json:"frame"`
	Phase     float64    `json:"phase"`
	Particles []Particle `json:"particles"`
	Cells     []Cell     `json:"cells"`
}

func NewBanner(interval time.Duration, seed int64, width, height float64) *Banner {
	particles := NewParticleField(seed)
	helix := NewHelixField(seed + 1)
	particles.Reset(width, height)
	helix.Reset(width, height)
	return &Banner{
		scheduler: NewScheduler(interval, particles, helix),
		particles: particles,
		helix:     helix,
	}
}

func (b *Banner) Start(ctx context.Context) { b.scheduler.Start(ctx) }
func (b *Banner) Stop()                     { b.scheduler.Stop() }
func (b *Banner) Pause()                    { b.scheduler.Pause() }
func (b *Banner) Resume()                   { b.scheduler.Resume() }
func (b *Banner) Running() bool             { return b.scheduler.Running() }

// Resize rebuilds the particle state for a new viewport; the loop and the
// frame counter are untouched.
func (b *Banner) Resize(width, height float64) { b.scheduler.Resize(width, height) }

func (b *Banner) Snapshot() Snapshot {
	return Snapshot{
		Running:   b.scheduler.Running(),
		Frame:     b.scheduler.Frames(),
		Phase:     b.helix.Phase(),
		Particles: b.particles.Particles(),
		Cells:     b.helix.Cells(),
	}
}
