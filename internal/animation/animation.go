// Package animation drives the decorative canvas state: a connected
// particle field and the DNA/cell banner. The scheduler is an explicit
// frame loop with an observable running flag; it shares no state with the
// store and is never allowed to block it.
package animation

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Field is one animated layer. Step advances it by one frame, Reset
// rebuilds its internal state for a new viewport.
type Field interface {
	Step(dt float64)
	Reset(width, height float64)
}

// Particle is a single moving point of the field.
type Particle struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Size    float64 `json:"size"`
	SpeedX  float64 `json:"-"`
	SpeedY  float64 `json:"-"`
	Opacity float64 `json:"opacity"`
}

// ParticleField mirrors the login-screen particle system: particles drift,
// bounce off the edges and connect when close enough.
type ParticleField struct {
	mu                 sync.Mutex
	rng                *rand.Rand
	width, height      float64
	particles          []Particle
	maxCount           int
	speed              float64
	minSize, maxSize   float64
	connectionDistance float64
}

func NewParticleField(seed int64) *ParticleField {
	return &ParticleField{
		rng:                rand.New(rand.NewSource(seed)),
		maxCount:           80,
		speed:              0.4,
		minSize:            1.5,
		maxSize:            3.5,
		connectionDistance: 130,
	}
}

// Reset recreates the particles for the given viewport. The count scales
// with the area, bounded to [20, maxCount].
func (f *ParticleField) Reset(width, height float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.width, f.height = width, height
	f.particles = f.particles[:0]
	if width <= 0 || height <= 0 {
		return
	}
	count := int(width * height / 8000)
	if count < 20 {
		count = 20
	}
	if count > f.maxCount {
		count = f.maxCount
	}
	for i := 0; i < count; i++ {
		f.particles = append(f.particles, Particle{
			X:       f.rng.Float64() * width,
			Y:       f.rng.Float64() * height,
			Size:    f.rng.Float64()*(f.maxSize-f.minSize) + f.minSize,
			SpeedX:  (f.rng.Float64() - 0.5) * f.speed * 2,
			SpeedY:  (f.rng.Float64() - 0.5) * f.speed * 2,
			Opacity: f.rng.Float64()*0.5 + 0.2,
		})
	}
}

// Step moves every particle, reflecting at the viewport edges.
func (f *ParticleField) Step(dt float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.particles {
		p := &f.particles[i]
		p.X += p.SpeedX * dt
		p.Y += p.SpeedY * dt
		if p.X < 0 || p.X > f.width {
			p.SpeedX = -p.SpeedX
		}
		if p.Y < 0 || p.Y > f.height {
			p.SpeedY = -p.SpeedY
		}
	}
}

// Particles returns a copy of the current particle state.
func (f *ParticleField) Particles() []Particle {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Particle, len(f.particles))
	copy(out, f.particles)
	return out
}

// Connections returns the index pairs of particles closer than the
// connection distance, in scan order.
func (f *ParticleField) Connections() [][2]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pairs [][2]int
	maxSq := f.connectionDistance * f.connectionDistance
	for i := 0; i < len(f.particles); i++ {
		for j := i + 1; j < len(f.particles); j++ {
			dx := f.particles[i].X - f.particles[j].X
			dy := f.particles[i].Y - f.particles[j].Y
			if dx*dx+dy*dy < maxSq {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}

// Cell is one element of the dashboard banner: a cell, molecule or plain
// particle with a pulsing radius.
type Cell struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Radius     float64 `json:"radius"`
	Kind       string  `json:"kind"`
	Opacity    float64 `json:"opacity"`
	speedX     float64
	speedY     float64
	pulseSpeed float64
	pulseOff   float64
}

// HelixField is the DNA banner animation: drifting cells plus a helix phase
// advanced every frame.
type HelixField struct {
	mu            sync.Mutex
	rng           *rand.Rand
	width, height float64
	cells         []Cell
	phase         float64
}

func NewHelixField(seed int64) *HelixField {
	return &HelixField{rng: rand.New(rand.NewSource(seed))}
}

func (f *HelixField) Reset(width, height float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.width, f.height = width, height
	f.cells = f.cells[:0]
	if width <= 0 || height <= 0 {
		return
	}
	count := int(width / 30)
	if count < 12 {
		count = 12
	}
	if count > 35 {
		count = 35
	}
	for i := 0; i < count; i++ {
		kindRoll := f.rng.Float64()
		kind := "particle"
		radius := f.rng.Float64()*5 + 2
		if kindRoll < 0.3 {
			kind = "cell"
			radius = f.rng.Float64()*8 + 4
		} else if kindRoll < 0.6 {
			kind = "molecule"
		}
		f.cells = append(f.cells, Cell{
			X:          f.rng.Float64() * width,
			Y:          f.rng.Float64() * height,
			Radius:     radius,
			Kind:       kind,
			Opacity:    f.rng.Float64()*0.4 + 0.15,
			speedX:     (f.rng.Float64() - 0.5) * 0.6,
			speedY:     (f.rng.Float64() - 0.5) * 0.6,
			pulseSpeed: f.rng.Float64()*0.02 + 0.01,
			pulseOff:   f.rng.Float64() * 2 * math.Pi,
		})
	}
}

func (f *HelixField) Step(dt float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phase += 0.01 * dt
	for i := range f.cells {
		c := &f.cells[i]
		c.X += c.speedX * dt
		c.Y += c.speedY * dt
		// wrap around instead of bouncing, like the banner does
		if c.X < 0 {
			c.X += f.width
		} else if c.X > f.width {
			c.X -= f.width
		}
		if c.Y < 0 {
			c.Y += f.height
		} else if c.Y > f.height {
			c.Y -= f.height
		}
		c.Opacity = 0.15 + 0.2*(1+math.Sin(f.phase/0.01*c.pulseSpeed+c.pulseOff))/2
	}
}

func (f *HelixField) Cells() []Cell {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Cell, len(f.cells))
	copy(out, f.cells)
	return out
}

func (f *HelixField) Phase() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Scheduler runs fields at a fixed frame interval. Pausing stops frame
// delivery without tearing down field state; resuming picks up where the
// loop left off. Resize resets only the fields, never the loop.
type Scheduler struct {
	mu       sync.Mutex
	fields   []Field
	interval time.Duration
	running  bool
	frames   uint64
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(interval time.Duration, fields ...Field) *Scheduler {
	if interval <= 0 {
		interval = time.Second / 30
	}
	return &Scheduler{fields: fields, interval: interval}
}

// Start launches the frame loop. It is a no-op when already started.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.done = make(chan struct{})
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if !s.running {
				s.mu.Unlock()
				continue
			}
			s.frames++
			fields := s.fields
			s.mu.Unlock()
			for _, f := range fields {
				f.Step(1)
			}
		}
	}
}

// Pause suspends frame delivery, e.g. when the page reports itself hidden.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// Resume restarts frame delivery after a Pause.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
}

// Running reports whether frames are currently being delivered.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Frames returns the number of frames delivered since Start.
func (s *Scheduler) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Resize rebuilds every field for the new viewport. Loop state (running,
// frame count) is untouched.
func (s *Scheduler) Resize(width, height float64) {
	s.mu.Lock()
	fields := s.fields
	s.mu.Unlock()
	for _, f := range fields {
		f.Reset(width, height)
	}
}

// Stop cancels the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.running = false
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
