// Package mood keeps a decaying emotional state fed by observed chat
// activity and surfaces significant swings as engagement signals.
package mood

import (
	"sync"
	"time"

	"icebreaker/internal/engage"
)

const (
	// Emotions drift toward zero over time.
	decayPerSecond = 0.002

	// Minimum activation delta since the last reported signal for a
	// swing to count as significant.
	significantSwing = 0.25
)

// Tracker is safe for concurrent use: the message handler bumps it
// while the mood trigger loop polls it.
type Tracker struct {
	mu         sync.Mutex
	joy        float64
	gloom      float64
	engagement float64
	updatedAt  time.Time
	reported   float64

	now func() time.Time
}

func NewTracker() *Tracker {
	t := &Tracker{now: time.Now}
	t.updatedAt = t.now()
	return t
}

// Observe bumps the state for one observed message. positive tracks
// rough message sentiment, intensity its strength in [0,1].
func (t *Tracker) Observe(positive bool, intensity float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.decayLocked()
	intensity = clamp01(intensity)
	if positive {
		t.joy = clamp01(t.joy + intensity*0.3)
	} else {
		t.gloom = clamp01(t.gloom + intensity*0.3)
	}
	t.engagement = clamp01(t.engagement + intensity*0.2)
}

// DetectSignal returns a signal when the activation level has swung
// far enough since the last reported signal, else nil. Reporting a
// swing arms the next one; a steady mood stays silent.
func (t *Tracker) DetectSignal() *engage.Signal {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.decayLocked()
	act := t.activationLocked()
	if abs(act-t.reported) < significantSwing {
		return nil
	}
	t.reported = act

	label := "cheerful"
	if t.gloom > t.joy {
		label = "down"
	}
	return &engage.Signal{
		Label:       label,
		Intensity:   act,
		ChangeClass: "significant",
	}
}

// Activation exposes the current 0..1 activation for status surfaces.
func (t *Tracker) Activation() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.decayLocked()
	return t.activationLocked()
}

func (t *Tracker) activationLocked() float64 {
	return clamp01((t.joy+t.gloom)*0.5 + t.engagement*0.4)
}

func (t *Tracker) decayLocked() {
	now := t.now()
	sec := now.Sub(t.updatedAt).Seconds()
	if sec < 0 {
		sec = 0
	}
	decay := 1.0 - decayPerSecond*sec
	if decay < 0 {
		decay = 0
	}
	t.joy = clamp01(t.joy * decay)
	t.gloom = clamp01(t.gloom * decay)
	t.engagement = clamp01(t.engagement * decay)
	t.updatedAt = now
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
