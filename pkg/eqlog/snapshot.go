package eqlog

import (
	"time"

	"github.com/eqlog/eqlog-go/pkg/eqlog/event"
)

// DpsSnapshot summarizes one actor's events inside a window.
// WindowStart and WindowEnd are the earliest and latest event timestamps
// that fell inside the window, not the window bounds themselves.
type DpsSnapshot struct {
	ActorName   string    `json:"actor"`
	TotalDamage int64     `json:"total_damage"`
	DPS         float64   `json:"dps"`
	HitCount    int       `json:"hits"`
	CritCount   int       `json:"crits"`
	MissCount   int       `json:"misses"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

// Snapshots maps actor keys to their snapshots. Receivers must treat a
// published map as read-only.
type Snapshots map[string]DpsSnapshot

// Empty reports whether no event fell inside the window.
func (s DpsSnapshot) Empty() bool {
	return s.HitCount == 0 && s.MissCount == 0
}

// Duration is the span used as the DPS divisor, never less than one second.
func (s DpsSnapshot) Duration() time.Duration {
	d := s.WindowEnd.Sub(s.WindowStart)
	if d < time.Second {
		return time.Second
	}
	return d
}

// CritRate is CritCount/HitCount in 0..1.
func (s DpsSnapshot) CritRate() float64 {
	if s.HitCount == 0 {
		return 0
	}
	return float64(s.CritCount) / float64(s.HitCount)
}

// HitRate is hits over hits plus misses in 0..1.
func (s DpsSnapshot) HitRate() float64 {
	attempts := s.HitCount + s.MissCount
	if attempts == 0 {
		return 0
	}
	return float64(s.HitCount) / float64(attempts)
}

// AverageDamage is the mean amount per hit.
func (s DpsSnapshot) AverageDamage() float64 {
	if s.HitCount == 0 {
		return 0
	}
	return float64(s.TotalDamage) / float64(s.HitCount)
}

// computeSnapshot folds the events at or after cutoff.
// Misses are counted but carry no damage.
func computeSnapshot(actor string, events []event.CombatEvent, cutoff time.Time) DpsSnapshot {
	s := DpsSnapshot{ActorName: actor}
	seen := false
	for _, ev := range events {
		if ev.Timestamp.Before(cutoff) {
			continue
		}
		if !seen {
			s.WindowStart, s.WindowEnd = ev.Timestamp, ev.Timestamp
			seen = true
		} else {
			if ev.Timestamp.Before(s.WindowStart) {
				s.WindowStart = ev.Timestamp
			}
			if ev.Timestamp.After(s.WindowEnd) {
				s.WindowEnd = ev.Timestamp
			}
		}

		if ev.Kind == event.Miss {
			s.MissCount++
			continue
		}
		s.TotalDamage += int64(ev.Amount)
		s.HitCount++
		if ev.IsCritical {
			s.CritCount++
		}
	}
	if seen && s.HitCount > 0 {
		s.DPS = float64(s.TotalDamage) / s.Duration().Seconds()
	}
	return s
}
