// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const hoursPerDay = 24

// Snapshot is one measurement event for a team: a raw value per indicator and
// an optional coverage flag per indicator.
type Snapshot struct {
	TeamID    string             `json:"team_id" yaml:"team_id,omitempty"`
	Timestamp time.Time          `json:"timestamp" yaml:"timestamp"`
	Values    map[string]float64 `json:"values" yaml:"values"`
	// Coverage marks whether an indicator was measurable at this point. A
	// missing key means covered whenever a value is present.
	Coverage map[string]bool `json:"coverage,omitempty" yaml:"coverage,omitempty"`
	// Percentiles carries orientation-adjusted percentile ranks for indicators
	// only available in that form.
	Percentiles map[string]float64 `json:"percentiles,omitempty" yaml:"percentiles,omitempty"`
}

// Covered reports whether indicator id has a usable raw value.
func (s Snapshot) Covered(id string) bool {
	_, ok := s.Value(id)
	return ok
}

// Value returns the raw value for id when it is covered and finite.
func (s Snapshot) Value(id string) (float64, bool) {
	if flag, ok := s.Coverage[id]; ok && !flag {
		return 0, false
	}
	v, ok := s.Values[id]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Percentile returns the percentile-only value for id, if any.
func (s Snapshot) Percentile(id string) (float64, bool) {
	p, ok := s.Percentiles[id]
	if !ok || math.IsNaN(p) {
		return 0, false
	}
	return p, true
}

// TeamHistory is every snapshot recorded for one team.
type TeamHistory struct {
	TeamID    string     `json:"team_id" yaml:"team_id"`
	Snapshots []Snapshot `json:"snapshots" yaml:"snapshots"`
}

// Normalize returns a copy ordered by timestamp with duplicate timestamps
// dropped (first occurrence wins) and TeamID stamped on every snapshot.
func (h TeamHistory) Normalize() TeamHistory {
	snaps := make([]Snapshot, len(h.Snapshots))
	copy(snaps, h.Snapshots)
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].Timestamp.Before(snaps[j].Timestamp)
	})
	out := TeamHistory{TeamID: h.TeamID, Snapshots: snaps[:0]}
	for i, s := range snaps {
		if i > 0 && s.Timestamp.Equal(snaps[i-1].Timestamp) {
			continue
		}
		s.TeamID = h.TeamID
		out.Snapshots = append(out.Snapshots, s)
	}
	return out
}

// Baseline is the earliest snapshot.
func (h TeamHistory) Baseline() (Snapshot, bool) {
	if len(h.Snapshots) == 0 {
		return Snapshot{}, false
	}
	return h.Snapshots[0], true
}

// Current is the latest snapshot.
func (h TeamHistory) Current() (Snapshot, bool) {
	if len(h.Snapshots) == 0 {
		return Snapshot{}, false
	}
	return h.Snapshots[len(h.Snapshots)-1], true
}

// HasInterval reports whether baseline and current are distinct measurements.
func (h TeamHistory) HasInterval() bool {
	return len(h.Snapshots) >= 2
}

// Interval returns the baseline and current snapshots, or
// ErrInsufficientSnapshots when there are fewer than two.
func (h TeamHistory) Interval() (Snapshot, Snapshot, error) {
	if !h.HasInterval() {
		return Snapshot{}, Snapshot{}, fmt.Errorf("%w: team %q has %d", ErrInsufficientSnapshots, h.TeamID, len(h.Snapshots))
	}
	return h.Snapshots[0], h.Snapshots[len(h.Snapshots)-1], nil
}

// ElapsedDays is the span between baseline and current in days.
func (h TeamHistory) ElapsedDays() float64 {
	if !h.HasInterval() {
		return 0
	}
	return h.Snapshots[len(h.Snapshots)-1].Timestamp.Sub(h.Snapshots[0].Timestamp).Hours() / hoursPerDay
}

// Spacings returns the gaps between consecutive snapshots in days.
func (h TeamHistory) Spacings() []float64 {
	if !h.HasInterval() {
		return nil
	}
	out := make([]float64, 0, len(h.Snapshots)-1)
	for i := 1; i < len(h.Snapshots); i++ {
		out = append(out, h.Snapshots[i].Timestamp.Sub(h.Snapshots[i-1].Timestamp).Hours()/hoursPerDay)
	}
	return out
}

// Portfolio is the set of team histories scored together.
type Portfolio struct {
	Teams []TeamHistory `json:"teams" yaml:"teams"`
}

// Validate rejects portfolios the pipeline cannot partition into teams.
func (p Portfolio) Validate() error {
	if len(p.Teams) == 0 {
		return fmt.Errorf("%w: no teams", ErrInvalidPortfolio)
	}
	seen := make(map[string]struct{}, len(p.Teams))
	for i, t := range p.Teams {
		if t.TeamID == "" {
			return fmt.Errorf("%w: team %d has no id", ErrInvalidPortfolio, i)
		}
		if _, dup := seen[t.TeamID]; dup {
			return fmt.Errorf("%w: duplicate team %q", ErrInvalidPortfolio, t.TeamID)
		}
		if len(t.Snapshots) == 0 {
			return fmt.Errorf("%w: team %q has no snapshots", ErrInvalidPortfolio, t.TeamID)
		}
		seen[t.TeamID] = struct{}{}
	}
	return nil
}

// Normalize returns a copy with every history normalized and teams ordered by id.
func (p Portfolio) Normalize() Portfolio {
	out := Portfolio{Teams: make([]TeamHistory, len(p.Teams))}
	for i, t := range p.Teams {
		out.Teams[i] = t.Normalize()
	}
	sort.Slice(out.Teams, func(i, j int) bool { return out.Teams[i].TeamID < out.Teams[j].TeamID })
	return out
}

// Baselines returns each team's baseline snapshot in portfolio order.
func (p Portfolio) Baselines() []Snapshot {
	out := make([]Snapshot, 0, len(p.Teams))
	for _, t := range p.Teams {
		if b, ok := t.Baseline(); ok {
			b.TeamID = t.TeamID
			out = append(out, b)
		}
	}
	return out
}
