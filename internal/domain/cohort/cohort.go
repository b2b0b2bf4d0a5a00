// Package cohort groups teams into peer cohorts by the similarity of their
// baseline indicator profiles.
package cohort

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/okian/pulse/internal/domain/indicator"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/stats"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
)

// IndicatorStats is a cohort's reference population for one indicator.
type IndicatorStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	N      int     `json:"n"`
}

// Group is one baseline cohort. It is immutable once returned by Build.
type Group struct {
	ID         int
	Members    []string
	Centroid   []float64
	MergedFrom []int
	Stats      map[string]IndicatorStats
}

// Size returns the member count.
func (g *Group) Size() int { return len(g.Members) }

// Stat returns the cohort statistics for an indicator. ok is false when no
// member had the indicator covered at baseline.
func (g *Group) Stat(id string) (IndicatorStats, bool) {
	s, ok := g.Stats[id]
	if !ok || s.N == 0 {
		return IndicatorStats{}, false
	}
	return s, true
}

// Grouping is the partition of a portfolio into cohorts. Every team belongs
// to exactly one group.
type Grouping struct {
	Groups []*Group
	byTeam map[string]*Group
}

// GroupOf returns the cohort a team belongs to.
func (g *Grouping) GroupOf(teamID string) (*Group, bool) {
	grp, ok := g.byTeam[teamID]
	return grp, ok
}

// Len returns the number of cohorts.
func (g *Grouping) Len() int { return len(g.Groups) }

// Summaries describes the cohorts for reporting.
func (g *Grouping) Summaries() []model.CohortSummary {
	out := make([]model.CohortSummary, 0, len(g.Groups))
	for _, grp := range g.Groups {
		out = append(out, model.CohortSummary{
			ID:         grp.ID,
			Size:       grp.Size(),
			MergedFrom: append([]int(nil), grp.MergedFrom...),
			Members:    append([]string(nil), grp.Members...),
		})
	}
	return out
}

// Builder partitions baselines into cohorts.
type Builder struct {
	registry      *indicator.Registry
	groupCount    int
	minSize       int
	maxIterations int
	log           logger.Logger
}

// NewBuilder constructs a cohort builder over the given catalog.
func NewBuilder(registry *indicator.Registry, opts ...Option) *Builder {
	b := &Builder{
		registry:      registry,
		groupCount:    DefaultGroupCount,
		minSize:       DefaultMinSize,
		maxIterations: DefaultMaxIterations,
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// MinSize returns the configured minimum cohort size.
func (b *Builder) MinSize() int { return b.minSize }

// cluster is a working cohort during building. members index into the
// sorted baseline slice.
type cluster struct {
	id         int
	members    []int
	centroid   []float64
	mergedFrom []int
}

// Build clusters baselines into cohorts, merges undersized cohorts into their
// nearest neighbour and computes per-indicator statistics for each cohort.
// The result depends only on the set of baselines, not on their order.
func (b *Builder) Build(ctx context.Context, baselines []model.Snapshot) (*Grouping, error) {
	if len(baselines) == 0 {
		return nil, ErrNoTeams
	}
	snaps := append([]model.Snapshot(nil), baselines...)
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].TeamID < snaps[j].TeamID })
	for i, s := range snaps {
		if s.TeamID == "" {
			return nil, ErrMissingTeamID
		}
		if i > 0 && snaps[i-1].TeamID == s.TeamID {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTeam, s.TeamID)
		}
	}

	vectors := b.standardize(snaps)
	clusters, err := b.kmeans(ctx, snaps, vectors)
	if err != nil {
		return nil, err
	}
	clusters = b.merge(ctx, clusters, vectors)

	g := &Grouping{
		Groups: make([]*Group, 0, len(clusters)),
		byTeam: make(map[string]*Group, len(snaps)),
	}
	for _, c := range clusters {
		grp := &Group{
			ID:         c.id,
			Members:    make([]string, 0, len(c.members)),
			Centroid:   c.centroid,
			MergedFrom: c.mergedFrom,
			Stats:      b.groupStats(snaps, c.members),
		}
		for _, m := range c.members {
			grp.Members = append(grp.Members, snaps[m].TeamID)
			g.byTeam[snaps[m].TeamID] = grp
		}
		sort.Strings(grp.Members)
		g.Groups = append(g.Groups, grp)
	}

	metrics.UpdateCohortCount(len(g.Groups))
	b.log.Debug(ctx, "cohorts built",
		logger.Int("teams", len(snaps)),
		logger.Int("cohorts", len(g.Groups)))
	return g, nil
}

// standardize converts every baseline into a vector of portfolio-wide
// z-scores in catalog order. Uncovered indicators sit at the mean (0).
func (b *Builder) standardize(snaps []model.Snapshot) [][]float64 {
	inds := b.registry.All()
	vectors := make([][]float64, len(snaps))
	for i := range vectors {
		vectors[i] = make([]float64, len(inds))
	}
	for j, ind := range inds {
		values := make([]float64, 0, len(snaps))
		for _, s := range snaps {
			if v, ok := s.Value(ind.ID); ok {
				values = append(values, v)
			}
		}
		mean, sd := stats.Mean(values), stats.StdDev(values)
		for i, s := range snaps {
			if v, ok := s.Value(ind.ID); ok {
				vectors[i][j] = stats.ZScore(v, mean, sd)
			}
		}
	}
	return vectors
}

// profileIndex is the direction-adjusted weighted baseline index used to
// seed the clustering.
func (b *Builder) profileIndex(vec []float64) float64 {
	idx := 0.0
	for j, ind := range b.registry.All() {
		idx += ind.Weight * ind.Direction() * vec[j]
	}
	return idx
}

// kmeans runs a deterministic Lloyd's algorithm. Initial centroids are the
// teams at evenly spaced quantiles of the profile index.
func (b *Builder) kmeans(ctx context.Context, snaps []model.Snapshot, vectors [][]float64) ([]*cluster, error) {
	n := len(snaps)
	k := b.groupCount
	if k > n {
		k = n
	}

	order := make([]int, n)
	index := make([]float64, n)
	for i := range order {
		order[i] = i
		index[i] = b.profileIndex(vectors[i])
	}
	sort.SliceStable(order, func(a, c int) bool {
		if index[order[a]] != index[order[c]] {
			return index[order[a]] < index[order[c]]
		}
		return snaps[order[a]].TeamID < snaps[order[c]].TeamID
	})

	centroids := make([][]float64, k)
	for c := 0; c < k; c++ {
		pos := (2*c + 1) * n / (2 * k)
		centroids[c] = append([]float64(nil), vectors[order[pos]]...)
	}

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	for iter := 0; iter < b.maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		changed := false
		for i, v := range vectors {
			best := nearest(v, centroids, -1)
			if best != assign[i] {
				assign[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}
		for c := range centroids {
			members := membersOf(assign, c)
			if len(members) > 0 {
				centroids[c] = meanVector(vectors, members)
			}
		}
	}

	clusters := make([]*cluster, 0, k)
	for c := range centroids {
		members := membersOf(assign, c)
		if len(members) == 0 {
			continue
		}
		clusters = append(clusters, &cluster{id: c, members: members, centroid: meanVector(vectors, members)})
	}
	return clusters, nil
}

// merge folds the smallest undersized cohort into its nearest neighbour until
// every cohort meets the minimum or a single cohort remains.
func (b *Builder) merge(ctx context.Context, clusters []*cluster, vectors [][]float64) []*cluster {
	for len(clusters) > 1 {
		small := -1
		for i, c := range clusters {
			if len(c.members) >= b.minSize {
				continue
			}
			if small < 0 || len(c.members) < len(clusters[small].members) {
				small = i
			}
		}
		if small < 0 {
			break
		}

		others := make([][]float64, len(clusters))
		for i, c := range clusters {
			others[i] = c.centroid
		}
		target := nearest(clusters[small].centroid, others, small)
		src, dst := clusters[small], clusters[target]

		dst.members = append(dst.members, src.members...)
		sort.Ints(dst.members)
		dst.centroid = meanVector(vectors, dst.members)
		dst.mergedFrom = append(dst.mergedFrom, src.id)
		dst.mergedFrom = append(dst.mergedFrom, src.mergedFrom...)
		sort.Ints(dst.mergedFrom)
		clusters = append(clusters[:small], clusters[small+1:]...)

		metrics.RecordCohortMerge()
		b.log.Debug(ctx, "merged undersized cohort",
			logger.Int("from", src.id),
			logger.Int("into", dst.id),
			logger.Int("size", len(dst.members)))
	}
	return clusters
}

// groupStats computes per-indicator population statistics over the members
// whose own baseline covers the indicator.
func (b *Builder) groupStats(snaps []model.Snapshot, members []int) map[string]IndicatorStats {
	out := make(map[string]IndicatorStats, b.registry.Len())
	for _, ind := range b.registry.All() {
		values := make([]float64, 0, len(members))
		for _, m := range members {
			if v, ok := snaps[m].Value(ind.ID); ok {
				values = append(values, v)
			}
		}
		out[ind.ID] = IndicatorStats{
			Mean:   stats.Mean(values),
			StdDev: stats.StdDev(values),
			N:      len(values),
		}
	}
	return out
}

// nearest returns the index of the closest centroid, skipping index skip.
// Ties go to the lower index.
func nearest(v []float64, centroids [][]float64, skip int) int {
	best, bestDist := -1, math.Inf(1)
	for c, centroid := range centroids {
		if c == skip {
			continue
		}
		d := sqDistance(v, centroid)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func sqDistance(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		x := a[i] - b[i]
		d += x * x
	}
	return d
}

func membersOf(assign []int, c int) []int {
	var out []int
	for i, a := range assign {
		if a == c {
			out = append(out, i)
		}
	}
	return out
}

func meanVector(vectors [][]float64, members []int) []float64 {
	out := make([]float64, len(vectors[members[0]]))
	for _, m := range members {
		for j, x := range vectors[m] {
			out[j] += x
		}
	}
	for j := range out {
		out[j] /= float64(len(members))
	}
	return out
}
