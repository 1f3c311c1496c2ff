// Package oracle implements a distance oracle: direct and multi-hop
// shortest-path lookups between locations, owned exclusively by one run.
package oracle

import (
	"container/heap"

	"github.com/fleetsim/optimizer/pkg/domain"
)

// MaxHops bounds the Dijkstra search so a single lookup can never walk the
// whole graph.
const MaxHops = 3

type edgeKey struct {
	from, to int
}

// Oracle answers relation lookups between locations, using direct relations
// first and falling back to a capped multi-hop search. Every Oracle is
// created fresh for one run; its cache must never be shared across runs.
type Oracle struct {
	direct         map[edgeKey]domain.Relation
	adjacency      map[int][]domain.Relation
	usePathfinding bool

	cache map[edgeKey]lookupResult
}

type lookupResult struct {
	relation domain.Relation
	ok       bool
}

// New builds an Oracle from the loaded relations. usePathfinding controls
// whether step (2) of the lookup algorithm (multi-hop Dijkstra) runs at all;
// disabling it is the performance.use_pathfinding configuration switch.
func New(relations []domain.Relation, usePathfinding bool) *Oracle {
	o := &Oracle{
		direct:         make(map[edgeKey]domain.Relation, len(relations)*2),
		adjacency:      make(map[int][]domain.Relation),
		usePathfinding: usePathfinding,
		cache:          make(map[edgeKey]lookupResult),
	}
	for _, r := range relations {
		o.direct[edgeKey{r.FromID, r.ToID}] = r
		o.adjacency[r.FromID] = append(o.adjacency[r.FromID], r)
		o.adjacency[r.ToID] = append(o.adjacency[r.ToID], domain.Relation{
			ID:            r.ID,
			FromID:        r.ToID,
			ToID:          r.FromID,
			DistanceKM:    r.DistanceKM,
			TravelMinutes: r.TravelMinutes,
		})
	}
	return o
}

// ClearCache drops all cached lookups. Called once at the start of a run
// that reuses an Oracle instance across repeated invocations (there is
// normally no reason to do this mid-run, since an Oracle is per-run, but the
// method exists so a long-lived process can recycle one Oracle across
// sequential runs without retaining stale cache entries).
func (o *Oracle) ClearCache() {
	o.cache = make(map[edgeKey]lookupResult)
}

// Lookup returns the relation between from and to, checking direct edges,
// then the reverse direction, then (if enabled) a capped multi-hop search.
func (o *Oracle) Lookup(from, to int) (domain.Relation, bool) {
	if from == to {
		return domain.IdentityRelation(from), true
	}

	key := edgeKey{from, to}
	if cached, found := o.cache[key]; found {
		return cached.relation, cached.ok
	}

	if r, ok := o.direct[key]; ok {
		o.cache[key] = lookupResult{r, true}
		return r, true
	}
	if r, ok := o.direct[edgeKey{to, from}]; ok {
		reversed := domain.Relation{ID: r.ID, FromID: from, ToID: to, DistanceKM: r.DistanceKM, TravelMinutes: r.TravelMinutes}
		o.cache[key] = lookupResult{reversed, true}
		return reversed, true
	}

	if !o.usePathfinding {
		o.cache[key] = lookupResult{ok: false}
		return domain.Relation{}, false
	}

	r, ok := o.dijkstra(from, to)
	o.cache[key] = lookupResult{r, ok}
	return r, ok
}

type pqItem struct {
	node        int
	totalMin    float64
	totalDistKM float64
	hops        int
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].totalMin != pq[j].totalMin {
		return pq[i].totalMin < pq[j].totalMin
	}
	return pq[i].totalDistKM < pq[j].totalDistKM
}
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// dijkstra finds the minimum-travel-time path from `from` to `to` within
// MaxHops edges, returning a synthetic relation summing distance and time
// along the path.
func (o *Oracle) dijkstra(from, to int) (domain.Relation, bool) {
	pq := &priorityQueue{{node: from, totalMin: 0, totalDistKM: 0, hops: 0}}
	heap.Init(pq)

	best := make(map[int]float64)
	best[from] = 0

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)

		if cur.node == to {
			return domain.Relation{
				FromID:        from,
				ToID:          to,
				DistanceKM:    cur.totalDistKM,
				TravelMinutes: cur.totalMin,
				Synthetic:     true,
			}, true
		}

		if cur.hops >= MaxHops {
			continue
		}
		if known, ok := best[cur.node]; ok && cur.totalMin > known {
			continue
		}

		for _, edge := range o.adjacency[cur.node] {
			nextMin := cur.totalMin + edge.TravelMinutes
			nextDist := cur.totalDistKM + edge.DistanceKM
			if known, ok := best[edge.ToID]; ok && nextMin >= known {
				continue
			}
			best[edge.ToID] = nextMin
			heap.Push(pq, pqItem{node: edge.ToID, totalMin: nextMin, totalDistKM: nextDist, hops: cur.hops + 1})
		}
	}

	return domain.Relation{}, false
}
