package transit

import (
	"container/heap"
	"sort"

	"openfahrplan.dev/transit/gtfstime"
)

// DefaultMaxRounds bounds the number of boardings per journey.
const DefaultMaxRounds = 8

// Router answers earliest-arrival queries over a feed. The index is
// built once; afterwards the Router is read-only and any number of
// queries may run concurrently, each with its own per-query state.
type Router struct {
	feed  *Feed
	index *RaptorIndex
}

func NewRouter(feed *Feed) *Router {
	return &Router{
		feed:  feed,
		index: BuildIndex(feed),
	}
}

func (r *Router) Feed() *Feed {
	return r.feed
}

func (r *Router) Index() *RaptorIndex {
	return r.index
}

// Connection computes the earliest-arrival journey from fromID to
// toID departing at or after departure (seconds since midnight).
// Returns nil when either stop is unknown or no path exists within
// maxRounds boardings; it never fails any other way.
func (r *Router) Connection(fromID, toID string, departure int64, maxRounds int) *Journey {
	return r.index.Route(fromID, toID, departure, maxRounds)
}

// ConnectionAt is Connection with an HH:MM:SS departure literal. A
// bad literal yields no result.
func (r *Router) ConnectionAt(fromID, toID, departure string, maxRounds int) *Journey {
	sec := gtfstime.Seconds(departure)
	if sec == gtfstime.Infinity {
		return nil
	}
	return r.Connection(fromID, toID, sec, maxRounds)
}

// A vehicle departing from a stop.
type Departure struct {
	StopID  string
	TripID  string
	RouteID string
	Time    int64
}

// Departures lists boardable departures from a stop at or after the
// given time, soonest first. The final stop of a trip is not a
// departure. At most limit results (pass 0 for no limit).
func (r *Router) Departures(stopID string, after int64, limit int) []Departure {
	si, ok := r.index.stopIdx[stopID]
	if !ok {
		return nil
	}

	events := r.index.events[si]
	pos := sort.Search(len(events), func(k int) bool { return events[k].dep >= after })

	departures := []Departure{}
	for k := pos; k < len(events); k++ {
		ev := events[k]
		schedule := r.index.trips[ev.tripID]
		if int(ev.pos) == len(schedule.stops)-1 {
			continue
		}

		routeID := ""
		if trip, ok := r.feed.TripByID(ev.tripID); ok {
			routeID = trip.RouteID
		}

		departures = append(departures, Departure{
			StopID:  stopID,
			TripID:  ev.tripID,
			RouteID: routeID,
			Time:    ev.dep,
		})
		if limit > 0 && len(departures) == limit {
			break
		}
	}

	return departures
}

// parentEdge records how a stop was reached within a round. An empty
// tripID marks a footpath edge.
type parentEdge struct {
	prev   int32
	tripID string
}

// Route runs the round-based earliest-arrival search. departure is
// seconds since midnight; maxRounds <= 0 selects DefaultMaxRounds.
func (ix *RaptorIndex) Route(fromID, toID string, departure int64, maxRounds int) *Journey {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	n := len(ix.stopIDs)
	if n == 0 {
		return nil
	}
	source, ok := ix.stopIdx[fromID]
	if !ok {
		return nil
	}
	target, ok := ix.stopIdx[toID]
	if !ok {
		return nil
	}
	if departure < 0 || departure == gtfstime.Infinity {
		return nil
	}

	bestPrev := make([]int64, n)
	for i := range bestPrev {
		bestPrev[i] = gtfstime.Infinity
	}
	bestPrev[source] = departure

	parents := make([]map[int32]parentEdge, maxRounds+1)
	for i := range parents {
		parents[i] = map[int32]parentEdge{}
	}

	// Initial walk from the origin. Its predecessors live in
	// round 1; a trip edge assigned there later takes precedence.
	marked, pred := ix.relaxFootpaths(bestPrev, []int32{source})
	for v, u := range pred {
		parents[1][v] = parentEdge{prev: u}
	}

	for round := 1; round <= maxRounds; round++ {
		bestCur := make([]int64, n)
		copy(bestCur, bestPrev)

		// Collect the earliest boardable position per trip
		// across all marked stops.
		queue := map[string]int32{}
		for _, si := range marked {
			arrived := bestPrev[si]
			events := ix.events[si]
			if len(events) == 0 || arrived == gtfstime.Infinity {
				continue
			}
			pos := sort.Search(len(events), func(k int) bool {
				return events[k].dep >= arrived
			})
			for k := pos; k < len(events); k++ {
				ev := events[k]
				if j, seen := queue[ev.tripID]; !seen || ev.pos < j {
					queue[ev.tripID] = ev.pos
				}
			}
		}

		if len(queue) == 0 {
			break
		}

		// Trips run in sorted id order so equal-time ties
		// resolve the same way on every run.
		tripIDs := make([]string, 0, len(queue))
		for tripID := range queue {
			tripIDs = append(tripIDs, tripID)
		}
		sort.Strings(tripIDs)

		newMarked := []int32{}
		markedSet := map[int32]bool{}
		for _, tripID := range tripIDs {
			schedule := ix.trips[tripID]
			j := queue[tripID]
			prev := schedule.stops[j]
			for k := int(j) + 1; k < len(schedule.stops); k++ {
				v := schedule.stops[k]
				if arr := schedule.arr[k]; arr < bestCur[v] {
					bestCur[v] = arr
					parents[round][v] = parentEdge{prev: prev, tripID: tripID}
					if !markedSet[v] {
						markedSet[v] = true
						newMarked = append(newMarked, v)
					}
				}
				prev = v
			}
		}

		if len(newMarked) == 0 {
			bestPrev = bestCur
			break
		}
		sort.Slice(newMarked, func(i, j int) bool { return newMarked[i] < newMarked[j] })

		// Footpaths from the improved set. A footpath edge never
		// replaces a trip edge recorded this round.
		fpImproved, fpPred := ix.relaxFootpaths(bestCur, newMarked)
		for _, v := range fpImproved {
			if markedSet[v] {
				continue
			}
			u, relaxed := fpPred[v]
			if !relaxed {
				continue
			}
			if _, taken := parents[round][v]; !taken {
				parents[round][v] = parentEdge{prev: u}
			}
		}

		// Rounds keep running until nothing improves. Stopping
		// at the first round that labels the target can miss a
		// faster arrival using one more boarding.
		bestPrev = bestCur
		marked = fpImproved
	}

	if bestPrev[target] == gtfstime.Infinity {
		return nil
	}

	return ix.reconstruct(source, target, bestPrev, parents, maxRounds)
}

// relaxFootpaths runs Dijkstra over the foot graph seeded with the
// given stops, keyed by arrival time. best is updated in place.
// Returns the settled stops (ascending) and the predecessor of every
// stop that a footpath improved.
func (ix *RaptorIndex) relaxFootpaths(best []int64, seeds []int32) ([]int32, map[int32]int32) {
	pq := &footQueue{}
	pred := map[int32]int32{}
	settled := map[int32]bool{}

	for _, u := range seeds {
		if best[u] < gtfstime.Infinity {
			heap.Push(pq, footLabel{time: best[u], stop: u})
		}
	}

	for pq.Len() > 0 {
		label := heap.Pop(pq).(footLabel)
		if label.time > best[label.stop] {
			continue
		}
		settled[label.stop] = true
		for _, edge := range ix.foot[label.stop] {
			t := label.time + edge.secs
			if t < best[edge.to] {
				best[edge.to] = t
				pred[edge.to] = label.stop
				heap.Push(pq, footLabel{time: t, stop: edge.to})
			}
		}
	}

	improved := make([]int32, 0, len(settled))
	for u := range settled {
		improved = append(improved, u)
	}
	sort.Slice(improved, func(i, j int) bool { return improved[i] < improved[j] })

	return improved, pred
}

// reconstruct walks the parent maps back from the target, starting
// at the highest round that reached it. A round without an entry for
// the current stop means the label was carried from an earlier
// round. The walk is step-bounded; running out of rounds or steps
// without reaching the origin yields no result.
func (ix *RaptorIndex) reconstruct(source, target int32, bestPrev []int64, parents []map[int32]parentEdge, maxRounds int) *Journey {
	round := 0
	for rr := maxRounds; rr >= 1; rr-- {
		if _, ok := parents[rr][target]; ok {
			round = rr
			break
		}
	}

	stops := []int32{target}
	legs := []Leg{}
	cur := target
	maxSteps := len(ix.stopIDs) * (maxRounds + 1)

	for steps := 0; cur != source && round > 0; steps++ {
		if steps > maxSteps {
			return nil
		}
		edge, ok := parents[round][cur]
		if !ok {
			round--
			continue
		}

		if edge.tripID == "" {
			legs = append(legs, Leg{
				Kind: LegWalk,
				Walk: bestPrev[cur] - bestPrev[edge.prev],
				From: ix.stopIDs[edge.prev],
				To:   ix.stopIDs[cur],
			})
		} else {
			legs = append(legs, Leg{
				Kind:   LegTrip,
				TripID: edge.tripID,
				From:   ix.stopIDs[edge.prev],
				To:     ix.stopIDs[cur],
			})
		}

		stops = append(stops, edge.prev)
		cur = edge.prev
		if _, ok := parents[round][cur]; !ok {
			round--
		}
	}

	if cur != source {
		return nil
	}

	// Reverse into origin..destination order.
	for i, j := 0, len(legs)-1; i < j; i, j = i+1, j-1 {
		legs[i], legs[j] = legs[j], legs[i]
	}
	for i, j := 0, len(stops)-1; i < j; i, j = i+1, j-1 {
		stops[i], stops[j] = stops[j], stops[i]
	}

	stopIDs := make([]string, len(stops))
	for i, si := range stops {
		stopIDs[i] = ix.stopIDs[si]
	}

	return &Journey{
		Stops:   stopIDs,
		Legs:    mergeWalkLegs(legs),
		Arrival: bestPrev[target],
	}
}

type footLabel struct {
	time int64
	stop int32
}

type footQueue []footLabel

func (q footQueue) Len() int { return len(q) }

func (q footQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	return q[i].stop < q[j].stop
}

func (q footQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *footQueue) Push(x any) {
	*q = append(*q, x.(footLabel))
}

func (q *footQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
