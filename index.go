package transit

import (
	"log/slog"
	"sort"

	"openfahrplan.dev/transit/gtfstime"
	"openfahrplan.dev/transit/model"
)

// tripSchedule is one trip's stop events as parallel arrays, ordered
// by stop_sequence. Stop indices are dense, times are seconds.
type tripSchedule struct {
	stops []int32
	arr   []int64
	dep   []int64
}

// stopEvent is one boardable departure at a stop: the trip and the
// position within it. Only a trip's first visit to a stop is
// recorded; a loop revisiting the stop can't be boarded there again.
type stopEvent struct {
	dep    int64
	tripID string
	pos    int32
}

type footEdge struct {
	to   int32
	secs int64
}

// RaptorIndex is the precomputed routing structure: dense stop
// indices, per-trip schedules, per-stop departure event arrays for
// binary search, and the footpath adjacency list. Built once, then
// read-only; concurrent queries share it freely.
type RaptorIndex struct {
	stopIDs []string
	stopIdx map[string]int32
	trips   map[string]*tripSchedule
	events  [][]stopEvent
	foot    [][]footEdge
}

// NumStops returns the size of the dense stop index space.
func (ix *RaptorIndex) NumStops() int {
	return len(ix.stopIDs)
}

// StopID maps a dense stop index back to its external id.
func (ix *RaptorIndex) StopID(i int32) string {
	return ix.stopIDs[i]
}

// BuildIndex precomputes the RaptorIndex for a feed. Stop events
// with unparseable times are dropped (and counted); trips left with
// fewer than two events are dropped entirely. Transfers of type 3
// are excluded from the foot graph; every stop gets a zero-cost
// self-loop.
func BuildIndex(feed *Feed) *RaptorIndex {
	// Dense indices cover every stop from the stops table, in
	// table order, whether or not any trip serves it.
	nstops := len(feed.Stops)
	ix := &RaptorIndex{
		stopIDs: make([]string, nstops),
		stopIdx: make(map[string]int32, nstops),
		trips:   map[string]*tripSchedule{},
		events:  make([][]stopEvent, nstops),
		foot:    make([][]footEdge, nstops),
	}
	for i, stop := range feed.Stops {
		ix.stopIDs[i] = stop.ID
		ix.stopIdx[stop.ID] = int32(i)
	}

	// Group stop events by trip; order within a trip comes from
	// stop_sequence, not from reader order.
	byTrip := map[string][]model.StopTime{}
	for _, st := range feed.StopTimes {
		byTrip[st.TripID] = append(byTrip[st.TripID], st)
	}

	droppedEvents := 0
	droppedTrips := 0
	for tripID, events := range byTrip {
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].StopSequence < events[j].StopSequence
		})

		schedule := &tripSchedule{}
		for _, ev := range events {
			arr := gtfstime.Seconds(ev.Arrival)
			dep := gtfstime.Seconds(ev.Departure)
			if arr == gtfstime.Infinity || dep == gtfstime.Infinity {
				droppedEvents++
				continue
			}
			si, ok := ix.stopIdx[ev.StopID]
			if !ok {
				droppedEvents++
				continue
			}
			schedule.stops = append(schedule.stops, si)
			schedule.arr = append(schedule.arr, arr)
			schedule.dep = append(schedule.dep, dep)
		}

		// A trip needs at least a boarding and an alighting.
		if len(schedule.stops) < 2 {
			droppedTrips++
			continue
		}
		ix.trips[tripID] = schedule
	}

	// Per-stop departure events, first occurrence per trip only.
	for tripID, schedule := range ix.trips {
		seen := map[int32]bool{}
		for pos, si := range schedule.stops {
			if seen[si] {
				continue
			}
			seen[si] = true
			ix.events[si] = append(ix.events[si], stopEvent{
				dep:    schedule.dep[pos],
				tripID: tripID,
				pos:    int32(pos),
			})
		}
	}
	for si := range ix.events {
		events := ix.events[si]
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].dep != events[j].dep {
				return events[i].dep < events[j].dep
			}
			return events[i].tripID < events[j].tripID
		})
	}

	// Foot graph: reflexive, then transfers.txt minus "no
	// transfer" rows. Not required to be symmetric.
	for si := range ix.foot {
		ix.foot[si] = append(ix.foot[si], footEdge{to: int32(si), secs: 0})
	}
	droppedTransfers := 0
	for _, tr := range feed.Transfers {
		if tr.Type == model.TransferTypeNotPossible {
			continue
		}
		from, okFrom := ix.stopIdx[tr.FromStopID]
		to, okTo := ix.stopIdx[tr.ToStopID]
		if !okFrom || !okTo || tr.MinTransferTime < 0 {
			droppedTransfers++
			continue
		}
		ix.foot[from] = append(ix.foot[from], footEdge{to: to, secs: tr.MinTransferTime})
	}

	if droppedEvents > 0 || droppedTrips > 0 || droppedTransfers > 0 {
		slog.Info("raptor index built with drops",
			"events", droppedEvents,
			"trips", droppedTrips,
			"transfers", droppedTransfers,
		)
	}

	return ix
}
