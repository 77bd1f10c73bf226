package transit

import (
	"errors"
	"fmt"

	"openfahrplan.dev/transit/model"
	"openfahrplan.dev/transit/storage"
)

var (
	// ErrFeedLoad marks feeds that can't serve as a routing base
	// at all: no stops, no usable identifiers. Fatal at startup.
	ErrFeedLoad = errors.New("feed load error")

	// ErrSchema marks malformed table contents. Fatal at startup.
	ErrSchema = errors.New("feed schema error")
)

// Feed holds a parsed GTFS feed as columnar tables. It is read-only
// after construction: queries return fresh values and never mutate
// it, so a single Feed can be shared across goroutines.
type Feed struct {
	Stops     []model.Stop
	Routes    []model.Route
	Trips     []model.Trip
	StopTimes []model.StopTime
	Transfers []model.Transfer

	stopsByID  map[string]int
	routesByID map[string]int
	tripsByID  map[string]int

	reader storage.FeedReader
}

// NewFeed materializes all tables from a FeedReader. The stops table
// must be present, non-empty, and carry stop_id/stop_name values.
func NewFeed(reader storage.FeedReader) (*Feed, error) {
	stops, err := reader.Stops()
	if err != nil {
		return nil, fmt.Errorf("%w: reading stops: %v", ErrFeedLoad, err)
	}
	if len(stops) == 0 {
		return nil, fmt.Errorf("%w: stops table is empty", ErrFeedLoad)
	}

	routes, err := reader.Routes()
	if err != nil {
		return nil, fmt.Errorf("%w: reading routes: %v", ErrFeedLoad, err)
	}
	trips, err := reader.Trips()
	if err != nil {
		return nil, fmt.Errorf("%w: reading trips: %v", ErrFeedLoad, err)
	}
	stopTimes, err := reader.StopTimes()
	if err != nil {
		return nil, fmt.Errorf("%w: reading stop_times: %v", ErrFeedLoad, err)
	}
	transfers, err := reader.Transfers()
	if err != nil {
		return nil, fmt.Errorf("%w: reading transfers: %v", ErrFeedLoad, err)
	}

	feed := &Feed{
		Stops:      stops,
		Routes:     routes,
		Trips:      trips,
		StopTimes:  stopTimes,
		Transfers:  transfers,
		stopsByID:  make(map[string]int, len(stops)),
		routesByID: make(map[string]int, len(routes)),
		tripsByID:  make(map[string]int, len(trips)),
		reader:     reader,
	}

	for i, stop := range stops {
		if stop.ID == "" {
			return nil, fmt.Errorf("%w: stop without stop_id", ErrFeedLoad)
		}
		if stop.Name == "" && stop.LocationType != model.LocationTypeGenericNode && stop.LocationType != model.LocationTypeBoardingArea {
			return nil, fmt.Errorf("%w: stop '%s' without stop_name", ErrSchema, stop.ID)
		}
		if _, dup := feed.stopsByID[stop.ID]; dup {
			return nil, fmt.Errorf("%w: repeated stop_id '%s'", ErrSchema, stop.ID)
		}
		feed.stopsByID[stop.ID] = i
	}
	for i, route := range routes {
		feed.routesByID[route.ID] = i
	}
	for i, trip := range trips {
		feed.tripsByID[trip.ID] = i
	}

	return feed, nil
}

// StopByID returns the stop and whether it exists.
func (f *Feed) StopByID(id string) (model.Stop, bool) {
	i, ok := f.stopsByID[id]
	if !ok {
		return model.Stop{}, false
	}
	return f.Stops[i], true
}

// RouteByID returns the route and whether it exists.
func (f *Feed) RouteByID(id string) (model.Route, bool) {
	i, ok := f.routesByID[id]
	if !ok {
		return model.Route{}, false
	}
	return f.Routes[i], true
}

// TripByID returns the trip and whether it exists.
func (f *Feed) TripByID(id string) (model.Trip, bool) {
	i, ok := f.tripsByID[id]
	if !ok {
		return model.Trip{}, false
	}
	return f.Trips[i], true
}

// RouteForTrip resolves a trip's route.
func (f *Feed) RouteForTrip(tripID string) (model.Route, bool) {
	trip, ok := f.TripByID(tripID)
	if !ok {
		return model.Route{}, false
	}
	return f.RouteByID(trip.RouteID)
}
