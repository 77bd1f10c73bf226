package storage

import (
	"sort"

	"github.com/pkg/errors"

	"openfahrplan.dev/transit/model"
)

// In memory implementation of Storage below

type MemoryStorage struct {
	Feeds    map[string]*MemoryFeed
	Metadata map[string]*FeedMetadata
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		Feeds:    map[string]*MemoryFeed{},
		Metadata: map[string]*FeedMetadata{},
	}
}

func (s *MemoryStorage) ListFeeds() ([]*FeedMetadata, error) {
	feeds := []*FeedMetadata{}
	for _, metadata := range s.Metadata {
		feeds = append(feeds, metadata)
	}
	sort.Slice(feeds, func(i, j int) bool {
		return feeds[i].RetrievedAt.After(feeds[j].RetrievedAt)
	})
	return feeds, nil
}

func (s *MemoryStorage) WriteFeedMetadata(metadata *FeedMetadata) error {
	s.Metadata[metadata.Name] = metadata
	return nil
}

func (s *MemoryStorage) GetReader(name string) (FeedReader, error) {
	f, ok := s.Feeds[name]
	if !ok {
		return nil, errors.Errorf("feed %s not found", name)
	}
	return f, nil
}

func (s *MemoryStorage) GetWriter(name string) (FeedWriter, error) {
	f := &MemoryFeed{}
	s.Feeds[name] = f
	return f, nil
}

// A single feed's tables, held as plain slices.
type MemoryFeed struct {
	stops     []model.Stop
	routes    []model.Route
	trips     []model.Trip
	stopTimes []model.StopTime
	transfers []model.Transfer
}

func (f *MemoryFeed) WriteStop(stop model.Stop) error {
	f.stops = append(f.stops, stop)
	return nil
}

func (f *MemoryFeed) WriteRoute(route model.Route) error {
	f.routes = append(f.routes, route)
	return nil
}

func (f *MemoryFeed) WriteTrip(trip model.Trip) error {
	f.trips = append(f.trips, trip)
	return nil
}

func (f *MemoryFeed) BeginStopTimes() error {
	return nil
}

func (f *MemoryFeed) WriteStopTime(stopTime model.StopTime) error {
	f.stopTimes = append(f.stopTimes, stopTime)
	return nil
}

func (f *MemoryFeed) EndStopTimes() error {
	sort.SliceStable(f.stopTimes, func(i, j int) bool {
		if f.stopTimes[i].TripID != f.stopTimes[j].TripID {
			return f.stopTimes[i].TripID < f.stopTimes[j].TripID
		}
		return f.stopTimes[i].StopSequence < f.stopTimes[j].StopSequence
	})
	return nil
}

func (f *MemoryFeed) WriteTransfer(transfer model.Transfer) error {
	f.transfers = append(f.transfers, transfer)
	return nil
}

func (f *MemoryFeed) Close() error {
	return nil
}

func (f *MemoryFeed) Stops() ([]model.Stop, error) {
	return append([]model.Stop{}, f.stops...), nil
}

func (f *MemoryFeed) Routes() ([]model.Route, error) {
	return append([]model.Route{}, f.routes...), nil
}

func (f *MemoryFeed) Trips() ([]model.Trip, error) {
	return append([]model.Trip{}, f.trips...), nil
}

func (f *MemoryFeed) StopTimes() ([]model.StopTime, error) {
	return append([]model.StopTime{}, f.stopTimes...), nil
}

func (f *MemoryFeed) Transfers() ([]model.Transfer, error) {
	return append([]model.Transfer{}, f.transfers...), nil
}

func (f *MemoryFeed) NearbyStops(lat float64, lon float64, limit int) ([]model.Stop, error) {
	nearby := []model.Stop{}
	for _, stop := range f.stops {
		if stop.LocationType == model.LocationTypeStation {
			nearby = append(nearby, stop)
		} else if stop.LocationType == model.LocationTypeStop && stop.ParentStation == "" {
			nearby = append(nearby, stop)
		}
	}
	return nearbySort(nearby, lat, lon, limit), nil
}
