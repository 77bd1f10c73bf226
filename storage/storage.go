package storage

import (
	"time"

	"openfahrplan.dev/transit/model"
)

// Storage holds parsed GTFS feeds, keyed by feed name. A feed is
// written once by the parser and read back whenever a router is
// built. Backends: memory, SQLite, Postgres.
type Storage interface {
	// Retrieves metadata for all stored feeds, most recently
	// retrieved first.
	ListFeeds() ([]*FeedMetadata, error)

	// Writes a FeedMetadata record. A record with the same name
	// is replaced.
	WriteFeedMetadata(metadata *FeedMetadata) error

	// Gets a reader for the feed with the given name.
	GetReader(name string) (FeedReader, error)

	// Gets a writer for the feed with the given name. Any
	// existing feed data under that name is discarded.
	GetWriter(name string) (FeedWriter, error)
}

// Metadata for a parsed feed. The table data is accessed via
// FeedReader.
type FeedMetadata struct {
	Name        string
	RetrievedAt time.Time

	// Largest departure_time literal seen in stop_times, as
	// HH:MM:SS. Can exceed 24:00:00.
	MaxDeparture string
}

// Writes GTFS records for a single feed.
//
// As stop_times.txt tends to be very large, BeginStopTimes() and
// EndStopTimes() are called before and after all calls to
// WriteStopTime(), allowing transactions/batching/whathaveyou.
type FeedWriter interface {
	WriteStop(stop model.Stop) error
	WriteRoute(route model.Route) error
	WriteTrip(trip model.Trip) error
	WriteStopTime(stopTime model.StopTime) error
	BeginStopTimes() error
	EndStopTimes() error
	WriteTransfer(transfer model.Transfer) error
	Close() error
}

// Reads back the tables of a single feed. All methods return full
// tables; joins and indexing happen downstream in the feed container
// and the router index.
type FeedReader interface {
	// Stops in the order they appeared in stops.txt. The order
	// matters: dense stop indices in the router are assigned from
	// it.
	Stops() ([]model.Stop, error)

	Routes() ([]model.Route, error)
	Trips() ([]model.Trip, error)

	// Stop times ordered by (trip_id, stop_sequence).
	StopTimes() ([]model.StopTime, error)

	Transfers() ([]model.Transfer, error)

	// Stops near lat/lon, ordered by distance. At most limit
	// results (pass 0 for no limit.) Stations are returned when
	// available; stops lacking a parent_station are also
	// included, to accommodate feeds without stations.
	NearbyStops(lat float64, lon float64, limit int) ([]model.Stop, error)
}
