package storage

import (
	"database/sql"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"openfahrplan.dev/transit/model"
)

type SQLiteConfig struct {
	OnDisk    bool
	Directory string
}

type SQLiteStorage struct {
	SQLiteConfig

	feedDB *sql.DB
	feeds  map[string]*sql.DB
}

type SQLiteFeedWriter struct {
	db                  *sql.DB
	stopSeq             int
	stopTimeInsertQuery *sql.Stmt
	stopTimeInsertTx    *sql.Tx
}

type SQLiteFeedReader struct {
	db *sql.DB
}

func NewSQLiteStorage(cfg ...SQLiteConfig) (*SQLiteStorage, error) {
	onDisk := false
	directory := ""
	if len(cfg) > 0 {
		onDisk = cfg[0].OnDisk
		directory = cfg[0].Directory
	}

	sourceName := ":memory:"
	if onDisk {
		sourceName = directory + "/feeds.db"
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS feed (
    name TEXT NOT NULL,
    retrieved_at TIMESTAMP NOT NULL,
    max_departure TEXT NOT NULL,
PRIMARY KEY (name)
);`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating feed table")
	}

	return &SQLiteStorage{
		SQLiteConfig: SQLiteConfig{
			OnDisk:    onDisk,
			Directory: directory,
		},
		feedDB: db,
		feeds:  map[string]*sql.DB{},
	}, nil
}

func (s *SQLiteStorage) ListFeeds() ([]*FeedMetadata, error) {
	rows, err := s.feedDB.Query(`
SELECT name, retrieved_at, max_departure
FROM feed
ORDER BY retrieved_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying feeds")
	}
	defer rows.Close()

	feeds := []*FeedMetadata{}
	for rows.Next() {
		metadata := &FeedMetadata{}
		err = rows.Scan(&metadata.Name, &metadata.RetrievedAt, &metadata.MaxDeparture)
		if err != nil {
			return nil, errors.Wrap(err, "scanning feed")
		}
		feeds = append(feeds, metadata)
	}

	return feeds, rows.Err()
}

func (s *SQLiteStorage) WriteFeedMetadata(metadata *FeedMetadata) error {
	_, err := s.feedDB.Exec(`
INSERT INTO feed (name, retrieved_at, max_departure)
VALUES (?, ?, ?)
ON CONFLICT (name) DO UPDATE SET
    retrieved_at = excluded.retrieved_at,
    max_departure = excluded.max_departure
`,
		metadata.Name,
		metadata.RetrievedAt,
		metadata.MaxDeparture,
	)
	if err != nil {
		return errors.Wrap(err, "writing feed metadata")
	}
	return nil
}

func (s *SQLiteStorage) GetReader(name string) (FeedReader, error) {
	db, found := s.feeds[name]
	if found {
		return &SQLiteFeedReader{db: db}, nil
	}
	if !s.OnDisk {
		return nil, errors.Errorf("feed %s does not exist", name)
	}

	sourceName := s.Directory + "/" + name + ".db"
	if _, err := os.Stat(sourceName); os.IsNotExist(err) {
		return nil, errors.Errorf("feed %s does not exist at %s", name, sourceName)
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	s.feeds[name] = db

	return &SQLiteFeedReader{db: db}, nil
}

func (s *SQLiteStorage) GetWriter(name string) (FeedWriter, error) {
	sourceName := ":memory:"
	if s.OnDisk {
		sourceName = s.Directory + "/" + name + ".db"
		// delete file if it exists
		if _, err := os.Stat(sourceName); err == nil {
			err := os.Remove(sourceName)
			if err != nil {
				return nil, errors.Wrap(err, "removing existing database")
			}
		}
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	for name, query := range map[string]string{
		"stops": `
CREATE TABLE stops (
    id TEXT PRIMARY KEY,
    seq INTEGER NOT NULL,
    code TEXT,
    name TEXT NOT NULL,
    lat REAL NOT NULL,
    lon REAL NOT NULL,
    location_type INTEGER NOT NULL,
    parent_station TEXT,
    platform_code TEXT
);
CREATE INDEX stops_parent_station ON stops (parent_station);
`,
		"routes": `
CREATE TABLE routes (
    id TEXT PRIMARY KEY,
    short_name TEXT,
    long_name TEXT,
    type INTEGER NOT NULL,
    color TEXT,
    text_color TEXT
);`,
		"trips": `
CREATE TABLE trips (
    id TEXT PRIMARY KEY,
    route_id TEXT NOT NULL,
    direction_id INTEGER
);
CREATE INDEX trips_route_id ON trips (route_id);
`,
		"stop_times": `
CREATE TABLE stop_times (
    trip_id TEXT NOT NULL,
    stop_id TEXT NOT NULL,
    stop_sequence INTEGER NOT NULL,
    arrival_time TEXT NOT NULL,
    departure_time TEXT NOT NULL
);
CREATE INDEX stop_times_trip_id ON stop_times (trip_id);
CREATE INDEX stop_times_stop_id ON stop_times (stop_id);
`,
		"transfers": `
CREATE TABLE transfers (
    from_stop_id TEXT NOT NULL,
    to_stop_id TEXT NOT NULL,
    transfer_type INTEGER NOT NULL,
    min_transfer_time INTEGER NOT NULL
);`,
	} {
		_, err = db.Exec(query)
		if err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "creating %s table", name)
		}
	}

	s.feeds[name] = db

	return &SQLiteFeedWriter{db: db}, nil
}

func (f *SQLiteFeedWriter) WriteStop(stop model.Stop) error {
	// seq preserves stops.txt order across the round trip
	// through SQL. Dense stop indices depend on it.
	seq := f.stopSeq
	f.stopSeq++
	_, err := f.db.Exec(`
INSERT INTO stops (id, seq, code, name, lat, lon, location_type, parent_station, platform_code)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stop.ID,
		seq,
		stop.Code,
		stop.Name,
		stop.Lat,
		stop.Lon,
		stop.LocationType,
		stop.ParentStation,
		stop.PlatformCode,
	)
	if err != nil {
		return errors.Wrap(err, "inserting stop")
	}
	return nil
}

func (f *SQLiteFeedWriter) WriteRoute(route model.Route) error {
	_, err := f.db.Exec(`
INSERT INTO routes (id, short_name, long_name, type, color, text_color)
VALUES (?, ?, ?, ?, ?, ?)`,
		route.ID,
		route.ShortName,
		route.LongName,
		route.Type,
		route.Color,
		route.TextColor,
	)
	if err != nil {
		return errors.Wrap(err, "inserting route")
	}
	return nil
}

func (f *SQLiteFeedWriter) WriteTrip(trip model.Trip) error {
	_, err := f.db.Exec(`
INSERT INTO trips (id, route_id, direction_id)
VALUES (?, ?, ?)`,
		trip.ID,
		trip.RouteID,
		trip.DirectionID,
	)
	if err != nil {
		return errors.Wrap(err, "inserting trip")
	}
	return nil
}

func (f *SQLiteFeedWriter) BeginStopTimes() error {
	// transaction with prepared statement.
	var err error
	f.stopTimeInsertTx, err = f.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning stop_time insert transaction")
	}

	f.stopTimeInsertQuery, err = f.stopTimeInsertTx.Prepare(`
INSERT INTO stop_times (trip_id, stop_id, stop_sequence, arrival_time, departure_time)
VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		f.stopTimeInsertTx.Rollback()
		f.stopTimeInsertTx = nil
		return errors.Wrap(err, "preparing stop_time insert")
	}

	return nil
}

func (f *SQLiteFeedWriter) WriteStopTime(stopTime model.StopTime) error {
	_, err := f.stopTimeInsertQuery.Exec(
		stopTime.TripID,
		stopTime.StopID,
		stopTime.StopSequence,
		stopTime.Arrival,
		stopTime.Departure,
	)
	if err != nil {
		f.stopTimeInsertQuery.Close()
		f.stopTimeInsertTx.Rollback()
		f.stopTimeInsertTx = nil
		f.stopTimeInsertQuery = nil
		return errors.Wrap(err, "inserting stop_time")
	}

	return nil
}

func (f *SQLiteFeedWriter) EndStopTimes() error {
	// commit transaction and clean up
	f.stopTimeInsertQuery.Close()
	err := f.stopTimeInsertTx.Commit()
	if err != nil {
		return errors.Wrap(err, "committing stop_time insert transaction")
	}
	f.stopTimeInsertTx = nil
	f.stopTimeInsertQuery = nil

	return nil
}

func (f *SQLiteFeedWriter) WriteTransfer(transfer model.Transfer) error {
	_, err := f.db.Exec(`
INSERT INTO transfers (from_stop_id, to_stop_id, transfer_type, min_transfer_time)
VALUES (?, ?, ?, ?)`,
		transfer.FromStopID,
		transfer.ToStopID,
		transfer.Type,
		transfer.MinTransferTime,
	)
	if err != nil {
		return errors.Wrap(err, "inserting transfer")
	}
	return nil
}

func (f *SQLiteFeedWriter) Close() error {
	_, err := f.db.Exec(`ANALYZE;`)
	if err != nil {
		f.db.Close()
		return errors.Wrap(err, "analyzing database")
	}

	return nil
}

func (f *SQLiteFeedReader) Stops() ([]model.Stop, error) {
	rows, err := f.db.Query(`
SELECT id, code, name, lat, lon, location_type, parent_station, platform_code
FROM stops
ORDER BY seq ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying stops")
	}
	defer rows.Close()

	stops := []model.Stop{}
	for rows.Next() {
		stop := model.Stop{}
		err = rows.Scan(
			&stop.ID,
			&stop.Code,
			&stop.Name,
			&stop.Lat,
			&stop.Lon,
			&stop.LocationType,
			&stop.ParentStation,
			&stop.PlatformCode,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scanning stop")
		}
		stops = append(stops, stop)
	}

	return stops, rows.Err()
}

func (f *SQLiteFeedReader) Routes() ([]model.Route, error) {
	rows, err := f.db.Query(`
SELECT id, short_name, long_name, type, color, text_color
FROM routes`)
	if err != nil {
		return nil, errors.Wrap(err, "querying routes")
	}
	defer rows.Close()

	routes := []model.Route{}
	for rows.Next() {
		route := model.Route{}
		err = rows.Scan(
			&route.ID,
			&route.ShortName,
			&route.LongName,
			&route.Type,
			&route.Color,
			&route.TextColor,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scanning route")
		}
		routes = append(routes, route)
	}

	return routes, rows.Err()
}

func (f *SQLiteFeedReader) Trips() ([]model.Trip, error) {
	rows, err := f.db.Query(`
SELECT id, route_id, direction_id
FROM trips`)
	if err != nil {
		return nil, errors.Wrap(err, "querying trips")
	}
	defer rows.Close()

	trips := []model.Trip{}
	for rows.Next() {
		trip := model.Trip{}
		err = rows.Scan(&trip.ID, &trip.RouteID, &trip.DirectionID)
		if err != nil {
			return nil, errors.Wrap(err, "scanning trip")
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

func (f *SQLiteFeedReader) StopTimes() ([]model.StopTime, error) {
	rows, err := f.db.Query(`
SELECT trip_id, stop_id, stop_sequence, arrival_time, departure_time
FROM stop_times
ORDER BY trip_id ASC, stop_sequence ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying stop_times")
	}
	defer rows.Close()

	stopTimes := []model.StopTime{}
	for rows.Next() {
		st := model.StopTime{}
		err = rows.Scan(
			&st.TripID,
			&st.StopID,
			&st.StopSequence,
			&st.Arrival,
			&st.Departure,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scanning stop_time")
		}
		stopTimes = append(stopTimes, st)
	}

	return stopTimes, rows.Err()
}

func (f *SQLiteFeedReader) Transfers() ([]model.Transfer, error) {
	rows, err := f.db.Query(`
SELECT from_stop_id, to_stop_id, transfer_type, min_transfer_time
FROM transfers`)
	if err != nil {
		return nil, errors.Wrap(err, "querying transfers")
	}
	defer rows.Close()

	transfers := []model.Transfer{}
	for rows.Next() {
		tr := model.Transfer{}
		err = rows.Scan(&tr.FromStopID, &tr.ToStopID, &tr.Type, &tr.MinTransferTime)
		if err != nil {
			return nil, errors.Wrap(err, "scanning transfer")
		}
		transfers = append(transfers, tr)
	}

	return transfers, rows.Err()
}

func (f *SQLiteFeedReader) NearbyStops(lat float64, lon float64, limit int) ([]model.Stop, error) {
	rows, err := f.db.Query(`
SELECT id, code, name, lat, lon, location_type, parent_station, platform_code
FROM stops
WHERE location_type = 1 OR (location_type = 0 AND parent_station = '')`)
	if err != nil {
		return nil, errors.Wrap(err, "querying nearby stops")
	}
	defer rows.Close()

	stops := []model.Stop{}
	for rows.Next() {
		stop := model.Stop{}
		err = rows.Scan(
			&stop.ID,
			&stop.Code,
			&stop.Name,
			&stop.Lat,
			&stop.Lon,
			&stop.LocationType,
			&stop.ParentStation,
			&stop.PlatformCode,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scanning stop")
		}
		stops = append(stops, stop)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return nearbySort(stops, lat, lon, limit), nil
}
