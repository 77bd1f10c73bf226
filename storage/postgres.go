package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"openfahrplan.dev/transit/model"
)

type PSQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	ClearDB  bool
}

// Postgres implementation of Storage. All feeds share one database;
// every table carries a feed column.
type PSQLStorage struct {
	db *sql.DB
}

type PSQLFeedWriter struct {
	feed                string
	db                  *sql.DB
	stopSeq             int
	stopTimeInsertQuery *sql.Stmt
	stopTimeInsertTx    *sql.Tx
}

type PSQLFeedReader struct {
	feed string
	db   *sql.DB
}

func NewPSQLStorage(config PSQLConfig) (*PSQLStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		config.Host, config.Port, config.User, config.Password, config.DBName,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	if config.ClearDB {
		_, err = db.Exec(`
DROP TABLE IF EXISTS feed, stops, routes, trips, stop_times, transfers;`)
		if err != nil {
			db.Close()
			return nil, errors.Wrap(err, "clearing database")
		}
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS feed (
    name TEXT PRIMARY KEY,
    retrieved_at TIMESTAMPTZ NOT NULL,
    max_departure TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stops (
    feed TEXT NOT NULL,
    id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    code TEXT,
    name TEXT NOT NULL,
    lat DOUBLE PRECISION NOT NULL,
    lon DOUBLE PRECISION NOT NULL,
    location_type INTEGER NOT NULL,
    parent_station TEXT,
    platform_code TEXT,
PRIMARY KEY (feed, id)
);
CREATE INDEX IF NOT EXISTS stops_parent_station ON stops (feed, parent_station);

CREATE TABLE IF NOT EXISTS routes (
    feed TEXT NOT NULL,
    id TEXT NOT NULL,
    short_name TEXT,
    long_name TEXT,
    type INTEGER NOT NULL,
    color TEXT,
    text_color TEXT,
PRIMARY KEY (feed, id)
);

CREATE TABLE IF NOT EXISTS trips (
    feed TEXT NOT NULL,
    id TEXT NOT NULL,
    route_id TEXT NOT NULL,
    direction_id INTEGER,
PRIMARY KEY (feed, id)
);

CREATE TABLE IF NOT EXISTS stop_times (
    feed TEXT NOT NULL,
    trip_id TEXT NOT NULL,
    stop_id TEXT NOT NULL,
    stop_sequence INTEGER NOT NULL,
    arrival_time TEXT NOT NULL,
    departure_time TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS stop_times_trip_id ON stop_times (feed, trip_id);
CREATE INDEX IF NOT EXISTS stop_times_stop_id ON stop_times (feed, stop_id);

CREATE TABLE IF NOT EXISTS transfers (
    feed TEXT NOT NULL,
    from_stop_id TEXT NOT NULL,
    to_stop_id TEXT NOT NULL,
    transfer_type INTEGER NOT NULL,
    min_transfer_time BIGINT NOT NULL
);`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating tables")
	}

	return &PSQLStorage{db: db}, nil
}

func (s *PSQLStorage) ListFeeds() ([]*FeedMetadata, error) {
	rows, err := s.db.Query(`
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

func (s *PSQLStorage) WriteFeedMetadata(metadata *FeedMetadata) error {
	_, err := s.db.Exec(`
INSERT INTO feed (name, retrieved_at, max_departure)
VALUES ($1, $2, $3)
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

func (s *PSQLStorage) GetReader(name string) (FeedReader, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM stops WHERE feed = $1`, name).Scan(&count)
	if err != nil {
		return nil, errors.Wrap(err, "checking feed")
	}
	if count == 0 {
		return nil, errors.Errorf("feed %s does not exist", name)
	}
	return &PSQLFeedReader{feed: name, db: s.db}, nil
}

func (s *PSQLStorage) GetWriter(name string) (FeedWriter, error) {
	for _, table := range []string{"stops", "routes", "trips", "stop_times", "transfers"} {
		_, err := s.db.Exec(`DELETE FROM `+table+` WHERE feed = $1`, name)
		if err != nil {
			return nil, errors.Wrapf(err, "clearing %s", table)
		}
	}
	return &PSQLFeedWriter{feed: name, db: s.db}, nil
}

func (f *PSQLFeedWriter) WriteStop(stop model.Stop) error {
	seq := f.stopSeq
	f.stopSeq++
	_, err := f.db.Exec(`
INSERT INTO stops (feed, id, seq, code, name, lat, lon, location_type, parent_station, platform_code)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		f.feed,
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

func (f *PSQLFeedWriter) WriteRoute(route model.Route) error {
	_, err := f.db.Exec(`
INSERT INTO routes (feed, id, short_name, long_name, type, color, text_color)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.feed,
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

func (f *PSQLFeedWriter) WriteTrip(trip model.Trip) error {
	_, err := f.db.Exec(`
INSERT INTO trips (feed, id, route_id, direction_id)
VALUES ($1, $2, $3, $4)`,
		f.feed,
		trip.ID,
		trip.RouteID,
		trip.DirectionID,
	)
	if err != nil {
		return errors.Wrap(err, "inserting trip")
	}
	return nil
}

func (f *PSQLFeedWriter) BeginStopTimes() error {
	var err error
	f.stopTimeInsertTx, err = f.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning stop_time insert transaction")
	}

	f.stopTimeInsertQuery, err = f.stopTimeInsertTx.Prepare(`
INSERT INTO stop_times (feed, trip_id, stop_id, stop_sequence, arrival_time, departure_time)
VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		f.stopTimeInsertTx.Rollback()
		f.stopTimeInsertTx = nil
		return errors.Wrap(err, "preparing stop_time insert")
	}

	return nil
}

func (f *PSQLFeedWriter) WriteStopTime(stopTime model.StopTime) error {
	_, err := f.stopTimeInsertQuery.Exec(
		f.feed,
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

func (f *PSQLFeedWriter) EndStopTimes() error {
	f.stopTimeInsertQuery.Close()
	err := f.stopTimeInsertTx.Commit()
	if err != nil {
		return errors.Wrap(err, "committing stop_time insert transaction")
	}
	f.stopTimeInsertTx = nil
	f.stopTimeInsertQuery = nil

	return nil
}

func (f *PSQLFeedWriter) WriteTransfer(transfer model.Transfer) error {
	_, err := f.db.Exec(`
INSERT INTO transfers (feed, from_stop_id, to_stop_id, transfer_type, min_transfer_time)
VALUES ($1, $2, $3, $4, $5)`,
		f.feed,
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

func (f *PSQLFeedWriter) Close() error {
	return nil
}

func (f *PSQLFeedReader) Stops() ([]model.Stop, error) {
	rows, err := f.db.Query(`
SELECT id, code, name, lat, lon, location_type, parent_station, platform_code
FROM stops
WHERE feed = $1
ORDER BY seq ASC`, f.feed)
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

func (f *PSQLFeedReader) Routes() ([]model.Route, error) {
	rows, err := f.db.Query(`
SELECT id, short_name, long_name, type, color, text_color
FROM routes
WHERE feed = $1`, f.feed)
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

func (f *PSQLFeedReader) Trips() ([]model.Trip, error) {
	rows, err := f.db.Query(`
SELECT id, route_id, direction_id
FROM trips
WHERE feed = $1`, f.feed)
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

func (f *PSQLFeedReader) StopTimes() ([]model.StopTime, error) {
	rows, err := f.db.Query(`
SELECT trip_id, stop_id, stop_sequence, arrival_time, departure_time
FROM stop_times
WHERE feed = $1
ORDER BY trip_id ASC, stop_sequence ASC`, f.feed)
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

func (f *PSQLFeedReader) Transfers() ([]model.Transfer, error) {
	rows, err := f.db.Query(`
SELECT from_stop_id, to_stop_id, transfer_type, min_transfer_time
FROM transfers
WHERE feed = $1`, f.feed)
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

func (f *PSQLFeedReader) NearbyStops(lat float64, lon float64, limit int) ([]model.Stop, error) {
	rows, err := f.db.Query(`
SELECT id, code, name, lat, lon, location_type, parent_station, platform_code
FROM stops
WHERE feed = $1 AND (location_type = 1 OR (location_type = 0 AND parent_station = ''))`, f.feed)
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
