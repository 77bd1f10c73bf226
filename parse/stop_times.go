package parse

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"openfahrplan.dev/transit/gtfstime"
	"openfahrplan.dev/transit/model"
	"openfahrplan.dev/transit/storage"
)

type StopTimeCSV struct {
	TripID        string `csv:"trip_id"`
	StopID        string `csv:"stop_id"`
	StopSequence  uint32 `csv:"stop_sequence"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
}

// ParseStopTimes writes stop_times rows and returns the largest
// departure literal seen. Arrival/departure strings are stored as-is:
// rows with unparseable times survive parsing and get dropped when
// the router index is built. References to unknown trips or stops are
// schema errors.
func ParseStopTimes(
	writer storage.FeedWriter,
	data io.Reader,
	trips map[string]bool,
	stops map[string]bool,
) (string, error) {

	stopSeq := map[string]map[uint32]bool{}
	maxDeparture := int64(0)
	badTimes := 0

	i := -1
	err := gocsv.UnmarshalToCallbackWithError(data, func(st *StopTimeCSV) error {
		i += 1
		if !trips[st.TripID] {
			return fmt.Errorf("unknown trip_id: '%s' (row %d)", st.TripID, i+1)
		}
		if st.StopID == "" {
			return fmt.Errorf("missing stop_id (row %d)", i+1)
		}
		if !stops[st.StopID] {
			return fmt.Errorf("unknown stop_id: '%s' (row %d)", st.StopID, i+1)
		}

		// Verify stop_sequence is unique within the trip
		if stopSeq[st.TripID] == nil {
			stopSeq[st.TripID] = map[uint32]bool{}
		}
		if stopSeq[st.TripID][st.StopSequence] {
			return fmt.Errorf("duplicate stop_sequence %d for trip_id '%s'", st.StopSequence, st.TripID)
		}
		stopSeq[st.TripID][st.StopSequence] = true

		if dep := gtfstime.Seconds(st.DepartureTime); dep != gtfstime.Infinity {
			if dep > maxDeparture {
				maxDeparture = dep
			}
		} else {
			badTimes++
		}

		err := writer.WriteStopTime(model.StopTime{
			TripID:       st.TripID,
			StopID:       st.StopID,
			StopSequence: st.StopSequence,
			Arrival:      st.ArrivalTime,
			Departure:    st.DepartureTime,
		})
		if err != nil {
			return errors.Wrapf(err, "writing stop_time (row %d)", i+1)
		}

		return nil
	})

	if err != nil {
		return "", errors.Wrap(err, "unmarshaling stop_times csv")
	}

	if badTimes > 0 {
		slog.Warn("stop_times with unparseable departure_time", "count", badTimes)
	}

	return gtfstime.Format(maxDeparture), nil
}
