package model

// Holds all external facing types and constants.

type LocationType int

const (
	LocationTypeStop LocationType = iota
	LocationTypeStation
	LocationTypeEntranceExit
	LocationTypeGenericNode
	LocationTypeBoardingArea
)

type RouteType int

const (
	RouteTypeTram      RouteType = 0
	RouteTypeSubway              = 1
	RouteTypeRail                = 2
	RouteTypeBus                 = 3
	RouteTypeFerry               = 4
	RouteTypeCable               = 5
	RouteTypeAerial              = 6
	RouteTypeFunicular           = 7
)

// Transfer types as per transfers.txt. Recommended (0) is the GTFS
// default for a blank field. NotPossible (3) marks stop pairs where
// no transfer exists at all.
type TransferType int

const (
	TransferTypeRecommended TransferType = iota
	TransferTypeTimed
	TransferTypeMinTime
	TransferTypeNotPossible
)

type Stop struct {
	ID            string
	Code          string
	Name          string
	Lat           float64
	Lon           float64
	LocationType  LocationType
	ParentStation string
	PlatformCode  string
}

type Trip struct {
	ID          string
	RouteID     string
	DirectionID int8
}

type Route struct {
	ID        string
	ShortName string
	LongName  string
	Type      RouteType
	Color     string
	TextColor string
}

// Arrival and Departure are kept as the feed's raw HH:MM:SS strings.
// GTFS times can exceed 24:00:00 for post-midnight service, so they
// only become seconds through the gtfstime codec.
type StopTime struct {
	TripID       string
	StopID       string
	StopSequence uint32
	Arrival      string
	Departure    string
}

type Transfer struct {
	FromStopID      string
	ToStopID        string
	Type            TransferType
	MinTransferTime int64
}

// DisplayName returns the route's short name, falling back to the
// long name.
func (r Route) DisplayName() string {
	if r.ShortName != "" {
		return r.ShortName
	}
	return r.LongName
}
