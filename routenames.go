package transit

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"openfahrplan.dev/transit/model"
)

var routeNameRe = regexp.MustCompile(`^([^\d]*)(\d*)(.*)$`)

type routeNameKey struct {
	prefix    string
	number    int64
	hasNumber bool
	suffix    string
}

func splitRouteName(name string) routeNameKey {
	m := routeNameRe.FindStringSubmatch(name)
	key := routeNameKey{
		prefix: strings.ToLower(m[1]),
		suffix: strings.ToLower(m[3]),
	}
	if m[2] != "" {
		key.number, _ = strconv.ParseInt(m[2], 10, 64)
		key.hasNumber = true
	}
	return key
}

// SortRouteNames orders line names the way a departure board does:
// by non-digit prefix, then numerically by the digit run, then by
// suffix. "RB 2" sorts before "RB 29" before "RB 30"; names without
// a number sort after numbered ones sharing a prefix.
func SortRouteNames(names []string) []string {
	sorted := append([]string{}, names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := splitRouteName(sorted[i]), splitRouteName(sorted[j])
		if a.prefix != b.prefix {
			return a.prefix < b.prefix
		}
		if a.hasNumber != b.hasNumber {
			return a.hasNumber
		}
		if a.hasNumber && a.number != b.number {
			return a.number < b.number
		}
		return a.suffix < b.suffix
	})
	return sorted
}

var routeColors = map[string]string{
	"U1": "#114273",
	"U2": "#fa0004",
	"U3": "#227e7f",
	"S1": "#650000",
	"S2": "#86c423",
	"S3": "#ff6600",
	"S4": "#051f4c",
	"S5": "#007dbf",
	"S6": "#8e9e42",
	"4":  "#f2858d",
	"5":  "#8f51a1",
	"6":  "#ffd500",
	"7":  "#99a7d4",
	"8":  "#00baf1",
	"10": "#c65387",
	"11": "#f79545",
}

// RouteColor maps a line's short name to a display color, with
// family fallbacks for regional and intercity trains.
func RouteColor(shortName string) string {
	if color, ok := routeColors[shortName]; ok {
		return color
	}
	switch {
	case strings.HasPrefix(shortName, "RE"), strings.HasPrefix(shortName, "RB"):
		return "#03643b"
	case strings.HasPrefix(shortName, "IC"):
		return "#787878"
	}
	return "#c02032"
}

var routeTypeLabels = map[model.RouteType]string{
	model.RouteTypeTram:      "Tram",
	model.RouteTypeSubway:    "U-Bahn",
	model.RouteTypeRail:      "Zug",
	model.RouteTypeBus:       "Bus",
	model.RouteTypeFerry:     "Fähre",
	model.RouteTypeCable:     "Cable Car",
	model.RouteTypeAerial:    "Gondel",
	model.RouteTypeFunicular: "Funicular",
}

func RouteTypeLabel(t model.RouteType) string {
	if label, ok := routeTypeLabels[t]; ok {
		return label
	}
	return fmt.Sprintf("Other(%d)", t)
}

// LocationTypeLabel classifies a stop for display: a plain stop, a
// platform under a station, or the station itself.
func LocationTypeLabel(stop model.Stop) string {
	hasParent := stop.ParentStation != ""
	hasType := stop.LocationType > 0
	switch {
	case !hasType && !hasParent:
		return "Stop"
	case !hasType && hasParent:
		return "Platform"
	case hasType && !hasParent:
		return "Station"
	}
	return "-"
}
