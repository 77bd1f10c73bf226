package transit

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"openfahrplan.dev/transit/model"
)

// A fuzzy search hit. Score is a token-set ratio in 0..100.
type StationMatch struct {
	StopID string
	Name   string
	Score  int
}

var (
	punctRe      = regexp.MustCompile(`[-_/.,]+`)
	strasseRe    = regexp.MustCompile(`str\b`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	// NFKD-decompose, then drop everything outside ASCII. Turns
	// "Nürnberg" into "nurnberg" after lowering.
	asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
)

// normalizeStationName folds a stop name (or user query) into the
// form both sides of the fuzzy match are scored on. "ß" must become
// "ss" before the ASCII fold eats it, and Straße spellings collapse
// to "strasse" so "Deichslerstraße" matches "Deichslerstr.".
func normalizeStationName(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "ß", "ss")
	if folded, _, err := transform.String(asciiFold, s); err == nil {
		s = folded
	}
	s = punctRe.ReplaceAllString(s, " ")
	s = strasseRe.ReplaceAllString(s, "strasse")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// FindStation fuzzy-searches station names. Only plain stops
// (location_type 0) participate, de-duplicated by name. Results are
// sorted by score descending, name ascending, and truncated to
// limit. An empty query yields no matches.
func (f *Feed) FindStation(query string, limit int) []StationMatch {
	normQuery := normalizeStationName(query)
	if normQuery == "" {
		return nil
	}

	seen := map[string]bool{}
	matches := []StationMatch{}
	for _, stop := range f.Stops {
		if stop.LocationType != model.LocationTypeStop {
			continue
		}
		if seen[stop.Name] {
			continue
		}
		seen[stop.Name] = true

		score := fuzzy.TokenSetRatio(normQuery, normalizeStationName(stop.Name))
		matches = append(matches, StationMatch{
			StopID: stop.ID,
			Name:   stop.Name,
			Score:  score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Name < matches[j].Name
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// FindSiblings returns all stops under the queried stop's parent
// station. A stop without a parent acts as its own pseudo-parent, so
// its children are returned.
func (f *Feed) FindSiblings(stopID string, includeSelf bool) []model.Stop {
	stop, ok := f.StopByID(stopID)
	if !ok {
		return nil
	}

	parent := strings.TrimSpace(stop.ParentStation)
	if parent == "" {
		parent = stopID
	}

	siblings := []model.Stop{}
	for _, s := range f.Stops {
		if strings.TrimSpace(s.ParentStation) != parent {
			continue
		}
		if !includeSelf && s.ID == stopID {
			continue
		}
		siblings = append(siblings, s)
	}
	return siblings
}

// FindMatchingNameStops returns all stops sharing the queried stop's
// exact name.
func (f *Feed) FindMatchingNameStops(stopID string, includeSelf bool) []model.Stop {
	stop, ok := f.StopByID(stopID)
	if !ok {
		return nil
	}

	same := []model.Stop{}
	for _, s := range f.Stops {
		if s.Name != stop.Name {
			continue
		}
		if !includeSelf && s.ID == stopID {
			continue
		}
		same = append(same, s)
	}
	return same
}

// ReachableTransfers walks the undirected graph of timed and
// min-time transfers (types 1 and 2) whose min_transfer_time is
// within maxTransferTime, and returns every stop reachable from the
// origin. Recommended (0) and not-possible (3) rows don't
// participate.
func (f *Feed) ReachableTransfers(originID string, maxTransferTime int64, includeOrigin bool) []model.Stop {
	adjacent := map[string][]string{}
	for _, tr := range f.Transfers {
		if tr.Type != model.TransferTypeTimed && tr.Type != model.TransferTypeMinTime {
			continue
		}
		if tr.MinTransferTime > maxTransferTime {
			continue
		}
		adjacent[tr.FromStopID] = append(adjacent[tr.FromStopID], tr.ToStopID)
		adjacent[tr.ToStopID] = append(adjacent[tr.ToStopID], tr.FromStopID)
	}

	if _, ok := f.StopByID(originID); !ok {
		return nil
	}

	seen := map[string]bool{originID: true}
	queue := []string{originID}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range adjacent[u] {
			if !seen[v] {
				seen[v] = true
				queue = append(queue, v)
			}
		}
	}

	if !includeOrigin {
		delete(seen, originID)
	}

	// stops table order keeps the result deterministic
	reachable := []model.Stop{}
	for _, s := range f.Stops {
		if seen[s.ID] {
			reachable = append(reachable, s)
		}
	}
	return reachable
}

// DefaultMaxTransferTime bounds ReachableTransfers lookups when the
// caller has no opinion.
const DefaultMaxTransferTime int64 = 300

// FindRelatedStops unions the stop itself, its transfer-reachable
// stops, its siblings, and its exact-name matches, de-duplicated by
// stop_id.
func (f *Feed) FindRelatedStops(stopID string) []model.Stop {
	related := []model.Stop{}
	seen := map[string]bool{}

	add := func(stops []model.Stop) {
		for _, s := range stops {
			if !seen[s.ID] {
				seen[s.ID] = true
				related = append(related, s)
			}
		}
	}

	if stop, ok := f.StopByID(stopID); ok {
		add([]model.Stop{stop})
	}
	add(f.ReachableTransfers(stopID, DefaultMaxTransferTime, false))
	add(f.FindSiblings(stopID, false))
	add(f.FindMatchingNameStops(stopID, false))

	return related
}

// NearbyStops returns stops ordered by distance from lat/lon, at
// most limit (0 for no limit).
func (f *Feed) NearbyStops(lat, lon float64, limit int) ([]model.Stop, error) {
	return f.reader.NearbyStops(lat, lon, limit)
}
