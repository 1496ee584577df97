// Package importer reconciles externally supplied history blobs into the
// session engine's creation contract. It detects which of the supported JSON
// shapes a blob uses, normalizes every race through documented field-fallback
// chains, and materializes the result in a single transaction.
package importer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Shape identifies a recognized import layout.
type Shape string

const (
	// ShapeLinked is the export format: tracks/mogis/races with id references.
	ShapeLinked Shape = "A"
	// ShapeNested is a list of mogi objects with embedded race lists.
	ShapeNested Shape = "B"
	// ShapeFlat is an ungrouped race history list.
	ShapeFlat Shape = "E"
)

// ErrUnrecognizedFormat is returned when a blob matches none of the known
// shapes. Nothing is imported.
var ErrUnrecognizedFormat = errors.New("unrecognized import format")

// ReferenceError reports a race referencing a mogi or track id missing from
// the accompanying catalog. Ids are the only linkage in the linked shape, so
// the whole import aborts.
type ReferenceError struct {
	Kind string
	ID   int
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("race references unknown %s id %d", e.Kind, e.ID)
}

// RaceRecord is one normalized race. Track may still be raw; it is
// canonicalized at materialization. Points distinguishes an explicit value
// (including 0) from an absent one, which falls back to the position table.
type RaceRecord struct {
	Track    string
	Position int
	Index    int
	Points   *int
}

// Block is one normalized session: the session engine's creation contract.
type Block struct {
	Finalized bool
	Note      string
	Races     []RaceRecord
}

// format pairs a shape predicate with its normalizer. Detection tries them in
// order; first match wins.
type format struct {
	shape     Shape
	match     func(data any) bool
	normalize func(data any) ([]Block, error)
}

var formats = []format{
	{ShapeLinked, matchLinked, normalizeLinked},
	{ShapeNested, matchNestedObject, normalizeNestedObject},
	{ShapeNested, matchNestedList, normalizeNestedList},
	{ShapeFlat, matchHistoryObject, normalizeHistoryObject},
	{ShapeFlat, matchFlatList, normalizeFlatList},
}

// Normalize detects the blob's shape and converts it to session blocks.
func Normalize(data any) (Shape, []Block, error) {
	for _, f := range formats {
		if f.match(data) {
			blocks, err := f.normalize(data)
			if err != nil {
				return f.shape, nil, err
			}
			return f.shape, blocks, nil
		}
	}
	return "", nil, ErrUnrecognizedFormat
}

// ---- shape predicates ----

func matchLinked(data any) bool {
	obj, ok := data.(map[string]any)
	if !ok {
		return false
	}
	for _, k := range []string{"tracks", "mogis", "races"} {
		if _, ok := obj[k]; !ok {
			return false
		}
	}
	return true
}

func matchNestedObject(data any) bool {
	obj, ok := data.(map[string]any)
	if !ok {
		return false
	}
	_, ok = obj["mogis"].([]any)
	return ok
}

func matchNestedList(data any) bool {
	list, ok := data.([]any)
	if !ok || len(list) == 0 {
		return false
	}
	first, ok := list[0].(map[string]any)
	if !ok {
		return false
	}
	_, ok = first["races"]
	return ok
}

func matchHistoryObject(data any) bool {
	obj, ok := data.(map[string]any)
	if !ok {
		return false
	}
	_, ok = obj["history"].([]any)
	return ok
}

func matchFlatList(data any) bool {
	list, ok := data.([]any)
	if !ok || len(list) == 0 {
		return false
	}
	first, ok := list[0].(map[string]any)
	if !ok {
		return false
	}
	_, ok = first["track"]
	return ok
}

// ---- normalizers ----

// normalizeLinked handles the export format: races reference mogis and tracks
// by numeric id. Track identity falls back track_name -> track -> track_slug
// -> track_id (resolved through the tracks catalog); index falls back through
// race_number.
func normalizeLinked(data any) ([]Block, error) {
	obj := data.(map[string]any)

	trackNames := map[int]string{}
	for _, t := range asList(obj["tracks"]) {
		tm, ok := t.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := intField(tm, "id"); ok {
			trackNames[id] = stringField(tm, "name")
		}
	}

	mogisIn := asList(obj["mogis"])
	blocks := make([]Block, len(mogisIn))
	blockByMogiID := map[int]int{}
	for i, m := range mogisIn {
		mm, _ := m.(map[string]any)
		blocks[i] = Block{Finalized: boolField(mm, "finalized"), Note: stringField(mm, "note")}
		if id, ok := intField(mm, "id"); ok {
			blockByMogiID[id] = i
		}
	}

	for _, r := range asList(obj["races"]) {
		rm, ok := r.(map[string]any)
		if !ok {
			continue
		}
		mogiID, ok := intField(rm, "mogi_id")
		if !ok {
			return nil, &ReferenceError{Kind: "mogi", ID: mogiID}
		}
		i, ok := blockByMogiID[mogiID]
		if !ok {
			return nil, &ReferenceError{Kind: "mogi", ID: mogiID}
		}

		track := stringField(rm, "track_name", "track", "track_slug")
		if track == "" {
			if trackID, ok := intField(rm, "track_id"); ok {
				name, ok := trackNames[trackID]
				if !ok {
					return nil, &ReferenceError{Kind: "track", ID: trackID}
				}
				track = name
			}
		}

		idx, _ := intField(rm, "index", "race_number")
		blocks[i].Races = append(blocks[i].Races, RaceRecord{
			Track:    track,
			Position: positionField(rm),
			Index:    idx,
			Points:   pointsField(rm),
		})
	}
	return blocks, nil
}

func normalizeNestedObject(data any) ([]Block, error) {
	return normalizeNestedList(data.(map[string]any)["mogis"])
}

// normalizeNestedList handles a list of mogi objects, each with an embedded
// races (or race_list) array.
func normalizeNestedList(data any) ([]Block, error) {
	mogisIn := asList(data)
	blocks := make([]Block, 0, len(mogisIn))
	for _, m := range mogisIn {
		mm, _ := m.(map[string]any)
		races := asList(mm["races"])
		if races == nil {
			races = asList(mm["race_list"])
		}
		blocks = append(blocks, Block{
			Finalized: boolField(mm, "finalized"),
			Note:      stringField(mm, "note"),
			Races:     normalizeRaceList(races),
		})
	}
	return blocks, nil
}

func normalizeHistoryObject(data any) ([]Block, error) {
	return normalizeFlatList(data.(map[string]any)["history"])
}

// groupingKeys are probed in order across the whole list; the first key any
// race carries becomes the grouping key.
var groupingKeys = []string{"mogi_id", "mogi", "session_id", "session", "set", "group"}

// normalizeFlatList handles an ungrouped race history. Races are grouped by
// the first present grouping key, preserving first-seen group order; with no
// grouping key anywhere the list is chunked sequentially into mogis of 12 and
// only full chunks are marked finalized.
func normalizeFlatList(data any) ([]Block, error) {
	races := asList(data)

	groupKey := ""
	for _, key := range groupingKeys {
		for _, r := range races {
			if rm, ok := r.(map[string]any); ok {
				if _, present := rm[key]; present {
					groupKey = key
					break
				}
			}
		}
		if groupKey != "" {
			break
		}
	}

	var groups [][]any
	if groupKey != "" {
		order := []string{}
		grouped := map[string][]any{}
		for _, r := range races {
			key := ""
			if rm, ok := r.(map[string]any); ok {
				key = fmt.Sprint(rm[groupKey])
			}
			if _, ok := grouped[key]; !ok {
				order = append(order, key)
			}
			grouped[key] = append(grouped[key], r)
		}
		for _, key := range order {
			groups = append(groups, grouped[key])
		}
	} else {
		for start := 0; start < len(races); start += 12 {
			end := min(start+12, len(races))
			groups = append(groups, races[start:end])
		}
	}

	blocks := make([]Block, 0, len(groups))
	for _, g := range groups {
		norm := normalizeRaceList(g)
		blocks = append(blocks, Block{Finalized: len(norm) == 12, Races: norm})
	}
	return blocks, nil
}

// normalizeRaceList applies the per-race fallback chains: track via
// track/track_name/track_obj.name, position via position/finish/place
// (absent -> 12, the worst finish, rather than failing the import), index via
// index/race_number/1-based sequence order.
func normalizeRaceList(races []any) []RaceRecord {
	out := make([]RaceRecord, 0, len(races))
	for i, r := range races {
		rm, _ := r.(map[string]any)

		track := stringField(rm, "track", "track_name")
		if track == "" {
			if to, ok := rm["track_obj"].(map[string]any); ok {
				track = stringField(to, "name")
			}
		}

		idx, ok := intField(rm, "index", "race_number")
		if !ok {
			idx = i + 1
		}

		out = append(out, RaceRecord{
			Track:    track,
			Position: positionField(rm),
			Index:    idx,
			Points:   pointsField(rm),
		})
	}
	return out
}

// ---- field accessors ----

func asList(v any) []any {
	list, _ := v.([]any)
	return list
}

// stringField returns the first non-empty string among keys.
func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// intField returns the first key holding an integer, accepting JSON numbers
// and numeric strings.
func intField(m map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return int(v), true
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func positionField(m map[string]any) int {
	if pos, ok := intField(m, "position", "finish", "place"); ok {
		return pos
	}
	return 12
}

// pointsField keeps explicit points (including 0) distinct from absent ones.
func pointsField(m map[string]any) *int {
	if _, present := m["points"]; !present {
		return nil
	}
	if pts, ok := intField(m, "points"); ok {
		return &pts
	}
	return nil
}
