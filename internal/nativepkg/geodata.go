package nativepkg

import (
	"github.com/ashenvale/charstate/internal/binreader"
	"github.com/ashenvale/charstate/internal/position"
)

// DidGeoData is every recorded Position for one DID (a world feature or
// a quest target). It carries no content-layer id; content-layer
// grouping is the key of GeoData.ContentLayer.
type DidGeoData struct {
	DID       uint32
	Positions []position.Position
}

// AchievableGeoDataItem is one quest-objective-condition target: two
// free-text labels, the DID they describe (kept as a raw id — resolving
// it to a display name requires loading that DID's own properties
// resource, which needs a full facade and is out of scope here; see
// DESIGN.md), and its Position.
type AchievableGeoDataItem struct {
	Label1, Label2 string
	DID            uint32
	Pos            position.Position
}

// AchievableGeoData collects every objective/condition target recorded
// for one quest.
type AchievableGeoData struct {
	QuestID    uint32
	Objectives map[uint32]map[uint32][]*AchievableGeoDataItem // objective -> condition -> items
}

// GeoData is the full decoded quest-event-target-location record: the
// world position map, the content-layer position map, and every quest's
// recorded targets.
type GeoData struct {
	World        []*DidGeoData
	ContentLayer map[uint32][]*DidGeoData
	Quests       []*AchievableGeoData
}

// DecodeQuestEventTargetLocation reads the full GeoData record: a
// DID-keyed world position map, a fixed 7-genus map (consumed but
// unused, since nothing downstream currently needs per-genus DID
// listings), a content-layer position map, and the quest entries
// themselves.
func DecodeQuestEventTargetLocation(r *binreader.Reader) (*GeoData, error) {
	data := &GeoData{ContentLayer: make(map[uint32][]*DidGeoData)}

	world, err := decodePositionMap(r)
	if err != nil {
		return nil, err
	}
	data.World = world

	if genus, err := r.U32(); err != nil {
		return nil, err
	} else if genus != 7 {
		return nil, &DecodeError{Context: "quest event target location: expected genus count 7"}
	}
	for i := 0; i < 7; i++ {
		nbArrays, err := r.TSize()
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < nbArrays; j++ {
			if _, err := r.U32(); err != nil {
				return nil, err
			}
			if _, err := DecodeArray(r, false); err != nil {
				return nil, err
			}
		}
	}

	if err := decodeContentLayerPositionMap(r, data); err != nil {
		return nil, err
	}
	if err := decodeQuestEntries(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

func decodePositionMap(r *binreader.Reader) ([]*DidGeoData, error) {
	count, err := r.TSize()
	if err != nil {
		return nil, err
	}
	var out []*DidGeoData
	for i := uint32(0); i < count; i++ {
		did, err := r.U32()
		if err != nil {
			return nil, err
		}
		numPositions, err := r.U32()
		if err != nil {
			return nil, err
		}
		if numPositions == 0 {
			continue
		}
		geo := &DidGeoData{DID: did}
		for j := uint32(0); j < numPositions; j++ {
			pos, err := position.FromStream(r)
			if err != nil {
				return nil, err
			}
			geo.Positions = append(geo.Positions, pos)
			if _, err := r.U32(); err != nil { // reserved, expected 0
				return nil, err
			}
			if _, err := r.U8(); err != nil { // reserved, expected 0 or 1
				return nil, err
			}
		}
		out = append(out, geo)
	}
	return out, nil
}

func decodeContentLayerPositionMap(r *binreader.Reader, data *GeoData) error {
	count, err := r.TSize()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		did, err := r.U32()
		if err != nil {
			return err
		}
		numPositions, err := r.U32()
		if err != nil {
			return err
		}
		if numPositions == 0 {
			continue
		}
		byLayer := make(map[uint32][]position.Position)
		for j := uint32(0); j < numPositions; j++ {
			pos, err := position.FromStream(r)
			if err != nil {
				return err
			}
			if _, err := r.U32(); err != nil { // reserved, expected 0
				return err
			}
			if _, err := r.U8(); err != nil { // reserved, expected 0 or 1
				return err
			}
			layersRaw, err := DecodeArray(r, false)
			if err != nil {
				return err
			}
			for _, lv := range layersRaw {
				layer := lv.(uint32)
				byLayer[layer] = append(byLayer[layer], pos)
			}
		}
		for layer, positions := range byLayer {
			data.ContentLayer[layer] = append(data.ContentLayer[layer], &DidGeoData{DID: did, Positions: positions})
		}
	}
	return nil
}

func decodeQuestEntries(r *binreader.Reader, data *GeoData) error {
	count, err := r.TSize()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		questID, err := r.U32()
		if err != nil {
			return err
		}
		qd := &AchievableGeoData{QuestID: questID, Objectives: make(map[uint32]map[uint32][]*AchievableGeoDataItem)}
		nbObjectives, err := r.TSize()
		if err != nil {
			return err
		}
		for o := uint32(0); o < nbObjectives; o++ {
			objectiveIndex, err := r.U32()
			if err != nil {
				return err
			}
			conditionsCount, err := r.U32()
			if err != nil {
				return err
			}
			for c := uint32(0); c < conditionsCount; c++ {
				entriesCount, err := r.U32()
				if err != nil {
					return err
				}
				for e := uint32(0); e < entriesCount; e++ {
					item, err := decodeQuestEntry(r)
					if err != nil {
						return err
					}
					if item == nil {
						continue
					}
					if qd.Objectives[objectiveIndex] == nil {
						qd.Objectives[objectiveIndex] = make(map[uint32][]*AchievableGeoDataItem)
					}
					qd.Objectives[objectiveIndex][c] = append(qd.Objectives[objectiveIndex][c], item)
				}
			}
		}
		if len(qd.Objectives) > 0 {
			data.Quests = append(data.Quests, qd)
		}
	}
	return nil
}

func decodeQuestEntry(r *binreader.Reader) (*AchievableGeoDataItem, error) {
	did, err := r.U32()
	if err != nil {
		return nil, err
	}
	pos, err := position.FromStream(r)
	if err != nil {
		return nil, err
	}
	if _, err := r.F32(); err != nil { // radius, unused beyond the wire shape
		return nil, err
	}
	label1, err := r.PascalString()
	if err != nil {
		return nil, err
	}
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		if err := skipQuestGenusStruct(r); err != nil {
			return nil, err
		}
	}
	label2, err := r.PascalString()
	if err != nil {
		return nil, err
	}
	return &AchievableGeoDataItem{Label1: label1, Label2: label2, DID: did, Pos: pos}, nil
}

// skipQuestGenusStruct consumes a flag-gated run of up to 7 u32 fields
// (genus/species/subspecies/alignment/class/monster-division/landmark
// DID); none of these are currently surfaced, so the values themselves
// are discarded.
func skipQuestGenusStruct(r *binreader.Reader) error {
	flags, err := r.U8()
	if err != nil {
		return err
	}
	for bit := uint8(1); bit != 0x80; bit <<= 1 {
		if flags&bit != 0 {
			if _, err := r.U32(); err != nil {
				return err
			}
		}
	}
	return nil
}
