package session

import (
	"sort"

	"github.com/ashenvale/charstate/internal/entitywalk"
)

// characterTypePlayer is the CharacterType property value identifying a
// player-controlled entity, grounded on CharData.parse_char's "char_type
// == 2" check.
const characterTypePlayer = 2

// CharacterEntity is the player-character entity a poll cycle found,
// grounded on CharData's name/entity_data pair.
type CharacterEntity struct {
	Name   string
	Entity *entitywalk.Entity
}

// FindCharacter scans entities in ascending instance-id order for a
// player-typed entity (CharacterType == 2), grounded on
// CharData.parse_char. The original's loop never breaks on a match, so
// the last player-typed entity in id order wins when more than one is
// present; this keeps that behavior rather than returning the first.
func FindCharacter(entities map[uint64]*entitywalk.Entity) *CharacterEntity {
	ids := make([]uint64, 0, len(entities))
	for id := range entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var found *CharacterEntity
	for _, id := range ids {
		e := entities[id]
		if e == nil || e.Properties == nil {
			continue
		}
		charType, ok := e.Properties.Get("CharacterType")
		if !ok || !isInt(charType, characterTypePlayer) {
			continue
		}
		name, _ := e.Properties.Get("Name")
		found = &CharacterEntity{Name: asString(name), Entity: e}
	}
	return found
}

func isInt(v interface{}, want int64) bool {
	switch x := v.(type) {
	case int64:
		return x == want
	case int32:
		return int64(x) == want
	case int:
		return int64(x) == want
	case uint32:
		return int64(x) == want
	case uint64:
		return int64(x) == want
	}
	return false
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
