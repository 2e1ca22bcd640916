package session

import (
	"testing"

	"github.com/ashenvale/charstate/internal/entitywalk"
	"github.com/ashenvale/charstate/internal/propval"
)

func propsWith(pairs map[string]interface{}) *propval.PropertySet {
	ps := propval.NewPropertySet()
	for name, v := range pairs {
		ps.Set(&propval.PropertyValue{Def: &propval.PropertyDef{Name: name}, Value: v})
	}
	return ps
}

func TestFindCharacterPicksPlayerTyped(t *testing.T) {
	entities := map[uint64]*entitywalk.Entity{
		1: {InstanceID: 1, Properties: propsWith(map[string]interface{}{"CharacterType": int64(3)})},
		2: {InstanceID: 2, Properties: propsWith(map[string]interface{}{
			"CharacterType": int64(2),
			"Name":          "Frodo",
		})},
	}
	found := FindCharacter(entities)
	if found == nil || found.Name != "Frodo" {
		t.Fatalf("found = %#v", found)
	}
}

func TestFindCharacterNoneMatch(t *testing.T) {
	entities := map[uint64]*entitywalk.Entity{
		1: {InstanceID: 1, Properties: propsWith(map[string]interface{}{"CharacterType": int64(3)})},
	}
	if found := FindCharacter(entities); found != nil {
		t.Errorf("found = %#v, want nil", found)
	}
}

func TestFindCharacterLastMatchWinsInIDOrder(t *testing.T) {
	entities := map[uint64]*entitywalk.Entity{
		5: {InstanceID: 5, Properties: propsWith(map[string]interface{}{
			"CharacterType": int64(2), "Name": "Earlier",
		})},
		9: {InstanceID: 9, Properties: propsWith(map[string]interface{}{
			"CharacterType": int64(2), "Name": "Later",
		})},
	}
	found := FindCharacter(entities)
	if found == nil || found.Name != "Later" {
		t.Fatalf("found = %#v", found)
	}
}

func TestFindCharacterNilProperties(t *testing.T) {
	entities := map[uint64]*entitywalk.Entity{
		1: {InstanceID: 1, Properties: nil},
	}
	if found := FindCharacter(entities); found != nil {
		t.Errorf("found = %#v, want nil", found)
	}
}
