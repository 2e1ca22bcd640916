package nativepkg

import (
	"github.com/ashenvale/charstate/internal/binreader"
	"github.com/ashenvale/charstate/internal/propval"
)

// VaultItemDescriptor is one bank/vault slot: the item's instance id, its
// full property set, and the base-property tooltip helper value.
type VaultItemDescriptor struct {
	ItemIID       uint64
	Props         *propval.PropertySet
	TooltipHelper *propval.PropertyValue
}

// OwnerIID and BankType read their values out of Props, mirroring the
// original's VaultItemDescriptor property accessors.
func (v *VaultItemDescriptor) OwnerIID() (interface{}, bool) {
	return v.Props.Get("Bank_Repository_ItemManagerIID")
}

func (v *VaultItemDescriptor) BankType() (interface{}, bool) {
	return v.Props.Get("BankRepository_BankType")
}

// VaultDescriptor is a bank/vault container: its chest names and current
// fill state.
type VaultDescriptor struct {
	ChestNames      map[uint32]string
	CurrentQuantity uint32
	MaxCapacity     uint32
}

// DecodeBankRepositoryDataAdaptor reads a vault item descriptor: a u64
// instance id, a full Properties set, then a base property tooltip
// helper value.
func DecodeBankRepositoryDataAdaptor(r *binreader.Reader, reg propval.Registry, enums propval.EnumLookup) (*VaultItemDescriptor, error) {
	iid, err := r.U64()
	if err != nil {
		return nil, err
	}
	props, err := DecodeProperties(r, reg, enums)
	if err != nil {
		return nil, err
	}
	tooltip, err := DecodeBaseProperty(r, reg, enums)
	if err != nil {
		return nil, err
	}
	return &VaultItemDescriptor{ItemIID: iid, Props: props, TooltipHelper: tooltip}, nil
}

// DecodeBankRepositoryData reads a vault descriptor: a tsize-prefixed run
// of {chest_id, chest_name} pairs, then {capacity, quantity}.
func DecodeBankRepositoryData(r *binreader.Reader) (*VaultDescriptor, error) {
	count, err := r.TSize()
	if err != nil {
		return nil, err
	}
	chests := make(map[uint32]string, count)
	for i := uint32(0); i < count; i++ {
		chestID, err := r.U32()
		if err != nil {
			return nil, err
		}
		name, err := r.PrefixedUTF16()
		if err != nil {
			return nil, err
		}
		chests[chestID] = name
	}
	totalCapacity, err := r.U32()
	if err != nil {
		return nil, err
	}
	currentQuantity, err := r.U32()
	if err != nil {
		return nil, err
	}
	return &VaultDescriptor{ChestNames: chests, CurrentQuantity: currentQuantity, MaxCapacity: totalCapacity}, nil
}

// CurrencyPurse is a character's gold/silver/copper balance, decoded from
// an int->int currency record keyed by three well-known property ids.
type CurrencyPurse struct {
	Gold, Silver, Copper uint32
}

const (
	currencyGoldKey   uint32 = 0x70000128
	currencySilverKey uint32 = 0x70000129
	currencyCopperKey uint32 = 0x7000012A
)

// CurrencyPurseFromAAHash extracts a CurrencyPurse from a decoded int->int
// map of the shape DecodeAAHash(r, false) produces.
func CurrencyPurseFromAAHash(m map[uint32]interface{}) CurrencyPurse {
	var p CurrencyPurse
	if v, ok := m[currencyGoldKey].(uint32); ok {
		p.Gold = v
	}
	if v, ok := m[currencySilverKey].(uint32); ok {
		p.Silver = v
	}
	if v, ok := m[currencyCopperKey].(uint32); ok {
		p.Copper = v
	}
	return p
}
