package nativepkg

import (
	"github.com/ashenvale/charstate/internal/binreader"
	"github.com/ashenvale/charstate/internal/gamelog"
)

// ShortcutSlot is one hotbar slot's binding: empty, an item, a skill, a
// pet, or a hobby shortcut.
type ShortcutSlot struct {
	Kind uint32
	IID  int64  // set for item shortcuts
	DID  uint32 // set for item/skill/pet/hobby shortcuts
}

const (
	ShortcutNone  uint32 = 0
	ShortcutItem  uint32 = 2
	ShortcutSkill uint32 = 6
	ShortcutPet   uint32 = 7
	ShortcutHobby uint32 = 9
)

// ShortcutBarSet is one gameplay options profile's full run of shortcut
// bars: 7 bars of 12 slots each.
type ShortcutBarSet struct {
	Bars [7][12]ShortcutSlot
}

// GameplayOptionsProfile is the decoded shortcut-bar record; the trailing
// section of the original (a variable-length run of floating "tip"
// markers the client itself never interprets beyond skip-arithmetic) is
// consumed but not retained.
type GameplayOptionsProfile struct {
	Sets []ShortcutBarSet
}

// DecodeGameplayOptionsProfile reads the shortcut-bar sets, skipping the
// unused trailing block whose shape depends on values read mid-stream
// (§10, grounded on GameplayOptionsProfileLoader).
func DecodeGameplayOptionsProfile(r *binreader.Reader, logger *gamelog.Helper) (*GameplayOptionsProfile, error) {
	if logger == nil {
		logger = gamelog.NewNop()
	}
	if _, err := r.U32(); err != nil {
		return nil, err
	}
	if _, err := r.U32(); err != nil {
		return nil, err
	}
	numSets, err := r.U32()
	if err != nil {
		return nil, err
	}
	profile := &GameplayOptionsProfile{Sets: make([]ShortcutBarSet, 0, numSets)}
	for i := uint32(0); i < numSets; i++ {
		marker, err := r.U32()
		if err != nil {
			return nil, err
		}
		if marker != 84 {
			logger.Warnw("unexpected gameplay options set marker", "set", i, "marker", marker)
		}
		var set ShortcutBarSet
		for bar := 0; bar < 7; bar++ {
			for slot := 0; slot < 12; slot++ {
				s, err := decodeShortcutSlot(r)
				if err != nil {
					return nil, err
				}
				set.Bars[bar][slot] = s
			}
		}
		profile.Sets = append(profile.Sets, set)
	}
	if err := skipGameplayOptionsTrailer(r); err != nil {
		return nil, err
	}
	return profile, nil
}

func decodeShortcutSlot(r *binreader.Reader) (ShortcutSlot, error) {
	kind, err := r.U32()
	if err != nil {
		return ShortcutSlot{}, err
	}
	s := ShortcutSlot{Kind: kind}
	switch kind {
	case ShortcutNone:
	case ShortcutItem:
		iid, err := r.I64()
		if err != nil {
			return s, err
		}
		did, err := r.U32()
		if err != nil {
			return s, err
		}
		s.IID, s.DID = iid, did
	case ShortcutSkill, ShortcutPet, ShortcutHobby:
		did, err := r.U32()
		if err != nil {
			return s, err
		}
		s.DID = did
	default:
		return s, &DecodeError{Context: "unrecognized gameplay options shortcut kind"}
	}
	return s, nil
}

// skipGameplayOptionsTrailer consumes the record's trailing, rarely
// populated block (a small header plus, when present, a run of
// fixed-width float-tagged entries and a closing word run). Its exact
// purpose is undocumented in the source; only its byte shape is needed
// to keep the stream aligned for whatever follows.
func skipGameplayOptionsTrailer(r *binreader.Reader) error {
	test1, err := r.U8()
	if err != nil {
		return err
	}
	test2, err := r.U8()
	if err != nil {
		return err
	}
	if test1 != 0 && test1 != 1 {
		return nil
	}
	if test2 == 2 {
		return r.Skip(24)
	}
	for j := uint8(0); j < test2; j++ {
		if _, err := r.U32(); err != nil {
			return err
		}
		if _, err := r.U8(); err != nil {
			return err
		}
		elemCount, err := r.U8()
		if err != nil {
			return err
		}
		if err := r.Skip(int(elemCount) * 21); err != nil {
			return err
		}
	}
	if _, err := r.U16(); err != nil {
		return err
	}
	return r.Skip(6 * 4)
}
