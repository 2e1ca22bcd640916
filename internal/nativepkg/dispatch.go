package nativepkg

import (
	"github.com/ashenvale/charstate/internal/binreader"
	"github.com/ashenvale/charstate/internal/gamelog"
	"github.com/ashenvale/charstate/internal/propval"
)

// DecodeContext carries the shared dependencies a class-index dispatch
// needs: the property registry and enum lookup that DBPropertiesLoader-
// style decoders (BaseProperty, Properties) require, plus a logger for
// the handful of decoders that warn rather than fail on an unexpected
// shape.
type DecodeContext struct {
	Registry propval.Registry
	Enums    propval.EnumLookup
	Logger   *gamelog.Helper
}

// DecodeByClassIndex dispatches a WState class bundle's embedded-object
// value to its per-class sub-loader (§4.J's class_idx table), grounded
// on class_loader.py's loader class registry.
func DecodeByClassIndex(r *binreader.Reader, classIdx uint16, ctx DecodeContext) (interface{}, error) {
	switch classIdx {
	case 11:
		return DecodeAAHash(r, false)
	case 35:
		return DecodeAAHash(r, true)
	case 13:
		return DecodeAAMultiHash(r, false)
	case 37:
		return DecodeAAMultiHash(r, true)
	case 17, 25:
		return DecodeArray(r, false)
	case 176, 182:
		return DecodeArray(r, true)
	case 18:
		return DecodeHashSet(r)
	case 23:
		return DecodeALHash(r)
	case 97:
		return DecodeLAHash(r)
	case 117:
		return decodeLAHashAsRef(r)
	case 104:
		return DecodeLArray(r)
	case 105:
		return DecodeLHashSet(r)
	case 134:
		return DecodeNHashSet(r)
	case 138:
		return DecodeNRHash(r)
	case 39:
		return DecodeBaseProperty(r, ctx.Registry, ctx.Enums)
	case 57:
		return DecodeDynamicBitset(r)
	case 160, 161:
		return DecodePosition(r)
	case 166:
		return DecodeProperties(r, ctx.Registry, ctx.Enums)
	case 175:
		return DecodeRandomSelectionTable(r)
	case 199:
		return DecodeStringInfo(r)
	case 225:
		return DecodeString(r)
	case 407:
		return DecodeDiscoveredMapNoteData(r)
	case 415:
		return DecodeGameplayOptionsProfile(r, ctx.Logger)
	case 2479:
		return DecodeQuestEventTargetLocation(r)
	case 2567:
		return DecodeBankRepositoryDataAdaptor(r, ctx.Registry, ctx.Enums)
	case 3103:
		return DecodeBankRepositoryData(r)
	case 3461:
		return DecodeGenericLoader(r, 3)
	case 3740:
		return DecodeBankType(r)
	default:
		return nil, &DecodeError{Context: "unrecognized native class index"}
	}
}

// decodeLAHashAsRef reads an i64->u32 map whose values are reference
// handles (class index 117's "use_ref" variant of LAHash). The value
// type is interface{} rather than DataReference so the reference
// resolver can overwrite an entry with the object it resolves to
// in place, the same way it does for every other map shape.
func decodeLAHashAsRef(r *binreader.Reader) (map[int64]interface{}, error) {
	raw, err := DecodeLAHash(r)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]interface{}, len(raw))
	for k, v := range raw {
		out[k] = DataReference{Handle: v}
	}
	return out, nil
}
