package nativepkg

import (
	"context"
	"fmt"
)

// Native package ids (§4.I), as read from the reference table entry's
// package factory info block: {package_id: u32, raw_size: u32, flags: u32}.
const (
	pkgProperties    = 166
	pkgDBProperties  = 52
	pkgBaseProperty  = 39
	pkgStringInfo    = 199
	pkgString        = 225
	pkgPosition      = 160
	pkgDynamicBitset = 57

	pkgArrayA, pkgArrayB, pkgArrayC = 17, 176, 104
	pkgListA, pkgListB, pkgListC    = 25, 182, 111
	pkgIntIntA, pkgIntIntB          = 11, 35
	pkgIntMultiA, pkgIntMultiB      = 13, 37
	pkgIntLong                      = 23
	pkgLongIntA, pkgLongIntB        = 117, 97
	pkgIntSet                       = 18
	pkgLongSet                      = 105
	pkgNRHash                       = 138
	pkgNHashSet                     = 134

	pkgBankRepositoryData        = 3103
	pkgBankRepositoryDataAdaptor = 2567
	pkgCurrencyRecord            = 403
	pkgDiscoveredMapNoteData     = 407
	pkgFriendAdaptor             = 414
	pkgIgnoreAdaptor             = 433
)

// DecodeNative dispatches a reference table entry's native package to
// the matching live decoder, reading package_id from the entry's
// package factory info block (§4.I/§4.L).
func (l *LiveDecoder) DecodeNative(ctx context.Context, packageFactoryInfoPtr, nativePackagePtr uint64) (interface{}, error) {
	packageID, err := l.mem.ReadU32(ctx, packageFactoryInfoPtr)
	if err != nil {
		return nil, err
	}
	ptrSize := uint64(l.layout.PointerSize)

	switch int(packageID) {
	case pkgProperties:
		return l.props.HandleProperties(ctx, nativePackagePtr, ptrSize)
	case pkgDBProperties:
		return l.decodeDBProperties(ctx, nativePackagePtr)
	case pkgBaseProperty:
		return l.props.HandleProperty(ctx, nativePackagePtr, 0, nil)
	case pkgStringInfo:
		return l.props.ReadStringInfo(ctx, nativePackagePtr)
	case pkgString:
		return l.props.ReadCString(ctx, nativePackagePtr)
	case pkgPosition:
		return l.props.ReadPosition(ctx, nativePackagePtr)
	case pkgArrayA, pkgArrayB, pkgArrayC:
		return l.DecodeArray(ctx, nativePackagePtr, int(packageID))
	case pkgListA, pkgListB, pkgListC:
		return l.DecodeList(ctx, nativePackagePtr, int(packageID))
	case pkgIntIntA, pkgIntIntB:
		return l.DecodeIntIntHashtable(ctx, nativePackagePtr, int(packageID))
	case pkgIntMultiA, pkgIntMultiB:
		return l.DecodeIntMultiHashtable(ctx, nativePackagePtr, int(packageID))
	case pkgIntSet:
		return l.DecodeIntSet(ctx, nativePackagePtr)
	case pkgDynamicBitset:
		return l.props.ReadArbitraryBitfield(ctx, nativePackagePtr)
	case pkgBankRepositoryData:
		return l.DecodeBankRepositoryData(ctx, nativePackagePtr)
	case pkgBankRepositoryDataAdaptor:
		return l.DecodeBankRepositoryDataAdaptor(ctx, nativePackagePtr)
	case pkgCurrencyRecord:
		return l.DecodeCurrencyRecord(ctx, nativePackagePtr)
	case pkgDiscoveredMapNoteData:
		mapper, ok := l.enums.GetEnumMapper(discoveredMapNoteEnumDID)
		if !ok {
			return nil, &DecodeError{Context: "discovered map note data: enum mapper unavailable"}
		}
		return l.DecodeDiscoveredMapNotes(ctx, nativePackagePtr, mapper)
	case pkgFriendAdaptor:
		return l.DecodeFriendsAdaptor(ctx, nativePackagePtr)
	case pkgIgnoreAdaptor:
		return l.DecodeIgnoresAdaptor(ctx, nativePackagePtr)
	case pkgIntLong, pkgLongIntA, pkgLongIntB, pkgLongSet, pkgNRHash, pkgNHashSet:
		return nil, &DecodeError{Context: fmt.Sprintf("native package id %d recognized but not yet wired", packageID)}
	default:
		return nil, &DecodeError{Context: fmt.Sprintf("unmanaged native package id %d", packageID)}
	}
}

// decodeDBProperties dereferences one extra pointer indirection before
// decoding a Properties set. The reference loader's own
// __handle_db_properties calls itself by name with the dereferenced
// pointer — a self-recursive call that can never terminate as written,
// almost certainly meant to call the plain properties handler instead
// (db-properties packages are otherwise just a Properties record behind
// one more pointer hop). That sensible behavior is implemented here.
func (l *LiveDecoder) decodeDBProperties(ctx context.Context, nativePackagePtr uint64) (interface{}, error) {
	inner, err := l.mem.ReadPointer(ctx, nativePackagePtr)
	if err != nil {
		return nil, err
	}
	return l.props.HandleProperties(ctx, inner, uint64(l.layout.PointerSize))
}
