package nativepkg

import "context"

// DecodeBankRepositoryDataAdaptor reads a live vault item descriptor: a u64
// instance id at a fixed +8 offset (a "long" field, always 8 bytes
// regardless of pointer width), a Properties set, and a base-property
// tooltip helper, both at bitness-dependent offsets.
func (l *LiveDecoder) DecodeBankRepositoryDataAdaptor(ctx context.Context, ptr uint64) (*VaultItemDescriptor, error) {
	iid, err := l.mem.ReadU64(ctx, ptr+8)
	if err != nil {
		return nil, err
	}
	props, err := l.props.HandleProperties(ctx, ptr, l.layout.BankItemPropsOffset())
	if err != nil {
		return nil, err
	}
	tooltip, err := l.props.HandleProperty(ctx, ptr, l.layout.BankItemTooltipOffset(), nil)
	if err != nil {
		return nil, err
	}
	return &VaultItemDescriptor{ItemIID: iid, Props: props, TooltipHelper: tooltip}, nil
}

// DecodeBankRepositoryData reads a live vault descriptor: an int-keyed
// hashtable of chest_id->chest_name, the value field holding a pointer to
// a null-terminated UTF-16 string. Unlike the stream form, the live
// native package carries no capacity/quantity trailer — those fields stay
// zero here, same as the reference loader's own live decode.
func (l *LiveDecoder) DecodeBankRepositoryData(ctx context.Context, ptr uint64) (*VaultDescriptor, error) {
	ptrSize := l.layout.PointerSize
	keySize := l.layout.MapIntKeySize
	valOffset := keySize + ptrSize
	chests := make(map[uint32]string)
	_, err := l.decodeIntKeyedHashtable(ctx, ptr, ptrSize, keySize, func(entry uint64) error {
		chestID, err := l.mem.ReadU32(ctx, entry)
		if err != nil {
			return err
		}
		name, err := l.props.ReadCString(ctx, entry+uint64(valOffset))
		if err != nil {
			return err
		}
		chests[chestID] = name
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &VaultDescriptor{ChestNames: chests}, nil
}
