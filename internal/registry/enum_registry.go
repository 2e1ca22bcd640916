package registry

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/ashenvale/charstate/internal/binreader"
	"github.com/ashenvale/charstate/internal/gamelog"
	"github.com/ashenvale/charstate/internal/propval"
)

// enumTable is one decoded enum/bitfield mapper: a token -> label map,
// optionally merged from a base table. Satisfies propval.EnumMapper.
type enumTable struct {
	did     uint32
	baseDID uint32
	byToken map[uint32]string
}

func (t *enumTable) GetStr(index int) (string, bool) {
	s, ok := t.byToken[uint32(index)]
	return s, ok
}

func (t *enumTable) tokens() []uint32 {
	out := make([]uint32, 0, len(t.byToken))
	for k := range t.byToken {
		out = append(out, k)
	}
	return out
}

// EnumRegistry lazily loads and caches enum tables by DID (§4.F). A
// resource that fails to load is cached as permanently absent, per §7,
// so a property referencing a missing enum DID does not re-trigger an
// archive lookup on every decode.
type EnumRegistry struct {
	loader ResourceLoader
	logger *gamelog.Helper

	tables *lru.Cache[uint32, *enumTable]
	absent *lru.Cache[uint32, bool]
	group  singleflight.Group
}

func NewEnumRegistry(loader ResourceLoader, logger *gamelog.Helper) *EnumRegistry {
	if logger == nil {
		logger = gamelog.NewNop()
	}
	tables, _ := lru.New[uint32, *enumTable](512)
	absent, _ := lru.New[uint32, bool](512)
	return &EnumRegistry{loader: loader, logger: logger, tables: tables, absent: absent}
}

// GetEnumMapper satisfies propval.EnumLookup.
func (e *EnumRegistry) GetEnumMapper(did uint32) (propval.EnumMapper, bool) {
	t, ok := e.getTable(context.Background(), did)
	if !ok {
		return nil, false
	}
	return t, true
}

func (e *EnumRegistry) getTable(ctx context.Context, did uint32) (*enumTable, bool) {
	if t, ok := e.tables.Get(did); ok {
		return t, true
	}
	if _, ok := e.absent.Get(did); ok {
		return nil, false
	}
	v, err, _ := e.group.Do(fmt.Sprintf("enum:%d", did), func() (interface{}, error) {
		return e.load(ctx, did)
	})
	if err != nil {
		e.absent.Add(did, true)
		e.logger.Warnw("enum mapper unavailable, caching as absent", "did", did, "err", err)
		return nil, false
	}
	t := v.(*enumTable)
	e.tables.Add(did, t)
	return t, true
}

func (e *EnumRegistry) load(ctx context.Context, did uint32) (*enumTable, error) {
	data, err := e.loader.LoadResource(ctx, did)
	if err != nil {
		return nil, err
	}
	t, err := decodeEnumTable(data)
	if err != nil {
		return nil, err
	}
	if t.baseDID != 0 {
		base, ok := e.getTable(ctx, t.baseDID)
		if ok {
			for _, tok := range base.tokens() {
				if _, already := t.byToken[tok]; !already {
					t.byToken[tok] = base.byToken[tok]
				}
			}
		}
	}
	return t, nil
}

// decodeEnumTable parses an enum/bitfield resource: {did, base_did,
// tsize entries of {key, label: pascal}, tsize entries of {key,
// string-info}}, per §4.F.
func decodeEnumTable(data []byte) (*enumTable, error) {
	r := binreader.New(data)
	did, err := r.U32()
	if err != nil {
		return nil, err
	}
	baseDID, err := r.U32()
	if err != nil {
		return nil, err
	}
	t := &enumTable{did: did, baseDID: baseDID, byToken: make(map[uint32]string)}

	nbRaw, err := r.TSize()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nbRaw; i++ {
		key, err := r.U32()
		if err != nil {
			return nil, err
		}
		label, err := r.PascalString()
		if err != nil {
			return nil, err
		}
		t.byToken[key] = label
	}

	nbStringInfo, err := r.TSize()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nbStringInfo; i++ {
		key, err := r.U32()
		if err != nil {
			return nil, err
		}
		info, err := propval.DecodeStringInfo(r)
		if err != nil {
			return nil, err
		}
		if info != nil && info.IsLiteral && info.Literal != "" {
			t.byToken[key] = info.Literal
		}
	}
	return t, nil
}
