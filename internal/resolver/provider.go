package resolver

import (
	"context"
	"sync"

	"github.com/ashenvale/charstate/internal/wstate"
)

// valueSource resolves one index to its decoded value, memoized and
// keyed by a reference-table slot or WState dataset position depending
// on the implementation below. Both providers in this file satisfy
// ReferenceProvider through it.
type valueSource interface {
	GetValue(ctx context.Context, index uint32) (interface{}, error)
}

// WStateDataSetReferenceProvider answers reference lookups out of one
// already-fully-decoded WState buffer: every reference/value pair it
// declared is indexed once up front, grounded on
// WStateDataSetReferenceProvider in reference_provider.py.
type WStateDataSetReferenceProvider struct {
	index map[uint32]interface{}

	mu   sync.Mutex
	used map[uint32]struct{}
}

// NewWStateDataSetReferenceProvider indexes dataset's declared references
// by handle. The two parallel slices dataset exposes (References/values)
// must agree in length — the loader that built dataset guarantees this.
func NewWStateDataSetReferenceProvider(dataset *wstate.DataSet) *WStateDataSetReferenceProvider {
	refs := dataset.References()
	p := &WStateDataSetReferenceProvider{
		index: make(map[uint32]interface{}, len(refs)),
		used:  make(map[uint32]struct{}),
	}
	for i, ref := range refs {
		p.index[ref] = dataset.Value(i)
	}
	return p
}

// GetReference returns the value declared under handle, or nil if
// dataset never declared it. A successful lookup marks handle used, so
// GetUnusedReferences can later report what nothing pointed at.
func (p *WStateDataSetReferenceProvider) GetReference(ctx context.Context, handle uint32) (interface{}, error) {
	v, ok := p.index[handle]
	if !ok {
		return nil, nil
	}
	p.mu.Lock()
	p.used[handle] = struct{}{}
	p.mu.Unlock()
	return v, nil
}

// GetUnusedReferences returns the handles this provider indexed that no
// resolution pass ever looked up — the dataset's orphan references.
func (p *WStateDataSetReferenceProvider) GetUnusedReferences() []uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]uint32, 0, len(p.index)-len(p.used))
	for ref := range p.index {
		if _, ok := p.used[ref]; !ok {
			out = append(out, ref)
		}
	}
	return out
}

// ReferencesTableReferenceProvider answers reference lookups against the
// live global reference table, caching every handle it has already
// resolved and recording each newly-decoded value on a discovery stack
// so a caller can resolve references inside it too — the table is a
// live object graph, not a self-contained buffer, so resolving one
// handle routinely surfaces more handles to chase.
type ReferencesTableReferenceProvider struct {
	table valueSource

	mu         sync.Mutex
	cache      map[uint32]interface{}
	discovered []interface{}
}

func NewReferencesTableReferenceProvider(table valueSource) *ReferencesTableReferenceProvider {
	return &ReferencesTableReferenceProvider{
		table: table,
		cache: make(map[uint32]interface{}),
	}
}

// GetReference returns the reference table's decoded value at handle,
// pushing it onto the discovery stack the first time it is decoded.
func (p *ReferencesTableReferenceProvider) GetReference(ctx context.Context, handle uint32) (interface{}, error) {
	p.mu.Lock()
	if v, ok := p.cache[handle]; ok {
		p.mu.Unlock()
		return v, nil
	}
	p.mu.Unlock()

	v, err := p.table.GetValue(ctx, handle)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[handle] = v
	if v != nil {
		p.discovered = append(p.discovered, v)
	}
	p.mu.Unlock()
	return v, nil
}

// PopDiscovered removes and returns the most recently discovered value
// still pending resolution, mirroring the LIFO list.pop() the original
// drains in its resolve loop.
func (p *ReferencesTableReferenceProvider) PopDiscovered() (interface{}, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.discovered)
	if n == 0 {
		return nil, false
	}
	v := p.discovered[n-1]
	p.discovered = p.discovered[:n-1]
	return v, true
}

// ResolveDeep resolves root and then keeps draining p's discovery stack,
// resolving references inside every value the lookup surfaces along the
// way, until nothing new is left to chase. This is the loop
// WSLInspector.__resolve runs around a ReferencesTableReferenceProvider.
func ResolveDeep(ctx context.Context, r *Resolver, p *ReferencesTableReferenceProvider, root interface{}) error {
	if err := r.ResolveValue(ctx, root); err != nil {
		return err
	}
	for {
		v, ok := p.PopDiscovered()
		if !ok {
			return nil
		}
		if err := r.ResolveValue(ctx, v); err != nil {
			return err
		}
	}
}
