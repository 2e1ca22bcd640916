package resolver

import (
	"context"
	"testing"

	"github.com/ashenvale/charstate/internal/classlib"
	"github.com/ashenvale/charstate/internal/nativepkg"
	"github.com/ashenvale/charstate/internal/wstate"
)

func refAttr(name string, index uint16) *classlib.AttributeDef {
	return &classlib.AttributeDef{Name: name, Index: index, Type: 1} // REFERENCE
}

func intAttr(name string, index uint16) *classlib.AttributeDef {
	return &classlib.AttributeDef{Name: name, Index: index, Type: 2} // INTEGER
}

func TestResolveClassInstance(t *testing.T) {
	ref := refAttr("m_target", 0)
	num := intAttr("m_count", 1)
	class := &classlib.ClassDef{Index: 9, Name: "thing", Attrs: []*classlib.AttributeDef{ref, num}}

	inst := wstate.NewClassInstance(class)
	inst.SetAttrVal(ref, uint32(5))
	inst.SetAttrVal(num, uint32(42))

	dataset := wstate.NewDataSet([]uint32{5}, []interface{}{"resolved-thing"})
	provider := NewWStateDataSetReferenceProvider(dataset)
	r := NewResolver(provider, nil)

	if err := r.ResolveValue(context.Background(), inst); err != nil {
		t.Fatalf("ResolveValue: %v", err)
	}

	got, ok := inst.Get("m_target")
	if !ok || got != "resolved-thing" {
		t.Errorf("m_target = %v, ok=%v, want %q", got, ok, "resolved-thing")
	}
	if count, _ := inst.Get("m_count"); count != uint32(42) {
		t.Errorf("m_count = %v, want unchanged 42 (not a REFERENCE attribute)", count)
	}
	if unused := provider.GetUnusedReferences(); len(unused) != 0 {
		t.Errorf("GetUnusedReferences() = %v, want empty", unused)
	}
}

func TestResolvePassthroughFloor(t *testing.T) {
	provider := NewWStateDataSetReferenceProvider(wstate.NewDataSet(nil, nil))
	r := NewResolver(provider, nil)

	v, err := r.resolve(context.Background(), 0x70000000)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if v != uint32(0x70000000) {
		t.Errorf("resolve(passthrough) = %v, want the handle itself", v)
	}

	v, err = r.resolve(context.Background(), 0)
	if err != nil || v != nil {
		t.Errorf("resolve(0) = %v, %v, want nil, nil", v, err)
	}
}

func TestResolveMapValuesWritesBack(t *testing.T) {
	dataset := wstate.NewDataSet([]uint32{7}, []interface{}{"resolved-entry"})
	provider := NewWStateDataSetReferenceProvider(dataset)
	r := NewResolver(provider, nil)

	m := map[int64]interface{}{1: nativepkg.DataReference{Handle: 7}}
	if err := r.ResolveValue(context.Background(), m); err != nil {
		t.Fatalf("ResolveValue: %v", err)
	}

	// reference_resolver.py's map branch resolves the value but never
	// assigns it back into the dict; this implementation deliberately
	// fixes that and writes the resolved value into the map.
	if m[1] != "resolved-entry" {
		t.Errorf("m[1] = %v, want the resolved value written back", m[1])
	}
}

func TestResolveListValuesInPlace(t *testing.T) {
	dataset := wstate.NewDataSet([]uint32{3}, []interface{}{"resolved-item"})
	provider := NewWStateDataSetReferenceProvider(dataset)
	r := NewResolver(provider, nil)

	list := []interface{}{nativepkg.DataReference{Handle: 3}, "plain"}
	if err := r.ResolveValue(context.Background(), list); err != nil {
		t.Fatalf("ResolveValue: %v", err)
	}
	if list[0] != "resolved-item" {
		t.Errorf("list[0] = %v, want resolved-item", list[0])
	}
	if list[1] != "plain" {
		t.Errorf("list[1] = %v, want unchanged", list[1])
	}
}

func TestWStateDataSetReferenceProviderTracksUnused(t *testing.T) {
	dataset := wstate.NewDataSet([]uint32{1, 2}, []interface{}{"a", "b"})
	provider := NewWStateDataSetReferenceProvider(dataset)

	v, err := provider.GetReference(context.Background(), 1)
	if err != nil || v != "a" {
		t.Fatalf("GetReference(1) = %v, %v", v, err)
	}

	unused := provider.GetUnusedReferences()
	if len(unused) != 1 || unused[0] != 2 {
		t.Errorf("GetUnusedReferences() = %v, want [2]", unused)
	}
}

type fakeTable struct {
	values map[uint32]interface{}
	calls  int
}

func (f *fakeTable) GetValue(ctx context.Context, index uint32) (interface{}, error) {
	f.calls++
	return f.values[index], nil
}

func TestReferencesTableReferenceProviderDiscoversAndCaches(t *testing.T) {
	nested := []interface{}{nativepkg.DataReference{Handle: 20}}
	table := &fakeTable{values: map[uint32]interface{}{
		10: nested,
		20: "leaf",
	}}
	provider := NewReferencesTableReferenceProvider(table)
	r := NewResolver(provider, nil)

	if err := ResolveDeep(context.Background(), r, provider, nested); err != nil {
		t.Fatalf("ResolveDeep: %v", err)
	}
	if nested[0] != "leaf" {
		t.Errorf("nested[0] = %v, want leaf (resolved via the discovery stack)", nested[0])
	}

	if _, err := provider.GetReference(context.Background(), 10); err != nil {
		t.Fatalf("GetReference: %v", err)
	}
	if table.calls != 2 {
		t.Errorf("table.calls = %d, want 2 (handle 20 once inside ResolveDeep, handle 10 once via the explicit GetReference call above)", table.calls)
	}
}
