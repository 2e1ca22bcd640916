// Package resolver turns the raw reference handles and DataReference
// placeholders left behind by other decoders into the objects they
// name (§4.M), grounded on reference_resolver.py.
package resolver

import (
	"context"
	"reflect"

	"github.com/ashenvale/charstate/internal/gamelog"
	"github.com/ashenvale/charstate/internal/nativepkg"
	"github.com/ashenvale/charstate/internal/wstate"
)

// referenceAttrType is classlib.AttributeDef's REFERENCE type code; only
// attributes declared with this type are candidates for resolution.
const referenceAttrType = 1

// passthroughFloor is the handle value at and above which a reference is
// not a table/dataset handle at all but an opaque sentinel the client
// expects back unresolved (e.g. a null-object marker baked into a high
// address range).
const passthroughFloor = 1879048192 // 0x70000000

// ReferenceProvider resolves one reference handle to the value it names.
// WStateDataSetReferenceProvider and ReferencesTableReferenceProvider are
// the two sources a provider wraps.
type ReferenceProvider interface {
	GetReference(ctx context.Context, handle uint32) (interface{}, error)
}

// Resolver walks a decoded value, replacing every reference handle and
// nativepkg.DataReference it finds with the value a ReferenceProvider
// resolves it to.
type Resolver struct {
	provider ReferenceProvider
	logger   *gamelog.Helper
}

func NewResolver(provider ReferenceProvider, logger *gamelog.Helper) *Resolver {
	if logger == nil {
		logger = gamelog.NewNop()
	}
	return &Resolver{provider: provider, logger: logger}
}

// ResolveValue walks value in place: a *wstate.ClassInstance has its
// REFERENCE-typed attributes resolved, a map has any DataReference value
// resolved (everything else recursed into), and a slice does the same by
// index. Anything else is left untouched — it has no references to find.
func (r *Resolver) ResolveValue(ctx context.Context, value interface{}) error {
	if value == nil {
		return nil
	}
	if inst, ok := value.(*wstate.ClassInstance); ok {
		return r.resolveClassInstance(ctx, inst)
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map:
		return r.resolveMapValues(ctx, rv)
	case reflect.Slice, reflect.Array:
		return r.resolveListValues(ctx, rv)
	}
	return nil
}

// resolveClassInstance resolves every REFERENCE-typed attribute whose
// current value is an integer handle, walking the class's declared
// attribute list directly (not sorted_attributes, and not flattened
// across the parent chain — matching the original's single-class scan).
func (r *Resolver) resolveClassInstance(ctx context.Context, inst *wstate.ClassInstance) error {
	if inst == nil || inst.Class == nil {
		return nil
	}
	for _, attr := range inst.Class.Attrs {
		if attr.Type != referenceAttrType {
			continue
		}
		val, ok := inst.GetAttrVal(attr)
		if !ok {
			continue
		}
		handle, ok := toHandle(val)
		if !ok {
			continue
		}
		resolved, err := r.resolve(ctx, handle)
		if err != nil {
			return err
		}
		inst.SetAttrVal(attr, resolved)
	}
	return nil
}

// resolveMapValues resolves DataReference-wrapped entries and recurses
// into everything else, using reflection since the decoders in this
// program produce map values of several concrete key/value shapes
// (map[uint32]interface{}, map[int64]interface{}, and so on) rather
// than one uniform type. A resolved value is written back only into a
// map whose value type can hold it, such as interface{}.
//
// reference_resolver.py's map branch resolves the DataReference but
// assigns the result back to its own local loop variable instead of the
// dict entry, so the resolved value is discarded there; here it is
// written back into the map.
func (r *Resolver) resolveMapValues(ctx context.Context, rv reflect.Value) error {
	for _, key := range rv.MapKeys() {
		entry := rv.MapIndex(key)
		if entry.Kind() == reflect.Interface {
			entry = entry.Elem()
		}
		if dr, ok := asDataReference(entry); ok {
			resolved, err := r.resolve(ctx, dr.Handle)
			if err != nil {
				return err
			}
			if resolved == nil {
				rv.SetMapIndex(key, reflect.Value{})
			} else {
				rv.SetMapIndex(key, reflect.ValueOf(resolved))
			}
			continue
		}
		if entry.IsValid() && entry.CanInterface() {
			if err := r.ResolveValue(ctx, entry.Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveListValues resolves DataReference entries in place by index and
// recurses into everything else, matching
// __resolve_references_in_list_values's in-place list mutation.
func (r *Resolver) resolveListValues(ctx context.Context, rv reflect.Value) error {
	for i := 0; i < rv.Len(); i++ {
		entry := rv.Index(i)
		val := entry.Interface()
		if dr, ok := val.(nativepkg.DataReference); ok {
			resolved, err := r.resolve(ctx, dr.Handle)
			if err != nil {
				return err
			}
			if entry.CanSet() {
				if resolved == nil {
					entry.Set(reflect.Zero(entry.Type()))
				} else {
					entry.Set(reflect.ValueOf(resolved))
				}
			}
			continue
		}
		if err := r.ResolveValue(ctx, val); err != nil {
			return err
		}
	}
	return nil
}

// resolve applies the handle resolution rule: a handle at or above the
// passthrough floor names itself, not an object; a positive handle below
// it is looked up through the provider; zero or negative has nothing to
// resolve to.
func (r *Resolver) resolve(ctx context.Context, handle uint32) (interface{}, error) {
	if handle >= passthroughFloor {
		return handle, nil
	}
	if handle == 0 {
		return nil, nil
	}
	v, err := r.provider.GetReference(ctx, handle)
	if err != nil {
		r.logger.Warnw("reference lookup failed", "handle", handle, "err", err)
		return nil, nil
	}
	return v, nil
}

func asDataReference(v reflect.Value) (nativepkg.DataReference, bool) {
	if !v.IsValid() || !v.CanInterface() {
		return nativepkg.DataReference{}, false
	}
	dr, ok := v.Interface().(nativepkg.DataReference)
	return dr, ok
}

// toHandle accepts the handful of integer shapes a class attribute's
// current value might carry before resolution (the class library only
// ever emits uint32 for INTEGER/REFERENCE-typed attributes, but this
// accepts the signed/64-bit forms too rather than assume).
func toHandle(v interface{}) (uint32, bool) {
	switch n := v.(type) {
	case uint32:
		return n, true
	case int32:
		return uint32(n), true
	case int:
		return uint32(n), true
	case uint64:
		return uint32(n), true
	case int64:
		return uint32(n), true
	}
	return 0, false
}
