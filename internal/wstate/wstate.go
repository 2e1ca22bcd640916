// Package wstate decodes serialized "WState" object graphs (§4.J): a
// class bundle of ad-hoc embedded-object definitions, followed by a run
// of top-level values addressed by reference handle.
package wstate

import "sort"

// DataSet is the decoded contents of one WState buffer: the declared
// reference handles in encounter order, their corresponding decoded
// values (parallel slices, index-aligned), and any handles a later
// resolution pass found no backing value for.
type DataSet struct {
	references []uint32
	values     []interface{}
	orphanRefs []uint32
}

func newDataSet() *DataSet {
	return &DataSet{}
}

// NewDataSet builds a DataSet directly from its reference/value pairs.
// Exported for WStateDataSetReferenceProvider, which indexes an
// already-decoded DataSet by handle rather than decoding one itself.
func NewDataSet(references []uint32, values []interface{}) *DataSet {
	return &DataSet{references: references, values: values}
}

func (d *DataSet) addReference(ref uint32) {
	d.references = append(d.references, ref)
}

func (d *DataSet) addValue(v interface{}) {
	d.values = append(d.values, v)
}

// References returns the reference handles declared by this WState, in
// declaration order.
func (d *DataSet) References() []uint32 {
	return d.references
}

// OrphanReferences returns, sorted ascending, the handles that
// SetOrphanReferences was last given.
func (d *DataSet) OrphanReferences() []uint32 {
	return d.orphanRefs
}

// SetOrphanReferences records handles a resolution pass could not find
// a backing value for.
func (d *DataSet) SetOrphanReferences(refs []uint32) {
	out := make([]uint32, len(refs))
	copy(out, refs)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	d.orphanRefs = out
}

// Size returns the number of decoded top-level values.
func (d *DataSet) Size() int {
	return len(d.values)
}

// Value returns the value at the given index.
func (d *DataSet) Value(index int) interface{} {
	return d.values[index]
}

// ValueForReference looks up the value registered under the given
// reference handle, returning (nil, false) if the handle was never
// declared by this WState.
func (d *DataSet) ValueForReference(ref uint32) (interface{}, bool) {
	for i, r := range d.references {
		if r == ref {
			return d.values[i], true
		}
	}
	return nil, false
}
