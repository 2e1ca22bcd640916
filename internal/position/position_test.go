package position

import (
	"testing"

	"github.com/ashenvale/charstate/internal/binreader"
)

func TestFromStreamRoundTrip(t *testing.T) {
	region := uint8(5)
	bx, by := uint8(10), uint8(20)
	instance := uint16(3)
	cell := uint16(7)

	cases := []Position{
		{Flags: 0},
		{Flags: FlagRegion, Region: &region},
		{Flags: FlagBlock, BlockX: &bx, BlockY: &by},
		{Flags: FlagInstance, Instance: &instance},
		{Flags: FlagCell, Cell: &cell},
		{Flags: FlagPos, Offset: &Vector3{X: 1.5, Y: -2.25, Z: 3}},
		{Flags: FlagRot, Rotation: &Quaternion{X: 0, Y: 0, Z: 0, W: 1}},
		{
			Flags: FlagRegion | FlagBlock | FlagInstance | FlagCell | FlagPos | FlagRot,
			Region: &region, BlockX: &bx, BlockY: &by, Instance: &instance, Cell: &cell,
			Offset: &Vector3{X: 1, Y: 2, Z: 3}, Rotation: &Quaternion{X: 0.1, Y: 0.2, Z: 0.3, W: 0.4},
		},
	}

	for i, want := range cases {
		encoded := want.ToStream()
		r := binreader.New(encoded)
		got, err := FromStream(r)
		if err != nil {
			t.Fatalf("case %d: FromStream failed: %v", i, err)
		}
		if got.Flags != want.Flags {
			t.Errorf("case %d: Flags = %#x, want %#x", i, got.Flags, want.Flags)
		}
		if (got.Region == nil) != (want.Region == nil) {
			t.Errorf("case %d: Region presence mismatch", i)
		}
		if got.Offset != nil && want.Offset != nil && *got.Offset != *want.Offset {
			t.Errorf("case %d: Offset = %+v, want %+v", i, *got.Offset, *want.Offset)
		}
		if got.Rotation != nil && want.Rotation != nil && *got.Rotation != *want.Rotation {
			t.Errorf("case %d: Rotation = %+v, want %+v", i, *got.Rotation, *want.Rotation)
		}
	}
}
