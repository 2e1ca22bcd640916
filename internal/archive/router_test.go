package archive

import (
	"reflect"
	"testing"
)

func TestArchivesForKnownRanges(t *testing.T) {
	cases := []struct {
		did  uint32
		want []string
	}{
		{0x34000000, []string{"gamelogic"}}, // property registry resource, §4.E
		{872415232, []string{"gamelogic"}},
		{0x01000000, []string{"general"}},
		{2147680300, []string{"cell_3"}},
	}
	for _, c := range cases {
		got := ArchivesFor(c.did)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("ArchivesFor(%#x) = %v, want %v", c.did, got, c.want)
		}
	}
}

func TestArchivesForNoMatch(t *testing.T) {
	if got := ArchivesFor(0xFFFFFFFF); got != nil {
		t.Errorf("ArchivesFor(max) = %v, want nil", got)
	}
}
