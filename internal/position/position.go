// Package position implements the client's compound Position value: a
// flag-driven region/block/instance/cell/offset/rotation tuple, plus the
// small Vector3/Quaternion/Color records it is built from.
package position

import (
	"math"

	"github.com/ashenvale/charstate/internal/binreader"
)

// Vector3 is a 3-component float vector (position offset, in-world units).
type Vector3 struct {
	X, Y, Z float32
}

// Quaternion is a 4-component rotation.
type Quaternion struct {
	X, Y, Z, W float32
}

// Color is a packed RGBA color, one byte per channel.
type Color struct {
	R, G, B, A uint8
}

// Position flag bits, from the wire format in spec §6.
const (
	FlagRegion   uint8 = 0x01
	FlagBlock    uint8 = 0x02
	FlagInstance uint8 = 0x04
	FlagCell     uint8 = 0x08
	FlagPos      uint8 = 0x10
	FlagRot      uint8 = 0x20
	FlagRegionX  uint8 = 0x40 // inhibits Region despite FlagRegion
	FlagCellX    uint8 = 0x80 // inhibits Cell despite FlagCell
)

// Position is the client's compound location value. Each pointer field is
// nil when its corresponding flag bit was not set.
type Position struct {
	Flags    uint8
	Region   *uint8
	BlockX   *uint8
	BlockY   *uint8
	Instance *uint16
	Cell     *uint16
	Offset   *Vector3
	Rotation *Quaternion
}

// FromStream decodes a Position from its wire form (spec §6 "Position wire
// format (from stream)"): a leading flag byte followed by the subset of
// fields the flags select, in fixed order.
func FromStream(r *binreader.Reader) (Position, error) {
	var p Position
	flags, err := r.U8()
	if err != nil {
		return p, err
	}
	p.Flags = flags

	if flags&FlagRegion != 0 && flags&FlagRegionX == 0 {
		v, err := r.U8()
		if err != nil {
			return p, err
		}
		p.Region = &v
	}
	if flags&FlagBlock != 0 {
		bx, err := r.U8()
		if err != nil {
			return p, err
		}
		by, err := r.U8()
		if err != nil {
			return p, err
		}
		p.BlockX, p.BlockY = &bx, &by
	}
	if flags&FlagInstance != 0 {
		v, err := r.U16()
		if err != nil {
			return p, err
		}
		p.Instance = &v
	}
	if flags&FlagCell != 0 && flags&FlagCellX == 0 {
		v, err := r.U16()
		if err != nil {
			return p, err
		}
		p.Cell = &v
	}
	if flags&FlagPos != 0 {
		x, err := r.F32()
		if err != nil {
			return p, err
		}
		y, err := r.F32()
		if err != nil {
			return p, err
		}
		z, err := r.F32()
		if err != nil {
			return p, err
		}
		p.Offset = &Vector3{X: x, Y: y, Z: z}
	}
	if flags&FlagRot != 0 {
		x, err := r.F32()
		if err != nil {
			return p, err
		}
		y, err := r.F32()
		if err != nil {
			return p, err
		}
		z, err := r.F32()
		if err != nil {
			return p, err
		}
		w, err := r.F32()
		if err != nil {
			return p, err
		}
		p.Rotation = &Quaternion{X: x, Y: y, Z: z, W: w}
	}
	return p, nil
}

// ToStream re-encodes a Position the way FromStream expects to read it
// back; used by round-trip tests and not by any decoder.
func (p Position) ToStream() []byte {
	var out []byte
	out = append(out, p.Flags)
	if p.Region != nil {
		out = append(out, *p.Region)
	}
	if p.BlockX != nil {
		out = append(out, *p.BlockX, *p.BlockY)
	}
	if p.Instance != nil {
		out = append(out, u16le(*p.Instance)...)
	}
	if p.Cell != nil {
		out = append(out, u16le(*p.Cell)...)
	}
	if p.Offset != nil {
		out = append(out, f32le(p.Offset.X)...)
		out = append(out, f32le(p.Offset.Y)...)
		out = append(out, f32le(p.Offset.Z)...)
	}
	if p.Rotation != nil {
		out = append(out, f32le(p.Rotation.X)...)
		out = append(out, f32le(p.Rotation.Y)...)
		out = append(out, f32le(p.Rotation.Z)...)
		out = append(out, f32le(p.Rotation.W)...)
	}
	return out
}

func u16le(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

func f32le(v float32) []byte {
	bits := math.Float32bits(v)
	return []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
}
