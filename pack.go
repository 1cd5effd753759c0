package gmarch

import (
	"encoding/binary"
	"math"

	"github.com/soypat/geometry/ms3"
)

// Packed scene layout for GPU hosts. All fields little-endian, vectors padded
// to 16 bytes to satisfy std140-style alignment.

var packOrder = binary.LittleEndian

// AppendShapeData appends the shape buffer to dst as fixed 48 byte records:
// int32 kind, material, op and next link followed by 8 float32 parameters.
func (s *Scene) AppendShapeData(dst []byte) []byte {
	for i := range s.Shapes {
		sh := &s.Shapes[i]
		dst = packOrder.AppendUint32(dst, uint32(sh.Kind))
		dst = packOrder.AppendUint32(dst, uint32(sh.Material))
		dst = packOrder.AppendUint32(dst, uint32(sh.Op))
		dst = packOrder.AppendUint32(dst, uint32(sh.Next))
		for _, f := range sh.Params {
			dst = packOrder.AppendUint32(dst, math.Float32bits(f))
		}
	}
	return dst
}

// AppendMaterialData appends the material buffer to dst as fixed 48 byte
// records: albedo, emission (both padded to 4 floats), then metallic,
// roughness and ambient occlusion with a trailing pad.
func (s *Scene) AppendMaterialData(dst []byte) []byte {
	for i := range s.Materials {
		m := &s.Materials[i]
		dst = appendVec4(dst, m.Albedo)
		dst = appendVec4(dst, m.Emission)
		dst = packOrder.AppendUint32(dst, math.Float32bits(m.Metallic))
		dst = packOrder.AppendUint32(dst, math.Float32bits(m.Roughness))
		dst = packOrder.AppendUint32(dst, math.Float32bits(m.AO))
		dst = packOrder.AppendUint32(dst, 0)
	}
	return dst
}

// AppendSceneData appends the scene block to dst: background color, light
// direction and light color padded to 4 floats each, then the chain root
// indices terminated by a -1 sentinel.
func (s *Scene) AppendSceneData(dst []byte) []byte {
	dst = appendVec4(dst, s.Background)
	dst = appendVec4(dst, s.Light.Dir)
	dst = appendVec4(dst, s.Light.Color)
	for _, r := range s.Roots {
		dst = packOrder.AppendUint32(dst, uint32(r))
	}
	sentinel := int32(-1)
	dst = packOrder.AppendUint32(dst, uint32(sentinel))
	return dst
}

// AppendCloudData appends the density volume to dst: int32 NX, NY, NZ and
// TilesX followed by the raw float32 atlas. Scenes without a volume append
// four zero dimensions and no samples.
func (s *Scene) AppendCloudData(dst []byte) []byte {
	v := s.Cloud
	if v == nil {
		for range 4 {
			dst = packOrder.AppendUint32(dst, 0)
		}
		return dst
	}
	dst = packOrder.AppendUint32(dst, uint32(v.NX))
	dst = packOrder.AppendUint32(dst, uint32(v.NY))
	dst = packOrder.AppendUint32(dst, uint32(v.NZ))
	dst = packOrder.AppendUint32(dst, uint32(v.TilesX))
	for _, f := range v.Atlas {
		dst = packOrder.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}

func appendVec4(dst []byte, v ms3.Vec) []byte {
	dst = packOrder.AppendUint32(dst, math.Float32bits(v.X))
	dst = packOrder.AppendUint32(dst, math.Float32bits(v.Y))
	dst = packOrder.AppendUint32(dst, math.Float32bits(v.Z))
	dst = packOrder.AppendUint32(dst, 0)
	return dst
}
