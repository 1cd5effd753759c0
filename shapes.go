package gmarch

import (
	"github.com/soypat/geometry/ms3"
)

// Kind discriminates the primitive held by a [Shape] record. Kind values are
// part of the packed scene layout (see [Scene.AppendShapeData]) and must not
// be renumbered.
type Kind int32

const (
	KindSphere   Kind = 0
	KindBox      Kind = 1
	KindBoxFrame Kind = 2
	KindTorus    Kind = 3
	// KindCloud bounds a volumetrically shaded region of the scene's
	// [CloudVolume]. Cloud surfaces terminate ray bounces.
	KindCloud Kind = 6
)

// ShapeID references a shape record created by a [Builder].
type ShapeID int32

// Shape is a fixed-size primitive record. Shapes form singly linked chains
// through Next: walking a chain folds each link's distance into a running
// distance using the operator stored on the preceding link. Records reference
// materials and successor shapes by index only, so a scene's buffers can be
// relocated or serialized wholesale.
type Shape struct {
	Kind     Kind
	Material int32
	// Op combines this link's running distance with the shape at Next.
	Op Op
	// Next indexes the successor link, -1 terminates the chain.
	Next int32
	// Params is interpreted per Kind:
	//
	//	Sphere:   cx cy cz r
	//	Box:      cx cy cz hx hy hz    (h: half extents)
	//	BoxFrame: cx cy cz hx hy hz e  (e: half frame thickness)
	//	Torus:    cx cy cz R r         (R: greater radius, r: tube radius)
	//	Cloud:    cx cy cz hx hy hz
	Params [8]float32
}

// Center returns the shape's stored center position.
func (sh *Shape) Center() ms3.Vec {
	return ms3.Vec{X: sh.Params[0], Y: sh.Params[1], Z: sh.Params[2]}
}

// halves returns the half extents of box-like kinds.
func (sh *Shape) halves() ms3.Vec {
	return ms3.Vec{X: sh.Params[3], Y: sh.Params[4], Z: sh.Params[5]}
}

// Bounds returns the shape's axis aligned bounding box. Boxes and clouds are
// bounded exactly, spheres and tori conservatively.
func (sh *Shape) Bounds() ms3.Box {
	c := sh.Center()
	switch sh.Kind {
	case KindSphere:
		r := sh.Params[3]
		return ms3.NewCenteredBox(c, ms3.Vec{X: 2 * r, Y: 2 * r, Z: 2 * r})
	case KindBox, KindBoxFrame, KindCloud:
		return ms3.NewCenteredBox(c, ms3.Scale(2, sh.halves()))
	case KindTorus:
		R, r := sh.Params[3], sh.Params[4]
		return ms3.NewCenteredBox(c, ms3.Vec{X: 2 * (R + r), Y: 2 * r, Z: 2 * (R + r)})
	}
	return ms3.Box{}
}

// NewSphere adds a sphere of radius r centered at c.
func (bld *Builder) NewSphere(c ms3.Vec, r float32, m MaterialID) ShapeID {
	if r <= 0 {
		bld.shapeErrorf("zero or negative sphere radius")
	}
	return bld.addShape(KindSphere, m, [8]float32{c.X, c.Y, c.Z, r})
}

// NewBox adds a box with side lengths dims centered at c.
func (bld *Builder) NewBox(c, dims ms3.Vec, m MaterialID) ShapeID {
	if dims.X <= 0 || dims.Y <= 0 || dims.Z <= 0 {
		bld.shapeErrorf("zero or negative box dimension")
	}
	h := ms3.Scale(0.5, dims)
	return bld.addShape(KindBox, m, [8]float32{c.X, c.Y, c.Z, h.X, h.Y, h.Z})
}

// NewBoxFrame adds a hollow box frame with side lengths dims centered at c
// whose edges are square beams of thickness e.
func (bld *Builder) NewBoxFrame(c, dims ms3.Vec, e float32, m MaterialID) ShapeID {
	e /= 2
	if dims.X <= 0 || dims.Y <= 0 || dims.Z <= 0 || e <= 0 {
		bld.shapeErrorf("negative or zero box frame dimension")
	}
	if 2*e > minf(dims.X, minf(dims.Y, dims.Z)) {
		bld.shapeErrorf("box frame edge thickness too large")
	}
	h := ms3.Scale(0.5, dims)
	return bld.addShape(KindBoxFrame, m, [8]float32{c.X, c.Y, c.Z, h.X, h.Y, h.Z, e})
}

// NewTorus adds a torus centered at c with its axis along world Y.
// The greater radius measures from the center to the middle of the tube,
// the lesser radius is the tube's own.
func (bld *Builder) NewTorus(c ms3.Vec, greaterRadius, lesserRadius float32, m MaterialID) ShapeID {
	if greaterRadius < 2*lesserRadius {
		bld.shapeErrorf("too large torus lesser radius")
	}
	if greaterRadius <= 0 || lesserRadius <= 0 {
		bld.shapeErrorf("invalid torus parameter")
	}
	return bld.addShape(KindTorus, m, [8]float32{c.X, c.Y, c.Z, greaterRadius, lesserRadius})
}

// NewCloudBox adds a volumetric cloud bounded by a box with side lengths dims
// centered at c. The density inside the box comes from the scene's
// [CloudVolume], see [Builder.SetCloud].
func (bld *Builder) NewCloudBox(c, dims ms3.Vec, m MaterialID) ShapeID {
	if dims.X <= 0 || dims.Y <= 0 || dims.Z <= 0 {
		bld.shapeErrorf("zero or negative cloud box dimension")
	}
	h := ms3.Scale(0.5, dims)
	return bld.addShape(KindCloud, m, [8]float32{c.X, c.Y, c.Z, h.X, h.Y, h.Z})
}

func (bld *Builder) addShape(k Kind, m MaterialID, params [8]float32) ShapeID {
	if m < 0 || int(m) >= len(bld.materials) {
		bld.shapeErrorf("material %d not registered with AddMaterial", m)
	}
	bld.shapes = append(bld.shapes, Shape{
		Kind:     k,
		Material: int32(m),
		Op:       OpNop,
		Next:     -1,
		Params:   params,
	})
	return ShapeID(len(bld.shapes) - 1)
}
