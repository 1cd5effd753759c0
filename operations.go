package gmarch

// Op combines a chain link's running distance with its successor's distance.
// Operators fold left to right along a chain; there is no sub-expression
// grouping. Op values are part of the packed scene layout and must not be
// renumbered.
type Op int32

const (
	// OpNop yields the distance sentinel when used to combine, discarding
	// the chain. It is the operator of terminal links, where it never runs.
	OpNop Op = iota
	OpUnion
	OpDiff
	OpIntersect
	OpSmoothUnion
)

// smoothRadius is the fixed blend radius of [OpSmoothUnion].
const smoothRadius = 1.0

// combine folds the successor's distance b into the running distance a.
// Unknown operators yield the distance sentinel.
func (op Op) combine(a, b float32) float32 {
	switch op {
	case OpUnion:
		return minf(a, b)
	case OpDiff:
		return maxf(a, -b)
	case OpIntersect:
		return maxf(a, b)
	case OpSmoothUnion:
		const k = smoothRadius
		h := clampf(0.5+0.5*(b-a)/k, 0, 1)
		return mixf(b, a, h) - k*h*(1-h)
	}
	return largenum
}

// Union joins chain b onto chain a so the combined distance is the minimum
// of both. Is exact. Returns the root of the combined chain.
func (bld *Builder) Union(a, b ShapeID) ShapeID {
	return bld.link(a, b, OpUnion)
}

// Difference carves chain b out of chain a. Returns the root of the
// combined chain.
func (bld *Builder) Difference(a, b ShapeID) ShapeID {
	return bld.link(a, b, OpDiff)
}

// Intersection keeps the region common to chains a and b. Returns the root
// of the combined chain.
func (bld *Builder) Intersection(a, b ShapeID) ShapeID {
	return bld.link(a, b, OpIntersect)
}

// SmoothUnion joins chains a and b blending their surfaces together
// polynomially over a fixed unit blend radius. Returns the root of the
// combined chain.
func (bld *Builder) SmoothUnion(a, b ShapeID) ShapeID {
	return bld.link(a, b, OpSmoothUnion)
}

// link appends chain b to the tail of chain a. The shared record buffer
// must stay acyclic: b may not reach any link of a.
func (bld *Builder) link(a, b ShapeID, op Op) ShapeID {
	n := ShapeID(len(bld.shapes))
	if a < 0 || a >= n || b < 0 || b >= n {
		bld.shapeErrorf("chain operand out of bounds")
		return a
	}
	if a == b {
		bld.shapeErrorf("cannot combine chain %d with itself", a)
		return a
	}
	for i := int32(b); i != -1; i = bld.shapes[i].Next {
		for j := int32(a); j != -1; j = bld.shapes[j].Next {
			if i == j {
				bld.shapeErrorf("combining chains %d and %d would form a cycle", a, b)
				return a
			}
		}
	}
	tail := bld.chainTail(a)
	bld.shapes[tail].Op = op
	bld.shapes[tail].Next = int32(b)
	return a
}
