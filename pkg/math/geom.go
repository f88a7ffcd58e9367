package math

// TriangleArea returns the area of triangle abc.
func TriangleArea(a, b, c Vec3) float32 {
	return b.Sub(a).Cross(c.Sub(a)).Length() * 0.5
}

// TriangleNormal returns the unit normal of triangle abc (counter-clockwise winding).
func TriangleNormal(a, b, c Vec3) Vec3 {
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}

// LinePointFactor returns the parameter t of the projection of p onto the
// line through l1 and l2, where t=0 is l1 and t=1 is l2. A zero-length line
// gives 0.
func LinePointFactor(p, l1, l2 Vec3) float32 {
	dir := l2.Sub(l1)
	dot := dir.Dot(dir)
	if dot == 0 {
		return 0
	}
	return p.Sub(l1).Dot(dir) / dot
}

// ClosestPointOnTriangle returns the point of triangle abc nearest to p.
func ClosestPointOnTriangle(p, a, b, c Vec3) Vec3 {
	ab := b.Sub(a)
	ac := c.Sub(a)

	// Vertex region A
	ap := p.Sub(a)
	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	// Vertex region B
	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	// Edge region AB
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Scale(v))
	}

	// Vertex region C
	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	// Edge region AC
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Scale(w))
	}

	// Edge region BC
	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Scale(w))
	}

	// Face region
	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.Scale(v)).Add(ac.Scale(w))
}

// TriangleWeights returns the barycentric weights of p with respect to
// triangle abc. p is assumed to lie in the triangle plane. ok is false when
// the triangle is degenerate.
func TriangleWeights(p, a, b, c Vec3) (w [3]float32, ok bool) {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := p.Sub(a)

	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)

	denom := d00*d11 - d01*d01
	// Relative threshold so that scale does not matter
	if denom <= 1e-4*d00*d11 || denom == 0 {
		return w, false
	}

	w[1] = (d11*d20 - d01*d21) / denom
	w[2] = (d00*d21 - d01*d20) / denom
	w[0] = 1 - w[1] - w[2]
	return w, true
}
