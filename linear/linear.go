// Package linear provides the small column-major vector/matrix set the
// camera payload type needs. It is deliberately minimal: only the
// operations a view/projection producer exercises are defined here;
// anything fancier belongs to the concrete node implementations outside
// the core.
package linear

import "math"

// V3 is a three-component vector of float32.
type V3 [3]float32

// Add sets v to contain l + r.
func (v *V3) Add(l, r *V3) {
	for i := range v {
		v[i] = l[i] + r[i]
	}
}

// Sub sets v to contain l - r.
func (v *V3) Sub(l, r *V3) {
	for i := range v {
		v[i] = l[i] - r[i]
	}
}

// Scale sets v to contain s ⋅ w.
func (v *V3) Scale(s float32, w *V3) {
	for i := range v {
		v[i] = s * w[i]
	}
}

// Dot returns v ⋅ w.
func (v *V3) Dot(w *V3) (d float32) {
	for i := range v {
		d += v[i] * w[i]
	}
	return
}

// Len returns the length of v.
func (v *V3) Len() float32 { return float32(math.Sqrt(float64(v.Dot(v)))) }

// Norm sets v to contain the normalized w.
func (v *V3) Norm(w *V3) { v.Scale(1/w.Len(), w) }

// Cross sets v to contain l × r.
func (v *V3) Cross(l, r *V3) {
	*v = V3{
		l[1]*r[2] - l[2]*r[1],
		l[2]*r[0] - l[0]*r[2],
		l[0]*r[1] - l[1]*r[0],
	}
}

// V4 is a four-component vector of float32.
type V4 [4]float32

// Dot returns v ⋅ w.
func (v *V4) Dot(w *V4) (d float32) {
	for i := range v {
		d += v[i] * w[i]
	}
	return
}

// Mul sets v to contain m ⋅ w.
func (v *V4) Mul(m *M4, w *V4) {
	*v = V4{}
	for i := range m {
		for j := range v {
			v[j] += m[i][j] * w[i]
		}
	}
}

// M4 is a column-major 4x4 matrix of float32.
type M4 [4]V4

// I makes m an identity matrix.
func (m *M4) I() { *m = M4{{1}, {0, 1}, {0, 0, 1}, {0, 0, 0, 1}} }

// Mul sets m to contain l ⋅ r.
func (m *M4) Mul(l, r *M4) {
	*m = M4{}
	for i := range m {
		for j := range m {
			for k := range m {
				m[i][j] += l[k][j] * r[i][k]
			}
		}
	}
}

// Transpose sets m to contain the transpose of n.
func (m *M4) Transpose(n *M4) {
	for i := range m {
		m[i][i] = n[i][i]
		for j := i + 1; j < len(m); j++ {
			m[i][j], m[j][i] = n[j][i], n[i][j]
		}
	}
}

// LookAt sets m to contain a right-handed view matrix for a camera at
// eye looking toward center with the given up vector.
func (m *M4) LookAt(eye, center, up *V3) {
	var f, s, u V3
	f.Sub(center, eye)
	f.Norm(&f)
	s.Cross(&f, up)
	s.Norm(&s)
	u.Cross(&f, &s)
	*m = M4{
		{s[0], u[0], -f[0], 0},
		{s[1], u[1], -f[1], 0},
		{s[2], u[2], -f[2], 0},
		{-s.Dot(eye), -u.Dot(eye), f.Dot(eye), 1},
	}
}

// InfPerspective sets m to contain an infinite-far-plane perspective
// projection with the given vertical field of view (radians), aspect
// ratio and near plane.
func (m *M4) InfPerspective(yfov, aspectRatio, znear float32) {
	ct := float32(1 / math.Tan(float64(yfov)*0.5))
	*m = M4{
		{ct / aspectRatio},
		{0, ct},
		{0, 0, -1, -1},
		{0, 0, -2 * znear, 0},
	}
}

// Perspective sets m to contain a perspective projection with explicit
// near and far planes.
func (m *M4) Perspective(yfov, aspectRatio, znear, zfar float32) {
	ct := float32(1 / math.Tan(float64(yfov)*0.5))
	nf := znear - zfar
	*m = M4{
		{ct / aspectRatio},
		{0, ct},
		{0, 0, (zfar + znear) / nf, -1},
		{0, 0, 2 * zfar * znear / nf, 0},
	}
}
