package patch

import (
	"math"
	"sync"
	"testing"

	"github.com/notargets/wingcoords/geometry"
	"github.com/notargets/wingcoords/newton"
	"github.com/notargets/wingcoords/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const tol = 1e-6

var pt = geometry.Pt

func newTranslator(p1, p2, p3, p4 geometry.Point3) *Translator {
	return NewTranslator(geometry.NewQuad(p1, p2, p3, p4), Options{})
}

func assertParams(t *testing.T, tr *Translator, target geometry.Point3, eta, xsi float64) {
	t.Helper()
	p, err := tr.ToParams(target)
	require.NoError(t, err)
	assert.InDelta(t, eta, p.Eta, tol, "eta for %v", target)
	assert.InDelta(t, xsi, p.Xsi, tol, "xsi for %v", target)
}

func TestUnitSquareScenario(t *testing.T) {
	tr := newTranslator(pt(0, 0, 0), pt(1, 0, 0), pt(0, 1, 0), pt(1, 1, 0))

	assert.Equal(t, pt(0.5, 0.5, 0), tr.ToPoint(0.5, 0.5))
	assertParams(t, tr, pt(0.5, 0.5, 0), 0.5, 0.5)

	p, err := tr.ToParams(pt(2, 2, 0))
	require.NoError(t, err)
	assert.Greater(t, p.Eta, 1.0)
	assert.Greater(t, p.Xsi, 1.0)
	assert.InDelta(t, 2.0, p.Eta, tol)
	assert.InDelta(t, 2.0, p.Xsi, tol)
	assert.InDelta(t, 0.0, p.Distance, tol)
}

func TestPlanarRectangleCornersExact(t *testing.T) {
	c := [4]geometry.Point3{pt(0, 0, 0), pt(2, 0, 0), pt(0, 1, 0), pt(2, 1, 0)}
	tr := newTranslator(c[0], c[1], c[2], c[3])
	want := [4][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	for i, corner := range c {
		p, err := tr.ToParams(corner)
		require.NoError(t, err)
		assert.Equal(t, want[i][0], p.Eta, "corner %d", i)
		assert.Equal(t, want[i][1], p.Xsi, "corner %d", i)
		assert.True(t, p.Converged)
	}
}

func TestRoundTripGrid(t *testing.T) {
	tr := newTranslator(pt(0, 4, 0), pt(8, 4, 0), pt(0, 0, -1), pt(4, 0, 0.5))
	for i := 0; i <= 10; i++ {
		for j := 0; j <= 10; j++ {
			eta, xsi := float64(i)/10, float64(j)/10
			assertParams(t, tr, tr.ToPoint(eta, xsi), eta, xsi)
		}
	}
}

func TestRoundTripOutsideQuad(t *testing.T) {
	tr := newTranslator(pt(0, 4, 0), pt(8, 4, 0), pt(0, 0, -1), pt(4, 0, 0.5))
	for _, c := range [][2]float64{{0.283, 0.8398}, {0.84723, 0.314159265}, {-1.735, 2.3}} {
		p, err := tr.ToParams(tr.ToPoint(c[0], c[1]))
		require.NoError(t, err)
		assert.InDelta(t, c[0], p.Eta, 1e-5)
		assert.InDelta(t, c[1], p.Xsi, 1e-5)
	}
}

func TestSimpleRectangle(t *testing.T) {
	tr := newTranslator(pt(0, 2, 0), pt(2, 2, 0), pt(0, 0, 0), pt(2, 0, 0))
	assertParams(t, tr, pt(1, 1, 0), 0.5, 0.5)
	assertParams(t, tr, pt(1, 0, 0), 0.5, 1.0)
	assertParams(t, tr, pt(0, 0, 0), 0.0, 1.0)
	assertParams(t, tr, pt(1.5, 1, 3), 0.75, 0.5)
}

func TestRotatedSquare(t *testing.T) {
	tr := newTranslator(pt(-1, 0, 0), pt(0, 1, 0), pt(0, -1, 0), pt(1, 0, 0))
	assertParams(t, tr, pt(0, 0, 0), 0.5, 0.5)
	assertParams(t, tr, pt(-1, 0, 0), 0, 0)
	assertParams(t, tr, pt(0, 1, 0), 1, 0)
	assertParams(t, tr, pt(0, -1, 0), 0, 1)
	assertParams(t, tr, pt(1, 0, 0), 1, 1)
}

func TestIndefiniteHessian(t *testing.T) {
	tr := newTranslator(pt(0, 2, 0), pt(2, 4, 0), pt(0, 0, 0), pt(2, 0, 0))
	assertParams(t, tr, pt(1, 1, 0), 0.5, 2./3.)
}

func TestTrapezoid(t *testing.T) {
	tr := newTranslator(pt(0, 4, 0), pt(8, 4, 0), pt(0, 0, 0), pt(4, 0, 0))
	assertParams(t, tr, pt(3, 2, 0), 0.5, 0.5)
	assertParams(t, tr, pt(1.5, 2, 0), 0.25, 0.5)
	assertParams(t, tr, pt(1.5, 2, -3), 0.25, 0.5)

	proj, err := tr.Project(pt(1.5, 2, -3))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.5, 2, 0}, []float64{proj.X, proj.Y, proj.Z}, tol)
}

func TestStartAtOrigin(t *testing.T) {
	q := geometry.NewQuad(pt(0, 0, 0), pt(1, 0, 0), pt(0, 1, 0), pt(1, 1, 0))
	tr := NewTranslator(q, Options{SeedSteps: -1})
	assertParams(t, tr, pt(0.5, 0.5, 0), 0.5, 0.5)
	assertParams(t, tr, pt(0.25, 0.75, 1), 0.25, 0.75)
}

func TestProjectBounded(t *testing.T) {
	tr := newTranslator(pt(0, 0, 0), pt(1, 0, 0), pt(0, 1, 0), pt(1, 1, 0))

	p, q, err := tr.ProjectBounded(pt(2, 0.5, 1))
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Eta)
	assert.InDelta(t, 0.5, p.Xsi, 1e-15)
	assert.InDelta(t, math.Sqrt2, p.Distance, 1e-12)
	assert.InDeltaSlice(t, []float64{1, 0.5, 0}, []float64{q.X, q.Y, q.Z}, 1e-12)

	p, q, err = tr.ProjectBounded(pt(0.3, 0.6, -2))
	require.NoError(t, err)
	assert.InDelta(t, 0.3, p.Eta, tol)
	assert.InDelta(t, 0.6, p.Xsi, tol)
	assert.InDelta(t, 2.0, p.Distance, tol)
	assert.InDelta(t, 0.0, q.Z, tol)
}

func TestSingularPatch(t *testing.T) {
	// zero area: the trailing edge coincides with the leading edge
	tr := newTranslator(pt(0, 0, 0), pt(1, 0, 0), pt(0, 0, 0), pt(1, 0, 0))
	_, err := tr.ToParams(pt(0.5, 1, 0))
	require.ErrorIs(t, err, utils.ErrSingularSystem)

	_, err = tr.Project(pt(0.5, 1, 0))
	require.ErrorIs(t, err, utils.ErrSingularSystem)

	p, q, err := tr.ProjectBounded(pt(0.5, 1, 0))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p.Eta, 1e-15)
	assert.Equal(t, 0.0, p.Xsi)
	assert.InDelta(t, 1.0, p.Distance, 1e-15)
	assert.InDelta(t, 0.5, q.X, 1e-15)
}

func TestNonFiniteTarget(t *testing.T) {
	tr := newTranslator(pt(0, 0, 0), pt(1, 0, 0), pt(0, 1, 0), pt(1, 1, 0))
	_, err := tr.ToParams(pt(math.NaN(), 0, 0))
	assert.ErrorIs(t, err, utils.ErrNonFinite)
}

func TestProjectionDerivatives(t *testing.T) {
	q := geometry.NewQuad(pt(0, 4, 0), pt(8, 4, 0), pt(0, 0, -1), pt(4, 0, 0.5))
	proj := NewProjection(q, pt(2, 1, 3))
	assert.Equal(t, pt(2, 1, 3), proj.Target())
	x := []float64{0.3, 0.6}

	numeric := newton.Func(proj.Value)
	assert.InDeltaSlice(t, newton.Gradient(nil, numeric, x, 1e-6), newton.Gradient(nil, proj, x, 0), 1e-5)

	ha := newton.Hessian(nil, proj, x, 0)
	hn := newton.Hessian(nil, numeric, x, 1e-4)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, ha.At(i, j), hn.At(i, j), 1e-3, "H[%d][%d]", i, j)
		}
	}

	g, h := newton.GradientHessian(nil, nil, proj, x, 0)
	assert.Equal(t, newton.Gradient(nil, proj, x, 0), g)
	assert.True(t, mat.Equal(ha, h))
}

func TestNormal(t *testing.T) {
	tr := newTranslator(pt(0, 0, 0), pt(0, 1, 0), pt(1, 0, 0), pt(1, 1, 0))
	n := tr.Normal(0.2, 0.9)
	assert.Equal(t, pt(0, 0, 1), n)
}

func TestConcurrentQueries(t *testing.T) {
	tr := newTranslator(pt(0, 4, 0), pt(8, 4, 0), pt(0, 0, -1), pt(4, 0, 0.5))
	want, err := tr.ToParams(tr.ToPoint(0.4, 0.3))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Params, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = tr.ToParams(tr.ToPoint(0.4, 0.3))
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, want, r)
	}
}
