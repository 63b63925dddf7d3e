package newton

import (
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// DefaultStep is the finite difference step used when none is configured.
const DefaultStep = 1e-5

// ObjectiveFunction is a scalar function of an n-dimensional parameter
// vector. Value must be a pure function of x.
type ObjectiveFunction interface {
	Value(x []float64) float64
}

// Gradienter is implemented by objectives with an analytic gradient.
// Gradient writes the len(x) partial derivatives into dst.
type Gradienter interface {
	Gradient(dst, x []float64)
}

// Hessianer is implemented by objectives with an analytic Hessian.
// Hessian writes the len(x)×len(x) second derivatives into dst.
type Hessianer interface {
	Hessian(dst *mat.SymDense, x []float64)
}

// GradHessianer is implemented by objectives that compute gradient and
// Hessian in one pass. The results must match Gradient and Hessian.
type GradHessianer interface {
	GradientHessian(grad []float64, hess *mat.SymDense, x []float64)
}

// Gradient writes the gradient of f at x into dst, using the analytic
// gradient when f provides one and central differences with step h
// otherwise. h <= 0 selects DefaultStep.
func Gradient(dst []float64, f ObjectiveFunction, x []float64, h float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(x))
	}
	if g, ok := f.(Gradienter); ok {
		g.Gradient(dst, x)
		return dst
	}
	return fd.Gradient(dst, f.Value, x, &fd.Settings{
		Formula: fd.Central,
		Step:    stepOrDefault(h),
	})
}

// Hessian writes the Hessian of f at x into dst, using the analytic Hessian
// when available and central differences with step h otherwise.
func Hessian(dst *mat.SymDense, f ObjectiveFunction, x []float64, h float64) *mat.SymDense {
	if dst == nil {
		dst = mat.NewSymDense(len(x), nil)
	}
	if hs, ok := f.(Hessianer); ok {
		hs.Hessian(dst, x)
		return dst
	}
	fd.Hessian(dst, f.Value, x, &fd.Settings{
		Formula: fd.Central,
		Step:    stepOrDefault(h),
	})
	return dst
}

// GradientHessian evaluates gradient and Hessian together. Objectives that
// implement GradHessianer are asked for both at once; everything else goes
// through Gradient and Hessian, so the results are always consistent with
// the separate accessors.
func GradientHessian(grad []float64, hess *mat.SymDense, f ObjectiveFunction, x []float64, h float64) ([]float64, *mat.SymDense) {
	if grad == nil {
		grad = make([]float64, len(x))
	}
	if hess == nil {
		hess = mat.NewSymDense(len(x), nil)
	}
	if gh, ok := f.(GradHessianer); ok {
		gh.GradientHessian(grad, hess, x)
		return grad, hess
	}
	Gradient(grad, f, x, h)
	Hessian(hess, f, x, h)
	return grad, hess
}

func stepOrDefault(h float64) float64 {
	if h <= 0 {
		return DefaultStep
	}
	return h
}

// Func adapts a plain function to ObjectiveFunction. Derivatives are
// always computed by finite differences.
type Func func(x []float64) float64

// Value implements ObjectiveFunction.
func (f Func) Value(x []float64) float64 { return f(x) }
