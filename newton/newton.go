package newton

import (
	"fmt"
	"math"

	"github.com/notargets/wingcoords/utils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Options configures a single Minimize2D call. Zero fields take the value
// from DefaultOptions.
type Options struct {
	GradTol       float64 // stop when |grad| < GradTol
	ValueTol      float64 // stop when the decrease of f in one step < ValueTol
	MaxIter       int     // iteration cap
	StepSize      float64 // finite difference step for objectives without analytic derivatives
	ArmijoC       float64 // sufficient decrease constant of the line search
	Shrink        float64 // step length reduction factor of the line search
	MaxBacktracks int     // cap on step length reductions per iteration
	SingularTol   float64 // relative determinant below which H is singular
	Strict        bool    // return ErrNotConverged when MaxIter is reached
}

// DefaultOptions returns the optimizer defaults.
func DefaultOptions() Options {
	return Options{
		GradTol:       1e-7,
		ValueTol:      1e-8,
		MaxIter:       50,
		StepSize:      DefaultStep,
		ArmijoC:       1e-4,
		Shrink:        0.5,
		MaxBacktracks: 40,
		SingularTol:   1e-14,
	}
}

// WithDefaults fills every zero field of o from DefaultOptions.
func (o Options) WithDefaults() Options {
	def := DefaultOptions()
	if o.GradTol <= 0 {
		o.GradTol = def.GradTol
	}
	if o.ValueTol <= 0 {
		o.ValueTol = def.ValueTol
	}
	if o.MaxIter <= 0 {
		o.MaxIter = def.MaxIter
	}
	if o.StepSize <= 0 {
		o.StepSize = def.StepSize
	}
	if o.ArmijoC <= 0 || o.ArmijoC >= 1 {
		o.ArmijoC = def.ArmijoC
	}
	if o.Shrink <= 0 || o.Shrink >= 1 {
		o.Shrink = def.Shrink
	}
	if o.MaxBacktracks <= 0 {
		o.MaxBacktracks = def.MaxBacktracks
	}
	if o.SingularTol <= 0 {
		o.SingularTol = def.SingularTol
	}
	return o
}

// Result is the outcome of a minimization. X is always the best iterate
// found, also when an error is returned.
type Result struct {
	X          [2]float64
	Value      float64
	Iterations int
	Converged  bool
}

// pdShift is the smallest eigenvalue, relative to the largest magnitude,
// that a modified Hessian is lifted to when the true one is not positive
// definite.
const pdShift = 1e-3

// Minimize2D minimizes f over two parameters starting at x0 with damped
// Newton steps. Every step solves H*d = -g; an indefinite H is shifted
// along its diagonal until it is positive definite so that d is a descent
// direction, and the step length along d is chosen by Armijo backtracking.
//
// Minimize2D returns utils.ErrSingularSystem when H is singular,
// utils.ErrNonFinite when f or its derivatives are not finite, and
// utils.ErrNotConverged when the iteration cap is hit and opts.Strict is
// set. The returned Result always holds the last iterate.
func Minimize2D(f ObjectiveFunction, x0 [2]float64, opts Options) (Result, error) {
	if f == nil {
		return Result{X: x0}, fmt.Errorf("newton: objective: %w", utils.ErrNullArgument)
	}
	opts = opts.WithDefaults()

	x := []float64{x0[0], x0[1]}
	res := Result{X: x0}
	fx := f.Value(x)
	res.Value = fx
	if !isFinite(fx) {
		return res, fmt.Errorf("newton: f(%v) = %g: %w", x, fx, utils.ErrNonFinite)
	}

	var (
		grad  = make([]float64, 2)
		hess  = mat.NewSymDense(2, nil)
		dir   mat.VecDense
		trial = make([]float64, 2)
	)
	for iter := 0; iter < opts.MaxIter; iter++ {
		res.Iterations = iter + 1
		GradientHessian(grad, hess, f, x, opts.StepSize)
		if !isFinite(grad[0]) || !isFinite(grad[1]) || !isFinite(hess.At(0, 0)) ||
			!isFinite(hess.At(0, 1)) || !isFinite(hess.At(1, 1)) {
			return res, fmt.Errorf("newton: derivatives at %v: %w", x, utils.ErrNonFinite)
		}

		if floats.Norm(grad, 2) < opts.GradTol {
			res.Converged = true
			return res, nil
		}

		h, err := descentHessian(hess, opts.SingularTol)
		if err != nil {
			return res, fmt.Errorf("newton: iteration %d at %v: %w", iter, x, err)
		}
		negGrad := mat.NewVecDense(2, []float64{-grad[0], -grad[1]})
		if err := dir.SolveVec(h, negGrad); err != nil {
			return res, fmt.Errorf("newton: iteration %d at %v: %v: %w", iter, x, err, utils.ErrSingularSystem)
		}
		d := []float64{dir.AtVec(0), dir.AtVec(1)}
		slope := floats.Dot(grad, d)

		alpha := 1.0
		var ftrial float64
		for k := 0; ; k++ {
			floats.AddScaledTo(trial, x, alpha, d)
			ftrial = f.Value(trial)
			if isFinite(ftrial) && ftrial <= fx+opts.ArmijoC*alpha*slope {
				break
			}
			if k == opts.MaxBacktracks {
				break
			}
			alpha *= opts.Shrink
		}
		if !isFinite(ftrial) {
			return res, fmt.Errorf("newton: f(%v) = %g: %w", trial, ftrial, utils.ErrNonFinite)
		}

		decrease := fx - ftrial
		if decrease < 0 {
			// no acceptable step; the current iterate is the best we have
			break
		}
		copy(x, trial)
		fx = ftrial
		res.X = [2]float64{x[0], x[1]}
		res.Value = fx
		if decrease < opts.ValueTol {
			res.Converged = true
			return res, nil
		}
	}

	if opts.Strict {
		return res, fmt.Errorf("newton: %d iterations, f = %g: %w", res.Iterations, res.Value, utils.ErrNotConverged)
	}
	return res, nil
}

// descentHessian returns hess, or a diagonally shifted copy of it when hess
// is not positive definite. A hess with a vanishing determinant is singular.
func descentHessian(hess *mat.SymDense, singularTol float64) (*mat.SymDense, error) {
	h00, h01, h11 := hess.At(0, 0), hess.At(0, 1), hess.At(1, 1)
	scale := math.Max(math.Abs(h00), math.Max(math.Abs(h01), math.Abs(h11)))
	det := h00*h11 - h01*h01
	if scale == 0 || math.Abs(det) <= singularTol*scale*scale {
		return nil, fmt.Errorf("det(H) = %g: %w", det, utils.ErrSingularSystem)
	}
	if h00 > 0 && det > 0 {
		return hess, nil
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(hess, false); !ok {
		return nil, fmt.Errorf("eigen decomposition of H failed: %w", utils.ErrSingularSystem)
	}
	vals := eig.Values(nil)
	lmin := vals[0]
	lmax := math.Max(math.Abs(vals[0]), math.Abs(vals[len(vals)-1]))
	shift := pdShift*lmax - lmin

	shifted := mat.NewSymDense(2, []float64{
		h00 + shift, h01,
		h01, h11 + shift,
	})
	return shifted, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
