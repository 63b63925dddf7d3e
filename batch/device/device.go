// Package device evaluates chordface points on an OCCA device. It needs
// cgo and the OCCA headers; the host-side batch package does not.
package device

import (
	"fmt"
	"unsafe"

	"github.com/notargets/gocca"
	"github.com/notargets/wingcoords/chordface"
	"github.com/notargets/wingcoords/geometry"
	"github.com/notargets/wingcoords/utils"
)

// DefaultBackends are tried in order by New when no properties are
// given: the parallel backends first, then Serial.
var DefaultBackends = []string{
	`{"mode": "OpenMP"}`,
	`{"mode": "CUDA", "device_id": 0}`,
	`{"mode": "Serial"}`,
}

// blockSize is the number of points per @inner loop.
const blockSize = 64

// Device evaluates chordface points on an OCCA device.
type Device struct {
	occa *gocca.OCCADevice
}

// New opens the first OCCA device that can be created from props,
// or from DefaultBackends when props is empty.
func New(props ...string) (*Device, error) {
	if len(props) == 0 {
		props = DefaultBackends
	}
	var lastErr error
	for _, p := range props {
		occa, err := gocca.NewDevice(p)
		if err == nil {
			utils.Logger().Info("device: created device", "mode", occa.Mode())
			return &Device{occa: occa}, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("device: no OCCA device from %d backends: %w", len(props), lastErr)
}

// Mode returns the OCCA backend name.
func (d *Device) Mode() string { return d.occa.Mode() }

// Free releases the device.
func (d *Device) Free() { d.occa.Free() }

const chordfaceKernel = `
#define NSPAN %d
#define NPTS %d
#define BLOCK %d
#define NBLOCK %d

@kernel void evalChordface(const double *knots,
                           const double *leading,
                           const double *trailing,
                           const double *etas,
                           const double *xsis,
                           double *points) {
	for (int b = 0; b < NBLOCK; ++b; @outer) {
		for (int j = 0; j < BLOCK; ++j; @inner) {
			const int n = b*BLOCK + j;
			if (n < NPTS) {
				const double eta = etas[n];
				const double v = xsis[n];
				int s = 0;
				while (s < NSPAN-1 && eta >= knots[s+1]) {
					++s;
				}
				const double width = knots[s+1] - knots[s];
				const double u = (width > 0) ? (eta - knots[s])/width : 0.0;
				const double w1 = (1-u)*(1-v), w2 = u*(1-v), w3 = (1-u)*v, w4 = u*v;
				for (int k = 0; k < 3; ++k) {
					points[3*n+k] = w1*leading[3*s+k] + w2*leading[3*(s+1)+k]
					              + w3*trailing[3*s+k] + w4*trailing[3*(s+1)+k];
				}
			}
		}
	}
}
`

// EvaluateChordface returns the chordface points at (etas[i], xsis[i]). It
// matches Surface.GetPoint up to rounding.
func (d *Device) EvaluateChordface(surface *chordface.Surface, etas, xsis []float64) ([]geometry.Point3, error) {
	if surface == nil {
		return nil, fmt.Errorf("device: surface: %w", utils.ErrNullArgument)
	}
	if len(etas) != len(xsis) {
		return nil, fmt.Errorf("device: %d etas with %d xsis: %w",
			len(etas), len(xsis), utils.ErrIndexOutOfRange)
	}
	for i := range etas {
		if err := utils.CheckUnit("eta", etas[i]); err != nil {
			return nil, fmt.Errorf("device: point %d: %w", i, err)
		}
		if err := utils.CheckUnit("xsi", xsis[i]); err != nil {
			return nil, fmt.Errorf("device: point %d: %w", i, err)
		}
	}
	npts := len(etas)
	if npts == 0 {
		return nil, nil
	}

	leading, trailing := surface.Poles()
	knots := append([]float64(nil), surface.Knots()...)
	le, te := flatten(leading), flatten(trailing)
	nblock := (npts + blockSize - 1) / blockSize

	src := fmt.Sprintf(chordfaceKernel, surface.SpanCount(), npts, blockSize, nblock)
	var (
		kernel *gocca.OCCAKernel
		err    error
	)
	if d.occa.Mode() == "OpenMP" {
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = d.occa.BuildKernelFromString(src, "evalChordface", props)
	} else {
		kernel, err = d.occa.BuildKernelFromString(src, "evalChordface", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("device: failed to build kernel evalChordface: %w", err)
	}
	defer kernel.Free()

	etaIn := append([]float64(nil), etas...)
	xsiIn := append([]float64(nil), xsis...)
	out := make([]float64, 3*npts)

	knotsMem := d.occa.Malloc(int64(len(knots)*8), unsafe.Pointer(&knots[0]), nil)
	defer knotsMem.Free()
	leMem := d.occa.Malloc(int64(len(le)*8), unsafe.Pointer(&le[0]), nil)
	defer leMem.Free()
	teMem := d.occa.Malloc(int64(len(te)*8), unsafe.Pointer(&te[0]), nil)
	defer teMem.Free()
	etaMem := d.occa.Malloc(int64(npts*8), unsafe.Pointer(&etaIn[0]), nil)
	defer etaMem.Free()
	xsiMem := d.occa.Malloc(int64(npts*8), unsafe.Pointer(&xsiIn[0]), nil)
	defer xsiMem.Free()
	outMem := d.occa.Malloc(int64(len(out)*8), nil, nil)
	defer outMem.Free()

	if err := kernel.RunWithArgs(knotsMem, leMem, teMem, etaMem, xsiMem, outMem); err != nil {
		return nil, fmt.Errorf("device: kernel execution failed: %w", err)
	}
	d.occa.Finish()
	outMem.CopyTo(unsafe.Pointer(&out[0]), int64(len(out)*8))

	points := make([]geometry.Point3, npts)
	for i := range points {
		points[i] = geometry.Pt(out[3*i], out[3*i+1], out[3*i+2])
	}
	return points, nil
}

// flatten packs points as x0,y0,z0,x1,...
func flatten(points []geometry.Point3) []float64 {
	flat := make([]float64, 0, 3*len(points))
	for _, p := range points {
		flat = append(flat, p.X, p.Y, p.Z)
	}
	return flat
}
