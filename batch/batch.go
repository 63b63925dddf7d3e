// Package batch evaluates many coordinate queries at once, fanning the
// inverse queries out over CPU workers and running forward chordface
// evaluation on an OCCA device.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/notargets/wingcoords/chordface"
	"github.com/notargets/wingcoords/component"
	"github.com/notargets/wingcoords/geometry"
	"github.com/notargets/wingcoords/utils"
	"golang.org/x/sync/errgroup"
)

// LocateResult is the outcome of locating one point. Err wraps
// utils.ErrPointNotOnComponent for points outside the component.
type LocateResult struct {
	Location component.Location
	Err      error
}

// Found reports whether the point has an owning segment.
func (r LocateResult) Found() bool { return r.Err == nil }

// NotFound reports whether the point lies outside the component.
func (r LocateResult) NotFound() bool { return errors.Is(r.Err, utils.ErrPointNotOnComponent) }

func workerLimit(workers int) int {
	if workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return workers
}

// Locate runs loc.Locate for every point with at most workers concurrent
// queries. Results are in input order. Per point failures, including
// points not on the component, are recorded in the result; the returned
// error is only set when ctx is cancelled.
func Locate(ctx context.Context, loc *component.Locator, points []geometry.Point3,
	maxDeviation float64, workers int) ([]LocateResult, error) {
	if loc == nil {
		return nil, fmt.Errorf("batch: locator: %w", utils.ErrNullArgument)
	}
	results := make([]LocateResult, len(points))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(workers))
	for i, p := range points {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			l, err := loc.Locate(p, maxDeviation)
			results[i] = LocateResult{Location: l, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch: locate: %w", err)
	}
	return results, nil
}

// EtaXsi projects every point onto the chordface with at most workers
// concurrent queries. Results are in input order. The first failing
// projection cancels the remaining work and is returned.
func EtaXsi(ctx context.Context, surface *chordface.Surface, points []geometry.Point3,
	workers int) ([]chordface.Projection, error) {
	if surface == nil {
		return nil, fmt.Errorf("batch: surface: %w", utils.ErrNullArgument)
	}
	results := make([]chordface.Projection, len(points))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(workers))
	for i, p := range points {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			proj, err := surface.Project(p)
			if err != nil {
				return fmt.Errorf("point %d: %w", i, err)
			}
			results[i] = proj
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch: eta/xsi: %w", err)
	}
	return results, nil
}
