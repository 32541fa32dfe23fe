package openface

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const histogramBins = 16

func plotHistogram(vals []float64, fname string) error {
	p := plot.New()
	h, err := plotter.NewHist(plotter.Values(vals), histogramBins)
	if err != nil {
		return errors.Wrap(err, "cannot build histogram")
	}
	p.Add(h)
	return errors.Wrapf(p.Save(6*vg.Inch, 4*vg.Inch, fname), "cannot save %s", fname)
}

// plotPoints draws a scatter over the fixed [-1, 1] component range.
func plotPoints(xs, ys []float64, fname string) error {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	p := plot.New()
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "cannot build scatter")
	}
	p.Add(s)
	p.X.Min, p.X.Max = -1, 1
	p.Y.Min, p.Y.Max = -1, 1
	return errors.Wrapf(p.Save(6*vg.Inch, 6*vg.Inch, fname), "cannot save %s", fname)
}

// plotClasses draws all classes' 2-component projections on one scatter
// with a legend entry per class.
func plotClasses(classPoints []plotter.XYs, legend []string, fname string) error {
	p := plot.New()
	args := make([]interface{}, 0, 2*len(classPoints))
	for i, pts := range classPoints {
		args = append(args, legend[i], pts)
	}
	if err := plotutil.AddScatters(p, args...); err != nil {
		return errors.Wrap(err, "cannot build class scatter")
	}
	return errors.Wrapf(p.Save(6*vg.Inch, 6*vg.Inch, fname), "cannot save %s", fname)
}

// plot1DDists draws each class's 1-component projection as a sorted value
// curve so the per-class distributions can be compared on one axis.
func plot1DDists(classVals [][]float64, legend []string, fname string) error {
	p := plot.New()
	args := make([]interface{}, 0, 2*len(classVals))
	for i, vals := range classVals {
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		pts := make(plotter.XYs, len(sorted))
		for j, v := range sorted {
			pts[j].X = float64(j)
			pts[j].Y = v
		}
		args = append(args, legend[i], pts)
	}
	if err := plotutil.AddLines(p, args...); err != nil {
		return errors.Wrap(err, "cannot build distribution plot")
	}
	return errors.Wrapf(p.Save(6*vg.Inch, 4*vg.Inch, fname), "cannot save %s", fname)
}
