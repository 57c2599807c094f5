package dist

import (
	"errors"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Histogram plots counts with one bin per distinct value.
func Histogram(counts []int, title, xLabel string) (*plot.Plot, error) {
	if len(counts) == 0 {
		return nil, errors.New("no values to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "frequency"

	values := make(plotter.Values, len(counts))
	min, max := 0, 0
	for i, c := range counts {
		values[i] = float64(c)
		if i == 0 || c < min {
			min = c
		}
		if i == 0 || c > max {
			max = c
		}
	}
	h, err := plotter.NewHist(values, max-min+1)
	if err != nil {
		return nil, err
	}
	p.Add(h)
	return p, nil
}

// SaveHistogram writes the histogram of counts to a file; the format
// follows from the extension (png, svg, pdf, ...).
func SaveHistogram(counts []int, title, xLabel, path string) error {
	p, err := Histogram(counts, title, xLabel)
	if err != nil {
		return err
	}
	return p.Save(5*vg.Inch, 4*vg.Inch, path)
}
