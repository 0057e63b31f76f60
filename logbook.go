package gafs

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// LogRecord holds the statistics of one generation. Avg, Std, Min and Max
// are computed per fitness term across the population.
type LogRecord struct {
	Repeat      int
	Generation  int
	Evaluations int

	Avg Fitness
	Std Fitness
	Min Fitness
	Max Fitness

	// Best is the hall-of-fame fitness after this generation.
	Best Fitness
}

// Logbook is the ordered list of generation records of one Fit call.
type Logbook []LogRecord

// newLogRecord compiles the statistics of a fully evaluated population.
func newLogRecord(repeat, generation, evaluations int, p Population, best Fitness) LogRecord {
	perf := make([]float64, 0, len(p))
	size := make([]float64, 0, len(p))
	for _, ind := range p {
		f, _ := ind.Fitness()
		perf = append(perf, f.Performance)
		size = append(size, f.SizePenalty)
	}

	perfMean, perfStd := stat.PopMeanStdDev(perf, nil)
	sizeMean, sizeStd := stat.PopMeanStdDev(size, nil)

	return LogRecord{
		Repeat:      repeat,
		Generation:  generation,
		Evaluations: evaluations,
		Avg:         Fitness{Performance: perfMean, SizePenalty: sizeMean},
		Std:         Fitness{Performance: perfStd, SizePenalty: sizeStd},
		Min:         Fitness{Performance: floats.Min(perf), SizePenalty: floats.Min(size)},
		Max:         Fitness{Performance: floats.Max(perf), SizePenalty: floats.Max(size)},
		Best:        best,
	}
}

// Plot renders the best and average performance of every generation as a
// PNG image into w. Generations of successive repeats are laid out one after
// the other.
func (l Logbook) Plot(w io.Writer) error {
	if len(l) == 0 {
		return ErrNoLogbook
	}

	p := plot.New()
	p.Title.Text = "Genetic feature selection"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Performance"

	bestPts := make(plotter.XYs, len(l))
	avgPts := make(plotter.XYs, len(l))
	for i, rec := range l {
		bestPts[i].X = float64(i + 1)
		bestPts[i].Y = rec.Best.Performance

		avgPts[i].X = float64(i + 1)
		avgPts[i].Y = rec.Avg.Performance
	}

	bestLine, err := plotter.NewLine(bestPts)
	if err != nil {
		return fmt.Errorf("best line: %w", err)
	}
	avgLine, err := plotter.NewLine(avgPts)
	if err != nil {
		return fmt.Errorf("avg line: %w", err)
	}
	avgLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(bestLine, avgLine)
	p.Legend.Add("best", bestLine)
	p.Legend.Add("avg", avgLine)
	p.Legend.Top = true
	p.Legend.Left = true

	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return err
	}

	_, err = wt.WriteTo(w)

	return err
}
