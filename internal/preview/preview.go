// Package preview renders a scatter plot of a localization table.
package preview

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/mrsinham/blinkforge/internal/blink"
	"github.com/mrsinham/blinkforge/internal/sampling"
)

// outlineSegments is the number of points used to draw the particle outline.
const outlineSegments = 180

// Options controls the rendered image.
type Options struct {
	Width  int
	Height int
	Title  string
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 800
	}
	if o.Height <= 0 {
		o.Height = 800
	}
	return o
}

// Render writes a PNG scatter of the event positions, with the particle
// outline drawn on top, to w.
func Render(w io.Writer, events []blink.Event, disk sampling.Disk, opts Options) error {
	opts = opts.withDefaults()

	xs := make([]float64, len(events))
	ys := make([]float64, len(events))
	for i, e := range events {
		xs[i], ys[i] = e.X, e.Y
	}

	ox := make([]float64, outlineSegments+1)
	oy := make([]float64, outlineSegments+1)
	for i := range ox {
		theta := 2 * math.Pi * float64(i) / outlineSegments
		ox[i] = disk.CenterX + disk.Radius*math.Cos(theta)
		oy[i] = disk.CenterY + disk.Radius*math.Sin(theta)
	}

	// Keep the plot square around the particle so the disk stays round.
	margin := disk.Radius * 1.1
	xRange := &chart.ContinuousRange{Min: disk.CenterX - margin, Max: disk.CenterX + margin}
	yRange := &chart.ContinuousRange{Min: disk.CenterY - margin, Max: disk.CenterY + margin}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "outline",
			XValues: ox,
			YValues: oy,
			Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 2.0},
		},
	}
	if len(events) > 0 {
		series = append(series, chart.ContinuousSeries{
			Name:    "localizations",
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    2.0,
				DotColor:    drawing.Color{R: 30, G: 90, B: 200, A: 180},
			},
		})
	}

	graph := chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		XAxis: chart.XAxis{
			Name:  "x (nm)",
			Style: chart.Style{FontSize: 10.0},
			Range: xRange,
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f", v.(float64))
			},
		},
		YAxis: chart.YAxis{
			Name:  "y (nm)",
			Style: chart.Style{FontSize: 10.0},
			Range: yRange,
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f", v.(float64))
			},
		},
		Series: series,
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render preview: %w", err)
	}
	return nil
}

// RenderFile renders the preview to a PNG file.
func RenderFile(path string, events []blink.Event, disk sampling.Disk, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create preview %s: %w", path, err)
	}
	if err := Render(f, events, disk, opts); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
