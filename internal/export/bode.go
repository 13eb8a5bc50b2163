package export

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgpdf"
	_ "gonum.org/v1/plot/vg/vgsvg"

	"github.com/san-kum/ldodsn/internal/ldo"
)

var bodeColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

func bodePanel(title, ylabel string, xys plotter.XYs) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "frequency (Hz)"
	p.Y.Label.Text = ylabel
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	line.Color = bodeColor
	line.Width = vg.Points(1.5)
	p.Add(line)
	return p, nil
}

// SaveBode renders magnitude and phase of resp over freqs (Hz) as two
// stacked panels. The image format follows the extension of path (png, svg,
// pdf, ...).
func SaveBode(path string, freqs []float64, resp []complex128) error {
	if len(freqs) < 2 || len(freqs) != len(resp) {
		return fmt.Errorf("export: bode needs matching freqs and response, got %d and %d", len(freqs), len(resp))
	}
	mag := make(plotter.XYs, len(resp))
	phase := make(plotter.XYs, len(resp))
	prev := 0.0
	for i, h := range resp {
		ph := ldo.PhaseDeg(h)
		if i > 0 {
			for ph-prev > 180 {
				ph -= 360
			}
			for ph-prev < -180 {
				ph += 360
			}
		}
		prev = ph
		mag[i] = plotter.XY{X: freqs[i], Y: ldo.MagnitudeDB(h)}
		phase[i] = plotter.XY{X: freqs[i], Y: ph}
	}

	top, err := bodePanel("loop gain", "magnitude (dB)", mag)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	bottom, err := bodePanel("", "phase (deg)", phase)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		format = "png"
	}
	c, err := draw.NewFormattedCanvas(16*vg.Centimeter, 16*vg.Centimeter, format)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	plots := [][]*plot.Plot{{top}, {bottom}}
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Millimeter * 4}
	canvases := plot.Align(plots, tiles, draw.New(c))
	top.Draw(canvases[0][0])
	bottom.Draw(canvases[1][0])

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("export: %w", err)
	}
	return f.Close()
}
