package cli

import (
	"fmt"
	"image/color"

	"github.com/golang/geo/r2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"go.viam.com/fibermos/positioner"
)

const (
	outlinePoints = 12
	figureSize    = 8 * vg.Inch
)

var (
	armColor      = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	collidedColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	disabledColor = color.Gray{Y: 150}
)

func toXYs(pts []r2.Point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		xys[i].X, xys[i].Y = pt.X, pt.Y
	}
	return xys
}

// plotModel draws the arm contour of every positioner of m, red when it collides with an
// adjacent, and saves the figure to path in the format given by its extension.
func plotModel(m *positioner.Model, title, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (mm)"
	p.Y.Label.Text = "y (mm)"
	p.Add(plotter.NewGrid())

	colliding := map[int]bool{}
	for _, pair := range m.Collisions() {
		colliding[pair[0]] = true
		colliding[pair[1]] = true
	}

	centers := make(plotter.XYs, 0, m.Len())
	names := make([]string, 0, m.Len())
	for _, rp := range m.Positioners() {
		contour, err := plotter.NewLine(toXYs(rp.Actuator.Contour().Outline(outlinePoints)))
		if err != nil {
			return err
		}
		switch {
		case colliding[rp.ID]:
			contour.Color = collidedColor
		case !rp.Operative():
			contour.Color = disabledColor
		default:
			contour.Color = armColor
		}
		p.Add(contour)

		c := rp.Center()
		centers = append(centers, plotter.XY{X: c.X, Y: c.Y})
		names = append(names, fmt.Sprintf("RP%d", rp.ID))
	}

	scatter, err := plotter.NewScatter(centers)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Shape = draw.CrossGlyph{}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: centers, Labels: names})
	if err != nil {
		return err
	}
	p.Add(scatter, labels)
	return p.Save(figureSize, figureSize, path)
}
