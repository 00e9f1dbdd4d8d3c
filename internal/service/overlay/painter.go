package overlay

import (
	"fmt"
	"image"
	"image/color"
	"yolonode/internal/model"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

var (
	// Red marks the reserved classes.
	Red = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	// Blue is used for every other class.
	Blue = color.RGBA{R: 0, G: 0, B: 255, A: 0}
	// White is the label text colour.
	White = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

const (
	boxThickness  = 2
	textThickness = 2
	textScale     = 0.5
	textOffsetY   = 10
)

// classColors holds the classes drawn in a non-default colour.
// "en" and "ent" are separate entries.
var classColors = map[string]color.RGBA{
	"en":  Red,
	"ent": Red,
}

// Painter draws detection boxes and their labels onto a frame.
type Painter struct {
	colors       map[string]color.RGBA
	defaultColor color.RGBA
}

// NewPainter returns a Painter using the built-in colour table.
func NewPainter() *Painter {
	return &Painter{colors: classColors, defaultColor: Blue}
}

// ColorFor returns the box colour for a class name.
func (p *Painter) ColorFor(class string) color.RGBA {
	if c, ok := p.colors[class]; ok {
		return c
	}
	return p.defaultColor
}

// Caption is the text drawn above a box.
func Caption(box model.BoundingBox) string {
	return fmt.Sprintf("%s %.2f", box.Class, box.Probability)
}

// Draw paints one bounding box and its caption onto img.
func (p *Painter) Draw(img *gocv.Mat, box model.BoundingBox) error {
	rect := image.Rect(box.XMin, box.YMin, box.XMax, box.YMax)
	if err := gocv.Rectangle(img, rect, p.ColorFor(box.Class), boxThickness); err != nil {
		return errors.Wrap(err, "failed to draw rectangle")
	}

	pt := image.Pt(box.XMin, box.YMin-textOffsetY)
	if err := gocv.PutText(img, Caption(box), pt, gocv.FontHersheySimplex, textScale, White, textThickness); err != nil {
		return errors.Wrap(err, "failed to draw text")
	}
	return nil
}

// DrawAll paints every box in order and stops at the first failure.
func (p *Painter) DrawAll(img *gocv.Mat, boxes []model.BoundingBox) error {
	for _, box := range boxes {
		if err := p.Draw(img, box); err != nil {
			return err
		}
	}
	return nil
}
