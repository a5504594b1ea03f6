package app

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

const (
	fontSize = 10.0

	// Space below the chart for the information bar, in pixels
	defaultInfoBarHeight = 32
	infoBarLeftPadding   = 12
)

type annotator struct {
	context  *freetype.Context
	fontFace font.Face
	height   int
}

func newAnnotator() (*annotator, error) {
	parsedFont, err := freetype.ParseFont(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(fontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    fontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
		height: defaultInfoBarHeight,
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

// annotate returns a copy of chart extended with an information bar at the bottom
func (a *annotator) annotate(chart image.Image, info string) (*image.RGBA, error) {
	bounds := chart.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()+a.height))

	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, bounds.Dx(), bounds.Dy()), chart, bounds.Min, draw.Src)

	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if err := a.drawInfoBar(img, info); err != nil {
		return nil, fmt.Errorf("drawing info bar: %w", err)
	}
	return img, nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, info string) error {
	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	// Center text vertically in the bar
	textY := img.Bounds().Max.Y - (a.height-fontHeight)/2 - metrics.Descent.Round()

	pt := freetype.Pt(infoBarLeftPadding, textY)
	if _, err := a.context.DrawString(info, pt); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}
