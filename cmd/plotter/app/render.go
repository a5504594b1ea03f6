package app

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const dpi = 96.0

// pixels converts an image dimension to a plot length at the render DPI
func pixels(px int) vg.Length {
	return vg.Length(px) * vg.Inch / dpi
}

// rasterize draws p onto a white canvas of width x height pixels
func rasterize(p *plot.Plot, width, height int) image.Image {
	c := vgimg.NewWith(
		vgimg.UseWH(pixels(width), pixels(height)),
		vgimg.UseDPI(dpi),
		vgimg.UseBackgroundColor(color.White))

	p.Draw(draw.New(c))
	return c.Image()
}

// render rasterizes p and, unless annotations are disabled, adds the info bar
func render(p *plot.Plot, config *Config, info string) (image.Image, error) {
	img := rasterize(p, config.Width, config.Height)
	if config.NoAnnotations {
		return img, nil
	}

	ann, err := newAnnotator()
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()

	return ann.annotate(img, info)
}

func encode(w io.Writer, img image.Image, format ImageFormat) error {
	switch format {
	case ImagePNG:
		return png.Encode(w, img)
	case ImageJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{
			Quality: 98,
		})
	default:
		return fmt.Errorf("invalid image format: %s", format)
	}
}
