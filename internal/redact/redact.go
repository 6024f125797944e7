// Package redact implements the image-editing flow for redacted
// uploads: regions of the source image are blurred and composited back,
// the result is cropped, rotated, and re-encoded as WebP.
package redact

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"path"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
)

// OutputDir is the directory under the media root where encoded
// outputs land.
const OutputDir = "image_array"

// blurSigma is the fixed gaussian radius applied to every region.
const blurSigma = 8

// webpQuality is the lossy encode quality for outputs.
const webpQuality = 80

// Rect is one rectangular blur region in source-image coordinates.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Params drives one pipeline run.
type Params struct {
	Name       string
	Width      int
	Height     int
	BlurAreas  []Rect
	CropLeft   int
	CropTop    int
	CropRight  int
	CropBottom int
	Rotate     float64
}

func (p Params) validate() error {
	if p.Name == "" {
		return fmt.Errorf("redact: name is required")
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("redact: invalid canvas %dx%d", p.Width, p.Height)
	}
	if p.Width-p.CropLeft-p.CropRight <= 0 || p.Height-p.CropTop-p.CropBottom <= 0 {
		return fmt.Errorf("redact: crop bounds leave no area")
	}
	return nil
}

// Pipeline composites, blurs, crops, rotates, and encodes images,
// persisting outputs under the media root.
type Pipeline struct {
	media storage.Provider
}

// NewPipeline creates a pipeline writing into the given media store.
func NewPipeline(media storage.Provider) *Pipeline {
	return &Pipeline{media: media}
}

// Process runs the pipeline over each source image and returns one
// output metadata entry per input, in input order. Outputs after the
// first get an index suffix so multiple inputs never overwrite each
// other.
//
// Blur regions are extracted from the original image and pasted back at
// their source coordinates before the crop and rotation are applied, so
// region coordinates never need adjusting for the rotation angle.
func (p *Pipeline) Process(params Params, images [][]byte) ([]models.FileMeta, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	out := make([]models.FileMeta, 0, len(images))
	for i, data := range images {
		src, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("redact: decode image %d: %w", i, err)
		}

		result, err := p.compose(params, src)
		if err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		if err := webp.Encode(&buf, result, &webp.Options{Quality: webpQuality}); err != nil {
			return nil, fmt.Errorf("redact: encode webp: %w", err)
		}

		name := params.Name
		if i > 0 {
			name = fmt.Sprintf("%s_%d", params.Name, i)
		}
		filename := name + ".webp"
		if err := p.media.Write(path.Join(OutputDir, filename), buf.Bytes()); err != nil {
			return nil, fmt.Errorf("redact: persist output: %w", err)
		}
		out = append(out, models.FileMeta{OriginalName: filename, MimeType: "image/webp"})
	}
	return out, nil
}

func (p *Pipeline) compose(params Params, src image.Image) (image.Image, error) {
	// Blur each region of the original image.
	type placed struct {
		img image.Image
		at  image.Point
	}
	regions := make([]placed, 0, len(params.BlurAreas))
	for _, r := range params.BlurAreas {
		sub := imaging.Crop(src, image.Rect(r.Left, r.Top, r.Left+r.Width, r.Top+r.Height))
		regions = append(regions, placed{
			img: imaging.Blur(sub, blurSigma),
			at:  image.Pt(r.Left, r.Top),
		})
	}

	// Draw the original onto a blank canvas at the target size, then
	// compose the blurred regions over it.
	canvas := imaging.New(params.Width, params.Height, color.NRGBA{})
	canvas = imaging.Paste(canvas, imaging.Resize(src, params.Width, params.Height, imaging.Lanczos), image.Pt(0, 0))
	for _, r := range regions {
		canvas = imaging.Paste(canvas, r.img, r.at)
	}

	// Crop to the bounding box: canvas dimensions minus the margins.
	cropW := params.Width - params.CropLeft - params.CropRight
	cropH := params.Height - params.CropTop - params.CropBottom
	result := imaging.Crop(canvas, image.Rect(params.CropLeft, params.CropTop, params.CropLeft+cropW, params.CropTop+cropH))

	if params.Rotate != 0 {
		// imaging rotates counter-clockwise; the rotate parameter is
		// clockwise degrees.
		result = imaging.Rotate(result, -params.Rotate, color.NRGBA{})
	}
	return result, nil
}
