package reader

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sort"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/pages"
)

// PageImage represents an image XObject used by a PDF page.
type PageImage struct {
	Name             string        // XObject name (e.g., "Im1")
	Ref              core.ObjectID // zero for inline-defined streams
	Width            int
	Height           int
	ColorSpace       string // DeviceGray, DeviceRGB, DeviceCMYK, etc.
	BitsPerComponent int
	Data             []byte // Decoded samples, or JPEG data for DCTDecode
	Filter           string // Last filter in the chain
}

// ExtractPageImages returns the image XObjects named in a page's resources,
// sorted by name, followed by the inline images of its content in drawing
// order. Images that cannot be decoded are skipped and recorded as warnings.
func (r *Reader) ExtractPageImages(page *pages.Page) ([]PageImage, error) {
	if r.encrypted {
		return nil, ErrEncrypted
	}
	resources, err := page.Resources()
	if err != nil {
		return nil, err
	}

	xobjects, err := r.store.Deref(resources.Get("XObject"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve XObject dictionary: %w", err)
	}
	dict, _ := xobjects.(core.Dict)

	names := dict.Keys()
	sort.Strings(names)

	var images []PageImage
	for _, name := range names {
		var ref core.ObjectID
		if rr, ok := dict[name].(core.IndirectRef); ok {
			ref = rr
		}
		resolved, err := r.store.Deref(dict[name])
		if err != nil {
			r.warn(-1, ref.Number, fmt.Sprintf("XObject /%s: %v", name, err))
			continue
		}
		stream, ok := resolved.(*core.Stream)
		if !ok || Classify(stream) != KindImage {
			continue
		}

		img, err := r.extractImage(name, stream)
		if err != nil {
			r.warn(stream.Offset, ref.Number, fmt.Sprintf("image /%s: %v", name, err))
			continue
		}
		img.Ref = ref
		images = append(images, *img)
	}
	return append(images, r.inlineImages(page, resources)...), nil
}

// extractImage reads the image dictionary and decodes the samples.
func (r *Reader) extractImage(name string, stream *core.Stream) (*PageImage, error) {
	dict := stream.Dict

	width, ok := dict.GetInt("Width")
	if !ok {
		return nil, fmt.Errorf("image missing /Width")
	}
	height, ok := dict.GetInt("Height")
	if !ok {
		return nil, fmt.Errorf("image missing /Height")
	}

	// bi-level image masks default to 1 bit
	bpc := 8
	if v, ok := dict.GetInt("BitsPerComponent"); ok {
		bpc = int(v)
	} else if mask, _ := dict.GetBool("ImageMask"); mask {
		bpc = 1
	}

	colorSpace := "DeviceGray"
	if cs := dict.Get("ColorSpace"); cs != nil {
		colorSpace = r.colorSpaceName(cs, 0)
	}

	filters, _, err := stream.FilterChain()
	if err != nil {
		return nil, err
	}
	filter := ""
	if len(filters) > 0 {
		filter = string(filters[len(filters)-1])
	}

	data, err := stream.Decoded()
	if err != nil {
		return nil, fmt.Errorf("failed to decode image stream: %w", err)
	}

	return &PageImage{
		Name:             name,
		Width:            int(width),
		Height:           int(height),
		ColorSpace:       colorSpace,
		BitsPerComponent: bpc,
		Data:             data,
		Filter:           filter,
	}, nil
}

// colorSpaceName reduces a color space to the device space it is drawn in.
func (r *Reader) colorSpaceName(obj core.Object, depth int) string {
	resolved, err := r.store.Deref(obj)
	if err != nil || depth > 4 {
		return "DeviceGray"
	}

	switch v := resolved.(type) {
	case core.Name:
		return string(v)
	case core.Array:
		name, ok := v.GetName(0)
		if !ok {
			break
		}
		switch name {
		case "Indexed":
			return r.colorSpaceName(v.Get(1), depth+1)
		case "ICCBased":
			// /N of the profile stream gives the component count
			if profile, err := r.store.Deref(v.Get(1)); err == nil {
				if s, ok := profile.(*core.Stream); ok {
					switch n, _ := s.Dict.GetInt("N"); n {
					case 1:
						return "DeviceGray"
					case 3:
						return "DeviceRGB"
					case 4:
						return "DeviceCMYK"
					}
				}
			}
			return "ICCBased"
		}
		return string(name)
	}
	return "DeviceGray"
}

// components returns the number of color components per sample.
func (img *PageImage) components() int {
	switch img.ColorSpace {
	case "DeviceRGB", "CalRGB", "Lab":
		return 3
	case "DeviceCMYK":
		return 4
	}
	return 1
}

// ToPNG converts the image to PNG format.
// This is suitable for use with OCR engines like Tesseract.
func (img *PageImage) ToPNG() ([]byte, error) {
	var goImg image.Image
	var err error

	switch img.Filter {
	case "DCTDecode":
		goImg, err = jpeg.Decode(bytes.NewReader(img.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode JPEG data: %w", err)
		}
	case "JPXDecode":
		return nil, fmt.Errorf("JPEG 2000 images are not supported")
	default:
		goImg, err = img.toImage()
		if err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, goImg); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// toImage builds an image from the decoded samples. Rows are padded to a
// whole byte; samples are scaled to 8 bits.
func (img *PageImage) toImage() (image.Image, error) {
	switch img.BitsPerComponent {
	case 1, 2, 4, 8, 16:
	default:
		return nil, fmt.Errorf("unsupported bits per component: %d", img.BitsPerComponent)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", img.Width, img.Height)
	}

	comps := img.components()
	rowBytes := (img.Width*comps*img.BitsPerComponent + 7) / 8
	if expected := rowBytes * img.Height; len(img.Data) < expected {
		return nil, fmt.Errorf("insufficient data: got %d, expected %d", len(img.Data), expected)
	}

	rect := image.Rect(0, 0, img.Width, img.Height)
	var gray *image.Gray
	var rgba *image.RGBA
	switch comps {
	case 1:
		gray = image.NewGray(rect)
	default:
		rgba = image.NewRGBA(rect)
	}

	px := make([]uint8, comps)
	for y := 0; y < img.Height; y++ {
		row := img.Data[y*rowBytes : (y+1)*rowBytes]
		for x := 0; x < img.Width; x++ {
			for c := 0; c < comps; c++ {
				px[c] = sample(row, x*comps+c, img.BitsPerComponent)
			}
			switch comps {
			case 1:
				gray.Pix[y*gray.Stride+x] = px[0]
			case 3:
				rgba.SetRGBA(x, y, color.RGBA{R: px[0], G: px[1], B: px[2], A: 255})
			case 4:
				cr, cg, cb := color.CMYKToRGB(px[0], px[1], px[2], px[3])
				rgba.SetRGBA(x, y, color.RGBA{R: cr, G: cg, B: cb, A: 255})
			}
		}
	}

	if gray != nil {
		return gray, nil
	}
	return rgba, nil
}

// sample returns the i-th sample of a packed row scaled to 0-255.
func sample(row []byte, i, bpc int) uint8 {
	switch bpc {
	case 8:
		return row[i]
	case 16:
		return row[2*i] // high byte
	}
	bit := i * bpc
	v := (row[bit/8] >> (8 - bpc - bit%8)) & byte(1<<bpc-1)
	return v * uint8(255/(1<<bpc-1))
}
