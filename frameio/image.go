// Package frameio reads segmentation masks, depth maps and sequence manifests from disk and writes tracking reports.
package frameio

import (
	"image"
	"image/color"
	_ "image/png"
	"os"

	"github.com/LdDl/sidewalk-go/segment"
	"github.com/pkg/errors"
	_ "golang.org/x/image/tiff"
)

// ErrClassOverflow is returned when a 16-bit mask holds a value that does not fit a class id
var ErrClassOverflow = errors.New("mask value does not fit into 8 bits")

func decodeImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open %s", path)
	}
	defer file.Close()
	img, format, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't decode %s", path)
	}
	if format != "png" && format != "tiff" {
		return nil, errors.Errorf("unsupported image format %q in %s", format, path)
	}
	return img, nil
}

// LoadMask reads a segmentation mask from PNG or TIFF file.
// Gray images hold class values directly, paletted images hold them as palette indices.
func LoadMask(path string) (*segment.Mask, error) {
	img, err := decodeImage(path)
	if err != nil {
		return nil, err
	}
	return MaskFromImage(img)
}

// MaskFromImage converts decoded image into a mask
func MaskFromImage(img image.Image) (*segment.Mask, error) {
	bounds := img.Bounds()
	mask := segment.NewGrid[uint8](bounds.Dx(), bounds.Dy())
	switch src := img.(type) {
	case *image.Gray:
		for y := range mask.Height {
			copy(mask.Data[y*mask.Width:(y+1)*mask.Width], src.Pix[y*src.Stride:y*src.Stride+mask.Width])
		}
	case *image.Paletted:
		for y := range mask.Height {
			copy(mask.Data[y*mask.Width:(y+1)*mask.Width], src.Pix[y*src.Stride:y*src.Stride+mask.Width])
		}
	case *image.Gray16:
		for y := range mask.Height {
			for x := range mask.Width {
				v := src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y
				if v > 255 {
					return nil, errors.Wrapf(ErrClassOverflow, "value %d at (%d, %d)", v, x, y)
				}
				mask.Set(x, y, uint8(v))
			}
		}
	default:
		for y := range mask.Height {
			for x := range mask.Width {
				gray := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
				mask.Set(x, y, gray.Y)
			}
		}
	}
	return mask, nil
}

// LoadDepth reads a depth map from PNG or TIFF file. Raw pixel values are multiplied by scale to get meters.
func LoadDepth(path string, scale float64) (*segment.DepthMap, error) {
	img, err := decodeImage(path)
	if err != nil {
		return nil, err
	}
	return DepthFromImage(img, scale), nil
}

// DepthFromImage converts decoded 16-bit (or 8-bit) gray image into a depth map
func DepthFromImage(img image.Image, scale float64) *segment.DepthMap {
	bounds := img.Bounds()
	depth := segment.NewGrid[float64](bounds.Dx(), bounds.Dy())
	for y := range depth.Height {
		for x := range depth.Width {
			px, py := bounds.Min.X+x, bounds.Min.Y+y
			var raw uint16
			switch src := img.(type) {
			case *image.Gray16:
				raw = src.Gray16At(px, py).Y
			case *image.Gray:
				raw = uint16(src.GrayAt(px, py).Y)
			default:
				raw = color.Gray16Model.Convert(img.At(px, py)).(color.Gray16).Y
			}
			depth.Set(x, y, float64(raw)*scale)
		}
	}
	return depth
}
