package segment

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// DefaultKernelSize is side of the square structuring element used by Clean
const DefaultKernelSize = 5

// Clean binarizes the mask and applies morphological opening followed by closing
// with an all-ones kernelSize x kernelSize structuring element. Pixels outside of the grid count as background.
// Opening drops specks smaller than the kernel, closing fills gaps smaller than the kernel.
func Clean(mask *Mask, kernelSize int) (*Mask, error) {
	binary := Binarize(mask)
	if kernelSize <= 1 {
		return binary, nil
	}
	steps := []func(*Mask, int) (*Mask, error){Erode, Dilate, Dilate, Erode}
	out := binary
	for _, step := range steps {
		var err error
		out, err = step(out, kernelSize)
		if err != nil {
			return nil, errors.Wrap(err, "Can't clean mask")
		}
	}
	return out, nil
}

// Binarize returns mask where every non-zero pixel becomes 1
func Binarize(mask *Mask) *Mask {
	out := NewGrid[uint8](mask.Width, mask.Height)
	for i, v := range mask.Data {
		if v > 0 {
			out.Data[i] = 1
		}
	}
	return out
}

// Erode keeps a pixel only when the whole kernelSize x kernelSize window centered on it is foreground.
func Erode(mask *Mask, kernelSize int) (*Mask, error) {
	return morph(mask, kernelSize, gocv.Erode)
}

// Dilate sets a pixel when any pixel of the kernelSize x kernelSize window centered on it is foreground.
func Dilate(mask *Mask, kernelSize int) (*Mask, error) {
	return morph(mask, kernelSize, gocv.Dilate)
}

// morph pads the binarized mask with a background border wider than the kernel, runs the OpenCV operation and crops the border back,
// so pixels outside of the grid read as 0 for erosion as well as dilation.
func morph(mask *Mask, kernelSize int, op func(src gocv.Mat, dst *gocv.Mat, kernel gocv.Mat) error) (*Mask, error) {
	binary := Binarize(mask)
	if kernelSize <= 1 || mask.Width == 0 || mask.Height == 0 {
		return binary, nil
	}

	src, err := gocv.NewMatFromBytes(mask.Height, mask.Width, gocv.MatTypeCV8U, binary.Data)
	if err != nil {
		return nil, errors.Wrap(err, "Can't wrap mask into Mat")
	}
	defer src.Close()

	padded := gocv.NewMat()
	defer padded.Close()
	gocv.CopyMakeBorder(src, &padded, kernelSize, kernelSize, kernelSize, kernelSize, gocv.BorderConstant, color.RGBA{})

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: kernelSize, Y: kernelSize})
	defer kernel.Close()

	result := gocv.NewMat()
	defer result.Close()
	op(padded, &result, kernel)

	data := result.ToBytes()
	paddedWidth := mask.Width + 2*kernelSize
	out := NewGrid[uint8](mask.Width, mask.Height)
	for y := range mask.Height {
		row := (y + kernelSize) * paddedWidth
		copy(out.Data[y*mask.Width:(y+1)*mask.Width], data[row+kernelSize:row+kernelSize+mask.Width])
	}
	return out, nil
}
