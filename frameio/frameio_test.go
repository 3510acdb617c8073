package frameio

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LdDl/sidewalk-go/mot"
	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, img))
}

func writeTIFF(t *testing.T, path string, img image.Image) {
	t.Helper()
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, tiff.Encode(file, img, nil))
}

func TestLoadMaskGrayPNG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	img.SetGray(0, 0, color.Gray{Y: 1})
	img.SetGray(2, 1, color.Gray{Y: 2})
	path := filepath.Join(t.TempDir(), "mask.png")
	writePNG(t, path, img)

	mask, err := LoadMask(path)
	require.NoError(t, err)
	want := [][]uint8{
		{1, 0, 0},
		{0, 0, 2},
	}
	if diff := cmp.Diff(want, mask.Rows()); diff != "" {
		t.Errorf("mask mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMaskPalettedUsesIndex(t *testing.T) {
	palette := color.Palette{color.Black, color.RGBA{R: 255, A: 255}, color.RGBA{G: 255, A: 255}}
	img := image.NewPaletted(image.Rect(0, 0, 2, 2), palette)
	img.SetColorIndex(1, 0, 1)
	img.SetColorIndex(0, 1, 2)
	path := filepath.Join(t.TempDir(), "mask.png")
	writePNG(t, path, img)

	mask, err := LoadMask(path)
	require.NoError(t, err)
	want := [][]uint8{
		{0, 1},
		{2, 0},
	}
	if diff := cmp.Diff(want, mask.Rows()); diff != "" {
		t.Errorf("mask mismatch (-want +got):\n%s", diff)
	}
}

func TestMaskFromGray16Overflow(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 1))
	img.SetGray16(1, 0, color.Gray16{Y: 300})
	_, err := MaskFromImage(img)
	assert.ErrorIs(t, err, ErrClassOverflow)

	img.SetGray16(1, 0, color.Gray16{Y: 3})
	mask, err := MaskFromImage(img)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 3}, mask.Data)
}

func TestLoadDepthTIFF(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 2))
	img.SetGray16(0, 0, color.Gray16{Y: 1500})
	img.SetGray16(1, 0, color.Gray16{Y: 2000})
	img.SetGray16(0, 1, color.Gray16{Y: 65535})
	path := filepath.Join(t.TempDir(), "depth.tiff")
	writeTIFF(t, path, img)

	depth, err := LoadDepth(path, 0.001)
	require.NoError(t, err)
	require.Equal(t, 2, depth.Width)
	require.Equal(t, 2, depth.Height)
	assert.InDelta(t, 1.5, depth.At(0, 0), 1e-9)
	assert.InDelta(t, 2.0, depth.At(1, 0), 1e-9)
	assert.InDelta(t, 65.535, depth.At(0, 1), 1e-9)
	assert.Equal(t, 0.0, depth.At(1, 1))
}

func TestLoadDepthGray8PNG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 1, 1))
	img.SetGray(0, 0, color.Gray{Y: 40})
	path := filepath.Join(t.TempDir(), "depth.png")
	writePNG(t, path, img)

	depth, err := LoadDepth(path, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, depth.At(0, 0), 1e-9)
}

func TestLoadImageErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadMask(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0644))
	_, err = LoadDepth(garbage, 1)
	assert.Error(t, err)
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	content := `frames:
  - mask: masks/0001.png
    depth: depth/0001.tiff
    yaw: 12.5
    latitude: 47.6
    longitude: -122.3
  - mask: /data/masks/0002.png
    depth: /data/depth/0002.tiff
`
	path := filepath.Join(dir, "sequence.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	manifest, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, manifest.Frames, 2)

	first := manifest.Frames[0]
	assert.Equal(t, filepath.Join(dir, "masks", "0001.png"), first.Mask)
	assert.Equal(t, filepath.Join(dir, "depth", "0001.tiff"), first.Depth)
	assert.Equal(t, 12.5, first.Yaw)
	assert.Equal(t, orb.Point{-122.3, 47.6}, first.Observer())

	assert.Equal(t, "/data/masks/0002.png", manifest.Frames[1].Mask)
}

func TestLoadManifestMissingPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequence.yaml")
	require.NoError(t, os.WriteFile(path, []byte("frames:\n  - mask: a.png\n"), 0644))
	_, err := LoadManifest(path)
	assert.Error(t, err)
}

func TestReportWriter(t *testing.T) {
	tracker := mot.NewCentroidTrackerDefault()
	objects, _, err := tracker.Update([]mot.Detection{{
		Name:     "sidewalk",
		Centroid: mot.NewPoint(12, 30.5),
		Distance: 4.25,
		Width:    1.5,
		Heading:  270,
		Location: orb.Point{-122.3, 47.6},
	}})
	require.NoError(t, err)

	var buf bytes.Buffer
	report := NewReportWriter(&buf)
	require.NoError(t, report.WriteFrame("stream-a", 0, []*mot.TrackedObject{objects[0]}))
	tracker.Update(nil)
	require.NoError(t, report.WriteFrame("stream-a", 1, []*mot.TrackedObject{objects[0]}))
	require.NoError(t, report.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "stream;frame;object_id;name;centroid_x;centroid_y;distance;width;heading;latitude;longitude;disappeared", lines[0])
	assert.Equal(t, "stream-a;0;0;sidewalk;12;30.5;4.25;1.5;270;47.6;-122.3;0", lines[1])
	assert.Equal(t, "stream-a;1;0;sidewalk;12;30.5;4.25;1.5;270;47.6;-122.3;1", lines[2])
}
