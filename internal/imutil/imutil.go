// Package imutil holds the small file and image helpers shared by the
// model and demo packages: file discovery, JSON round-trips, image
// tensorizing and rectangle annotation.
package imutil

import (
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// FindFiles lists the files directly under dir whose names end in one of
// the given suffixes (case-insensitive). The result is sorted by
// directory order as returned by the OS.
func FindFiles(dir string, suffixes ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read directory %s", dir)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		for _, s := range suffixes {
			if strings.HasSuffix(name, strings.ToLower(s)) {
				files = append(files, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	return files, nil
}

// FindImages walks dir recursively and returns every jpg/jpeg/png file.
func FindImages(dir string) ([]string, error) {
	var images []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".jpg", ".jpeg", ".png":
			images = append(images, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scanning %s for images", dir)
	}
	return images, nil
}

// ReadJSON decodes the JSON file at path into v.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "cannot read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "cannot parse %s", path)
	}
	return nil
}

// WriteJSON writes v as indented JSON to path.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "cannot encode JSON")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "cannot write %s", path)
	}
	return nil
}

// LoadTensor decodes the image at path, resizes it to size x size and
// returns CHW-ordered float32 values normalized to [0, 1].
func LoadTensor(path string, size int) ([]float32, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load image %s", path)
	}

	resized := resize.Resize(uint(size), uint(size), img, resize.Bilinear)
	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	data := make([]float32, 3*width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			idx := y*width + x
			data[idx] = float32(r) / 65535.0
			data[width*height+idx] = float32(g) / 65535.0
			data[2*width*height+idx] = float32(b) / 65535.0
		}
	}
	return data, nil
}

const rectBorder = 3

// AnnotateRect copies the image at path into destDir with rect drawn as a
// red border, returning the written path.
func AnnotateRect(path string, rect image.Rectangle, destDir string) (string, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "cannot load image %s", path)
	}

	canvas := image.NewRGBA(img.Bounds())
	draw.Draw(canvas, canvas.Bounds(), img, img.Bounds().Min, draw.Src)

	red := color.RGBA{R: 255, A: 255}
	rect = rect.Intersect(canvas.Bounds())
	for t := 0; t < rectBorder; t++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			setIfInside(canvas, x, rect.Min.Y+t, red)
			setIfInside(canvas, x, rect.Max.Y-1-t, red)
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			setIfInside(canvas, rect.Min.X+t, y, red)
			setIfInside(canvas, rect.Max.X-1-t, y, red)
		}
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", errors.Wrapf(err, "cannot create %s", destDir)
	}
	out := filepath.Join(destDir, filepath.Base(path))
	if err := imgio.Save(out, canvas, encoderFor(out)); err != nil {
		return "", errors.Wrapf(err, "cannot save %s", out)
	}
	return out, nil
}

func setIfInside(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

func encoderFor(path string) imgio.Encoder {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return imgio.PNGEncoder()
	default:
		return imgio.JPEGEncoder(95)
	}
}

// TodayDir creates and returns base/<YYYYMMDD> for today's date.
func TodayDir(base string) (string, error) {
	dir := filepath.Join(base, time.Now().Format("20060102"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "cannot create %s", dir)
	}
	return dir, nil
}
