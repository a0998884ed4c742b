// Package cascade counts faces with an OpenCV Haar cascade classifier.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	facegrab "github.com/anatolykoptev/go-facegrab"
)

// Detection parameters used by the frontal-face cascade.
const (
	DefaultScaleFactor  = 1.1
	DefaultMinNeighbors = 5
	DefaultMinSize      = 60
)

// Options tune DetectMultiScale. Zero values use the defaults above.
type Options struct {
	ScaleFactor  float64
	MinNeighbors int
	MinSize      int // minimum face side in pixels
}

// Detector implements facegrab.SubjectDetector. The underlying classifier is
// not safe for concurrent use, so calls are serialized.
type Detector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	opts       Options
}

var _ facegrab.SubjectDetector = (*Detector)(nil)

// New loads the cascade XML at path (e.g. haarcascade_frontalface_default.xml).
func New(path string, opts Options) (*Detector, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cascade file: %w", err)
	}
	if opts.ScaleFactor <= 1 {
		opts.ScaleFactor = DefaultScaleFactor
	}
	if opts.MinNeighbors <= 0 {
		opts.MinNeighbors = DefaultMinNeighbors
	}
	if opts.MinSize <= 0 {
		opts.MinSize = DefaultMinSize
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade: %s", path)
	}
	return &Detector{classifier: classifier, opts: opts}, nil
}

// DetectCount returns the number of faces found in img.
func (d *Detector) DetectCount(_ context.Context, img *facegrab.DecodedImage) (int, error) {
	if img == nil || img.Image == nil {
		return 0, errors.New("cascade: no image")
	}

	rgb, err := gocv.ImageToMatRGB(img.Image)
	if err != nil {
		return 0, fmt.Errorf("cascade: convert image: %w", err)
	}
	defer rgb.Close()
	if rgb.Empty() {
		return 0, errors.New("cascade: empty image")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(rgb, &gray, gocv.ColorRGBToGray)

	d.mu.Lock()
	defer d.mu.Unlock()

	minSize := image.Pt(d.opts.MinSize, d.opts.MinSize)
	faces := d.classifier.DetectMultiScaleWithParams(gray, d.opts.ScaleFactor, d.opts.MinNeighbors, 0, minSize, image.Point{})
	return len(faces), nil
}

// Close releases the classifier.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}
