package facegrab

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// fallbackExt is used when the decoder reports no format.
const fallbackExt = "jpg"

// DecodedImage is a candidate's pixel data. It lives for one filter pass.
type DecodedImage struct {
	Image  image.Image
	Width  int
	Height int
	Format string // registered format name, e.g. "jpeg", "png", "webp"
	Digest string // ExactHash of the bytes it was decoded from
}

// Ext returns the file extension for the decoded format.
func (d *DecodedImage) Ext() string {
	if d.Format == "" {
		return fallbackExt
	}
	return d.Format
}

// StdDecoder decodes with the image package registry
// (gif, jpeg, png, bmp, tiff, webp).
type StdDecoder struct{}

// Decode implements Decoder.
func (StdDecoder) Decode(data []byte) (*DecodedImage, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &DecodedImage{
		Image:  img,
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: format,
	}, nil
}
