package facegrab

import (
	"errors"

	"github.com/corona10/goimagehash"
)

// Fingerprint is a perceptual descriptor of visual content.
// Distance must be non-negative and symmetric.
type Fingerprint interface {
	Distance(other Fingerprint) (int, error)
}

var errIncomparable = errors.New("facegrab: fingerprints are not comparable")

// ImageHash is a Fingerprint backed by a 64-bit goimagehash value.
// Distance is the Hamming distance between hashes of the same kind.
type ImageHash struct {
	Hash *goimagehash.ImageHash
}

// Distance implements Fingerprint.
func (h ImageHash) Distance(other Fingerprint) (int, error) {
	o, ok := other.(ImageHash)
	if !ok || h.Hash == nil || o.Hash == nil {
		return 0, errIncomparable
	}
	return h.Hash.Distance(o.Hash)
}

// String returns the hash in goimagehash's "kind:hex" form.
func (h ImageHash) String() string {
	if h.Hash == nil {
		return ""
	}
	return h.Hash.ToString()
}

// PHash fingerprints images with a DCT perceptual hash.
type PHash struct{}

// Fingerprint implements Fingerprinter.
func (PHash) Fingerprint(img *DecodedImage) (Fingerprint, error) {
	h, err := goimagehash.PerceptionHash(img.Image)
	if err != nil {
		return nil, err
	}
	return ImageHash{Hash: h}, nil
}

// DHash fingerprints images with a difference hash. It is cheaper than PHash
// and a little more sensitive to crops.
type DHash struct{}

// Fingerprint implements Fingerprinter.
func (DHash) Fingerprint(img *DecodedImage) (Fingerprint, error) {
	h, err := goimagehash.DifferenceHash(img.Image)
	if err != nil {
		return nil, err
	}
	return ImageHash{Hash: h}, nil
}
