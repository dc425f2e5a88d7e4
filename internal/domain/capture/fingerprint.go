package capture

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"image"
	"image/draw"
)

// Digest is a content fingerprint over decoded pixel data. Used only for
// equality comparison between captures, never for security.
type Digest [sha256.Size]byte

// String returns the lowercase hex form of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Fingerprint hashes the decoded pixels of img. The image is redrawn into a
// canonical NRGBA buffer first, so the same pixels produce the same digest
// regardless of which decoder or color model produced them. Dimensions are
// mixed in to keep a 1x4 and a 4x1 image of identical bytes distinct.
func Fingerprint(img image.Image) Digest {
	b := img.Bounds()
	canon := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canon, canon.Bounds(), img, b.Min, draw.Src)

	h := sha256.New()
	var dims [8]byte
	binary.BigEndian.PutUint32(dims[0:4], uint32(b.Dx()))
	binary.BigEndian.PutUint32(dims[4:8], uint32(b.Dy()))
	h.Write(dims[:])
	h.Write(canon.Pix)

	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}
