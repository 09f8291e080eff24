// Package transcode implements the HTTP-boundary-only optional re-encode
// of oversize images to JPEG, so that the cache itself always stores
// canonical originals while different clients can still receive a
// cheaper-to-transfer representation.
package transcode

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"
)

const sizeThreshold = 300 * 1024

// qualityFor returns the JPEG quality to re-encode at: jpeg sources are
// lowered further than png sources, since PNG recompression already yields
// most of the size reduction while JPEG re-encoding has much less room.
func qualityFor(mime string) int {
	if strings.HasSuffix(mime, "jpeg") || strings.HasSuffix(mime, "jpg") {
		return 60
	}
	return 80
}

// Convert returns a re-encoded JPEG and true if mime/data qualify for
// transcoding (image/png or image/jpeg, at least 300 KiB) and the
// conversion succeeds. Otherwise it returns (nil, false) and the caller
// should serve data unchanged.
func Convert(data []byte, mime string) ([]byte, bool) {
	if !strings.HasPrefix(mime, "image") {
		return nil, false
	}
	if len(data) < sizeThreshold {
		return nil, false
	}
	if !strings.HasSuffix(mime, "png") && !strings.HasSuffix(mime, "jpeg") {
		return nil, false
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: qualityFor(mime)}); err != nil {
		return nil, false
	}

	return out.Bytes(), true
}
