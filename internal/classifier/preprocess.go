package classifier

import (
	"bytes"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// inputSize matches the resolution the model was trained at.
const inputSize = 224

const jpegQuality = 90

// preprocess decodes an uploaded photo of arbitrary size and format
// and re-encodes it as the square JPEG the model server expects.
// Undecodable input is a ClassificationError: a corrupt upload is not
// transient, so there is nothing to retry.
func preprocess(raw []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, NewClassificationError("image undecodable", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, inputSize, inputSize))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, NewClassificationError("image re-encode failed", err)
	}
	return buf.Bytes(), nil
}
