package classifier

import (
	"image"
	"math"
)

// imageToTensor converts an image to a float32 slice in NHWC order with
// shape (1, height, width, 3), resampling to the target size with nearest
// neighbour and scaling pixel values to [-1, 1] as MobileNetV3
// preprocessing expects.
func imageToTensor(img image.Image, width, height int) []float32 {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	out := make([]float32, 1*height*width*3)

	// iterate rows (y) then columns (x) so memory layout matches NHWC
	for y := 0; y < height; y++ {
		srcY := bounds.Min.Y + y*srcH/height
		for x := 0; x < width; x++ {
			srcX := bounds.Min.X + x*srcW/width

			r32, g32, b32, _ := img.At(srcX, srcY).RGBA()
			// 16-bit color down to 8-bit, then to [-1, 1]
			r := float32(r32>>8)/127.5 - 1.0
			g := float32(g32>>8)/127.5 - 1.0
			b := float32(b32>>8)/127.5 - 1.0

			base := ((y * width) + x) * 3
			out[base+0] = r
			out[base+1] = g
			out[base+2] = b
		}
	}

	return out
}

// softmax converts logits to a probability distribution. The maximum is
// subtracted before exponentiation so large logits cannot overflow.
func softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}

	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}

	out := make([]float32, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - maxLogit))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

// argmax returns the index of the largest value, 0 for an empty slice.
func argmax(values []float32) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
