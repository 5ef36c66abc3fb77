package embedding

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// ImageNet channel statistics used by the Inception-v3 preprocessing pipeline.
var (
	channelMean = [3]float32{0.485, 0.456, 0.406}
	channelStd  = [3]float32{0.229, 0.224, 0.225}
)

// DecodeImage decodes JPEG or PNG bytes.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Preprocess resizes img to size x size and returns NCHW float32 tensor data
// (batch 1), scaled to [0,1] and normalized with ImageNet mean/std.
func Preprocess(img image.Image, size int) []float32 {
	resized := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, img.Bounds(), draw.Over, nil)

	out := make([]float32, 3*size*size)
	plane := size * size
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			// RGBA returns 16-bit channels.
			out[0*plane+y*size+x] = (float32(r)/65535.0 - channelMean[0]) / channelStd[0]
			out[1*plane+y*size+x] = (float32(g)/65535.0 - channelMean[1]) / channelStd[1]
			out[2*plane+y*size+x] = (float32(b)/65535.0 - channelMean[2]) / channelStd[2]
		}
	}
	return out
}
