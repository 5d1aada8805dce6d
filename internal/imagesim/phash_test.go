package imagesim

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// patternImage renders a smooth deterministic gradient at the given edge
// size. The same pattern at different resolutions should hash alike.
func patternImage(size int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx := float64(x) / float64(size)
			fy := float64(y) / float64(size)
			v := uint8(127 + 120*math.Sin(4*math.Pi*fx)*math.Cos(2*math.Pi*fy))
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestHashImageDeterministic(t *testing.T) {
	img := patternImage(64)

	h1 := HashImage(img)
	h2 := HashImage(img)

	if h1 != h2 {
		t.Errorf("hash not deterministic: %s vs %s", h1, h2)
	}
	if Distance(h1, h2) != 0 {
		t.Errorf("distance to self = %d, want 0", Distance(h1, h2))
	}
}

func TestHashImageRobustToScaling(t *testing.T) {
	small := HashImage(patternImage(64))
	large := HashImage(patternImage(256))

	d := Distance(small, large)
	if d > 10 {
		t.Errorf("distance between scaled renditions = %d, want <= 10", d)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := Hash(0xdeadbeefcafef00d)
	b := Hash(0x0123456789abcdef)

	if Distance(a, b) != Distance(b, a) {
		t.Errorf("distance not symmetric: %d vs %d", Distance(a, b), Distance(b, a))
	}
}

func TestDistanceCountsBits(t *testing.T) {
	a := Hash(0)
	b := Hash(0b111) // differs in exactly three bits

	if got := Distance(a, b); got != 3 {
		t.Errorf("Distance = %d, want 3", got)
	}
	if got := Distance(a, a); got != 0 {
		t.Errorf("Distance to self = %d, want 0", got)
	}
}

func TestHashString(t *testing.T) {
	h := Hash(0xff)
	if got := h.String(); got != "00000000000000ff" {
		t.Errorf("String() = %q, want %q", got, "00000000000000ff")
	}
}
