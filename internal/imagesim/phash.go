package imagesim

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"math/bits"
	"sort"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// HashBits is the length of a perceptual hash in bits.
const HashBits = 64

// hashSize is the low-frequency block edge; hashSize^2 == HashBits.
// dctSize is the downsample edge the DCT runs over.
const (
	hashSize = 8
	dctSize  = 32
)

// Hash is a 64-bit DCT perceptual hash. Hashes of visually similar images
// differ in few bits regardless of scaling or recompression.
type Hash uint64

// String returns the hash as a fixed-width hex string.
func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// Distance returns the Hamming distance between two hashes.
// Parameters:
//   - a, b: hashes to compare.
// Returns:
//   - int: number of differing bits, in [0, HashBits].
func Distance(a, b Hash) int {
	return bits.OnesCount64(uint64(a) ^ uint64(b))
}

// HashImage computes the perceptual hash of a decoded image: downsample to
// a 32x32 grayscale grid, apply a 2D DCT, keep the top-left 8x8 block of
// coefficients and threshold each against their median.
// Parameters:
//   - img: decoded image.
// Returns:
//   - Hash: 64-bit perceptual hash.
func HashImage(img image.Image) Hash {
	gray := image.NewGray(image.Rect(0, 0, dctSize, dctSize))
	draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, img.Bounds(), draw.Src, nil)

	pixels := make([][]float64, dctSize)
	for y := 0; y < dctSize; y++ {
		pixels[y] = make([]float64, dctSize)
		for x := 0; x < dctSize; x++ {
			pixels[y][x] = float64(gray.GrayAt(x, y).Y)
		}
	}

	coeffs := dct2d(pixels)

	// Median over the low-frequency block gives a per-image threshold that
	// is stable under brightness and contrast shifts.
	block := make([]float64, 0, HashBits)
	for y := 0; y < hashSize; y++ {
		for x := 0; x < hashSize; x++ {
			block = append(block, coeffs[y][x])
		}
	}
	median := medianOf(block)

	var h Hash
	for i, c := range block {
		if c > median {
			h |= 1 << uint(HashBits-1-i)
		}
	}
	return h
}

// DecodeAndHash decodes an image payload and hashes it. JPEG, PNG, GIF and
// WebP are registered.
// Parameters:
//   - r: raw image bytes.
// Returns:
//   - Hash: perceptual hash of the decoded image.
//   - error: non-nil if the payload cannot be decoded.
func DecodeAndHash(r io.Reader) (Hash, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return 0, fmt.Errorf("failed to decode image: %w", err)
	}
	return HashImage(img), nil
}

// dct2d applies a type-II DCT to rows and then columns.
func dct2d(pixels [][]float64) [][]float64 {
	n := len(pixels)
	rows := make([][]float64, n)
	for y := 0; y < n; y++ {
		rows[y] = dct1d(pixels[y])
	}
	out := make([][]float64, n)
	for y := 0; y < n; y++ {
		out[y] = make([]float64, n)
	}
	col := make([]float64, n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			col[y] = rows[y][x]
		}
		transformed := dct1d(col)
		for y := 0; y < n; y++ {
			out[y][x] = transformed[y]
		}
	}
	return out
}

// dct1d is a direct O(n^2) type-II DCT; n is 32, so speed is irrelevant
// next to the network fetch that precedes it.
func dct1d(in []float64) []float64 {
	n := len(in)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += in[i] * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n)))
		}
		scale := math.Sqrt(2.0 / float64(n))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(n))
		}
		out[k] = sum * scale
	}
	return out
}

func medianOf(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
