package texture_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"shaderdbg/texture"
)

func TestSampleFallsBackToOpaqueWhiteWhenUnallocated(t *testing.T) {
	tex := texture.New()
	r, g, b, a := tex.Sample(0.5, 0.5, 0, 0)
	require.Equal(t, [4]float32{1, 1, 1, 1}, [4]float32{r, g, b, a})
}

func TestSampleNearestClamped(t *testing.T) {
	tex := texture.New()
	require.NoError(t, tex.Allocate(2, 2, 1))
	require.NoError(t, tex.Fill(1, 0, 0, 1))

	r, g, b, a := tex.Sample(0.25, 0.25, 0, 0)
	require.Equal(t, [4]float32{1, 0, 0, 1}, [4]float32{r, g, b, a})
}

// TestTexelFetchClampsUToWidth exercises the resolved Open Question from
// spec.md §9: the original implementation clamped `u` using `w` (depth)
// rather than `width`, a copy-paste bug. This texture is wide and shallow
// so the bug, if reintroduced, would clamp u against Depth (1) and read
// texel 0 instead of the painted texel 3.
func TestTexelFetchClampsUToWidth(t *testing.T) {
	tex := texture.New()
	require.NoError(t, tex.Allocate(4, 1, 1))
	require.NoError(t, tex.Fill(0, 0, 0, 0))

	// Paint texel (3, 0, 0) a distinct color; only fetches clamped against
	// Width (4), not Depth (1), can legitimately land on it.
	tex.Data[0][3*4+0] = 255
	tex.Data[0][3*4+3] = 255

	r, g, b, a := tex.TexelFetch(3, 0, 0, 0)
	require.Equal(t, [4]float32{1, 0, 0, 1}, [4]float32{r, g, b, a})

	// u = 10 clamps to Width-1 = 3, not Depth-1 = 0.
	r, g, b, a = tex.TexelFetch(10, 0, 0, 0)
	require.Equal(t, [4]float32{1, 0, 0, 1}, [4]float32{r, g, b, a})
}

func TestTexelFetchClampsNegativeToZero(t *testing.T) {
	tex := texture.New()
	require.NoError(t, tex.Allocate(2, 2, 2))
	require.NoError(t, tex.Fill(0, 1, 0, 1))

	r, g, b, a := tex.TexelFetch(-5, -5, -5, -5)
	require.Equal(t, [4]float32{0, 1, 0, 1}, [4]float32{r, g, b, a})
}

func TestAllocateRejectsNonPositiveDimensions(t *testing.T) {
	tex := texture.New()
	require.Error(t, tex.Allocate(0, 1, 1))
	require.Error(t, tex.Allocate(1, -1, 1))
}
