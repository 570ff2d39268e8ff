package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "github.com/Shashank-Shivakumar/Docfly/internal/errors"
	"github.com/Shashank-Shivakumar/Docfly/internal/pdf/pdftest"
)

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2)
	c.Put("a", &Page{Number: 1})
	c.Put("b", &Page{Number: 2})

	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", &Page{Number: 3})
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"c", "a"}, c.Keys())

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, 50.0, stats.HitRate)
}

func TestCache_UpdateAndRemovePrefix(t *testing.T) {
	c := NewCache(0)
	assert.Equal(t, DefaultCacheSize, c.Stats().Capacity)

	c.Put("doc1:1:1", &Page{Number: 1})
	c.Put("doc1:2:1", &Page{Number: 2})
	c.Put("doc2:1:1", &Page{Number: 1})
	c.Put("doc1:1:1", &Page{Number: 9})

	p, ok := c.Get("doc1:1:1")
	require.True(t, ok)
	assert.Equal(t, 9, p.Number)

	assert.Equal(t, 2, c.RemovePrefix("doc1:"))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []string{"doc2:1:1"}, c.Keys())
}

func TestProbe(t *testing.T) {
	n, err := Probe(pdftest.Document(3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = Probe([]byte("definitely not a pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, derrors.ErrRender))
}

func TestRenderer_RenderPage(t *testing.T) {
	r := NewRenderer(4, nil)
	data := pdftest.Document(2)

	count, err := r.PageCount(data)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	p, err := r.RenderPage(context.Background(), "doc", data, 2, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Number)
	assert.InDelta(t, 306, p.Width, 1)
	assert.InDelta(t, 396, p.Height, 1)

	img, err := png.Decode(bytes.NewReader(p.PNG))
	require.NoError(t, err)
	assert.Equal(t, p.Width, img.Bounds().Dx())

	again, err := r.RenderPage(context.Background(), "doc", data, 2, 0.5)
	require.NoError(t, err)
	assert.Same(t, p, again)
	assert.Equal(t, int64(1), r.CacheStats().Hits)

	assert.Equal(t, 1, r.Invalidate("doc"))
}

func TestRenderer_Errors(t *testing.T) {
	r := NewRenderer(4, nil)

	_, err := r.RenderPage(context.Background(), "doc", pdftest.Document(1), 5, 1)
	assert.Equal(t, derrors.ErrorTypeRender, derrors.TypeOf(err))

	_, err = r.RenderPage(context.Background(), "bad", []byte("nope"), 1, 1)
	assert.Equal(t, derrors.ErrorTypeRender, derrors.TypeOf(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.RenderPage(ctx, "doc", pdftest.Document(1), 1, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderer_Thumbnails(t *testing.T) {
	r := NewRenderer(8, nil)
	pages, err := r.Thumbnails(context.Background(), "doc", pdftest.Document(2), 100)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	for i, p := range pages {
		assert.Equal(t, i+1, p.Number)
		assert.Equal(t, 100, p.Width)
	}
	assert.Equal(t, 2, r.cache.Len())
}

func TestFitWidth(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	out := fitWidth(src, 50)
	assert.Equal(t, 50, out.Bounds().Dx())
	assert.Equal(t, 25, out.Bounds().Dy())
	assert.Same(t, src, fitWidth(src, 200))
}
