// Package render turns PDF pages into images for display. Page counts come
// from a pure Go parser; rasterization uses MuPDF through go-fitz.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
	xdraw "golang.org/x/image/draw"

	derrors "github.com/Shashank-Shivakumar/Docfly/internal/errors"
	"github.com/Shashank-Shivakumar/Docfly/internal/logger"
)

// BaseDPI is the resolution of a page at 100% zoom
const BaseDPI = 72.0

// Page is a rendered page encoded as PNG
type Page struct {
	Number int     `json:"page"`
	Zoom   float64 `json:"zoom"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	PNG    []byte  `json:"-"`
}

// Probe returns the page count of data without rendering anything
func Probe(data []byte) (pages int, err error) {
	defer func() {
		// the parser panics on some malformed files
		if r := recover(); r != nil {
			pages, err = 0, derrors.NewRenderError("probe", fmt.Errorf("malformed PDF: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, derrors.NewRenderError("probe", fmt.Errorf("failed to open PDF: %w", err))
	}
	n := reader.NumPage()
	if n < 1 {
		return 0, derrors.NewRenderError("probe", fmt.Errorf("document has no pages"))
	}
	return n, nil
}

// Renderer rasterizes pages and caches the results per document, page and
// zoom level.
type Renderer struct {
	// MuPDF contexts are not safe for concurrent use
	mu    sync.Mutex
	cache *Cache
	log   *logger.Logger
}

// NewRenderer creates a renderer with an LRU of cacheSize pages
func NewRenderer(cacheSize int, log *logger.Logger) *Renderer {
	return &Renderer{cache: NewCache(cacheSize), log: logger.OrDiscard(log)}
}

// PageCount returns the number of pages MuPDF sees in data
func (r *Renderer) PageCount(data []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return 0, derrors.NewRenderError("page_count", fmt.Errorf("failed to open PDF: %w", err))
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

func cacheKey(docID string, page int, variant string) string {
	return fmt.Sprintf("%s:%d:%s", docID, page, variant)
}

// RenderPage renders page (1-based) of the document at zoom
func (r *Renderer) RenderPage(ctx context.Context, docID string, data []byte, page int, zoom float64) (*Page, error) {
	if zoom <= 0 || math.IsNaN(zoom) {
		zoom = 1
	}
	key := cacheKey(docID, page, fmt.Sprintf("%g", zoom))
	if p, ok := r.cache.Get(key); ok {
		return p, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p *Page
	err := r.withDocument(data, func(doc *fitz.Document) error {
		if page < 1 || page > doc.NumPage() {
			return fmt.Errorf("page %d out of range (document has %d pages)", page, doc.NumPage())
		}
		img, err := doc.ImageDPI(page-1, BaseDPI*zoom)
		if err != nil {
			return fmt.Errorf("failed to render page %d: %w", page, err)
		}
		p, err = encode(img, page, zoom)
		return err
	})
	if err != nil {
		return nil, derrors.NewRenderError("render_page", err)
	}

	r.log.Debug("Rendered page %d of %s at %.2fx (%dx%d)", page, docID, zoom, p.Width, p.Height)
	r.cache.Put(key, p)
	return p, nil
}

// Thumbnails renders every page scaled to maxWidth pixels wide
func (r *Renderer) Thumbnails(ctx context.Context, docID string, data []byte, maxWidth int) ([]*Page, error) {
	if maxWidth <= 0 {
		maxWidth = 120
	}

	var pages []*Page
	err := r.withDocument(data, func(doc *fitz.Document) error {
		for n := 0; n < doc.NumPage(); n++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := cacheKey(docID, n+1, fmt.Sprintf("thumb%d", maxWidth))
			if p, ok := r.cache.Get(key); ok {
				pages = append(pages, p)
				continue
			}

			bounds, err := doc.Bound(n)
			if err != nil {
				return fmt.Errorf("failed to get bounds for page %d: %w", n+1, err)
			}
			scale := 1.0
			if bounds.Dx() > 0 {
				scale = float64(maxWidth) / float64(bounds.Dx())
			}
			img, err := doc.ImageDPI(n, BaseDPI*scale)
			if err != nil {
				return fmt.Errorf("failed to render thumbnail %d: %w", n+1, err)
			}
			p, err := encode(fitWidth(img, maxWidth), n+1, scale)
			if err != nil {
				return err
			}
			r.cache.Put(key, p)
			pages = append(pages, p)
		}
		return nil
	})
	if err != nil {
		return nil, derrors.NewRenderError("thumbnails", err)
	}
	return pages, nil
}

// Invalidate drops every cached page of docID
func (r *Renderer) Invalidate(docID string) int {
	return r.cache.RemovePrefix(docID + ":")
}

// CacheStats reports the page cache counters
func (r *Renderer) CacheStats() CacheStats {
	return r.cache.Stats()
}

func (r *Renderer) withDocument(data []byte, fn func(*fitz.Document) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()
	return fn(doc)
}

// fitWidth rescales img to exactly width pixels, keeping the aspect ratio
func fitWidth(img image.Image, width int) image.Image {
	b := img.Bounds()
	if b.Dx() == width || b.Dx() == 0 {
		return img
	}
	height := int(math.Round(float64(b.Dy()) * float64(width) / float64(b.Dx())))
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

func encode(img image.Image, page int, zoom float64) (*Page, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode page %d: %w", page, err)
	}
	b := img.Bounds()
	return &Page{Number: page, Zoom: zoom, Width: b.Dx(), Height: b.Dy(), PNG: buf.Bytes()}, nil
}
