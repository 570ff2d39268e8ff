// Package pdftest generates small well-formed PDFs with accurate byte
// offsets for tests.
package pdftest

import (
	"fmt"
	"strings"
)

// Letter page size in points
const (
	LetterWidth  = 612.0
	LetterHeight = 792.0
)

// Options describes the document to generate
type Options struct {
	Pages      int
	PageWidth  float64
	PageHeight float64
	// Fields are raw dictionary bodies of merged field/widget annotations
	// placed on the first page, e.g. "/FT /Tx /T (name) /Rect [0 0 10 10]".
	Fields []string
}

// Document returns a PDF of n letter-sized pages with a line of text each
func Document(n int) []byte {
	return Build(Options{Pages: n})
}

// Build generates a PDF from opts
func Build(opts Options) []byte {
	if opts.Pages < 1 {
		opts.Pages = 1
	}
	if opts.PageWidth <= 0 {
		opts.PageWidth = LetterWidth
	}
	if opts.PageHeight <= 0 {
		opts.PageHeight = LetterHeight
	}

	// 1 catalog, 2 pages, 3 font, then pages+contents pairs, then fields
	firstPage := 4
	firstField := firstPage + 2*opts.Pages
	total := firstField + len(opts.Fields)

	var sb strings.Builder
	offsets := make([]int, total)
	sb.WriteString("%PDF-1.4\n")

	obj := func(num int, body string) {
		offsets[num] = sb.Len()
		fmt.Fprintf(&sb, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	var fieldRefs []string
	for i := range opts.Fields {
		fieldRefs = append(fieldRefs, fmt.Sprintf("%d 0 R", firstField+i))
	}

	catalog := "<<\n/Type /Catalog\n/Pages 2 0 R\n"
	if len(fieldRefs) > 0 {
		catalog += fmt.Sprintf("/AcroForm << /Fields [%s] /DA (/Helv 0 Tf 0 g) >>\n", strings.Join(fieldRefs, " "))
	}
	obj(1, catalog+">>")

	var kids []string
	for i := 0; i < opts.Pages; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", firstPage+2*i))
	}
	obj(2, fmt.Sprintf("<<\n/Type /Pages\n/Kids [%s]\n/Count %d\n>>", strings.Join(kids, " "), opts.Pages))
	obj(3, "<<\n/Type /Font\n/Subtype /Type1\n/BaseFont /Helvetica\n>>")

	for i := 0; i < opts.Pages; i++ {
		pageNum := firstPage + 2*i
		annots := ""
		if i == 0 && len(fieldRefs) > 0 {
			annots = fmt.Sprintf("/Annots [%s]\n", strings.Join(fieldRefs, " "))
		}
		obj(pageNum, fmt.Sprintf("<<\n/Type /Page\n/Parent 2 0 R\n/MediaBox [0 0 %g %g]\n/Contents %d 0 R\n/Resources << /Font << /F1 3 0 R >> >>\n%s>>",
			opts.PageWidth, opts.PageHeight, pageNum+1, annots))

		content := fmt.Sprintf("BT\n/F1 12 Tf\n72 %g Td\n(Page %d) Tj\nET\n", opts.PageHeight-72, i+1)
		obj(pageNum+1, fmt.Sprintf("<<\n/Length %d\n>>\nstream\n%sendstream", len(content), content))
	}

	for i, body := range opts.Fields {
		obj(firstField+i, fmt.Sprintf("<<\n/Type /Annot\n/Subtype /Widget\n/P %d 0 R\n%s\n>>", firstPage, body))
	}

	xrefStart := sb.Len()
	fmt.Fprintf(&sb, "xref\n0 %d\n0000000000 65535 f \n", total)
	for i := 1; i < total; i++ {
		fmt.Fprintf(&sb, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&sb, "trailer\n<<\n/Size %d\n/Root 1 0 R\n>>\nstartxref\n%d\n%%%%EOF\n", total, xrefStart)
	return []byte(sb.String())
}
