// Package content renders the downloadable study-guide artifact for a
// product. The output is a single-page PDF assembled without an external
// rendering dependency.
package content

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sfexams/store/internal/domain"
	"github.com/sfexams/store/internal/port"
)

type PDFGenerator struct {
	now func() time.Time
}

func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{now: time.Now}
}

var _ port.ContentGenerator = (*PDFGenerator)(nil)

func (g *PDFGenerator) Generate(product domain.Product) domain.Artifact {
	lines := []string{
		product.ExamName,
		"Exam code: " + lo.FromPtrOr(product.ExamCode, "n/a"),
		"Difficulty: " + product.DifficultyLevel,
		"",
		"Official study guide and practice questions.",
		"Generated on " + g.now().Format("2006-01-02"),
	}

	return domain.Artifact{
		ContentType: "application/pdf",
		FileName:    product.FileName(),
		Data:        renderPDF(lines),
	}
}

// renderPDF builds a minimal one-page PDF: catalog, page tree, page, a
// Helvetica font and a text content stream, followed by a correct xref table.
func renderPDF(lines []string) []byte {
	var text strings.Builder
	text.WriteString("BT /F1 18 Tf 72 720 Td 24 TL\n")
	for i, line := range lines {
		if i == 1 {
			text.WriteString("/F1 12 Tf 18 TL\n")
		}
		fmt.Fprintf(&text, "(%s) Tj T*\n", escapePDF(line))
	}
	text.WriteString("ET")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", text.Len(), text.String()),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

func escapePDF(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
