package extract

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextSource turns a document into plain text.
type TextSource interface {
	Text(ctx context.Context, path string) (string, error)
}

// PDFSource reads text page by page; pages are separated by a blank line and
// every rendered row of glyphs becomes one line.
type PDFSource struct{}

func (PDFSource) Text(ctx context.Context, path string) (text string, err error) {
	// the pdf reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		if pageText := strings.TrimSpace(joinLines(page.Content().Text)); pageText != "" {
			b.WriteString(pageText)
			b.WriteString("\n\n")
		}
	}

	return strings.TrimSpace(b.String()), nil
}

// lineTolerance is how far apart (in points) two glyph baselines may be and
// still count as the same row.
const lineTolerance = 1.0

// joinLines rebuilds the page's rows from positioned glyphs. A change of
// baseline starts a new line; a visible horizontal gap inside a row becomes
// a space.
func joinLines(texts []pdf.Text) string {
	var b strings.Builder
	var prev *pdf.Text

	for i := range texts {
		t := &texts[i]
		if t.S == "" {
			continue
		}

		switch {
		case prev == nil:
		case math.Abs(t.Y-prev.Y) > lineTolerance:
			b.WriteString("\n")
		case gap(prev, t) && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " "):
			b.WriteString(" ")
		}

		b.WriteString(t.S)
		prev = t
	}
	return b.String()
}

// gap needs glyph widths; fonts without a width table report zero and never
// get a synthetic space.
func gap(prev, next *pdf.Text) bool {
	if prev.W <= 0 {
		return false
	}
	size := prev.FontSize
	if size <= 0 {
		size = 10
	}
	return next.X-(prev.X+prev.W) > size*0.25
}
