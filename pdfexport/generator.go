// Package pdfexport renders itineraries to PDF documents for download
// and client hand-off.
package pdfexport

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/models"
	"github.com/unidoc/unipdf/v3/creator"
	"github.com/unidoc/unipdf/v3/model"
)

// Generator converts itinerary Markdown into a styled PDF.
type Generator struct {
	regular *model.PdfFont
	bold    *model.PdfFont
}

func NewGenerator() (*Generator, error) {
	regular, err := model.NewStandard14Font(model.HelveticaName)
	if err != nil {
		return nil, fmt.Errorf("failed to load regular font: %w", err)
	}
	bold, err := model.NewStandard14Font(model.HelveticaBoldName)
	if err != nil {
		return nil, fmt.Errorf("failed to load bold font: %w", err)
	}
	return &Generator{regular: regular, bold: bold}, nil
}

// Generate renders the itinerary to PDF bytes.
func (g *Generator) Generate(it *models.Itinerary) ([]byte, error) {
	if it == nil {
		return nil, fmt.Errorf("itinerary cannot be nil")
	}

	startTime := time.Now()

	c := creator.New()
	c.SetPageMargins(50, 50, 60, 60)

	title := c.NewParagraph(it.Title)
	title.SetFont(g.bold)
	title.SetFontSize(22)
	title.SetMargins(0, 0, 0, 8)
	if err := c.Draw(title); err != nil {
		return nil, fmt.Errorf("failed to draw title: %w", err)
	}

	subtitle := c.NewParagraph(fmt.Sprintf("%s · %s to %s · %d travelers",
		it.Destination, it.StartDate, it.EndDate, it.Travelers))
	subtitle.SetFont(g.regular)
	subtitle.SetFontSize(11)
	subtitle.SetColor(creator.ColorRGBFrom8bit(90, 90, 90))
	subtitle.SetMargins(0, 0, 0, 18)
	if err := c.Draw(subtitle); err != nil {
		return nil, fmt.Errorf("failed to draw subtitle: %w", err)
	}

	if err := g.drawMarkdown(c, it.Content); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := c.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}

	log.Printf("INFO (PDFExport): Generated PDF for itinerary %s (%d bytes) in %v",
		it.ID, buf.Len(), time.Since(startTime))
	return buf.Bytes(), nil
}

// drawMarkdown maps the subset of Markdown the generator emits (ATX
// headings, bullet lists, plain paragraphs) onto styled paragraphs.
func (g *Generator) drawMarkdown(c *creator.Creator, content string) error {
	for _, rawLine := range strings.Split(content, "\n") {
		line := strings.TrimRight(rawLine, " \t")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		var p *creator.Paragraph
		switch {
		case strings.HasPrefix(trimmed, "## "):
			p = c.NewParagraph(strings.TrimPrefix(trimmed, "## "))
			p.SetFont(g.bold)
			p.SetFontSize(15)
			p.SetMargins(0, 0, 12, 6)
		case strings.HasPrefix(trimmed, "# "):
			p = c.NewParagraph(strings.TrimPrefix(trimmed, "# "))
			p.SetFont(g.bold)
			p.SetFontSize(18)
			p.SetMargins(0, 0, 14, 8)
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			p = c.NewParagraph("•  " + stripInlineMarkdown(trimmed[2:]))
			p.SetFont(g.regular)
			p.SetFontSize(11)
			p.SetMargins(14, 0, 2, 2)
		default:
			p = c.NewParagraph(stripInlineMarkdown(trimmed))
			p.SetFont(g.regular)
			p.SetFontSize(11)
			p.SetMargins(0, 0, 4, 4)
		}
		p.SetLineHeight(1.35)

		if err := c.Draw(p); err != nil {
			return fmt.Errorf("failed to draw paragraph: %w", err)
		}
	}
	return nil
}

// stripInlineMarkdown removes bold/italic markers that would otherwise
// render literally.
func stripInlineMarkdown(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	return strings.ReplaceAll(s, "*", "")
}
