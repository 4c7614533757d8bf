package report

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// zip entries carry this time so output does not depend on the clock
var fixedModTime = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	wordNS  = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	relsNS  = "http://schemas.openxmlformats.org/package/2006/relationships"
	xmlDecl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

const contentTypes = xmlDecl + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`</Types>`

const packageRels = xmlDecl + `<Relationships xmlns="` + relsNS + `">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentRels = xmlDecl + `<Relationships xmlns="` + relsNS + `">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`</Relationships>`

func renderDOCX(doc *document) ([]byte, error) {
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", packageRels},
		{"word/_rels/document.xml.rels", documentRels},
		{"word/styles.xml", stylesXML(doc.font)},
		{"word/document.xml", documentXML(doc)},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     p.name,
			Method:   zip.Deflate,
			Modified: fixedModTime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish docx: %w", err)
	}
	return buf.Bytes(), nil
}

func escape(s string) string {
	var b strings.Builder
	// strings.Builder never fails
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

type docxBody struct {
	strings.Builder
}

// para writes one paragraph; newlines in text become line breaks.
func (b *docxBody) para(style, text string) {
	b.WriteString("<w:p>")
	if style != "" {
		fmt.Fprintf(b, `<w:pPr><w:pStyle w:val="%s"/></w:pPr>`, style)
	}
	if text != "" {
		b.WriteString("<w:r>")
		for i, line := range strings.Split(text, "\n") {
			if i > 0 {
				b.WriteString("<w:br/>")
			}
			fmt.Fprintf(b, `<w:t xml:space="preserve">%s</w:t>`, escape(line))
		}
		b.WriteString("</w:r>")
	}
	b.WriteString("</w:p>")
}

func documentXML(doc *document) string {
	var b docxBody
	b.WriteString(xmlDecl)
	fmt.Fprintf(&b, `<w:document xmlns:w="%s"><w:body>`, wordNS)

	b.para("Title", doc.title)
	for _, m := range doc.meta {
		b.para("Heading2", m)
	}
	b.para("", "")

	for _, s := range doc.sections {
		if s.heading != "" {
			b.para(fmt.Sprintf("Heading%d", s.headingRank), s.heading)
		}
		b.para("", s.text)
		b.para("Code", s.sql)
		b.para("Terminal", s.terminal)
		b.para("", "")
	}

	b.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` +
		`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="708" w:footer="708" w:gutter="0"/>` +
		`</w:sectPr></w:body></w:document>`)
	return b.String()
}

func stylesXML(font string) string {
	f := escape(font)
	rFonts := func(name string) string {
		return fmt.Sprintf(`<w:rFonts w:ascii="%[1]s" w:hAnsi="%[1]s" w:cs="%[1]s" w:eastAsia="%[1]s"/>`, name)
	}

	var b strings.Builder
	b.WriteString(xmlDecl)
	fmt.Fprintf(&b, `<w:styles xmlns:w="%s">`, wordNS)
	fmt.Fprintf(&b, `<w:docDefaults><w:rPrDefault><w:rPr>%s<w:sz w:val="22"/></w:rPr></w:rPrDefault>`+
		`<w:pPrDefault><w:pPr><w:spacing w:after="120" w:line="264" w:lineRule="auto"/></w:pPr></w:pPrDefault></w:docDefaults>`, rFonts(f))

	fmt.Fprintf(&b, `<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:rPr>%s<w:sz w:val="22"/></w:rPr></w:style>`, rFonts(f))
	fmt.Fprintf(&b, `<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/>`+
		`<w:pPr><w:spacing w:after="240"/></w:pPr><w:rPr>%s<w:sz w:val="56"/></w:rPr></w:style>`, rFonts(f))
	fmt.Fprintf(&b, `<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/>`+
		`<w:pPr><w:keepNext/><w:spacing w:before="240" w:after="120"/><w:outlineLvl w:val="0"/></w:pPr>`+
		`<w:rPr>%s<w:b/><w:color w:val="2F5496"/><w:sz w:val="32"/></w:rPr></w:style>`, rFonts(f))
	fmt.Fprintf(&b, `<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/>`+
		`<w:pPr><w:keepNext/><w:spacing w:before="120" w:after="60"/><w:outlineLvl w:val="1"/></w:pPr>`+
		`<w:rPr>%s<w:b/><w:color w:val="2F5496"/><w:sz w:val="26"/></w:rPr></w:style>`, rFonts(f))
	fmt.Fprintf(&b, `<w:style w:type="paragraph" w:styleId="Code"><w:name w:val="Code"/><w:basedOn w:val="Normal"/>`+
		`<w:rPr>%s<w:sz w:val="20"/></w:rPr></w:style>`, rFonts("Courier New"))
	fmt.Fprintf(&b, `<w:style w:type="paragraph" w:styleId="Terminal"><w:name w:val="Terminal"/><w:basedOn w:val="Normal"/>`+
		`<w:pPr><w:shd w:val="clear" w:color="auto" w:fill="0C0C0C"/><w:spacing w:after="0" w:line="240" w:lineRule="auto"/><w:ind w:left="115" w:right="115"/></w:pPr>`+
		`<w:rPr>%s<w:color w:val="CCCCCC"/><w:sz w:val="18"/></w:rPr></w:style>`, rFonts("Courier New"))

	b.WriteString(`</w:styles>`)
	return b.String()
}
