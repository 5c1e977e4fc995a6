// Package loadertest builds small PDF, DOCX and PPTX files for tests.
package loadertest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	nsW = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`
	nsP = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
		`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`
)

// Picture is a slide element without text.
const Picture = `<p:pic><p:nvPicPr><p:cNvPr id="9" name="Picture"/></p:nvPicPr></p:pic>`

// EmptyShape is a slide shape without a text body.
const EmptyShape = `<p:sp><p:nvSpPr><p:cNvPr id="7" name="Rectangle"/></p:nvSpPr><p:spPr/></p:sp>`

func WriteZip(t testing.TB, path string, parts map[string]string) {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	writeFile(t, path, buf.Bytes())
}

// WriteDOCX stores one body paragraph per entry and returns the file path.
func WriteDOCX(t testing.TB, dir, name string, paragraphs ...string) string {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		if p == "" {
			body.WriteString(`<w:p><w:pPr/></w:p>`)
			continue
		}
		fmt.Fprintf(&body, `<w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, p)
	}
	doc := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<w:document %s><w:body>%s<w:sectPr/></w:body></w:document>`, nsW, body.String())

	path := filepath.Join(dir, name)
	WriteZip(t, path, map[string]string{"word/document.xml": doc})
	return path
}

// Shape is a slide shape holding one paragraph per line.
func Shape(lines ...string) string {
	var b strings.Builder
	b.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Text"/></p:nvSpPr><p:txBody><a:bodyPr/>`)
	for _, l := range lines {
		fmt.Fprintf(&b, `<a:p><a:r><a:t>%s</a:t></a:r></a:p>`, l)
	}
	b.WriteString(`</p:txBody></p:sp>`)
	return b.String()
}

func Slide(elements ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<p:sld ` + nsP + `><p:cSld><p:spTree>` +
		`<p:nvGrpSpPr><p:cNvPr id="1" name=""/></p:nvGrpSpPr><p:grpSpPr/>` +
		strings.Join(elements, "") +
		`</p:spTree></p:cSld></p:sld>`
}

// WritePPTX stores the slides and a manifest listing the parts in order.
// A nil order writes slides without presentation.xml.
func WritePPTX(t testing.TB, path string, order []string, slides map[string]string) {
	t.Helper()

	parts := make(map[string]string, len(slides)+2)
	for name, body := range slides {
		parts[name] = body
	}

	if order != nil {
		var ids, rels strings.Builder
		for i, part := range order {
			rid := fmt.Sprintf("rId%d", i+10)
			fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="%s"/>`, 256+i, rid)
			fmt.Fprintf(&rels, `<Relationship Id="%s" `+
				`Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="%s"/>`,
				rid, strings.TrimPrefix(part, "ppt/"))
		}
		parts["ppt/presentation.xml"] = `<?xml version="1.0" encoding="UTF-8"?><p:presentation ` + nsP +
			`><p:sldIdLst>` + ids.String() + `</p:sldIdLst></p:presentation>`
		parts["ppt/_rels/presentation.xml.rels"] = `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			rels.String() + `</Relationships>`
	}
	WriteZip(t, path, parts)
}

// PDF assembles a minimal text PDF with one Helvetica line per page.
func PDF(pages ...string) []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // page tree, filled once the kids are known
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	kids := make([]string, 0, len(pages))
	for _, text := range pages {
		pageObj := len(objs) + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageObj))
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", pageObj+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func WritePDF(t testing.TB, path string, pages ...string) {
	t.Helper()
	writeFile(t, path, PDF(pages...))
}

// DOCX returns the bytes of a document holding the given paragraphs.
func DOCX(t testing.TB, paragraphs ...string) []byte {
	t.Helper()

	dir := t.TempDir()
	path := WriteDOCX(t, dir, "doc.docx", paragraphs...)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read docx: %v", err)
	}
	return data
}

func writeFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
