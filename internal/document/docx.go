package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/matsunana829/waka-kana-conv/core/errors"
)

const docxContentTypes = xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const docxRels = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

// docxWalker walks the paragraphs of a word-processor document. The
// output package is regenerated from the paragraph texts; run properties
// and styling of the source do not survive conversion.
type docxWalker struct {
	paragraphs []string
}

func newDocxWalker(data []byte) (*docxWalker, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &errors.FormatError{Format: "docx", Message: "not a zip package", Err: err}
	}
	var doc []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, &errors.FormatError{Format: "docx", Location: f.Name, Message: "cannot open part", Err: err}
		}
		doc, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, &errors.FormatError{Format: "docx", Location: f.Name, Message: "cannot read part", Err: err}
		}
		break
	}
	if doc == nil {
		return nil, errors.NewFormat("docx", "word/document.xml", "part missing")
	}

	tree, err := ParseTree(doc)
	if err != nil {
		return nil, errors.NewFormat("docx", "word/document.xml", "malformed document body")
	}
	w := &docxWalker{}
	for _, p := range tree.Elements("p") {
		var text bytes.Buffer
		for _, t := range p.Elements("t") {
			text.WriteString(t.Text())
		}
		w.paragraphs = append(w.paragraphs, text.String())
	}
	return w, nil
}

func (w *docxWalker) Extract(target string) ([]TextUnit, error) {
	units := make([]TextUnit, len(w.paragraphs))
	for i, p := range w.paragraphs {
		units[i] = TextUnit{
			Location: fmt.Sprintf("paragraph %d", i+1),
			Text:     p,
		}
	}
	return units, nil
}

func (w *docxWalker) Reinject(units []TextUnit) error {
	if len(units) != len(w.paragraphs) {
		return errors.NewValidation("units",
			fmt.Sprintf("got %d units for %d paragraphs", len(units), len(w.paragraphs)))
	}
	for i, u := range units {
		w.paragraphs[i] = u.Text
	}
	return nil
}

func (w *docxWalker) Bytes() ([]byte, error) {
	var body bytes.Buffer
	body.WriteString(xml.Header)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range w.paragraphs {
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		if err := xml.EscapeText(&body, []byte(p)); err != nil {
			return nil, errors.Wrap(err, "escaping paragraph text")
		}
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name string
		data string
	}{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/document.xml", body.String()},
	}
	for _, part := range parts {
		fw, err := zw.Create(part.name)
		if err != nil {
			return nil, errors.Wrapf(err, "creating %s", part.name)
		}
		if _, err := fw.Write([]byte(part.data)); err != nil {
			return nil, errors.Wrapf(err, "writing %s", part.name)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "closing docx package")
	}
	return buf.Bytes(), nil
}

// ParagraphTexts returns the current paragraph texts, for cross-format
// emission.
func (w *docxWalker) ParagraphTexts() []string {
	out := make([]string, len(w.paragraphs))
	copy(out, w.paragraphs)
	return out
}
