// Package pipeline runs the end-to-end conversion: walk a document, convert
// each text unit through the analyzer, reinject, and serialize.
package pipeline

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"sort"
	"strings"

	"github.com/matsunana829/waka-kana-conv/core/analyzer"
	"github.com/matsunana829/waka-kana-conv/core/errors"
	"github.com/matsunana829/waka-kana-conv/core/kana"
	"github.com/matsunana829/waka-kana-conv/core/reading"
	"github.com/matsunana829/waka-kana-conv/internal/document"
	"github.com/matsunana829/waka-kana-conv/internal/fileutil"
)

// Analyzer is the morphological analysis capability the pipeline depends
// on. *analyzer.Handle satisfies it.
type Analyzer interface {
	Analyze(text string) ([]analyzer.Token, error)
}

// Mode selects the kana form of the converted text.
type Mode string

const (
	ModeHiragana Mode = "hiragana"
	ModeKatakana Mode = "katakana"
)

// Format selects the output serialization. FormatPreserve keeps the input
// container; the rest emit the converted texts alone.
type Format string

const (
	FormatPreserve Format = "preserve"
	FormatTXT      Format = "txt"
	FormatCSV      Format = "csv"
	FormatXML      Format = "xml"
)

// Options configures one conversion run.
type Options struct {
	// Kind is the input container format.
	Kind document.Kind
	// Target is the column name (tables) or tag name (trees) holding the
	// verse text. Ignored for text and docx input.
	Target string
	// Format is the output serialization. Empty means FormatPreserve.
	Format Format
	// Mode is the kana form of the output. Empty means ModeHiragana.
	Mode Mode
	// ExpandIterationMarks expands odoriji before analysis and in the
	// converted text.
	ExpandIterationMarks bool
	// Analyzer performs the morphological analysis. Required.
	Analyzer Analyzer
	// Progress, when set, is called after each converted unit.
	Progress func(done, total int, location string)
}

func (o Options) mode() Mode {
	if o.Mode == "" {
		return ModeHiragana
	}
	return o.Mode
}

func (o Options) format() Format {
	if o.Format == "" {
		return FormatPreserve
	}
	return o.Format
}

// Output is one serialized result of a conversion run. Ext has no leading
// dot.
type Output struct {
	Ext  string
	MIME string
	Data []byte
}

// MIME types of the supported outputs.
const (
	mimeText = "text/plain; charset=utf-8"
	mimeCSV  = "text/csv; charset=utf-8"
	mimeXML  = "application/xml"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Convert converts every text unit of input and serializes the result.
// Most runs yield one output; docx input yields the regenerated docx plus
// a plain-text rendition of the same paragraphs.
func Convert(input []byte, opts Options) ([]Output, error) {
	if opts.Analyzer == nil {
		return nil, errors.NewConfig("analyzer", "", "no analyzer configured")
	}
	if opts.Mode != "" && opts.Mode != ModeHiragana && opts.Mode != ModeKatakana {
		return nil, errors.NewConfig("mode", string(opts.Mode), "unknown output mode")
	}

	walker, err := document.New(opts.Kind, input)
	if err != nil {
		return nil, err
	}
	units, err := walker.Extract(opts.Target)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(units))
	for i := range units {
		converted, err := convertUnit(opts, units[i].Text)
		if err != nil {
			return nil, errors.Wrapf(err, "converting %s", units[i].Location)
		}
		units[i].Text = converted
		texts[i] = converted
		if opts.Progress != nil {
			opts.Progress(i+1, len(units), units[i].Location)
		}
	}
	if err := walker.Reinject(units); err != nil {
		return nil, err
	}

	return emit(walker, opts, texts)
}

// convertUnit converts one unit of text. Empty units pass through.
func convertUnit(opts Options, text string) (string, error) {
	if text == "" {
		return "", nil
	}
	if opts.ExpandIterationMarks {
		text = kana.PreExpandIterationMarks(text)
	}
	toks, err := opts.Analyzer.Analyze(text)
	if err != nil {
		return "", err
	}
	out := kana.ToHiragana(reading.ResolveAll(toks))
	if opts.ExpandIterationMarks {
		out = kana.ExpandIterationMarks(out)
	}
	if opts.mode() == ModeKatakana {
		out = kana.ToKatakana(out)
	}
	return out, nil
}

// emit serializes the converted document per the input kind and requested
// format.
func emit(walker document.Walker, opts Options, texts []string) ([]Output, error) {
	switch opts.Kind {
	case document.KindText:
		return []Output{textsOutput(opts.format(), texts)}, nil

	case document.KindCSV:
		if opts.format() == FormatPreserve || opts.format() == FormatCSV {
			data, err := walker.Bytes()
			if err != nil {
				return nil, err
			}
			return []Output{{Ext: "csv", MIME: mimeCSV, Data: data}}, nil
		}
		return []Output{textsOutput(opts.format(), texts)}, nil

	case document.KindXLSX:
		if opts.format() == FormatPreserve {
			data, err := walker.Bytes()
			if err != nil {
				return nil, err
			}
			return []Output{{Ext: "xlsx", MIME: mimeXLSX, Data: data}}, nil
		}
		return []Output{textsOutput(opts.format(), texts)}, nil

	case document.KindTree:
		if opts.format() == FormatPreserve || opts.format() == FormatXML {
			data, err := walker.Bytes()
			if err != nil {
				return nil, err
			}
			return []Output{{Ext: "xml", MIME: mimeXML, Data: data}}, nil
		}
		// Re-extract the converted element texts so the emission matches
		// the serialized document, not the raw text nodes.
		data, err := walker.Bytes()
		if err != nil {
			return nil, err
		}
		tree, err := document.ParseTree(data)
		if err != nil {
			return nil, err
		}
		els := tree.Elements(opts.Target)
		elTexts := make([]string, len(els))
		for i, el := range els {
			elTexts[i] = el.Text()
		}
		return []Output{textsOutput(opts.format(), elTexts)}, nil

	case document.KindDocx:
		data, err := walker.Bytes()
		if err != nil {
			return nil, err
		}
		return []Output{
			{Ext: "docx", MIME: mimeDocx, Data: data},
			textsOutput(FormatTXT, texts),
		}, nil
	}
	return nil, errors.NewFormat(opts.Kind.String(), "", "unsupported container format")
}

// textsOutput serializes a flat text sequence in the requested format.
// Formats that only make sense for a container fall back to plain text.
func textsOutput(format Format, texts []string) Output {
	switch format {
	case FormatCSV:
		return Output{Ext: "csv", MIME: mimeCSV, Data: TextsToCSV(texts)}
	case FormatXML:
		return Output{Ext: "xml", MIME: mimeXML, Data: TextsToXML(texts)}
	}
	return Output{Ext: "txt", MIME: mimeText, Data: TextsToTXT(texts)}
}

// TextsToTXT joins texts with newlines, one unit per line.
func TextsToTXT(texts []string) []byte {
	return fileutil.EncodeTextBOM(strings.Join(texts, "\n") + "\n")
}

// TextsToCSV emits texts as a single-column table headed "text".
func TextsToCSV(texts []string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"text"})
	for _, t := range texts {
		w.Write([]string{t})
	}
	w.Flush()
	return fileutil.EncodeTextBOM(buf.String())
}

// TextsToXML emits texts as <text> elements under a <root> element.
func TextsToXML(texts []string) []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<root>")
	for _, t := range texts {
		buf.WriteString("<text>")
		xml.EscapeText(&buf, []byte(t))
		buf.WriteString("</text>")
	}
	buf.WriteString("</root>")
	return buf.Bytes()
}

// BundleZip packs named outputs into one ZIP archive, entries in name
// order.
func BundleZip(files map[string][]byte) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		data := files[name]
		fw, err := zw.Create(name)
		if err != nil {
			return nil, errors.Wrapf(err, "creating %s", name)
		}
		if _, err := fw.Write(data); err != nil {
			return nil, errors.Wrapf(err, "writing %s", name)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "closing archive")
	}
	return buf.Bytes(), nil
}
