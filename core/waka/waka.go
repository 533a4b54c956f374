// Package waka validates converted verse against the classical mora
// pattern and applies user corrections to a converted document.
package waka

import (
	"strconv"

	"github.com/matsunana829/waka-kana-conv/core/errors"
	"github.com/matsunana829/waka-kana-conv/core/kana"
	"github.com/matsunana829/waka-kana-conv/core/mora"
	"github.com/matsunana829/waka-kana-conv/internal/document"
)

// TankaPattern is the 5-7-5-7-7 phrase pattern of the tanka form.
var TankaPattern = []int{5, 7, 5, 7, 7}

// Elements whose subtrees are excluded from phrase text: variant readings
// and ruby annotations.
var phraseExclusions = []string{"rdg", "rt"}

// VerseRef identifies one verse within a document, by xml:id when present,
// else by the n attribute, else by document-order position (1-based).
type VerseRef struct {
	XMLID   string
	N       string
	Ordinal int
}

// Label returns the identifier used in reports and correction edits.
func (v VerseRef) Label() string {
	if v.XMLID != "" {
		return v.XMLID
	}
	if v.N != "" {
		return v.N
	}
	return strconv.Itoa(v.Ordinal)
}

// PhraseResult is the mora comparison for one phrase of one verse.
type PhraseResult struct {
	Verse    VerseRef
	Index    int // phrase position within the verse, 0-based
	Text     string
	Expected int
	Actual   int
	Matched  bool
}

// StructureFlag marks a verse whose phrase count does not fit the pattern.
// Flagged verses are not pattern-compared.
type StructureFlag struct {
	Verse    VerseRef
	Phrases  int
	Expected int
}

// Report is the outcome of a validation run. Content mismatches are data,
// never errors.
type Report struct {
	Pattern        []int
	Results        []PhraseResult
	StructureFlags []StructureFlag
}

// Mismatches returns the results whose mora counts missed the pattern.
func (r *Report) Mismatches() []PhraseResult {
	var out []PhraseResult
	for _, res := range r.Results {
		if !res.Matched {
			out = append(out, res)
		}
	}
	return out
}

// Options configures a validation run.
type Options struct {
	// LineTag is the element holding one verse. Empty means "l".
	LineTag string
	// PhraseTag is the element holding one phrase. Empty means "seg".
	PhraseTag string
	// Pattern is the expected mora counts per phrase. Empty means
	// TankaPattern.
	Pattern []int
	// ExpandIterationMarks expands odoriji in phrase text before counting.
	ExpandIterationMarks bool
}

func (o Options) lineTag() string {
	if o.LineTag == "" {
		return "l"
	}
	return o.LineTag
}

func (o Options) phraseTag() string {
	if o.PhraseTag == "" {
		return "seg"
	}
	return o.PhraseTag
}

func (o Options) pattern() []int {
	if len(o.Pattern) == 0 {
		return TankaPattern
	}
	return o.Pattern
}

type verse struct {
	ref     VerseRef
	phrases []*document.Element
}

func parseVerses(data []byte, lineTag, phraseTag string) ([]verse, error) {
	tree, err := document.ParseTree(data)
	if err != nil {
		return nil, err
	}
	els := tree.Elements(lineTag)
	verses := make([]verse, len(els))
	for i, el := range els {
		verses[i] = verse{
			ref: VerseRef{
				XMLID:   el.Attr("xml:id"),
				N:       el.Attr("n"),
				Ordinal: i + 1,
			},
			phrases: el.Elements(phraseTag),
		}
	}
	return verses, nil
}

// Validate compares the converted document's phrase mora counts against
// the pattern, using the original document to verify that conversion
// preserved the verse and phrase structure. A structural divergence is the
// sole result of the run; no mora comparison is attempted on misaligned
// input.
func Validate(origDoc, convDoc []byte, opts Options) (*Report, error) {
	orig, err := parseVerses(origDoc, opts.lineTag(), opts.phraseTag())
	if err != nil {
		return nil, errors.Wrap(err, "parsing original document")
	}
	conv, err := parseVerses(convDoc, opts.lineTag(), opts.phraseTag())
	if err != nil {
		return nil, errors.Wrap(err, "parsing converted document")
	}

	if len(orig) != len(conv) {
		return nil, errors.NewStructuralMismatch("", "verse", len(orig), len(conv))
	}

	pattern := opts.pattern()
	report := &Report{Pattern: pattern}

	for i := range orig {
		o, c := orig[i], conv[i]
		if len(o.phrases) != len(c.phrases) {
			return nil, errors.NewStructuralMismatch(
				"verse "+o.ref.Label(), "phrase", len(o.phrases), len(c.phrases))
		}
		if len(c.phrases) != len(pattern) {
			report.StructureFlags = append(report.StructureFlags, StructureFlag{
				Verse:    c.ref,
				Phrases:  len(c.phrases),
				Expected: len(pattern),
			})
			continue
		}
		for j, phrase := range c.phrases {
			text := phrase.Text(phraseExclusions...)
			counted := text
			if opts.ExpandIterationMarks {
				counted = kana.ExpandIterationMarks(counted)
			}
			actual := mora.Count(counted)
			report.Results = append(report.Results, PhraseResult{
				Verse:    c.ref,
				Index:    j,
				Text:     text,
				Expected: pattern[j],
				Actual:   actual,
				Matched:  actual == pattern[j],
			})
		}
	}
	return report, nil
}

// ApplyCorrections writes user-supplied phrase texts into the identified
// verses of a converted document and reserializes it. Edits are keyed by
// verse label; each value holds the replacement text for every phrase of
// that verse, in order.
func ApplyCorrections(convDoc []byte, edits map[string][]string, opts Options) ([]byte, error) {
	tree, err := document.ParseTree(convDoc)
	if err != nil {
		return nil, err
	}

	els := tree.Elements(opts.lineTag())
	applied := make(map[string]bool, len(edits))
	for i, el := range els {
		ref := VerseRef{XMLID: el.Attr("xml:id"), N: el.Attr("n"), Ordinal: i + 1}
		texts, ok := edits[ref.Label()]
		if !ok {
			continue
		}
		phrases := el.Elements(opts.phraseTag())
		if len(texts) != len(phrases) {
			return nil, errors.NewValidation("edits",
				"verse "+ref.Label()+": got "+strconv.Itoa(len(texts))+
					" texts for "+strconv.Itoa(len(phrases))+" phrases")
		}
		for j, phrase := range phrases {
			phrase.SetText(texts[j])
		}
		applied[ref.Label()] = true
	}

	for label := range edits {
		if !applied[label] {
			return nil, errors.NewValidation("edits", "verse "+label+" not found")
		}
	}
	return tree.Bytes()
}
