// Package reading turns analyzer tokens into the kana text to emit.
package reading

import (
	"strings"

	"github.com/matsunana829/waka-kana-conv/core/analyzer"
	"github.com/matsunana829/waka-kana-conv/core/kana"
)

// Kunojiten is the two-character vertical iteration mark 〳〵 used in
// classical manuscripts to repeat the previous word's reading.
const Kunojiten = "〳〵"

// Resolve returns the text to emit for a single token: the hiragana form of
// its reading when the analyzer marked it known, otherwise the surface
// verbatim. Unknown vocabulary is preserved, never guessed. This is the one
// unknown-word policy used for every output format.
func Resolve(tok analyzer.Token) string {
	if tok.Known && tok.Reading != "" {
		return kana.ToHiragana(tok.Reading)
	}
	return tok.Surface
}

// Resolver resolves a token stream in order, carrying the previous emitted
// reading so the kunojiten mark can repeat it.
type Resolver struct {
	prev string
}

// NewResolver returns a Resolver for one text unit. State does not carry
// across units.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the emission for tok within the stream.
func (r *Resolver) Resolve(tok analyzer.Token) string {
	if tok.Surface == Kunojiten && r.prev != "" {
		return r.prev
	}
	s := Resolve(tok)
	r.prev = s
	return s
}

// ResolveAll resolves an entire token sequence and concatenates the result.
func ResolveAll(toks []analyzer.Token) string {
	r := NewResolver()
	var b strings.Builder
	for _, tok := range toks {
		b.WriteString(r.Resolve(tok))
	}
	return b.String()
}
