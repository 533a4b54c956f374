// Package analyzer wraps the kagome morphological analyzer behind a
// configuration-keyed handle.
//
// Building a tokenizer is expensive (the dictionary trie is loaded into
// memory), so the handle rebuilds only when its configuration changes and
// is read-only afterwards. Handles are not reentrant-safe: hosts that serve
// concurrent requests must serialize access or use one handle per request.
package analyzer

import (
	"strings"

	"github.com/ikawaha/kagome-dict/dict"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome-dict/uni"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/matsunana829/waka-kana-conv/core/errors"
)

// Embedded dictionary names accepted by Config.Embedded.
const (
	DictIPA = "ipa"
	DictUni = "uni"
)

// Config identifies an analyzer instance. Two configs compare equal exactly
// when they would build the same tokenizer; equality is the rebuild key.
type Config struct {
	// DictPath is the filesystem location of a compiled system dictionary.
	// When set it takes precedence over Embedded.
	DictPath string
	// UserDictPath is the optional location of a user dictionary file.
	UserDictPath string
	// Embedded names a built-in dictionary ("ipa" or "uni") used when
	// DictPath is empty. Empty means "ipa".
	Embedded string
	// ReadingIndex overrides the feature index the katakana reading is
	// taken from. Zero means the default for the selected dictionary
	// (7 for IPA, 9 for UniDic-layout dictionaries).
	ReadingIndex int
}

// readingIndex resolves the feature index holding the reading.
func (c Config) readingIndex() int {
	if c.ReadingIndex > 0 {
		return c.ReadingIndex
	}
	if c.DictPath == "" && (c.Embedded == "" || c.Embedded == DictIPA) {
		return 7
	}
	return 9
}

// Token is one morpheme of analyzed text. Reading is the katakana reading
// assigned by the dictionary; Known reports whether the analyzer could
// assign one. Unknown tokens carry their surface only.
type Token struct {
	Surface string
	Reading string
	Known   bool
}

// Handle owns a tokenizer built for a configuration. The zero value is
// unusable until Ensure succeeds.
type Handle struct {
	cfg    Config
	tok    *tokenizer.Tokenizer
	rdIdx  int
	loaded bool
}

// NewHandle returns an uninitialized handle.
func NewHandle() *Handle {
	return &Handle{}
}

// Ensure makes the handle ready for cfg, rebuilding the underlying
// tokenizer only when cfg differs from the configuration it was last built
// for. Rebuilding is blocking and expensive; callers do it once per
// configuration change, not per Analyze call.
func (h *Handle) Ensure(cfg Config) error {
	if h.loaded && cfg == h.cfg {
		return nil
	}

	d, err := loadDict(cfg)
	if err != nil {
		return err
	}

	opts := []tokenizer.Option{tokenizer.OmitBosEos()}
	if cfg.UserDictPath != "" {
		udict, err := dict.NewUserDict(cfg.UserDictPath)
		if err != nil {
			return &errors.ConfigError{
				Option:  "analyzerConfigPath",
				Value:   cfg.UserDictPath,
				Message: "cannot load user dictionary",
				Err:     err,
			}
		}
		opts = append(opts, tokenizer.UserDict(udict))
	}

	t, err := tokenizer.New(d, opts...)
	if err != nil {
		return &errors.ConfigError{
			Option:  "dictionaryPath",
			Value:   cfg.DictPath,
			Message: "cannot initialize analyzer",
			Err:     err,
		}
	}

	h.cfg = cfg
	h.tok = t
	h.rdIdx = cfg.readingIndex()
	h.loaded = true
	return nil
}

// Config returns the configuration the handle was last built for.
func (h *Handle) Config() Config {
	return h.cfg
}

// Analyze segments text into an ordered token sequence. Token surfaces
// concatenate back to exactly the input; gaps the tokenizer skips (such as
// whitespace) are re-emitted as unknown tokens to keep segmentation
// lossless.
func (h *Handle) Analyze(text string) ([]Token, error) {
	if !h.loaded {
		return nil, errors.NewConfig("", "", "analyzer not initialized; call Ensure first")
	}
	if text == "" {
		return nil, errors.NewValidation("text", "must not be empty")
	}

	runes := []rune(text)
	raw := h.tok.Tokenize(text)
	out := make([]Token, 0, len(raw))
	pos := 0

	for _, tk := range raw {
		if tk.Class == tokenizer.DUMMY {
			continue
		}
		if tk.Start > pos {
			// Characters the lattice skipped; preserve them verbatim.
			out = append(out, Token{Surface: string(runes[pos:tk.Start])})
		}
		pos = tk.End

		reading := ""
		features := tk.Features()
		if h.rdIdx < len(features) {
			f := features[h.rdIdx]
			if f != "" && f != "*" {
				reading = f
			}
		}

		known := tk.Class != tokenizer.UNKNOWN && reading != ""
		if !known {
			reading = ""
		}
		out = append(out, Token{Surface: tk.Surface, Reading: reading, Known: known})
	}

	if pos < len(runes) {
		out = append(out, Token{Surface: string(runes[pos:])})
	}
	return out, nil
}

// loadDict resolves the system dictionary for cfg.
func loadDict(cfg Config) (*dict.Dict, error) {
	if cfg.DictPath != "" {
		d, err := dict.LoadDictFile(cfg.DictPath)
		if err != nil {
			return nil, &errors.ConfigError{
				Option:  "dictionaryPath",
				Value:   cfg.DictPath,
				Message: "dictionary not found or unreadable",
				Err:     err,
			}
		}
		return d, nil
	}

	switch strings.ToLower(cfg.Embedded) {
	case "", DictIPA:
		return ipa.Dict(), nil
	case DictUni:
		return uni.Dict(), nil
	default:
		return nil, errors.NewConfig("embeddedDict", cfg.Embedded, "unknown embedded dictionary")
	}
}
