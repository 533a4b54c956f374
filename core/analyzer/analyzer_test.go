package analyzer

import (
	"strings"
	"testing"

	"github.com/matsunana829/waka-kana-conv/core/errors"
)

func newTestHandle(t *testing.T) *Handle {
	t.Helper()
	h := NewHandle()
	if err := h.Ensure(Config{Embedded: DictIPA}); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	return h
}

func TestEnsureBadDictPath(t *testing.T) {
	h := NewHandle()
	err := h.Ensure(Config{DictPath: "/no/such/dictionary.dict"})
	if err == nil {
		t.Fatal("Ensure() with bad path succeeded, want error")
	}
	if !errors.Is(err, errors.ErrConfig) {
		t.Errorf("Ensure() error = %v, want ErrConfig", err)
	}
}

func TestEnsureUnknownEmbedded(t *testing.T) {
	h := NewHandle()
	err := h.Ensure(Config{Embedded: "juman"})
	if err == nil {
		t.Fatal("Ensure() with unknown embedded dict succeeded, want error")
	}
	var ce *errors.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("Ensure() error = %T, want *ConfigError", err)
	}
	if ce.Option != "embeddedDict" {
		t.Errorf("ConfigError.Option = %q, want %q", ce.Option, "embeddedDict")
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	h := newTestHandle(t)
	cfg := h.Config()
	if err := h.Ensure(cfg); err != nil {
		t.Fatalf("second Ensure() error = %v", err)
	}
	if h.Config() != cfg {
		t.Errorf("Config() = %+v, want %+v", h.Config(), cfg)
	}
}

func TestAnalyzeBeforeEnsure(t *testing.T) {
	h := NewHandle()
	if _, err := h.Analyze("はる"); !errors.Is(err, errors.ErrConfig) {
		t.Errorf("Analyze() before Ensure error = %v, want ErrConfig", err)
	}
}

func TestAnalyzeEmptyText(t *testing.T) {
	h := newTestHandle(t)
	if _, err := h.Analyze(""); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("Analyze(\"\") error = %v, want ErrInvalidInput", err)
	}
}

func TestAnalyzeLosslessSegmentation(t *testing.T) {
	h := newTestHandle(t)
	inputs := []string{
		"ひさかたの光のどけき春の日に",
		"東京",
		"さくら さく",     // whitespace must survive
		"春すぎて\n夏来にけらし", // newline must survive
		"abcひらがなxyz",
	}
	for _, in := range inputs {
		toks, err := h.Analyze(in)
		if err != nil {
			t.Fatalf("Analyze(%q) error = %v", in, err)
		}
		var b strings.Builder
		for _, tk := range toks {
			b.WriteString(tk.Surface)
		}
		if got := b.String(); got != in {
			t.Errorf("surfaces concatenate to %q, want %q", got, in)
		}
	}
}

func TestAnalyzeKnownReading(t *testing.T) {
	h := newTestHandle(t)
	toks, err := h.Analyze("東京")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(toks) == 0 {
		t.Fatal("Analyze() returned no tokens")
	}
	tok := toks[0]
	if !tok.Known {
		t.Errorf("token %q Known = false, want true", tok.Surface)
	}
	if tok.Reading != "トウキョウ" {
		t.Errorf("token reading = %q, want %q", tok.Reading, "トウキョウ")
	}
}

func TestAnalyzeUnknownToken(t *testing.T) {
	h := newTestHandle(t)
	toks, err := h.Analyze("qwxz")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	for _, tk := range toks {
		if tk.Known {
			t.Errorf("token %q Known = true, want false", tk.Surface)
		}
		if tk.Reading != "" {
			t.Errorf("unknown token %q has reading %q, want empty", tk.Surface, tk.Reading)
		}
	}
}

func TestReadingIndexDefaults(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want int
	}{
		{"default ipa", Config{}, 7},
		{"explicit ipa", Config{Embedded: DictIPA}, 7},
		{"uni layout", Config{Embedded: DictUni}, 9},
		{"file dict", Config{DictPath: "/dict/sys.dic"}, 9},
		{"override", Config{Embedded: DictIPA, ReadingIndex: 20}, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.readingIndex(); got != tt.want {
				t.Errorf("readingIndex() = %d, want %d", got, tt.want)
			}
		})
	}
}
