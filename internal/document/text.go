package document

import (
	"github.com/matsunana829/waka-kana-conv/core/errors"
	"github.com/matsunana829/waka-kana-conv/internal/fileutil"
)

// textWalker treats the whole document as a single text unit.
type textWalker struct {
	text      string
	extracted bool
}

func newTextWalker(data []byte) *textWalker {
	return &textWalker{text: fileutil.DecodeText(data)}
}

func (w *textWalker) Extract(target string) ([]TextUnit, error) {
	w.extracted = true
	return []TextUnit{{Location: "doc", Text: w.text}}, nil
}

func (w *textWalker) Reinject(units []TextUnit) error {
	if !w.extracted {
		return errors.NewValidation("units", "Reinject called before Extract")
	}
	if len(units) != 1 {
		return errors.NewValidation("units", "text documents hold exactly one unit")
	}
	w.text = units[0].Text
	return nil
}

func (w *textWalker) Bytes() ([]byte, error) {
	return []byte(w.text), nil
}
