package waka

import (
	"errors"
	"strings"
	"testing"

	cerrors "github.com/matsunana829/waka-kana-conv/core/errors"
)

func verseXML(id string, phrases ...string) string {
	var sb strings.Builder
	sb.WriteString(`<l xml:id="` + id + `">`)
	for _, p := range phrases {
		sb.WriteString("<seg>" + p + "</seg>")
	}
	sb.WriteString("</l>")
	return sb.String()
}

func doc(verses ...string) []byte {
	return []byte("<root>" + strings.Join(verses, "") + "</root>")
}

var hisakataOrig = verseXML("p1", "久方の", "光のどけき", "春の日に", "しづ心なく", "花の散るらむ")
var hisakataConv = verseXML("p1", "ひさかたの", "ひかりのどけき", "はるのひに", "しづこころなく", "はなのちるらむ")

func TestValidateMatchingTanka(t *testing.T) {
	report, err := Validate(doc(hisakataOrig), doc(hisakataConv), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 5 {
		t.Fatalf("got %d results, want 5", len(report.Results))
	}
	for _, res := range report.Results {
		if !res.Matched {
			t.Errorf("phrase %d %q: actual %d, expected %d",
				res.Index, res.Text, res.Actual, res.Expected)
		}
		if res.Verse.Label() != "p1" {
			t.Errorf("verse label = %q, want p1", res.Verse.Label())
		}
	}
	if len(report.Mismatches()) != 0 {
		t.Errorf("Mismatches() = %v, want none", report.Mismatches())
	}
	if len(report.StructureFlags) != 0 {
		t.Errorf("StructureFlags = %v, want none", report.StructureFlags)
	}
}

func TestValidateMoraMismatchIsData(t *testing.T) {
	conv := verseXML("p1", "ひさかたの", "ひかりのどけき", "はるのひにに", "しづこころなく", "はなのちるらむ")

	report, err := Validate(doc(hisakataOrig), doc(conv), Options{})
	if err != nil {
		t.Fatal(err)
	}
	mismatches := report.Mismatches()
	if len(mismatches) != 1 {
		t.Fatalf("got %d mismatches, want 1", len(mismatches))
	}
	m := mismatches[0]
	if m.Index != 2 || m.Expected != 5 || m.Actual != 6 {
		t.Errorf("mismatch = %+v, want index 2, expected 5, actual 6", m)
	}
}

func TestValidatePhraseTextExcludesVariants(t *testing.T) {
	orig := verseXML("p1", "久方の", "光のどけき", "春の日に", "しづ心なく", "花の散るらむ")
	conv := verseXML("p1", "ひさかたの", "ひかり<rdg>くわう</rdg>のどけき", "はるのひに", "しづこころなく", "はな<rt>はな</rt>のちるらむ")

	report, err := Validate(doc(orig), doc(conv), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Mismatches()) != 0 {
		t.Errorf("Mismatches() = %v, want none", report.Mismatches())
	}
	if report.Results[1].Text != "ひかりのどけき" {
		t.Errorf("phrase text = %q, want variant excluded", report.Results[1].Text)
	}
}

func TestValidateVerseCountMismatch(t *testing.T) {
	_, err := Validate(doc(hisakataOrig, hisakataOrig), doc(hisakataConv), Options{})
	if !errors.Is(err, cerrors.ErrStructuralMismatch) {
		t.Fatalf("error = %v, want ErrStructuralMismatch", err)
	}
	var sm *cerrors.StructuralMismatchError
	if !errors.As(err, &sm) {
		t.Fatal("error is not a StructuralMismatchError")
	}
	if sm.Unit != "verse" || sm.Original != 2 || sm.Converted != 1 {
		t.Errorf("mismatch = %+v", sm)
	}
}

func TestValidatePhraseCountMismatch(t *testing.T) {
	conv := verseXML("p1", "ひさかたの", "ひかりのどけき", "はるのひに", "しづこころなくはなのちるらむ")

	_, err := Validate(doc(hisakataOrig), doc(conv), Options{})
	var sm *cerrors.StructuralMismatchError
	if !errors.As(err, &sm) {
		t.Fatalf("error = %v, want StructuralMismatchError", err)
	}
	if sm.Unit != "phrase" || sm.Original != 5 || sm.Converted != 4 {
		t.Errorf("mismatch = %+v", sm)
	}
	if sm.Location != "verse p1" {
		t.Errorf("location = %q, want %q", sm.Location, "verse p1")
	}
}

func TestValidateStructureFlag(t *testing.T) {
	orig := verseXML("p1", "久方の", "光のどけき", "春の日に", "しづ心なく花の散るらむ")
	conv := verseXML("p1", "ひさかたの", "ひかりのどけき", "はるのひに", "しづこころなくはなのちるらむ")

	report, err := Validate(doc(orig, hisakataOrig), doc(conv, hisakataConv), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.StructureFlags) != 1 {
		t.Fatalf("got %d flags, want 1", len(report.StructureFlags))
	}
	flag := report.StructureFlags[0]
	if flag.Verse.Label() != "p1" || flag.Phrases != 4 || flag.Expected != 5 {
		t.Errorf("flag = %+v", flag)
	}
	// The flagged verse is skipped; the well-formed verse is still compared.
	if len(report.Results) != 5 {
		t.Errorf("got %d results, want 5", len(report.Results))
	}
}

func TestValidateOrdinalLabels(t *testing.T) {
	orig := "<l><seg>久方の</seg></l>"
	conv := "<l><seg>ひさかたの</seg></l>"

	report, err := Validate(doc(orig), doc(conv), Options{Pattern: []int{5}})
	if err != nil {
		t.Fatal(err)
	}
	if report.Results[0].Verse.Label() != "1" {
		t.Errorf("label = %q, want ordinal fallback", report.Results[0].Verse.Label())
	}
}

func TestValidateCustomTags(t *testing.T) {
	orig := `<root><line n="3"><ku>久方の</ku></line></root>`
	conv := `<root><line n="3"><ku>ひさかたの</ku></line></root>`

	report, err := Validate([]byte(orig), []byte(conv), Options{
		LineTag:   "line",
		PhraseTag: "ku",
		Pattern:   []int{5},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 1 || !report.Results[0].Matched {
		t.Errorf("results = %+v", report.Results)
	}
	if report.Results[0].Verse.Label() != "3" {
		t.Errorf("label = %q, want n attribute", report.Results[0].Verse.Label())
	}
}

func TestApplyCorrections(t *testing.T) {
	conv := doc(hisakataConv)
	edits := map[string][]string{
		"p1": {"ひさかたの", "ひかりのどけき", "はるのひに", "しずこころなく", "はなのちるらん"},
	}

	out, err := ApplyCorrections(conv, edits, Options{})
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if !strings.Contains(s, "<seg>しずこころなく</seg>") {
		t.Errorf("correction not applied: %q", s)
	}
	if !strings.Contains(s, "<seg>ひさかたの</seg>") {
		t.Errorf("unchanged phrase lost: %q", s)
	}
}

func TestApplyCorrectionsErrors(t *testing.T) {
	conv := doc(hisakataConv)

	_, err := ApplyCorrections(conv, map[string][]string{"p9": {"x"}}, Options{})
	if !errors.Is(err, cerrors.ErrInvalidInput) {
		t.Errorf("unknown verse error = %v, want ErrInvalidInput", err)
	}

	_, err = ApplyCorrections(conv, map[string][]string{"p1": {"たった一句"}}, Options{})
	if !errors.Is(err, cerrors.ErrInvalidInput) {
		t.Errorf("wrong phrase count error = %v, want ErrInvalidInput", err)
	}
}
