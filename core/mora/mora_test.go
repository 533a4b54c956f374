package mora

import "testing"

func TestCount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"plain kana", "さくら", 3},
		{"youon folds", "きょう", 2},
		{"long vowel counts", "とうきょう", 4},
		{"long vowel mark", "とーきょー", 4},
		{"moraic nasal", "しんかんせん", 6},
		{"sokuon folds", "きって", 2},
		{"katakana", "サクラ", 3},
		{"katakana youon", "キョウ", 2},
		{"small vowel folds", "ふぁん", 2},
		{"punctuation ignored", "さくら、さく。", 5},
		{"whitespace ignored", "さ く ら", 3},
		{"latin ignored", "さくらabc", 3},
		{"leading small kana counts alone", "ょう", 2},
		{"small kana after punctuation counts alone", "さ、ょう", 3},
		{"sokuon after space counts alone", "さ っか", 3},
		{"iteration mark counts", "さゝ", 2},
		{"classical phrase", "ひさかたの", 5},
		{"seven mora phrase", "ひかりのどけき", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.input); got != tt.want {
				t.Errorf("Count(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCountPhrases(t *testing.T) {
	phrases := []string{
		"ひさかたの",
		"ひかりのどけき",
		"はるのひに",
		"しづこころなく",
		"はなのちるらむ",
	}
	want := []int{5, 7, 5, 7, 7}
	got := CountPhrases(phrases)
	if len(got) != len(want) {
		t.Fatalf("CountPhrases returned %d counts, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("phrase %d: count = %d, want %d (%q)", i, got[i], want[i], phrases[i])
		}
	}
}

func TestCountPhrasesEmpty(t *testing.T) {
	if got := CountPhrases(nil); len(got) != 0 {
		t.Errorf("CountPhrases(nil) = %v, want empty", got)
	}
}
