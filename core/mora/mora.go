// Package mora counts linguistic mora in kana text, the unit of duration
// that classical Japanese verse is measured in.
package mora

// Counting is table-driven so the rule set can be extended without touching
// call sites: a rune is classified by membership in foldSet or fullSet, or
// by falling inside a kana block; everything else is ignored.

// foldSet holds the small kana that do not start a new mora: the youon
// (palatalization) set, the small vowels, and the sokuon geminate marker,
// in both scripts. They fold into the mora of the preceding character.
var foldSet = map[rune]bool{
	'ゃ': true, 'ゅ': true, 'ょ': true,
	'ぁ': true, 'ぃ': true, 'ぅ': true, 'ぇ': true, 'ぉ': true,
	'ゎ': true, 'っ': true,
	'ャ': true, 'ュ': true, 'ョ': true,
	'ァ': true, 'ィ': true, 'ゥ': true, 'ェ': true, 'ォ': true,
	'ヮ': true, 'ッ': true,
}

// fullSet holds characters counted as one full mora even though they fall
// outside the plain kana blocks or would otherwise be special-cased: the
// long-vowel mark and the moraic nasal in both scripts.
var fullSet = map[rune]bool{
	'ー': true,
	'ん': true, 'ン': true,
}

// kana reports whether r is an ordinary kana character, including the
// kana iteration marks (which stand for a repeated sound).
func kana(r rune) bool {
	if r >= 0x3041 && r <= 0x3096 { // hiragana
		return true
	}
	if r >= 0x30A1 && r <= 0x30FA { // katakana
		return true
	}
	switch r {
	case 'ゝ', 'ゞ', 'ヽ', 'ヾ':
		return true
	}
	return false
}

// Count returns the number of mora in a kana string. Small youon kana and
// the sokuon fold into the immediately preceding mora; the long-vowel mark
// and the moraic nasal count as one full mora each; non-kana characters
// (punctuation, whitespace, Latin) are ignored.
//
// A fold-class rune with no mora directly before it counts as one: there
// is nothing for it to fold into. An ignored rune breaks the adjacency, so
// a small kana after punctuation also stands alone.
func Count(s string) int {
	n := 0
	joined := false // a mora immediately precedes, for folds to join
	for _, r := range s {
		switch {
		case foldSet[r]:
			if !joined {
				n++
			}
			joined = true
		case fullSet[r], kana(r):
			n++
			joined = true
		default:
			joined = false
		}
	}
	return n
}

// CountPhrases returns the per-phrase mora counts for an ordered phrase
// sequence.
func CountPhrases(phrases []string) []int {
	counts := make([]int, len(phrases))
	for i, p := range phrases {
		counts[i] = Count(p)
	}
	return counts
}
