// Package kana provides deterministic conversion between the Japanese kana
// scripts and expansion of classical iteration marks (odoriji).
//
// All transforms are character-by-character table mappings: characters
// outside the known ranges pass through unchanged, so every function is
// total and idempotent on its own output.
package kana

// Katakana/hiragana block offsets. The two scripts are parallel in Unicode:
// katakana ァ (U+30A1) .. ヶ (U+30F6) maps to hiragana ぁ (U+3041) .. ゖ
// (U+3096) at a fixed offset of 0x60.
const (
	katakanaLo = 0x30A1
	katakanaHi = 0x30F6
	hiraganaLo = 0x3041
	hiraganaHi = 0x3096
	kanaOffset = 0x60
)

// ToHiragana converts every katakana character in s to its hiragana
// counterpart. Characters outside the katakana range (punctuation,
// already-hiragana, Latin) pass through unchanged.
func ToHiragana(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= katakanaLo && r <= katakanaHi {
			r -= kanaOffset
		}
		out = append(out, r)
	}
	return string(out)
}

// ToKatakana converts every hiragana character in s to its katakana
// counterpart; everything else passes through unchanged.
func ToKatakana(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= hiraganaLo && r <= hiraganaHi {
			r += kanaOffset
		}
		out = append(out, r)
	}
	return string(out)
}

// IsHiragana reports whether r is a hiragana character, including the
// hiragana iteration marks ゝ and ゞ.
func IsHiragana(r rune) bool {
	return (r >= hiraganaLo && r <= hiraganaHi) || r == 'ゝ' || r == 'ゞ'
}

// dakuten maps an unvoiced kana to its voiced form, for expanding the
// voiced iteration marks ゞ and ヾ.
var dakuten = map[rune]rune{
	'か': 'が', 'き': 'ぎ', 'く': 'ぐ', 'け': 'げ', 'こ': 'ご',
	'さ': 'ざ', 'し': 'じ', 'す': 'ず', 'せ': 'ぜ', 'そ': 'ぞ',
	'た': 'だ', 'ち': 'ぢ', 'つ': 'づ', 'て': 'で', 'と': 'ど',
	'は': 'ば', 'ひ': 'び', 'ふ': 'ぶ', 'へ': 'べ', 'ほ': 'ぼ',
	'う': 'ゔ',
	'カ': 'ガ', 'キ': 'ギ', 'ク': 'グ', 'ケ': 'ゲ', 'コ': 'ゴ',
	'サ': 'ザ', 'シ': 'ジ', 'ス': 'ズ', 'セ': 'ゼ', 'ソ': 'ゾ',
	'タ': 'ダ', 'チ': 'ヂ', 'ツ': 'ヅ', 'テ': 'デ', 'ト': 'ド',
	'ハ': 'バ', 'ヒ': 'ビ', 'フ': 'ブ', 'ヘ': 'ベ', 'ホ': 'ボ',
	'ウ': 'ヴ',
}

// ExpandIterationMarks expands the single-character iteration marks ゝヽ
// (repeat previous) and ゞヾ (repeat previous, voiced) using the preceding
// character. A mark with no preceding character is left as-is.
//
// Intended for converted kana text, after morphological analysis.
func ExpandIterationMarks(s string) string {
	out := make([]rune, 0, len(s))
	var prev rune
	for _, r := range s {
		switch r {
		case 'ゝ', 'ヽ':
			if prev != 0 {
				out = append(out, prev)
			} else {
				out = append(out, r)
			}
		case 'ゞ', 'ヾ':
			switch {
			case prev == 0:
				out = append(out, r)
			default:
				if v, ok := dakuten[prev]; ok {
					out = append(out, v)
				} else {
					out = append(out, prev)
				}
			}
		default:
			out = append(out, r)
			prev = r
		}
	}
	return string(out)
}

// PreExpandIterationMarks expands iteration marks before morphological
// analysis. Unlike ExpandIterationMarks it only expands a mark whose
// preceding character is hiragana: a mark following a kanji repeats a
// reading, not a character, and must be left for the analyzer.
func PreExpandIterationMarks(s string) string {
	out := make([]rune, 0, len(s))
	var prev rune
	for _, r := range s {
		switch r {
		case 'ゝ', 'ヽ':
			if IsHiragana(prev) {
				out = append(out, prev)
			} else {
				out = append(out, r)
			}
			continue
		case 'ゞ', 'ヾ':
			if IsHiragana(prev) {
				if v, ok := dakuten[prev]; ok {
					out = append(out, v)
				} else {
					out = append(out, prev)
				}
			} else {
				out = append(out, r)
			}
			continue
		}
		out = append(out, r)
		prev = r
	}
	return string(out)
}
