package application

import "strings"

// numberWords are applied in declaration order by plain substring
// replacement. This is a best-effort heuristic, not a number-word
// parser: compound numbers ("one hundred fifty") concatenate digit
// fragments rather than composing magnitudes, and tens whose spelling
// contains a unit word ("seventy") are clipped by the earlier unit
// replacement. Known limitation, kept for parity with the spoken-input
// behavior users already rely on.
var numberWords = []struct {
	word   string
	digits string
}{
	{"one", "1"},
	{"two", "2"},
	{"three", "3"},
	{"four", "4"},
	{"five", "5"},
	{"six", "6"},
	{"seven", "7"},
	{"eight", "8"},
	{"nine", "9"},
	{"ten", "10"},
	{"twenty", "20"},
	{"thirty", "30"},
	{"forty", "40"},
	{"fifty", "50"},
	{"sixty", "60"},
	{"seventy", "70"},
	{"eighty", "80"},
	{"ninety", "90"},
	{"hundred", "00"},
	{"thousand", "000"},
}

// NormalizeNumber converts spoken digit and magnitude words to numeral
// fragments, then strips everything that is not a digit or decimal
// point. An empty result means the answer could not be parsed and the
// question should be re-asked.
func NormalizeNumber(text string) string {
	s := strings.ToLower(text)
	for _, nw := range numberWords {
		s = strings.ReplaceAll(s, nw.word, nw.digits)
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	out := b.String()

	if !strings.ContainsAny(out, "0123456789") {
		return ""
	}
	return out
}
