package speech

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var abbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "st": {}, "vs": {}, "etc": {},
	"no": {}, "approx": {}, "incl": {}, "min": {}, "max": {}, "oz": {}, "lb": {},
	"tbsp": {}, "tsp": {}, "ave": {}, "blvd": {},
	"a.m": {}, "p.m": {}, "e.g": {}, "i.e": {},
}

// Segment splits text into pieces of at most maxChars runes for the speech
// API. Sentences are packed greedily; a single sentence longer than maxChars
// is cut at a clause boundary, or hard-cut if it has none.
func Segment(text string, maxChars int) []string {
	var out []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, s := range sentences(text) {
		for _, piece := range splitLong(s, maxChars) {
			n := utf8.RuneCountInString(piece)
			if curLen > 0 && curLen+1+n > maxChars {
				flush()
			}
			if curLen > 0 {
				cur.WriteByte(' ')
				curLen++
			}
			cur.WriteString(piece)
			curLen += n
		}
	}
	flush()
	return out
}

// sentences splits normalized text at sentence punctuation followed by
// whitespace and a likely sentence start.
func sentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch != '.' && ch != '!' && ch != '?' {
			continue
		}
		if ch == '.' && skipPeriod(text, i) {
			continue
		}
		if !atBoundary(text, i) {
			continue
		}
		if s := strings.TrimSpace(text[start : i+1]); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

func skipPeriod(text string, i int) bool {
	if (i > 0 && text[i-1] == '.') || (i+1 < len(text) && text[i+1] == '.') {
		return true
	}
	// 12.50
	if i > 0 && i+1 < len(text) && isDigit(text[i-1]) && isDigit(text[i+1]) {
		return true
	}
	j := i - 1
	for j >= 0 && text[j] != ' ' && text[j] != '(' && text[j] != '"' {
		j--
	}
	token := strings.ToLower(text[j+1 : i])
	if len(token) == 1 && isLetter(token[0]) {
		return true
	}
	_, ok := abbreviations[token]
	return ok
}

func atBoundary(text string, i int) bool {
	j := i + 1
	for j < len(text) && strings.IndexByte(`"')]`, text[j]) >= 0 {
		j++
	}
	if j >= len(text) {
		return true
	}
	if text[j] != ' ' {
		return false
	}
	j++
	if j >= len(text) {
		return true
	}
	for j < len(text) && strings.IndexByte(`"'([`, text[j]) >= 0 {
		j++
	}
	r, _ := utf8.DecodeRuneInString(text[j:])
	// Scripts without case (Arabic) start a sentence with any letter.
	return unicode.IsUpper(r) || unicode.IsDigit(r) || (unicode.IsLetter(r) && !unicode.IsLower(r))
}

func splitLong(s string, maxChars int) []string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return []string{s}
	}

	var out []string
	start := 0
	for len(runes)-start > maxChars {
		cut := start + maxChars
		for k := cut - 1; k >= start+maxChars/2; k-- {
			if isClauseBreak(runes[k]) {
				cut = k + 1
				break
			}
		}
		if part := strings.TrimSpace(string(runes[start:cut])); part != "" {
			out = append(out, part)
		}
		start = cut
	}
	if part := strings.TrimSpace(string(runes[start:])); part != "" {
		out = append(out, part)
	}
	return out
}

func isClauseBreak(r rune) bool {
	switch r {
	case ',', ';', ':', '،', '؛':
		return true
	default:
		return false
	}
}

func isDigit(ch byte) bool  { return ch >= '0' && ch <= '9' }
func isLetter(ch byte) bool { return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') }
