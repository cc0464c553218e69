// Package pdftext pulls the plain text out of restaurant documents (menus,
// FAQs, policies) so it can be turned into training data.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"
)

// ErrNoText is returned when a document has no extractable text, e.g. a
// scanned menu without a text layer.
var ErrNoText = errors.New("no extractable text in document")

// Extract reads the PDF at path and returns its text, pages separated by a
// blank line.
func Extract(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	text, err := ExtractReader(f)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}

// ExtractReader is Extract for an already open document.
func ExtractReader(rs io.ReadSeeker) (string, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	var pages []string
	for i := 1; i <= ctx.PageCount; i++ {
		r, err := pdfcpu.ExtractPageContent(ctx, i)
		if err != nil {
			return "", fmt.Errorf("failed to extract page %d: %w", i, err)
		}
		if r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}
		if text := strings.TrimSpace(ContentText(content)); text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return "", ErrNoText
	}
	return strings.Join(pages, "\n\n"), nil
}

// ContentText returns the strings shown by the text operators of a page
// content stream (Tj, TJ, ' and "). Line-moving operators start a new line.
// Strings that are not UTF-8 are read as Windows-1252, the encoding
// behind WinAnsiEncoding used by most generated menus.
func ContentText(content []byte) string {
	var (
		out      strings.Builder
		operands []token
		line     bool
	)

	newline := func() {
		if line {
			out.WriteByte('\n')
			line = false
		}
	}
	show := func(s string) {
		s = decodeSingleByte(s)
		out.WriteString(s)
		if s != "" {
			line = true
		}
	}

	sc := scanner{src: content}
	for {
		tok, ok := sc.next()
		if !ok {
			break
		}
		if tok.kind != opToken {
			operands = append(operands, tok)
			continue
		}

		switch tok.text {
		case "Tj":
			if s, ok := lastString(operands); ok {
				show(s)
			}
		case "'", "\"":
			newline()
			if s, ok := lastString(operands); ok {
				show(s)
			}
		case "TJ":
			if n := len(operands); n > 0 && operands[n-1].kind == arrayToken {
				show(operands[n-1].text)
			}
		case "Td", "TD", "T*", "Tm", "ET":
			newline()
		}
		operands = operands[:0]
	}
	newline()
	return out.String()
}

func decodeSingleByte(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	if d, err := charmap.Windows1252.NewDecoder().String(s); err == nil {
		return d
	}
	return s
}

func lastString(ops []token) (string, bool) {
	if n := len(ops); n > 0 && ops[n-1].kind == stringToken {
		return ops[n-1].text, true
	}
	return "", false
}

type tokenKind int

const (
	otherToken tokenKind = iota
	stringToken
	arrayToken
	numberToken
	opToken
)

type token struct {
	kind tokenKind
	text string
}

type scanner struct {
	src []byte
	pos int
}

func (s *scanner) next() (token, bool) {
	s.skipSpace()
	if s.pos >= len(s.src) {
		return token{}, false
	}

	c := s.src[s.pos]
	switch {
	case c == '(':
		return token{kind: stringToken, text: s.literal()}, true
	case c == '<' && s.peek(1) == '<':
		s.pos += 2
		return token{kind: otherToken, text: "<<"}, true
	case c == '>' && s.peek(1) == '>':
		s.pos += 2
		return token{kind: otherToken, text: ">>"}, true
	case c == '<':
		return token{kind: stringToken, text: s.hex()}, true
	case c == '[':
		return token{kind: arrayToken, text: s.array()}, true
	case c == '/':
		s.pos++
		return token{kind: otherToken, text: "/" + s.word()}, true
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		return token{kind: numberToken, text: s.word()}, true
	case c == ']' || c == '{' || c == '}' || c == ')' || c == '>':
		s.pos++
		return token{kind: otherToken, text: string(c)}, true
	case c == '\'' || c == '"':
		s.pos++
		return token{kind: opToken, text: string(c)}, true
	default:
		w := s.word()
		if w == "BI" {
			s.skipInlineImage()
		}
		return token{kind: opToken, text: w}, true
	}
}

func (s *scanner) peek(off int) byte {
	if s.pos+off < len(s.src) {
		return s.src[s.pos+off]
	}
	return 0
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == '%' {
			for s.pos < len(s.src) && s.src[s.pos] != '\n' && s.src[s.pos] != '\r' {
				s.pos++
			}
			continue
		}
		if !isSpace(c) {
			return
		}
		s.pos++
	}
}

func (s *scanner) word() string {
	start := s.pos
	if s.pos < len(s.src) && !isDelimiter(s.src[s.pos]) {
		s.pos++
	}
	for s.pos < len(s.src) && !isSpace(s.src[s.pos]) && !isDelimiter(s.src[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		s.pos++
	}
	return string(s.src[start:s.pos])
}

// literal reads a (...) string, handling nesting and escapes.
func (s *scanner) literal() string {
	var b bytes.Buffer
	depth := 0
	s.pos++ // (
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		s.pos++
		switch c {
		case '\\':
			if s.pos >= len(s.src) {
				return b.String()
			}
			e := s.src[s.pos]
			s.pos++
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '\r', '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && s.pos < len(s.src) && s.src[s.pos] >= '0' && s.src[s.pos] <= '7'; i++ {
						v = v*8 + int(s.src[s.pos]-'0')
						s.pos++
					}
					b.WriteByte(byte(v))
				} else {
					b.WriteByte(e)
				}
			}
		case '(':
			depth++
			b.WriteByte(c)
		case ')':
			if depth == 0 {
				return b.String()
			}
			depth--
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (s *scanner) hex() string {
	s.pos++ // <
	var digits []byte
	for s.pos < len(s.src) && s.src[s.pos] != '>' {
		if c := s.src[s.pos]; isHex(c) {
			digits = append(digits, c)
		}
		s.pos++
	}
	s.pos++ // >
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		out = append(out, unhex(digits[i])<<4|unhex(digits[i+1]))
	}
	return string(out)
}

// array reads a TJ operand, joining its strings. Large negative kerning
// adjustments are word gaps in most generators.
func (s *scanner) array() string {
	s.pos++ // [
	var b strings.Builder
	for {
		s.skipSpace()
		if s.pos >= len(s.src) {
			return b.String()
		}
		if s.src[s.pos] == ']' {
			s.pos++
			return b.String()
		}
		tok, ok := s.next()
		if !ok {
			return b.String()
		}
		switch tok.kind {
		case stringToken:
			b.WriteString(tok.text)
		case numberToken:
			var n float64
			if _, err := fmt.Sscanf(tok.text, "%g", &n); err == nil && n < -200 {
				b.WriteByte(' ')
			}
		}
	}
}

func (s *scanner) skipInlineImage() {
	if i := bytes.Index(s.src[s.pos:], []byte("EI")); i >= 0 {
		s.pos += i + 2
	} else {
		s.pos = len(s.src)
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case isDigit(c):
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
