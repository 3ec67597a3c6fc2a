package extract

import (
	"bytes"
	"encoding/hex"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// TJ adjustments below this value (thousandths of an em) are read as a word gap.
const tjSpaceThreshold = -200

type operand struct {
	str    []byte
	isStr  bool
	num    float64
	isNum  bool
	arr    []operand
	isArr  bool
	name   string
	isName bool
}

// contentText collects the text shown by a page content stream. It understands
// the text showing operators (Tj, TJ, ' and ") and starts a new line on text
// positioning operators and at the end of each text object. Strings are decoded
// with the font selected by Tf; the second result counts dropped codes that had
// no Unicode mapping.
func contentText(stream []byte, fonts map[string]*textFont) (string, int) {
	p := &contentParser{buf: stream}
	var (
		out     strings.Builder
		stack   []operand
		font    *textFont
		missing int
	)

	newline := func() {
		s := out.String()
		if len(s) > 0 && !strings.HasSuffix(s, "\n") {
			out.WriteByte('\n')
		}
	}
	show := func(b []byte) {
		text, n := font.decode(b)
		out.WriteString(text)
		missing += n
	}

	for {
		tok, ok := p.next()
		if !ok {
			break
		}
		if tok.operator == "" {
			stack = append(stack, tok.operand)
			continue
		}

		switch tok.operator {
		case "Tf":
			if len(stack) >= 2 && stack[len(stack)-2].isName {
				font = fonts[stack[len(stack)-2].name]
			}
		case "Tj":
			if s, ok := lastString(stack); ok {
				show(s)
			}
		case "'":
			newline()
			if s, ok := lastString(stack); ok {
				show(s)
			}
		case "\"":
			newline()
			if s, ok := lastString(stack); ok {
				show(s)
			}
		case "TJ":
			if len(stack) > 0 && stack[len(stack)-1].isArr {
				for _, el := range stack[len(stack)-1].arr {
					switch {
					case el.isStr:
						show(el.str)
					case el.isNum && el.num < tjSpaceThreshold:
						out.WriteByte(' ')
					}
				}
			}
		case "T*", "ET":
			newline()
		case "Td", "TD":
			if len(stack) >= 2 && stack[len(stack)-1].isNum && stack[len(stack)-1].num != 0 {
				newline()
			} else if out.Len() > 0 && !strings.HasSuffix(out.String(), " ") && !strings.HasSuffix(out.String(), "\n") {
				out.WriteByte(' ')
			}
		case "Tm":
			newline()
		case "ID":
			p.skipInlineImage()
		}
		stack = stack[:0]
	}
	return out.String(), missing
}

func lastString(stack []operand) ([]byte, bool) {
	if len(stack) == 0 || !stack[len(stack)-1].isStr {
		return nil, false
	}
	return stack[len(stack)-1].str, true
}

// decodeTextString maps string bytes to UTF-8 when the font is unknown. UTF-16BE
// strings carry a BOM, everything else is read as a single-byte encoding.
func decodeTextString(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		b = b[2:]
		u := make([]uint16, 0, len(b)/2)
		for i := 0; i+1 < len(b); i += 2 {
			u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(u))
	}
	if utf8.Valid(b) {
		return string(b)
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

type token struct {
	operator string
	operand  operand
}

type contentParser struct {
	buf []byte
	pos int
}

func isWhite(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (p *contentParser) skipSpace() {
	for p.pos < len(p.buf) {
		c := p.buf[p.pos]
		if isWhite(c) {
			p.pos++
			continue
		}
		if c == '%' {
			for p.pos < len(p.buf) && p.buf[p.pos] != '\n' && p.buf[p.pos] != '\r' {
				p.pos++
			}
			continue
		}
		return
	}
}

func (p *contentParser) next() (token, bool) {
	for {
		p.skipSpace()
		if p.pos >= len(p.buf) {
			return token{}, false
		}
		c := p.buf[p.pos]
		switch {
		case c == '(':
			return token{operand: operand{str: p.literal(), isStr: true}}, true
		case c == '<' && p.peek(1) == '<', c == '>' && p.peek(1) == '>':
			p.pos += 2
		case c == '<':
			return token{operand: operand{str: p.hexString(), isStr: true}}, true
		case c == '[':
			p.pos++
			return token{operand: p.array()}, true
		case c == ']' || c == '{' || c == '}' || c == ')' || c == '>':
			p.pos++
		case c == '/':
			p.pos++
			return token{operand: operand{name: p.word(), isName: true}}, true
		default:
			w := p.word()
			if w == "" {
				p.pos++
				continue
			}
			if n, err := strconv.ParseFloat(w, 64); err == nil {
				return token{operand: operand{num: n, isNum: true}}, true
			}
			return token{operator: w}, true
		}
	}
}

func (p *contentParser) peek(off int) byte {
	if p.pos+off < len(p.buf) {
		return p.buf[p.pos+off]
	}
	return 0
}

func (p *contentParser) word() string {
	start := p.pos
	for p.pos < len(p.buf) && !isWhite(p.buf[p.pos]) && !isDelim(p.buf[p.pos]) && p.buf[p.pos] != '[' && p.buf[p.pos] != ']' {
		p.pos++
	}
	return string(p.buf[start:p.pos])
}

func (p *contentParser) array() operand {
	var arr []operand
	for {
		p.skipSpace()
		if p.pos >= len(p.buf) {
			break
		}
		if p.buf[p.pos] == ']' {
			p.pos++
			break
		}
		tok, ok := p.next()
		if !ok {
			break
		}
		if tok.operator != "" {
			continue
		}
		arr = append(arr, tok.operand)
	}
	return operand{arr: arr, isArr: true}
}

func (p *contentParser) literal() []byte {
	p.pos++ // (
	var b bytes.Buffer
	depth := 1
	for p.pos < len(p.buf) {
		c := p.buf[p.pos]
		p.pos++
		switch c {
		case '\\':
			if p.pos >= len(p.buf) {
				return b.Bytes()
			}
			e := p.buf[p.pos]
			p.pos++
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
			case '\r':
				if p.pos < len(p.buf) && p.buf[p.pos] == '\n' {
					p.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && p.pos < len(p.buf) && p.buf[p.pos] >= '0' && p.buf[p.pos] <= '7'; i++ {
						v = v*8 + int(p.buf[p.pos]-'0')
						p.pos++
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
			depth--
			if depth == 0 {
				return b.Bytes()
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.Bytes()
}

func (p *contentParser) hexString() []byte {
	p.pos++ // <
	var digits []byte
	for p.pos < len(p.buf) && p.buf[p.pos] != '>' {
		c := p.buf[p.pos]
		if !isWhite(c) {
			digits = append(digits, c)
		}
		p.pos++
	}
	p.pos++ // >
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, hex.DecodedLen(len(digits)))
	n, err := hex.Decode(out, digits)
	if err != nil {
		return out[:n]
	}
	return out
}

// skipInlineImage jumps past binary inline image data up to the EI operator.
func (p *contentParser) skipInlineImage() {
	for p.pos+2 < len(p.buf) {
		if isWhite(p.buf[p.pos]) && p.buf[p.pos+1] == 'E' && p.buf[p.pos+2] == 'I' &&
			(p.pos+3 >= len(p.buf) || isWhite(p.buf[p.pos+3])) {
			p.pos += 3
			return
		}
		p.pos++
	}
	p.pos = len(p.buf)
}
