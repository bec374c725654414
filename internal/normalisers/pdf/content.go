package pdf

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// kernGap is the TJ adjustment, in thousandths of an em, treated as a word
// break.
const kernGap = -200

// contentText decodes the text shown by a page content stream. Only the
// string operands of Tj, TJ, ' and " are kept. Line moves become newlines.
func contentText(stream []byte) string {
	p := &contentParser{src: stream}
	p.run()
	return tidy(p.out.String())
}

type contentParser struct {
	src []byte
	pos int
	out strings.Builder

	strs []string
	nums []float64
	arr  []string
}

func (p *contentParser) run() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case isSpace(c):
			p.pos++
		case c == '%':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' && p.src[p.pos] != '\r' {
				p.pos++
			}
		case c == '(':
			p.pos++
			p.strs = append(p.strs, p.literal())
		case c == '<' && p.peek(1) == '<':
			p.pos += 2
		case c == '>' && p.peek(1) == '>':
			p.pos += 2
		case c == '<':
			p.pos++
			p.strs = append(p.strs, p.hexString())
		case c == '[':
			p.pos++
			p.array()
		case c == ']' || c == '{' || c == '}':
			p.pos++
		case c == '/':
			p.pos++
			p.token()
		default:
			tok := p.token()
			if tok == "" {
				p.pos++
				continue
			}
			if f, err := strconv.ParseFloat(tok, 64); err == nil {
				p.nums = append(p.nums, f)
				continue
			}
			p.operator(tok)
		}
	}
}

func (p *contentParser) operator(op string) {
	switch op {
	case "Tj":
		p.emit(p.lastString())
	case "'", "\"":
		p.newline()
		p.emit(p.lastString())
	case "TJ":
		p.emit(strings.Join(p.arr, ""))
	case "T*", "ET":
		p.newline()
	case "Td", "TD":
		if len(p.nums) >= 2 && p.nums[len(p.nums)-1] != 0 {
			p.newline()
		} else if len(p.nums) >= 2 && p.nums[len(p.nums)-2] > 0 {
			p.space()
		}
	case "Tm":
		p.newline()
	case "ID":
		p.skipInlineImage()
	}
	p.strs = p.strs[:0]
	p.nums = p.nums[:0]
	p.arr = p.arr[:0]
}

func (p *contentParser) emit(s string) {
	p.out.WriteString(s)
}

func (p *contentParser) newline() {
	if p.out.Len() > 0 {
		p.out.WriteByte('\n')
	}
}

func (p *contentParser) space() {
	s := p.out.String()
	if s != "" && !strings.HasSuffix(s, " ") && !strings.HasSuffix(s, "\n") {
		p.out.WriteByte(' ')
	}
}

func (p *contentParser) lastString() string {
	if len(p.strs) == 0 {
		return ""
	}
	return p.strs[len(p.strs)-1]
}

func (p *contentParser) peek(n int) byte {
	if p.pos+n < len(p.src) {
		return p.src[p.pos+n]
	}
	return 0
}

func (p *contentParser) token() string {
	start := p.pos
	for p.pos < len(p.src) && !isSpace(p.src[p.pos]) && !isDelim(p.src[p.pos]) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

// array collects the strings of a TJ operand. Large negative adjustments
// are rendered as spaces.
func (p *contentParser) array() {
	p.arr = p.arr[:0]
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == ']':
			p.pos++
			return
		case isSpace(c):
			p.pos++
		case c == '(':
			p.pos++
			p.arr = append(p.arr, p.literal())
		case c == '<':
			p.pos++
			p.arr = append(p.arr, p.hexString())
		default:
			tok := p.token()
			if tok == "" {
				p.pos++
				continue
			}
			if f, err := strconv.ParseFloat(tok, 64); err == nil && f < kernGap {
				p.arr = append(p.arr, " ")
			}
		}
	}
}

// literal reads a parenthesised string; the opening paren is consumed.
func (p *contentParser) literal() string {
	var b strings.Builder
	depth := 1
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		switch c {
		case '(':
			depth++
			b.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return b.String()
			}
			b.WriteByte(c)
		case '\\':
			p.escape(&b)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (p *contentParser) escape(b *strings.Builder) {
	if p.pos >= len(p.src) {
		return
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
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
		if p.pos < len(p.src) && p.src[p.pos] == '\n' {
			p.pos++
		}
	case '\n':
	default:
		if c >= '0' && c <= '7' {
			v := int(c - '0')
			for i := 0; i < 2 && p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '7'; i++ {
				v = v*8 + int(p.src[p.pos]-'0')
				p.pos++
			}
			b.WriteByte(byte(v))
			return
		}
		b.WriteByte(c)
	}
}

// hexString reads a <...> string; the opening bracket is consumed.
func (p *contentParser) hexString() string {
	var digits []byte
	for p.pos < len(p.src) && p.src[p.pos] != '>' {
		if !isSpace(p.src[p.pos]) {
			digits = append(digits, p.src[p.pos])
		}
		p.pos++
	}
	p.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	decoded, err := hex.DecodeString(string(digits))
	if err != nil {
		return ""
	}
	return string(decoded)
}

func (p *contentParser) skipInlineImage() {
	for p.pos+2 < len(p.src) {
		if isSpace(p.src[p.pos]) && p.src[p.pos+1] == 'E' && p.src[p.pos+2] == 'I' &&
			(p.pos+3 == len(p.src) || isSpace(p.src[p.pos+3])) {
			p.pos += 3
			return
		}
		p.pos++
	}
	p.pos = len(p.src)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isDelim(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

// tidy trims trailing spaces and collapses runs of blank lines.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	blankRun := 0
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			blankRun++
			if blankRun > 1 {
				continue
			}
		} else {
			blankRun = 0
		}
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
