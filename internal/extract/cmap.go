package extract

import (
	"sort"
	"unicode/utf16"
)

type codeRange struct {
	lo, hi uint32
	n      int // bytes per code
}

type bfRange struct {
	codeRange
	dst  []uint16 // first destination, incremented across the range
	list []string // explicit destinations, one per code
}

// cmap is a parsed ToUnicode CMap: character codes to Unicode text.
type cmap struct {
	space  []codeRange
	chars  map[uint64]string
	ranges []bfRange
}

func codeKey(n int, c uint32) uint64 { return uint64(n)<<32 | uint64(c) }

func codeOf(b []byte) uint32 {
	var c uint32
	for _, x := range b {
		c = c<<8 | uint32(x)
	}
	return c
}

func utf16Units(b []byte) []uint16 {
	u := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
	}
	if len(b)%2 == 1 {
		u = append(u, uint16(b[len(b)-1]))
	}
	return u
}

// parseCMap reads the codespace, bfchar and bfrange sections of a ToUnicode CMap.
// Everything else in the program is ignored.
func parseCMap(data []byte) *cmap {
	m := &cmap{chars: map[uint64]string{}}
	p := &contentParser{buf: data}
	var stack []operand

	for tok, ok := p.next(); ok; tok, ok = p.next() {
		if tok.operator == "" {
			stack = append(stack, tok.operand)
			continue
		}
		switch tok.operator {
		case "endcodespacerange":
			for i := 0; i+1 < len(stack); i += 2 {
				lo, hi := stack[i], stack[i+1]
				if !lo.isStr || !hi.isStr || len(lo.str) == 0 || len(lo.str) > 4 {
					continue
				}
				m.space = append(m.space, codeRange{lo: codeOf(lo.str), hi: codeOf(hi.str), n: len(lo.str)})
			}
		case "endbfchar":
			for i := 0; i+1 < len(stack); i += 2 {
				src, dst := stack[i], stack[i+1]
				if !src.isStr || !dst.isStr || len(src.str) == 0 || len(src.str) > 4 {
					continue
				}
				m.chars[codeKey(len(src.str), codeOf(src.str))] = string(utf16.Decode(utf16Units(dst.str)))
			}
		case "endbfrange":
			for i := 0; i+2 < len(stack); i += 3 {
				lo, hi, dst := stack[i], stack[i+1], stack[i+2]
				if !lo.isStr || !hi.isStr || len(lo.str) == 0 || len(lo.str) > 4 {
					continue
				}
				r := bfRange{codeRange: codeRange{lo: codeOf(lo.str), hi: codeOf(hi.str), n: len(lo.str)}}
				switch {
				case dst.isStr && len(dst.str) > 0:
					r.dst = utf16Units(dst.str)
				case dst.isArr:
					for _, el := range dst.arr {
						if el.isStr {
							r.list = append(r.list, string(utf16.Decode(utf16Units(el.str))))
						} else {
							r.list = append(r.list, "")
						}
					}
				default:
					continue
				}
				m.ranges = append(m.ranges, r)
			}
		}
		stack = stack[:0]
	}

	sort.SliceStable(m.space, func(i, j int) bool { return m.space[i].n < m.space[j].n })
	return m
}

// codeLength returns how many bytes at the start of b form one character code.
func (m *cmap) codeLength(b []byte, fallback int) int {
	for _, r := range m.space {
		if r.n > len(b) {
			continue
		}
		if c := codeOf(b[:r.n]); c >= r.lo && c <= r.hi {
			return r.n
		}
	}
	return fallback
}

func (m *cmap) lookup(c uint32, n int) (string, bool) {
	if s, ok := m.chars[codeKey(n, c)]; ok {
		return s, true
	}
	for _, r := range m.ranges {
		if r.n != n || c < r.lo || c > r.hi {
			continue
		}
		off := c - r.lo
		if r.list != nil {
			if int(off) < len(r.list) {
				return r.list[off], true
			}
			continue
		}
		u := append([]uint16(nil), r.dst...)
		u[len(u)-1] += uint16(off)
		return string(utf16.Decode(u)), true
	}
	return "", false
}
