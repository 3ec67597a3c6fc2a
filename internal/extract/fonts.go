package extract

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// textFont decodes the strings shown with one page font.
type textFont struct {
	codeLen   int // 2 for composite (Type0) fonts, 1 otherwise
	ucs2      bool
	toUnicode *cmap
	enc       *[256]rune // simple fonts only
}

// decode maps shown bytes to text. It also returns how many codes had no
// Unicode mapping and were dropped. A nil font falls back to guessing.
func (f *textFont) decode(b []byte) (string, int) {
	if f == nil {
		return decodeTextString(b), 0
	}
	var (
		sb      strings.Builder
		missing int
	)
	for i := 0; i < len(b); {
		n := f.codeLen
		if f.toUnicode != nil {
			n = f.toUnicode.codeLength(b[i:], f.codeLen)
		}
		if i+n > len(b) {
			n = len(b) - i
		}
		c := codeOf(b[i : i+n])
		i += n

		if f.toUnicode != nil {
			if s, ok := f.toUnicode.lookup(c, n); ok {
				sb.WriteString(s)
				continue
			}
		}
		switch {
		case f.ucs2 && n == 2:
			if r := rune(c); r != 0 && utf8.ValidRune(r) {
				sb.WriteRune(r)
				continue
			}
		case f.enc != nil && n == 1:
			if r := f.enc[c]; r != 0 {
				sb.WriteRune(r)
				continue
			}
		}
		missing++
	}
	return sb.String(), missing
}

// pageFonts resolves the fonts named in a page's resources.
func pageFonts(ctx *model.Context, resources types.Dict) map[string]*textFont {
	if resources == nil {
		return nil
	}
	o, found := resources.Find("Font")
	if !found {
		return nil
	}
	fd, err := ctx.DereferenceDict(o)
	if err != nil || fd == nil {
		return nil
	}
	fonts := make(map[string]*textFont, len(fd))
	for name, ref := range fd {
		d, err := ctx.DereferenceDict(ref)
		if err != nil || d == nil {
			continue
		}
		fonts[name] = loadFont(ctx, d)
	}
	return fonts
}

func loadFont(ctx *model.Context, d types.Dict) *textFont {
	f := &textFont{codeLen: 1}
	if st := d.Subtype(); st != nil && *st == "Type0" {
		f.codeLen = 2
		if enc := d.NameEntry("Encoding"); enc != nil {
			f.ucs2 = strings.Contains(*enc, "UCS2") || strings.Contains(*enc, "UTF16")
		}
	} else {
		f.enc = simpleEncoding(ctx, d)
	}

	if o, found := d.Find("ToUnicode"); found {
		sd, _, err := ctx.DereferenceStreamDict(o)
		if err == nil && sd != nil && sd.Decode() == nil {
			f.toUnicode = parseCMap(sd.Content)
		}
	}
	return f
}

// simpleEncoding builds the byte to rune table of a single-byte font: the base
// encoding patched with the font's Differences. Base encodings other than
// WinAnsi agree with it on printable ASCII, which is all resumes need from them.
func simpleEncoding(ctx *model.Context, d types.Dict) *[256]rune {
	enc := winAnsi()
	o, found := d.Find("Encoding")
	if !found {
		return enc
	}
	o, err := ctx.Dereference(o)
	if err != nil || o == nil {
		return enc
	}
	ed, ok := o.(types.Dict)
	if !ok {
		return enc
	}
	diffs, err := ctx.DereferenceArray(ed["Differences"])
	if err != nil {
		return enc
	}
	c := -1
	for _, el := range diffs {
		switch v := el.(type) {
		case types.Integer:
			c = v.Value()
		case types.Name:
			if c >= 0 && c < 256 {
				enc[c] = glyphRune(v.Value())
				c++
			}
		}
	}
	return enc
}

// winAnsi is Latin-1 with the Windows-1252 punctuation block at 0x80-0x9F.
func winAnsi() *[256]rune {
	var t [256]rune
	for i := 0x20; i < 256; i++ {
		t[i] = rune(i)
	}
	t['\t'], t['\n'], t['\r'] = '\t', '\n', '\r'
	for i := 0x7F; i < 0xA0; i++ {
		t[i] = 0
	}
	for b, r := range cp1252 {
		t[b] = r
	}
	return &t
}

var cp1252 = map[byte]rune{
	0x80: '€', 0x82: '‚', 0x83: 'ƒ', 0x84: '„', 0x85: '…', 0x86: '†', 0x87: '‡',
	0x88: 'ˆ', 0x89: '‰', 0x8A: 'Š', 0x8B: '‹', 0x8C: 'Œ', 0x8E: 'Ž',
	0x91: '‘', 0x92: '’', 0x93: '“', 0x94: '”', 0x95: '•', 0x96: '–', 0x97: '—',
	0x98: '˜', 0x99: '™', 0x9A: 'š', 0x9B: '›', 0x9C: 'œ', 0x9E: 'ž', 0x9F: 'Ÿ',
}

var glyphNames = map[string]rune{
	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#', "dollar": '$',
	"percent": '%', "ampersand": '&', "quotesingle": '\'', "parenleft": '(', "parenright": ')',
	"asterisk": '*', "plus": '+', "comma": ',', "hyphen": '-', "period": '.', "slash": '/',
	"zero": '0', "one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
	"colon": ':', "semicolon": ';', "less": '<', "equal": '=', "greater": '>', "question": '?',
	"at": '@', "bracketleft": '[', "backslash": '\\', "bracketright": ']', "underscore": '_',
	"braceleft": '{', "bar": '|', "braceright": '}', "asciitilde": '~',
	"quoteright": '’', "quoteleft": '‘', "quotedblleft": '“', "quotedblright": '”',
	"bullet": '•', "endash": '–', "emdash": '—', "ellipsis": '…', "minus": '−',
	"fi": 'ﬁ', "fl": 'ﬂ', "ff": 'ﬀ', "ffi": 'ﬃ', "ffl": 'ﬄ',
	"eacute": 'é', "egrave": 'è', "aacute": 'á', "agrave": 'à', "ccedilla": 'ç',
	"odieresis": 'ö', "udieresis": 'ü', "adieresis": 'ä', "germandbls": 'ß',
	"copyright": '©', "registered": '®', "trademark": '™', "degree": '°',
}

// glyphRune resolves a glyph name from a Differences array. Unknown names map to 0.
func glyphRune(name string) rune {
	if r, ok := glyphNames[name]; ok {
		return r
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return r
	}
	for _, prefix := range []string{"uni", "u"} {
		if hex, ok := strings.CutPrefix(name, prefix); ok && len(hex) >= 4 && len(hex) <= 6 {
			if v, err := strconv.ParseUint(hex, 16, 32); err == nil && utf8.ValidRune(rune(v)) {
				return rune(v)
			}
		}
	}
	return 0
}
