package binder

import (
	"iter"
	"strings"
)

// Placeholder is a distinct named parameter in query text.
type Placeholder struct {
	Name    string // spelling at the first occurrence, without prefix
	Ordinal int    // 1-based, by first occurrence
	Offset  int    // byte offset of the first occurrence's prefix
}

// Occurrence is a single appearance of a placeholder. Repeated names share
// an ordinal.
type Occurrence struct {
	Name    string
	Ordinal int
	Start   int // offset of the prefix
	End     int // offset just past the name
}

// Placeholders returns the distinct @name placeholders of query in order of
// first occurrence. Each range over the sequence scans the query again.
func Placeholders(query string) iter.Seq[Placeholder] {
	return placeholders(query, syntax{prefix: DefaultPrefix})
}

// Occurrences returns every @name occurrence of query in text order.
func Occurrences(query string) iter.Seq[Occurrence] {
	return occurrences(query, syntax{prefix: DefaultPrefix})
}

// syntax selects how query text is scanned.
type syntax struct {
	prefix       byte
	fold         bool // names compare ignoring case
	hashComments bool // '#' starts a line comment (MySQL)
}

func placeholders(query string, syn syntax) iter.Seq[Placeholder] {
	return func(yield func(Placeholder) bool) {
		next := 0
		for occ := range occurrences(query, syn) {
			if occ.Ordinal <= next {
				continue
			}
			next = occ.Ordinal
			if !yield(Placeholder{Name: occ.Name, Ordinal: occ.Ordinal, Offset: occ.Start}) {
				return
			}
		}
	}
}

func occurrences(query string, syn syntax) iter.Seq[Occurrence] {
	return func(yield func(Occurrence) bool) {
		l := lexer{src: query, prefix: syn.prefix, hashComments: syn.hashComments}
		ordinals := make(map[string]int)
		for {
			start, end, ok := l.next()
			if !ok {
				return
			}
			name := query[start+1 : end]
			key := name
			if syn.fold {
				key = strings.ToLower(name)
			}
			ord, seen := ordinals[key]
			if !seen {
				ord = len(ordinals) + 1
				ordinals[key] = ord
			}
			if !yield(Occurrence{Name: name, Ordinal: ord, Start: start, End: end}) {
				return
			}
		}
	}
}

// lexer finds placeholders while skipping string literals, quoted
// identifiers, comments and dollar-quoted bodies. It never fails:
// unterminated regions run to the end of input.
type lexer struct {
	src          string
	i            int
	prefix       byte
	hashComments bool
}

func (l *lexer) peek(k int) byte {
	if l.i+k < len(l.src) {
		return l.src[l.i+k]
	}
	return 0
}

func (l *lexer) prev() byte {
	if l.i > 0 {
		return l.src[l.i-1]
	}
	return 0
}

// next returns the byte range of the next placeholder, prefix included.
func (l *lexer) next() (start, end int, ok bool) {
	for l.i < len(l.src) {
		c := l.src[l.i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			l.consumeQuoted(c)
		case c == '[' && !isIdentByte(l.prev()) && l.prev() != ']' && l.prev() != ')':
			// [a]]b] is the identifier a]b
			l.consumeQuoted(']')
		case c == '-' && l.peek(1) == '-', c == '#' && l.hashComments:
			l.consumeLineComment()
		case c == '/' && l.peek(1) == '*':
			l.consumeBlockComment()
		case c == '$':
			l.consumeDollar()
		case c == l.prefix:
			if start, end, ok = l.consumePrefix(); ok {
				return start, end, true
			}
		default:
			l.i++
		}
	}
	return 0, 0, false
}

func (l *lexer) consumePrefix() (start, end int, ok bool) {
	switch {
	case l.peek(1) == l.prefix:
		// @@ROWCOUNT, or the :: cast
		l.i += 2
		for l.i < len(l.src) && isNameByte(l.src[l.i]) {
			l.i++
		}
		return 0, 0, false
	case isIdentByte(l.prev()), !isNameStart(l.peek(1)):
		// user@host
		l.i++
		return 0, 0, false
	}
	start = l.i
	l.i++
	for l.i < len(l.src) && isNameByte(l.src[l.i]) {
		l.i++
	}
	return start, l.i, true
}

// consumeQuoted skips the region opened at l.i and closed by q, where a
// doubled q is an escape.
func (l *lexer) consumeQuoted(q byte) {
	l.i++
	for l.i < len(l.src) {
		c := l.src[l.i]
		l.i++
		if c != q {
			continue
		}
		if l.i < len(l.src) && l.src[l.i] == q {
			l.i++
			continue
		}
		return
	}
}

func (l *lexer) consumeLineComment() {
	if j := strings.IndexByte(l.src[l.i:], '\n'); j >= 0 {
		l.i += j + 1
		return
	}
	l.i = len(l.src)
}

func (l *lexer) consumeBlockComment() {
	if j := strings.Index(l.src[l.i+2:], "*/"); j >= 0 {
		l.i += j + 4
		return
	}
	l.i = len(l.src)
}

// consumeDollar skips $tag$ ... $tag$ bodies. Positional $1 and identifiers
// containing $ are left alone.
func (l *lexer) consumeDollar() {
	if isIdentByte(l.prev()) {
		l.i++
		return
	}
	j := l.i + 1
	if j < len(l.src) && isNameStart(l.src[j]) {
		for j < len(l.src) && isNameByte(l.src[j]) {
			j++
		}
	}
	if j >= len(l.src) || l.src[j] != '$' {
		l.i++
		return
	}
	tag := l.src[l.i : j+1]
	body := j + 1
	if k := strings.Index(l.src[body:], tag); k >= 0 {
		l.i = body + k + len(tag)
		return
	}
	l.i = len(l.src)
}

func isNameStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isNameStart(c) || ('0' <= c && c <= '9')
}

// isIdentByte also accepts any non-ASCII byte, so that a prefix following a
// multibyte identifier is not taken as a placeholder.
func isIdentByte(c byte) bool {
	return isNameByte(c) || c >= 0x80
}
