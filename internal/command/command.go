// Package command implements the text command grammar of §4.2: tokenizing
// and serializing the TS3 command format, its escape rules, and the
// canonical per-row flattening that the book layer and message codec build
// on. Style grounded on the teacher's rlp package (package-level
// Encode/Decode entry points, sentinel errors for malformed input, small
// private helper functions per grammar production).
package command

import (
	"strings"

	"github.com/imxeno/tsclientlib/internal/tserr"
)

// Pair is an ordered key/value argument. Value is the decoded (unescaped)
// string; HasValue distinguishes a bare key ("k") from an explicit empty
// value ("k=").
type Pair struct {
	Key      string
	Value    string
	HasValue bool
}

// Command is the parsed (name, statics, list rows) triple from §3.
type Command struct {
	Name    string
	Static  []Pair
	List    [][]Pair
}

// StaticValue returns the value of a static argument and whether it was
// present.
func (c *Command) StaticValue(key string) (string, bool) {
	for _, p := range c.Static {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Row returns the canonical (statics-applied) view of list row i: a copy
// of Static with every pair in List[i] overriding on key conflict, and any
// row-only keys appended. If the command has no list rows, Row(0) returns
// the statics alone.
func (c *Command) Row(i int) []Pair {
	if len(c.List) == 0 {
		if i != 0 {
			return nil
		}
		return append([]Pair(nil), c.Static...)
	}
	if i < 0 || i >= len(c.List) {
		return nil
	}
	out := append([]Pair(nil), c.Static...)
	row := c.List[i]
	for _, rp := range row {
		replaced := false
		for j := range out {
			if out[j].Key == rp.Key {
				out[j] = rp
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, rp)
		}
	}
	return out
}

// RowCount returns the number of canonical rows: len(List), or 1 if there
// are no list rows (the statics count as a single row).
func (c *Command) RowCount() int {
	if len(c.List) == 0 {
		return 1
	}
	return len(c.List)
}

// ---------------------------------------------------------------------------
// Escaping, §4.2.
// ---------------------------------------------------------------------------

var escapeDecode = map[byte]byte{
	'v': '\v', 'f': '\f', '\\': '\\', 't': '\t', 'r': '\r', 'n': '\n',
	'p': '|', 's': ' ', '/': '/',
}

var escapeEncode = map[byte]string{
	'\v': `\v`, '\f': `\f`, '\\': `\\`, '\t': `\t`, '\r': `\r`, '\n': `\n`,
	'|': `\p`, ' ': `\s`, '/': `\/`,
}

// escapeValue applies the encoder's escape rules. The caller must never
// produce a literal newline in the wire form.
func escapeValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if enc, ok := escapeEncode[c]; ok {
			b.WriteString(enc)
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// unescapeValue reverses escapeValue, returning a ParseCommand error on an
// unknown escape sequence.
func unescapeValue(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", tserr.New(tserr.KindParseCommand, "trailing backslash")
		}
		dec, ok := escapeDecode[s[i]]
		if !ok {
			return "", tserr.New(tserr.KindParseCommand, "unknown escape sequence \\%c", s[i])
		}
		b.WriteByte(dec)
	}
	return b.String(), nil
}

func isKeyByte(c byte) bool {
	switch c {
	case '\v', '\f', '\\', '\t', '\r', '\n', '|', ' ', '/', '=':
		return false
	default:
		return true
	}
}

func isNameByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// ---------------------------------------------------------------------------
// Parsing.
// ---------------------------------------------------------------------------

type parser struct {
	s   string
	pos int
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.s) && p.s[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) eof() bool { return p.pos >= len(p.s) }

func (p *parser) peek() byte { return p.s[p.pos] }

// readKey reads a key token: a maximal run of key bytes.
func (p *parser) readKey() (string, error) {
	start := p.pos
	for p.pos < len(p.s) && isKeyByte(p.s[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", tserr.New(tserr.KindParseCommand, "expected a key at position %d", start)
	}
	return p.s[start:p.pos], nil
}

// readValue reads a value token: escapes or any byte not in the excluded
// set [\v \f \\ \t \r \n | /].
func (p *parser) readValue() (string, error) {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '\\' {
			p.pos += 2
			continue
		}
		switch c {
		case '\v', '\f', '\t', '\r', '\n', '|', '/', ' ':
			goto done
		}
		p.pos++
	}
done:
	if p.pos > len(p.s) {
		p.pos = len(p.s)
	}
	return unescapeValue(p.s[start:p.pos])
}

// readPair reads one "key" or "key=value" token.
func (p *parser) readPair() (Pair, error) {
	key, err := p.readKey()
	if err != nil {
		return Pair{}, err
	}
	if !p.eof() && p.peek() == '=' {
		p.pos++
		val, err := p.readValue()
		if err != nil {
			return Pair{}, err
		}
		return Pair{Key: key, Value: val, HasValue: true}, nil
	}
	return Pair{Key: key}, nil
}

// Parse parses the wire form of a command per the grammar in §4.2. The name
// is optional (a bare "serverquery" command omits it).
func Parse(s string) (*Command, error) {
	p := &parser{s: s}
	cmd := &Command{}

	// Optional name: a maximal run of alnum bytes followed by end-of-input,
	// a space, or '|'. Distinguish from a key by requiring it be followed
	// by whitespace/EOF/'|' rather than '='.
	start := p.pos
	for p.pos < len(p.s) && isNameByte(p.s[p.pos]) {
		p.pos++
	}
	if p.pos > start && (p.eof() || p.peek() == ' ' || p.peek() == '|') {
		cmd.Name = p.s[start:p.pos]
	} else {
		p.pos = start
	}

	p.skipSpaces()

	// Static args, until '|' or EOF.
	for !p.eof() && p.peek() != '|' {
		pair, err := p.readPair()
		if err != nil {
			return nil, err
		}
		cmd.Static = append(cmd.Static, pair)
		p.skipSpaces()
	}

	// List rows.
	for !p.eof() && p.peek() == '|' {
		p.pos++
		p.skipSpaces()
		var row []Pair
		for !p.eof() && p.peek() != '|' {
			pair, err := p.readPair()
			if err != nil {
				return nil, err
			}
			row = append(row, pair)
			p.skipSpaces()
		}
		cmd.List = append(cmd.List, row)
	}

	if !p.eof() {
		return nil, tserr.New(tserr.KindParseCommand, "residual bytes at position %d", p.pos)
	}

	promoteFirstRow(cmd)
	return cmd, nil
}

// promoteFirstRow implements §4.2's post-parse rule. A line like
// "a=1 c=3 b=2|b=4|b=5" parses, by the raw grammar alone, as three static
// pairs (a, c, b) followed by two explicit list rows ([b=4], [b=5]): the
// value for row 0 of a list argument is written inline with the statics,
// with no leading '|'. After parsing, any static key that also appears in
// the (raw) first list row is pulled out of the statics and used to build
// a brand new row, which is prepended to List — "a" and "c" stay static
// because they never appear in a list row; "b" does, so b=2 becomes the
// list's real row 0 and the two explicit rows shift down (spec.md §8 S2).
func promoteFirstRow(cmd *Command) {
	if len(cmd.List) == 0 || len(cmd.List[0]) == 0 {
		return
	}
	inRow := make(map[string]bool, len(cmd.List[0]))
	for _, p := range cmd.List[0] {
		inRow[p.Key] = true
	}
	var promoted, kept []Pair
	for _, p := range cmd.Static {
		if inRow[p.Key] {
			promoted = append(promoted, p)
		} else {
			kept = append(kept, p)
		}
	}
	if len(promoted) == 0 {
		return
	}
	cmd.Static = kept
	cmd.List = append([][]Pair{promoted}, cmd.List...)
}

// ---------------------------------------------------------------------------
// Serialization.
// ---------------------------------------------------------------------------

func serializePair(b *strings.Builder, p Pair) {
	b.WriteString(p.Key)
	// return_code always emits "=", even when empty (§3, §4.2).
	if p.HasValue || p.Key == "return_code" {
		b.WriteByte('=')
		b.WriteString(escapeValue(p.Value))
	}
}

// Serialize reverses Parse; return_code is always emitted with '=' even
// when its value is empty.
func Serialize(cmd *Command) string {
	var b strings.Builder
	if cmd.Name != "" {
		b.WriteString(cmd.Name)
	}
	for i, p := range cmd.Static {
		if i > 0 || cmd.Name != "" {
			b.WriteByte(' ')
		}
		serializePair(&b, p)
	}
	for _, row := range cmd.List {
		b.WriteByte('|')
		for i, p := range row {
			if i > 0 {
				b.WriteByte(' ')
			}
			serializePair(&b, p)
		}
	}
	return b.String()
}

// Canonicalize returns the flattened per-row view described in §3 and the
// GLOSSARY: the statics cloned onto each row. It is used to compare two
// commands for semantic equality regardless of static/list placement
// (property 1 in spec.md §8).
func Canonicalize(cmd *Command) [][]Pair {
	rows := make([][]Pair, cmd.RowCount())
	for i := range rows {
		rows[i] = cmd.Row(i)
	}
	return rows
}
