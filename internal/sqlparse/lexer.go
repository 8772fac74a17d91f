package sqlparse

import (
	"strings"
	"unicode"

	"github.com/alecthomas/participle/v2/lexer"
)

// sqlLexer splits template text into tokens. Rules are tried in order, so
// two-character operators precede their one-character prefixes. Invalid
// catches anything else so lexing never fails; the parser reports it as an
// unexpected token with a position. Lower-case rule names are elided.
var sqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `'(?:[^']|'')*'|"(?:[^"]|"")*"`},
	{Name: "QuotedIdent", Pattern: "`[^`]+`"},
	{Name: "Number", Pattern: `[0-9]+(?:\.[0-9]+)?|\.[0-9]+`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Operator", Pattern: `<>|!=|<=|>=|=|<|>|\+|-|\*|/`},
	{Name: "Punct", Pattern: `[(),;?]`},
	{Name: "Invalid", Pattern: `.`},
})

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokString
	tokQuotedIdent
	tokNumber
	tokIdent
	tokOperator
	tokPunct
	tokInvalid
)

var kindBySymbol = func() map[lexer.TokenType]tokenKind {
	sym := sqlLexer.Symbols()
	return map[lexer.TokenType]tokenKind{
		lexer.EOF:          tokEOF,
		sym["String"]:      tokString,
		sym["QuotedIdent"]: tokQuotedIdent,
		sym["Number"]:      tokNumber,
		sym["Ident"]:       tokIdent,
		sym["Operator"]:    tokOperator,
		sym["Punct"]:       tokPunct,
		sym["Invalid"]:     tokInvalid,
	}
}()

type token struct {
	kind tokenKind
	text string
	pos  int // byte offset
}

func (t token) end() int { return t.pos + len(t.text) }

// describe renders a token for error messages.
func (t token) describe() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return "'" + t.text + "'"
}

// isKeyword reports whether t is the bare identifier kw, case-insensitively.
func (t token) isKeyword(kw string) bool {
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

// tokenize lexes normalized text. The final token is always tokEOF.
func tokenize(text string) ([]token, error) {
	lex, err := sqlLexer.LexString("", text)
	if err != nil {
		return nil, &ParseError{Kind: UnexpectedToken, Found: err.Error()}
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, &ParseError{Kind: UnexpectedToken, Found: err.Error()}
	}
	out := make([]token, 0, len(raw))
	for _, t := range raw {
		out = append(out, token{kind: kindBySymbol[t.Type], text: t.Value, pos: t.Pos.Offset})
	}
	return out, nil
}

// Normalize collapses runs of whitespace outside quoted literals and
// identifiers to a single space and trims the ends. Text inside quotes is
// preserved byte for byte.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	var quote rune
	pendingSpace := false
	for _, r := range text {
		if quote != 0 {
			b.WriteRune(r)
			if r == quote {
				quote = 0
			}
			continue
		}
		if unicode.IsSpace(r) {
			pendingSpace = true
			continue
		}
		switch r {
		case '\'', '"', '`':
			quote = r
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// unquote strips the delimiters of a String or QuotedIdent token and
// collapses doubled quote characters.
func unquote(t token) string {
	s := t.text
	if len(s) < 2 {
		return s
	}
	q := s[:1]
	return strings.ReplaceAll(s[1:len(s)-1], q+q, q)
}
