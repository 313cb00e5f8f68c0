package sql

import (
	"fmt"
	"strings"

	"github.com/simpledb/simpledb/core"
)

// TokenKind classifies a lexed token.
type TokenKind int

const (
	Keyword TokenKind = iota
	Identifier
	Literal
	Operator
	Punct
)

func (k TokenKind) String() string {
	switch k {
	case Keyword:
		return "keyword"
	case Identifier:
		return "identifier"
	case Literal:
		return "literal"
	case Operator:
		return "operator"
	case Punct:
		return "punctuation"
	default:
		return "unknown"
	}
}

// Token is one lexical unit of a statement. Pos is the byte offset of the
// token's first character in the source text. Keyword text is canonicalized
// to uppercase; string literal text carries a canonical single-quoted
// lexeme, so reconstructing source from token texts re-tokenizes
// identically.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%s)", t.Kind, t.Text)
}

// LexError reports a lexical failure and the offset it occurred at.
type LexError struct {
	Pos int
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at position %d: %s", e.Pos, e.Msg)
}

// keywords is the fixed keyword set. Identifiers are matched against it
// case-insensitively; a match emits a Keyword token with uppercase text.
var keywords = map[string]bool{
	"CREATE": true, "TABLE": true, "INSERT": true, "INTO": true,
	"VALUES": true, "SELECT": true, "FROM": true, "WHERE": true,
	"UPDATE": true, "SET": true, "DELETE": true, "BEGIN": true,
	"COMMIT": true, "ROLLBACK": true, "INDEX": true, "PRIMARY": true,
	"KEY": true, "FOREIGN": true, "REFERENCES": true, "NOT": true,
	"NULL": true, "DEFAULT": true, "ORDER": true, "BY": true,
	"ASC": true, "DESC": true, "LIMIT": true, "OFFSET": true,
	"AND": true, "OR": true, "ON": true, "USING": true,
}

// Tokenize performs lexical analysis of a statement. It is a pure function
// of the input bytes and the static keyword table: identical input always
// yields an identical token sequence.
func Tokenize(text string, cfg core.Config) ([]Token, error) {
	if len(text) > cfg.MaxStatementLength {
		return nil, &LexError{Pos: 0, Msg: fmt.Sprintf("statement too long (max %d characters)", cfg.MaxStatementLength)}
	}

	var tokens []Token
	emit := func(tok Token) error {
		tokens = append(tokens, tok)
		if len(tokens) > cfg.MaxTokens {
			return &LexError{Pos: tok.Pos, Msg: fmt.Sprintf("too many tokens (max %d)", cfg.MaxTokens)}
		}
		return nil
	}

	i := 0
	for i < len(text) {
		ch := text[i]

		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++

		case ch == '-' && i+1 < len(text) && text[i+1] == '-':
			// line comment through end of line
			for i < len(text) && text[i] != '\n' {
				i++
			}

		case ch == '\'' || ch == '"':
			content, end, err := scanString(text, i)
			if err != nil {
				return nil, err
			}
			if err := emit(Token{Kind: Literal, Text: quoteLiteral(content), Pos: i}); err != nil {
				return nil, err
			}
			i = end

		case isDigit(ch) || (ch == '-' && i+1 < len(text) && isDigit(text[i+1])):
			lexeme, end := scanNumber(text, i)
			if err := emit(Token{Kind: Literal, Text: lexeme, Pos: i}); err != nil {
				return nil, err
			}
			i = end

		case isLetter(ch) || ch == '_':
			start := i
			for i < len(text) && (isLetter(text[i]) || isDigit(text[i]) || text[i] == '_') {
				i++
			}
			word := text[start:i]
			upper := strings.ToUpper(word)
			if keywords[upper] {
				if err := emit(Token{Kind: Keyword, Text: upper, Pos: start}); err != nil {
					return nil, err
				}
			} else if err := emit(Token{Kind: Identifier, Text: word, Pos: start}); err != nil {
				return nil, err
			}

		case ch == '<' || ch == '>' || ch == '=' || ch == '!':
			// two-character operators take precedence over one-character ones
			if i+1 < len(text) {
				two := text[i : i+2]
				if two == "<=" || two == ">=" || two == "<>" || two == "!=" {
					if err := emit(Token{Kind: Operator, Text: two, Pos: i}); err != nil {
						return nil, err
					}
					i += 2
					continue
				}
			}
			if ch == '!' {
				return nil, &LexError{Pos: i, Msg: "unexpected character '!'"}
			}
			if err := emit(Token{Kind: Operator, Text: string(ch), Pos: i}); err != nil {
				return nil, err
			}
			i++

		case ch == '(' || ch == ')' || ch == ',' || ch == ';' || ch == '.' || ch == '*':
			if err := emit(Token{Kind: Punct, Text: string(ch), Pos: i}); err != nil {
				return nil, err
			}
			i++

		default:
			return nil, &LexError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", string(ch))}
		}
	}

	return tokens, nil
}

// scanString reads a quoted literal starting at the opening quote, handling
// backslash escapes and doubled-quote escaping. Returns the unescaped
// content and the offset past the closing quote.
func scanString(text string, start int) (string, int, error) {
	quote := text[start]
	var b strings.Builder

	i := start + 1
	for i < len(text) {
		ch := text[i]
		switch {
		case ch == '\\' && i+1 < len(text):
			next := text[i+1]
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(next)
			}
			i += 2
		case ch == quote:
			if i+1 < len(text) && text[i+1] == quote {
				b.WriteByte(quote)
				i += 2
				continue
			}
			return b.String(), i + 1, nil
		default:
			b.WriteByte(ch)
			i++
		}
	}
	return "", 0, &LexError{Pos: start, Msg: "unterminated string literal"}
}

// scanNumber reads an optionally negative digit run with an optional
// fractional part. No exponent form.
func scanNumber(text string, start int) (string, int) {
	i := start
	if text[i] == '-' {
		i++
	}
	for i < len(text) && isDigit(text[i]) {
		i++
	}
	if i+1 < len(text) && text[i] == '.' && isDigit(text[i+1]) {
		i++
		for i < len(text) && isDigit(text[i]) {
			i++
		}
	}
	return text[start:i], i
}

// quoteLiteral produces the canonical single-quoted lexeme for a string
// literal's content.
func quoteLiteral(content string) string {
	return "'" + strings.ReplaceAll(content, "'", "''") + "'"
}

// unquoteLiteral recovers the content of a canonical quoted lexeme. The
// second result reports whether the text was quoted at all.
func unquoteLiteral(text string) (string, bool) {
	if len(text) >= 2 && text[0] == '\'' && text[len(text)-1] == '\'' {
		return strings.ReplaceAll(text[1:len(text)-1], "''", "'"), true
	}
	return text, false
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}
