package filter

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokOp
	tokLParen
	tokRParen
	tokLBrack
	tokRBrack
	tokComma
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of expression"
	case tokString:
		return strconv.Quote(t.text)
	}
	return fmt.Sprintf("%q", t.text)
}

// SyntaxError reports a malformed predicate expression.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d: %s", e.Pos, e.Msg)
}

// operators, longest first so "===" wins over "==".
var operators = []string{"===", "!==", "==", "!=", "<=", ">=", "&&", "||", "<", ">", "!"}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == '[':
			toks = append(toks, token{kind: tokLBrack, text: "[", pos: i})
			i++
		case c == ']':
			toks = append(toks, token{kind: tokRBrack, text: "]", pos: i})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++
		case c == '"' || c == '\'':
			tok, n, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = n
		case isDigit(c) || (c == '-' && i+1 < len(src) && isDigit(src[i+1]) && !afterValue(toks)):
			tok, n, err := lexNumber(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = n
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		default:
			op := ""
			for _, o := range operators {
				if strings.HasPrefix(src[i:], o) {
					op = o
					break
				}
			}
			if op == "" {
				return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
			}
			toks = append(toks, token{kind: tokOp, text: op, pos: i})
			i += len(op)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func lexString(src string, start int) (token, int, error) {
	quote := src[start]
	var sb strings.Builder
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == quote:
			return token{kind: tokString, text: sb.String(), pos: start}, i + 1, nil
		case c == '\\' && i+1 < len(src):
			i++
			switch src[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(src[i])
			}
		default:
			sb.WriteByte(c)
		}
		i++
	}
	return token{}, 0, &SyntaxError{Pos: start, Msg: "unterminated string"}
}

func lexNumber(src string, start int) (token, int, error) {
	i := start
	if src[i] == '-' {
		i++
	}
	for i < len(src) && (isDigit(src[i]) || src[i] == '.' || src[i] == 'x' || src[i] == 'X' || isHexLetter(src[i])) {
		i++
	}
	text := src[start:i]
	digits := strings.TrimPrefix(text, "-")
	var v float64
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		n, err := strconv.ParseInt(digits[2:], 16, 64)
		if err != nil {
			return token{}, 0, &SyntaxError{Pos: start, Msg: fmt.Sprintf("invalid number %q", text)}
		}
		v = float64(n)
	} else {
		n, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			return token{}, 0, &SyntaxError{Pos: start, Msg: fmt.Sprintf("invalid number %q", text)}
		}
		v = n
	}
	if text[0] == '-' {
		v = -v
	}
	return token{kind: tokNumber, text: text, num: v, pos: start}, i, nil
}

// afterValue reports whether the previous token ends an operand, in which
// case a '-' cannot start a negative literal.
func afterValue(toks []token) bool {
	if len(toks) == 0 {
		return false
	}
	switch toks[len(toks)-1].kind {
	case tokIdent, tokNumber, tokString, tokRParen, tokRBrack:
		return true
	}
	return false
}

func isDigit(c byte) bool     { return c >= '0' && c <= '9' }
func isHexLetter(c byte) bool { return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) || c == '.' }
