package rewrite

import (
	"fmt"
	"unicode"
)

// TokenType defines the type of a pattern token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenOpen
	TokenClose
	TokenAtom
	TokenVar
	TokenSymbol
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenOpen:
		return "Open"
	case TokenClose:
		return "Close"
	case TokenAtom:
		return "Atom"
	case TokenVar:
		return "Var"
	case TokenSymbol:
		return "Symbol"
	default:
		return "Unknown"
	}
}

// Token represents a lexical token of a pattern
type Token struct {
	Type  TokenType
	Value string
	Col   int
}

// Lex splits a pattern such as `(+ ?a (--- "x"))` into tokens.
func Lex(input string) ([]Token, error) {
	var tokens []Token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case unicode.IsSpace(rune(c)):
			i++
		case c == '(':
			tokens = append(tokens, Token{Type: TokenOpen, Value: "(", Col: i + 1})
			i++
		case c == ')':
			tokens = append(tokens, Token{Type: TokenClose, Value: ")", Col: i + 1})
			i++
		case c == '"':
			end := i + 1
			for end < len(input) && input[end] != '"' {
				end++
			}
			if end >= len(input) {
				return nil, fmt.Errorf("col %d: symbol is not terminated", i+1)
			}
			tokens = append(tokens, Token{Type: TokenSymbol, Value: input[i+1 : end], Col: i + 1})
			i = end + 1
		default:
			start := i
			for i < len(input) && !isDelimiter(input[i]) {
				i++
			}
			word := input[start:i]
			if word[0] == '?' {
				if len(word) == 1 || !isIdentifier(word[1:]) {
					return nil, fmt.Errorf("col %d: invalid variable %q", start+1, word)
				}
				tokens = append(tokens, Token{Type: TokenVar, Value: word[1:], Col: start + 1})
				continue
			}
			tokens = append(tokens, Token{Type: TokenAtom, Value: word, Col: start + 1})
		}
	}
	tokens = append(tokens, Token{Type: TokenEOF, Col: len(input) + 1})
	return tokens, nil
}

func isDelimiter(c byte) bool {
	return c == '(' || c == ')' || c == '"' || unicode.IsSpace(rune(c))
}

func isIdentifier(s string) bool {
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}
