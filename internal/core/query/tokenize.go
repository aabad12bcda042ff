package query

import (
	"strings"
	"unicode"
)

// Token is one fragment of a raw search string.
// Key is empty for bare words.
type Token struct {
	Raw   string `json:"raw"`
	Key   string `json:"key,omitempty"`
	Value string `json:"value"`
}

// IsPair reports whether the fragment had the key:value shape.
func (t Token) IsPair() bool {
	return strings.Contains(t.Raw, ":")
}

// Tokenize splits raw on whitespace. Double quotes group whitespace into a
// single token, so `team:"Mobile Apps"` is one token with value "Mobile Apps".
// An unterminated quote runs to the end of the input.
func Tokenize(raw string) []Token {
	var (
		tokens  []Token
		current strings.Builder
		quoted  bool
	)

	flush := func() {
		if current.Len() == 0 {
			return
		}
		tokens = append(tokens, newToken(current.String()))
		current.Reset()
	}

	for _, r := range raw {
		switch {
		case r == '"':
			quoted = !quoted
			current.WriteRune(r)
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return tokens
}

func newToken(raw string) Token {
	key, value, found := strings.Cut(raw, ":")
	if !found {
		return Token{Raw: raw, Value: unquote(raw)}
	}
	return Token{
		Raw:   raw,
		Key:   strings.ToLower(strings.TrimSpace(key)),
		Value: unquote(value),
	}
}

func unquote(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		return value[1 : len(value)-1]
	}
	return strings.TrimPrefix(value, `"`)
}
