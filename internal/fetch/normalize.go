package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Normalize rewrites a loose JavaScript object literal into strict JSON.
//
// It handles single-quoted and template strings, unquoted keys, trailing
// commas and comments. Bare identifier values (constants, member chains)
// become null since their value is unknowable without evaluation. Anything
// else outside JSON's grammar, such as calls or spreads, is an ErrParse.
func Normalize(src string) (string, error) {
	n := normalizer{src: src, out: make([]byte, 0, len(src))}
	if err := n.run(); err != nil {
		return "", err
	}
	if !json.Valid(n.out) {
		return "", fmt.Errorf("normalized text is not valid JSON: %w", ErrParse)
	}
	return string(n.out), nil
}

type normalizer struct {
	src string
	pos int
	out []byte
}

func (n *normalizer) run() error {
	for n.pos < len(n.src) {
		c := n.src[n.pos]
		switch {
		case c == '/' && n.peek(1) == '/', c == '/' && n.peek(1) == '*':
			end, err := skipComment(n.src, n.pos)
			if err != nil {
				return err
			}
			n.pos = end
		case c == '"' || c == '\'' || c == '`':
			s, end, err := readString(n.src, n.pos)
			if err != nil {
				return err
			}
			n.pos = end
			n.appendString(s)
		case c == '}' || c == ']':
			n.trimTrailingComma()
			n.out = append(n.out, c)
			n.pos++
		case c == '{' || c == '[' || c == ',' || c == ':':
			n.out = append(n.out, c)
			n.pos++
		case isSpace(c):
			n.out = append(n.out, c)
			n.pos++
		case c == '-' || c == '+' || c == '.' && isDigit(n.peek(1)) || isDigit(c):
			n.number()
		case isIdentStart(c):
			if err := n.identifier(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unexpected %q at offset %d: %w", c, n.pos, ErrParse)
		}
	}
	return nil
}

func (n *normalizer) peek(off int) byte {
	if n.pos+off < len(n.src) {
		return n.src[n.pos+off]
	}
	return 0
}

func (n *normalizer) appendString(s string) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	n.out = append(n.out, bytes.TrimRight(buf.Bytes(), "\n")...)
}

func (n *normalizer) trimTrailingComma() {
	i := len(n.out) - 1
	for i >= 0 && isSpace(n.out[i]) {
		i--
	}
	if i >= 0 && n.out[i] == ',' {
		n.out = append(n.out[:i], n.out[i+1:]...)
	}
}

func (n *normalizer) number() {
	start := n.pos
	if n.src[n.pos] == '+' {
		start++
	}
	n.pos++
	for n.pos < len(n.src) && isNumberChar(n.src[n.pos]) {
		n.pos++
	}
	n.out = append(n.out, n.src[start:n.pos]...)
}

func (n *normalizer) identifier() error {
	start := n.pos
	for n.pos < len(n.src) && isIdentChar(n.src[n.pos]) {
		n.pos++
	}
	word := n.src[start:n.pos]

	next := skipSpace(n.src, n.pos)
	if next < len(n.src) && n.src[next] == ':' {
		n.appendString(word)
		return nil
	}

	switch word {
	case "true", "false", "null":
		n.out = append(n.out, word...)
		return nil
	case "undefined", "NaN", "Infinity":
		n.out = append(n.out, "null"...)
		return nil
	}

	// Member chain such as messages.unexpected or SCHEMA.
	for next < len(n.src) && n.src[next] == '.' {
		p := skipSpace(n.src, next+1)
		if p >= len(n.src) || !isIdentStart(n.src[p]) {
			break
		}
		for p < len(n.src) && isIdentChar(n.src[p]) {
			p++
		}
		n.pos = p
		next = skipSpace(n.src, p)
	}
	if next < len(n.src) && (n.src[next] == '(' || n.src[next] == '=') {
		return fmt.Errorf("expression at offset %d: %w", start, ErrParse)
	}
	n.out = append(n.out, "null"...)
	return nil
}

// skipSpace returns the offset of the next byte that is neither whitespace
// nor part of a comment.
func skipSpace(src string, i int) int {
	for i < len(src) {
		switch {
		case isSpace(src[i]):
			i++
		case src[i] == '/' && i+1 < len(src) && (src[i+1] == '/' || src[i+1] == '*'):
			end, err := skipComment(src, i)
			if err != nil {
				return len(src)
			}
			i = end
		default:
			return i
		}
	}
	return i
}

// skipComment returns the offset just past the comment starting at i.
func skipComment(src string, i int) (int, error) {
	if src[i+1] == '/' {
		if nl := strings.IndexByte(src[i:], '\n'); nl >= 0 {
			return i + nl, nil
		}
		return len(src), nil
	}
	end := strings.Index(src[i+2:], "*/")
	if end < 0 {
		return 0, fmt.Errorf("unterminated comment at offset %d: %w", i, ErrParse)
	}
	return i + 2 + end + 2, nil
}

// readString decodes the quoted string starting at i and returns its value
// and the offset past the closing quote. Template literals are returned
// verbatim, interpolations included.
func readString(src string, i int) (string, int, error) {
	quote := src[i]
	var sb strings.Builder
	j := i + 1
	for j < len(src) {
		c := src[j]
		switch {
		case c == quote:
			return sb.String(), j + 1, nil
		case c == '\\' && j+1 < len(src):
			r, width := unescape(src[j+1:])
			sb.WriteString(r)
			j += 1 + width
		case c == '\n' && quote != '`':
			return "", 0, fmt.Errorf("unterminated string at offset %d: %w", i, ErrParse)
		default:
			sb.WriteByte(c)
			j++
		}
	}
	return "", 0, fmt.Errorf("unterminated string at offset %d: %w", i, ErrParse)
}

// unescape decodes the escape sequence following a backslash and returns the
// decoded text and the number of bytes consumed.
func unescape(s string) (string, int) {
	switch s[0] {
	case 'n':
		return "\n", 1
	case 't':
		return "\t", 1
	case 'r':
		return "\r", 1
	case 'b':
		return "\b", 1
	case 'f':
		return "\f", 1
	case 'v':
		return "\v", 1
	case '0':
		return "\x00", 1
	case '\n':
		return "", 1
	case 'x':
		if len(s) >= 3 {
			if v, err := strconv.ParseUint(s[1:3], 16, 8); err == nil {
				return string(rune(v)), 3
			}
		}
	case 'u':
		if len(s) >= 5 && s[1] != '{' {
			if v, err := strconv.ParseUint(s[1:5], 16, 32); err == nil {
				return string(rune(v)), 5
			}
		}
		if end := strings.IndexByte(s, '}'); len(s) > 1 && s[1] == '{' && end > 2 {
			if v, err := strconv.ParseUint(s[2:end], 16, 32); err == nil {
				return string(rune(v)), end + 1
			}
		}
	}
	_, width := utf8.DecodeRuneInString(s)
	return s[:width], width
}

// objectKeys returns the top-level keys of a JSON object in source order.
func objectKeys(text string) ([]string, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read object: %w: %w", ErrParse, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object: %w", ErrParse)
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read key: %w: %w", ErrParse, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key: %w", ErrParse)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, fmt.Errorf("read value of %q: %w: %w", key, ErrParse, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isNumberChar(c byte) bool {
	return isDigit(c) || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
