// Package search implements the catalog query language: bare terms,
// field:value substring and field=value exact matches, quoted phrases,
// * and ? wildcards, [a TO b] ranges, AND/OR/NOT and parentheses.
package search

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mscwg/catalog/internal/errors"
)

// MaxQueryLen caps accepted query strings.
const MaxQueryLen = 256

// Fields supplies the searchable values of one record. Values("") returns
// the values of every field.
type Fields interface {
	Values(field string) []string
}

// Query is a parsed search expression.
type Query struct {
	root node
}

// Expander rewrites one fielded term into an OR of exact values on
// another field. Returning ok false leaves the term as written; an
// empty value list matches nothing.
type Expander func(field, value string) (newField string, values []string, ok bool)

// Parse compiles a query string. It fails with CodeQueryTooLong or
// CodeQueryMalformed.
func Parse(input string) (*Query, error) {
	return ParseWith(input, nil)
}

// ParseWith compiles a query string, passing fielded terms through
// expand before matching.
func ParseWith(input string, expand Expander) (*Query, error) {
	if len(input) > MaxQueryLen {
		return nil, errors.New(errors.CodeQueryTooLong,
			fmt.Sprintf("query exceeds %d characters", MaxQueryLen))
	}
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, expand: expand}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, malformed("unexpected %q", p.peek().text)
	}
	if root == nil {
		return nil, malformed("empty query")
	}
	return &Query{root: root}, nil
}

// Match reports whether a record's fields satisfy the query.
func (q *Query) Match(fields Fields) bool {
	return q.root.match(fields)
}

func malformed(format string, args ...any) error {
	return errors.New(errors.CodeQueryMalformed, fmt.Sprintf(format, args...))
}

type node interface {
	match(fields Fields) bool
}

type andNode struct{ children []node }

func (n andNode) match(fields Fields) bool {
	for _, c := range n.children {
		if !c.match(fields) {
			return false
		}
	}
	return true
}

type orNode struct{ children []node }

func (n orNode) match(fields Fields) bool {
	for _, c := range n.children {
		if c.match(fields) {
			return true
		}
	}
	return false
}

type notNode struct{ child node }

func (n notNode) match(fields Fields) bool {
	return !n.child.match(fields)
}

// termNode matches one field against a value, a wildcard pattern or an
// inclusive range.
type termNode struct {
	field   string
	exact   bool
	value   string
	pattern *regexp.Regexp
	lo, hi  string
	isRange bool
}

func (n termNode) match(fields Fields) bool {
	for _, v := range fields.Values(n.field) {
		if n.matchValue(v) {
			return true
		}
	}
	return false
}

func (n termNode) matchValue(v string) bool {
	folded := strings.ToLower(v)
	switch {
	case n.isRange:
		return folded >= n.lo && folded <= n.hi
	case n.pattern != nil:
		return n.pattern.MatchString(folded)
	case n.exact:
		return folded == n.value
	default:
		return strings.Contains(folded, n.value)
	}
}

// expandedTerm matches any of the given values exactly.
func expandedTerm(field string, values []string) node {
	children := make([]node, 0, len(values))
	for _, v := range values {
		children = append(children, termNode{field: field, exact: true, value: strings.ToLower(v)})
	}
	return orNode{children: children}
}

func newTerm(field string, exact bool, value string) (node, error) {
	value = strings.ToLower(value)
	if lo, hi, ok := parseRange(value); ok {
		return termNode{field: field, isRange: true, lo: unescape(lo), hi: unescape(hi)}, nil
	}
	if hasWildcard(value) {
		pattern, err := wildcardPattern(value, exact)
		if err != nil {
			return nil, err
		}
		return termNode{field: field, pattern: pattern}, nil
	}
	return termNode{field: field, exact: exact, value: unescape(value)}, nil
}

// hasWildcard reports whether the term holds an unescaped * or ?.
func hasWildcard(value string) bool {
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '\\':
			i++
		case '*', '?':
			return true
		}
	}
	return false
}

func unescape(value string) string {
	if !strings.ContainsRune(value, '\\') {
		return value
	}
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		if value[i] == '\\' && i+1 < len(value) {
			i++
		}
		b.WriteByte(value[i])
	}
	return b.String()
}

func parseRange(value string) (lo, hi string, ok bool) {
	if !strings.HasPrefix(value, "[") || !strings.HasSuffix(value, "]") {
		return "", "", false
	}
	parts := strings.SplitN(value[1:len(value)-1], " to ", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// wildcardPattern compiles a term with * and ? into a regexp. Exact terms
// anchor at both ends; substring terms float.
func wildcardPattern(value string, exact bool) (*regexp.Regexp, error) {
	var b strings.Builder
	if exact {
		b.WriteString("^")
	}
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '\\':
			if i+1 < len(value) {
				i++
				b.WriteString(regexp.QuoteMeta(string(value[i])))
			}
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(value[i])))
		}
	}
	if exact {
		b.WriteString("$")
	}
	return regexp.Compile(b.String())
}

type tokenKind int

const (
	tokTerm tokenKind = iota
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type token struct {
	kind  tokenKind
	field string
	exact bool
	text  string
}

func lex(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")"})
			i++
		default:
			tok, next, err := lexWord(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		}
	}
	return tokens, nil
}

// lexWord reads one term starting at i: an optional field prefix ending in
// : or =, then a quoted phrase, bracketed range or bare word. Backslash
// escapes the next character.
func lexWord(input string, i int) (token, int, error) {
	var b strings.Builder
	field := ""
	exact := false
	inQuote := false
	inRange := false
	for i < len(input) {
		c := input[i]
		switch {
		case c == '\\':
			if i+1 >= len(input) {
				return token{}, 0, malformed("trailing backslash")
			}
			b.WriteByte('\\')
			b.WriteByte(input[i+1])
			i += 2
		case c == '"':
			inQuote = !inQuote
			i++
		case inQuote:
			b.WriteByte(c)
			i++
		case c == '[' && b.Len() == 0:
			inRange = true
			b.WriteByte(c)
			i++
		case c == ']' && inRange:
			inRange = false
			b.WriteByte(c)
			i++
		case (c == ':' || c == '=') && field == "" && b.Len() > 0:
			field = b.String()
			exact = c == '='
			b.Reset()
			i++
		case c == ' ' || c == '\t' || c == '\n':
			if inRange {
				b.WriteByte(c)
				i++
				continue
			}
			goto done
		case c == '(' || c == ')':
			goto done
		default:
			b.WriteByte(c)
			i++
		}
	}
done:
	if inQuote {
		return token{}, 0, malformed("unbalanced quote")
	}
	if inRange {
		return token{}, 0, malformed("unterminated range")
	}
	word := b.String()
	if field == "" {
		switch word {
		case "AND":
			return token{kind: tokAnd, text: word}, i, nil
		case "OR":
			return token{kind: tokOr, text: word}, i, nil
		case "NOT":
			return token{kind: tokNot, text: word}, i, nil
		}
	}
	if word == "" {
		return token{}, 0, malformed("missing search term")
	}
	return token{kind: tokTerm, field: field, exact: exact, text: word}, i, nil
}

type parser struct {
	tokens []token
	pos    int
	expand Expander
}

func (p *parser) done() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []node{left}
	for !p.done() && p.peek().kind == tokOr {
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return orNode{children: children}, nil
}

// parseAnd handles both explicit AND and adjacency, which means AND.
func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	children := []node{left}
	for !p.done() {
		switch p.peek().kind {
		case tokAnd:
			p.pos++
		case tokOr, tokRParen:
			if len(children) == 1 {
				return left, nil
			}
			return andNode{children: children}, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return andNode{children: children}, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.done() {
		return nil, malformed("unexpected end of query")
	}
	tok := p.peek()
	switch tok.kind {
	case tokNot:
		p.pos++
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{child: child}, nil
	case tokLParen:
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.done() || p.peek().kind != tokRParen {
			return nil, malformed("unbalanced parenthesis")
		}
		p.pos++
		return inner, nil
	case tokTerm:
		p.pos++
		if p.expand != nil && tok.field != "" {
			if field, values, ok := p.expand(tok.field, unescape(tok.text)); ok {
				return expandedTerm(field, values), nil
			}
		}
		return newTerm(tok.field, tok.exact, tok.text)
	}
	return nil, malformed("unexpected %q", tok.text)
}
