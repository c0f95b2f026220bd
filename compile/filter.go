package compile

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// The embedded filter-expression sub-language accepted by the kql
// named parameter: field:value pairs, range comparisons, wildcards,
// quoted phrases and boolean combinators.
//
//	status:error AND NOT host:web-* AND bytes >= 100
//	(status:error OR status:timeout) AND response.time > 500

type filterToken struct {
	text string
	pos  int
}

// scanFilter splits a filter expression into tokens, respecting
// quoted phrases, parentheses and the :, >, >=, <, <= separators.
func scanFilter(input string) ([]filterToken, error) {
	var tokens []filterToken
	i := 0
	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t':
			i++
		case ch == '(' || ch == ')' || ch == ':':
			tokens = append(tokens, filterToken{text: string(ch), pos: i})
			i++
		case ch == '>' || ch == '<':
			if i+1 < len(input) && input[i+1] == '=' {
				tokens = append(tokens, filterToken{text: input[i : i+2], pos: i})
				i += 2
			} else {
				tokens = append(tokens, filterToken{text: string(ch), pos: i})
				i++
			}
		case ch == '"' || ch == '\'':
			quote := ch
			end := i + 1
			for end < len(input) && input[end] != quote {
				end++
			}
			if end >= len(input) {
				return nil, fmt.Errorf("unterminated quote in filter expression at position %d", i)
			}
			tokens = append(tokens, filterToken{text: "\x00" + input[i+1:end], pos: i})
			i = end + 1
		default:
			end := i
			for end < len(input) && !strings.ContainsAny(string(input[end]), " \t():><") {
				end++
			}
			tokens = append(tokens, filterToken{text: input[i:end], pos: i})
			i = end
		}
	}
	return tokens, nil
}

// filterParser is a recursive-descent parser for the filter
// sub-grammar, lowering directly to the store's boolean filter
// structure.
type filterParser struct {
	tokens []filterToken
	pos    int
}

// ParseFilter parses a filter expression and returns the store's
// native boolean filter document.
func ParseFilter(input string) (map[string]interface{}, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("empty filter expression")
	}
	tokens, err := scanFilter(input)
	if err != nil {
		return nil, err
	}
	p := &filterParser{tokens: tokens}
	filter, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("unexpected %q in filter expression", p.tokens[p.pos].text)
	}
	return filter, nil
}

func (p *filterParser) current() (filterToken, bool) {
	if p.pos >= len(p.tokens) {
		return filterToken{}, false
	}
	return p.tokens[p.pos], true
}

func (p *filterParser) parseOr() (map[string]interface{}, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	var should []interface{}
	for {
		tok, ok := p.current()
		if !ok || !strings.EqualFold(tok.text, "or") {
			break
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		if should == nil {
			should = []interface{}{left}
		}
		should = append(should, right)
	}
	if should == nil {
		return left, nil
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should":               should,
			"minimum_should_match": 1,
		},
	}, nil
}

func (p *filterParser) parseAnd() (map[string]interface{}, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	var filters []interface{}
	for {
		tok, ok := p.current()
		if !ok || !strings.EqualFold(tok.text, "and") {
			break
		}
		p.pos++
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		if filters == nil {
			filters = []interface{}{left}
		}
		filters = append(filters, right)
	}
	if filters == nil {
		return left, nil
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{"filter": filters},
	}, nil
}

func (p *filterParser) parseNot() (map[string]interface{}, error) {
	tok, ok := p.current()
	if ok && strings.EqualFold(tok.text, "not") {
		p.pos++
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"bool": map[string]interface{}{"must_not": []interface{}{inner}},
		}, nil
	}
	return p.parseClause()
}

// parseClause parses a parenthesized group, a field:value pair or a
// field range comparison.
func (p *filterParser) parseClause() (map[string]interface{}, error) {
	tok, ok := p.current()
	if !ok {
		return nil, fmt.Errorf("unexpected end of filter expression")
	}

	if tok.text == "(" {
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		closing, ok := p.current()
		if !ok || closing.text != ")" {
			return nil, fmt.Errorf("missing closing parenthesis in filter expression")
		}
		p.pos++
		return inner, nil
	}

	field := tok.text
	if strings.HasPrefix(field, "\x00") || field == ")" || field == ":" {
		return nil, fmt.Errorf("expected a field name in filter expression, got %q", strings.TrimPrefix(field, "\x00"))
	}
	p.pos++

	op, ok := p.current()
	if !ok {
		return nil, fmt.Errorf("expected ':' or a comparison after field %q", field)
	}
	p.pos++

	value, hasValue := p.current()
	if !hasValue {
		return nil, fmt.Errorf("missing value for field %q in filter expression", field)
	}
	p.pos++

	switch op.text {
	case ":":
		return lowerMatchClause(field, value.text), nil
	case ">", ">=", "<", "<=":
		num, err := cast.ToFloat64E(strings.TrimPrefix(value.text, "\x00"))
		if err != nil {
			return nil, fmt.Errorf("range comparison on %q requires a numeric value, got %q", field, value.text)
		}
		bound := map[string]string{">": "gt", ">=": "gte", "<": "lt", "<=": "lte"}[op.text]
		return map[string]interface{}{
			"range": map[string]interface{}{field: map[string]interface{}{bound: num}},
		}, nil
	default:
		return nil, fmt.Errorf("expected ':' or a comparison after field %q, got %q", field, op.text)
	}
}

// lowerMatchClause lowers field:value. Quoted values become phrase
// matches, values containing * become wildcards, everything else a
// term filter.
func lowerMatchClause(field, value string) map[string]interface{} {
	if strings.HasPrefix(value, "\x00") {
		return map[string]interface{}{
			"match_phrase": map[string]interface{}{field: strings.TrimPrefix(value, "\x00")},
		}
	}
	if strings.Contains(value, "*") {
		return map[string]interface{}{
			"wildcard": map[string]interface{}{field: value},
		}
	}
	if num, err := cast.ToFloat64E(value); err == nil {
		return map[string]interface{}{
			"term": map[string]interface{}{field: num},
		}
	}
	return map[string]interface{}{
		"term": map[string]interface{}{field: value},
	}
}
