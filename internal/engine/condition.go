package engine

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// EvaluateCondition evaluates an applies_if expression against the profile and
// the answers given so far. The grammar is deliberately tiny: and / or,
// == / !=, "in [..]", parentheses, dotted-path lookups, and string / number /
// bool literals. Anything malformed fails closed to false; an empty expression
// or "always" is true.
func EvaluateCondition(expression string, profile map[string]any, answers map[string]AnswerValue) bool {
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" || trimmed == "always" {
		return true
	}

	tokens, err := tokenizeCondition(trimmed)
	if err != nil {
		return false
	}

	parser := &conditionParser{tokens: tokens, env: conditionEnv{profile: profile, answers: answers}}
	result, err := parser.parseOr()
	if err != nil || !parser.atEnd() {
		return false
	}
	return result
}

type conditionEnv struct {
	profile map[string]any
	answers map[string]AnswerValue
}

type condTokenKind int

const (
	tokIdent condTokenKind = iota
	tokString
	tokNumber
	tokOp       // == or !=
	tokKeyword  // and, or, in, true, false
	tokLParen   // (
	tokRParen   // )
	tokLBracket // [
	tokRBracket // ]
	tokComma    // ,
)

type condToken struct {
	kind condTokenKind
	text string
}

func tokenizeCondition(input string) ([]condToken, error) {
	var tokens []condToken
	i := 0
	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n':
			i++
		case ch == '(':
			tokens = append(tokens, condToken{tokLParen, "("})
			i++
		case ch == ')':
			tokens = append(tokens, condToken{tokRParen, ")"})
			i++
		case ch == '[':
			tokens = append(tokens, condToken{tokLBracket, "["})
			i++
		case ch == ']':
			tokens = append(tokens, condToken{tokRBracket, "]"})
			i++
		case ch == ',':
			tokens = append(tokens, condToken{tokComma, ","})
			i++
		case ch == '=':
			if i+1 >= len(input) || input[i+1] != '=' {
				return nil, fmt.Errorf("bare '=' at %d", i)
			}
			tokens = append(tokens, condToken{tokOp, "=="})
			i += 2
		case ch == '!':
			if i+1 >= len(input) || input[i+1] != '=' {
				return nil, fmt.Errorf("bare '!' at %d", i)
			}
			tokens = append(tokens, condToken{tokOp, "!="})
			i += 2
		case ch == '\'' || ch == '"':
			quote := ch
			j := i + 1
			for j < len(input) && input[j] != quote {
				j++
			}
			if j >= len(input) {
				return nil, fmt.Errorf("unterminated string at %d", i)
			}
			tokens = append(tokens, condToken{tokString, input[i+1 : j]})
			i = j + 1
		case unicode.IsDigit(rune(ch)) || ch == '-':
			j := i + 1
			for j < len(input) && (unicode.IsDigit(rune(input[j])) || input[j] == '.') {
				j++
			}
			tokens = append(tokens, condToken{tokNumber, input[i:j]})
			i = j
		case unicode.IsLetter(rune(ch)) || ch == '_':
			j := i
			for j < len(input) && (unicode.IsLetter(rune(input[j])) || unicode.IsDigit(rune(input[j])) || input[j] == '_' || input[j] == '.') {
				j++
			}
			word := input[i:j]
			switch word {
			case "and", "or", "in", "true", "false":
				tokens = append(tokens, condToken{tokKeyword, word})
			default:
				tokens = append(tokens, condToken{tokIdent, word})
			}
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at %d", ch, i)
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty expression")
	}
	return tokens, nil
}

type conditionParser struct {
	tokens []condToken
	pos    int
	env    conditionEnv
}

func (p *conditionParser) atEnd() bool { return p.pos >= len(p.tokens) }

func (p *conditionParser) peek() (condToken, bool) {
	if p.atEnd() {
		return condToken{}, false
	}
	return p.tokens[p.pos], true
}

func (p *conditionParser) next() (condToken, error) {
	if p.atEnd() {
		return condToken{}, fmt.Errorf("unexpected end of expression")
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, nil
}

func (p *conditionParser) parseOr() (bool, error) {
	left, err := p.parseAnd()
	if err != nil {
		return false, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokKeyword || tok.text != "or" {
			return left, nil
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return false, err
		}
		left = left || right
	}
}

func (p *conditionParser) parseAnd() (bool, error) {
	left, err := p.parseTerm()
	if err != nil {
		return false, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokKeyword || tok.text != "and" {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return false, err
		}
		left = left && right
	}
}

func (p *conditionParser) parseTerm() (bool, error) {
	tok, ok := p.peek()
	if ok && tok.kind == tokLParen {
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return false, err
		}
		closing, err := p.next()
		if err != nil || closing.kind != tokRParen {
			return false, fmt.Errorf("missing closing parenthesis")
		}
		return inner, nil
	}
	return p.parseComparison()
}

func (p *conditionParser) parseComparison() (bool, error) {
	left, err := p.parseOperand()
	if err != nil {
		return false, err
	}

	op, err := p.next()
	if err != nil {
		return false, err
	}

	if op.kind == tokKeyword && op.text == "in" {
		values, err := p.parseList()
		if err != nil {
			return false, err
		}
		for _, value := range values {
			if condValuesEqual(left, value) {
				return true, nil
			}
		}
		return false, nil
	}

	if op.kind != tokOp {
		return false, fmt.Errorf("expected comparison operator, got %q", op.text)
	}
	right, err := p.parseOperand()
	if err != nil {
		return false, err
	}
	equal := condValuesEqual(left, right)
	if op.text == "!=" {
		return !equal, nil
	}
	return equal, nil
}

func (p *conditionParser) parseList() ([]string, error) {
	open, err := p.next()
	if err != nil || open.kind != tokLBracket {
		return nil, fmt.Errorf("expected list")
	}
	var values []string
	for {
		value, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		values = append(values, value)
		sep, err := p.next()
		if err != nil {
			return nil, err
		}
		if sep.kind == tokRBracket {
			return values, nil
		}
		if sep.kind != tokComma {
			return nil, fmt.Errorf("malformed list")
		}
	}
}

// parseOperand resolves a token to its canonical string value. Identifiers are
// looked up through the environment; unknown paths resolve to "".
func (p *conditionParser) parseOperand() (string, error) {
	tok, err := p.next()
	if err != nil {
		return "", err
	}
	switch tok.kind {
	case tokString, tokNumber:
		return tok.text, nil
	case tokKeyword:
		if tok.text == "true" || tok.text == "false" {
			return tok.text, nil
		}
		return "", fmt.Errorf("keyword %q is not an operand", tok.text)
	case tokIdent:
		return p.env.lookup(tok.text), nil
	default:
		return "", fmt.Errorf("unexpected token %q", tok.text)
	}
}

func (env conditionEnv) lookup(path string) string {
	parts := strings.Split(path, ".")
	switch parts[0] {
	case "profile":
		return lookupMapPath(env.profile, parts[1:])
	case "answers":
		if len(parts) == 2 {
			return string(env.answers[parts[1]])
		}
		return ""
	default:
		if value := lookupMapPath(env.profile, parts); value != "" {
			return value
		}
		if len(parts) == 1 {
			return string(env.answers[parts[0]])
		}
		return ""
	}
}

func lookupMapPath(root map[string]any, parts []string) string {
	if root == nil || len(parts) == 0 {
		return ""
	}
	current := any(root)
	for _, part := range parts {
		asMap, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = asMap[part]
		if !ok {
			return ""
		}
	}
	return canonicalCondValue(current)
}

func canonicalCondValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case nil:
		return ""
	default:
		return ""
	}
}

// condValuesEqual compares canonical string forms; when both sides parse as
// numbers they compare numerically so "5" == "5.0".
func condValuesEqual(left, right string) bool {
	if left == right {
		return true
	}
	lf, lerr := strconv.ParseFloat(left, 64)
	rf, rerr := strconv.ParseFloat(right, 64)
	return lerr == nil && rerr == nil && lf == rf
}
