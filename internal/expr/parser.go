package expr

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/reportql/pkg/core"
)

// Expression precedence levels, lowest binds loosest.
//
//	precComparison = 1  (=, !=, <, >, <=, >=)
//	precAdditive   = 2  (+, -)
//	precMultiply   = 3  (*, /, %)
//	precUnary      = 4  (-)
const (
	precNone       = 0
	precComparison = 1
	precAdditive   = 2
	precMultiply   = 3
	precUnary      = 4
)

// Result is the outcome of parsing a derived-field expression.
type Result struct {
	// AST is the parsed expression tree
	AST core.ExprNode
	// ReferencedModels is the sorted set of distinct model prefixes
	ReferencedModels []string
	// ReferencedFields maps model ID to the sorted set of referenced fields
	ReferencedFields map[string][]string
}

// Parser parses derived-field expressions with precedence climbing.
type Parser struct {
	lexer *Lexer
	token Token
	peek  Token
	err   *SyntaxError
}

// Parse tokenizes and parses an expression, returning the AST and the
// referenced model/field sets. It is pure: extraction depends only on the
// expression syntax, never on downstream join configuration.
func Parse(expression string) (*Result, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, syntaxErrorf(Position{}, "expression is empty")
	}

	p := &Parser{lexer: NewLexer(expression)}
	// Prime token and peek
	p.nextToken()
	p.nextToken()

	ast := p.parseExpression(precNone + 1)
	if p.err != nil {
		return nil, p.err
	}
	if p.token.Type != TOKEN_EOF {
		return nil, syntaxErrorf(p.token.Pos, "unexpected %q", p.token.Literal)
	}

	models, fields := collectRefs(ast)
	return &Result{AST: ast, ReferencedModels: models, ReferencedFields: fields}, nil
}

// nextToken advances the token window.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

// fail records the first syntax error; later errors are ignored.
func (p *Parser) fail(pos Position, format string, args ...any) {
	if p.err == nil {
		p.err = syntaxErrorf(pos, format, args...)
	}
}

// parseExpression implements Pratt parsing with the given minimum precedence.
func (p *Parser) parseExpression(minPrecedence int) core.ExprNode {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}

	for {
		prec := infixPrecedence(p.token.Type)
		if prec < minPrecedence {
			break
		}
		op := p.token.Literal
		p.nextToken()
		right := p.parseExpression(prec + 1)
		if right == nil {
			return nil
		}
		left = &core.BinaryExpr{Op: op, Left: left, Right: right}
	}

	return left
}

// parsePrefix parses unary minus and primary expressions.
func (p *Parser) parsePrefix() core.ExprNode {
	if p.token.Type == TOKEN_MINUS {
		p.nextToken()
		operand := p.parseExpression(precUnary)
		if operand == nil {
			return nil
		}
		return &core.UnaryExpr{Op: "-", Expr: operand}
	}
	return p.parsePrimary()
}

// parsePrimary parses literals, parenthesized groups, field references, and
// function calls.
func (p *Parser) parsePrimary() core.ExprNode {
	switch p.token.Type {
	case TOKEN_NUMBER:
		node := &core.NumberLit{Value: p.token.Literal}
		p.nextToken()
		return node

	case TOKEN_STRING:
		node := &core.StringLit{Value: p.token.Literal}
		p.nextToken()
		return node

	case TOKEN_LPAREN:
		open := p.token.Pos
		p.nextToken()
		inner := p.parseExpression(precNone + 1)
		if inner == nil {
			return nil
		}
		if p.token.Type != TOKEN_RPAREN {
			p.fail(open, "unbalanced parentheses")
			return nil
		}
		p.nextToken()
		return &core.ParenExpr{Expr: inner}

	case TOKEN_IDENT:
		return p.parseIdent()

	case TOKEN_EOF:
		p.fail(p.token.Pos, "unexpected end of expression")
		return nil

	default:
		p.fail(p.token.Pos, "unexpected %q", p.token.Literal)
		return nil
	}
}

// parseIdent parses a model.field reference or a function call. A bare
// identifier with neither a dot nor an argument list is a dangling operand.
func (p *Parser) parseIdent() core.ExprNode {
	name := p.token.Literal
	pos := p.token.Pos
	p.nextToken()

	switch p.token.Type {
	case TOKEN_DOT:
		p.nextToken()
		if p.token.Type != TOKEN_IDENT {
			p.fail(p.token.Pos, "expected field name after %q", name+".")
			return nil
		}
		field := p.token.Literal
		p.nextToken()
		return &core.FieldRef{Model: name, Field: field}

	case TOKEN_LPAREN:
		p.nextToken()
		var args []core.ExprNode
		if p.token.Type != TOKEN_RPAREN {
			for {
				arg := p.parseExpression(precNone + 1)
				if arg == nil {
					return nil
				}
				args = append(args, arg)
				if p.token.Type != TOKEN_COMMA {
					break
				}
				p.nextToken()
			}
		}
		if p.token.Type != TOKEN_RPAREN {
			p.fail(pos, "unbalanced parentheses in call to %s", name)
			return nil
		}
		p.nextToken()
		return &core.FuncCall{Name: strings.ToLower(name), Args: args}

	default:
		p.fail(pos, "dangling identifier %q: expected model.field reference", name)
		return nil
	}
}

// infixPrecedence returns the precedence of the token as an infix operator,
// or precNone when it is not one.
func infixPrecedence(t TokenType) int {
	switch t {
	case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_GT, TOKEN_LE, TOKEN_GE:
		return precComparison
	case TOKEN_PLUS, TOKEN_MINUS:
		return precAdditive
	case TOKEN_STAR, TOKEN_SLASH, TOKEN_PERCENT:
		return precMultiply
	default:
		return precNone
	}
}

// collectRefs walks the tree and gathers referenced models and per-model
// fields, both deduplicated and sorted for determinism.
func collectRefs(node core.ExprNode) ([]string, map[string][]string) {
	fieldSets := make(map[string]map[string]struct{})

	var walk func(n core.ExprNode)
	walk = func(n core.ExprNode) {
		switch v := n.(type) {
		case *core.FieldRef:
			if fieldSets[v.Model] == nil {
				fieldSets[v.Model] = make(map[string]struct{})
			}
			fieldSets[v.Model][v.Field] = struct{}{}
		case *core.BinaryExpr:
			walk(v.Left)
			walk(v.Right)
		case *core.UnaryExpr:
			walk(v.Expr)
		case *core.ParenExpr:
			walk(v.Expr)
		case *core.FuncCall:
			for _, arg := range v.Args {
				walk(arg)
			}
		}
	}
	walk(node)

	models := make([]string, 0, len(fieldSets))
	fields := make(map[string][]string, len(fieldSets))
	for model, set := range fieldSets {
		models = append(models, model)
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		fields[model] = ids
	}
	sort.Strings(models)

	return models, fields
}
