package core

import (
	"encoding/json"
	"fmt"
)

// ExprNode represents a node in a derived-field expression tree.
type ExprNode interface {
	exprNode()
}

// FieldRef references a model field as "model.field".
type FieldRef struct {
	Model string
	Field string
}

func (*FieldRef) exprNode() {}

// NumberLit is a numeric literal. The lexeme is kept verbatim so compilation
// never reformats user-entered literals.
type NumberLit struct {
	Value string
}

func (*NumberLit) exprNode() {}

// StringLit is a single-quoted string literal (stored unquoted).
type StringLit struct {
	Value string
}

func (*StringLit) exprNode() {}

// BinaryExpr is an infix operation over two sub-expressions.
type BinaryExpr struct {
	Op    string
	Left  ExprNode
	Right ExprNode
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr is a prefix operation, currently only negation.
type UnaryExpr struct {
	Op   string
	Expr ExprNode
}

func (*UnaryExpr) exprNode() {}

// ParenExpr preserves explicit grouping for faithful SQL rendering.
type ParenExpr struct {
	Expr ExprNode
}

func (*ParenExpr) exprNode() {}

// FuncCall is a function invocation such as round(x, 2) or coalesce(a, b).
type FuncCall struct {
	Name string
	Args []ExprNode
}

func (*FuncCall) exprNode() {}

// exprEnvelope is the wire form of an ExprNode. Each node carries a type tag
// so trees survive a JSON round trip across the execution transport.
type exprEnvelope struct {
	Type  string            `json:"type"`
	Model string            `json:"model,omitempty"`
	Field string            `json:"field,omitempty"`
	Value string            `json:"value,omitempty"`
	Op    string            `json:"op,omitempty"`
	Name  string            `json:"name,omitempty"`
	Left  json.RawMessage   `json:"left,omitempty"`
	Right json.RawMessage   `json:"right,omitempty"`
	Expr  json.RawMessage   `json:"expr,omitempty"`
	Args  []json.RawMessage `json:"args,omitempty"`
}

// MarshalExpr encodes an expression tree to JSON.
func MarshalExpr(n ExprNode) ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	switch node := n.(type) {
	case *FieldRef:
		return json.Marshal(exprEnvelope{Type: "field", Model: node.Model, Field: node.Field})
	case *NumberLit:
		return json.Marshal(exprEnvelope{Type: "number", Value: node.Value})
	case *StringLit:
		return json.Marshal(exprEnvelope{Type: "string", Value: node.Value})
	case *BinaryExpr:
		left, err := MarshalExpr(node.Left)
		if err != nil {
			return nil, err
		}
		right, err := MarshalExpr(node.Right)
		if err != nil {
			return nil, err
		}
		return json.Marshal(exprEnvelope{Type: "binary", Op: node.Op, Left: left, Right: right})
	case *UnaryExpr:
		expr, err := MarshalExpr(node.Expr)
		if err != nil {
			return nil, err
		}
		return json.Marshal(exprEnvelope{Type: "unary", Op: node.Op, Expr: expr})
	case *ParenExpr:
		expr, err := MarshalExpr(node.Expr)
		if err != nil {
			return nil, err
		}
		return json.Marshal(exprEnvelope{Type: "paren", Expr: expr})
	case *FuncCall:
		args := make([]json.RawMessage, len(node.Args))
		for i, a := range node.Args {
			raw, err := MarshalExpr(a)
			if err != nil {
				return nil, err
			}
			args[i] = raw
		}
		return json.Marshal(exprEnvelope{Type: "call", Name: node.Name, Args: args})
	default:
		return nil, fmt.Errorf("unsupported expression node: %T", n)
	}
}

// UnmarshalExpr decodes an expression tree from JSON.
func UnmarshalExpr(data []byte) (ExprNode, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var env exprEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Type {
	case "field":
		return &FieldRef{Model: env.Model, Field: env.Field}, nil
	case "number":
		return &NumberLit{Value: env.Value}, nil
	case "string":
		return &StringLit{Value: env.Value}, nil
	case "binary":
		left, err := UnmarshalExpr(env.Left)
		if err != nil {
			return nil, err
		}
		right, err := UnmarshalExpr(env.Right)
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: env.Op, Left: left, Right: right}, nil
	case "unary":
		expr, err := UnmarshalExpr(env.Expr)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: env.Op, Expr: expr}, nil
	case "paren":
		expr, err := UnmarshalExpr(env.Expr)
		if err != nil {
			return nil, err
		}
		return &ParenExpr{Expr: expr}, nil
	case "call":
		args := make([]ExprNode, len(env.Args))
		for i, raw := range env.Args {
			arg, err := UnmarshalExpr(raw)
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		return &FuncCall{Name: env.Name, Args: args}, nil
	default:
		return nil, fmt.Errorf("unknown expression node type %q", env.Type)
	}
}
