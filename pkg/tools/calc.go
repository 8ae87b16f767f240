package tools

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"strconv"
	"strings"
)

// ErrDivisionByZero is returned by Evaluate for x/0.
var ErrDivisionByZero = errors.New("division by zero")

var spokenOperators = strings.NewReplacer(
	"×", "*",
	"÷", "/",
	"−", "-",
	" por ", " * ",
	" entre ", " / ",
	" más ", " + ",
	" menos ", " - ",
)

// Evaluate computes an arithmetic expression with + - * / and parentheses.
// Spanish operator words ("por", "entre", "más", "menos") are accepted.
func Evaluate(expr string) (float64, error) {
	normalized := spokenOperators.Replace(" " + strings.ToLower(expr) + " ")
	node, err := parser.ParseExpr(strings.TrimSpace(normalized))
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", expr, err)
	}
	v, err := eval(node)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("result out of range")
	}
	return v, nil
}

func eval(node ast.Expr) (float64, error) {
	switch n := node.(type) {
	case *ast.BasicLit:
		if n.Kind != token.INT && n.Kind != token.FLOAT {
			return 0, fmt.Errorf("unsupported literal %s", n.Value)
		}
		return strconv.ParseFloat(n.Value, 64)
	case *ast.ParenExpr:
		return eval(n.X)
	case *ast.UnaryExpr:
		x, err := eval(n.X)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.SUB:
			return -x, nil
		case token.ADD:
			return x, nil
		}
		return 0, fmt.Errorf("unsupported operator %s", n.Op)
	case *ast.BinaryExpr:
		x, err := eval(n.X)
		if err != nil {
			return 0, err
		}
		y, err := eval(n.Y)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.ADD:
			return x + y, nil
		case token.SUB:
			return x - y, nil
		case token.MUL:
			return x * y, nil
		case token.QUO:
			if y == 0 {
				return 0, ErrDivisionByZero
			}
			return x / y, nil
		}
		return 0, fmt.Errorf("unsupported operator %s", n.Op)
	default:
		return 0, fmt.Errorf("unsupported expression %T", node)
	}
}

// FormatNumber renders v rounded to 10 decimals without trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e10)/1e10, 'f', -1, 64)
}
