package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	calculatorMaxExpressionLength = 500
	calculatorWallClockCap        = 5 * time.Second
)

// calculatorBlocklist names identifiers that would reach outside pure
// arithmetic/symbolic evaluation if allowed through; no ecosystem
// expression-evaluation library appears anywhere in the corpus, so this
// restricted evaluator is built on go/parser (parsing only, never
// go/types or reflection-based calls) plus math — there is no code
// execution path to escape, by construction of the AST walker below.
var calculatorBlocklist = []string{"import", "exec", "eval", "open", "__", "file"}

var calculatorFunctions = map[string]func(float64) float64{
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
	"sqrt": math.Sqrt,
	"abs":  math.Abs,
	"log":  math.Log,
	"log2": math.Log2,
	"exp":  math.Exp,
}

var calculatorConstants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

type calculatorArgs struct {
	Expression string `json:"expression" jsonschema:"required,description=arithmetic or symbolic expression, max 500 characters"`
}

// NewPythonCalculator builds python_calculator: a closed numeric and
// symbolic evaluator with no code execution path. The name matches the
// tool the model is taught to call; the implementation is a plain Go
// arithmetic evaluator, not an embedded interpreter.
func NewPythonCalculator() ToolSpec {
	return ToolSpec{
		Name:        "python_calculator",
		Description: "Evaluate an arithmetic or symbolic expression.",
		InputSchema: schemaOf(calculatorArgs{}),
		Handler: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args calculatorArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", &ToolError{Tool: "python_calculator", Reason: "decode arguments", Err: err}
			}
			if len(args.Expression) > calculatorMaxExpressionLength {
				return "", &ToolError{Tool: "python_calculator", Reason: "expression exceeds 500 characters"}
			}
			if err := checkBlocklist(args.Expression); err != nil {
				return "", &ToolError{Tool: "python_calculator", Reason: "illegal expression", Err: err}
			}

			type outcome struct {
				val float64
				err error
			}
			done := make(chan outcome, 1)
			go func() {
				v, err := evaluateExpression(args.Expression)
				done <- outcome{v, err}
			}()

			select {
			case o := <-done:
				if o.err != nil {
					return "", &ToolError{Tool: "python_calculator", Reason: "evaluation failed", Err: o.err}
				}
				return strconv.FormatFloat(o.val, 'g', -1, 64), nil
			case <-time.After(calculatorWallClockCap):
				return "", &ToolError{Tool: "python_calculator", Reason: "evaluation exceeded 5s wall-clock cap"}
			}
		},
	}
}

func checkBlocklist(expr string) error {
	lower := strings.ToLower(expr)
	for _, banned := range calculatorBlocklist {
		if strings.Contains(lower, banned) {
			return fmt.Errorf("illegal identifier %q", banned)
		}
	}
	return nil
}

// evaluateExpression parses expr as a Go expression and walks the
// resulting AST, evaluating only numeric literals, the binary operators
// + - * / %, unary +/-, parenthesized groups, the whitelisted
// constants, and single-argument calls to the whitelisted functions.
// Any other node (identifiers not in the whitelist, calls to anything
// else, assignment, indexing) is rejected before any evaluation
// happens.
func evaluateExpression(expr string) (float64, error) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return 0, fmt.Errorf("parsing expression: %w", err)
	}
	return evalNode(node)
}

func evalNode(n ast.Expr) (float64, error) {
	switch v := n.(type) {
	case *ast.BasicLit:
		if v.Kind != token.INT && v.Kind != token.FLOAT {
			return 0, fmt.Errorf("unsupported literal kind %v", v.Kind)
		}
		f, err := strconv.ParseFloat(v.Value, 64)
		if err != nil {
			return 0, err
		}
		return f, nil

	case *ast.Ident:
		if val, ok := calculatorConstants[strings.ToLower(v.Name)]; ok {
			return val, nil
		}
		return 0, fmt.Errorf("unknown identifier %q", v.Name)

	case *ast.ParenExpr:
		return evalNode(v.X)

	case *ast.UnaryExpr:
		x, err := evalNode(v.X)
		if err != nil {
			return 0, err
		}
		switch v.Op {
		case token.ADD:
			return x, nil
		case token.SUB:
			return -x, nil
		default:
			return 0, fmt.Errorf("unsupported unary operator %v", v.Op)
		}

	case *ast.BinaryExpr:
		x, err := evalNode(v.X)
		if err != nil {
			return 0, err
		}
		y, err := evalNode(v.Y)
		if err != nil {
			return 0, err
		}
		switch v.Op {
		case token.ADD:
			return x + y, nil
		case token.SUB:
			return x - y, nil
		case token.MUL:
			return x * y, nil
		case token.QUO:
			if y == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return x / y, nil
		case token.REM:
			return math.Mod(x, y), nil
		default:
			return 0, fmt.Errorf("unsupported binary operator %v", v.Op)
		}

	case *ast.CallExpr:
		ident, ok := v.Fun.(*ast.Ident)
		if !ok {
			return 0, fmt.Errorf("unsupported call target")
		}
		fn, ok := calculatorFunctions[strings.ToLower(ident.Name)]
		if !ok {
			return 0, fmt.Errorf("unknown function %q", ident.Name)
		}
		if len(v.Args) != 1 {
			return 0, fmt.Errorf("%s takes exactly one argument", ident.Name)
		}
		arg, err := evalNode(v.Args[0])
		if err != nil {
			return 0, err
		}
		return fn(arg), nil

	default:
		return 0, fmt.Errorf("unsupported expression")
	}
}
