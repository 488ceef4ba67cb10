package interpreter

import (
	"github.com/ormasoftchile/dialogos/pkg/ast"
	"github.com/ormasoftchile/dialogos/pkg/session"
)

// eval evaluates expr against ctx's variables, returning a typeErr when
// an operator's operand types don't satisfy its contract.
func (in *Interpreter) eval(ctx *session.Context, expr ast.Expression) (any, error) {
	switch expr.Kind {
	case ast.ExprString:
		return expr.Str, nil

	case ast.ExprNumber:
		return expr.Num, nil

	case ast.ExprVariable:
		v, ok := ctx.Variables[expr.Name]
		if !ok {
			return "", nil
		}
		return v, nil

	case ast.ExprUnary:
		return in.evalUnary(ctx, expr)

	case ast.ExprBinary:
		return in.evalBinary(ctx, expr)

	case ast.ExprCall:
		return in.evalCall(ctx, expr)
	}
	return "", nil
}

func (in *Interpreter) evalUnary(ctx *session.Context, expr ast.Expression) (any, error) {
	v, err := in.eval(ctx, *expr.Operand)
	if err != nil {
		return nil, err
	}
	switch expr.UnOp {
	case ast.OpNeg:
		n, ok := isNumeric(v)
		if !ok {
			return nil, typeErr("unary - requires a numeric operand")
		}
		return -n, nil
	case ast.OpNot:
		return !truthy(v), nil
	}
	return "", nil
}

func (in *Interpreter) evalBinary(ctx *session.Context, expr ast.Expression) (any, error) {
	// and/or short-circuit: the right operand is only evaluated when needed.
	if expr.BinOp == ast.OpAnd || expr.BinOp == ast.OpOr {
		left, err := in.eval(ctx, *expr.Left)
		if err != nil {
			return nil, err
		}
		leftTrue := truthy(left)
		if expr.BinOp == ast.OpAnd && !leftTrue {
			return false, nil
		}
		if expr.BinOp == ast.OpOr && leftTrue {
			return true, nil
		}
		right, err := in.eval(ctx, *expr.Right)
		if err != nil {
			return nil, err
		}
		return truthy(right), nil
	}

	left, err := in.eval(ctx, *expr.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.eval(ctx, *expr.Right)
	if err != nil {
		return nil, err
	}

	switch expr.BinOp {
	case ast.OpAdd:
		_, leftStr := isString(left)
		_, rightStr := isString(right)
		if leftStr || rightStr {
			return stringify(left) + stringify(right), nil
		}
		ln, lok := isNumeric(left)
		rn, rok := isNumeric(right)
		if !lok || !rok {
			return nil, typeErr("+ requires numeric or string operands")
		}
		return ln + rn, nil

	case ast.OpSub:
		return numericOp(left, right, func(a, b float64) float64 { return a - b })
	case ast.OpMul:
		return numericOp(left, right, func(a, b float64) float64 { return a * b })
	case ast.OpDiv:
		ln, lok := isNumeric(left)
		rn, rok := isNumeric(right)
		if !lok || !rok {
			return nil, typeErr("/ requires numeric operands")
		}
		if rn == 0 {
			return float64(0), nil
		}
		return ln / rn, nil

	case ast.OpGt:
		return numericCompare(left, right, func(a, b float64) bool { return a > b })
	case ast.OpLt:
		return numericCompare(left, right, func(a, b float64) bool { return a < b })
	case ast.OpGe:
		return numericCompare(left, right, func(a, b float64) bool { return a >= b })
	case ast.OpLe:
		return numericCompare(left, right, func(a, b float64) bool { return a <= b })

	case ast.OpEq:
		return valuesEqual(left, right), nil
	case ast.OpNeq:
		return !valuesEqual(left, right), nil
	}
	return "", nil
}

func numericOp(left, right any, f func(a, b float64) float64) (any, error) {
	ln, lok := isNumeric(left)
	rn, rok := isNumeric(right)
	if !lok || !rok {
		return nil, typeErr("operator requires numeric operands")
	}
	return f(ln, rn), nil
}

func numericCompare(left, right any, f func(a, b float64) bool) (any, error) {
	ln, lok := isNumeric(left)
	rn, rok := isNumeric(right)
	if !lok || !rok {
		return nil, typeErr("comparison requires numeric operands")
	}
	return f(ln, rn), nil
}

func (in *Interpreter) evalCall(ctx *session.Context, expr ast.Expression) (any, error) {
	args := make([]any, len(expr.FuncArgs))
	for i, a := range expr.FuncArgs {
		v, err := in.eval(ctx, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	var arg0 any
	if len(args) > 0 {
		arg0 = args[0]
	}

	switch expr.FuncName {
	case "len":
		return builtinLen(arg0), nil
	case "str":
		return stringify(arg0), nil
	case "int":
		return builtinInt(arg0), nil
	case "float":
		return builtinFloat(arg0), nil
	default:
		// Unknown function name, including a bare identifier that the
		// parser always treats as a zero-arg call: no error, per spec.
		return "", nil
	}
}
