package engine

import (
	"fmt"

	"github.com/cockroachdb/apd"
)

// Built-in operations are matched by head symbol and short-circuit rule
// lookup: once a head is claimed, a wrong operand kind or argument count is
// an Error term, not a fall-through to rules. Arithmetic is computed through
// apd so that results outside the Int range surface as Error terms instead
// of silently wrapping.

var arithCtx = apd.BaseContext.WithPrecision(40)

// TryBuiltin dispatches a candidate application to the built-in table.
// ok=false means no built-in claims the head and rule lookup should proceed.
// A returned Error term is an ordinary result value.
func TryBuiltin(head string, args []Term) (Term, bool) {
	switch head {
	case "+", "-", "*", "/", "%":
		a, b, err := intOperands(head, args)
		if err != nil {
			return err, true
		}
		return evalArithmetic(head, a, b), true
	case "<", "<=", ">", ">=":
		a, b, err := intOperands(head, args)
		if err != nil {
			return err, true
		}
		return evalComparison(head, a, b), true
	case "==", "!=":
		if len(args) != 2 {
			return arityError(head, 2, args), true
		}
		eq := Equal(args[0], args[1])
		if head == "!=" {
			eq = !eq
		}
		return Bool(eq), true
	case "and", "or":
		a, b, err := boolOperands(head, args)
		if err != nil {
			return err, true
		}
		if head == "and" {
			return Bool(a && b), true
		}
		return Bool(a || b), true
	case "not":
		if len(args) != 1 {
			return arityError(head, 1, args), true
		}
		b, ok := args[0].(Bool)
		if !ok {
			return badType(args[0]), true
		}
		return Bool(!b), true
	default:
		return nil, false
	}
}

func arityError(head string, want int, args []Term) Term {
	return NewError(
		fmt.Sprintf("%s requires exactly %d arguments, got %d", head, want, len(args)),
		Nil{},
	)
}

func badType(offender Term) Term {
	return Error{Message: offender.String(), Payload: Atom("BadType")}
}

func intOperands(head string, args []Term) (Int, Int, Term) {
	if len(args) != 2 {
		return 0, 0, arityError(head, 2, args)
	}
	a, ok := args[0].(Int)
	if !ok {
		return 0, 0, badType(args[0])
	}
	b, ok := args[1].(Int)
	if !ok {
		return 0, 0, badType(args[1])
	}
	return a, b, nil
}

func boolOperands(head string, args []Term) (Bool, Bool, Term) {
	if len(args) != 2 {
		return false, false, arityError(head, 2, args)
	}
	a, ok := args[0].(Bool)
	if !ok {
		return false, false, badType(args[0])
	}
	b, ok := args[1].(Bool)
	if !ok {
		return false, false, badType(args[1])
	}
	return a, b, nil
}

func evalArithmetic(op string, a, b Int) Term {
	x, y := apd.New(int64(a), 0), apd.New(int64(b), 0)
	var z apd.Decimal
	var err error
	switch op {
	case "+":
		_, err = arithCtx.Add(&z, x, y)
	case "-":
		_, err = arithCtx.Sub(&z, x, y)
	case "*":
		_, err = arithCtx.Mul(&z, x, y)
	case "/":
		if b == 0 {
			return NewError("division by zero", List{Atom(op), a, b})
		}
		_, err = arithCtx.QuoInteger(&z, x, y)
	case "%":
		if b == 0 {
			return NewError("division by zero", List{Atom(op), a, b})
		}
		_, err = arithCtx.Rem(&z, x, y)
	}
	if err != nil {
		return NewError(err.Error(), List{Atom(op), a, b})
	}
	n, err := z.Int64()
	if err != nil {
		return NewError("integer overflow", List{Atom(op), a, b})
	}
	return Int(n)
}

func evalComparison(op string, a, b Int) Term {
	switch op {
	case "<":
		return Bool(a < b)
	case "<=":
		return Bool(a <= b)
	case ">":
		return Bool(a > b)
	default:
		return Bool(a >= b)
	}
}
