package safety

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"

	"golang.org/x/tools/go/ast/inspector"
)

type goFinding struct {
	pos    token.Pos
	rule   string
	reason string
}

func scanGo(source string) Result {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "strategy.go", source, parser.SkipObjectResolution)
	if err != nil {
		return reject(DialectGo, RuleParse, 0, "source does not parse: %v", err)
	}

	var found *goFinding
	note := func(f goFinding) {
		if found == nil || f.pos < found.pos {
			found = &f
		}
	}

	in := inspector.New([]*ast.File{file})
	filter := []ast.Node{
		(*ast.IndexExpr)(nil),
		(*ast.SliceExpr)(nil),
		(*ast.CallExpr)(nil),
	}
	in.Preorder(filter, func(n ast.Node) {
		switch n := n.(type) {
		case *ast.IndexExpr:
			if k, ok := forwardOffset(n.Index); ok {
				note(goFinding{n.Pos(), RuleForwardIndex,
					"index " + exprString(n.Index) + " reads " + strconv.FormatInt(k, 10) + " element(s) ahead"})
			}
		case *ast.SliceExpr:
			if k, ok := forwardOffset(n.Low); ok {
				note(goFinding{n.Pos(), RuleForwardSlice,
					"slice starts " + strconv.FormatInt(k, 10) + " element(s) ahead at " + exprString(n.Low)})
				return
			}
			if n.Low != nil && n.High == nil && !n.Slice3 {
				note(goFinding{n.Pos(), RuleOpenSlice,
					"slice " + exprString(n.X) + "[" + exprString(n.Low) + ":] has only a lower bound"})
			}
		case *ast.CallExpr:
			if isShift(n.Fun) && len(n.Args) > 0 && isNegative(n.Args[0]) {
				note(goFinding{n.Pos(), RuleNegativeShift,
					"Shift(" + exprString(n.Args[0]) + ") reads later values into the current position"})
			}
		}
	})

	if found == nil {
		return Result{OK: true, Dialect: DialectGo}
	}
	return reject(DialectGo, found.rule, fset.Position(found.pos).Line, "%s", found.reason)
}

// forwardOffset matches ident+k or k+ident with a positive integer literal k.
// Compound operands such as (i-n)+1 are left alone.
func forwardOffset(e ast.Expr) (int64, bool) {
	be, ok := unparen(e).(*ast.BinaryExpr)
	if !ok || be.Op != token.ADD {
		return 0, false
	}
	if isName(be.X) {
		if k, ok := positiveInt(be.Y); ok {
			return k, true
		}
	}
	if isName(be.Y) {
		if k, ok := positiveInt(be.X); ok {
			return k, true
		}
	}
	return 0, false
}

func isName(e ast.Expr) bool {
	switch e := unparen(e).(type) {
	case *ast.Ident:
		return true
	case *ast.SelectorExpr:
		return isName(e.X)
	}
	return false
}

func positiveInt(e ast.Expr) (int64, bool) {
	lit, ok := unparen(e).(*ast.BasicLit)
	if !ok || lit.Kind != token.INT {
		return 0, false
	}
	v, err := strconv.ParseInt(lit.Value, 0, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func isShift(fun ast.Expr) bool {
	switch f := fun.(type) {
	case *ast.Ident:
		return f.Name == "Shift"
	case *ast.SelectorExpr:
		return f.Sel.Name == "Shift"
	}
	return false
}

func isNegative(e ast.Expr) bool {
	u, ok := unparen(e).(*ast.UnaryExpr)
	return ok && u.Op == token.SUB
}

func unparen(e ast.Expr) ast.Expr {
	for {
		p, ok := e.(*ast.ParenExpr)
		if !ok {
			return e
		}
		e = p.X
	}
}

// exprString renders the small expressions that appear in reasons.
func exprString(e ast.Expr) string {
	switch e := e.(type) {
	case nil:
		return ""
	case *ast.Ident:
		return e.Name
	case *ast.BasicLit:
		return e.Value
	case *ast.SelectorExpr:
		return exprString(e.X) + "." + e.Sel.Name
	case *ast.ParenExpr:
		return "(" + exprString(e.X) + ")"
	case *ast.UnaryExpr:
		return e.Op.String() + exprString(e.X)
	case *ast.BinaryExpr:
		return exprString(e.X) + e.Op.String() + exprString(e.Y)
	case *ast.IndexExpr:
		return exprString(e.X) + "[" + exprString(e.Index) + "]"
	case *ast.CallExpr:
		return exprString(e.Fun) + "(...)"
	}
	return "expr"
}
