package extract

import (
	"github.com/tdewolff/parse/v2/js"
)

// node is one syntax tree position waiting to be classified.
// Exactly one of stmt and expr is set. Declarations can appear in both
// positions and are classified differently in each.
type node struct {
	stmt js.IStmt
	expr js.IExpr
}

// verdict is the classification of a single node: the raw string literal it
// contributes, if any, and the children that must be visited next, in
// source order.
type verdict struct {
	literal  []byte
	children []node
}

func (v *verdict) addStmt(s js.IStmt) {
	if s != nil {
		v.children = append(v.children, node{stmt: s})
	}
}

func (v *verdict) addExpr(e js.IExpr) {
	if e != nil {
		v.children = append(v.children, node{expr: e})
	}
}

func (v *verdict) addBlock(b *js.BlockStmt) {
	if b == nil {
		return
	}
	for _, s := range b.List {
		v.addStmt(s)
	}
}

func (v *verdict) addArgs(args []js.Arg) {
	for _, arg := range args {
		v.addExpr(arg.Value)
	}
}

func classify(n node) verdict {
	if n.stmt != nil {
		return classifyStmt(n.stmt)
	}
	return classifyExpr(n.expr)
}

// classifyStmt decides which parts of a statement or declaration are live.
func classifyStmt(s js.IStmt) verdict {
	var v verdict

	switch s := s.(type) {
	case *js.BlockStmt:
		v.addBlock(s)
	case *js.ExprStmt:
		v.addExpr(s.Value)
	case *js.DirectivePrologueStmt:
		v.literal = s.Value
	case *js.IfStmt:
		v.addExpr(s.Cond)
		v.addStmt(s.Body)
		v.addStmt(s.Else)
	case *js.WhileStmt:
		v.addExpr(s.Cond)
		v.addStmt(s.Body)
	case *js.DoWhileStmt:
		v.addStmt(s.Body)
		v.addExpr(s.Cond)
	case *js.ForStmt:
		// The initializer is skipped.
		v.addExpr(s.Cond)
		v.addExpr(s.Post)
		v.addBlock(s.Body)
	case *js.ReturnStmt:
		v.addExpr(s.Value)
	case *js.VarDecl:
		if s.TokenType == js.VarToken {
			break
		}
		for _, elem := range s.List {
			v.addExpr(elem.Default)
		}
	case *js.FuncDecl:
		v.addBlock(&s.Body)
	case *js.ClassDecl:
		v.addExpr(s.Extends)
	case *js.ExportStmt:
		switch decl := s.Decl.(type) {
		case *js.VarDecl:
			v.addStmt(decl)
		case *js.FuncDecl:
			v.addStmt(decl)
		case *js.ClassDecl:
			v.addStmt(decl)
		default:
			v.addExpr(s.Decl)
		}
	case *js.ForInStmt, *js.ForOfStmt, *js.SwitchStmt, *js.ThrowStmt, *js.TryStmt,
		*js.WithStmt, *js.LabelledStmt, *js.BranchStmt, *js.ImportStmt,
		*js.DebuggerStmt, *js.EmptyStmt, *js.Comment:
		// opaque
	}
	return v
}

// classifyExpr decides which parts of an expression are live.
func classifyExpr(e js.IExpr) verdict {
	var v verdict

	switch e := e.(type) {
	case *js.LiteralExpr:
		if e.TokenType == js.StringToken {
			v.literal = e.Data
		}
	case *js.CallExpr:
		// Covers super(...), import(...) and optional calls. The callee of
		// the first two is a keyword literal and contributes nothing.
		v.addExpr(e.X)
		v.addArgs(e.Args.List)
	case *js.NewExpr:
		v.addExpr(e.X)
		if e.Args != nil {
			v.addArgs(e.Args.List)
		}
	case *js.GroupExpr:
		v.addExpr(e.X)
	case *js.UnaryExpr:
		if isUpdate(e.Op) {
			break
		}
		v.addExpr(e.X)
	case *js.YieldExpr:
		v.addExpr(e.X)
	case *js.CondExpr:
		v.addExpr(e.Cond)
		v.addExpr(e.X)
		v.addExpr(e.Y)
	case *js.BinaryExpr:
		if !isAssignment(e.Op) && !isPrivateIn(e) {
			v.addExpr(e.X)
		}
		v.addExpr(e.Y)
	case *js.CommaExpr:
		for _, item := range e.List {
			v.addExpr(item)
		}
	case *js.TemplateExpr:
		// Untagged templates are opaque; tagged ones expose the tag and the
		// substitutions, never the static chunks.
		if e.Tag == nil {
			break
		}
		v.addExpr(e.Tag)
		for _, part := range e.List {
			v.addExpr(part.Expr)
		}
	case *js.FuncDecl:
		v.addBlock(&e.Body)
	case *js.ArrowFunc:
		v.addBlock(&e.Body)
	case *js.DotExpr, *js.IndexExpr:
		// Property access is opaque unless the chain holds an optional link,
		// whose target is live.
		v.addExpr(optionalTarget(e))
	case *js.Var, *js.ArrayExpr, *js.ObjectExpr,
		*js.NewTargetExpr, *js.ImportMetaExpr, *js.ClassDecl, *js.VarDecl, *js.MethodDecl:
		// opaque
	}
	return v
}

// optionalTarget returns the target of the first optional link found by
// following the member chain that ends at e, or nil when the chain has none.
// Parentheses end a chain.
func optionalTarget(e js.IExpr) js.IExpr {
	for {
		switch link := e.(type) {
		case *js.DotExpr:
			if link.Optional {
				return link.X
			}
			e = link.X
		case *js.IndexExpr:
			if link.Optional {
				return link.X
			}
			e = link.X
		case *js.CallExpr:
			if link.Optional {
				return link.X
			}
			e = link.X
		case *js.TemplateExpr:
			if link.Tag == nil {
				return nil
			}
			if link.Optional {
				return link.Tag
			}
			e = link.Tag
		default:
			return nil
		}
	}
}

func isUpdate(op js.TokenType) bool {
	switch op {
	case js.PreIncrToken, js.PreDecrToken, js.PostIncrToken, js.PostDecrToken:
		return true
	default:
		return false
	}
}

func isAssignment(op js.TokenType) bool {
	switch op {
	case js.EqToken, js.MulEqToken, js.DivEqToken, js.ModEqToken, js.ExpEqToken,
		js.AddEqToken, js.SubEqToken, js.LtLtEqToken, js.GtGtEqToken, js.GtGtGtEqToken,
		js.BitAndEqToken, js.BitXorEqToken, js.BitOrEqToken,
		js.AndEqToken, js.OrEqToken, js.NullishEqToken:
		return true
	default:
		return false
	}
}

// isPrivateIn reports a `#field in obj` brand check.
func isPrivateIn(e *js.BinaryExpr) bool {
	if e.Op != js.InToken {
		return false
	}
	v, ok := e.X.(*js.Var)
	return ok && len(v.Data) > 0 && v.Data[0] == '#'
}
