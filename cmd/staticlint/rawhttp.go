package main

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// RawHTTPAnalyzer запрещает вызовы http.Get, http.Post, http.Head, http.PostForm
// и обращения к http.DefaultClient за пределами пакета internal/client.
// Такие запросы идут мимо таймаутов, заголовков и разбора ошибок клиента.
var RawHTTPAnalyzer = &analysis.Analyzer{
	Name:     "rawhttp",
	Doc:      "reports package-level net/http request helpers used outside internal/client",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      runRawHTTP,
}

var forbidden = map[string]bool{
	"Get":           true,
	"Post":          true,
	"Head":          true,
	"PostForm":      true,
	"DefaultClient": true,
}

// allowedPackages могут обращаться к net/http напрямую.
var allowedPackages = []string{
	"/internal/client",
	"/internal/client/clienttest",
}

func runRawHTTP(pass *analysis.Pass) (interface{}, error) {
	for _, suffix := range allowedPackages {
		if strings.HasSuffix(pass.Pkg.Path(), suffix) {
			return nil, nil
		}
	}

	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	insp.Preorder([]ast.Node{(*ast.SelectorExpr)(nil)}, func(n ast.Node) {
		sel := n.(*ast.SelectorExpr)

		// тесты вольны ходить в httptest-серверы как угодно
		if strings.HasSuffix(pass.Fset.File(sel.Pos()).Name(), "_test.go") {
			return
		}

		obj := pass.TypesInfo.Uses[sel.Sel]
		if obj == nil || obj.Pkg() == nil || obj.Pkg().Path() != "net/http" {
			return
		}
		if !forbidden[obj.Name()] {
			return
		}
		switch obj.(type) {
		case *types.Func, *types.Var:
			pass.Reportf(sel.Pos(), "use internal/client instead of http.%s", obj.Name())
		}
	})

	return nil, nil
}
