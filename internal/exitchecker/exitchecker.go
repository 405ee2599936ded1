// Package exitchecker запрещает прямой вызов os.Exit в функции main пакета main.
package exitchecker

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
)

var ExitCheckAnalyzer = &analysis.Analyzer{
	Name: "exitcheck",
	Doc:  "check call os.Exit in main()",
	Run:  run,
}

func run(pass *analysis.Pass) (interface{}, error) {

	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	for _, file := range pass.Files {
		for _, decl := range file.Decls {

			fnDecl, ok := decl.(*ast.FuncDecl)
			if !ok || fnDecl.Recv != nil || fnDecl.Name.Name != "main" || fnDecl.Body == nil {
				continue
			}

			ast.Inspect(fnDecl.Body, func(node ast.Node) bool {

				// Вызовы внутри замыканий выполняются не в main
				if _, ok := node.(*ast.FuncLit); ok {
					return false
				}

				callExpr, ok := node.(*ast.CallExpr)
				if !ok {
					return true
				}

				if isOsExit(pass, callExpr) {
					pass.Reportf(callExpr.Pos(), "calling os.Exit from main")
				}

				return true
			})
		}
	}

	return nil, nil
}

func isOsExit(pass *analysis.Pass, call *ast.CallExpr) bool {

	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Exit" {
		return false
	}

	fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
	if !ok || fn.Pkg() == nil {
		return false
	}

	return fn.Pkg().Path() == "os"
}
