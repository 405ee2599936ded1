// Package main собирает статический анализатор проекта.
//
// В анализатор входят:
// printf, shadow, structtag, unmarshal, bools, errorsas, httpresponse, nilfunc, unreachable
// из golang.org/x/tools и exitcheck (запрет прямого вызова os.Exit в функции main).
//
// Анализаторы staticcheck, simple и stylecheck подключаются по именам из JSON файла,
// который лежит рядом с бинарным файлом и называется так же, с расширением ".json".
// Если файла нет, используется встроенный staticlint_default.json.
package main

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"metrics-buffer/internal/exitchecker"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/nilfunc"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"
)

//go:embed staticlint_default.json
var defaultConfig []byte

// ConfigChecks Имена подключаемых анализаторов staticcheck
type ConfigChecks struct {
	AnalyzerNames []string `json:"staticlint"`
}

// readConfig Конфигурация рядом с бинарным файлом или встроенная
func readConfig() ([]byte, error) {
	fullPath, err := os.Executable()
	if err != nil {
		return nil, err
	}

	configPath := strings.TrimSuffix(fullPath, filepath.Ext(fullPath)) + ".json"

	data, err := os.ReadFile(configPath)
	if err != nil {
		return defaultConfig, nil
	}

	return data, nil
}

func parseConfig(data []byte) (map[string]bool, error) {

	var cfg ConfigChecks
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	names := make(map[string]bool, len(cfg.AnalyzerNames))
	for _, name := range cfg.AnalyzerNames {
		names[name] = true
	}

	return names, nil
}

// pick Анализаторы из наборов groups, имена которых есть в names
func pick(names map[string]bool, groups ...[]*lint.Analyzer) []*analysis.Analyzer {

	var analyzers []*analysis.Analyzer
	for _, group := range groups {
		for _, v := range group {
			if names[v.Analyzer.Name] {
				analyzers = append(analyzers, v.Analyzer)
			}
		}
	}

	return analyzers
}

func main() {

	analyzers := []*analysis.Analyzer{
		printf.Analyzer,
		shadow.Analyzer,
		structtag.Analyzer,
		unmarshal.Analyzer,
		bools.Analyzer,
		errorsas.Analyzer,
		httpresponse.Analyzer,
		nilfunc.Analyzer,
		unreachable.Analyzer,
		exitchecker.ExitCheckAnalyzer,
	}

	data, err := readConfig()
	if err != nil {
		panic(err)
	}

	names, err := parseConfig(data)
	if err != nil {
		panic(err)
	}

	analyzers = append(analyzers, pick(names, staticcheck.Analyzers, simple.Analyzers, stylecheck.Analyzers)...)

	multichecker.Main(analyzers...)
}
