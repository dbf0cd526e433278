// Package main собирает multichecker для linkly.
//
// В набор входят проверки x/tools, относящиеся к коду без cgo и ассемблера,
// анализаторы staticcheck класса SA и выбранные стилистические, bodyclose
// и собственный анализатор rawhttp, который следит, чтобы к сервису ходил
// только пакет internal/client.
//
// Запуск:
//
//	go run ./cmd/staticlint ./...
package main

import (
	"slices"
	"strings"

	"github.com/timakin/bodyclose/passes/bodyclose"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/appends"
	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/composite"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/deepequalerrors"
	"golang.org/x/tools/go/analysis/passes/defers"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpmux"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/ifaceassert"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilfunc"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/sortslice"
	"golang.org/x/tools/go/analysis/passes/stdmethods"
	"golang.org/x/tools/go/analysis/passes/stringintconv"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/testinggoroutine"
	"golang.org/x/tools/go/analysis/passes/tests"
	"golang.org/x/tools/go/analysis/passes/timeformat"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"golang.org/x/tools/go/analysis/passes/unusedresult"
	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"
)

// Проверки stylecheck, включённые в набор.
var styleChecks = []string{
	"ST1000", // комментарий пакета
	"ST1005", // текст ошибок
	"ST1019", // повторный импорт
}

// concurrencyChecks ловят ошибки вокруг мьютексов, контекстов и горутин:
// кэш ссылок и сессия целиком на них построены.
var concurrencyChecks = []*analysis.Analyzer{
	atomic.Analyzer,
	copylock.Analyzer,
	lostcancel.Analyzer,
	loopclosure.Analyzer,
	testinggoroutine.Analyzer,
}

// httpChecks относятся к клиенту сервиса и веб-обработчикам.
var httpChecks = []*analysis.Analyzer{
	httpmux.Analyzer,
	httpresponse.Analyzer,
	bodyclose.Analyzer,
	RawHTTPAnalyzer,
}

// correctnessChecks - общие проверки корректности.
var correctnessChecks = []*analysis.Analyzer{
	appends.Analyzer,
	assign.Analyzer,
	bools.Analyzer,
	composite.Analyzer,
	deepequalerrors.Analyzer,
	defers.Analyzer,
	errorsas.Analyzer,
	ifaceassert.Analyzer,
	nilfunc.Analyzer,
	printf.Analyzer,
	shadow.Analyzer,
	sortslice.Analyzer,
	stdmethods.Analyzer,
	stringintconv.Analyzer,
	structtag.Analyzer,
	tests.Analyzer,
	timeformat.Analyzer,
	unmarshal.Analyzer,
	unreachable.Analyzer,
	unusedresult.Analyzer,
}

// staticcheckAnalyzers отбирает весь класс SA и перечисленные отдельно проверки.
func staticcheckAnalyzers(all []*lint.Analyzer, extra []string) []*analysis.Analyzer {
	var out []*analysis.Analyzer
	for _, a := range all {
		if a.Analyzer == nil {
			continue
		}
		name := a.Analyzer.Name
		if strings.HasPrefix(name, "SA") || slices.Contains(extra, name) {
			out = append(out, a.Analyzer)
		}
	}
	return out
}

func analyzers() []*analysis.Analyzer {
	var checks []*analysis.Analyzer
	checks = append(checks, correctnessChecks...)
	checks = append(checks, concurrencyChecks...)
	checks = append(checks, httpChecks...)
	checks = append(checks, staticcheckAnalyzers(staticcheck.Analyzers, nil)...)
	checks = append(checks, staticcheckAnalyzers(stylecheck.Analyzers, styleChecks)...)
	return checks
}

func main() {
	multichecker.Main(analyzers()...)
}
