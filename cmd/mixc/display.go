package main

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/gogpu/mixer/diag"
)

var (
	successColorFG = pterm.FgLightGreen
	successStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	warnColorFG    = pterm.FgYellow
	warnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	errorColorFG   = pterm.FgRed
	errorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	infoColorFG    = pterm.FgLightCyan
	infoStyleBG    = pterm.NewStyle(pterm.BgLightCyan, pterm.FgBlack)
)

func printError(tag string, err error) {
	errorStyleBG.Print(tag)
	errorColorFG.Println(" " + err.Error())
}

func printWarning(tag, msg string) {
	warnStyleBG.Print(tag)
	warnColorFG.Println(" " + msg)
}

func printInfo(tag, msg string) {
	infoStyleBG.Print(tag)
	infoColorFG.Println(" " + msg)
}

func printSuccess(tag, msg string) {
	successStyleBG.Print(tag)
	successColorFG.Println(" " + msg)
}

// printDiagnostics prints the messages of an effect's log that the level
// lets through, each under a banner naming the code and the fragment.
func printDiagnostics(effect string, log *diag.Log, level logLevel) {
	for _, m := range log.Messages() {
		switch {
		case m.Severity == diag.SeverityError && level >= levelError:
		case m.Severity == diag.SeverityWarning && level >= levelWarn:
		case level >= levelVerbose:
		default:
			continue
		}
		displayBanner(effect, m)
		fmt.Println(m.Text)
	}
}

func displayBanner(effect string, m *diag.Message) {
	fmt.Print("\n-- ")
	kind := m.Code.String()
	switch m.Severity {
	case diag.SeverityError:
		kind += " Error"
		errorStyleBG.Print(kind)
	case diag.SeverityWarning:
		kind += " Warning"
		warnStyleBG.Print(kind)
	default:
		infoStyleBG.Print(kind)
	}
	fmt.Print(" ")

	where := effect
	if m.Source != "" {
		where = m.Source
		if !m.Span.IsZero() {
			where += ":" + m.Span.String()
		}
	}
	bannerLen := pterm.GetTerminalWidth() / 2
	if bannerLen > 60 {
		bannerLen = 60
	}
	dashCount := bannerLen - len(where) - len(kind) - 1
	if dashCount < 2 {
		dashCount = 2
	}
	fmt.Print(strings.Repeat("-", dashCount) + " ")
	infoColorFG.Println(where)
}
