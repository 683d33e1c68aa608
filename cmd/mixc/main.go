// Command mixc is the shader mixer CLI.
//
// Usage:
//
//	mixc [--loglevel level] <command> <project>
//
// Examples:
//
//	mixc build .                      # Mix every effect of ./mixer.toml
//	mixc build shaders/mixer.toml     # Mix a specific project file
//	mixc watch .                      # Rebuild when fragments change
//	mixc --loglevel error build .     # Only report errors
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/ComedicChimera/olive"

	"github.com/gogpu/mixer"
)

const mixcVersion = "0.1.0-dev"

func main() {
	cli := olive.NewCLI("mixc", "mixc composes shader fragments into HLSL programs", true)
	logLvlArg := cli.AddSelectorArg("loglevel", "ll", "the diagnostic log level", false, []string{"silent", "error", "warn", "verbose"})
	logLvlArg.SetDefaultValue("warn")

	buildCmd := cli.AddSubcommand("build", "mix every effect of a project", true)
	buildCmd.AddPrimaryArg("project", "the project file or its directory", true)

	watchCmd := cli.AddSubcommand("watch", "rebuild a project whenever its fragments change", true)
	watchCmd.AddPrimaryArg("project", "the project file or its directory", true)

	cli.AddSubcommand("version", "print the mixc version", false)

	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		printError("CLI Usage Error", err)
		os.Exit(2)
	}

	level := parseLevel(result.Arguments["loglevel"].(string))
	installLogger(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "build":
		projectPath, _ := subResult.PrimaryArg()
		if !execBuild(ctx, projectPath, level) {
			os.Exit(1)
		}
	case "watch":
		projectPath, _ := subResult.PrimaryArg()
		if err := execWatch(ctx, projectPath, level); err != nil {
			printError("Watch Error", err)
			os.Exit(1)
		}
	case "version":
		printInfo("mixc Version", mixcVersion)
	}
}

// logLevel is the verbosity selected on the command line.
type logLevel int

const (
	levelSilent logLevel = iota
	levelError
	levelWarn
	levelVerbose
)

func parseLevel(s string) logLevel {
	switch s {
	case "silent":
		return levelSilent
	case "error":
		return levelError
	case "verbose":
		return levelVerbose
	default:
		return levelWarn
	}
}

// installLogger routes library logging to stderr at the chosen level.
func installLogger(level logLevel) {
	var sl slog.Level
	switch level {
	case levelSilent:
		mixer.SetLogger(nil)
		return
	case levelError:
		sl = slog.LevelError
	case levelWarn:
		sl = slog.LevelWarn
	default:
		sl = slog.LevelDebug
	}
	mixer.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: sl})))
}
