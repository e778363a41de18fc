package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/alnah/go-postrender"
	"github.com/alnah/go-postrender/internal/config"
	"github.com/alnah/go-postrender/internal/fileutil"
	"github.com/alnah/go-postrender/internal/hints"
)

// Version is set at build time via ldflags.
var Version = "dev"

// ErrUnknownCommand is returned for an unrecognized subcommand.
var ErrUnknownCommand = errors.New("unknown command")

func main() {
	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches the command line and returns the process exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	switch cmd {
	case "enhance":
		return runEnhanceCmd(rest, env, newEnhancerPool)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "postrender %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(rest, env)
	}

	// A page or site directory as first argument implies enhance.
	if looksLikeInput(cmd) {
		return runEnhanceCmd(args[1:], env, newEnhancerPool)
	}

	fmt.Fprintf(env.Stderr, "%v: %s\n\n", ErrUnknownCommand, cmd)
	printUsage(env.Stderr)
	return exitCodeFor(ErrUnknownCommand)
}

// isCommand reports whether s names a subcommand.
func isCommand(s string) bool {
	switch s {
	case "enhance", "doctor", "version", "help":
		return true
	}
	return false
}

// looksLikeInput reports whether s is an HTML page or an existing directory.
func looksLikeInput(s string) bool {
	if s == "" || strings.HasPrefix(s, "-") || isCommand(s) {
		return false
	}
	if fileutil.IsHTMLFile(s) {
		return true
	}
	info, err := os.Stat(s)
	return err == nil && info.IsDir()
}

// runEnhanceCmd parses enhance flags, runs the batch, and maps the outcome
// to an exit code.
func runEnhanceCmd(args []string, env *Environment, newPool poolFunc) int {
	flags, positional, err := parseEnhanceFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	// Configure GOMAXPROCS for containers before sizing the pool.
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	log := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	_, _ = maxprocs.Set(maxprocs.Logger(log.Sugar().Debugf))

	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := runEnhance(ctx, positional, flags, env, newPool); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err, flags.assets.runtime))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// hintFor returns an actionable hint for well-known failures, or "".
func hintFor(err error, runtimeName string) string {
	switch {
	case errors.Is(err, postrender.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(triedPaths(err))
	case errors.Is(err, ErrWriteHTML):
		return hints.ForOutputDirectory()
	case errors.Is(err, postrender.ErrStyleNotFound),
		errors.Is(err, postrender.ErrScriptNotFound),
		errors.Is(err, postrender.ErrIncompleteRuntime):
		if runtimeName == "" {
			runtimeName = postrender.DefaultRuntime
		}
		return hints.ForRuntimeNotFound(runtimeName)
	case errors.Is(err, ErrMissingMermaidScript):
		return hints.ForDiagramScript()
	}
	return ""
}

// triedPaths extracts the searched locations from a config lookup error.
func triedPaths(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}
