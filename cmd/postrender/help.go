package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: postrender <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  enhance    Enhance rendered HTML pages in place or into a directory")
	fmt.Fprintln(w, "  doctor     Check the environment for browser diagram rendering")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'postrender help <command>' for details on a specific command.")
}

// printEnhanceUsage prints usage for the enhance command.
func printEnhanceUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: postrender enhance <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Enhance HTML pages produced by a static site generator.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    HTML file or site directory (optional if config has input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory (default: in place)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-page timeout (default: 30s)")
	fmt.Fprintln(w, "      --base-url <url>      Absolute URL the input directory is served from")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Enhancements:")
	fmt.Fprintln(w, "      --no-toc              Disable the table of contents")
	fmt.Fprintln(w, "      --no-sidenotes        Disable sidenotes")
	fmt.Fprintln(w, "      --no-back-to-top      Disable the back-to-top control")
	fmt.Fprintln(w, "      --no-keyboard-nav     Disable keyboard pagination")
	fmt.Fprintln(w, "      --no-zoom             Disable image zoom")
	fmt.Fprintln(w, "      --no-diagrams         Disable diagram rendering")
	fmt.Fprintln(w, "      --no-runtime          Do not inject the runtime style and script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Diagrams:")
	fmt.Fprintln(w, "      --diagrams <mode>     none, script (page's mermaid), browser (inline SVG)")
	fmt.Fprintln(w, "      --mermaid-script <s>  mermaid.js URL or file for browser mode")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Assets:")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom asset directory")
	fmt.Fprintln(w, "      --runtime <name>      Runtime bundle name")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show timing and debug logs")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  POSTRENDER_CONFIG, POSTRENDER_TIMEOUT, POSTRENDER_WORKERS,")
	fmt.Fprintln(w, "  POSTRENDER_INPUT_DIR, POSTRENDER_OUTPUT_DIR, POSTRENDER_BASE_URL,")
	fmt.Fprintln(w, "  POSTRENDER_DIAGRAMS, POSTRENDER_MERMAID_SCRIPT, POSTRENDER_ASSET_PATH")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: postrender doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome, the diagram settings and the runtime assets.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Print the report as JSON")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "enhance":
		printEnhanceUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: postrender version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: postrender help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
