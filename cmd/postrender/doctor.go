package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-postrender"
	"github.com/alnah/go-postrender/internal/config"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo  `json:"chrome"`
	Diagrams diagramInfo `json:"diagrams"`
	Assets   assetInfo   `json:"assets"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// diagramInfo holds the effective diagram settings.
type diagramInfo struct {
	Mode   string `json:"mode"`
	Script string `json:"script,omitempty"`
}

// assetInfo holds the runtime bundle check.
type assetInfo struct {
	Path    string `json:"path,omitempty"` // empty = embedded
	Runtime bool   `json:"runtime"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	jsonOutput := fs.Bool("json", false, "print the report as JSON")
	fs.Usage = func() { printDoctorUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitUsage
	}

	result := runDoctor(env.Getenv)

	if *jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(getenv func(string) string) *doctorResult {
	envCfg := loadEnvConfig(getenv)
	mode := strings.ToLower(envCfg.Diagrams)
	if mode == "" {
		mode = config.DiagramsScript
	}

	result := &doctorResult{
		Status:   statusReady,
		Diagrams: diagramInfo{Mode: mode, Script: envCfg.MermaidScript},
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  getenv("ROD_NO_SANDBOX"),
			BrowserBin: getenv("ROD_BROWSER_BIN"),
		},
	}

	checkChrome(result)
	checkDiagrams(result)
	checkAssets(result, envCfg.AssetPath)
	checkEnvironment(result, getenv)
	checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}

	return result
}

// checkChrome detects Chrome/Chromium installation. Chrome is only
// required for browser diagram rendering; otherwise a miss is a warning.
func checkChrome(result *doctorResult) {
	report := func(msg string) {
		if result.Diagrams.Mode == config.DiagramsBrowser {
			result.Errors = append(result.Errors, msg)
		} else {
			result.Warnings = append(result.Warnings, msg+" (only needed for --diagrams browser)")
		}
	}

	chromePath := result.Env.BrowserBin
	if chromePath == "" {
		// Use rod's launcher to locate Chrome
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			report("Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		report(fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	out, err := exec.Command(chromePath, "--version").Output() // #nosec G204 -- browser binary path
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkDiagrams validates the diagram settings taken from the environment.
func checkDiagrams(result *doctorResult) {
	switch result.Diagrams.Mode {
	case config.DiagramsNone, config.DiagramsScript:
	case config.DiagramsBrowser:
		if result.Diagrams.Script == "" {
			result.Errors = append(result.Errors,
				"Browser diagrams need POSTRENDER_MERMAID_SCRIPT (or --mermaid-script)")
			return
		}
		r, err := postrender.NewBrowserDiagramRenderer(postrender.BrowserConfig{MermaidScript: result.Diagrams.Script})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Mermaid script unusable: %v", err))
			return
		}
		_ = r.Close()
	default:
		result.Errors = append(result.Errors,
			fmt.Sprintf("Unknown diagram mode %q (must be none, script, or browser)", result.Diagrams.Mode))
	}
}

// checkAssets verifies the runtime bundle loads.
func checkAssets(result *doctorResult, assetPath string) {
	result.Assets.Path = assetPath

	loader, err := postrender.NewAssetLoader(assetPath)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Asset path unusable: %v", err))
		return
	}
	if _, err := loader.LoadStyle(postrender.DefaultRuntime); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Runtime style: %v", err))
		return
	}
	if _, err := loader.LoadScript(postrender.DefaultRuntime); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Runtime script: %v", err))
		return
	}
	result.Assets.Runtime = true
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, getenv func(string) string) {
	result.Env.Container, result.Env.ContainerHint = isContainer(getenv)

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if result.Diagrams.Mode == config.DiagramsBrowser &&
		(result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	if getenv("POSTRENDER_CONTAINER") == "1" {
		return true, "POSTRENDER_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory is writable; atomic page writes
// need a writable sibling directory, and rod stages Chrome profiles there.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	f, err := os.CreateTemp(tmpDir, "postrender-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
		return
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(filepath.Clean(name))
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "postrender doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [--] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Diagrams")
	fmt.Fprintf(w, "  [OK] Mode: %s\n", r.Diagrams.Mode)
	if r.Diagrams.Script != "" {
		fmt.Fprintf(w, "  [OK] Script: %s\n", r.Diagrams.Script)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Assets")
	source := "embedded"
	if r.Assets.Path != "" {
		source = r.Assets.Path
	}
	if r.Assets.Runtime {
		fmt.Fprintf(w, "  [OK] Runtime: %s (%s)\n", postrender.DefaultRuntime, source)
	} else {
		fmt.Fprintf(w, "  [ERROR] Runtime: %s (%s)\n", postrender.DefaultRuntime, source)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to enhance")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
