package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/buildvariant/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Exit codes returned by the command.
const (
	ExitUsage      = 2
	ExitLintFailed = 3
)

// listFlag collects a repeatable or comma-separated flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

// repeatFlag collects a repeatable flag without splitting on commas.
type repeatFlag []string

func (r *repeatFlag) String() string { return strings.Join(*r, " ") }

func (r *repeatFlag) Set(v string) error {
	*r = append(*r, v)
	return nil
}

// Parse processes command-line arguments layered over the BUILDVARIANT_*
// environment. It returns a populated app.Config, a boolean indicating if
// the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("buildvariant", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
buildvariant - Resolve the effective configuration of Android build descriptions.

Usage:
  buildvariant [options] PATH...

Arguments:
  PATH
    A build description (.gradle.kts, .gradle, .decl, .hcl) or a directory
    containing them. Declaration files load first, then HCL layers.

Options:
`)
		flagSet.PrintDefaults()
	}

	var (
		variant, flavors, varFiles, externalRoots listFlag
		vars                                      repeatFlag
	)
	formatFlag := flagSet.String("format", "", "Output format. Options: 'json', 'yaml' or 'text'. (default \"json\")")
	flagSet.Var(&variant, "variant", "Explicit scope chain to resolve, lowest precedence first (comma-separated).")
	buildTypeFlag := flagSet.String("build-type", "", "Resolve the Android variant of this build type.")
	flagSet.Var(&flavors, "flavor", "Product flavor of the variant (repeatable, comma-separated).")
	rootFlag := flagSet.String("root", "", "Block that holds defaultConfig, productFlavors and buildTypes. (default \"android\")")
	flatFlag := flagSet.Bool("flat", false, "Resolve every block into one flat configuration.")
	flagSet.Var(&vars, "var", "Injected external variable, name=value (repeatable).")
	flagSet.Var(&varFiles, "var-file", "HCL file of injected external variables (repeatable).")
	flagSet.Var(&externalRoots, "external-root", "Variable root expected to be injected (repeatable). (default \"flutter\")")
	lintFlag := flagSet.Bool("lint", false, "Report duplicate keys within a block and unresolved external references.")
	strictFlag := flagSet.Bool("strict", false, "Exit with code 3 when lint reports warnings. Implies -lint.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text' or 'json'. (default \"text\")")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'. (default \"warn\")")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	envConfig, err := app.ConfigFromEnv()
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	flagConfig := app.Config{
		Paths:         flagSet.Args(),
		Format:        strings.ToLower(*formatFlag),
		Variant:       variant,
		BuildType:     *buildTypeFlag,
		Flavors:       flavors,
		Root:          *rootFlag,
		Flat:          *flatFlag,
		Vars:          vars,
		VarFiles:      varFiles,
		ExternalRoots: externalRoots,
		Lint:          *lintFlag,
		Strict:        *strictFlag,
		LogFormat:     strings.ToLower(*logFormatFlag),
		LogLevel:      strings.ToLower(*logLevelFlag),
	}

	// Booleans given explicitly on the command line win over env, false too.
	var switches []app.Switch
	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "flat":
			v := *flatFlag
			switches = append(switches, func(c *app.Config) { c.Flat = v })
		case "lint":
			v := *lintFlag
			switches = append(switches, func(c *app.Config) { c.Lint = v })
		case "strict":
			v := *strictFlag
			switches = append(switches, func(c *app.Config) { c.Strict = v })
		}
	})

	config, err := app.BuildConfig([]app.Config{envConfig, flagConfig}, switches...)
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// ExitCode maps an application error to a process exit code.
func ExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.Is(err, app.ErrLintFailed):
		return ExitLintFailed
	default:
		return 1
	}
}
