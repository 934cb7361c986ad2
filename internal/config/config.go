package config

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Mode selects what the driver does with each source file.
type Mode string

const (
	ModeRun     Mode = "run"     // interpret
	ModeCompile Mode = "compile" // write assembly
	ModeExec    Mode = "exec"    // compile, assemble and execute
)

// Config is the driver configuration after flags and environment have been
// merged. Flags win over PASCALC_* variables, which win over defaults.
type Config struct {
	Mode      Mode
	Output    string // -o; "-" is stdout
	Verbose   bool
	LogFormat string // text or json
	DumpAST   bool
	MaxSteps  int    // 0 for no limit
	Color     string // auto, always or never
	Files     []string
}

// UsageError reports bad flags, bad environment values or a bad
// combination of them.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }

func usagef(format string, args ...interface{}) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Mode:      ModeRun,
		LogFormat: "text",
		Color:     "auto",
	}
}

// Load parses args (without the program name) on top of the environment
// read through getenv. -h and -help return flag.ErrHelp.
func Load(args []string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	if err := fromEnv(&cfg, getenv); err != nil {
		return cfg, err
	}

	mode := string(cfg.Mode)
	fs := newFlagSet(&cfg, &mode)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return cfg, err
		}
		return cfg, usagef("%v", err)
	}
	cfg.Mode = Mode(mode)
	cfg.Files = fs.Args()

	return cfg, cfg.Validate()
}

// Validate checks values and combinations Load cannot check flag by flag.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeRun, ModeCompile, ModeExec:
	default:
		return usagef("invalid mode %q (want run, compile or exec)", c.Mode)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return usagef("invalid log format %q (want text or json)", c.LogFormat)
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		return usagef("invalid color setting %q (want auto, always or never)", c.Color)
	}
	if c.MaxSteps < 0 {
		return usagef("max-steps must not be negative, got %d", c.MaxSteps)
	}
	if len(c.Files) == 0 {
		return usagef("no input files")
	}
	if c.Output != "" && len(c.Files) > 1 {
		return usagef("-o needs exactly one input file, got %d", len(c.Files))
	}
	stdin := 0
	for _, f := range c.Files {
		if f == "-" {
			stdin++
		}
	}
	if stdin > 1 {
		return usagef("standard input (-) can only be read once")
	}
	return nil
}

func fromEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("PASCALC_MODE"); v != "" {
		cfg.Mode = Mode(v)
	}
	if v := getenv("PASCALC_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := getenv("PASCALC_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := getenv("PASCALC_COLOR"); v != "" {
		cfg.Color = v
	}
	for name, dst := range map[string]*bool{
		"PASCALC_VERBOSE":  &cfg.Verbose,
		"PASCALC_DUMP_AST": &cfg.DumpAST,
	} {
		v := getenv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return usagef("%s: invalid boolean %q", name, v)
		}
		*dst = b
	}
	if v := getenv("PASCALC_MAX_STEPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return usagef("PASCALC_MAX_STEPS: invalid number %q", v)
		}
		cfg.MaxSteps = n
	}
	return nil
}

func newFlagSet(cfg *Config, mode *string) *flag.FlagSet {
	fs := flag.NewFlagSet("pascalc", flag.ContinueOnError)
	fs.StringVar(mode, "mode", *mode, "run, compile or exec")
	fs.StringVar(&cfg.Output, "o", cfg.Output, "write assembly to `path` (compile mode, one input)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "log every stage at debug level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log as text or json")
	fs.BoolVar(&cfg.DumpAST, "dump-ast", cfg.DumpAST, "print the parsed program before running it")
	fs.IntVar(&cfg.MaxSteps, "max-steps", cfg.MaxSteps, "stop a run after `n` steps, 0 for no limit")
	fs.StringVar(&cfg.Color, "color", cfg.Color, "colour diagnostics: auto, always or never")
	return fs
}

// Usage writes the command synopsis and flag defaults to w.
func Usage(w io.Writer) {
	cfg := Default()
	mode := string(cfg.Mode)
	fs := newFlagSet(&cfg, &mode)
	fs.SetOutput(w)
	fmt.Fprintln(w, "Usage: pascalc [flags] file...")
	fmt.Fprintln(w, "A file named - is read from standard input.")
	fmt.Fprintln(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment: "+strings.Join(EnvVars, ", "))
}

// EnvVars lists the variables Load consults.
var EnvVars = []string{
	"PASCALC_MODE", "PASCALC_OUTPUT", "PASCALC_VERBOSE", "PASCALC_LOG_FORMAT",
	"PASCALC_DUMP_AST", "PASCALC_MAX_STEPS", "PASCALC_COLOR",
}

// IsUsage reports whether err is a usage problem rather than a failure of
// the program being processed.
func IsUsage(err error) bool {
	var u *UsageError
	return errors.As(err, &u)
}
