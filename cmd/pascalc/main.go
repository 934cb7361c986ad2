package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/kr/pretty"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"pascalc/internal/ast"
	"pascalc/internal/codegen"
	"pascalc/internal/config"
	"pascalc/internal/diag"
	"pascalc/internal/evaluator"
	"pascalc/internal/mips"
	"pascalc/internal/object"
	"pascalc/internal/parser"
)

var (
	exitFn = os.Exit
	getenv = os.Getenv
)

func main() {
	exitFn(runCLI(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// runCLI returns the process exit status: 0 on success, 1 when a program
// fails to parse, compile or run, 2 on usage errors.
func runCLI(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args, getenv)
	if err == flag.ErrHelp {
		config.Usage(stdout)
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "pascalc: %v\n\n", err)
		config.Usage(stderr)
		return 2
	}

	d := &driver{
		cfg:    cfg,
		log:    newLogger(cfg, stderr),
		stdin:  stdin,
		input:  object.NewWordReader(stdin),
		stdout: stdout,
		stderr: stderr,
		color:  useColor(cfg.Color, stderr),
	}

	switch cfg.Mode {
	case config.ModeRun:
		err = d.runAll()
	case config.ModeCompile:
		err = d.compileAll()
	case config.ModeExec:
		err = d.execAll()
	}
	if err != nil {
		d.log.Debug("failed", "mode", cfg.Mode, "error", err)
		return 1
	}
	return 0
}

type driver struct {
	cfg    config.Config
	log    *slog.Logger
	stdin  io.Reader
	input  object.IntReader // shared by every READLN and read syscall; drained when a program is read from stdin
	stdout io.Writer
	stderr io.Writer
	color  bool

	mu sync.Mutex // serialises diagnostics from concurrent compilations
}

type source struct {
	name string
	text string
}

func (d *driver) load(path string) (source, error) {
	if path == "-" {
		b, err := io.ReadAll(d.stdin)
		if err != nil {
			return source{}, errors.Wrap(err, "read standard input")
		}
		return source{name: "<stdin>", text: string(b)}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return source{}, errors.Wrapf(err, "read %s", path)
	}
	return source{name: path, text: string(b)}, nil
}

// parse loads and parses one file, reporting any failure.
func (d *driver) parse(path string) (source, *ast.Program, error) {
	src, err := d.load(path)
	if err != nil {
		d.report(path, "", err)
		return src, nil, err
	}
	d.log.Debug("parsing", "file", src.name, "size", humanize.Bytes(uint64(len(src.text))))
	program, err := parser.Parse(src.text)
	if err != nil {
		d.report(src.name, src.text, err)
		return src, nil, err
	}
	d.log.Debug("parsed", "file", src.name, "procedures", len(program.Procedures))
	if d.cfg.DumpAST {
		d.mu.Lock()
		pretty.Fprintf(d.stdout, "%# v\n", program)
		d.mu.Unlock()
	}
	return src, program, nil
}

func (d *driver) runAll() error {
	for _, path := range d.cfg.Files {
		src, program, err := d.parse(path)
		if err != nil {
			return err
		}
		ev := evaluator.New(nil, d.stdout)
		ev.In = d.input
		ev.MaxSteps = d.cfg.MaxSteps
		if err := ev.Run(program); err != nil {
			d.report(src.name, src.text, err)
			return err
		}
		d.log.Debug("ran", "file", src.name)
	}
	return nil
}

// generate compiles program with a generator of its own and warns about
// calls to procedures that were never declared.
func (d *driver) generate(src source, program *ast.Program) (string, error) {
	cg := codegen.New()
	asm, err := cg.Generate(program)
	if err != nil {
		d.report(src.name, src.text, err)
		return "", err
	}
	for _, name := range cg.UnresolvedCalls() {
		d.log.Warn("call to undeclared procedure", "file", src.name, "procedure", name,
			"label", codegen.ProcedureLabel(name))
	}
	d.log.Debug("generated", "file", src.name, "lines", cg.Emitter().Lines(),
		"size", humanize.Bytes(uint64(len(asm))))
	return asm, nil
}

// compileAll compiles every file concurrently. Each file is attempted even
// when another fails; the first failure decides the exit status.
func (d *driver) compileAll() error {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, path := range d.cfg.Files {
		path := path
		g.Go(func() error {
			src, program, err := d.parse(path)
			if err != nil {
				return err
			}
			asm, err := d.generate(src, program)
			if err != nil {
				return err
			}
			return d.writeAssembly(src, outputPath(path, d.cfg.Output), asm)
		})
	}
	return g.Wait()
}

func (d *driver) writeAssembly(src source, out, asm string) error {
	if out == "-" {
		d.mu.Lock()
		defer d.mu.Unlock()
		_, err := io.WriteString(d.stdout, asm)
		return errors.Wrap(err, "write assembly")
	}
	if err := os.WriteFile(out, []byte(asm), 0o644); err != nil {
		err = errors.Wrapf(err, "write %s", out)
		d.report(src.name, "", err)
		return err
	}
	d.log.Info("wrote assembly", "file", src.name, "output", out, "size", humanize.Bytes(uint64(len(asm))))
	return nil
}

// outputPath is -o when given, standard output for a program read from
// standard input, and otherwise the input path with its extension
// replaced by .asm.
func outputPath(path, output string) string {
	switch {
	case output != "":
		return output
	case path == "-":
		return "-"
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".asm"
}

func (d *driver) execAll() error {
	for _, path := range d.cfg.Files {
		src, program, err := d.parse(path)
		if err != nil {
			return err
		}
		asm, err := d.generate(src, program)
		if err != nil {
			return err
		}
		prog, err := mips.Assemble(asm)
		if err != nil {
			err = errors.Wrap(err, "assemble")
			d.report(src.name, "", err)
			return err
		}
		m := mips.New(prog, nil, d.stdout)
		m.In = d.input
		m.MaxSteps = d.cfg.MaxSteps
		if err := m.Run(); err != nil {
			d.report(src.name, src.text, err)
			return err
		}
		d.log.Debug("executed", "file", src.name, "instructions", humanize.Comma(int64(m.Steps())))
	}
	return nil
}

// report prints err for the user, with the source line and a caret when
// the error knows where it happened:
//
//	prog.pas:2:3: runtime error at 2:3: undefined procedure nope
//	    nope(2);
//	    ^
func (d *driver) report(name, text string, err error) {
	loc := name
	if pos, ok := diag.PositionOf(err); ok {
		loc = fmt.Sprintf("%s:%d:%d", name, pos.Line, pos.Column)
	}
	msg := diag.Render(err, text)
	first, rest, _ := strings.Cut(msg, "\n")

	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.stderr, "%s: %s\n", d.paint(bold, loc), d.paint(red, first))
	if rest != "" {
		fmt.Fprintln(d.stderr, rest)
	}
}

const (
	bold = "\x1b[1m"
	red  = "\x1b[31m"
)

func (d *driver) paint(style, s string) string {
	if !d.color {
		return s
	}
	return style + s + "\x1b[0m"
}

func useColor(setting string, w io.Writer) bool {
	switch setting {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
