// c0c compiles C0 source files to navm bytecode and can inspect or run
// the result on the reference VM.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"c0c/pkg/bytecode"
	"c0c/pkg/compiler"
	"c0c/pkg/config"
	"c0c/pkg/debuginfo"
	"c0c/pkg/utils"
	"c0c/pkg/vm"
)

var log = commonlog.GetLogger("c0c.cli")

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// verbosity counts repeated -v flags.
type verbosity int

func (v *verbosity) String() string { return strconv.Itoa(int(*v)) }

func (v *verbosity) Set(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if b {
		*v++
	}
	return nil
}

func (v *verbosity) IsBoolFlag() bool { return true }

type options struct {
	verbose    verbosity
	configPath string
	debugInfo  bool
	listing    bool
	maxSteps   int
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("c0c", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Var(&opts.verbose, "v", "increase log verbosity (repeatable)")
	fs.StringVar(&opts.configPath, "config", "", "configuration file (default: c0c.toml next to the input)")
	fs.BoolVar(&opts.debugInfo, "debug-info", false, "write a <output>.dbg debug-info sidecar")
	fs.BoolVar(&opts.listing, "listing", false, "write a <output>.lst disassembly listing")
	fs.IntVar(&opts.maxSteps, "max-steps", 0, "stop run after this many instructions (0 = unlimited)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: c0c [options] <command> [args]\n\n")
		fmt.Fprintf(stderr, "Commands:\n")
		fmt.Fprintf(stderr, "  compile <in> [out]   compile a source file (default out: <in>.o0)\n")
		fmt.Fprintf(stderr, "  disasm <bin>         print a listing of a compiled program\n")
		fmt.Fprintf(stderr, "  run <bin>            execute a compiled program on the reference VM\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return exitUsage
	}
	cmd, rest := rest[0], rest[1:]

	switch cmd {
	case "compile":
		if len(rest) < 1 || len(rest) > 2 {
			fmt.Fprintln(stderr, "compile takes an input path and an optional output path")
			return exitUsage
		}
	case "disasm", "run":
		if len(rest) != 1 {
			fmt.Fprintf(stderr, "%s takes exactly one binary path\n", cmd)
			return exitUsage
		}
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return exitUsage
	}

	cfg, err := loadConfig(opts.configPath, cmd, rest[0])
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitError
	}
	configureLogging(cfg, int(opts.verbose))

	switch cmd {
	case "compile":
		out := utils.ReplaceExt(rest[0], ".o0")
		if len(rest) == 2 {
			out = rest[1]
		}
		err = compileFile(rest[0], out, cfg, opts, stdout)
	case "disasm":
		err = disasmFile(rest[0], stdout)
	case "run":
		err = runFile(rest[0], opts.maxSteps, stdin, stdout)
	}
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitError
	}
	return exitOK
}

// loadConfig prefers an explicit -config file; compile otherwise looks
// next to its input.
func loadConfig(path, cmd, input string) (*config.Config, error) {
	switch {
	case path != "":
		return config.Load(path)
	case cmd == "compile":
		return config.FindForInput(input)
	}
	return config.Default(), nil
}

func configureLogging(cfg *config.Config, extra int) {
	var path *string
	if cfg.Log.File != "" {
		path = &cfg.Log.File
	}
	commonlog.Configure(cfg.Log.Verbosity+extra, path)
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read input file %q: %w", path, err)
	}
	return string(data), nil
}

func compileFile(in, out string, cfg *config.Config, opts options, stdout io.Writer) error {
	src, err := readSource(in)
	if err != nil {
		return err
	}
	p, err := compiler.Compile(src)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	code, err := bytecode.Bytes(p)
	if err != nil {
		return fmt.Errorf("encoding failed: %w", err)
	}
	if err := writeFile(out, code); err != nil {
		return err
	}
	log.Infof("compiled %s -> %s (%d bytes)", in, out, len(code))

	if opts.debugInfo || cfg.Output.DebugInfo {
		data, err := debuginfo.Marshal(debuginfo.FromProgram(p, in))
		if err != nil {
			return fmt.Errorf("debug info: %w", err)
		}
		if err := writeFile(out+".dbg", data); err != nil {
			return err
		}
	}
	if opts.listing || cfg.Output.Listing {
		if err := writeFile(out+".lst", []byte(bytecode.Disassemble(p))); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "compiled %d bytes -> %s\n", len(code), out)
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}

func loadBinary(path string) (*bytecode.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read binary %q: %w", path, err)
	}
	p, err := bytecode.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func disasmFile(path string, stdout io.Writer) error {
	p, err := loadBinary(path)
	if err != nil {
		return err
	}
	_, err = io.WriteString(stdout, bytecode.Disassemble(p))
	return err
}

func runFile(path string, maxSteps int, stdin io.Reader, stdout io.Writer) error {
	p, err := loadBinary(path)
	if err != nil {
		return err
	}
	machine := vm.New(p)
	machine.Input = stdin
	machine.Output = stdout
	machine.MaxSteps = maxSteps
	if err := machine.Run(); err != nil {
		return fmt.Errorf("run failed for %q: %w", path, err)
	}
	log.Debugf("%s: %d steps", path, machine.Steps)
	return nil
}
