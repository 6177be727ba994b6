// Package cli implements the dsctl command line interface over the
// dataset stores.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const helpFlag = "--help"

// Run is the main entry point. Returns exit code.
func Run(stdin io.Reader, out, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	if len(args) < 2 {
		printUsage(out)

		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	workDir := flags.workDir
	if workDir == "" {
		workDir, err = os.Getwd()
		if err != nil {
			fprintln(errOut, "error: cannot get working directory:", err)

			return 1
		}
	}

	cfg, err := LoadConfig(workDir, flags.configPath, env)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	if len(flags.remaining) == 0 {
		printUsage(out)

		return 0
	}

	name := flags.remaining[0]
	if name == "-h" || name == helpFlag {
		printUsage(out)

		return 0
	}

	cmd := findCommand(name)
	if cmd == nil {
		fprintln(errOut, "error: unknown command:", name)
		printUsage(errOut)

		return 1
	}

	cmdEnv := &Env{Config: cfg, Stdin: stdin, Signals: sigCh}

	return cmd.Run(cmdEnv, NewIO(out, errOut), flags.remaining[1:])
}

// commands builds the command set. Constructed per invocation so flag
// state never leaks between runs.
func commands() []*Command {
	return []*Command{
		lsCommand(),
		getCommand(),
		saveCommand(),
		shellCommand(),
		storesCommand(),
	}
}

func findCommand(name string) *Command {
	for _, c := range commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

type globalFlags struct {
	workDir    string
	configPath string
	remaining  []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseFlag tries to parse a global flag at args[idx]. Returns the number
// of args consumed (0 if not a flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	// -C/--cwd flag (work directory)
	if (arg == "-C" || arg == "--cwd") && idx+1 < len(args) {
		flags.workDir = args[idx+1]

		return 2, nil
	}

	if after, ok := strings.CutPrefix(arg, "-C"); ok {
		flags.workDir = after

		return 1, nil
	}

	if after, ok := strings.CutPrefix(arg, "--cwd="); ok {
		flags.workDir = after

		return 1, nil
	}

	// -c/--config flag
	if arg == "-c" || arg == "--config" {
		if idx+1 >= len(args) {
			return 0, fmt.Errorf("flag requires an argument: %s", arg)
		}

		flags.configPath = args[idx+1]

		return 2, nil
	}

	if after, ok := strings.CutPrefix(arg, "--config="); ok {
		flags.configPath = after

		return 1, nil
	}

	// -h/--help flags
	if arg == "-h" || arg == helpFlag {
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	}

	// Unknown flag
	if strings.HasPrefix(arg, "-") && arg != "-" {
		return 0, fmt.Errorf("unknown flag: %s", arg)
	}

	// Not a flag
	return 0, nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer) {
	fprintln(w, `dsctl - inspect and materialize dataset stores

Usage: dsctl [options] <command> [args]

Stores are addressed as <kind>:<path> (kinds: dir, zip, json, array,
badger) or by a name from the config's "stores" map.

Options:
  -C, --cwd <dir>    Run as if started in <dir>
  -c, --config       Use specified config file

Commands:`)

	for _, c := range commands() {
		fprintln(w, c.HelpLine())
	}
}
