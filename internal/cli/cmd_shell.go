package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/dataset/pkg/dataset"
)

func shellCommand() *Command {
	flags := flag.NewFlagSet("shell", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "shell <store>",
		Short: "Explore a store interactively",
		Long: `Open a store and explore it in a readline-style prompt.

The store stays open for the whole session, so repeated reads against
stores with an open cost (badger, json, zip) are cheap.`,
		Exec: func(env *Env, o *IO, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: want <store>", errUsage)
			}

			spec, err := ResolveSpec(env.Config, args[0])
			if err != nil {
				return err
			}

			ds, err := NewReader(spec)
			if err != nil {
				return err
			}

			return dataset.With(ds, func() error {
				sh := &shell{ds: ds, spec: spec, o: o, signals: env.Signals}
				sh.historyPath = env.Config.HistoryFile

				return sh.run()
			})
		},
	}
}

// shell is the interactive read loop over one open store.
type shell struct {
	ds          dataset.Dataset[[]byte]
	spec        string
	o           *IO
	signals     <-chan os.Signal
	historyPath string
	liner       *liner.State
}

func (s *shell) run() error {
	s.liner = liner.NewLiner()
	defer s.liner.Close()

	s.liner.SetCtrlCAborts(true)
	s.liner.SetCompleter(s.completer)

	if f, err := os.Open(s.historyFile()); err == nil {
		_, _ = s.liner.ReadHistory(f)
		_ = f.Close()
	}

	s.o.Printf("dsctl shell - %s\n", s.spec)
	s.o.Println("Type 'help' for available commands.")
	s.o.Println()

	defer s.saveHistory()

	for {
		if s.interrupted() {
			s.o.Println("Bye!")

			return nil
		}

		line, err := s.liner.Prompt("ds> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				s.o.Println("\nBye!")

				return nil
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		s.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			s.o.Println("Bye!")

			return nil

		case "help", "?":
			s.printHelp()

		case "keys", "ls":
			s.cmdKeys(args)

		case "get", "cat":
			s.cmdGet(args)

		case "has":
			s.cmdHas(args)

		case "len", "count":
			s.cmdLen()

		default:
			s.o.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

// interrupted drains a pending SIGINT/SIGTERM without blocking.
func (s *shell) interrupted() bool {
	select {
	case <-s.signals:
		return true
	default:
		return false
	}
}

func (s *shell) cmdKeys(args []string) {
	limit := -1

	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			s.o.Printf("Usage: keys [limit]\n")

			return
		}

		limit = n
	}

	keys, err := s.ds.Keys()
	if err != nil {
		s.o.Printf("error: %v\n", err)

		return
	}

	shown := 0

	for _, key := range keys {
		if limit >= 0 && shown >= limit {
			break
		}

		s.o.Println(key)

		shown++
	}

	if limit >= 0 && len(keys) > limit {
		s.o.Printf("... %d more\n", len(keys)-limit)
	}
}

func (s *shell) cmdGet(args []string) {
	if len(args) != 1 {
		s.o.Printf("Usage: get <key>\n")

		return
	}

	value, err := s.ds.Get(args[0])
	if err != nil {
		s.o.Printf("error: %v\n", err)

		return
	}

	s.o.Printf("%s\n", value)
}

func (s *shell) cmdHas(args []string) {
	if len(args) != 1 {
		s.o.Printf("Usage: has <key>\n")

		return
	}

	ok, err := s.ds.Contains(args[0])
	if err != nil {
		s.o.Printf("error: %v\n", err)

		return
	}

	s.o.Printf("%t\n", ok)
}

func (s *shell) cmdLen() {
	keys, err := s.ds.Keys()
	if err != nil {
		s.o.Printf("error: %v\n", err)

		return
	}

	s.o.Printf("%d\n", len(keys))
}

func (s *shell) historyFile() string {
	if s.historyPath != "" {
		return s.historyPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".dsctl_history")
}

func (s *shell) saveHistory() {
	if path := s.historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			_, _ = s.liner.WriteHistory(f)
			_ = f.Close()
		}
	}
}

// completer completes command names and, for key-taking commands, keys.
func (s *shell) completer(line string) []string {
	commands := []string{
		"keys", "ls", "get", "cat", "has",
		"len", "count", "help", "exit", "quit", "q",
	}

	if cmd, rest, ok := strings.Cut(line, " "); ok {
		return s.completeKey(cmd, rest)
	}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (s *shell) completeKey(cmd, prefix string) []string {
	switch strings.ToLower(cmd) {
	case "get", "cat", "has":
	default:
		return nil
	}

	keys, err := s.ds.Keys()
	if err != nil {
		return nil
	}

	var completions []string

	for _, key := range keys {
		if strings.HasPrefix(key, prefix) {
			completions = append(completions, cmd+" "+key)
		}
	}

	return completions
}

func (s *shell) printHelp() {
	s.o.Println("Commands:")
	s.o.Println("  keys [limit]    List keys")
	s.o.Println("  get <key>       Print the value for a key")
	s.o.Println("  has <key>       Report whether a key exists")
	s.o.Println("  len             Count keys")
	s.o.Println("  help            Show this help")
	s.o.Println("  exit / quit / q Exit")
}
