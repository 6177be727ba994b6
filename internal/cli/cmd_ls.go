package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/dataset/pkg/dataset"
)

var errUsage = errors.New("wrong number of arguments")

func lsCommand() *Command {
	flags := flag.NewFlagSet("ls", flag.ContinueOnError)
	long := flags.BoolP("long", "l", false, "Read each value and include its size")

	return &Command{
		Flags: flags,
		Usage: "ls [-l] <store>",
		Short: "List the keys of a store",
		Long: `List the keys of a store as a table.

With -l, every value is read and its encoded size is shown. A key whose
value cannot be read is marked with "!" and reported as a warning; the
listing continues.`,
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
				keys, err := ds.Keys()
				if err != nil {
					return err
				}

				printKeyTable(o, ds, keys, *long)
				o.Printf("%d keys\n", len(keys))

				return nil
			})
		},
	}
}

func printKeyTable(o *IO, ds dataset.Dataset[[]byte], keys []string, long bool) {
	var buf strings.Builder

	headers := []string{"KEY"}
	if long {
		headers = append(headers, "BYTES")
	}

	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(headers)

	for _, key := range keys {
		row := []string{key}

		if long {
			value, err := ds.Get(key)
			if err != nil {
				o.Warn("%s: %v", key, err)

				row = append(row, "!")
			} else {
				row = append(row, fmt.Sprintf("%d", len(value)))
			}
		}

		table.Append(row)
	}

	_ = table.Render()

	o.Printf("%s", buf.String())
}

func storesCommand() *Command {
	flags := flag.NewFlagSet("stores", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "stores",
		Short: "Show the configured store names",
		Exec: func(env *Env, o *IO, _ []string) error {
			if len(env.Config.Stores) == 0 {
				o.Println("no stores configured")

				return nil
			}

			for _, name := range env.Config.StoreNames() {
				o.Printf("%-20s %s\n", name, env.Config.Stores[name])
			}

			printConfigSources(o, env.Config.Sources)

			return nil
		},
	}
}

func printConfigSources(o *IO, sources ConfigSources) {
	o.Println()

	if sources.Global != "" {
		o.Println("# global:", sources.Global)
	}

	if sources.Project != "" {
		o.Println("# project:", sources.Project)
	}

	if sources.Global == "" && sources.Project == "" {
		o.Println("# (using defaults only)")
	}
}
