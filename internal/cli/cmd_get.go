package cli

import (
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/dataset/pkg/dataset"
)

func getCommand() *Command {
	flags := flag.NewFlagSet("get", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "get <store> <key>",
		Short: "Print the value stored under a key",
		Long: `Print the raw value stored under a key.

Values from typed stores (json, array, badger) are rendered as JSON.
Output is written as-is, so binary values pipe cleanly.`,
		Exec: func(env *Env, o *IO, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("%w: want <store> <key>", errUsage)
			}

			spec, err := ResolveSpec(env.Config, args[0])
			if err != nil {
				return err
			}

			ds, err := NewReader(spec)
			if err != nil {
				return err
			}

			key := args[1]

			return dataset.With(ds, func() error {
				value, err := ds.Get(key)
				if err != nil {
					return err
				}

				o.Printf("%s", value)

				return nil
			})
		},
	}
}
