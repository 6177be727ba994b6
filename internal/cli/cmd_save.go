package cli

import (
	"fmt"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/dataset/pkg/dataset"
)

func saveCommand() *Command {
	flags := flag.NewFlagSet("save", flag.ContinueOnError)
	overwrite := flags.Bool("overwrite", false, "Re-materialize keys already present in the destination")
	quiet := flags.BoolP("quiet", "q", false, "Suppress the progress bar")

	return &Command{
		Flags: flags,
		Usage: "save <src> <dst> [flags]",
		Short: "Materialize a source store into a writable store",
		Long: `Materialize every item of <src> into <dst>.

By default only keys missing from the destination are copied. With
--overwrite every key is copied, deleting the old value before the new
one is written. Progress is reported on stderr.`,
		Exec: func(env *Env, o *IO, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("%w: want <src> <dst>", errUsage)
			}

			srcSpec, err := ResolveSpec(env.Config, args[0])
			if err != nil {
				return err
			}

			dstSpec, err := ResolveSpec(env.Config, args[1])
			if err != nil {
				return err
			}

			src, err := NewReader(srcSpec)
			if err != nil {
				return err
			}

			dst, err := NewWriter(dstSpec)
			if err != nil {
				return err
			}

			pair, err := dataset.NewAutoSaving(src, dst)
			if err != nil {
				return err
			}

			return dataset.With(pair, func() error {
				keys, err := pair.Keys()
				if err != nil {
					return err
				}

				pending, err := countPending(pair, *overwrite, len(keys))
				if err != nil {
					return err
				}

				opts := dataset.SaveOptions{
					Overwrite: *overwrite,
					Message:   fmt.Sprintf("saving %s -> %s", args[0], args[1]),
				}
				if !*quiet {
					opts.Progress = dataset.NewBar(o.ErrOut())
				}

				if err := pair.SaveAll(opts); err != nil {
					return err
				}

				o.Println(color.GreenString("saved %d of %d items", pending, len(keys)))

				return nil
			})
		},
	}
}

// countPending returns how many keys the save pass will write.
func countPending(pair *dataset.AutoSaving[[]byte], overwrite bool, total int) (int, error) {
	if overwrite {
		return total, nil
	}

	seq, err := pair.UnsavedKeys()
	if err != nil {
		return 0, err
	}

	count := 0

	for _, err := range seq {
		if err != nil {
			return 0, err
		}

		count++
	}

	return count, nil
}
