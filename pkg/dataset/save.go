package dataset

import "fmt"

// SaveOptions configure [SaveDataset], [SaveItems], and the cache-through
// SaveAll operations.
type SaveOptions struct {
	// Overwrite re-materializes keys already present in the destination.
	// An overwritten key is deleted before the new value is written, so
	// the old and new values never coexist.
	Overwrite bool

	// Progress receives per-key events. Nil means no reporting.
	Progress Progress

	// Message is emitted through Progress before work begins, when set.
	Message string
}

func (o SaveOptions) progress() Progress {
	if o.Progress == nil {
		return NopProgress{}
	}

	return o.Progress
}

// SaveDataset copies src into dst.
//
// The pending key set is computed first: every source key when overwriting,
// otherwise only the source keys absent from dst. When the set is empty the
// whole operation is a no-op and no progress events are emitted. Otherwise
// each pending key is read from src and written to dst, reported per key
// against the precomputed total.
//
// Fails with ErrNotOpen when dst is closed.
func SaveDataset[V any](dst SavingDataset[V], src Dataset[V], opts SaveOptions) error {
	if !dst.IsOpen() {
		return fmt.Errorf("cannot save to closed dataset: %w", ErrNotOpen)
	}

	pending, err := unsavedKeys(dst, src, opts.Overwrite)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		return nil
	}

	bar := opts.progress()
	if opts.Message != "" {
		bar.Message(opts.Message)
	}

	bar.Start(len(pending))

	for _, key := range pending {
		if err := saveOne(dst, src, key, opts.Overwrite); err != nil {
			return err
		}

		bar.Advance(key)
	}

	bar.Finish()

	return nil
}

// SaveItems writes the given pairs into dst, with the same overwrite and
// progress semantics as [SaveDataset].
func SaveItems[V any](dst SavingDataset[V], items []Item[V], opts SaveOptions) error {
	if !dst.IsOpen() {
		return fmt.Errorf("cannot save to closed dataset: %w", ErrNotOpen)
	}

	pending := make([]Item[V], 0, len(items))

	for _, it := range items {
		if !opts.Overwrite {
			ok, err := dst.Contains(it.Key)
			if err != nil {
				return err
			}

			if ok {
				continue
			}
		}

		pending = append(pending, it)
	}

	if len(pending) == 0 {
		return nil
	}

	bar := opts.progress()
	if opts.Message != "" {
		bar.Message(opts.Message)
	}

	bar.Start(len(pending))

	for _, it := range pending {
		if err := writeOne(dst, it.Key, it.Value, opts.Overwrite); err != nil {
			return err
		}

		bar.Advance(it.Key)
	}

	bar.Finish()

	return nil
}

// unsavedKeys returns the source keys to write, in source key order: all of
// them when overwriting, else those absent from dst.
func unsavedKeys[V any](dst SavingDataset[V], src Dataset[V], overwrite bool) ([]string, error) {
	keys, err := src.Keys()
	if err != nil {
		return nil, fmt.Errorf("source keys: %w", err)
	}

	if overwrite {
		return keys, nil
	}

	pending := make([]string, 0, len(keys))

	for _, k := range keys {
		ok, err := dst.Contains(k)
		if err != nil {
			return nil, err
		}

		if !ok {
			pending = append(pending, k)
		}
	}

	return pending, nil
}

func saveOne[V any](dst SavingDataset[V], src Dataset[V], key string, overwrite bool) error {
	value, err := src.Get(key)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	return writeOne(dst, key, value, overwrite)
}

// writeOne persists one value, deleting a pre-existing one first when
// overwriting so the store never interleaves the old and new values.
func writeOne[V any](dst SavingDataset[V], key string, value V, overwrite bool) error {
	if overwrite {
		ok, err := dst.Contains(key)
		if err != nil {
			return err
		}

		if ok {
			if err := dst.DeleteItem(key); err != nil {
				return fmt.Errorf("delete before rewrite: %w", err)
			}
		}
	}

	if err := dst.SaveItem(key, value); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	return nil
}
