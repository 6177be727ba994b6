package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/calvinalkan/dataset/pkg/dataset"
	"github.com/calvinalkan/dataset/pkg/dataset/store/arraystore"
	"github.com/calvinalkan/dataset/pkg/dataset/store/badgerstore"
	"github.com/calvinalkan/dataset/pkg/dataset/store/dirstore"
	"github.com/calvinalkan/dataset/pkg/dataset/store/docstore"
	"github.com/calvinalkan/dataset/pkg/dataset/store/zipstore"
)

// A store spec is "<kind>:<path>", e.g. "dir:/data/corpus" or
// "badger:cache.db". Commands also accept a name from the config's
// stores map in place of a literal spec.
var (
	ErrUnknownStore     = errors.New("unknown store")
	ErrUnknownStoreKind = errors.New("unknown store kind")
	ErrStoreReadOnly    = errors.New("store kind is read-only")
)

var storeKinds = []string{"array", "badger", "dir", "json", "zip"}

// ResolveSpec turns a command-line store argument into a spec string.
// Config names win over literal specs, so "corpus" in the config shadows
// a hypothetical kind named "corpus".
func ResolveSpec(cfg Config, arg string) (string, error) {
	if spec, ok := cfg.Stores[arg]; ok {
		return spec, nil
	}

	if kind, _, ok := strings.Cut(arg, ":"); ok && isStoreKind(kind) {
		return arg, nil
	}

	if len(cfg.Stores) == 0 {
		return "", fmt.Errorf("%w: %q (no stores configured; use <kind>:<path>)", ErrUnknownStore, arg)
	}

	return "", fmt.Errorf("%w: %q (configured: %s)", ErrUnknownStore, arg, strings.Join(cfg.StoreNames(), ", "))
}

// NewReader builds a read-only byte dataset from a store spec.
func NewReader(spec string) (dataset.Dataset[[]byte], error) {
	kind, path, err := splitSpec(spec)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "dir":
		return dirstore.New(path, dirstore.ReadOnly), nil
	case "zip":
		return zipstore.New(path), nil
	case "json":
		return viewJSON[any](docstore.New(path, docstore.ReadOnly)), nil
	case "array":
		return viewJSON[[]float64](arraystore.New(path, arraystore.ReadOnly)), nil
	case "badger":
		return viewJSON[any](badgerstore.New(path, badgerstore.ReadOnly)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStoreKind, kind)
	}
}

// NewWriter builds a writable byte dataset from a store spec.
func NewWriter(spec string) (dataset.SavingDataset[[]byte], error) {
	kind, path, err := splitSpec(spec)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "dir":
		return dirstore.New(path, dirstore.ReadWrite), nil
	case "zip":
		return nil, fmt.Errorf("%w: %q", ErrStoreReadOnly, kind)
	case "json":
		return viewJSON[any](docstore.New(path, docstore.ReadWrite)), nil
	case "array":
		return viewJSON[[]float64](arraystore.New(path, arraystore.ReadWrite)), nil
	case "badger":
		return viewJSON[any](badgerstore.New(path, badgerstore.ReadWrite)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStoreKind, kind)
	}
}

func splitSpec(spec string) (kind, path string, err error) {
	kind, path, ok := strings.Cut(spec, ":")
	if !ok || path == "" {
		return "", "", fmt.Errorf("%w: %q (want <kind>:<path>)", ErrUnknownStoreKind, spec)
	}

	return kind, path, nil
}

func isStoreKind(kind string) bool {
	for _, k := range storeKinds {
		if k == kind {
			return true
		}
	}

	return false
}

// jsonView presents a typed store as a byte dataset. Reads marshal values
// to JSON; writes parse JSON back into the store's value type.
type jsonView[V any] struct {
	base dataset.SavingDataset[V]
}

func viewJSON[V any](base dataset.SavingDataset[V]) dataset.SavingDataset[[]byte] {
	return &jsonView[V]{base: base}
}

func (v *jsonView[V]) Keys() ([]string, error) { return v.base.Keys() }

func (v *jsonView[V]) Contains(key string) (bool, error) { return v.base.Contains(key) }

func (v *jsonView[V]) Get(key string) ([]byte, error) {
	value, err := v.base.Get(key)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", key, err)
	}

	return data, nil
}

func (v *jsonView[V]) SaveItem(key string, value []byte) error {
	var typed V
	if err := json.Unmarshal(value, &typed); err != nil {
		return fmt.Errorf("decode %q: %w: %w", key, dataset.ErrTypeMismatch, err)
	}

	return v.base.SaveItem(key, typed)
}

func (v *jsonView[V]) DeleteItem(key string) error { return v.base.DeleteItem(key) }

func (v *jsonView[V]) Open() error  { return v.base.Open() }
func (v *jsonView[V]) Close() error { return v.base.Close() }
func (v *jsonView[V]) IsOpen() bool { return v.base.IsOpen() }
