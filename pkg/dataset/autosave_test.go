package dataset_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/dataset/pkg/dataset"
)

func newPair(t *testing.T, srcData map[string]string) (*memStore, *memStore, *dataset.AutoSaving[string]) {
	t.Helper()

	src := newMemStore(srcData)
	dst := newMemStore(nil)

	pair, err := dataset.NewAutoSaving[string](src, dst)
	if err != nil {
		t.Fatalf("NewAutoSaving: %v", err)
	}

	return src, dst, pair
}

func Test_AutoSaving_Get_Fills_Destination_On_Miss(t *testing.T) {
	t.Parallel()

	src, dst, pair := newPair(t, map[string]string{"k1": "v1", "k2": "v2"})

	v, err := pair.Get("k1")
	if err != nil || v != "v1" {
		t.Fatalf("Get = %q, %v, want \"v1\", nil", v, err)
	}

	if dst.m["k1"] != "v1" {
		t.Fatal("miss did not populate the destination")
	}

	// Second read is a cache hit: the source must not be consulted again.
	v, err = pair.Get("k1")
	if err != nil || v != "v1" {
		t.Fatalf("second Get = %q, %v, want \"v1\", nil", v, err)
	}

	if src.gets["k1"] != 1 {
		t.Fatalf("source reads for k1 = %d, want exactly 1", src.gets["k1"])
	}
}

func Test_AutoSaving_Get_Prefers_Destination_Value(t *testing.T) {
	t.Parallel()

	src := newMemStore(map[string]string{"k": "from-source"})
	dst := newMemStore(map[string]string{"k": "from-cache"})

	pair, err := dataset.NewAutoSaving[string](src, dst)
	if err != nil {
		t.Fatalf("NewAutoSaving: %v", err)
	}

	v, err := pair.Get("k")
	if err != nil || v != "from-cache" {
		t.Fatalf("Get = %q, %v, want the cached value", v, err)
	}

	if src.gets["k"] != 0 {
		t.Fatal("hit must not touch the source")
	}
}

func Test_AutoSaving_UnsavedKeys_Lists_Missing_Keys_Lazily(t *testing.T) {
	t.Parallel()

	src := newMemStore(map[string]string{"a": "1", "b": "2", "c": "3"})
	dst := newMemStore(map[string]string{"b": "2"})

	pair, err := dataset.NewAutoSaving[string](src, dst)
	if err != nil {
		t.Fatalf("NewAutoSaving: %v", err)
	}

	seq, err := pair.UnsavedKeys()
	if err != nil {
		t.Fatalf("UnsavedKeys: %v", err)
	}

	var unsaved []string

	for k, err := range seq {
		if err != nil {
			t.Fatalf("iteration error: %v", err)
		}

		unsaved = append(unsaved, k)
	}

	if diff := cmp.Diff([]string{"a", "c"}, unsaved); diff != "" {
		t.Fatalf("unsaved keys mismatch (-want +got):\n%s", diff)
	}
}

func Test_AutoSaving_SaveAll_Materializes_Then_Noops(t *testing.T) {
	t.Parallel()

	src, dst, pair := newPair(t, map[string]string{"k1": "v1", "k2": "v2"})
	_ = src

	if err := dst.Open(); err != nil {
		t.Fatalf("open dst: %v", err)
	}

	progress := &recordingProgress{}

	err := pair.SaveAll(dataset.SaveOptions{Progress: progress})
	if err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	want := map[string]string{"k1": "v1", "k2": "v2"}
	if diff := cmp.Diff(want, dst.m); diff != "" {
		t.Fatalf("destination mismatch (-want +got):\n%s", diff)
	}

	// Everything is saved now: a second call must emit no progress events.
	again := &recordingProgress{}

	err = pair.SaveAll(dataset.SaveOptions{Progress: again})
	if err != nil {
		t.Fatalf("second SaveAll: %v", err)
	}

	if len(again.totals)+len(again.keys)+again.finishes != 0 {
		t.Fatalf("second SaveAll emitted progress: %+v", again)
	}
}

func Test_AutoSaving_SaveAll_Overwrite_Replaces_Stale_Values(t *testing.T) {
	t.Parallel()

	src := newMemStore(map[string]string{"k1": "fresh"})
	dst := newMemStore(map[string]string{"k1": "stale"})

	pair, err := dataset.NewAutoSaving[string](src, dst)
	if err != nil {
		t.Fatalf("NewAutoSaving: %v", err)
	}

	if err := dst.Open(); err != nil {
		t.Fatalf("open dst: %v", err)
	}

	err = pair.SaveAll(dataset.SaveOptions{Overwrite: true})
	if err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	if dst.m["k1"] != "fresh" {
		t.Fatalf("dst[k1] = %q, want \"fresh\"", dst.m["k1"])
	}
}

func Test_AutoSaving_Open_Is_Source_First_Close_Is_LIFO(t *testing.T) {
	t.Parallel()

	src, dst, pair := newPair(t, map[string]string{"k": "v"})

	if err := pair.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if !src.open || !dst.open {
		t.Fatal("both halves should be open")
	}

	if !pair.IsOpen() {
		t.Fatal("pair should report open")
	}

	if err := pair.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if src.open || dst.open {
		t.Fatal("both halves should be closed")
	}
}

func Test_AutoSaving_Open_Rolls_Back_Source_When_Destination_Fails(t *testing.T) {
	t.Parallel()

	src := newMemStore(map[string]string{"k": "v"})
	dst := newMemStore(nil)
	dst.failOpen = errBoom

	pair, err := dataset.NewAutoSaving[string](src, dst)
	if err != nil {
		t.Fatalf("NewAutoSaving: %v", err)
	}

	err = pair.Open()
	if !errors.Is(err, errBoom) {
		t.Fatalf("Open err = %v, want errBoom", err)
	}

	if src.open {
		t.Fatal("source left open after destination open failure")
	}
}

func Test_AutoSaving_Close_Still_Closes_Source_When_Destination_Close_Fails(t *testing.T) {
	t.Parallel()

	src, dst, pair := newPair(t, map[string]string{"k": "v"})

	if err := pair.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	dst.failClose = errBoom

	err := pair.Close()
	if !errors.Is(err, errBoom) {
		t.Fatalf("Close err = %v, want errBoom", err)
	}

	if src.open {
		t.Fatal("source left dangling after destination close failure")
	}
}

func Test_AutoSaving_Subset_Narrows_Reads_But_Not_Writes(t *testing.T) {
	t.Parallel()

	src := newMemStore(map[string]string{"a": "1", "b": "2"})
	dst := newMemStore(nil)

	pair, err := dataset.NewAutoSaving[string](src, dst)
	if err != nil {
		t.Fatalf("NewAutoSaving: %v", err)
	}

	narrowed, err := pair.Subset([]string{"a"})
	if err != nil {
		t.Fatalf("Subset: %v", err)
	}

	// The destination is the same object, not a subset of it.
	if narrowed.Destination() != dataset.SavingDataset[string](dst) {
		t.Fatal("narrowed pair should keep the full destination")
	}

	v, err := narrowed.Get("a")
	if err != nil || v != "1" {
		t.Fatalf("Get = %q, %v, want \"1\", nil", v, err)
	}

	_, err = narrowed.Get("b")
	if !errors.Is(err, dataset.ErrInvalidKey) {
		t.Fatalf("err = %v, want ErrInvalidKey outside the narrowed domain", err)
	}

	if dst.m["a"] != "1" {
		t.Fatal("narrowed read should still fill the full destination")
	}
}

// mapManager produces pairs over fixed source data and a shared destination
// map, standing in for a real lazy-computation manager.
type mapManager struct {
	srcData map[string]string
	dstData map[string]string

	lazyCalls   int
	savingCalls int
}

func (m *mapManager) Lazy() (dataset.Dataset[string], error) {
	m.lazyCalls++
	return dataset.FromMap(m.srcData), nil
}

func (m *mapManager) Saving() (dataset.SavingDataset[string], error) {
	m.savingCalls++

	s := newMemStore(m.dstData)

	return s, nil
}

func Test_Manager_SaveAll_Opens_Fills_And_Closes(t *testing.T) {
	t.Parallel()

	m := &mapManager{
		srcData: map[string]string{"k1": "v1", "k2": "v2"},
		dstData: make(map[string]string),
	}

	err := dataset.SaveAll[string](m, dataset.SaveOptions{})
	if err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	want := map[string]string{"k1": "v1", "k2": "v2"}
	if diff := cmp.Diff(want, m.dstData); diff != "" {
		t.Fatalf("destination mismatch (-want +got):\n%s", diff)
	}
}

func Test_Manager_Saved_Returns_Fresh_Destination_Handle(t *testing.T) {
	t.Parallel()

	m := &mapManager{
		srcData: map[string]string{"k": "v"},
		dstData: make(map[string]string),
	}

	ds, err := dataset.Saved[string](m, dataset.SaveOptions{})
	if err != nil {
		t.Fatalf("Saved: %v", err)
	}

	// Two Saving calls: one for the fill pair, one for the returned handle.
	if m.savingCalls != 2 {
		t.Fatalf("savingCalls = %d, want 2", m.savingCalls)
	}

	err = dataset.With(ds, func() error {
		v, err := ds.Get("k")
		if err != nil || v != "v" {
			t.Fatalf("Get = %q, %v, want \"v\", nil", v, err)
		}

		return nil
	})
	if err != nil {
		t.Fatalf("With: %v", err)
	}
}
