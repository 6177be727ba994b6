package dataset_test

import (
	"errors"
	"testing"

	"github.com/calvinalkan/dataset/pkg/dataset"
)

func Test_Shared_Opens_Base_Once_For_Many_Views(t *testing.T) {
	t.Parallel()

	store := newMemStore(map[string]string{"k": "v"})

	shared, err := dataset.Share[string](store)
	if err != nil {
		t.Fatalf("Share: %v", err)
	}

	v1 := shared.View()
	v2 := shared.View()

	if err := v1.Open(); err != nil {
		t.Fatalf("v1.Open: %v", err)
	}

	if err := v2.Open(); err != nil {
		t.Fatalf("v2.Open: %v", err)
	}

	if store.opens != 1 {
		t.Fatalf("physical opens = %d, want exactly 1", store.opens)
	}

	if shared.Openers() != 2 {
		t.Fatalf("Openers = %d, want 2", shared.Openers())
	}

	// Closing one view leaves the resource open for the other.
	if err := v1.Close(); err != nil {
		t.Fatalf("v1.Close: %v", err)
	}

	if !store.open {
		t.Fatal("base closed while a view is still open")
	}

	if err := v2.Close(); err != nil {
		t.Fatalf("v2.Close: %v", err)
	}

	if store.closes != 1 {
		t.Fatalf("physical closes = %d, want exactly 1", store.closes)
	}

	if store.open {
		t.Fatal("base still open after last view closed")
	}
}

func Test_Shared_View_Reads_Forward_To_Base(t *testing.T) {
	t.Parallel()

	store := newMemStore(map[string]string{"k": "v"})

	shared, err := dataset.Share[string](store)
	if err != nil {
		t.Fatalf("Share: %v", err)
	}

	view := shared.View()

	if err := view.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	defer func() { _ = view.Close() }()

	v, err := view.Get("k")
	if err != nil || v != "v" {
		t.Fatalf("Get = %q, %v, want \"v\", nil", v, err)
	}

	keys, err := view.Keys()
	if err != nil || len(keys) != 1 {
		t.Fatalf("Keys = %v, %v", keys, err)
	}

	if !view.IsOpen() {
		t.Fatal("view should report itself open while registered")
	}
}

func Test_Shared_Double_Open_Of_A_View_Is_A_Contract_Violation(t *testing.T) {
	t.Parallel()

	store := newMemStore(nil)

	shared, err := dataset.Share[string](store)
	if err != nil {
		t.Fatalf("Share: %v", err)
	}

	view := shared.View()

	if err := view.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	err = view.Open()
	if !errors.Is(err, dataset.ErrChildState) {
		t.Fatalf("second Open err = %v, want ErrChildState", err)
	}
}

func Test_Shared_Closing_An_Unopened_View_Is_A_Contract_Violation(t *testing.T) {
	t.Parallel()

	store := newMemStore(nil)

	shared, err := dataset.Share[string](store)
	if err != nil {
		t.Fatalf("Share: %v", err)
	}

	view := shared.View()

	err = view.Close()
	if !errors.Is(err, dataset.ErrChildState) {
		t.Fatalf("Close err = %v, want ErrChildState", err)
	}
}

func Test_Shared_Failed_Physical_Open_Leaves_View_Unregistered(t *testing.T) {
	t.Parallel()

	store := newMemStore(nil)
	store.failOpen = errBoom

	shared, err := dataset.Share[string](store)
	if err != nil {
		t.Fatalf("Share: %v", err)
	}

	view := shared.View()

	err = view.Open()
	if !errors.Is(err, errBoom) {
		t.Fatalf("Open err = %v, want errBoom", err)
	}

	if view.IsOpen() || shared.Openers() != 0 {
		t.Fatal("failed open must not register the view")
	}
}
