package dataset_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/dataset/pkg/dataset"
)

func Test_KeySet_Zero_Value_Is_The_Universe(t *testing.T) {
	t.Parallel()

	var s dataset.KeySet

	if s.Known() {
		t.Fatal("zero KeySet should be unbounded")
	}

	if !s.Contains("anything") {
		t.Fatal("universe should contain every key")
	}

	_, err := s.Len()
	if !errors.Is(err, dataset.ErrUnknownKeys) {
		t.Fatalf("Len err = %v, want ErrUnknownKeys", err)
	}

	_, err = s.Slice()
	if !errors.Is(err, dataset.ErrUnknownKeys) {
		t.Fatalf("Slice err = %v, want ErrUnknownKeys", err)
	}
}

func Test_KeySet_Bounded_Set_Enumerates_Sorted(t *testing.T) {
	t.Parallel()

	s := dataset.NewKeySet("b", "a", "c")

	if !s.Known() {
		t.Fatal("NewKeySet should be bounded")
	}

	keys, err := s.Slice()
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}

	if diff := cmp.Diff([]string{"a", "b", "c"}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	n, err := s.Len()
	if err != nil || n != 3 {
		t.Fatalf("Len = %d, %v, want 3, nil", n, err)
	}
}

func Test_KeySet_Complement_Inverts_Membership(t *testing.T) {
	t.Parallel()

	s := dataset.NewKeySet("a", "b").Complement()

	if s.Known() {
		t.Fatal("complement of a bounded set should be unbounded")
	}

	if s.Contains("a") || s.Contains("b") {
		t.Fatal("complement should exclude the original members")
	}

	if !s.Contains("z") {
		t.Fatal("complement should contain everything else")
	}

	back := s.Complement()
	if !back.Known() || !back.Contains("a") {
		t.Fatal("double complement should restore the bounded set")
	}

	empty := dataset.AllKeys().Complement()

	n, err := empty.Len()
	if err != nil || n != 0 {
		t.Fatalf("complement of universe: Len = %d, %v, want 0, nil", n, err)
	}
}

func Test_KeySet_Set_Operations(t *testing.T) {
	t.Parallel()

	ab := dataset.NewKeySet("a", "b")
	bc := dataset.NewKeySet("b", "c")
	all := dataset.AllKeys()
	notB := dataset.NewKeySet("b").Complement()

	sorted := func(t *testing.T, s dataset.KeySet) []string {
		t.Helper()

		keys, err := s.Slice()
		if err != nil {
			t.Fatalf("Slice: %v", err)
		}

		return keys
	}

	if diff := cmp.Diff([]string{"b"}, sorted(t, ab.Intersect(bc))); diff != "" {
		t.Fatalf("ab ∩ bc (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"a", "b"}, sorted(t, ab.Intersect(all))); diff != "" {
		t.Fatalf("ab ∩ all (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"a"}, sorted(t, ab.Intersect(notB))); diff != "" {
		t.Fatalf("ab ∩ ¬b (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"a", "b", "c"}, sorted(t, ab.Union(bc))); diff != "" {
		t.Fatalf("ab ∪ bc (-want +got):\n%s", diff)
	}

	union := ab.Union(notB)
	if union.Known() {
		t.Fatal("bounded ∪ unbounded should be unbounded")
	}

	if !union.Contains("b") || !union.Contains("z") {
		t.Fatal("ab ∪ ¬b should contain every key")
	}

	if diff := cmp.Diff([]string{"a"}, sorted(t, ab.Difference(bc))); diff != "" {
		t.Fatalf("ab \\ bc (-want +got):\n%s", diff)
	}

	notANotB := dataset.NewKeySet("a").Complement().Intersect(notB)
	if notANotB.Known() || notANotB.Contains("a") || notANotB.Contains("b") || !notANotB.Contains("c") {
		t.Fatal("¬a ∩ ¬b should be the complement of {a,b}")
	}
}
