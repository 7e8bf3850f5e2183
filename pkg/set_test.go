package pkg

import (
	"reflect"
	"testing"
)

func TestOrderedSet(t *testing.T) {
	s := NewOrderedSet()

	eValues := []string{}
	values := s.Values()
	if !reflect.DeepEqual(values, eValues) {
		t.Fatalf("Expect values=%v got %v", eValues, values)
	}

	// Add three items, ensure they show up in insertion order
	s.Add("foo")
	s.Add("bar")
	s.Add("baz")

	eValues = []string{"foo", "bar", "baz"}
	values = s.Values()
	if !reflect.DeepEqual(values, eValues) {
		t.Fatalf("Expect values=%v got %v", eValues, values)
	}

	for _, v := range eValues {
		if !s.Contains(v) {
			t.Fatalf("Expect s.Contains(%q) to be true, got false", v)
		}
	}

	if l := s.Length(); l != 3 {
		t.Fatalf("Expected length=3, got %d", l)
	}

	// Add the same item a second time, ensuring order is unchanged
	s.Add("foo")

	values = s.Values()
	if !reflect.DeepEqual(values, eValues) {
		t.Fatalf("Expect values=%v got %v", eValues, values)
	}

	// Remove the middle item, ensure relative order of the rest holds
	s.Remove("bar")

	eValues = []string{"foo", "baz"}
	values = s.Values()
	if !reflect.DeepEqual(values, eValues) {
		t.Fatalf("Expect values=%v got %v", eValues, values)
	}

	// Removing an absent item is a no-op
	s.Remove("bar")
	if l := s.Length(); l != 2 {
		t.Fatalf("Expected length=2, got %d", l)
	}

	s.Remove("foo")
	s.Remove("baz")

	eValues = []string{}
	values = s.Values()
	if !reflect.DeepEqual(values, eValues) {
		t.Fatalf("Expect values=%v got %v", eValues, values)
	}
}
