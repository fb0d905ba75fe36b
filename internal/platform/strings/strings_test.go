package strings

import (
	"testing"

	kit "quickgithub/internal/platform/testkit"
)

func TestIfEmpty(t *testing.T) {
	if got := IfEmpty(nil, []string{"GET"}); len(got) != 1 || got[0] != "GET" {
		t.Fatalf("IfEmpty(nil) = %v", got)
	}
	if got := IfEmpty([]int{1, 2}, []int{9}); len(got) != 2 {
		t.Fatalf("IfEmpty(non-empty) = %v", got)
	}
}

func TestMustString(t *testing.T) {
	if MustString("x", "name") != "x" {
		t.Fatalf("MustString mismatch")
	}
	kit.MustPanic(t, func() { MustString("  ", "name") })
}

func TestSet(t *testing.T) {
	s := Set("a", " b ", "", "a")
	if len(s) != 2 {
		t.Fatalf("Set = %v", s)
	}
	if _, ok := s["b"]; !ok {
		t.Fatalf("trimmed member missing")
	}
}

func TestSplitCSV(t *testing.T) {
	got := SplitCSV(" ghp_a, ,ghp_b,")
	if len(got) != 2 || got[0] != "ghp_a" || got[1] != "ghp_b" {
		t.Fatalf("SplitCSV = %q", got)
	}
	if SplitCSV("") != nil {
		t.Fatalf("blank should be nil")
	}
}

func TestAtoi(t *testing.T) {
	if Atoi(" 42 ") != 42 || Atoi("") != 0 || Atoi("x1") != 0 {
		t.Fatalf("Atoi mismatch")
	}
}
