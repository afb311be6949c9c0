package credit

import (
    "errors"
    "math"
    "testing"
)

func TestWeight_ScenarioLevel2Priority1(t *testing.T) {
    w, err := Weight(1, 2)
    if err != nil { t.Fatalf("unexpected error: %v", err) }
    if math.Abs(w-12) > 1e-9 { t.Fatalf("expected weight 12 (8*1.5), got %v", w) }
}

func TestWeight_MonotoneInLevelAndPriority(t *testing.T) {
    for p := 0; p <= MaxPriority(); p++ {
        prev := -1.0
        for l := 0; l <= MaxLevel(); l++ {
            w, err := Weight(p, l)
            if err != nil { t.Fatalf("Weight(%d,%d): %v", p, l, err) }
            if w < prev { t.Fatalf("weight decreased at priority=%d level=%d: %v < %v", p, l, w, prev) }
            prev = w
        }
    }
    for l := 0; l <= MaxLevel(); l++ {
        prev := -1.0
        for p := 0; p <= MaxPriority(); p++ {
            w, err := Weight(p, l)
            if err != nil { t.Fatalf("Weight(%d,%d): %v", p, l, err) }
            if w < prev { t.Fatalf("weight decreased at level=%d priority=%d: %v < %v", l, p, w, prev) }
            prev = w
        }
    }
}

func TestWeight_OutOfRangeOrdinals(t *testing.T) {
    cases := [][2]int{{-1, 0}, {0, -1}, {MaxPriority() + 1, 0}, {0, MaxLevel() + 1}}
    for _, c := range cases {
        if _, err := Weight(c[0], c[1]); !errors.Is(err, ErrInvalidAttribute) {
            t.Fatalf("Weight(%d,%d): expected ErrInvalidAttribute, got %v", c[0], c[1], err)
        }
    }
}
