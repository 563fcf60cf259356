package domain

import (
	"math"
	"testing"
)

func TestPageApply(t *testing.T) {
	cases := []struct {
		name       string
		page       Page
		n          int
		start, end int
	}{
		{"no limit", Page{}, 5, 0, 5},
		{"window", Page{Limit: 2, Offset: 1}, 5, 1, 3},
		{"tail", Page{Limit: 10, Offset: 3}, 5, 3, 5},
		{"offset past end", Page{Limit: 2, Offset: 9}, 5, 5, 5},
		{"huge limit", Page{Limit: math.MaxInt, Offset: 1}, 5, 1, 5},
		{"huge limit past end", Page{Limit: math.MaxInt, Offset: 7}, 5, 5, 5},
		{"empty", Page{Limit: 3}, 0, 0, 0},
	}
	for _, tc := range cases {
		start, end := tc.page.Apply(tc.n)
		if start != tc.start || end != tc.end {
			t.Fatalf("%s: expected [%d,%d), got [%d,%d)", tc.name, tc.start, tc.end, start, end)
		}
	}
}
