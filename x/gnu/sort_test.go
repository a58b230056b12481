package gnu

import (
	"slices"
	"testing"
)

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "2.0", -1},
		{"1.0", "1.0", 0},
		{"1.2.10", "1.2.9", 1},
		{"1.10", "1.9", 1},
		{"2", "10", -1},
		{"1.01", "1.1", 0},
		{"001", "01", 0},
		{"", "", 0},
		{"1", "", 1},
		{"1.0~rc1", "1.0", -1},
		{"1.0~alpha", "1.0~beta", -1},
		{"~", "", -1},
		{"a", "1", 1},
		{"1.0a", "1.0", 1},
		{"1.0.0-rc10", "1.0.0-rc9", 1},
		{"2.6.32", "2.6.32.1", -1},
		{"v2.0", "v10.0", -1},
		{"release-1.0", "release-2.0", -1},
		{"1-2", "1.2", -1},
		{"1_2", "1.2", 1},
		{"1.0~git20200101", "1.0", -1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			if got := sign(Compare(tt.a, tt.b)); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := sign(Compare(tt.b, tt.a)); got != -tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestOrder(t *testing.T) {
	tests := []struct {
		c    byte
		want int
	}{
		{'0', 0},
		{0, 0},
		{'a', int('a')},
		{'Z', int('Z')},
		{'~', -1},
		{'.', int('.') + 256},
	}
	for _, tt := range tests {
		if got := order(tt.c); got != tt.want {
			t.Errorf("order(%q) = %d, want %d", tt.c, got, tt.want)
		}
	}
}

func TestSortAndMax(t *testing.T) {
	versions := []string{"1.10", "1.9", "1.0~rc1", "1.0", "2.0"}
	Sort(versions)
	want := []string{"1.0~rc1", "1.0", "1.9", "1.10", "2.0"}
	if !slices.Equal(versions, want) {
		t.Errorf("Sort = %v, want %v", versions, want)
	}
	if got := Max([]string{"v1.9", "v1.10", "v1.2"}); got != "v1.10" {
		t.Errorf("Max = %q, want v1.10", got)
	}
	if got := Max(nil); got != "" {
		t.Errorf("Max(nil) = %q", got)
	}
}
