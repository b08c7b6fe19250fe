package version

import "testing"

func TestGetMinorVersion(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"0.2.1", "0.2"},
		{"1.12.3", "1.12"},
		{"0.2", "0.0"},
		{"", "0.0"},
	}
	for _, tt := range tests {
		if got := GetMinorVersion(tt.version); got != tt.want {
			t.Errorf("GetMinorVersion(%q) = %q, want %q", tt.version, got, tt.want)
		}
	}
}

func TestVersionComparison(t *testing.T) {
	if !IsVersionGreaterThan("0.2.0", "0.1.9") {
		t.Error("0.2.0 should be greater than 0.1.9")
	}
	if IsVersionGreaterThan("0.2.0", "0.2.0") {
		t.Error("equal versions are not greater")
	}
	if !IsVersionGreaterOrEqualThan("0.2.0", "0.2.0") {
		t.Error("equal versions satisfy greater-or-equal")
	}
	if IsVersionGreaterOrEqualThan("0.1.9", "0.2.0") {
		t.Error("0.1.9 is below 0.2.0")
	}
}
