package errors

import (
	"math"
	"strings"
	"testing"
)

func TestValidateNodeID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "a", false},
		{"with spaces", "my node", false},
		{"unicode", "knoten-ä", false},
		{"path-like", "pkg/sub", false},

		{"empty", "", true},
		{"too long", strings.Repeat("x", MaxNodeIDLength+1), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
		{"control char", "foo\x01bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNodeID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateNodeID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateSpacing(t *testing.T) {
	tests := []struct {
		v       float64
		wantErr bool
	}{
		{0, false},
		{12.5, false},
		{-1, true},
		{math.NaN(), true},
		{math.Inf(1), true},
	}

	for _, tt := range tests {
		err := ValidateSpacing("spacing_node_node", tt.v)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateSpacing(%v) error = %v, wantErr %v", tt.v, err, tt.wantErr)
		}
	}
}

func TestValidateIntRange(t *testing.T) {
	if err := ValidateIntRange("thoroughness", 7, 1, 100); err != nil {
		t.Errorf("ValidateIntRange(7) error = %v, want nil", err)
	}
	err := ValidateIntRange("thoroughness", 0, 1, 100)
	if !Is(err, ErrCodeInvalidConfig) {
		t.Errorf("ValidateIntRange(0) = %v, want %v", err, ErrCodeInvalidConfig)
	}
}

func TestValidateAutoOrPositive(t *testing.T) {
	for _, v := range []int{-1, 1, 4} {
		if err := ValidateAutoOrPositive("ubw", v); err != nil {
			t.Errorf("ValidateAutoOrPositive(%d) error = %v, want nil", v, err)
		}
	}
	for _, v := range []int{-2, 0} {
		if err := ValidateAutoOrPositive("ubw", v); err == nil {
			t.Errorf("ValidateAutoOrPositive(%d) error = nil, want error", v)
		}
	}
}

func TestValidateCacheURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"/tmp/layerkit", false},
		{"file:///tmp/layerkit", false},
		{"redis://localhost:6379/0", false},
		{"rediss://cache.example:6380", false},
		{"mongodb://localhost:27017", false},
		{"mongodb+srv://cluster.example", false},

		{"", true},
		{"ftp://host/dir", true},
		{"foo\x00bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateCacheURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCacheURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
