package errors

import (
	"strings"
	"testing"
)

func TestValidateLabel(t *testing.T) {
	tests := []struct {
		label   string
		wantErr bool
	}{
		{"gateway", false},
		{"svc/auth-v2", false},
		{"数据库", false},
		{"", true},
		{"tab\there", true},
		{strings.Repeat("a", 257), true},
	}
	for _, tt := range tests {
		err := ValidateLabel(tt.label)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateLabel(%q) error = %v, wantErr %v", tt.label, err, tt.wantErr)
		}
		if err != nil && !Is(err, ErrCodeInvalidGraph) {
			t.Errorf("ValidateLabel(%q) code = %v", tt.label, GetCode(err))
		}
	}
}

func TestValidateFormat(t *testing.T) {
	if err := ValidateFormat("SVG", "svg", "dot"); err != nil {
		t.Errorf("SVG rejected: %v", err)
	}
	err := ValidateFormat("pdf", "svg", "dot")
	if !Is(err, ErrCodeInvalidFormat) {
		t.Errorf("pdf: err = %v, want INVALID_FORMAT", err)
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"out.svg", false},
		{"/tmp/out.json", false},
		{"build/..layout.json", false},
		{"", true},
		{"../etc/passwd", true},
		{"a/../../b", true},
		{"bad\x00name", true},
		{strings.Repeat("p", 501), true},
	}
	for _, tt := range tests {
		if err := ValidatePath(tt.path); (err != nil) != tt.wantErr {
			t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
	}
}
