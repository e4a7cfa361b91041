package common

import (
	"strings"
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name        string
		format      string
		supported   []string
		expectError bool
	}{
		{name: "json", format: "json", supported: supported},
		{name: "text", format: "text", supported: supported},
		{name: "markdown", format: "markdown", supported: supported},
		{name: "uppercase is normalized", format: "JSON", supported: supported},
		{name: "surrounding whitespace is trimmed", format: " text ", supported: supported},
		{name: "xml rejected", format: "xml", supported: supported, expectError: true},
		{name: "yaml rejected", format: "yaml", supported: supported, expectError: true},
		{name: "empty format rejected", format: "", supported: supported, expectError: true},
		{name: "empty allow-list permits anything", format: "xml", supported: []string{}},
		{name: "single-entry allow-list", format: "json", supported: []string{"json"}},
		{name: "not in single-entry allow-list", format: "text", supported: []string{"json"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error but got none")
				}
				if !strings.Contains(err.Error(), "unsupported output format") {
					t.Errorf("Unexpected error message: %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestNormalizeOutputFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"json", "json"},
		{"JSON", "json"},
		{"  Markdown \n", "markdown"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeOutputFormat(tt.input); got != tt.expected {
			t.Errorf("NormalizeOutputFormat(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestGetSupportedFormatsReturnsCopy(t *testing.T) {
	original := []string{"json", "text", "markdown"}

	result := GetSupportedFormats(original)
	if len(result) != len(original) {
		t.Fatalf("Expected %d formats, got %d", len(original), len(result))
	}

	result[0] = "mutated"
	if original[0] != "json" {
		t.Error("GetSupportedFormats must not share backing storage with its input")
	}
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supported := []string{"json", "text", "markdown"}

	b.Run("valid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("json", supported)
		}
	})

	b.Run("invalid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("xml", supported)
		}
	})
}
