package security

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateFilePath(t *testing.T) {
	base := filepath.Join("tmp", "extract")

	tests := []struct {
		name        string
		path        string
		expectError bool
	}{
		{"simple file", "app-1.0.linux-amd64/app", false},
		{"directory entry", "app-1.0.linux-amd64/", false},
		{"nested", "app/share/doc/README", false},
		{"double dot in file name", "app/notes..txt", false},
		{"double dot in directory name", "foo..bar/", false},
		{"trailing dots", "app/v1.2..", false},
		{"empty", "", true},
		{"parent traversal", "../evil", true},
		{"nested traversal", "app/../../evil", true},
		{"trailing parent", "app/..", true},
		{"backslash traversal", `app\..\..\evil`, true},
		{"absolute", "/etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilePath(tt.path, base)
			if tt.expectError && err == nil {
				t.Errorf("ValidateFilePath(%q) expected error but got none", tt.path)
			}
			if !tt.expectError && err != nil {
				t.Errorf("ValidateFilePath(%q) unexpected error: %v", tt.path, err)
			}
		})
	}
}

func TestValidateLinkTarget(t *testing.T) {
	base := filepath.Join("tmp", "extract")

	tests := []struct {
		name        string
		link        string
		target      string
		expectError bool
	}{
		{"sibling", "app/bin/tool", "tool-1.0", false},
		{"parent within base", "app/bin/tool", "../lib/tool", false},
		{"escape", "app/tool", "../../outside", true},
		{"absolute", "app/tool", "/usr/bin/env", true},
		{"empty", "app/tool", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLinkTarget(tt.link, tt.target, base)
			if tt.expectError && err == nil {
				t.Errorf("ValidateLinkTarget(%q, %q) expected error but got none", tt.link, tt.target)
			}
			if !tt.expectError && err != nil {
				t.Errorf("ValidateLinkTarget(%q, %q) unexpected error: %v", tt.link, tt.target, err)
			}
		})
	}
}

func TestLimitedReader(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		r := NewLimitedReader(strings.NewReader("hello"), 10)
		data, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "hello" {
			t.Errorf("Expected 'hello', got %q", data)
		}
	})

	t.Run("exact limit", func(t *testing.T) {
		r := NewLimitedReader(strings.NewReader("hello"), 5)
		data, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "hello" {
			t.Errorf("Expected 'hello', got %q", data)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		r := NewLimitedReader(bytes.NewReader(make([]byte, 64)), 16)
		_, err := io.ReadAll(r)
		if !errors.Is(err, ErrSizeLimitExceeded) {
			t.Errorf("Expected ErrSizeLimitExceeded, got %v", err)
		}
	})
}
