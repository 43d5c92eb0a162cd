package platform

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		suffix   string
		segments []string
		docker   string
	}{
		{"windows-amd64", []string{"windows", "amd64"}, "windows/amd64"},
		{"darwin-amd64", []string{"darwin", "amd64"}, "darwin/amd64"},
		{"darwin-arm64", []string{"darwin", "arm64"}, "darwin/arm64"},
		{"linux-amd64", []string{"linux", "amd64"}, "linux/amd64"},
		{"linux-arm64", []string{"linux", "arm64"}, "linux/arm64"},
		{"linux-armv6", []string{"linux", "arm", "v6"}, "linux/arm/v6"},
		{"linux-armv7", []string{"linux", "arm", "v7"}, "linux/arm/v7"},
		// Only a single digit variant is recognised.
		{"linux-armv10", []string{"linux", "armv10"}, "linux/armv10"},
		// Partial matches fall back to the generic form.
		{"linux-armv7hf", []string{"linux", "armv7hf"}, "linux/armv7hf"},
		{"linux-xarmv7", []string{"linux", "xarmv7"}, "linux/xarmv7"},
		// Split happens on the first '-' only.
		{"linux-mips64-le", []string{"linux", "mips64-le"}, "linux/mips64-le"},
		{"freebsd-386", []string{"freebsd", "386"}, "freebsd/386"},
	}

	for _, tt := range tests {
		t.Run(tt.suffix, func(t *testing.T) {
			p, err := Resolve(tt.suffix)
			if err != nil {
				t.Fatalf("Resolve(%q) unexpected error: %v", tt.suffix, err)
			}
			if diff := cmp.Diff(tt.segments, p.Segments()); diff != "" {
				t.Errorf("Resolve(%q) segments mismatch (-want +got):\n%s", tt.suffix, diff)
			}
			if got := p.String(); got != tt.docker {
				t.Errorf("Resolve(%q).String() = %q, want %q", tt.suffix, got, tt.docker)
			}
			if got, want := p.Path(), filepath.Join(tt.segments...); got != want {
				t.Errorf("Resolve(%q).Path() = %q, want %q", tt.suffix, got, want)
			}
		})
	}
}

func TestResolveMalformed(t *testing.T) {
	for _, suffix := range []string{"", "linux", "-amd64", "linux-", "-"} {
		t.Run(suffix, func(t *testing.T) {
			_, err := Resolve(suffix)
			if !errors.Is(err, ErrMalformedSuffix) {
				t.Errorf("Resolve(%q) error = %v, want ErrMalformedSuffix", suffix, err)
			}
		})
	}
}

func TestResolveIsPure(t *testing.T) {
	first, err := Resolve("linux-armv6")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Resolve("linux-armv6")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("Resolve returned %v then %v", first, second)
	}
}
