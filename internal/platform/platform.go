// Package platform converts release archive platform suffixes into the
// directory hierarchy docker buildx expects for TARGETPLATFORM.
package platform

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrMalformedSuffix is returned when a suffix cannot be split into an OS and
// an architecture.
var ErrMalformedSuffix = errors.New("malformed platform suffix")

// armPattern matches versioned ARM architectures such as armv6 and armv7.
var armPattern = regexp.MustCompile(`^arm(v\d)$`)

// Platform is a normalized Docker platform, e.g. linux/arm/v6.
type Platform struct {
	OS      string
	Arch    string
	Variant string
}

// Resolve parses a platform suffix such as "linux-armv6" or "windows-amd64".
// The suffix is split on its first '-'; everything after it is the
// architecture, unless it is an ARM version token which is split into
// "arm" and its variant.
func Resolve(suffix string) (Platform, error) {
	goos, rest, ok := strings.Cut(suffix, "-")
	if !ok {
		return Platform{}, fmt.Errorf("%w: %q has no '-' separator", ErrMalformedSuffix, suffix)
	}
	if goos == "" || rest == "" {
		return Platform{}, fmt.Errorf("%w: %q has an empty OS or architecture", ErrMalformedSuffix, suffix)
	}

	if m := armPattern.FindStringSubmatch(rest); m != nil {
		return Platform{OS: goos, Arch: "arm", Variant: m[1]}, nil
	}
	return Platform{OS: goos, Arch: rest}, nil
}

// Segments returns the path segments of the platform: [os, arch] or
// [os, "arm", variant].
func (p Platform) Segments() []string {
	if p.Variant != "" {
		return []string{p.OS, p.Arch, p.Variant}
	}
	return []string{p.OS, p.Arch}
}

// Path returns the platform as a relative filesystem path.
func (p Platform) Path() string {
	return filepath.Join(p.Segments()...)
}

// String returns the Docker platform identifier, e.g. "linux/arm/v6".
func (p Platform) String() string {
	return strings.Join(p.Segments(), "/")
}
