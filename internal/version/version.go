// Package version reports the modelcard build version.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is set at build time:
//
//	go build -ldflags "-X github.com/KoryJCampbell/modelcard/internal/version.Version=1.2.3"
var Version = ""

// Dev is reported when no release version is known.
const Dev = "0.0.0-dev"

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// String returns the normalized semantic version of this build. The ldflags
// value wins; otherwise the module version recorded by `go install` is used.
// Anything unparseable yields Dev.
func String() string {
	if v, err := Parse(Version); err == nil {
		return v.String()
	}
	if info, ok := readBuildInfo(); ok {
		if v, err := Parse(info.Main.Version); err == nil {
			return v.String()
		}
	}
	return Dev
}

// Parse validates a version string such as "v1.2.3" or "1.2.3-rc.1".
func Parse(s string) (*semver.Version, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "(devel)" {
		return nil, fmt.Errorf("version: no version")
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("version: %q: %w", s, err)
	}
	return v, nil
}
