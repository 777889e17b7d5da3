// Package version reports build information for the blinq binaries.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Name is the product name used in banners and the User-Agent
const Name = "blinq"

// Set via -ldflags "-X blinq/internal/version.Version=..." at build time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Info describes the running build
type Info struct {
	Version     string `json:"version"`
	BuildTime   string `json:"buildTime"`
	GoVersion   string `json:"goVersion"`
	Revision    string `json:"revision,omitempty"`
	CommittedAt string `json:"committedAt,omitempty"`
	Dirty       bool   `json:"dirty"`
}

// Get reads version info from the linker flags and the embedded build settings
func Get() Info {
	info := Info{Version: Version, BuildTime: BuildTime}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.time":
			info.CommittedAt = s.Value
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// Short returns the version with an abbreviated revision, e.g. "v1.2.0+3f2a9c1d-dirty"
func (i Info) Short() string {
	if i.Revision == "" {
		return i.Version
	}
	rev := i.Revision
	if len(rev) > 8 {
		rev = rev[:8]
	}
	s := i.Version + "+" + rev
	if i.Dirty {
		s += "-dirty"
	}
	return s
}

// UserAgent identifies blinq tooling in outgoing requests
func (i Info) UserAgent(component string) string {
	return fmt.Sprintf("%s-%s/%s", Name, component, i.Short())
}

func (i Info) String() string {
	parts := []string{fmt.Sprintf("%s %s", Name, i.Short())}
	if i.BuildTime != "unknown" {
		parts = append(parts, "built "+i.BuildTime)
	}
	if i.GoVersion != "" {
		parts = append(parts, i.GoVersion)
	}
	if i.CommittedAt != "" {
		parts = append(parts, "committed "+i.CommittedAt)
	}
	return strings.Join(parts, ", ")
}

// Check returns a startup warning for dirty or untracked builds, or ""
func (i Info) Check() string {
	switch {
	case i.Dirty:
		return "Warning: binary built from a modified source tree"
	case i.Revision == "" && i.Version == "dev":
		return "Warning: development build without version control information"
	}
	return ""
}
