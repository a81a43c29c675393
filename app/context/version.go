package context

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// VersionInfo describes the build of the application.
type VersionInfo struct {
	Semantic string
	Commit   string
	Dirty    bool
	Go       string
}

// String returns the version in "<semantic> (<commit>[-dirty], <go version>)"
// format, omitting unknown parts.
func (v *VersionInfo) String() string {
	var details []string
	if v.Commit != "" {
		commit := v.Commit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		if v.Dirty {
			commit += "-dirty"
		}
		details = append(details, commit)
	}
	if v.Go != "" {
		details = append(details, v.Go)
	}

	if len(details) == 0 {
		return v.Semantic
	}

	return fmt.Sprintf("%s (%s)", v.Semantic, strings.Join(details, ", "))
}

// GetVersion returns the version information embedded in the binary by the Go
// toolchain. Binaries built outside of a module release report "(devel)".
func GetVersion() (*VersionInfo, error) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, errors.New("failed reading build information")
	}

	return versionFromBuildInfo(bi), nil
}

func versionFromBuildInfo(bi *debug.BuildInfo) *VersionInfo {
	v := &VersionInfo{Semantic: bi.Main.Version, Go: bi.GoVersion}
	if v.Semantic == "" {
		v.Semantic = "(devel)"
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			v.Commit = s.Value
		case "vcs.modified":
			v.Dirty = s.Value == "true"
		}
	}

	return v
}
