package context

import (
	"fmt"
	"regexp"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
)

// version is the fallback semantic version, used when the binary carries no
// VCS information.
const version = "0.1.0"

var (
	// vcsVersion is the output of `git describe --tags --dirty`, set at build
	// time with -ldflags "-X go.hackfix.me/dbmap/app/context.vcsVersion=...".
	vcsVersion string

	semverRx = regexp.MustCompile(`^v?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)`)
	commitRx = regexp.MustCompile(`^g[0-9a-f]{6,}$`)
)

// VersionInfo is the version of the binary.
type VersionInfo struct {
	Semantic    string
	Commit      string
	TagDistance int // commits since the latest tag
	Dirty       bool
	runtime     string
}

// GetVersion returns the app version. It prefers the VCS version set at build
// time, and falls back to the VCS information embedded by the Go toolchain,
// which lacks the tag distance.
func GetVersion() (*VersionInfo, error) {
	vi := &VersionInfo{
		runtime: fmt.Sprintf("%s, %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}

	if vcsVersion != "" {
		if err := vi.UnmarshalText([]byte(vcsVersion)); err != nil {
			return nil, fmt.Errorf("failed parsing VCS version '%s': %w", vcsVersion, err)
		}
	}
	vi.readBuildInfo()

	if vi.Semantic == "" {
		vi.Semantic = version
	}

	return vi, nil
}

func (vi *VersionInfo) String() string {
	if vi.Commit == "" {
		return fmt.Sprintf("v%s (%s)", vi.Semantic, vi.runtime)
	}

	commit := vi.Commit
	if vi.TagDistance > 0 {
		commit += "-" + strconv.Itoa(vi.TagDistance)
	}
	if vi.Dirty {
		commit += "-dirty"
	}

	return fmt.Sprintf("v%s (commit/%s, %s)", vi.Semantic, commit, vi.runtime)
}

// UnmarshalText parses the output of `git describe`, e.g.
// "v1.2.3-4-g1a2b3c4-dirty".
func (vi *VersionInfo) UnmarshalText(data []byte) error {
	var rest []string
	for _, part := range strings.Split(string(data), "-") {
		if commitRx.MatchString(part) {
			vi.Commit = part[1:]
			continue
		}
		if part == "dirty" {
			vi.Dirty = true
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			vi.TagDistance = n
			continue
		}
		rest = append(rest, part)
	}

	tag := strings.Join(rest, "-")
	switch {
	case semverRx.MatchString(tag):
		vi.Semantic = strings.TrimPrefix(tag, "v")
	case vi.Commit == "":
		// Untagged repository: describe returns just the abbreviated commit.
		vi.Commit = tag
	}

	return nil
}

func (vi *VersionInfo) readBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if vi.Commit == "" {
				vi.Commit = s.Value[:min(len(s.Value), 10)]
			}
		case "vcs.modified":
			vi.Dirty = vi.Dirty || s.Value == "true"
		}
	}
}
