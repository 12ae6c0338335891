package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time using -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	GitBranch = ""
	BuildTime = ""
	GoVersion = ""
)

// Info is the build information of the running binary.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	GitBranch string    `json:"git_branch"`
	BuildTime string    `json:"build_time"`
	GoVersion string    `json:"go_version"`
	BuildDate time.Time `json:"build_date"`
	IsRelease bool      `json:"is_release"`
	IsDirty   bool      `json:"is_dirty"`
}

// Get returns the build information, filling gaps from debug.ReadBuildInfo.
func Get() *Info {
	info := &Info{
		Version:   Version,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		IsRelease: Version != "dev" && !strings.Contains(Version, "dirty"),
	}

	if BuildTime != "" {
		if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
			info.BuildDate = t
		}
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.GoVersion == "" {
			info.GoVersion = bi.GoVersion
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = s.Value[:min(7, len(s.Value))]
				}
			case "vcs.modified":
				info.IsDirty = s.Value == "true"
			case "vcs.time":
				if info.BuildTime == "" {
					if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
						info.BuildDate = t
						info.BuildTime = s.Value
					}
				}
			}
		}
	}

	if info.BuildDate.IsZero() {
		info.BuildDate = time.Now().UTC()
		info.BuildTime = info.BuildDate.Format(time.RFC3339)
	}
	return info
}

// Short returns version-commit, with a -dirty suffix for modified trees.
func Short() string {
	info := Get()
	if info.GitCommit == "" {
		return info.Version
	}
	if info.IsDirty {
		return fmt.Sprintf("%s-%s-dirty", info.Version, info.GitCommit)
	}
	return fmt.Sprintf("%s-%s", info.Version, info.GitCommit)
}

// Fields returns the build information as log fields.
func Fields() map[string]interface{} {
	info := Get()
	fields := map[string]interface{}{
		"version":    info.Version,
		"go_version": info.GoVersion,
	}
	if info.GitCommit != "" {
		fields["commit"] = info.GitCommit
	}
	if info.GitBranch != "" {
		fields["branch"] = info.GitBranch
	}
	return fields
}
