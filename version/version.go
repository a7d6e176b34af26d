package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// ModulePath is the import path of this module.
const ModulePath = "github.com/kbukum/gs2kit"

// Product is the product token sent in the User-Agent header.
const Product = "gs2kit"

var (
	// These variables are set at build time using -ldflags.
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info represents version information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	IsRelease bool   `json:"is_release"`
	IsDirty   bool   `json:"is_dirty"`
}

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// GetVersionInfo returns version information, filling gaps from the Go
// build info.
func GetVersionInfo() *Info {
	info := &Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	}

	if bi, ok := readBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		if info.Version == "dev" {
			if v := moduleVersion(bi); v != "" {
				info.Version = strings.TrimPrefix(v, "v")
			}
		}
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = shortCommit(setting.Value)
				}
			case "vcs.modified":
				info.IsDirty = setting.Value == "true"
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = setting.Value
				}
			}
		}
	}

	info.IsRelease = info.Version != "dev" && !info.IsDirty && !strings.Contains(info.Version, "dirty")
	return info
}

// moduleVersion finds this module's version in the build info, either as the
// main module or as a dependency.
func moduleVersion(bi *debug.BuildInfo) string {
	if bi.Main.Path == ModulePath && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	for _, dep := range bi.Deps {
		if dep.Path != ModulePath {
			continue
		}
		if dep.Replace != nil {
			return dep.Replace.Version
		}
		return dep.Version
	}
	return ""
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// GetShortVersion returns the version, suffixed with the commit for
// non-release builds.
func GetShortVersion() string {
	info := GetVersionInfo()
	if info.IsRelease || info.GitCommit == "" {
		return info.Version
	}
	if info.IsDirty {
		return fmt.Sprintf("%s-%s-dirty", info.Version, info.GitCommit)
	}
	return fmt.Sprintf("%s-%s", info.Version, info.GitCommit)
}

// UserAgent returns the User-Agent header value, e.g. "gs2kit/1.4.0".
func UserAgent() string {
	return Product + "/" + GetShortVersion()
}
