// Package version exposes build metadata for the rbbench binary.
package version

import "runtime/debug"

// Build metadata, overridden at link time with -ldflags "-X".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const (
	develVersion   = "(devel)"
	settingVCSRev  = "vcs.revision"
	settingVCSTime = "vcs.time"
	shortRevLen    = 12
)

// InitBinaryVersion fills the metadata left unset by the linker from the
// module build info embedded by the go tool.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	apply(info)
}

func apply(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != develVersion {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case settingVCSRev:
			if Commit == "none" {
				Commit = setting.Value
				if len(Commit) > shortRevLen {
					Commit = Commit[:shortRevLen]
				}
			}
		case settingVCSTime:
			if Date == "unknown" {
				Date = setting.Value
			}
		}
	}
}
