package version

import "runtime"

// Build information, injected via ldflags:
//
//	-X github.com/pscheid92/textpulse/internal/platform/version.Version=v1.2.0
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// APIVersion is the version reported by the API root when no release version was injected.
const APIVersion = "1.0"

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// API returns the version string shown at the API root.
func API() string {
	if Version == "dev" {
		return APIVersion
	}
	return Version
}
