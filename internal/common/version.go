package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Version metadata stamped at build time via -ldflags. Defaults apply
// when the binary is run straight from go run.
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the release version served at /api/version.
func GetVersion() string {
	return Version
}

// GetBuild returns the build timestamp.
func GetBuild() string {
	return Build
}

// GetGitCommit returns the git commit the binary was built from.
func GetGitCommit() string {
	return GitCommit
}

// GetFullVersion formats the version with build metadata for the
// startup banner.
func GetFullVersion() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", Version, Build, GitCommit)
}

// LoadVersionFromFile overrides Version from a .version file sitting
// next to the linklens binary, when one exists. Deploy scripts drop
// that file alongside the executable.
func LoadVersionFromFile() string {
	exePath, err := os.Executable()
	if err != nil {
		return Version
	}

	versionFile := filepath.Join(filepath.Dir(exePath), ".version")

	data, err := os.ReadFile(versionFile)
	if err != nil {
		return Version
	}

	if v := strings.TrimSpace(string(data)); v != "" {
		Version = v
	}

	return Version
}
