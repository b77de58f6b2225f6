package common

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
)

// Version variables injected at build time via ldflags
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the semantic version string
func GetVersion() string {
	return Version
}

// GetBuild returns the build timestamp
func GetBuild() string {
	return Build
}

// GetGitCommit returns the short git commit hash
func GetGitCommit() string {
	return GitCommit
}

// GetFullVersion returns a formatted version string with all build info
func GetFullVersion() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", Version, Build, GitCommit)
}

// LoadVersionFromFile fills the version variables that ldflags left at their
// defaults, first from a .version file next to the binary, then from the VCS
// stamp the Go toolchain embeds in the binary.
func LoadVersionFromFile() {
	if exe, err := os.Executable(); err == nil {
		applyVersionFile(filepath.Join(filepath.Dir(exe), ".version"))
	}
	applyBuildInfo()
}

// applyVersionFile reads "key: value" lines from path
func applyVersionFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch strings.TrimSpace(key) {
		case "version":
			if Version == "dev" {
				Version = val
			}
		case "build":
			if Build == "unknown" {
				Build = val
			}
		case "commit":
			if GitCommit == "unknown" {
				GitCommit = val
			}
		}
	}
}

// applyBuildInfo uses vcs.revision / vcs.time from the embedded build info
func applyBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if GitCommit == "unknown" && len(s.Value) >= 7 {
				GitCommit = s.Value[:7]
			}
		case "vcs.time":
			if Build == "unknown" {
				Build = s.Value
			}
		}
	}
}
