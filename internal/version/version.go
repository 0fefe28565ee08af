package version

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the service current released version.
// Semantic versioning: https://semver.org/
var Version = "0.2.0"

// DevVersion is the service current development version.
var DevVersion = "0.2.0"

func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}

// IsValid reports whether version is a semantic version without the "v" prefix.
func IsValid(version string) bool {
	return version != "" && !strings.HasPrefix(version, "v") && semver.IsValid(canonical(version))
}

// GetMinorVersion extracts the minor version (e.g. "0.2") from version.
func GetMinorVersion(version string) string {
	return strings.TrimPrefix(semver.MajorMinor(canonical(version)), "v")
}

// IsVersionGreaterOrEqualThan returns true if version is greater than or equal to target.
func IsVersionGreaterOrEqualThan(version, target string) bool {
	return semver.Compare(canonical(version), canonical(target)) > -1
}

// IsVersionGreaterThan returns true if version is greater than target.
func IsVersionGreaterThan(version, target string) bool {
	return semver.Compare(canonical(version), canonical(target)) > 0
}

// Latest returns the greatest valid version in versions, or "" if none is valid.
func Latest(versions []string) string {
	latest := ""
	for _, v := range versions {
		if !IsValid(v) {
			continue
		}
		if latest == "" || IsVersionGreaterThan(v, latest) {
			latest = v
		}
	}
	return latest
}

func canonical(version string) string {
	return fmt.Sprintf("v%s", version)
}
