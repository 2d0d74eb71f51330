// Package version reports the version of the demoapp build.
package version

import (
	"strings"

	"github.com/blang/semver/v4"
)

// Version is the version of the build.
const Version = "0.3.0"

// gitCommit is the commit that the binary is being built from.
// It is set at link time with
// -ldflags "-X github.com/deephdc/demoapp/version.gitCommit=<sha>".
var gitCommit = ""

// Get returns the parsed build version, with the git commit appended as
// build metadata when it is known.
func Get() (semver.Version, error) {
	return parse(Version, gitCommit)
}

// String returns Get as a string, falling back to the raw constant.
func String() string {
	v, err := Get()
	if err != nil {
		return Version
	}
	return v.String()
}

func parse(versionString, commit string) (semver.Version, error) {
	v, err := semver.Make(versionString)
	if err != nil {
		return semver.Version{}, err
	}
	if commit != "" {
		build, err := semver.NewBuildVersion(strings.Trim(commit, "\""))
		if err != nil {
			return semver.Version{}, err
		}
		v.Build = append(v.Build, build)
	}
	return v, nil
}
