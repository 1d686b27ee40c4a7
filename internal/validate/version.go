// Package validate provides shared input validation helpers.
package validate

import "regexp"

// versionRegexp accepts NuGet and SemVer style versions such as 2.1.0,
// 2.1.0-preview2-30230 or 3.0.0-rc1.19456.10+build.
var versionRegexp = regexp.MustCompile(`^[0-9A-Za-z]+(\.[0-9A-Za-z]+)*(-[0-9A-Za-z.\-]+)?(\+[0-9A-Za-z.\-]+)?$`)

// IsVersion reports whether s is a package or runtime version that can be
// placed into a feed URL path segment.
func IsVersion(s string) bool {
	return versionRegexp.MatchString(s)
}
