// Package version holds the commit-resolver build metadata. Values are injected
// via ldflags at release time; go install and local builds fall back to
// runtime/debug.BuildInfo so the binary still reports its module version and
// VCS revision.
package version
