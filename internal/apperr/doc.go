// Package apperr defines shared error sentinels for the commit-resolver application.
// It is a leaf package with no internal imports, allowing any package
// (including low-level infrastructure like fetch and archive) to use the
// sentinels without creating import cycles.
package apperr
