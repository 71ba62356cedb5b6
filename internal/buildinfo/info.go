// Package buildinfo holds release metadata stamped into the binary at link
// time with -ldflags -X.
package buildinfo

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
