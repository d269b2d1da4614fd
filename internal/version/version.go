// Package version holds build metadata injected with -ldflags -X.
package version

// Version is the release version of the binary.
var Version = "0.1.0"

// GitCommit is the commit the binary was built from.
var GitCommit = "unknown"

// BuildDate is the UTC build timestamp.
var BuildDate = "unknown"
