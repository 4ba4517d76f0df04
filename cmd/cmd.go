// Package cmd holds the build information stamped in at link time.
package cmd

// Set with -ldflags "-X github.com/circleci/restclass/cmd.Version=..."
var (
	Version = "dev"
	Date    = "unknown"
)
