package main

import "fmt"

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "latest"
	commit  = "unknown"
	date    = "unknown"
)

// versionString is the one-line build description.
func versionString() string {
	return fmt.Sprintf("clusterops version %s (commit %s, built %s)", version, commit, date)
}
