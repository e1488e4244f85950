// Package version holds the module version, overridable at build time:
//
//	go build -ldflags "-X github.com/getpup/migration-orchestrator/pkg/version.Version=1.2.3"
package version

// Version is the current release version.
var Version = "0.1.0"
