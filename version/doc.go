// Package version reports build information of the augkit binary.
//
// Version, commit, branch and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/augkit/version.Version=1.0.0" ./cmd/augkit
//
// Unset values fall back to the VCS settings recorded by the Go toolchain.
package version
