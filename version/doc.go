// Package version carries the build identity of the speakline binary.
//
// Version, git commit, branch and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/speakline/version.Version=1.2.0" ./cmd/speakline
//
// When they are not set, VCS settings embedded by the Go toolchain fill in
// the commit and build time. The identity is printed by `speakline --version`,
// logged at startup and sent as the User-Agent of sidecar requests.
package version
