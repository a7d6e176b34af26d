// Package version reports the gs2kit build version and the User-Agent the
// client sends with every request.
//
// Release builds set the version through -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/gs2kit/version.Version=1.4.0"
//
// When gs2kit is consumed as a module dependency the version recorded in the
// application's build info is used instead of "dev".
package version
