package version

// Version is the semantic version of the build. Release tooling overrides
// this with -ldflags at link time.
var Version = "0.1.0"
