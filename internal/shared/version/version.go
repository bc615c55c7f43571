package version

// Version is overridden at build time with -ldflags "-X archcheck/internal/shared/version.Version=...".
var Version = "dev"
