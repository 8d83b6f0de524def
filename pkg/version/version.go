package version

// Current defines the application version.
// It defaults to "dev" and is overwritten at build time with -ldflags.
var Current = "dev"

// AppName is reported in telemetry and the CLI banner.
const AppName = "azmigrate"
