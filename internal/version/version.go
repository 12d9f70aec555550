// /internal/version/version.go
package version

// Set at build time via -ldflags.
var (
	BuildDate string
	GoVersion string
)

const (
	AppName        = "Icebreaker"
	AppDescription = "A Discord companion that starts conversations on its own, pacing itself with daily budgets, mood awareness, and a healthy respect for being ignored."
	AppVersion     = "0.1.0"
)
