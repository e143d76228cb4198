package consts

// populated via -ldflags at build time
var (
	Version   = "v1.0.0"
	BuildTime = "unknown"
	GitTag    = "unknown"
)
