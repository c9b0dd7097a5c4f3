package config

// Tree defaults.
const (
	DefaultTreeMinNumber = 10
	DefaultTreeWorkers   = 0
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Telemetry defaults.
const (
	DefaultServiceName  = "boxtree"
	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false
	DefaultSampleRatio  = 0.0
	DefaultMetricsAddr  = ""
)
