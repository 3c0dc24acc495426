package constants

// Health/readiness paths shared across the platform's services.
const (
	PathHealth = "/health"
	PathReady  = "/ready"
)
