// internal/app/system/limits/limits.go
package limits

// Request body size limits for the JSON API.
const (
	// MaxJSONBody caps POST bodies on the cohort API. Requests carry a few
	// identifiers and a timestamp, so this is generous.
	MaxJSONBody = 64 << 10 // 64 KB
)
