// internal/app/system/status/status.go
package status

// Cohort lifecycle states stored in the status field.
const (
	Active = "active"
	Closed = "closed"
)

// Valid reports whether s is a known status value.
func Valid(s string) bool {
	return s == Active || s == Closed
}
