package monitor

// Overall health status labels.
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

func healthStatusLabel(score int) string {
	switch {
	case score >= 90:
		return HealthHealthy
	case score >= 50:
		return HealthDegraded
	default:
		return HealthUnhealthy
	}
}
