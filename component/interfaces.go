package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component represents a lifecycle-managed component.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start prepares the component for use.
	Start(ctx context.Context) error

	// Stop shuts the component down and releases resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description holds summary information about a component.
type Description struct {
	// Name is the display name. If empty, the component's Name() is used.
	Name string
	// Type categorizes the component, e.g. "gs2-client".
	Type string
	// Details is a one-line summary such as "region=ap-northeast-1 credential=basic".
	Details string
}

// Describable is optionally implemented by components to self-report what
// they are and how they are configured.
type Describable interface {
	Describe() Description
}
