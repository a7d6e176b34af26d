package transport

import "time"

// Observer receives pool and exchange events. Implementations must be safe
// for concurrent use and must not block.
type Observer interface {
	// Opened is called when a connection to dest enters the pool.
	Opened(dest Destination)
	// Closed is called when a connection leaves the pool. cause is the
	// failure that evicted it, or nil when the transport was closed.
	Closed(dest Destination, cause error)
	// Attempt is called after every attempt. err is nil when the attempt
	// produced a response.
	Attempt(dest Destination, attempt int, err error)
	// Response is called once per exchange that produced a response.
	Response(dest Destination, statusCode int, elapsed time.Duration)
}

// NopObserver ignores every event. Embed it to implement part of Observer.
type NopObserver struct{}

func (NopObserver) Opened(Destination)                       {}
func (NopObserver) Closed(Destination, error)                {}
func (NopObserver) Attempt(Destination, int, error)          {}
func (NopObserver) Response(Destination, int, time.Duration) {}

// Observers fans events out to several observers.
type Observers []Observer

func (o Observers) Opened(dest Destination) {
	for _, obs := range o {
		obs.Opened(dest)
	}
}

func (o Observers) Closed(dest Destination, cause error) {
	for _, obs := range o {
		obs.Closed(dest, cause)
	}
}

func (o Observers) Attempt(dest Destination, attempt int, err error) {
	for _, obs := range o {
		obs.Attempt(dest, attempt, err)
	}
}

func (o Observers) Response(dest Destination, statusCode int, elapsed time.Duration) {
	for _, obs := range o {
		obs.Response(dest, statusCode, elapsed)
	}
}
