package location

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vzahanych/weather-state/internal/weather"
	"go.uber.org/zap"
)

// PermissionStatus mirrors the authorization states reported by a device.
type PermissionStatus int

const (
	NotDetermined PermissionStatus = iota
	Authorized
	Denied
	Restricted
)

func (p PermissionStatus) String() string {
	switch p {
	case NotDetermined:
		return "not_determined"
	case Authorized:
		return "authorized"
	case Denied:
		return "denied"
	case Restricted:
		return "restricted"
	default:
		return "unknown"
	}
}

func ParsePermission(s string) (PermissionStatus, error) {
	switch strings.ToLower(s) {
	case "not_determined", "":
		return NotDetermined, nil
	case "authorized":
		return Authorized, nil
	case "denied":
		return Denied, nil
	case "restricted":
		return Restricted, nil
	default:
		return NotDetermined, fmt.Errorf("unknown permission status %q", s)
	}
}

// Provider is the device location capability.
type Provider interface {
	Status() PermissionStatus
	RequestPermission()
	RequestLocation(ctx context.Context) (weather.Coordinate, error)
	StatusChanges() <-chan PermissionStatus
}

// State is the resolver's progress for the current request.
type State int

const (
	StateUnresolved State = iota
	StateAwaitingPermission
	StateResolved
	StateFallback
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateAwaitingPermission:
		return "awaiting-permission"
	case StateResolved:
		return "resolved"
	case StateFallback:
		return "denied-fallback"
	default:
		return "unknown"
	}
}

// Resolver turns permission state into a coordinate. Denial and location
// failures resolve to weather.Fallback; they are never reported as errors.
// Each Request emits at most one coordinate.
type Resolver struct {
	provider Provider
	logger   *zap.Logger

	mu      sync.Mutex
	state   State
	pending bool
	last    *weather.Coordinate

	out chan weather.Coordinate
}

func NewResolver(provider Provider, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		provider: provider,
		logger:   logger.With(zap.String("component", "location")),
		out:      make(chan weather.Coordinate, 1),
	}
}

// Coordinates delivers resolved coordinates. Only the latest undelivered
// coordinate is kept.
func (r *Resolver) Coordinates() <-chan weather.Coordinate {
	return r.out
}

func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Last returns the most recently resolved coordinate.
func (r *Resolver) Last() (weather.Coordinate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return weather.Coordinate{}, false
	}
	return *r.last, true
}

// Request starts a resolution. It returns the coordinate when one is
// available immediately, or false while permission is being requested; the
// coordinate then arrives on Coordinates once the provider reports a status.
func (r *Resolver) Request(ctx context.Context) (weather.Coordinate, bool) {
	r.mu.Lock()
	r.pending = true
	r.mu.Unlock()

	status := r.provider.Status()
	r.logger.Debug("Location requested", zap.Stringer("permission", status))

	if status == NotDetermined {
		r.setState(StateAwaitingPermission)
		r.provider.RequestPermission()
		return weather.Coordinate{}, false
	}

	return r.handle(ctx, status)
}

// HandleStatus reacts to a permission change. Changes that arrive while no
// request is pending are ignored.
func (r *Resolver) HandleStatus(ctx context.Context, status PermissionStatus) (weather.Coordinate, bool) {
	r.mu.Lock()
	pending := r.pending
	r.mu.Unlock()

	if !pending {
		r.logger.Debug("Ignoring permission change without pending request", zap.Stringer("permission", status))
		return weather.Coordinate{}, false
	}

	if status == NotDetermined {
		return weather.Coordinate{}, false
	}

	return r.handle(ctx, status)
}

// Run feeds provider permission changes into HandleStatus until ctx is done.
func (r *Resolver) Run(ctx context.Context) {
	changes := r.provider.StatusChanges()
	for {
		select {
		case <-ctx.Done():
			return
		case status, ok := <-changes:
			if !ok {
				return
			}
			r.HandleStatus(ctx, status)
		}
	}
}

func (r *Resolver) handle(ctx context.Context, status PermissionStatus) (weather.Coordinate, bool) {
	switch status {
	case Authorized:
		c, err := r.provider.RequestLocation(ctx)
		if err == nil {
			err = c.Validate()
		}
		if err != nil {
			r.logger.Warn("Location fix failed, using fallback", zap.Error(err))
			return r.resolve(weather.Fallback, StateFallback)
		}
		return r.resolve(c, StateResolved)
	default:
		r.logger.Info("Location permission not granted, using fallback", zap.Stringer("permission", status))
		return r.resolve(weather.Fallback, StateFallback)
	}
}

func (r *Resolver) resolve(c weather.Coordinate, state State) (weather.Coordinate, bool) {
	r.mu.Lock()
	if !r.pending {
		last := r.last
		r.mu.Unlock()
		if last == nil {
			return weather.Coordinate{}, false
		}
		return *last, true
	}
	r.pending = false
	r.state = state
	r.last = &c

	select {
	case <-r.out:
	default:
	}
	r.out <- c
	r.mu.Unlock()

	r.logger.Info("Location resolved",
		zap.String("coordinate", c.Key()),
		zap.Stringer("state", state))

	return c, true
}

func (r *Resolver) setState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}
