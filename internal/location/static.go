package location

import (
	"context"
	"sync"

	"github.com/vzahanych/weather-state/internal/config"
	"github.com/vzahanych/weather-state/internal/weather"
)

// StaticProvider reports a fixed coordinate. Asking for permission moves the
// status to the configured grant and announces it on StatusChanges.
type StaticProvider struct {
	mu      sync.Mutex
	status  PermissionStatus
	grant   PermissionStatus
	coord   weather.Coordinate
	err     error
	changes chan PermissionStatus
}

func NewStaticProvider(status, grant PermissionStatus, coord weather.Coordinate) *StaticProvider {
	return &StaticProvider{
		status:  status,
		grant:   grant,
		coord:   coord,
		changes: make(chan PermissionStatus, 4),
	}
}

func NewStaticProviderWithConfig(cfg config.LocationConfig) (*StaticProvider, error) {
	status, err := ParsePermission(cfg.Permission)
	if err != nil {
		return nil, err
	}
	grant, err := ParsePermission(cfg.Grant)
	if err != nil {
		return nil, err
	}
	return NewStaticProvider(status, grant, weather.Coordinate{
		Latitude:  cfg.Latitude,
		Longitude: cfg.Longitude,
	}), nil
}

func (p *StaticProvider) Status() PermissionStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *StaticProvider) RequestPermission() {
	p.SetStatus(p.grant)
}

// SetStatus changes the permission status and notifies listeners.
func (p *StaticProvider) SetStatus(status PermissionStatus) {
	p.mu.Lock()
	p.status = status
	p.mu.Unlock()

	select {
	case p.changes <- status:
	default:
	}
}

// SetError makes RequestLocation fail with err until cleared with nil.
func (p *StaticProvider) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *StaticProvider) RequestLocation(ctx context.Context) (weather.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return weather.Coordinate{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return weather.Coordinate{}, p.err
	}
	return p.coord, nil
}

func (p *StaticProvider) StatusChanges() <-chan PermissionStatus {
	return p.changes
}
