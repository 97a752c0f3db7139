package cal

import (
	"context"
	"errors"
	"time"

	"github.com/fieldline/callpilot/pkg/logging"
)

// Fallback tries the primary provider version first, then falls back to the
// secondary with equivalent semantics. This is a version fallback, not a
// retry of the same call: each version is attempted at most once.
type Fallback struct {
	primary       Provider
	secondary     Provider
	primaryName   string
	secondaryName string
	logger        *logging.Logger
}

// NewFallback builds a fallback provider with named versions.
func NewFallback(primary Provider, primaryName string, secondary Provider, secondaryName string, logger *logging.Logger) *Fallback {
	if logger == nil {
		logger = logging.Default()
	}
	return &Fallback{
		primary:       primary,
		secondary:     secondary,
		primaryName:   primaryName,
		secondaryName: secondaryName,
		logger:        logger,
	}
}

var _ Provider = (*Fallback)(nil)

// Slots queries the primary version, falling back when it errors or returns
// no usable slot structure.
func (f *Fallback) Slots(ctx context.Context, from, to time.Time) (map[string][]Slot, error) {
	if f == nil || f.primary == nil {
		return nil, errors.New("cal: fallback primary provider not configured")
	}
	groups, err := f.primary.Slots(ctx, from, to)
	if err == nil {
		return groups, nil
	}
	if f.secondary == nil {
		return nil, err
	}
	f.logger.Warn("primary slots lookup failed; attempting fallback",
		"provider", f.primaryName,
		"fallback", f.secondaryName,
		"error", err,
	)
	groups, fallbackErr := f.secondary.Slots(ctx, from, to)
	if fallbackErr != nil {
		f.logger.Error("fallback slots lookup failed",
			"provider", f.secondaryName,
			"error", fallbackErr,
		)
		return nil, fallbackErr
	}
	return groups, nil
}

// CreateBooking attempts the primary version and falls back when it errors
// or yields no recognizable booking identifier.
func (f *Fallback) CreateBooking(ctx context.Context, req BookingRequest) (string, error) {
	if f == nil || f.primary == nil {
		return "", errors.New("cal: fallback primary provider not configured")
	}
	id, err := f.primary.CreateBooking(ctx, req)
	if err == nil && id != "" {
		return id, nil
	}
	if f.secondary == nil {
		if err != nil {
			return "", err
		}
		return "", errors.New("cal: booking response missing identifier")
	}
	f.logger.Warn("primary booking attempt unusable; attempting fallback",
		"provider", f.primaryName,
		"fallback", f.secondaryName,
		"error", err,
	)
	id, fallbackErr := f.secondary.CreateBooking(ctx, req)
	if fallbackErr != nil {
		f.logger.Error("fallback booking attempt failed",
			"provider", f.secondaryName,
			"error", fallbackErr,
		)
		return "", fallbackErr
	}
	if id == "" {
		return "", errors.New("cal: booking response missing identifier")
	}
	return id, nil
}
