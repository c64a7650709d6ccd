package usecase

import (
	"context"
	"errors"
	"fmt"

	"hospital-frontdesk/internal/delivery/http/middleware"
	"hospital-frontdesk/internal/domain/repository"
	"hospital-frontdesk/internal/infrastructure/eventbus"

	"github.com/sirupsen/logrus"
)

var (
	// ErrUnavailable marks infrastructure failures the caller may retry later
	ErrUnavailable = errors.New("service temporarily unavailable")

	ErrInvalidTransition = errors.New("invalid status transition")
)

// unavailable wraps a storage or broker failure as ErrUnavailable
func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// txError maps a failed begin or commit to ErrUnavailable; errors returned
// by the transaction body are already domain errors or wrapped
func txError(err error) error {
	if errors.Is(err, repository.ErrTransaction) {
		return unavailable(err)
	}
	return err
}

// actor names the caller for logs
func actor(ctx context.Context) string {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return "system"
	}
	return userID.String()
}

// publish hands an event to the bus; delivery failures never reach the caller
func publish(ctx context.Context, log *logrus.Logger, publisher eventbus.Publisher, event eventbus.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warnf("Failed to publish %s event: %+v", event.Name, err)
	}
}
