package order

import (
	"fmt"

	"github.com/example/ec-order-engine/internal/model"
)

// forwardTransitions is the linear fulfilment path. Administrative updates may
// leave it; callers use IsForward to tell the two apart.
var forwardTransitions = map[model.Status][]model.Status{
	model.StatusPlaced:    {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusShipped},
	model.StatusShipped:   {model.StatusDelivered},
	model.StatusDelivered: {}, // terminal state
	model.StatusCancelled: {}, // terminal state
}

// IsForward reports whether from -> to follows the fulfilment path
func IsForward(from, to model.Status) bool {
	for _, s := range forwardTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ParseStatus converts user input into a known status
func ParseStatus(raw string) (model.Status, error) {
	s := model.Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// CheckCancellable returns ErrInvalidState unless the order is PLACED
func CheckCancellable(o *model.Order) error {
	if o.Status != model.StatusPlaced {
		return fmt.Errorf("%w: cannot cancel order in status %s", ErrInvalidState, o.Status)
	}
	return nil
}

// CheckOwner returns ErrForbidden when ownerID does not own the order
func CheckOwner(o *model.Order, ownerID string) error {
	if o.OwnerID != ownerID {
		return ErrForbidden
	}
	return nil
}

// updatableStatuses are the statuses an administrative update may overwrite
func updatableStatuses() []model.Status {
	out := make([]model.Status, 0, len(model.AllStatuses))
	for _, s := range model.AllStatuses {
		if s != model.StatusCancelled {
			out = append(out, s)
		}
	}
	return out
}
