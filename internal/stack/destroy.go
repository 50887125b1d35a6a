package stack

import (
	"context"
	"errors"
	"fmt"
)

// Destroyer tears a deployed stack down in reverse dependency order
type Destroyer struct {
	Backend Backend
	OnEvent EventFunc
}

// Destroy removes every resource of the plan, newest-dependency first.
// Resources that are already gone are skipped, so an interrupted
// teardown can be re-run.
func (d *Destroyer) Destroy(ctx context.Context, plan *Plan) error {
	order := plan.Order()

	for i := len(order) - 1; i >= 0; i-- {
		kind := order[i]
		d.emit(Event{Kind: kind, Action: "destroying"})

		err := d.Backend.Destroy(ctx, plan, kind)
		if errors.Is(err, ErrNotFound) {
			d.emit(Event{Kind: kind, Action: "destroyed", Detail: "not present"})
			continue
		}
		if err != nil {
			d.emit(Event{Kind: kind, Action: "failed", Detail: err.Error()})
			return fmt.Errorf("failed to destroy %s: %w", kind, err)
		}

		d.emit(Event{Kind: kind, Action: "destroyed"})
	}

	return nil
}

func (d *Destroyer) emit(e Event) {
	if d.OnEvent != nil {
		d.OnEvent(e)
	}
}
