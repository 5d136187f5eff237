// pkg/engine/boost.go
package engine

import (
	"context"

	"github.com/opd-ai/go-skymount/pkg/entity"
	"github.com/opd-ai/go-skymount/pkg/event"
	"github.com/opd-ai/go-skymount/pkg/logging"
	"github.com/opd-ai/go-skymount/pkg/world"
)

// UseItem handles a rider using the item in its main hand. Holding the boost
// item while sitting in the controlling seat of the nearest mount consumes
// one item and boosts that mount. The launch sound plays for any rider of
// the mount, even one that cannot steer.
func (s *Simulation) UseItem(rider entity.ID) error {
	return s.UseItemContext(context.Background(), rider)
}

// UseItemContext is UseItem with the request's context. Log lines for the
// request carry the context's correlation ID, or a fresh one if it has none.
func (s *Simulation) UseItemContext(ctx context.Context, rider entity.ID) error {
	if logging.CorrelationID(ctx) == "" {
		ctx = logging.WithCorrelationID(ctx, "")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	mountID, err := s.useItem(rider)
	if err != nil {
		s.logger.Debug(ctx, "boost rejected",
			"rider_id", uint64(rider),
			"mount_id", uint64(mountID),
			"reason", err.Error(),
		)
		return err
	}

	r, _ := s.world.RiderByID(rider)
	s.logger.Info(ctx, "boost item used",
		"rider_id", uint64(rider),
		"mount_id", uint64(mountID),
		"ticks", s.Config.Boost.Ticks,
		"remaining", r.MainHand.Count,
	)
	return nil
}

func (s *Simulation) useItem(rider entity.ID) (entity.ID, error) {
	boost := s.Config.Boost
	r, ok := s.world.RiderByID(rider)
	if !ok {
		return entity.None, logging.WrapError(world.ErrUnknownEntity, "use item: rider %d", rider)
	}
	if !r.MainHand.Is(boost.Item) {
		return entity.None, ErrNotHoldingBoostItem
	}

	mountID, ok := s.world.NearestMount(r.Position, entity.Kind(boost.MountType), boost.SearchRadius)
	if !ok {
		return entity.None, ErrNoMountNearby
	}
	mount, _ := s.world.MountByID(mountID)
	if !mount.HasRider(rider) {
		return mountID, ErrNotRiding
	}

	s.registry.Settings().Sink.PlaySound(rider, boost.Sound)

	controller := s.registry.GetController(mountID)
	if current, ok := controller.CurrentRider(); !ok || current != rider {
		return mountID, ErrNotControlling
	}

	s.world.ConsumeMainHand(rider, 1)
	controller.StartJet(boost.Ticks, boost.Speed)
	s.EventBus.Publish(event.NewFlightEvent(event.BoostItemUsed, s, uint64(mountID), uint64(rider)))
	return mountID, nil
}
