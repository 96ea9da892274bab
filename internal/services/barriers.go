package services

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartconnect/internal/models"
	"smartconnect/internal/notify"
)

type BarrierService struct {
	base
	pub notify.Publisher
}

type BarrierInput struct {
	Name         *string
	Location     *string
	State        *string
	SensorID     Ref
	DepartmentID Ref
}

// Transition is the outcome of a successful Open or Close.
type Transition struct {
	Barrier models.Barrier
	Event   models.Event
	Message string
}

// Open moves the barrier to abierta and records an apertura event.
func (s *BarrierService) Open(ctx context.Context, id string, actor Actor) (Transition, error) {
	return s.transition(ctx, id, actor, models.BarrierOpen)
}

// Close moves the barrier to cerrada and records a cierre event.
func (s *BarrierService) Close(ctx context.Context, id string, actor Actor) (Transition, error) {
	return s.transition(ctx, id, actor, models.BarrierClosed)
}

// transition is the only path that writes barreras.state after creation.
// The state change and its event commit together or not at all.
func (s *BarrierService) transition(ctx context.Context, id string, actor Actor, target models.BarrierState) (Transition, error) {
	evType, verb, message := models.EventOpen, "abierta", "Barrera abierta"
	if target == models.BarrierClosed {
		evType, verb, message = models.EventClose, "cerrada", "Barrera cerrada"
	}

	var (
		barrier models.Barrier
		event   models.Event
		prior   models.BarrierState
	)
	err := s.tx(ctx, func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&barrier, "id = ?", id).Error; err != nil {
			return err
		}
		prior = barrier.State
		if prior == models.BarrierBlocked {
			return ErrBarrierBlocked
		}
		if barrier.SensorID == nil {
			return invalid("barrier_without_sensor", "barrier has no controlling sensor, cannot record the event")
		}

		now := time.Now().UTC()
		res := tx.Model(&models.Barrier{}).
			Where("id = ? AND state = ?", id, prior).
			Updates(map[string]any{"state": target, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrConcurrentTransition
		}
		barrier.State = target
		barrier.UpdatedAt = now

		event = models.Event{
			Type:        evType,
			Description: "Barrera " + barrier.Name + " " + verb,
			SensorID:    *barrier.SensorID,
			BarrierID:   &barrier.ID,
			ProfileID:   actor.ProfileID,
			Metadata:    models.JSONMap{"estado_anterior": string(prior)},
		}
		return tx.Omit(clause.Associations).Create(&event).Error
	})
	if err != nil {
		if KindOf(err) == KindInvalidTransition {
			s.lg.Infow("barrier transition rejected", "barrier_id", id, "target", target, "actor", actor.UserID)
		}
		return Transition{}, s.fail("barrier transition", "barrier", err)
	}

	s.lg.Infow("barrier transition",
		"barrier_id", id, "from", prior, "to", target, "event_id", event.ID, "actor", actor.UserID)
	s.pub.BarrierChanged(ctx, notify.BarrierChange{
		BarrierID:     barrier.ID,
		Name:          barrier.Name,
		State:         string(target),
		PreviousState: string(prior),
		EventID:       event.ID,
		Timestamp:     event.Timestamp,
	})

	full, err := s.Get(ctx, id)
	if err != nil {
		return Transition{}, err
	}
	return Transition{Barrier: full, Event: event, Message: message}, nil
}

func (s *BarrierService) Create(ctx context.Context, in BarrierInput) (models.Barrier, error) {
	b := models.Barrier{State: models.BarrierClosed}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := requireAll(false,
			present{"nombre", in.Name != nil},
			present{"ubicacion", in.Location != nil},
		); err != nil {
			return err
		}
		if in.State != nil {
			st := models.BarrierState(*in.State)
			if !st.Valid() {
				return invalid("invalid_state", "invalid state, expected abierta, cerrada or bloqueada")
			}
			b.State = st
		}
		if err := applyBarrier(tx, &b, in); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(&b).Error
	})
	if err != nil {
		return models.Barrier{}, s.fail("create barrier", "barrier", err)
	}
	return s.Get(ctx, b.ID)
}

func (s *BarrierService) Get(ctx context.Context, id string) (models.Barrier, error) {
	var b models.Barrier
	if err := s.db.WithContext(ctx).Preload("Sensor").Preload("Department").First(&b, "id = ?", id).Error; err != nil {
		return models.Barrier{}, s.fail("get barrier", "barrier", err)
	}
	return b, nil
}

func (s *BarrierService) List(ctx context.Context) ([]models.Barrier, error) {
	var out []models.Barrier
	if err := s.db.WithContext(ctx).Preload("Sensor").Preload("Department").Order("name").Find(&out).Error; err != nil {
		return nil, s.fail("list barriers", "barrier", err)
	}
	return out, nil
}

// Update edits descriptive fields and references. The state can only be
// changed through Open and Close; a payload repeating the current state is
// accepted.
func (s *BarrierService) Update(ctx context.Context, id string, in BarrierInput, partial bool) (models.Barrier, error) {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := requireAll(partial,
			present{"nombre", in.Name != nil},
			present{"ubicacion", in.Location != nil},
		); err != nil {
			return err
		}
		var b models.Barrier
		if err := tx.First(&b, "id = ?", id).Error; err != nil {
			return err
		}
		if in.State != nil && models.BarrierState(*in.State) != b.State {
			return invalid("state_not_writable", "estado can only change through abrir or cerrar")
		}
		if err := applyBarrier(tx, &b, in); err != nil {
			return err
		}
		return tx.Omit(clause.Associations, "state").Save(&b).Error
	})
	if err != nil {
		return models.Barrier{}, s.fail("update barrier", "barrier", err)
	}
	return s.Get(ctx, id)
}

// Delete removes the barrier. Its events stay with the reference cleared.
func (s *BarrierService) Delete(ctx context.Context, id string) error {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var b models.Barrier
		if err := tx.First(&b, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Event{}).Where("barrier_id = ?", id).Update("barrier_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&b).Error
	})
	if err != nil {
		return s.fail("delete barrier", "barrier", err)
	}
	return nil
}

func applyBarrier(tx *gorm.DB, b *models.Barrier, in BarrierInput) error {
	if in.Name != nil {
		v, err := text("nombre", *in.Name, 100, true)
		if err != nil {
			return err
		}
		b.Name = v
	}
	if in.Location != nil {
		v, err := text("ubicacion", *in.Location, 200, true)
		if err != nil {
			return err
		}
		b.Location = v
	}
	if in.SensorID.Set {
		if err := ensureExists(tx, &models.Sensor{}, "sensor", in.SensorID.ID); err != nil {
			return err
		}
		b.SensorID = in.SensorID.ID
	}
	if in.DepartmentID.Set {
		if err := ensureExists(tx, &models.Department{}, "departamento", in.DepartmentID.ID); err != nil {
			return err
		}
		b.DepartmentID = in.DepartmentID.ID
	}
	return nil
}
