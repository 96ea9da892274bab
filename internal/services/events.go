package services

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartconnect/internal/models"
)

type EventService struct{ base }

// EventInput describes a manually logged event. apertura and cierre are
// reserved for barrier transitions.
type EventInput struct {
	Type        string
	Description string
	SensorID    string
	BarrierID   *string
	ProfileID   *string
	Metadata    map[string]any
}

type EventFilter struct {
	Type      string
	SensorID  string
	BarrierID string
}

func (s *EventService) Create(ctx context.Context, in EventInput) (models.Event, error) {
	t := models.EventType(in.Type)
	switch {
	case !t.Valid():
		return models.Event{}, invalid("invalid_type", "invalid tipo, expected apertura, cierre, alerta or acceso_denegado")
	case t == models.EventOpen || t == models.EventClose:
		return models.Event{}, invalid("reserved_type", "apertura and cierre events are recorded by abrir and cerrar")
	}
	desc, err := text("descripcion", in.Description, 0, true)
	if err != nil {
		return models.Event{}, err
	}
	if in.SensorID == "" {
		return models.Event{}, invalid("required", "sensor is required")
	}

	ev := models.Event{
		Type:        t,
		Description: desc,
		SensorID:    in.SensorID,
		BarrierID:   in.BarrierID,
		ProfileID:   in.ProfileID,
		Metadata:    models.JSONMap(in.Metadata),
	}
	if ev.Metadata == nil {
		ev.Metadata = models.JSONMap{}
	}
	err = s.tx(ctx, func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.Sensor{}, "sensor", &in.SensorID); err != nil {
			return err
		}
		if err := ensureExists(tx, &models.Barrier{}, "barrera", in.BarrierID); err != nil {
			return err
		}
		if err := ensureExists(tx, &models.UserProfile{}, "usuario", in.ProfileID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(&ev).Error
	})
	if err != nil {
		return models.Event{}, s.fail("create event", "event", err)
	}
	return s.Get(ctx, ev.ID)
}

func (s *EventService) preload(db *gorm.DB) *gorm.DB {
	return db.Preload("Sensor").Preload("Barrier").Preload("Profile.User")
}

func (s *EventService) Get(ctx context.Context, id string) (models.Event, error) {
	var ev models.Event
	if err := s.preload(s.db.WithContext(ctx)).First(&ev, "id = ?", id).Error; err != nil {
		return models.Event{}, s.fail("get event", "event", err)
	}
	return ev, nil
}

// List returns events newest first. Events sharing a timestamp are ordered
// by id, which is time-ordered.
func (s *EventService) List(ctx context.Context, f EventFilter) ([]models.Event, error) {
	q := s.preload(s.db.WithContext(ctx)).Order("timestamp desc, id desc")
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.SensorID != "" {
		q = q.Where("sensor_id = ?", f.SensorID)
	}
	if f.BarrierID != "" {
		q = q.Where("barrier_id = ?", f.BarrierID)
	}
	var out []models.Event
	if err := q.Find(&out).Error; err != nil {
		return nil, s.fail("list events", "event", err)
	}
	return out, nil
}

func (s *EventService) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Event{}, "id = ?", id)
	if res.Error != nil {
		return s.fail("delete event", "event", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("event")
	}
	return nil
}
