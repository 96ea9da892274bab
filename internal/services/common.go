// Package services holds the resource services and barrier control. Every
// exported method returns either a result or an *Error.
package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"smartconnect/internal/notify"
	"smartconnect/internal/store"
)

// Ref is an optional foreign-key assignment on write. Set=false leaves the
// column untouched; Set with a nil ID clears it.
type Ref struct {
	Set bool
	ID  *string
}

// To builds a Ref pointing at id.
func To(id string) Ref { return Ref{Set: true, ID: &id} }

// Actor is the caller on whose behalf an operation runs.
type Actor struct {
	UserID    string
	ProfileID *string
}

type Services struct {
	Departments *DepartmentService
	Sensors     *SensorService
	Users       *UserService
	Barriers    *BarrierService
	Events      *EventService
}

func New(db *gorm.DB, lg *zap.SugaredLogger, pub notify.Publisher) *Services {
	if pub == nil {
		pub = notify.Nop{}
	}
	b := base{db: db, lg: lg}
	return &Services{
		Departments: &DepartmentService{base: b},
		Sensors:     &SensorService{base: b},
		Users:       &UserService{base: b},
		Barriers:    &BarrierService{base: b, pub: pub},
		Events:      &EventService{base: b},
	}
}

type base struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

// fail converts a store error into an *Error, logging anything unexpected.
func (b base) fail(op, entity string, err error) error {
	var se *Error
	switch {
	case errors.As(err, &se):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound(entity)
	case store.IsUniqueViolation(err):
		return conflict("duplicate", entity+" already exists", err)
	case store.IsForeignKeyViolation(err):
		return invalid("invalid_reference", "referenced record does not exist")
	}
	b.lg.Errorw(op+" failed", "entity", entity, "error", err)
	return internal(op, err)
}

func (b base) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return b.db.WithContext(ctx).Transaction(fn)
}

func ensureExists(tx *gorm.DB, model any, field string, id *string) error {
	if id == nil {
		return nil
	}
	var n int64
	if err := tx.Model(model).Where("id = ?", *id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return invalid("invalid_reference", field+" does not exist")
	}
	return nil
}

// text validates and trims a string field. required rejects empty values.
func text(field string, v string, limit int, required bool) (string, error) {
	v = strings.TrimSpace(v)
	if required && v == "" {
		return "", invalid("required", field+" is required")
	}
	if limit > 0 && utf8.RuneCountInString(v) > limit {
		return "", invalid("too_long", field+" must be at most "+strconv.Itoa(limit)+" characters")
	}
	return v, nil
}

type present struct {
	field string
	ok    bool
}

// requireAll fails a full (non-partial) write that omits a required field.
func requireAll(partial bool, fields ...present) error {
	if partial {
		return nil
	}
	for _, f := range fields {
		if !f.ok {
			return invalid("required", f.field+" is required")
		}
	}
	return nil
}
