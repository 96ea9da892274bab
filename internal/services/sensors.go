package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartconnect/internal/models"
)

var macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})$`)

// NormalizeMAC validates a MAC address and returns it uppercased. Separators
// are kept as given. NormalizeMAC(NormalizeMAC(x)) == NormalizeMAC(x).
func NormalizeMAC(v string) (string, error) {
	v = strings.TrimSpace(v)
	if !macPattern.MatchString(v) {
		return "", invalid("invalid_mac_address", "invalid MAC address format, expected XX:XX:XX:XX:XX:XX")
	}
	return strings.ToUpper(v), nil
}

type SensorService struct{ base }

type SensorInput struct {
	MACAddress   *string
	Name         *string
	State        *string
	DepartmentID Ref
	// LastReading is written only when LastReadingSet is true; a nil value clears it.
	LastReading    *time.Time
	LastReadingSet bool
}

type SensorFilter struct {
	State        string
	DepartmentID string
}

func (s *SensorService) Create(ctx context.Context, in SensorInput) (models.Sensor, error) {
	sensor := models.Sensor{State: models.SensorActive}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := applySensor(tx, &sensor, in, false); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(&sensor).Error
	})
	if err != nil {
		return models.Sensor{}, s.fail("create sensor", "sensor", err)
	}
	return s.Get(ctx, sensor.ID)
}

func (s *SensorService) Get(ctx context.Context, id string) (models.Sensor, error) {
	var sensor models.Sensor
	if err := s.db.WithContext(ctx).Preload("Department").First(&sensor, "id = ?", id).Error; err != nil {
		return models.Sensor{}, s.fail("get sensor", "sensor", err)
	}
	return sensor, nil
}

func (s *SensorService) List(ctx context.Context, f SensorFilter) ([]models.Sensor, error) {
	q := s.db.WithContext(ctx).Preload("Department").Order("created_at desc")
	if f.State != "" {
		q = q.Where("state = ?", f.State)
	}
	if f.DepartmentID != "" {
		q = q.Where("department_id = ?", f.DepartmentID)
	}
	var out []models.Sensor
	if err := q.Find(&out).Error; err != nil {
		return nil, s.fail("list sensors", "sensor", err)
	}
	return out, nil
}

func (s *SensorService) Update(ctx context.Context, id string, in SensorInput, partial bool) (models.Sensor, error) {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var sensor models.Sensor
		if err := tx.First(&sensor, "id = ?", id).Error; err != nil {
			return err
		}
		if err := applySensor(tx, &sensor, in, partial); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(&sensor).Error
	})
	if err != nil {
		return models.Sensor{}, s.fail("update sensor", "sensor", err)
	}
	return s.Get(ctx, id)
}

// SetState changes the operational state. No event is recorded for sensor
// state changes.
func (s *SensorService) SetState(ctx context.Context, id, state string) (models.Sensor, error) {
	st := models.SensorState(state)
	if !st.Valid() {
		return models.Sensor{}, invalid("invalid_state", "invalid state, expected activo, inactivo or mantenimiento")
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var sensor models.Sensor
		if err := tx.First(&sensor, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&sensor).Update("state", st).Error
	})
	if err != nil {
		return models.Sensor{}, s.fail("set sensor state", "sensor", err)
	}
	return s.Get(ctx, id)
}

// Delete removes the sensor together with its events. Barriers it
// controlled lose their sensor reference.
func (s *SensorService) Delete(ctx context.Context, id string) error {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var sensor models.Sensor
		if err := tx.First(&sensor, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("sensor_id = ?", id).Delete(&models.Event{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Barrier{}).Where("sensor_id = ?", id).Update("sensor_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&sensor).Error
	})
	if err != nil {
		return s.fail("delete sensor", "sensor", err)
	}
	return nil
}

func applySensor(tx *gorm.DB, sensor *models.Sensor, in SensorInput, partial bool) error {
	err := requireAll(partial,
		present{"mac_address", in.MACAddress != nil},
		present{"nombre", in.Name != nil},
	)
	if err != nil {
		return err
	}
	if in.MACAddress != nil {
		mac, err := NormalizeMAC(*in.MACAddress)
		if err != nil {
			return err
		}
		sensor.MACAddress = mac
	}
	if in.Name != nil {
		v, err := text("nombre", *in.Name, 100, true)
		if err != nil {
			return err
		}
		sensor.Name = v
	}
	if in.State != nil {
		st := models.SensorState(*in.State)
		if !st.Valid() {
			return invalid("invalid_state", "invalid state, expected activo, inactivo or mantenimiento")
		}
		sensor.State = st
	}
	if in.DepartmentID.Set {
		if err := ensureExists(tx, &models.Department{}, "departamento", in.DepartmentID.ID); err != nil {
			return err
		}
		sensor.DepartmentID = in.DepartmentID.ID
	}
	if in.LastReadingSet {
		sensor.LastReading = in.LastReading
	}
	return nil
}
