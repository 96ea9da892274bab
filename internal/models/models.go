package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SensorState string

const (
	SensorActive      SensorState = "activo"
	SensorInactive    SensorState = "inactivo"
	SensorMaintenance SensorState = "mantenimiento"
)

func (s SensorState) Valid() bool {
	switch s {
	case SensorActive, SensorInactive, SensorMaintenance:
		return true
	}
	return false
}

type BarrierState string

const (
	BarrierOpen    BarrierState = "abierta"
	BarrierClosed  BarrierState = "cerrada"
	BarrierBlocked BarrierState = "bloqueada"
)

func (s BarrierState) Valid() bool {
	switch s {
	case BarrierOpen, BarrierClosed, BarrierBlocked:
		return true
	}
	return false
}

type EventType string

const (
	EventOpen         EventType = "apertura"
	EventClose        EventType = "cierre"
	EventAlert        EventType = "alerta"
	EventAccessDenied EventType = "acceso_denegado"
)

func (t EventType) Valid() bool {
	switch t {
	case EventOpen, EventClose, EventAlert, EventAccessDenied:
		return true
	}
	return false
}

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operador"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleOperator
}

// User is the authentication identity. Domain attributes live on UserProfile.
type User struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Username     string    `gorm:"uniqueIndex;size:150;not null"`
	Email        string    `gorm:"size:254"`
	PasswordHash string    `gorm:"not null"`
	IsSuperuser  bool      `gorm:"not null"`
	IsActive     bool      `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Department struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Name        string    `gorm:"uniqueIndex;size:100;not null"`
	Description string    `gorm:"type:text"`
	Active      bool      `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Department) TableName() string { return "departamentos" }

type Sensor struct {
	ID           string      `gorm:"primaryKey;size:36"`
	MACAddress   string      `gorm:"column:mac_address;uniqueIndex;size:17;not null"`
	Name         string      `gorm:"size:100;not null"`
	State        SensorState `gorm:"size:20;not null;default:activo"`
	DepartmentID *string     `gorm:"size:36;index"`
	Department   *Department `gorm:"constraint:OnDelete:SET NULL"`
	LastReading  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Sensor) TableName() string { return "sensores" }

type UserProfile struct {
	ID           string      `gorm:"primaryKey;size:36"`
	UserID       string      `gorm:"size:36;uniqueIndex;not null"`
	User         User        `gorm:"constraint:OnDelete:CASCADE"`
	Role         Role        `gorm:"size:20;not null;default:operador"`
	DepartmentID *string     `gorm:"size:36;index"`
	Department   *Department `gorm:"constraint:OnDelete:SET NULL"`
	Phone        string      `gorm:"size:15"`
	Active       bool        `gorm:"not null"`
	CreatedAt    time.Time
}

func (UserProfile) TableName() string { return "usuarios" }

type Barrier struct {
	ID           string       `gorm:"primaryKey;size:36"`
	Name         string       `gorm:"size:100;not null"`
	Location     string       `gorm:"size:200"`
	State        BarrierState `gorm:"size:20;not null;default:cerrada"`
	SensorID     *string      `gorm:"size:36;index"`
	Sensor       *Sensor      `gorm:"constraint:OnDelete:SET NULL"`
	DepartmentID *string      `gorm:"size:36;index"`
	Department   *Department  `gorm:"constraint:OnDelete:SET NULL"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Barrier) TableName() string { return "barreras" }

// Event is an append-only audit record. Timestamp is set on insert and never
// written again.
type Event struct {
	ID          string       `gorm:"primaryKey;size:36"`
	Type        EventType    `gorm:"size:30;not null;index"`
	Description string       `gorm:"type:text"`
	SensorID    string       `gorm:"size:36;not null;index"`
	Sensor      Sensor       `gorm:"constraint:OnDelete:CASCADE"`
	BarrierID   *string      `gorm:"size:36;index"`
	Barrier     *Barrier     `gorm:"constraint:OnDelete:SET NULL"`
	ProfileID   *string      `gorm:"column:usuario_id;size:36;index"`
	Profile     *UserProfile `gorm:"foreignKey:ProfileID;constraint:OnDelete:SET NULL"`
	Timestamp   time.Time    `gorm:"not null;index;<-:create"`
	Metadata    JSONMap
}

func (Event) TableName() string { return "eventos" }

// All lists every table in dependency order for AutoMigrate.
func All() []any {
	return []any{&User{}, &Department{}, &Sensor{}, &UserProfile{}, &Barrier{}, &Event{}}
}

func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error        { newID(&u.ID); return nil }
func (d *Department) BeforeCreate(*gorm.DB) error  { newID(&d.ID); return nil }
func (s *Sensor) BeforeCreate(*gorm.DB) error      { newID(&s.ID); return nil }
func (p *UserProfile) BeforeCreate(*gorm.DB) error { newID(&p.ID); return nil }
func (b *Barrier) BeforeCreate(*gorm.DB) error     { newID(&b.ID); return nil }

// Event ids are UUIDv7 so that id order follows insertion order within a
// process, breaking ties between events stamped in the same clock tick.
func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		e.ID = id.String()
	}
	e.Timestamp = time.Now().UTC()
	return nil
}
