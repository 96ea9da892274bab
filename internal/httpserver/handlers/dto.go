package handlers

import (
	"bytes"
	"encoding/json"
	"time"

	"smartconnect/internal/models"
	"smartconnect/internal/services"
)

// optionalID distinguishes an absent reference from an explicit null.
type optionalID struct {
	set bool
	id  *string
}

func (o *optionalID) UnmarshalJSON(b []byte) error {
	o.set = true
	if bytes.Equal(b, []byte("null")) {
		o.id = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		o.id = nil
		return nil
	}
	o.id = &s
	return nil
}

func (o optionalID) ref() services.Ref { return services.Ref{Set: o.set, ID: o.id} }

type optionalTime struct {
	set bool
	t   *time.Time
}

func (o *optionalTime) UnmarshalJSON(b []byte) error {
	o.set = true
	if bytes.Equal(b, []byte("null")) {
		o.t = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	o.t = &t
	return nil
}

// Departments

type departmentIn struct {
	Nombre      *string `json:"nombre"`
	Descripcion *string `json:"descripcion"`
	Activo      *bool   `json:"activo"`
}

func (in departmentIn) toInput() services.DepartmentInput {
	return services.DepartmentInput{Name: in.Nombre, Description: in.Descripcion, Active: in.Activo}
}

type departmentOut struct {
	ID            string    `json:"id"`
	Nombre        string    `json:"nombre"`
	Descripcion   string    `json:"descripcion"`
	Activo        bool      `json:"activo"`
	TotalSensores int64     `json:"total_sensores"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func departmentFrom(d services.DepartmentSummary) departmentOut {
	return departmentOut{
		ID:            d.ID,
		Nombre:        d.Name,
		Descripcion:   d.Description,
		Activo:        d.Active,
		TotalSensores: d.TotalSensors,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// Sensors

type sensorIn struct {
	MACAddress    *string      `json:"mac_address"`
	Nombre        *string      `json:"nombre"`
	Estado        *string      `json:"estado"`
	Departamento  optionalID   `json:"departamento"`
	UltimaLectura optionalTime `json:"ultima_lectura"`
}

func (in sensorIn) toInput() services.SensorInput {
	return services.SensorInput{
		MACAddress:     in.MACAddress,
		Name:           in.Nombre,
		State:          in.Estado,
		DepartmentID:   in.Departamento.ref(),
		LastReading:    in.UltimaLectura.t,
		LastReadingSet: in.UltimaLectura.set,
	}
}

type sensorOut struct {
	ID                 string     `json:"id"`
	MACAddress         string     `json:"mac_address"`
	Nombre             string     `json:"nombre"`
	Estado             string     `json:"estado"`
	Departamento       *string    `json:"departamento"`
	DepartamentoNombre *string    `json:"departamento_nombre"`
	UltimaLectura      *time.Time `json:"ultima_lectura"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func sensorFrom(s models.Sensor) sensorOut {
	out := sensorOut{
		ID:            s.ID,
		MACAddress:    s.MACAddress,
		Nombre:        s.Name,
		Estado:        string(s.State),
		Departamento:  s.DepartmentID,
		UltimaLectura: s.LastReading,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.Department != nil {
		out.DepartamentoNombre = &s.Department.Name
	}
	return out
}

func sensorsFrom(in []models.Sensor) []sensorOut {
	out := make([]sensorOut, 0, len(in))
	for _, s := range in {
		out = append(out, sensorFrom(s))
	}
	return out
}

// Users

type userIn struct {
	Username     *string    `json:"username"`
	Password     *string    `json:"password"`
	Email        *string    `json:"email"`
	Rol          *string    `json:"rol"`
	Departamento optionalID `json:"departamento"`
	Telefono     *string    `json:"telefono"`
	Activo       *bool      `json:"activo"`
}

func (in userIn) toInput() services.UserInput {
	return services.UserInput{
		Username:     in.Username,
		Password:     in.Password,
		Email:        in.Email,
		Role:         in.Rol,
		DepartmentID: in.Departamento.ref(),
		Phone:        in.Telefono,
		Active:       in.Activo,
	}
}

type identityOut struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type userOut struct {
	ID                 string      `json:"id"`
	User               identityOut `json:"user"`
	Rol                string      `json:"rol"`
	Departamento       *string     `json:"departamento"`
	DepartamentoNombre *string     `json:"departamento_nombre"`
	Telefono           string      `json:"telefono"`
	Activo             bool        `json:"activo"`
	CreatedAt          time.Time   `json:"created_at"`
}

func userFrom(p models.UserProfile) userOut {
	out := userOut{
		ID:           p.ID,
		User:         identityOut{ID: p.User.ID, Username: p.User.Username, Email: p.User.Email},
		Rol:          string(p.Role),
		Departamento: p.DepartmentID,
		Telefono:     p.Phone,
		Activo:       p.Active,
		CreatedAt:    p.CreatedAt,
	}
	if p.Department != nil {
		out.DepartamentoNombre = &p.Department.Name
	}
	return out
}

// Barriers

type barrierIn struct {
	Nombre       *string    `json:"nombre"`
	Ubicacion    *string    `json:"ubicacion"`
	Estado       *string    `json:"estado"`
	Sensor       optionalID `json:"sensor"`
	Departamento optionalID `json:"departamento"`
}

func (in barrierIn) toInput() services.BarrierInput {
	return services.BarrierInput{
		Name:         in.Nombre,
		Location:     in.Ubicacion,
		State:        in.Estado,
		SensorID:     in.Sensor.ref(),
		DepartmentID: in.Departamento.ref(),
	}
}

type barrierOut struct {
	ID                 string    `json:"id"`
	Nombre             string    `json:"nombre"`
	Ubicacion          string    `json:"ubicacion"`
	Estado             string    `json:"estado"`
	Sensor             *string   `json:"sensor"`
	SensorNombre       *string   `json:"sensor_nombre"`
	Departamento       *string   `json:"departamento"`
	DepartamentoNombre *string   `json:"departamento_nombre"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func barrierFrom(b models.Barrier) barrierOut {
	out := barrierOut{
		ID:           b.ID,
		Nombre:       b.Name,
		Ubicacion:    b.Location,
		Estado:       string(b.State),
		Sensor:       b.SensorID,
		Departamento: b.DepartmentID,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
	if b.Sensor != nil {
		out.SensorNombre = &b.Sensor.Name
	}
	if b.Department != nil {
		out.DepartamentoNombre = &b.Department.Name
	}
	return out
}

// Events

type eventIn struct {
	Tipo        string         `json:"tipo"`
	Descripcion string         `json:"descripcion"`
	Sensor      string         `json:"sensor"`
	Barrera     *string        `json:"barrera"`
	Usuario     *string        `json:"usuario"`
	Metadata    map[string]any `json:"metadata"`
}

func (in eventIn) toInput() services.EventInput {
	return services.EventInput{
		Type:        in.Tipo,
		Description: in.Descripcion,
		SensorID:    in.Sensor,
		BarrierID:   in.Barrera,
		ProfileID:   in.Usuario,
		Metadata:    in.Metadata,
	}
}

type eventOut struct {
	ID            string         `json:"id"`
	Tipo          string         `json:"tipo"`
	Descripcion   string         `json:"descripcion"`
	Sensor        string         `json:"sensor"`
	SensorNombre  string         `json:"sensor_nombre"`
	Barrera       *string        `json:"barrera"`
	BarreraNombre *string        `json:"barrera_nombre"`
	Usuario       *string        `json:"usuario"`
	UsuarioNombre *string        `json:"usuario_nombre"`
	Timestamp     time.Time      `json:"timestamp"`
	Metadata      map[string]any `json:"metadata"`
}

func eventFrom(e models.Event) eventOut {
	out := eventOut{
		ID:           e.ID,
		Tipo:         string(e.Type),
		Descripcion:  e.Description,
		Sensor:       e.SensorID,
		SensorNombre: e.Sensor.Name,
		Barrera:      e.BarrierID,
		Usuario:      e.ProfileID,
		Timestamp:    e.Timestamp,
		Metadata:     map[string]any(e.Metadata),
	}
	if out.Metadata == nil {
		out.Metadata = map[string]any{}
	}
	if e.Barrier != nil {
		out.BarreraNombre = &e.Barrier.Name
	}
	if e.Profile != nil && e.Profile.User.Username != "" {
		out.UsuarioNombre = &e.Profile.User.Username
	}
	return out
}
