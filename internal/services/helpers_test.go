package services_test

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"smartconnect/internal/auth"
	"smartconnect/internal/models"
	"smartconnect/internal/notify"
	"smartconnect/internal/services"
	"smartconnect/internal/store"
)

func init() {
	auth.Cost = bcrypt.MinCost
}

// recordingPublisher captures barrier notifications for inspection.
type recordingPublisher struct {
	mu      sync.Mutex
	changes []notify.BarrierChange
}

func (p *recordingPublisher) BarrierChanged(_ context.Context, c notify.BarrierChange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
}

func (p *recordingPublisher) Changes() []notify.BarrierChange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notify.BarrierChange(nil), p.changes...)
}

// newTestServices opens a fresh in-memory database and wires every service
// against it.
func newTestServices(t *testing.T) (*services.Services, *gorm.DB, *recordingPublisher) {
	t.Helper()
	db, err := store.Open("sqlite", "file::memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	pub := &recordingPublisher{}
	return services.New(db, zap.NewNop().Sugar(), pub), db, pub
}

func ptr[T any](v T) *T { return &v }

func mustSensor(t *testing.T, svc *services.Services, mac string) models.Sensor {
	t.Helper()
	s, err := svc.Sensors.Create(context.Background(), services.SensorInput{
		MACAddress: ptr(mac),
		Name:       ptr("sensor " + mac),
	})
	if err != nil {
		t.Fatalf("create sensor: %v", err)
	}
	return s
}

func mustBarrier(t *testing.T, svc *services.Services, name string, state models.BarrierState, sensorID *string) models.Barrier {
	t.Helper()
	in := services.BarrierInput{
		Name:     ptr(name),
		Location: ptr("Entrada norte"),
		State:    ptr(string(state)),
	}
	if sensorID != nil {
		in.SensorID = services.To(*sensorID)
	}
	b, err := svc.Barriers.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create barrier: %v", err)
	}
	return b
}

func countEvents(t *testing.T, db *gorm.DB, barrierID string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.Event{}).Where("barrier_id = ?", barrierID).Count(&n).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	return n
}

func expectKind(t *testing.T, err error, want services.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := services.KindOf(err); got != want {
		t.Fatalf("expected %v error, got %v (%v)", want, got, err)
	}
}
