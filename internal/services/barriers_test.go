package services_test

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"smartconnect/internal/models"
	"smartconnect/internal/services"
)

func TestBarrier_OpenThenClose_RecordsTwoEvents(t *testing.T) {
	svc, db, pub := newTestServices(t)
	ctx := context.Background()
	sensor := mustSensor(t, svc, "aa:bb:cc:dd:ee:01")
	b := mustBarrier(t, svc, "Gate1", models.BarrierClosed, &sensor.ID)

	opened, err := svc.Barriers.Open(ctx, b.ID, services.Actor{UserID: "u1"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if opened.Barrier.State != models.BarrierOpen {
		t.Errorf("expected abierta after Open, got %q", opened.Barrier.State)
	}
	if opened.Message != "Barrera abierta" {
		t.Errorf("unexpected message %q", opened.Message)
	}

	closed, err := svc.Barriers.Close(ctx, b.ID, services.Actor{UserID: "u1"})
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closed.Barrier.State != models.BarrierClosed {
		t.Errorf("expected cerrada after Close, got %q", closed.Barrier.State)
	}

	if n := countEvents(t, db, b.ID); n != 2 {
		t.Fatalf("expected 2 events, got %d", n)
	}

	first, err := svc.Events.Get(ctx, opened.Event.ID)
	if err != nil {
		t.Fatalf("get first event: %v", err)
	}
	if first.Type != models.EventOpen || first.Metadata["estado_anterior"] != "cerrada" {
		t.Errorf("first event: tipo=%q metadata=%v", first.Type, first.Metadata)
	}
	if first.SensorID != sensor.ID {
		t.Errorf("expected event sensor %s, got %s", sensor.ID, first.SensorID)
	}
	if first.Description != "Barrera Gate1 abierta" {
		t.Errorf("unexpected description %q", first.Description)
	}

	second, err := svc.Events.Get(ctx, closed.Event.ID)
	if err != nil {
		t.Fatalf("get second event: %v", err)
	}
	if second.Type != models.EventClose || second.Metadata["estado_anterior"] != "abierta" {
		t.Errorf("second event: tipo=%q metadata=%v", second.Type, second.Metadata)
	}
	if second.Timestamp.Before(first.Timestamp) {
		t.Error("expected events in transition order")
	}

	changes := pub.Changes()
	if len(changes) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(changes))
	}
	if changes[0].State != "abierta" || changes[0].PreviousState != "cerrada" || changes[0].EventID != opened.Event.ID {
		t.Errorf("unexpected first notification %+v", changes[0])
	}
}

func TestBarrier_ReopenOpenBarrier_LogsAgain(t *testing.T) {
	svc, db, _ := newTestServices(t)
	ctx := context.Background()
	sensor := mustSensor(t, svc, "AA-BB-CC-DD-EE-02")
	b := mustBarrier(t, svc, "Gate1", models.BarrierClosed, &sensor.ID)

	if _, err := svc.Barriers.Open(ctx, b.ID, services.Actor{}); err != nil {
		t.Fatalf("first Open: %v", err)
	}
	again, err := svc.Barriers.Open(ctx, b.ID, services.Actor{})
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	if again.Barrier.State != models.BarrierOpen {
		t.Errorf("expected abierta, got %q", again.Barrier.State)
	}
	if again.Event.Metadata["estado_anterior"] != "abierta" {
		t.Errorf("expected estado_anterior=abierta, got %v", again.Event.Metadata["estado_anterior"])
	}
	if n := countEvents(t, db, b.ID); n != 2 {
		t.Errorf("expected 2 events, got %d", n)
	}
}

func TestBarrier_Blocked_RejectsTransitions(t *testing.T) {
	svc, db, pub := newTestServices(t)
	ctx := context.Background()
	sensor := mustSensor(t, svc, "aa:bb:cc:dd:ee:03")
	b := mustBarrier(t, svc, "Gate2", models.BarrierBlocked, &sensor.ID)

	_, err := svc.Barriers.Close(ctx, b.ID, services.Actor{})
	expectKind(t, err, services.KindInvalidTransition)
	_, err = svc.Barriers.Open(ctx, b.ID, services.Actor{})
	expectKind(t, err, services.KindInvalidTransition)

	got, err := svc.Barriers.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != models.BarrierBlocked {
		t.Errorf("expected bloqueada to persist, got %q", got.State)
	}
	if n := countEvents(t, db, b.ID); n != 0 {
		t.Errorf("expected no events, got %d", n)
	}
	if len(pub.Changes()) != 0 {
		t.Error("expected no notifications for rejected transitions")
	}
}

func TestBarrier_WithoutSensor_CannotTransition(t *testing.T) {
	svc, db, _ := newTestServices(t)
	b := mustBarrier(t, svc, "Gate3", models.BarrierClosed, nil)

	_, err := svc.Barriers.Open(context.Background(), b.ID, services.Actor{})
	expectKind(t, err, services.KindValidation)

	got, _ := svc.Barriers.Get(context.Background(), b.ID)
	if got.State != models.BarrierClosed {
		t.Errorf("state must not change, got %q", got.State)
	}
	if n := countEvents(t, db, b.ID); n != 0 {
		t.Errorf("expected no events, got %d", n)
	}
}

func TestBarrier_UnknownID_NotFound(t *testing.T) {
	svc, _, _ := newTestServices(t)
	_, err := svc.Barriers.Open(context.Background(), "missing", services.Actor{})
	expectKind(t, err, services.KindNotFound)
}

func TestBarrier_EventCarriesActorProfile(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()
	p, err := svc.Users.Create(ctx, services.UserInput{
		Username: ptr("op1"),
		Password: ptr("pw"),
		Email:    ptr("op1@example.com"),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	sensor := mustSensor(t, svc, "aa:bb:cc:dd:ee:04")
	b := mustBarrier(t, svc, "Gate4", models.BarrierClosed, &sensor.ID)

	tr, err := svc.Barriers.Open(ctx, b.ID, services.Actor{UserID: p.UserID, ProfileID: &p.ID})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ev, err := svc.Events.Get(ctx, tr.Event.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if ev.ProfileID == nil || *ev.ProfileID != p.ID {
		t.Fatalf("expected event usuario %s, got %v", p.ID, ev.ProfileID)
	}
	if ev.Profile == nil || ev.Profile.User.Username != "op1" {
		t.Errorf("expected preloaded username op1")
	}
}

func TestBarrier_UpdateCannotChangeState(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()
	b := mustBarrier(t, svc, "Gate5", models.BarrierClosed, nil)

	_, err := svc.Barriers.Update(ctx, b.ID, services.BarrierInput{State: ptr("abierta")}, true)
	expectKind(t, err, services.KindValidation)

	updated, err := svc.Barriers.Update(ctx, b.ID, services.BarrierInput{
		Name:     ptr("Gate5b"),
		Location: ptr("Salida"),
		State:    ptr("cerrada"),
	}, false)
	if err != nil {
		t.Fatalf("Update with unchanged state: %v", err)
	}
	if updated.Name != "Gate5b" || updated.State != models.BarrierClosed {
		t.Errorf("unexpected barrier after update: %+v", updated)
	}
}

func TestBarrier_FullUpdateRequiresFields(t *testing.T) {
	svc, _, _ := newTestServices(t)
	b := mustBarrier(t, svc, "Gate6", models.BarrierClosed, nil)
	_, err := svc.Barriers.Update(context.Background(), b.ID, services.BarrierInput{Name: ptr("x")}, false)
	expectKind(t, err, services.KindValidation)
}

func TestBarrier_CreateValidatesReferencesAndState(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Barriers.Create(ctx, services.BarrierInput{
		Name: ptr("G"), Location: ptr("L"), State: ptr("rota"),
	})
	expectKind(t, err, services.KindValidation)

	_, err = svc.Barriers.Create(ctx, services.BarrierInput{
		Name: ptr("G"), Location: ptr("L"), SensorID: services.To("nope"),
	})
	expectKind(t, err, services.KindValidation)

	b, err := svc.Barriers.Create(ctx, services.BarrierInput{Name: ptr("G"), Location: ptr("L")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.State != models.BarrierClosed {
		t.Errorf("expected default cerrada, got %q", b.State)
	}
}

func TestBarrier_DeleteKeepsEvents(t *testing.T) {
	svc, db, _ := newTestServices(t)
	ctx := context.Background()
	sensor := mustSensor(t, svc, "aa:bb:cc:dd:ee:07")
	b := mustBarrier(t, svc, "Gate7", models.BarrierClosed, &sensor.ID)
	tr, err := svc.Barriers.Open(ctx, b.ID, services.Actor{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := svc.Barriers.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ev, err := svc.Events.Get(ctx, tr.Event.ID)
	if err != nil {
		t.Fatalf("event should survive barrier deletion: %v", err)
	}
	if ev.BarrierID != nil {
		t.Errorf("expected barrera cleared, got %v", *ev.BarrierID)
	}
	if n := countEvents(t, db, b.ID); n != 0 {
		t.Errorf("expected no events referencing deleted barrier, got %d", n)
	}
	expectKind(t, svc.Barriers.Delete(ctx, b.ID), services.KindNotFound)
}

func TestBarrier_StateChangedBeforeUpdate_Conflicts(t *testing.T) {
	svc, db, pub := newTestServices(t)
	ctx := context.Background()
	sensor := mustSensor(t, svc, "aa:bb:cc:dd:ee:08")
	b := mustBarrier(t, svc, "Gate8", models.BarrierClosed, &sensor.ID)

	// Another writer moves the barrier after the transition read it.
	fired := false
	err := db.Callback().Update().Before("gorm:update").Register("test:interleave", func(d *gorm.DB) {
		if fired || d.Statement.Table != "barreras" {
			return
		}
		fired = true
		d.Session(&gorm.Session{NewDB: true}).Exec("UPDATE barreras SET state = ? WHERE id = ?", models.BarrierOpen, b.ID)
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	_, err = svc.Barriers.Open(ctx, b.ID, services.Actor{})
	expectKind(t, err, services.KindConflict)
	var se *services.Error
	if !errors.As(err, &se) || se.Code != "concurrent_transition" {
		t.Errorf("expected concurrent_transition, got %v", err)
	}
	if !fired {
		t.Fatal("interleaving writer never ran")
	}
	if n := countEvents(t, db, b.ID); n != 0 {
		t.Errorf("expected no events, got %d", n)
	}
	if len(pub.Changes()) != 0 {
		t.Error("expected no notification for a lost race")
	}
}
