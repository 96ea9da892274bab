package services_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"smartconnect/internal/auth"
	"smartconnect/internal/models"
	"smartconnect/internal/services"
)

func TestUser_CreateProvisionsIdentityAndProfile(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	p, err := svc.Users.Create(ctx, services.UserInput{
		Username: ptr("jorge"),
		Password: ptr("s3cret"),
		Email:    ptr("Jorge@Example.com"),
		Role:     ptr("admin"),
		Phone:    ptr("+56911112222"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Role != models.RoleAdmin || !p.Active {
		t.Errorf("unexpected profile %+v", p)
	}
	if p.User.Username != "jorge" || p.User.Email != "jorge@example.com" {
		t.Errorf("unexpected identity %+v", p.User)
	}
	if !p.User.IsActive || p.User.IsSuperuser {
		t.Errorf("expected active non-superuser identity")
	}
	if err := auth.CheckPassword(p.User.PasswordHash, "s3cret"); err != nil {
		t.Errorf("password not stored as bcrypt hash: %v", err)
	}
}

func TestUser_CreateDefaultsToOperator(t *testing.T) {
	svc, _, _ := newTestServices(t)
	p, err := svc.Users.Create(context.Background(), services.UserInput{
		Username: ptr("op"), Password: ptr("pw"), Email: ptr("op@example.com"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Role != models.RoleOperator {
		t.Errorf("expected operador, got %q", p.Role)
	}
}

func TestUser_FailedProfileLeavesNoIdentity(t *testing.T) {
	svc, db, _ := newTestServices(t)
	ctx := context.Background()

	cases := []services.UserInput{
		{Username: ptr("x1"), Password: ptr("pw"), Email: ptr("x1@example.com"), Role: ptr("root")},
		{Username: ptr("x2"), Password: ptr("pw"), Email: ptr("x2@example.com"), DepartmentID: services.To("missing")},
		{Username: ptr("x3"), Password: ptr("pw"), Email: ptr("x3@example.com"), Phone: ptr("0123456789012345")},
	}
	for _, in := range cases {
		_, err := svc.Users.Create(ctx, in)
		expectKind(t, err, services.KindValidation)
	}

	var n int64
	db.Model(&models.User{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected no orphaned identities, found %d", n)
	}
}

func TestUser_RequiredFieldsAndDuplicates(t *testing.T) {
	svc, db, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Users.Create(ctx, services.UserInput{Username: ptr("a"), Password: ptr("pw")})
	expectKind(t, err, services.KindValidation)
	_, err = svc.Users.Create(ctx, services.UserInput{Username: ptr("a"), Password: ptr("pw"), Email: ptr("bad")})
	expectKind(t, err, services.KindValidation)

	if _, err := svc.Users.Create(ctx, services.UserInput{Username: ptr("a"), Password: ptr("pw"), Email: ptr("a@example.com")}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = svc.Users.Create(ctx, services.UserInput{Username: ptr("a"), Password: ptr("pw"), Email: ptr("b@example.com")})
	expectKind(t, err, services.KindConflict)

	var n int64
	db.Model(&models.User{}).Count(&n)
	if n != 1 {
		t.Errorf("expected exactly one identity, got %d", n)
	}
}

func TestUser_ListByRoleSortedByUsername(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()
	for _, u := range []struct{ name, role string }{{"zoe", "operador"}, {"ana", "operador"}, {"max", "admin"}} {
		if _, err := svc.Users.Create(ctx, services.UserInput{
			Username: ptr(u.name), Password: ptr("pw"), Email: ptr(u.name + "@example.com"), Role: ptr(u.role),
		}); err != nil {
			t.Fatalf("Create %s: %v", u.name, err)
		}
	}

	ops, err := svc.Users.List(ctx, "operador")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ops) != 2 || ops[0].User.Username != "ana" || ops[1].User.Username != "zoe" {
		t.Fatalf("unexpected operators %+v", ops)
	}
	all, _ := svc.Users.List(ctx, "")
	if len(all) != 3 || all[1].User.Username != "max" {
		t.Fatalf("unexpected ordering")
	}
}

func TestUser_UpdateAndDelete(t *testing.T) {
	svc, db, _ := newTestServices(t)
	ctx := context.Background()
	p, err := svc.Users.Create(ctx, services.UserInput{Username: ptr("u"), Password: ptr("old"), Email: ptr("u@example.com")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	up, err := svc.Users.Update(ctx, p.ID, services.UserInput{
		Role:     ptr("admin"),
		Active:   ptr(false),
		Password: ptr("new"),
	}, true)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if up.Role != models.RoleAdmin || up.Active {
		t.Errorf("unexpected profile after update %+v", up)
	}
	if auth.CheckPassword(up.User.PasswordHash, "new") != nil {
		t.Error("expected password changed")
	}

	sensor := mustSensor(t, svc, "10:00:00:00:00:01")
	ev, err := svc.Events.Create(ctx, services.EventInput{
		Type: "acceso_denegado", Description: "tarjeta invalida", SensorID: sensor.ID, ProfileID: &p.ID,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	if err := svc.Users.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var n int64
	db.Model(&models.User{}).Where("id = ?", p.UserID).Count(&n)
	if n != 0 {
		t.Error("expected identity removed with profile")
	}
	got, err := svc.Events.Get(ctx, ev.ID)
	if err != nil {
		t.Fatalf("event should survive: %v", err)
	}
	if got.ProfileID != nil {
		t.Error("expected event usuario cleared")
	}
}

func TestUser_RejectsOverlongPassword(t *testing.T) {
	svc, db, _ := newTestServices(t)
	ctx := context.Background()
	long := strings.Repeat("p", 80)

	_, err := svc.Users.Create(ctx, services.UserInput{Username: ptr("long"), Password: &long, Email: ptr("long@example.com")})
	expectKind(t, err, services.KindValidation)
	var se *services.Error
	if !errors.As(err, &se) || se.Code != "password_too_long" {
		t.Errorf("expected password_too_long, got %v", err)
	}
	var n int64
	db.Model(&models.User{}).Count(&n)
	if n != 0 {
		t.Errorf("expected no identity created, got %d", n)
	}

	p, err := svc.Users.Create(ctx, services.UserInput{Username: ptr("ok"), Password: ptr(strings.Repeat("p", 72)), Email: ptr("ok@example.com")})
	if err != nil {
		t.Fatalf("72-byte password should be accepted: %v", err)
	}
	_, err = svc.Users.Update(ctx, p.ID, services.UserInput{Password: &long}, true)
	expectKind(t, err, services.KindValidation)
}

func TestUser_EmailMustBeBareAddress(t *testing.T) {
	svc, db, _ := newTestServices(t)
	ctx := context.Background()

	for i, email := range []string{"Bob Smith <bob@x.cl>", "<bob@x.cl>", "bob@x.cl (Bob)", "bob"} {
		_, err := svc.Users.Create(ctx, services.UserInput{
			Username: ptr("bob" + strconv.Itoa(i)), Password: ptr("pw"), Email: ptr(email),
		})
		if services.KindOf(err) != services.KindValidation {
			t.Errorf("email %q: expected validation error, got %v", email, err)
		}
	}
	var n int64
	db.Model(&models.User{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected no identities stored, got %d", n)
	}

	p, err := svc.Users.Create(ctx, services.UserInput{Username: ptr("bob"), Password: ptr("pw"), Email: ptr(" Bob@X.cl ")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.User.Email != "bob@x.cl" {
		t.Errorf("expected normalized address, got %q", p.User.Email)
	}
}
