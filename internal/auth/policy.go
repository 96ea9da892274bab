package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"smartconnect/internal/models"
)

type Action string

const (
	ActionRead    Action = "read"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionOperate Action = "operate" // barrier abrir/cerrar
)

func (a Action) Mutating() bool {
	return a == ActionCreate || a == ActionUpdate || a == ActionDelete
}

// Decision reasons. Only ReasonGranted and ReasonSuperuser allow.
const (
	ReasonGranted          = "granted"
	ReasonSuperuser        = "superuser"
	ReasonUnauthenticated  = "unauthenticated"
	ReasonIdentityNotFound = "identity_not_found"
	ReasonIdentityInactive = "identity_inactive"
	ReasonProfileMissing   = "profile_missing"
	ReasonProfileInactive  = "profile_inactive"
	ReasonRoleNotAdmin     = "role_not_admin"
	ReasonLookupFailed     = "lookup_failed"
	ReasonUnknownAction    = "unknown_action"
)

type Decision struct {
	Allowed   bool
	Reason    string
	Principal Principal
}

type profileStatus int

const (
	profileFound profileStatus = iota
	profileMissing
	profileInactive
)

// Policy decides whether a caller may perform an action. It fails closed:
// any lookup error denies.
type Policy struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

func NewPolicy(db *gorm.DB, lg *zap.SugaredLogger) *Policy {
	return &Policy{db: db, lg: lg}
}

// lookupProfile returns the caller's profile and its status. A missing
// profile is a status, not an error; errors are store failures only.
func (p *Policy) lookupProfile(ctx context.Context, userID string) (models.UserProfile, profileStatus, error) {
	var prof models.UserProfile
	err := p.db.WithContext(ctx).First(&prof, "user_id = ?", userID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return prof, profileMissing, nil
	case err != nil:
		return prof, profileMissing, fmt.Errorf("lookup profile: %w", err)
	case !prof.Active:
		return prof, profileInactive, nil
	}
	return prof, profileFound, nil
}

func (p *Policy) Authorize(ctx context.Context, c Claims, action Action) Decision {
	if c.Subject == "" {
		return Decision{Reason: ReasonUnauthenticated}
	}

	var user models.User
	err := p.db.WithContext(ctx).First(&user, "id = ?", c.Subject).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Decision{Reason: ReasonIdentityNotFound}
	}
	if err != nil {
		p.lg.Errorw("authorization identity lookup failed", "user_id", c.Subject, "action", action, "error", err)
		return Decision{Reason: ReasonLookupFailed}
	}
	if !user.IsActive {
		return Decision{Reason: ReasonIdentityInactive}
	}

	principal := Principal{UserID: user.ID, Username: user.Username, Superuser: user.IsSuperuser}
	prof, status, err := p.lookupProfile(ctx, user.ID)
	if err != nil {
		p.lg.Errorw("authorization profile lookup failed", "user_id", user.ID, "action", action, "error", err)
		return Decision{Reason: ReasonLookupFailed}
	}
	if status != profileMissing {
		principal.ProfileID = &prof.ID
		principal.Role = prof.Role
	}

	if user.IsSuperuser {
		return Decision{Allowed: true, Reason: ReasonSuperuser, Principal: principal}
	}

	switch {
	case status == profileInactive:
		return Decision{Reason: ReasonProfileInactive, Principal: principal}
	case action == ActionRead:
		return Decision{Allowed: true, Reason: ReasonGranted, Principal: principal}
	case status == profileMissing:
		return Decision{Reason: ReasonProfileMissing, Principal: principal}
	case action.Mutating() && prof.Role != models.RoleAdmin:
		return Decision{Reason: ReasonRoleNotAdmin, Principal: principal}
	case !action.Mutating() && action != ActionOperate:
		return Decision{Reason: ReasonUnknownAction, Principal: principal}
	}
	return Decision{Allowed: true, Reason: ReasonGranted, Principal: principal}
}
