package services

import (
	"context"
	"net/mail"
	"slices"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartconnect/internal/auth"
	"smartconnect/internal/models"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

type UserService struct{ base }

// UserInput covers both the identity (Username, Password, Email) and the
// profile fields.
type UserInput struct {
	Username     *string
	Password     *string
	Email        *string
	Role         *string
	DepartmentID Ref
	Phone        *string
	Active       *bool
}

// Create provisions the authentication identity and its profile in one
// transaction. A failure at any step leaves neither row behind.
func (s *UserService) Create(ctx context.Context, in UserInput) (models.UserProfile, error) {
	if err := requireAll(false,
		present{"username", in.Username != nil},
		present{"password", in.Password != nil},
		present{"email", in.Email != nil},
	); err != nil {
		return models.UserProfile{}, err
	}
	var profileID string
	err := s.tx(ctx, func(tx *gorm.DB) error {
		user := models.User{IsActive: true}
		if err := applyIdentity(&user, in, true); err != nil {
			return err
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile := models.UserProfile{UserID: user.ID, Role: models.RoleOperator, Active: true}
		if err := applyProfile(tx, &profile, in); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&profile).Error; err != nil {
			return err
		}
		profileID = profile.ID
		return nil
	})
	if err != nil {
		return models.UserProfile{}, s.fail("create user", "user", err)
	}
	s.lg.Infow("user created", "profile_id", profileID, "username", *in.Username)
	return s.Get(ctx, profileID)
}

func (s *UserService) Get(ctx context.Context, id string) (models.UserProfile, error) {
	var p models.UserProfile
	if err := s.db.WithContext(ctx).Preload("User").Preload("Department").First(&p, "id = ?", id).Error; err != nil {
		return models.UserProfile{}, s.fail("get user", "user", err)
	}
	return p, nil
}

// List returns profiles ordered by username, optionally filtered by role.
func (s *UserService) List(ctx context.Context, role string) ([]models.UserProfile, error) {
	q := s.db.WithContext(ctx).Preload("User").Preload("Department")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var out []models.UserProfile
	if err := q.Find(&out).Error; err != nil {
		return nil, s.fail("list users", "user", err)
	}
	slices.SortFunc(out, func(a, b models.UserProfile) int {
		return strings.Compare(a.User.Username, b.User.Username)
	})
	return out, nil
}

// Update changes profile fields and, when given, the identity's username,
// email or password.
func (s *UserService) Update(ctx context.Context, id string, in UserInput, partial bool) (models.UserProfile, error) {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var p models.UserProfile
		if err := tx.Preload("User").First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		if in.Username != nil || in.Email != nil || in.Password != nil {
			user := p.User
			if err := applyIdentity(&user, in, false); err != nil {
				return err
			}
			if err := tx.Save(&user).Error; err != nil {
				return err
			}
		}
		if err := applyProfile(tx, &p, in); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(&p).Error
	})
	if err != nil {
		return models.UserProfile{}, s.fail("update user", "user", err)
	}
	return s.Get(ctx, id)
}

// Delete removes the profile and its identity. Events keep existing with the
// user reference cleared.
func (s *UserService) Delete(ctx context.Context, id string) error {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var p models.UserProfile
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Event{}).Where("usuario_id = ?", id).Update("usuario_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Delete(&p).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", p.UserID).Error
	})
	if err != nil {
		return s.fail("delete user", "user", err)
	}
	return nil
}

func applyIdentity(u *models.User, in UserInput, creating bool) error {
	if in.Username != nil {
		v, err := text("username", *in.Username, 150, true)
		if err != nil {
			return err
		}
		u.Username = v
	}
	if in.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*in.Email))
		if v == "" && creating {
			return invalid("required", "email is required")
		}
		if v != "" {
			addr, err := mail.ParseAddress(v)
			if err != nil || addr.Name != "" || addr.Address != v {
				return invalid("invalid_email", "invalid email address")
			}
		}
		u.Email = v
	}
	if in.Password != nil {
		if *in.Password == "" {
			return invalid("required", "password is required")
		}
		if len(*in.Password) > maxPasswordBytes {
			return invalid("password_too_long", "password must be at most 72 bytes")
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	return nil
}

func applyProfile(tx *gorm.DB, p *models.UserProfile, in UserInput) error {
	if in.Role != nil {
		r := models.Role(*in.Role)
		if !r.Valid() {
			return invalid("invalid_role", "invalid role, expected admin or operador")
		}
		p.Role = r
	}
	if in.DepartmentID.Set {
		if err := ensureExists(tx, &models.Department{}, "departamento", in.DepartmentID.ID); err != nil {
			return err
		}
		p.DepartmentID = in.DepartmentID.ID
	}
	if in.Phone != nil {
		v, err := text("telefono", *in.Phone, 15, false)
		if err != nil {
			return err
		}
		p.Phone = v
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	return nil
}
