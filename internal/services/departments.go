package services

import (
	"context"

	"gorm.io/gorm"

	"smartconnect/internal/models"
)

type DepartmentService struct{ base }

type DepartmentInput struct {
	Name        *string
	Description *string
	Active      *bool
}

// DepartmentSummary carries the sensor count shown alongside a department.
type DepartmentSummary struct {
	models.Department
	TotalSensors int64
}

func (s *DepartmentService) Create(ctx context.Context, in DepartmentInput) (DepartmentSummary, error) {
	d := models.Department{Active: true}
	if err := applyDepartment(&d, in, false); err != nil {
		return DepartmentSummary{}, err
	}
	if err := s.db.WithContext(ctx).Create(&d).Error; err != nil {
		return DepartmentSummary{}, s.fail("create department", "department", err)
	}
	return DepartmentSummary{Department: d}, nil
}

func (s *DepartmentService) Get(ctx context.Context, id string) (DepartmentSummary, error) {
	var d models.Department
	db := s.db.WithContext(ctx)
	if err := db.First(&d, "id = ?", id).Error; err != nil {
		return DepartmentSummary{}, s.fail("get department", "department", err)
	}
	var n int64
	if err := db.Model(&models.Sensor{}).Where("department_id = ?", id).Count(&n).Error; err != nil {
		return DepartmentSummary{}, s.fail("count department sensors", "department", err)
	}
	return DepartmentSummary{Department: d, TotalSensors: n}, nil
}

func (s *DepartmentService) List(ctx context.Context) ([]DepartmentSummary, error) {
	db := s.db.WithContext(ctx)
	var rows []models.Department
	if err := db.Order("name").Find(&rows).Error; err != nil {
		return nil, s.fail("list departments", "department", err)
	}
	var counts []struct {
		DepartmentID string
		N            int64
	}
	err := db.Model(&models.Sensor{}).
		Select("department_id, count(*) as n").
		Where("department_id IS NOT NULL").
		Group("department_id").
		Scan(&counts).Error
	if err != nil {
		return nil, s.fail("count department sensors", "department", err)
	}
	byID := make(map[string]int64, len(counts))
	for _, c := range counts {
		byID[c.DepartmentID] = c.N
	}
	out := make([]DepartmentSummary, 0, len(rows))
	for _, d := range rows {
		out = append(out, DepartmentSummary{Department: d, TotalSensors: byID[d.ID]})
	}
	return out, nil
}

// Update applies in to the department. partial=false requires every
// writable required field to be present.
func (s *DepartmentService) Update(ctx context.Context, id string, in DepartmentInput, partial bool) (DepartmentSummary, error) {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var d models.Department
		if err := tx.First(&d, "id = ?", id).Error; err != nil {
			return err
		}
		if err := applyDepartment(&d, in, partial); err != nil {
			return err
		}
		return tx.Save(&d).Error
	})
	if err != nil {
		return DepartmentSummary{}, s.fail("update department", "department", err)
	}
	return s.Get(ctx, id)
}

// Delete removes the department. Sensors, barriers and profiles that
// referenced it keep existing with the reference cleared.
func (s *DepartmentService) Delete(ctx context.Context, id string) error {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var d models.Department
		if err := tx.First(&d, "id = ?", id).Error; err != nil {
			return err
		}
		for _, m := range []any{&models.Sensor{}, &models.Barrier{}, &models.UserProfile{}} {
			if err := tx.Model(m).Where("department_id = ?", id).Update("department_id", nil).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&d).Error
	})
	if err != nil {
		return s.fail("delete department", "department", err)
	}
	return nil
}

// Sensors lists the sensors owned by department id.
func (s *DepartmentService) Sensors(ctx context.Context, id string) ([]models.Sensor, error) {
	db := s.db.WithContext(ctx)
	var d models.Department
	if err := db.First(&d, "id = ?", id).Error; err != nil {
		return nil, s.fail("get department", "department", err)
	}
	var out []models.Sensor
	if err := db.Preload("Department").Where("department_id = ?", id).Order("created_at desc").Find(&out).Error; err != nil {
		return nil, s.fail("list department sensors", "sensor", err)
	}
	return out, nil
}

func applyDepartment(d *models.Department, in DepartmentInput, partial bool) error {
	if err := requireAll(partial, present{"nombre", in.Name != nil}); err != nil {
		return err
	}
	if in.Name != nil {
		v, err := text("nombre", *in.Name, 100, true)
		if err != nil {
			return err
		}
		d.Name = v
	}
	if in.Description != nil {
		d.Description = *in.Description
	}
	if in.Active != nil {
		d.Active = *in.Active
	}
	return nil
}
