// Package roles maps a role tag to its profile model and permission
// flags through a single static table. Unknown tags fail closed; there
// is no default role.
package roles

import (
	"github.com/campusworks/accounts-api/internal/apperr"
	"github.com/campusworks/accounts-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Descriptor binds a role tag to everything role-specific: which
// profile row to build, which permission flags the user gets, and how
// profile fields apply on update.
type Descriptor struct {
	Role        models.Role
	IsStaff     bool
	IsSuperuser bool

	// NewProfile builds the role's profile row from the request's
	// profile fields. Returns apperr.ErrProfileInvalid on bad fields.
	NewProfile func(userID uuid.UUID, fields ProfileFields) (any, error)

	// UpdateProfile applies the role-specific fields to the existing
	// profile row inside the caller's transaction.
	UpdateProfile func(tx *gorm.DB, userID uuid.UUID, fields ProfileFields) error

	// LoadProfile fetches the profile row for responses.
	LoadProfile func(db *gorm.DB, userID uuid.UUID) (any, error)
}

// ProfileFields carries the role-specific attributes accepted on
// create and update. Only the field matching the role is read.
type ProfileFields struct {
	Section    *string `json:"section,omitempty"`
	NumCourses *int    `json:"num_courses,omitempty"`
	StudyHours *int    `json:"study_hours,omitempty"`
}

var table = map[models.Role]Descriptor{
	models.RoleAdmin: {
		Role:        models.RoleAdmin,
		IsStaff:     true,
		IsSuperuser: true,
		NewProfile: func(userID uuid.UUID, f ProfileFields) (any, error) {
			p := &models.AdminProfile{ID: uuid.New(), UserID: userID}
			if f.Section != nil {
				p.Section = *f.Section
			}
			return p, nil
		},
		UpdateProfile: func(tx *gorm.DB, userID uuid.UUID, f ProfileFields) error {
			if f.Section == nil {
				return nil
			}
			return tx.Model(&models.AdminProfile{}).
				Where("user_id = ?", userID).
				Update("section", *f.Section).Error
		},
		LoadProfile: func(db *gorm.DB, userID uuid.UUID) (any, error) {
			var p models.AdminProfile
			err := db.Where("user_id = ?", userID).First(&p).Error
			return &p, err
		},
	},
	models.RoleTeacher: {
		Role: models.RoleTeacher,
		NewProfile: func(userID uuid.UUID, f ProfileFields) (any, error) {
			p := &models.TeacherProfile{ID: uuid.New(), UserID: userID}
			if f.NumCourses != nil {
				if *f.NumCourses < 0 {
					return nil, apperr.ErrProfileInvalid.WithDetails("num_courses must not be negative")
				}
				p.NumCourses = *f.NumCourses
			}
			return p, nil
		},
		UpdateProfile: func(tx *gorm.DB, userID uuid.UUID, f ProfileFields) error {
			if f.NumCourses == nil {
				return nil
			}
			if *f.NumCourses < 0 {
				return apperr.ErrProfileInvalid.WithDetails("num_courses must not be negative")
			}
			return tx.Model(&models.TeacherProfile{}).
				Where("user_id = ?", userID).
				Update("num_courses", *f.NumCourses).Error
		},
		LoadProfile: func(db *gorm.DB, userID uuid.UUID) (any, error) {
			var p models.TeacherProfile
			err := db.Where("user_id = ?", userID).First(&p).Error
			return &p, err
		},
	},
	models.RoleStudent: {
		Role: models.RoleStudent,
		NewProfile: func(userID uuid.UUID, f ProfileFields) (any, error) {
			p := &models.StudentProfile{ID: uuid.New(), UserID: userID}
			if f.StudyHours != nil {
				if *f.StudyHours < 0 {
					return nil, apperr.ErrProfileInvalid.WithDetails("study_hours must not be negative")
				}
				p.StudyHours = *f.StudyHours
			}
			return p, nil
		},
		UpdateProfile: func(tx *gorm.DB, userID uuid.UUID, f ProfileFields) error {
			if f.StudyHours == nil {
				return nil
			}
			if *f.StudyHours < 0 {
				return apperr.ErrProfileInvalid.WithDetails("study_hours must not be negative")
			}
			return tx.Model(&models.StudentProfile{}).
				Where("user_id = ?", userID).
				Update("study_hours", *f.StudyHours).Error
		},
		LoadProfile: func(db *gorm.DB, userID uuid.UUID) (any, error) {
			var p models.StudentProfile
			err := db.Where("user_id = ?", userID).First(&p).Error
			return &p, err
		},
	},
}

// Lookup resolves a role tag. Unknown tags return ErrUnknownRole.
func Lookup(role string) (Descriptor, error) {
	d, ok := table[models.Role(role)]
	if !ok {
		return Descriptor{}, apperr.ErrUnknownRole.WithDetails("unknown user role: " + role)
	}
	return d, nil
}

// All returns the known role tags.
func All() []models.Role {
	return []models.Role{models.RoleAdmin, models.RoleTeacher, models.RoleStudent}
}
