package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/campusworks/accounts-api/internal/apperr"
	"github.com/campusworks/accounts-api/internal/config"
	"github.com/campusworks/accounts-api/internal/dto"
	"github.com/campusworks/accounts-api/internal/mailer"
	"github.com/campusworks/accounts-api/internal/models"
	"github.com/campusworks/accounts-api/internal/roles"
	"github.com/campusworks/accounts-api/internal/token"
)

// AccountService orchestrates user+profile CRUD. A user row and its
// role profile are always written in one transaction; the welcome mail
// goes out only after the transaction commits.
type AccountService struct {
	db     *gorm.DB
	cfg    *config.Config
	issuer *token.Issuer
	mail   mailer.Mailer
}

func NewAccountService(db *gorm.DB, cfg *config.Config, issuer *token.Issuer, mail mailer.Mailer) *AccountService {
	return &AccountService{db: db, cfg: cfg, issuer: issuer, mail: mail}
}

func (s *AccountService) Create(req *dto.CreateUserRequest) (*models.User, any, error) {
	desc, err := roles.Lookup(req.Role)
	if err != nil {
		return nil, nil, err
	}

	var existing models.User
	if err := s.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, nil, apperr.ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:          uuid.New(),
		Email:       req.Email,
		Password:    string(hash),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Role:        desc.Role,
		IsActive:    true,
		IsStaff:     desc.IsStaff,
		IsSuperuser: desc.IsSuperuser,
		ManagerID:   req.ManagerID,
	}

	var profile any
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		profile, err = desc.NewProfile(user.ID, req.Profile)
		if err != nil {
			return err
		}
		return tx.Create(profile).Error
	})
	if err != nil {
		return nil, nil, err
	}

	s.sendWelcome(&user)
	return &user, profile, nil
}

func (s *AccountService) sendWelcome(user *models.User) {
	verify, err := s.issuer.IssueVerify(user)
	if err != nil {
		slog.Error("failed to mint verification token", "user_id", user.ID, "error", err)
		return
	}
	s.mail.Enqueue(mailer.Message{
		Kind: mailer.KindWelcome,
		To:   []string{user.Email},
		Data: map[string]string{
			"name":       user.FullName(),
			"verify_url": "/api/accounts/verify_email?token=" + verify,
		},
	})
}

func (s *AccountService) GetByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *AccountService) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *AccountService) List() ([]models.User, error) {
	var users []models.User
	if err := s.db.Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Profile loads the role profile for a user, for responses.
func (s *AccountService) Profile(user *models.User) (any, error) {
	desc, err := roles.Lookup(string(user.Role))
	if err != nil {
		return nil, err
	}
	return desc.LoadProfile(s.db, user.ID)
}

// Update applies user scalar updates and nested profile updates in one
// transaction. A profile validation failure rolls back everything.
func (s *AccountService) Update(id uuid.UUID, req *dto.UpdateUserRequest) (*models.User, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	desc, err := roles.Lookup(string(user.Role))
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if req.FirstName != nil {
			user.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			user.LastName = *req.LastName
		}
		if req.ManagerID != nil {
			user.ManagerID = req.ManagerID
		}
		if err := tx.Save(user).Error; err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return desc.UpdateProfile(tx, user.ID, req.Profile)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the user and everything hanging off it: profile rows,
// OTP codes and blacklist records.
func (s *AccountService) Delete(id uuid.UUID) error {
	user, err := s.GetByID(id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		dependents := []any{
			&models.OTPNumber{},
			&models.BlacklistedToken{},
			&models.AdminProfile{},
			&models.TeacherProfile{},
			&models.StudentProfile{},
		}
		for _, model := range dependents {
			if err := tx.Where("user_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete dependent rows: %w", err)
			}
		}
		return tx.Delete(user).Error
	})
}

// VerifyEmail consumes a verification token and flips the user's
// verified flag.
func (s *AccountService) VerifyEmail(raw string) (*models.User, error) {
	claims, err := s.issuer.Validate(raw, token.TypeVerify)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperr.ErrTokenInvalid
	}

	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if !user.Verified {
		user.Verified = true
		user.UpdatedAt = time.Now()
		if err := s.db.Model(user).Update("verified", true).Error; err != nil {
			return nil, err
		}
	}
	return user, nil
}
