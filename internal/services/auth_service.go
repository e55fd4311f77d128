package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/campusworks/accounts-api/internal/apperr"
	"github.com/campusworks/accounts-api/internal/config"
	"github.com/campusworks/accounts-api/internal/mailer"
	"github.com/campusworks/accounts-api/internal/models"
	"github.com/campusworks/accounts-api/internal/passwords"
	"github.com/campusworks/accounts-api/internal/token"
)

// AuthService orchestrates login, logout, token refresh and the OTP
// password-reset machine. The OTP lifecycle is request -> verify ->
// consume: verification flips the row's verified flag and collapses
// its expiry; a completed reset deletes every code for the user.
type AuthService struct {
	db     *gorm.DB
	cfg    *config.Config
	issuer *token.Issuer
	mail   mailer.Mailer
	policy passwords.Policy
}

func NewAuthService(db *gorm.DB, cfg *config.Config, issuer *token.Issuer, mail mailer.Mailer) *AuthService {
	return &AuthService{
		db:     db,
		cfg:    cfg,
		issuer: issuer,
		mail:   mail,
		policy: passwords.Policy{MinLength: cfg.PasswordMinLength},
	}
}

// Login verifies credentials and issues a token pair. Callers must not
// leak the distinction between an unknown email and a wrong password;
// the handler folds ErrUserNotFound into invalid_credentials.
func (s *AuthService) Login(email, password string) (*models.User, *token.Pair, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.ErrUserNotFound
		}
		return nil, nil, err
	}

	if !user.IsActive {
		return nil, nil, apperr.ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, apperr.ErrInvalidCredentials
	}

	pair, err := s.issuer.Issue(&user)
	if err != nil {
		return nil, nil, err
	}
	return &user, pair, nil
}

// Logout blacklists the refresh token.
func (s *AuthService) Logout(refresh string) error {
	return s.issuer.Revoke(refresh)
}

// Refresh rotates a refresh token into a fresh pair.
func (s *AuthService) Refresh(refresh string) (*token.Pair, error) {
	pair, _, err := s.issuer.Rotate(refresh)
	return pair, err
}

// RequestReset starts the reset machine: generates a fixed-length
// decimal code, upserts the user's OTP row and mails the code. The
// code never appears in the API response.
func (s *AuthService) RequestReset(email string) error {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrUserNotFound
		}
		return err
	}

	code, err := generateOTP(s.cfg.OTPDigits)
	if err != nil {
		return fmt.Errorf("failed to generate passcode: %w", err)
	}

	validUntil := time.Now().Add(s.cfg.OTPExpiry)

	var otp models.OTPNumber
	err = s.db.Where("user_id = ?", user.ID).First(&otp).Error
	switch {
	case err == nil:
		otp.Code = code
		otp.Verified = false
		otp.ValidUntil = validUntil
		err = s.db.Save(&otp).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		otp = models.OTPNumber{
			ID:         uuid.New(),
			UserID:     user.ID,
			Code:       code,
			Verified:   false,
			ValidUntil: validUntil,
		}
		err = s.db.Create(&otp).Error
	}
	if err != nil {
		return fmt.Errorf("failed to store passcode: %w", err)
	}

	s.mail.Enqueue(mailer.Message{
		Kind: mailer.KindOTP,
		To:   []string{user.Email},
		Data: map[string]string{
			"name":       user.FullName(),
			"otp":        code,
			"expires_in": s.cfg.OTPExpiry.String(),
		},
	})
	return nil
}

// VerifyOTP checks the emailed code. A wrong code fails with mismatch
// regardless of expiry. A successful check marks the row verified and
// collapses its expiry so the same code cannot pass a second check.
func (s *AuthService) VerifyOTP(email, code string) error {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrUserNotFound
		}
		return err
	}

	var otp models.OTPNumber
	if err := s.db.Where("user_id = ?", user.ID).First(&otp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrOTPNotFound
		}
		return err
	}

	if otp.Code != code {
		return apperr.ErrOTPMismatch
	}
	if !otp.Usable(time.Now()) {
		return apperr.ErrOTPExpired
	}

	return s.db.Model(&otp).Updates(map[string]any{
		"verified":    true,
		"valid_until": time.Now(),
	}).Error
}

// ResetPassword finishes the machine: requires a verified OTP matching
// the supplied code, validates the new password against the policy,
// then stores the hash and deletes every OTP row for the user in one
// transaction.
func (s *AuthService) ResetPassword(email, newPassword, confirmedPassword, code string) error {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrUserNotFound
		}
		return err
	}

	if newPassword != confirmedPassword {
		return apperr.ErrPasswordMismatch
	}

	var otp models.OTPNumber
	if err := s.db.Where("user_id = ?", user.ID).First(&otp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrOTPNotFound
		}
		return err
	}
	if otp.Code != code {
		return apperr.ErrOTPMismatch
	}
	if !otp.Verified {
		return apperr.ErrOTPNotVerified
	}

	if violations := s.policy.Violations(newPassword); len(violations) > 0 {
		return apperr.ErrWeakPassword.WithDetails(violations...)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password", string(hash)).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", user.ID).Delete(&models.OTPNumber{}).Error
	})
	if err != nil {
		return err
	}

	s.notifyPasswordChanged(&user)
	return nil
}

// ChangePassword is the authenticated variant: no OTP, but the current
// password must match.
func (s *AuthService) ChangePassword(user *models.User, oldPassword, newPassword, confirmedPassword string) error {
	if newPassword != confirmedPassword {
		return apperr.ErrPasswordMismatch
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return apperr.ErrWrongPassword
	}

	if violations := s.policy.Violations(newPassword); len(violations) > 0 {
		return apperr.ErrWeakPassword.WithDetails(violations...)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Model(user).Update("password", string(hash)).Error; err != nil {
		return err
	}
	user.Password = string(hash)

	s.notifyPasswordChanged(user)
	return nil
}

// SetFirstTimePassword forces users off an admin-issued default
// password; it flips the one-time password_changed flag. Once the flag
// is set the operation is closed for good and later calls are refused.
func (s *AuthService) SetFirstTimePassword(user *models.User, newPassword, confirmedPassword string) error {
	if user.PasswordChanged {
		return apperr.ErrPasswordAlreadySet
	}

	if newPassword != confirmedPassword {
		return apperr.ErrPasswordMismatch
	}

	if violations := s.policy.Violations(newPassword); len(violations) > 0 {
		return apperr.ErrWeakPassword.WithDetails(violations...)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.db.Model(user).Updates(map[string]any{
		"password":         string(hash),
		"password_changed": true,
	}).Error
	if err != nil {
		return err
	}
	user.Password = string(hash)
	user.PasswordChanged = true
	return nil
}

func (s *AuthService) notifyPasswordChanged(user *models.User) {
	s.mail.Enqueue(mailer.Message{
		Kind: mailer.KindPasswordChanged,
		To:   []string{user.Email},
		Data: map[string]string{"name": user.FullName()},
	})
}

// generateOTP returns an n-digit decimal code from crypto/rand.
func generateOTP(n int) (string, error) {
	if n <= 0 {
		n = 6
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := make([]byte, n)
	for i := 0; i < n; i++ {
		code[i] = '0' + buf[i]%10
	}
	return string(code), nil
}
