package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/accounts-api/internal/apperr"
	"github.com/campusworks/accounts-api/internal/dto"
	"github.com/campusworks/accounts-api/internal/mailer"
	"github.com/campusworks/accounts-api/internal/models"
	"github.com/campusworks/accounts-api/internal/roles"
	"github.com/campusworks/accounts-api/internal/services"
	"github.com/campusworks/accounts-api/internal/testutil"
	"github.com/campusworks/accounts-api/internal/token"
)

func newAccountService(t *testing.T) (*services.AccountService, *testutil.RecordingMailer, *token.Issuer, *servicesEnv) {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := testutil.NewConfig()
	mail := &testutil.RecordingMailer{}
	issuer := token.NewIssuer(db, cfg)
	svc := services.NewAccountService(db, cfg, issuer, mail)
	return svc, mail, issuer, &servicesEnv{db: db}
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestCreateUserPerRole(t *testing.T) {
	tests := []struct {
		role        string
		profile     roles.ProfileFields
		wantStaff   bool
		wantSuper   bool
		countFn     func(env *servicesEnv) int64
	}{
		{
			role:      "admin",
			profile:   roles.ProfileFields{Section: strPtr("east-wing")},
			wantStaff: true,
			wantSuper: true,
			countFn: func(env *servicesEnv) int64 {
				var n int64
				env.db.Model(&models.AdminProfile{}).Count(&n)
				return n
			},
		},
		{
			role:    "teacher",
			profile: roles.ProfileFields{NumCourses: intPtr(5)},
			countFn: func(env *servicesEnv) int64 {
				var n int64
				env.db.Model(&models.TeacherProfile{}).Count(&n)
				return n
			},
		},
		{
			role:    "student",
			profile: roles.ProfileFields{StudyHours: intPtr(12)},
			countFn: func(env *servicesEnv) int64 {
				var n int64
				env.db.Model(&models.StudentProfile{}).Count(&n)
				return n
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			svc, mail, _, env := newAccountService(t)

			user, profile, err := svc.Create(&dto.CreateUserRequest{
				Email:     tc.role + "@example.com",
				Password:  "Secur3P@ss!",
				FirstName: "Test",
				LastName:  "User",
				Role:      tc.role,
				Profile:   tc.profile,
			})
			require.NoError(t, err)
			require.NotNil(t, profile)

			assert.Equal(t, models.Role(tc.role), user.Role)
			assert.Equal(t, tc.wantStaff, user.IsStaff)
			assert.Equal(t, tc.wantSuper, user.IsSuperuser)
			assert.Equal(t, int64(1), tc.countFn(env))

			sent := mail.Sent()
			require.Len(t, sent, 1)
			assert.Equal(t, mailer.KindWelcome, sent[0].Kind)
			assert.Equal(t, []string{user.Email}, sent[0].To)
		})
	}
}

func TestCreateTeacherProfileFields(t *testing.T) {
	svc, _, _, env := newAccountService(t)

	user, _, err := svc.Create(&dto.CreateUserRequest{
		Email:    "t@example.com",
		Password: "Secur3P@ss!",
		Role:     "teacher",
		Profile:  roles.ProfileFields{NumCourses: intPtr(5)},
	})
	require.NoError(t, err)

	var profile models.TeacherProfile
	require.NoError(t, env.db.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.Equal(t, 5, profile.NumCourses)
}

func TestCreateUnknownRoleWritesNothing(t *testing.T) {
	svc, mail, _, env := newAccountService(t)

	_, _, err := svc.Create(&dto.CreateUserRequest{
		Email:    "x@example.com",
		Password: "Secur3P@ss!",
		Role:     "janitor",
	})
	require.Error(t, err)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.ErrUnknownRole.Code, appErr.Code)

	var n int64
	env.db.Model(&models.User{}).Count(&n)
	assert.Zero(t, n)
	assert.Empty(t, mail.Sent())
}

func TestCreateProfileValidationRollsBack(t *testing.T) {
	svc, mail, _, env := newAccountService(t)

	_, _, err := svc.Create(&dto.CreateUserRequest{
		Email:    "t@example.com",
		Password: "Secur3P@ss!",
		Role:     "teacher",
		Profile:  roles.ProfileFields{NumCourses: intPtr(-3)},
	})
	require.Error(t, err)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.ErrProfileInvalid.Code, appErr.Code)

	// Whole transaction rolled back: no user, no profile, no mail.
	var users, profiles int64
	env.db.Model(&models.User{}).Count(&users)
	env.db.Model(&models.TeacherProfile{}).Count(&profiles)
	assert.Zero(t, users)
	assert.Zero(t, profiles)
	assert.Empty(t, mail.Sent())
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newAccountService(t)

	req := &dto.CreateUserRequest{
		Email:    "dup@example.com",
		Password: "Secur3P@ss!",
		Role:     "student",
	}
	_, _, err := svc.Create(req)
	require.NoError(t, err)

	_, _, err = svc.Create(req)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.ErrEmailTaken.Code, appErr.Code)
}

func TestCreateSurfacesEmailLookupError(t *testing.T) {
	svc, mail, _, env := newAccountService(t)
	require.NoError(t, env.db.Migrator().DropTable(&models.User{}))

	_, _, err := svc.Create(&dto.CreateUserRequest{
		Email:    "x@example.com",
		Password: "Secur3P@ss!",
		Role:     "student",
	})
	require.Error(t, err)

	// A broken lookup is a server failure, not "email free".
	assert.NotErrorIs(t, err, apperr.ErrEmailTaken)
	assert.Contains(t, err.Error(), "failed to check email")
	assert.Empty(t, mail.Sent())
}

func TestGetByIDNotFound(t *testing.T) {
	svc, _, _, _ := newAccountService(t)

	_, err := svc.GetByEmail("nobody@example.com")
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestUpdateUserAndProfile(t *testing.T) {
	svc, _, _, env := newAccountService(t)

	user, _, err := svc.Create(&dto.CreateUserRequest{
		Email:    "t@example.com",
		Password: "Secur3P@ss!",
		Role:     "teacher",
		Profile:  roles.ProfileFields{NumCourses: intPtr(2)},
	})
	require.NoError(t, err)

	updated, err := svc.Update(user.ID, &dto.UpdateUserRequest{
		FirstName: strPtr("Grace"),
		Profile:   roles.ProfileFields{NumCourses: intPtr(7)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Grace", updated.FirstName)

	var profile models.TeacherProfile
	require.NoError(t, env.db.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.Equal(t, 7, profile.NumCourses)
}

func TestUpdateInvalidProfileRollsBack(t *testing.T) {
	svc, _, _, env := newAccountService(t)

	user, _, err := svc.Create(&dto.CreateUserRequest{
		Email:     "t@example.com",
		Password:  "Secur3P@ss!",
		FirstName: "Ada",
		Role:      "teacher",
		Profile:   roles.ProfileFields{NumCourses: intPtr(2)},
	})
	require.NoError(t, err)

	_, err = svc.Update(user.ID, &dto.UpdateUserRequest{
		FirstName: strPtr("Grace"),
		Profile:   roles.ProfileFields{NumCourses: intPtr(-1)},
	})
	require.Error(t, err)

	// Scalar update must have rolled back with the profile failure.
	var stored models.User
	require.NoError(t, env.db.First(&stored, "id = ?", user.ID).Error)
	assert.Equal(t, "Ada", stored.FirstName)

	var profile models.TeacherProfile
	require.NoError(t, env.db.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.Equal(t, 2, profile.NumCourses)
}

func TestDeleteCascades(t *testing.T) {
	svc, _, issuer, env := newAccountService(t)
	cfg := testutil.NewConfig()
	authSvc := services.NewAuthService(env.db, cfg, issuer, &testutil.RecordingMailer{})

	user, _, err := svc.Create(&dto.CreateUserRequest{
		Email:    "s@example.com",
		Password: "Secur3P@ss!",
		Role:     "student",
	})
	require.NoError(t, err)
	require.NoError(t, authSvc.RequestReset(user.Email))

	require.NoError(t, svc.Delete(user.ID))

	var users, profiles, otps int64
	env.db.Model(&models.User{}).Count(&users)
	env.db.Model(&models.StudentProfile{}).Count(&profiles)
	env.db.Model(&models.OTPNumber{}).Count(&otps)
	assert.Zero(t, users)
	assert.Zero(t, profiles)
	assert.Zero(t, otps)

	assert.ErrorIs(t, svc.Delete(user.ID), apperr.ErrUserNotFound)
}

func TestDeleteFailedDependentRollsBack(t *testing.T) {
	svc, _, _, env := newAccountService(t)

	user, _, err := svc.Create(&dto.CreateUserRequest{
		Email:    "s@example.com",
		Password: "Secur3P@ss!",
		Role:     "student",
	})
	require.NoError(t, err)

	require.NoError(t, env.db.Migrator().DropTable(&models.OTPNumber{}))

	err = svc.Delete(user.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete dependent rows")

	// The failed dependent delete must roll the whole thing back.
	var users, profiles int64
	env.db.Model(&models.User{}).Count(&users)
	env.db.Model(&models.StudentProfile{}).Count(&profiles)
	assert.Equal(t, int64(1), users)
	assert.Equal(t, int64(1), profiles)
}

func TestVerifyEmail(t *testing.T) {
	svc, _, issuer, _ := newAccountService(t)

	user, _, err := svc.Create(&dto.CreateUserRequest{
		Email:    "v@example.com",
		Password: "Secur3P@ss!",
		Role:     "student",
	})
	require.NoError(t, err)
	assert.False(t, user.Verified)

	verify, err := issuer.IssueVerify(user)
	require.NoError(t, err)

	verified, err := svc.VerifyEmail(verify)
	require.NoError(t, err)
	assert.True(t, verified.Verified)
}

func TestVerifyEmailRejectsAccessToken(t *testing.T) {
	svc, _, issuer, _ := newAccountService(t)

	user, _, err := svc.Create(&dto.CreateUserRequest{
		Email:    "v@example.com",
		Password: "Secur3P@ss!",
		Role:     "student",
	})
	require.NoError(t, err)

	pair, err := issuer.Issue(user)
	require.NoError(t, err)

	_, err = svc.VerifyEmail(pair.Access)
	assert.ErrorIs(t, err, apperr.ErrTokenWrongType)
}
