package services_test

import (
	"testing"

	"gorm.io/gorm"

	"github.com/campusworks/accounts-api/internal/services"
	"github.com/campusworks/accounts-api/internal/testutil"
	"github.com/campusworks/accounts-api/internal/token"
)

type servicesEnv struct {
	db *gorm.DB
}

func newAuthService(t *testing.T) (*services.AuthService, *services.AccountService, *testutil.RecordingMailer, *servicesEnv) {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := testutil.NewConfig()
	mail := &testutil.RecordingMailer{}
	issuer := token.NewIssuer(db, cfg)
	authSvc := services.NewAuthService(db, cfg, issuer, mail)
	accountSvc := services.NewAccountService(db, cfg, issuer, mail)
	return authSvc, accountSvc, mail, &servicesEnv{db: db}
}
