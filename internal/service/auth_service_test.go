package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"pos-backoffice/internal/core/domain"
	"pos-backoffice/internal/core/ports/mocks"
	"pos-backoffice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type authTestDeps struct {
	svc      *AuthServiceImpl
	opRepo   *mocks.MockOperatorRepository
	hashSvc  *mocks.MockHashService
	tokenSvc *mocks.MockTokenService
	ctrl     *gomock.Controller
}

func setupAuthService(t *testing.T) *authTestDeps {
	ctrl := gomock.NewController(t)
	d := &authTestDeps{
		opRepo:   mocks.NewMockOperatorRepository(ctrl),
		hashSvc:  mocks.NewMockHashService(ctrl),
		tokenSvc: mocks.NewMockTokenService(ctrl),
		ctrl:     ctrl,
	}
	d.svc = NewAuthService(d.opRepo, d.hashSvc, d.tokenSvc)
	return d
}

func TestAuthService_Login_Success(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	operatorID := uuid.New()
	storeID := uuid.New()
	expiry := time.Now().Add(12 * time.Hour)

	d.opRepo.EXPECT().GetByUsername(ctx, "kasir1").Return(&domain.Operator{
		ID:           operatorID,
		Username:     "kasir1",
		PasswordHash: "argon2_hash",
		StoreID:      storeID,
		Active:       true,
	}, nil)
	d.hashSvc.EXPECT().Verify("secret123", "argon2_hash").Return(true, nil)
	d.tokenSvc.EXPECT().Generate(operatorID, storeID).Return("jwt-token", expiry, nil)

	token, expiresAt, err := d.svc.Login(ctx, "kasir1", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
	assert.Equal(t, expiry, expiresAt)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.opRepo.EXPECT().GetByUsername(ctx, "ghost").Return(nil, nil)

	_, _, err := d.svc.Login(ctx, "ghost", "whatever")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "AUTH_001", appErr.Code)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.opRepo.EXPECT().GetByUsername(ctx, "kasir1").Return(&domain.Operator{
		ID:           uuid.New(),
		Username:     "kasir1",
		PasswordHash: "argon2_hash",
		Active:       true,
	}, nil)
	d.hashSvc.EXPECT().Verify("wrong", "argon2_hash").Return(false, nil)

	_, _, err := d.svc.Login(ctx, "kasir1", "wrong")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "AUTH_001", appErr.Code)
}

func TestAuthService_Login_InactiveOperator(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.opRepo.EXPECT().GetByUsername(ctx, "retired").Return(&domain.Operator{
		ID:           uuid.New(),
		Username:     "retired",
		PasswordHash: "argon2_hash",
		Active:       false,
	}, nil)
	d.hashSvc.EXPECT().Verify("secret123", "argon2_hash").Return(true, nil)

	_, _, err := d.svc.Login(ctx, "retired", "secret123")
	require.Error(t, err)
}
