package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/prep_go_server/internal/model"
	"github.com/qs3c/prep_go_server/internal/model/dto"
	"github.com/qs3c/prep_go_server/internal/repository"
	"github.com/qs3c/prep_go_server/internal/testutil"
)

func setupUserService(t *testing.T) (*UserService, *gorm.DB, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	service := NewUserService(repository.NewUserRepository(db))

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}

	return service, db, cleanup
}

func strPtr(s string) *string {
	return &s
}

func TestUserService_GetProfile_Success(t *testing.T) {
	service, db, cleanup := setupUserService(t)
	defer cleanup()

	user := testutil.TestUser(t, db, testutil.WithPremium(50))

	info, err := service.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, info.ID)
	assert.Equal(t, user.Email, info.Email)
	assert.Equal(t, model.TierPremium, info.SubscriptionTier)
	assert.NotEmpty(t, info.PremiumExpiresAt)
	require.NotNil(t, info.CreditInfo)
	assert.Equal(t, 50, info.CreditInfo.CreditsRemaining)
	assert.Equal(t, 50, info.CreditInfo.CreditsTotal)
}

func TestUserService_GetProfile_ExpiredPremiumShowsFree(t *testing.T) {
	service, db, cleanup := setupUserService(t)
	defer cleanup()

	user := testutil.TestUser(t, db,
		testutil.WithPremium(10),
		testutil.WithPremiumExpiresAt(time.Now().Add(-time.Hour)),
	)

	info, err := service.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TierFree, info.SubscriptionTier)
	assert.Equal(t, model.TierFree, info.CreditInfo.Tier)
}

func TestUserService_GetProfile_NotFound(t *testing.T) {
	service, _, cleanup := setupUserService(t)
	defer cleanup()

	_, err := service.GetProfile(99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_UpdateProfile_Success(t *testing.T) {
	service, db, cleanup := setupUserService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)

	info, err := service.UpdateProfile(user.ID, &dto.UpdateProfileRequest{
		Name:        strPtr("  New Name "),
		ExamType:    strPtr("IELTS"),
		TargetScore: strPtr("7.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", info.Name)
	assert.Equal(t, "IELTS", info.ExamType)
	assert.Equal(t, "7.5", info.TargetScore)
}

func TestUserService_UpdateProfile_PartialKeepsOthers(t *testing.T) {
	service, db, cleanup := setupUserService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	_, err := service.UpdateProfile(user.ID, &dto.UpdateProfileRequest{ExamType: strPtr("SAT")})
	require.NoError(t, err)

	info, err := service.UpdateProfile(user.ID, &dto.UpdateProfileRequest{TargetScore: strPtr("1500")})
	require.NoError(t, err)
	assert.Equal(t, "SAT", info.ExamType)
	assert.Equal(t, "1500", info.TargetScore)
	assert.Equal(t, user.Name, info.Name)
}

func TestUserService_UpdateProfile_NotFound(t *testing.T) {
	service, _, cleanup := setupUserService(t)
	defer cleanup()

	_, err := service.UpdateProfile(99999, &dto.UpdateProfileRequest{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
