package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/apperr"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/repository"
)

func newAuthFixture(t *testing.T) *AuthService {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.User{}))
	return NewAuthService(repository.NewUserRepository(db), zap.NewNop(), "test-secret", time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	auth := newAuthFixture(t)

	out, err := auth.Register(&RegisterIn{
		Phone:    "+243 89 0000 001",
		Password: "secret123",
		FullName: "Mama Yemo",
		Role:     "citoyen",
		Commune:  "Gombe",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, entity.RoleCitizen, out.User.Role)
	// Phone is normalised before storage.
	assert.Equal(t, "+243890000001", out.User.Phone)

	logged, err := auth.Login(&LoginIn{Phone: "+243890000001", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, logged.User.ID)

	_, err = auth.Login(&LoginIn{Phone: "+243890000001", Password: "wrong"})
	assert.True(t, apperr.Is(err, apperr.PermissionDenied))
}

func TestRegisterDuplicatePhone(t *testing.T) {
	auth := newAuthFixture(t)

	in := &RegisterIn{Phone: "+243890000002", Password: "secret123"}
	_, err := auth.Register(in)
	require.NoError(t, err)

	_, err = auth.Register(in)
	assert.True(t, apperr.Is(err, apperr.AlreadySet))
}

func TestRegisterRefusesPrivilegedRoles(t *testing.T) {
	auth := newAuthFixture(t)

	_, err := auth.Register(&RegisterIn{
		Phone:    "+243890000003",
		Password: "secret123",
		Role:     "superviseur",
	})
	assert.True(t, apperr.Is(err, apperr.PermissionDenied))

	// Unknown role names fall back to citizen.
	out, err := auth.Register(&RegisterIn{
		Phone:    "+243890000004",
		Password: "secret123",
		Role:     "chef",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleCitizen, out.User.Role)
}
