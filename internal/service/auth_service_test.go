package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"learnmate_backend/internal/config"
	"learnmate_backend/internal/util"
)

func newAuthFixture() (*AuthService, *memUserStore) {
	users := newMemUserStore(nil)
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireTime = time.Hour
	return NewAuthService(users, cfg), users
}

func TestRegister(t *testing.T) {
	t.Run("new user starts from scratch", func(t *testing.T) {
		svc, _ := newAuthFixture()

		result, err := svc.Register(Credentials{Name: "alice", Password: "secret"})
		require.NoError(t, err)

		assert.NotEmpty(t, result.Token)
		assert.Equal(t, 0, result.User.XP)
		assert.Equal(t, 1, result.User.Level)
		assert.Equal(t, 0, result.User.Streak)
		assert.Nil(t, result.User.LastActiveAt)

		// 密码以 bcrypt 存储
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(result.User.Password), []byte("secret")))

		claims, err := util.ParseJWT(result.Token, "test-secret")
		require.NoError(t, err)
		assert.Equal(t, result.User.ID, claims.UserID)
		assert.Equal(t, "alice", claims.Name)
	})

	t.Run("duplicate name", func(t *testing.T) {
		svc, _ := newAuthFixture()
		_, err := svc.Register(Credentials{Name: "alice", Password: "secret"})
		require.NoError(t, err)

		_, err = svc.Register(Credentials{Name: "alice", Password: "other"})
		assert.ErrorIs(t, err, util.ErrNameRegistered)
	})
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthFixture()
	_, err := svc.Register(Credentials{Name: "alice", Password: "secret"})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		result, err := svc.Login(Credentials{Name: "alice", Password: "secret"})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, "alice", result.User.Name)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(Credentials{Name: "alice", Password: "nope"})
		assert.ErrorIs(t, err, util.ErrInvalidCredentials)
	})

	t.Run("unknown user maps to same error", func(t *testing.T) {
		_, err := svc.Login(Credentials{Name: "bob", Password: "secret"})
		assert.ErrorIs(t, err, util.ErrInvalidCredentials)
	})
}
