package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderToken_RoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := SignOrderToken(secret, "order-123", time.Minute)
	assert.NoError(t, err, "签发令牌应该成功")
	assert.NotEmpty(t, token)

	code, err := ParseOrderToken(secret, token)
	assert.NoError(t, err, "校验令牌应该成功")
	assert.Equal(t, "order-123", code, "令牌应该还原出订单号")
}

func TestOrderToken_WrongSecret(t *testing.T) {
	token, err := SignOrderToken([]byte("secret-a"), "order-123", time.Minute)
	assert.NoError(t, err)

	_, err = ParseOrderToken([]byte("secret-b"), token)
	assert.ErrorIs(t, err, ErrInvalidOrderToken, "错误密钥签名的令牌应该被拒绝")
}

func TestOrderToken_Expired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := SignOrderToken(secret, "order-123", -time.Minute)
	assert.NoError(t, err)

	_, err = ParseOrderToken(secret, token)
	assert.ErrorIs(t, err, ErrInvalidOrderToken, "过期令牌应该被拒绝")
}

func TestOrderToken_Garbage(t *testing.T) {
	_, err := ParseOrderToken([]byte("secret"), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidOrderToken, "非JWT字符串应该被拒绝")
}
