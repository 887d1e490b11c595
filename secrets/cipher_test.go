package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAESCipher_RoundTrip(t *testing.T) {
	c, err := NewAESCipher([]byte("master-key"))
	require.NoError(t, err, "创建加密器应该成功")

	enc, err := c.Encrypt("sk_live_secret")
	require.NoError(t, err)
	assert.NotEqual(t, "sk_live_secret", enc, "密文不应该等于明文")

	plain, err := c.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "sk_live_secret", plain, "解密应该还原出明文")
}

func TestAESCipher_NonceUnique(t *testing.T) {
	c, err := NewAESCipher([]byte("master-key"))
	require.NoError(t, err)

	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "相同明文的两次加密应该产生不同密文")
}

func TestAESCipher_WrongKey(t *testing.T) {
	c1, err := NewAESCipher([]byte("key-a"))
	require.NoError(t, err)
	c2, err := NewAESCipher([]byte("key-b"))
	require.NoError(t, err)

	enc, err := c1.Encrypt("secret")
	require.NoError(t, err)

	_, err = c2.Decrypt(enc)
	assert.Error(t, err, "错误密钥解密应该失败")
}

func TestAESCipher_InvalidInput(t *testing.T) {
	c, err := NewAESCipher([]byte("master-key"))
	require.NoError(t, err)

	_, err = c.Decrypt("not-base64!!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext, "非base64密文应该被拒绝")

	_, err = c.Decrypt("c2hvcnQ=")
	assert.ErrorIs(t, err, ErrInvalidCiphertext, "长度不足的密文应该被拒绝")

	_, err = NewAESCipher(nil)
	assert.Error(t, err, "空主密钥应该被拒绝")
}

func TestAESCipher_EmptyPlaintext(t *testing.T) {
	c, err := NewAESCipher([]byte("master-key"))
	require.NoError(t, err)

	enc, err := c.Encrypt("")
	require.NoError(t, err)
	plain, err := c.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "", plain, "空明文应该可以往返")
}
