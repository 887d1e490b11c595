// Package secrets 提供配置敏感值的加解密与主密钥获取
//
// 字段模式（ConfigurationField.Encrypted）决定哪些值走加密路径；
// 本包只负责"怎么加密"和"密钥从哪来"。
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidCiphertext 密文格式无效错误
var ErrInvalidCiphertext = errors.New("密文格式无效")

// AESCipher AES-256-GCM对称加密器
type AESCipher struct {
	aead cipher.AEAD
}

// NewAESCipher 用任意长度的主密钥创建加密器
//
// 主密钥经SHA-256派生为固定的32字节AES密钥。
func NewAESCipher(masterKey []byte) (*AESCipher, error) {
	if len(masterKey) == 0 {
		return nil, errors.New("主密钥不能为空")
	}

	key := sha256.Sum256(masterKey)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("初始化AES失败: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("初始化GCM失败: %w", err)
	}
	return &AESCipher{aead: aead}, nil
}

// Encrypt 加密明文，返回base64编码的nonce+密文
func (c *AESCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("生成nonce失败: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt 解密base64编码的密文
func (c *AESCipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(raw) < c.aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("解密失败: %w", err)
	}
	return string(plain), nil
}
