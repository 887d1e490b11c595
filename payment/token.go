package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidOrderToken 订单令牌无效错误
var ErrInvalidOrderToken = errors.New("订单令牌无效")

// SignOrderToken 为订单号签发一个短期HS256令牌
//
// 令牌会被追加到成功/失败跳转地址上，落地页据此信任订单号
// 而无需先查库。
func SignOrderToken(secret []byte, orderCode string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   orderCode,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("签发订单令牌失败: %w", err)
	}
	return signed, nil
}

// ParseOrderToken 校验令牌并返回其中的订单号
func ParseOrderToken(secret []byte, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("不支持的签名算法: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidOrderToken
	}
	return claims.Subject, nil
}
