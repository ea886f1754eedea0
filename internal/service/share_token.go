package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const shareTokenBytes = 16

// GenerateShareToken 生成 16 字节随机数的 base64url（无填充）编码，长度 22。
func GenerateShareToken() (string, error) {
	buf := make([]byte, shareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
