package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
)

const (
	charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	ShortCodeLength        = 6
	DefaultMaxCodeAttempts = 10
)

// ExistsFunc reports whether code is held by an active short URL
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// CodeGenerator draws random short codes until one is free.
type CodeGenerator struct {
	maxAttempts int
	generate    func(length int) (string, error)
}

func NewCodeGenerator(maxAttempts int) *CodeGenerator {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxCodeAttempts
	}
	return &CodeGenerator{
		maxAttempts: maxAttempts,
		generate:    generateShortCode,
	}
}

// Allocate returns a code for which exists reports false. It gives up with
// domain.ErrCodeGenerationExhausted after maxAttempts collisions.
func (g *CodeGenerator) Allocate(ctx context.Context, exists ExistsFunc) (string, error) {
	for i := 0; i < g.maxAttempts; i++ {
		code, err := g.generate(ShortCodeLength)
		if err != nil {
			return "", fmt.Errorf("generate short code: %w", err)
		}

		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check short code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", domain.ErrCodeGenerationExhausted
}

func generateShortCode(length int) (string, error) {
	b := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range b {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = charset[num.Int64()]
	}
	return string(b), nil
}
