package id

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// shareAlphabet omits the look-alikes 0, 1, l and o.
const shareAlphabet = "23456789abcdefghijkmnpqrstuvwxyz"

const shareSuffixLen = 10

// NewShareID returns a share identifier made of a base-36 millisecond
// timestamp and a random suffix, e.g. "m2f8k1q0-7hq2xw9dkp".
//
// Uniqueness is probabilistic; nothing checks for collisions.
func NewShareID(now time.Time) (string, error) {
	suffix, err := gonanoid.Generate(shareAlphabet, shareSuffixLen)
	if err != nil {
		return "", fmt.Errorf("generate share id: %w", err)
	}
	return strconv.FormatInt(now.UnixMilli(), 36) + "-" + suffix, nil
}

const sessionLen = 32

// NewSession returns an opaque session token drawn from the URL-safe nanoid
// alphabet, so it can travel in a cookie or a bearer header unescaped.
func NewSession() (string, error) {
	token, err := gonanoid.New(sessionLen)
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return token, nil
}

// New returns a random UUID string for accounts and other long-lived records.
func New() string {
	return uuid.NewString()
}
