package utils

import (
	"crypto/rand"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const base62 = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// MinIDLength is the shortest id body GenerateID accepts.
const MinIDLength = 14

// SlugPrefix and SlugLength describe wrapped record slugs.
const (
	SlugPrefix = "w_"
	SlugLength = 18
)

// GenerateID returns prefix followed by length characters: an 8-char
// zero-padded base36 millisecond timestamp, then base62 random characters
// from crypto/rand. Ids sort roughly by creation time.
func GenerateID(prefix string, length int) (string, error) {
	if length < MinIDLength {
		return "", fmt.Errorf("generate id: length %d must be >= %d", length, MinIDLength)
	}
	timePart := strconv.FormatInt(time.Now().UnixMilli(), 36)
	if len(timePart) < 8 {
		timePart = strings.Repeat("0", 8-len(timePart)) + timePart
	}

	randomLength := length - len(timePart)
	need := int(math.Ceil(float64(randomLength) * math.Log2(62) / 8))
	if need < randomLength {
		need = randomLength
	}
	buf := make([]byte, need)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}

	var b strings.Builder
	b.Grow(len(prefix) + length)
	b.WriteString(prefix)
	b.WriteString(timePart)
	for _, c := range buf[:randomLength] {
		b.WriteByte(base62[int(c)%len(base62)])
	}
	return b.String(), nil
}

// NewSlug returns a fresh wrapped slug, e.g. "w_lq3k9z0a4FhT0bQx2m".
func NewSlug() (string, error) {
	return GenerateID(SlugPrefix, SlugLength)
}

// RandomString returns n base62 characters from crypto/rand.
func RandomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, c := range buf {
		buf[i] = base62[int(c)%len(base62)]
	}
	return string(buf), nil
}
