package cache

import (
	"crypto/sha1"
	"fmt"
	"time"
)

const (
	ResultTTL  = 1 * time.Hour
	DefaultTTL = 5 * time.Minute
)

// ResultKey generates the Redis key for a cached classification of cleaned
// text by model. The text is hashed so keys stay short.
func ResultKey(model, cleanedText string) string {
	hash := sha1.Sum([]byte(fmt.Sprintf("%s|%s", model, cleanedText)))
	return fmt.Sprintf("truthlens:v1:result:%x", hash)
}
