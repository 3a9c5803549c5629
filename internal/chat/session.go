package chat

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const sessionSuffixLen = 9

// NewSessionID returns a correlation token for one chat view. The backend
// threads conversational context by this value, so it must stay constant for
// the view's lifetime and differ across mounts (time plus random suffix).
func NewSessionID() string {
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), randomSuffix(sessionSuffixLen))
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomSuffix(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(base36[rand.Intn(len(base36))])
	}
	return sb.String()
}
