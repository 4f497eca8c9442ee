package services

import (
	"os"
	"strings"
	"sync"
)

// TokenSource reads the service-account token once. A missing file is normal
// outside the cluster and yields an empty token.
type TokenSource struct {
	path  string
	once  sync.Once
	token string
}

func NewTokenSource(path string) *TokenSource {
	return &TokenSource{path: path}
}

func (t *TokenSource) Token() string {
	t.once.Do(func() {
		if t.path == "" {
			return
		}
		b, err := os.ReadFile(t.path)
		if err != nil {
			return
		}
		t.token = strings.TrimSpace(string(b))
	})
	return t.token
}
