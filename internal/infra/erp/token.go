package erp

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// TokenSource provides the bearer credential for ERP calls. An empty
// token with a nil error means no credential is currently available;
// the client then skips the call instead of failing it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token from config.
type StaticTokenSource string

func (s StaticTokenSource) Token(_ context.Context) (string, error) {
	return string(s), nil
}

// FileTokenSource re-reads the token file on every call, so an
// external process can rotate the credential without a restart.
type FileTokenSource struct {
	path string
}

func NewFileTokenSource(path string) *FileTokenSource {
	return &FileTokenSource{path: path}
}

func (f *FileTokenSource) Token(_ context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
