package service

import (
	"errors"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
)

func asDomainError(err error) (*core.DomainError, bool) {
	var de *core.DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}
