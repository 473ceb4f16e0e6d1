package git

import (
	"errors"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
)

func asDomain(err error, target **core.DomainError) bool {
	return errors.As(err, target)
}
