package errutil

import (
	"errors"

	"github.com/xeptore/flaw/v8"
)

func IsFlaw(err error) bool {
	if flawErr := new(flaw.Flaw); errors.As(err, &flawErr) {
		return true
	}
	return false
}
