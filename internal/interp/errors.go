package interp

import (
	"errors"
	"fmt"
)

// StepsExceededError reports that a run burned through its step quota.
// Obfuscated modules contain real loops (the wrap transform, the startup
// decryptor), so the quota is the guard that keeps a miscompiled module from
// hanging a test run forever.
type StepsExceededError struct {
	Func  string // function executing when the quota ran out
	Limit int
}

func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("step quota exceeded in %s (limit %d)", e.Func, e.Limit)
}

// IsStepsExceeded reports whether err is (or wraps) a StepsExceededError.
func IsStepsExceeded(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
