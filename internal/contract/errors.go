package contract

import (
	"context"
	"errors"
)

// Error taxonomy shared by every data path. Wrap these with fmt.Errorf("%w: ...")
// and match them with errors.Is.
var (
	// ErrConnectivity means the remote service is unreachable or unhealthy.
	ErrConnectivity = errors.New("service unavailable")

	// ErrFormat means a response or file did not have the expected shape.
	ErrFormat = errors.New("unexpected data")

	// ErrTimeout means a request exceeded its deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrValidation marks a record that failed parse-time checks. It is logged, never surfaced.
	ErrValidation = errors.New("invalid record")

	// ErrNotImplemented means the operation is not available for the current source.
	ErrNotImplemented = errors.New("not yet implemented")

	// ErrDatasetMissing means the static dataset could not be found at startup.
	ErrDatasetMissing = errors.New("dataset not found")
)

// UserMessage maps an error to the short message shown to end users.
// Unknown errors are returned verbatim.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotImplemented):
		return err.Error()
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout.Error()
	case errors.Is(err, ErrConnectivity):
		return ErrConnectivity.Error()
	case errors.Is(err, ErrFormat):
		return ErrFormat.Error()
	case errors.Is(err, ErrDatasetMissing):
		return ErrDatasetMissing.Error()
	default:
		return err.Error()
	}
}
