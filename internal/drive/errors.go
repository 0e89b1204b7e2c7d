package drive

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

// Sentinel errors for the two remote failure classes the aggregation
// engine treats specially. Everything else is a generic failure.
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrRateLimited      = errors.New("rate limited")
)

// IsPermissionDenied reports whether err is a permission failure.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsRateLimited reports whether err is a rate-limit or quota failure.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// classifyError wraps provider errors with the matching sentinel so
// callers can use errors.Is without importing googleapi. A 403 counts as
// rate limiting when its reason says so, otherwise as permission denial.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case 403:
		for _, e := range apiErr.Errors {
			if strings.Contains(e.Reason, "ateLimitExceeded") || e.Reason == "quotaExceeded" {
				return fmt.Errorf("%w: %v", ErrRateLimited, err)
			}
		}
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case 429:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return err
}
