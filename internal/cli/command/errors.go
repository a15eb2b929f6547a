package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kinance/kinance-go/internal/client/apiclient"
)

// DescribeError renders err for the terminal. Field-level validation
// errors are listed one per line, sorted by field.
func DescribeError(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}

	switch {
	case errors.Is(apiErr, apiclient.ErrNetwork):
		return fmt.Sprintf("%s; check --server or api.base_url", apiErr.Message)
	case errors.Is(apiErr, apiclient.ErrUnauthorized):
		return fmt.Sprintf("%s; sign in again with 'login'", apiErr.Message)
	case errors.Is(apiErr, apiclient.ErrValidation):
		return apiErr.Message + "\n" + fieldLines(apiErr.Errors)
	}
	return err.Error()
}

func fieldLines(fields map[string][]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("  %s: %s", name, strings.Join(fields[name], "; ")))
	}
	return strings.Join(lines, "\n")
}
