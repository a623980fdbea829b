package knowledge

import "errors"

var (
	ErrEntryNotFound   = errors.New("knowledge: entry not found")
	ErrMissingIntent   = errors.New("knowledge: intent is required")
	ErrMissingResponse = errors.New("knowledge: response is required")
)
