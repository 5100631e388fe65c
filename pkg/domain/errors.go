package domain

import (
	"errors"
	"fmt"
)

var (
	ErrPromptRequired = errors.New("prompt is required")
	ErrPromptTooLong  = fmt.Errorf("prompt must be at most %d characters", PromptMaxLen)
	ErrSystemTooLong  = fmt.Errorf("system prompt must be at most %d characters", SystemMaxLen)
	ErrImageRequired  = errors.New("an image file is required in image mode")
)

// PredictError is a non-2xx reply from the inference service. Message holds
// the raw response body text.
type PredictError struct {
	StatusCode int
	Message    string
}

func (e *PredictError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d, message: %s", e.StatusCode, e.Message)
}
