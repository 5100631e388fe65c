package form

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/dsavitskiy/inferform/pkg/domain"
	"github.com/dsavitskiy/inferform/pkg/logger"
)

type Generator interface {
	Generate(ctx context.Context, state *domain.FormState) (string, error)
}

// Result is the outcome of one submission. Exactly one of Text and ErrorText
// is set; the notification describes the outcome for the transient banner.
type Result struct {
	Text         string
	ErrorText    string
	Notification domain.Notification
}

type Controller struct {
	generator Generator
	loading   atomic.Bool
}

func NewController(generator Generator) *Controller {
	return &Controller{generator: generator}
}

// Loading reports whether a submission is in flight. It only disables the
// submit control in the rendered page; it does not serialize submissions.
func (c *Controller) Loading() bool {
	return c.loading.Load()
}

// Submit validates the form state and, when valid, issues the single
// inference call. Validation failures produce a notification and no network
// traffic; the form stays editable. Every failure is terminal for this
// submission.
func (c *Controller) Submit(ctx context.Context, state *domain.FormState) Result {
	state.Prompt = strings.TrimSpace(state.Prompt)
	state.System = strings.TrimSpace(state.System)

	if err := Validate(state); err != nil {
		slog.InfoContext(ctx, "Rejecting submission", logger.Err(err))
		return Result{Notification: domain.Notification{
			Kind: domain.NotificationValidation,
			Text: err.Error(),
		}}
	}

	c.loading.Store(true)
	defer c.loading.Store(false)

	ctx = logger.ContextWithSubmissionID(ctx, uuid.NewString())

	slog.InfoContext(ctx, "Submitting prompt",
		"mode", state.Mode, "chained", state.Chained, "promptLen", len(state.Prompt))

	text, err := c.generator.Generate(ctx, state)
	if err != nil {
		slog.ErrorContext(ctx, "Generation failed", logger.Err(err))
		return Result{
			ErrorText: "Error: " + err.Error(),
			Notification: domain.Notification{
				Kind: domain.NotificationFailure,
				Text: "Generation failed",
			},
		}
	}

	slog.InfoContext(ctx, "Generation succeeded", "responseLen", len(text))

	return Result{
		Text: text,
		Notification: domain.Notification{
			Kind: domain.NotificationSuccess,
			Text: "Response received",
		},
	}
}

// Validate checks the form state against the submission constraints,
// reporting every violation at once.
func Validate(state *domain.FormState) error {
	var result *multierror.Error

	prompt := strings.TrimSpace(state.Prompt)
	if prompt == "" {
		result = multierror.Append(result, domain.ErrPromptRequired)
	}
	if utf8.RuneCountInString(prompt) > domain.PromptMaxLen {
		result = multierror.Append(result, domain.ErrPromptTooLong)
	}

	// The system prompt only travels in text mode; it is ignored otherwise.
	if state.Mode == domain.ModeText && utf8.RuneCountInString(strings.TrimSpace(state.System)) > domain.SystemMaxLen {
		result = multierror.Append(result, domain.ErrSystemTooLong)
	}

	if state.Mode == domain.ModeImage && (state.Image == nil || len(state.Image.Data) == 0) {
		result = multierror.Append(result, domain.ErrImageRequired)
	}

	return result.ErrorOrNil()
}
