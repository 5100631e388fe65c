package form

import (
	"context"
	"strings"
	"testing"

	"github.com/dsavitskiy/inferform/pkg/domain"
)

type fakeGenerator struct {
	calls     int
	lastState *domain.FormState
	text      string
	err       error
}

func (f *fakeGenerator) Generate(_ context.Context, state *domain.FormState) (string, error) {
	f.calls++
	copied := *state
	f.lastState = &copied
	return f.text, f.err
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name        string
		state       domain.FormState
		expectedMsg string
	}{
		{
			name:        "empty prompt",
			state:       domain.FormState{Mode: domain.ModeText},
			expectedMsg: domain.ErrPromptRequired.Error(),
		},
		{
			name:        "whitespace-only prompt",
			state:       domain.FormState{Mode: domain.ModeText, Prompt: "   \n\t "},
			expectedMsg: domain.ErrPromptRequired.Error(),
		},
		{
			name:        "prompt too long",
			state:       domain.FormState{Mode: domain.ModeText, Prompt: strings.Repeat("a", domain.PromptMaxLen+1)},
			expectedMsg: domain.ErrPromptTooLong.Error(),
		},
		{
			name: "system too long in text mode",
			state: domain.FormState{
				Mode:   domain.ModeText,
				Prompt: "hi",
				System: strings.Repeat("s", domain.SystemMaxLen+1),
			},
			expectedMsg: domain.ErrSystemTooLong.Error(),
		},
		{
			name:        "image mode without file",
			state:       domain.FormState{Mode: domain.ModeImage, Prompt: "hi"},
			expectedMsg: domain.ErrImageRequired.Error(),
		},
		{
			name:        "image mode with empty file",
			state:       domain.FormState{Mode: domain.ModeImage, Prompt: "hi", Image: &domain.ImageSelection{}},
			expectedMsg: domain.ErrImageRequired.Error(),
		},
		{
			name:        "empty prompt and missing image reported together",
			state:       domain.FormState{Mode: domain.ModeImage},
			expectedMsg: domain.ErrPromptRequired.Error(),
		},
	}

	for _, test := range tests {
		gen := &fakeGenerator{}
		controller := NewController(gen)

		state := test.state
		result := controller.Submit(context.Background(), &state)

		if gen.calls != 0 {
			t.Errorf("%s: expected no network call, got %d", test.name, gen.calls)
		}
		if result.Notification.Kind != domain.NotificationValidation {
			t.Errorf("%s: expected a validation notification, got %q", test.name, result.Notification.Kind)
		}
		if !strings.Contains(result.Notification.Text, test.expectedMsg) {
			t.Errorf("%s: expected notification to mention %q, got %q", test.name, test.expectedMsg, result.Notification.Text)
		}
		if result.Text != "" || result.ErrorText != "" {
			t.Errorf("%s: expected no rendered output, got text=%q error=%q", test.name, result.Text, result.ErrorText)
		}
	}
}

func TestSubmitIgnoresSystemInImageMode(t *testing.T) {
	gen := &fakeGenerator{text: "ok"}
	controller := NewController(gen)

	state := domain.FormState{
		Mode:   domain.ModeImage,
		Prompt: "hi",
		System: strings.Repeat("s", domain.SystemMaxLen+1),
		Image:  &domain.ImageSelection{Filename: "a.png", Data: []byte{1}},
	}

	result := controller.Submit(context.Background(), &state)
	if result.Notification.Kind != domain.NotificationSuccess {
		t.Fatalf("expected success, got %q: %s", result.Notification.Kind, result.Notification.Text)
	}
	if gen.calls != 1 {
		t.Errorf("expected one network call, got %d", gen.calls)
	}
}

func TestSubmitTrimsInput(t *testing.T) {
	gen := &fakeGenerator{text: "ok"}
	controller := NewController(gen)

	state := domain.FormState{Mode: domain.ModeText, Prompt: "  Hello \n", System: " Sys "}
	controller.Submit(context.Background(), &state)

	if gen.lastState == nil {
		t.Fatal("expected the generator to be called")
	}
	if gen.lastState.Prompt != "Hello" {
		t.Errorf("expected trimmed prompt 'Hello', got %q", gen.lastState.Prompt)
	}
	if gen.lastState.System != "Sys" {
		t.Errorf("expected trimmed system 'Sys', got %q", gen.lastState.System)
	}
}

func TestSubmitSuccess(t *testing.T) {
	gen := &fakeGenerator{text: "Diagnosis: X"}
	controller := NewController(gen)

	state := domain.FormState{Mode: domain.ModeText, Prompt: "Hello"}
	result := controller.Submit(context.Background(), &state)

	if result.Text != "Diagnosis: X" {
		t.Errorf("expected rendered text 'Diagnosis: X', got %q", result.Text)
	}
	if result.ErrorText != "" {
		t.Errorf("expected no error text, got %q", result.ErrorText)
	}
	if result.Notification.Kind != domain.NotificationSuccess {
		t.Errorf("expected a success notification, got %q", result.Notification.Kind)
	}
	if controller.Loading() {
		t.Error("expected the loading flag to be cleared after submission")
	}
}

func TestSubmitRendersUpstreamError(t *testing.T) {
	gen := &fakeGenerator{err: &domain.PredictError{StatusCode: 500, Message: "server error"}}
	controller := NewController(gen)

	state := domain.FormState{Mode: domain.ModeText, Prompt: "Hello"}
	result := controller.Submit(context.Background(), &state)

	expected := "Error: HTTP error! status: 500, message: server error"
	if result.ErrorText != expected {
		t.Errorf("expected %q, got %q", expected, result.ErrorText)
	}
	if result.Text != "" {
		t.Errorf("expected no rendered text, got %q", result.Text)
	}
	if result.Notification.Kind != domain.NotificationFailure {
		t.Errorf("expected a failure notification, got %q", result.Notification.Kind)
	}
	if controller.Loading() {
		t.Error("expected the loading flag to be cleared after a failure")
	}
}

func TestValidateReportsAllViolations(t *testing.T) {
	state := domain.FormState{Mode: domain.ModeImage}
	err := Validate(&state)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	for _, expected := range []string{domain.ErrPromptRequired.Error(), domain.ErrImageRequired.Error()} {
		if !strings.Contains(err.Error(), expected) {
			t.Errorf("expected validation error to mention %q, got %q", expected, err.Error())
		}
	}
}
