package domain

import (
	"fmt"
	"strings"
)

// Mode selects between the text-only and image+text inference paths.
type Mode string

const (
	ModeText  Mode = "text"
	ModeImage Mode = "image"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeText, "":
		return ModeText, nil
	case ModeImage:
		return ModeImage, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

const (
	PromptMaxLen = 2000
	SystemMaxLen = 500
)

// FormState holds one submission's worth of user input. It lives for a single
// request/response cycle and is never persisted.
type FormState struct {
	Mode    Mode
	Prompt  string
	System  string
	Chained bool
	Image   *ImageSelection
}

func NewFormState() FormState {
	return FormState{Mode: ModeText}
}

// ImageSelection is the file chosen in image mode. Preview is a base64 data
// URL derived from Data after the selection is made; it may still be empty
// when the form is submitted.
type ImageSelection struct {
	Filename string
	Data     []byte
	Preview  string
}
