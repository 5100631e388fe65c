package form

import (
	"encoding/base64"
	"testing"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

func TestPickerDerivesPreview(t *testing.T) {
	picker := NewImagePicker()

	<-picker.Select("scan.png", pngHeader)

	expected := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
	if got := picker.Preview(); got != expected {
		t.Errorf("expected preview %q, got %q", expected, got)
	}

	sel := picker.Selection()
	if sel == nil {
		t.Fatal("expected a selection")
	}
	if sel.Filename != "scan.png" {
		t.Errorf("expected filename scan.png, got %q", sel.Filename)
	}
	if string(sel.Data) != string(pngHeader) {
		t.Errorf("expected original bytes to be kept, got %v", sel.Data)
	}
	if sel.Preview != expected {
		t.Errorf("expected selection preview %q, got %q", expected, sel.Preview)
	}
}

func TestPickerSelectionDoesNotWaitForPreview(t *testing.T) {
	picker := NewImagePicker()

	// The selection must be usable immediately; only the preview lags.
	picker.Select("scan.png", pngHeader)
	if sel := picker.Selection(); sel == nil || len(sel.Data) == 0 {
		t.Fatal("expected the selection to be available before the preview is ready")
	}
}

func TestPickerReplacesPriorSelection(t *testing.T) {
	picker := NewImagePicker()

	<-picker.Select("first.png", pngHeader)
	firstPreview := picker.Preview()

	jpegHeader := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	<-picker.Select("second.jpg", jpegHeader)

	sel := picker.Selection()
	if sel == nil || sel.Filename != "second.jpg" {
		t.Fatalf("expected the second selection to replace the first, got %+v", sel)
	}
	if picker.Preview() == firstPreview {
		t.Error("expected the preview to be rederived for the new selection")
	}
}

func TestPickerClear(t *testing.T) {
	picker := NewImagePicker()

	done := picker.Select("scan.png", pngHeader)
	picker.Clear()
	<-done

	if sel := picker.Selection(); sel != nil {
		t.Errorf("expected no selection after clear, got %+v", sel)
	}
	// A derivation racing the clear must not resurrect the preview.
	if got := picker.Preview(); got != "" {
		t.Errorf("expected no preview after clear, got %q", got)
	}
}

func TestDataURLSniffsMIME(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{"png", pngHeader, "data:image/png;base64,"},
		{"plain text", []byte("hello"), "data:text/plain; charset=utf-8;base64,"},
	}

	for _, test := range tests {
		got := DataURL(test.data)
		if len(got) < len(test.expected) || got[:len(test.expected)] != test.expected {
			t.Errorf("%s: expected prefix %q, got %q", test.name, test.expected, got)
		}
	}
}
