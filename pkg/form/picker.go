package form

import (
	"encoding/base64"
	"net/http"
	"sync"

	"github.com/dsavitskiy/inferform/pkg/domain"
)

// ImagePicker holds at most one image selection and derives its preview.
// The preview is produced asynchronously: a submission may run before it is
// ready, since the preview never gates the upstream call.
type ImagePicker struct {
	mu        sync.Mutex
	gen       uint64
	selection *domain.ImageSelection
	preview   string
}

func NewImagePicker() *ImagePicker {
	return &ImagePicker{}
}

// Select replaces any previous selection with the given file and starts
// deriving its data-URL preview. The returned channel closes once the
// preview derivation finishes.
func (p *ImagePicker) Select(filename string, data []byte) <-chan struct{} {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.selection = &domain.ImageSelection{Filename: filename, Data: data}
	p.preview = ""
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		preview := DataURL(data)

		p.mu.Lock()
		// A newer selection or a clear may have raced the derivation.
		if p.gen == gen {
			p.preview = preview
		}
		p.mu.Unlock()
	}()
	return done
}

// Selection returns a copy of the current selection with whatever preview is
// ready so far, or nil when nothing is picked.
func (p *ImagePicker) Selection() *domain.ImageSelection {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selection == nil {
		return nil
	}
	sel := *p.selection
	sel.Preview = p.preview
	return &sel
}

// Preview returns the current selection's data URL, or "" while the
// derivation is still running or nothing is selected.
func (p *ImagePicker) Preview() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.preview
}

// Clear drops both the selection and its preview.
func (p *ImagePicker) Clear() {
	p.mu.Lock()
	p.gen++
	p.selection = nil
	p.preview = ""
	p.mu.Unlock()
}

// DataURL encodes image bytes as a base64 data URL, sniffing the MIME type
// from the content.
func DataURL(data []byte) string {
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
