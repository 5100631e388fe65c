package web

import (
	"context"
	"embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"

	"github.com/russross/blackfriday"

	"github.com/dsavitskiy/inferform/pkg/api/response"
	"github.com/dsavitskiy/inferform/pkg/domain"
	"github.com/dsavitskiy/inferform/pkg/form"
	"github.com/dsavitskiy/inferform/pkg/logger"
)

//go:embed templates/index.html
var templatesFS embed.FS

type Controller interface {
	Submit(ctx context.Context, state *domain.FormState) form.Result
	Loading() bool
}

type ImagePicker interface {
	Select(filename string, data []byte) <-chan struct{}
	Selection() *domain.ImageSelection
	Preview() string
	Clear()
}

type Server struct {
	controller Controller
	picker     ImagePicker
	maxUpload  int64
	tmpl       *template.Template
	writer     response.JSONResponseWriter
}

func NewServer(controller Controller, picker ImagePicker, maxUpload int64) (*Server, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}

	return &Server{
		controller: controller,
		picker:     picker,
		maxUpload:  maxUpload,
		tmpl:       tmpl,
	}, nil
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/submit", s.handleSubmit)
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/api/preview", s.handlePreview)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// pageData is the model rendered into the form page.
type pageData struct {
	Form         domain.FormState
	Loading      bool
	Notification *domain.Notification
	ResponseHTML template.HTML
	ErrorText    string
	// Preview is a data URL; typed so the template does not sanitize it.
	Preview      template.URL
	PromptMaxLen int
	SystemMaxLen int
}

func (s *Server) newPageData(formState domain.FormState) pageData {
	return pageData{
		Form:         formState,
		Loading:      s.controller.Loading(),
		Preview:      template.URL(s.picker.Preview()),
		PromptMaxLen: domain.PromptMaxLen,
		SystemMaxLen: domain.SystemMaxLen,
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.renderPage(w, r, s.newPageData(domain.NewFormState()))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state, err := s.parseForm(r)
	if err != nil {
		data := s.newPageData(state)
		data.Notification = &domain.Notification{
			Kind: domain.NotificationValidation,
			Text: err.Error(),
		}
		s.renderPage(w, r, data)
		return
	}

	result := s.controller.Submit(r.Context(), &state)

	data := s.newPageData(state)
	data.Notification = &result.Notification
	data.ErrorText = result.ErrorText
	if result.Text != "" {
		data.ResponseHTML = renderMarkdown(result.Text)
	}
	s.renderPage(w, r, data)
}

// parseForm maps the posted multipart form onto a FormState. An uploaded
// file replaces the picker's previous selection; without one the current
// selection, if any, is carried over.
func (s *Server) parseForm(r *http.Request) (domain.FormState, error) {
	state := domain.NewFormState()

	r.Body = http.MaxBytesReader(nil, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return state, fmt.Errorf("parsing form: %w", err)
	}

	mode, err := domain.ParseMode(r.FormValue("mode"))
	if err != nil {
		return state, err
	}

	state.Mode = mode
	state.Prompt = r.FormValue("prompt")
	state.System = r.FormValue("system")
	state.Chained = r.FormValue("chained") != ""

	if r.FormValue("clear_image") != "" {
		s.picker.Clear()
	}

	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return state, fmt.Errorf("reading uploaded image: %w", err)
		}
		s.picker.Select(header.Filename, data)
	} else if !errors.Is(err, http.ErrMissingFile) {
		return state, fmt.Errorf("reading image part: %w", err)
	}

	if state.Mode == domain.ModeImage {
		state.Image = s.picker.Selection()
	}

	return state, nil
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		slog.ErrorContext(r.Context(), "executing page template", logger.Err(err))
	}
}

type generateRequest struct {
	Mode     string `json:"mode"`
	Prompt   string `json:"prompt"`
	System   string `json:"system"`
	Chained  bool   `json:"chained"`
	Image    string `json:"image,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// handleGenerate is the JSON twin of the form flow for programmatic callers.
// The image travels base64-encoded in the request body.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writer.WriteErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, s.maxUpload)).Decode(&req); err != nil {
		s.writer.WriteErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("decoding request: %v", err))
		return
	}

	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		s.writer.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	state := domain.FormState{
		Mode:    mode,
		Prompt:  req.Prompt,
		System:  req.System,
		Chained: req.Chained,
	}

	if req.Image != "" {
		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			s.writer.WriteErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("decoding image: %v", err))
			return
		}
		state.Image = &domain.ImageSelection{Filename: req.Filename, Data: data}
	}

	result := s.controller.Submit(r.Context(), &state)
	switch {
	case result.Notification.Kind == domain.NotificationValidation:
		s.writer.WriteErrorResponse(w, http.StatusBadRequest, result.Notification.Text)
	case result.ErrorText != "":
		s.writer.WriteErrorResponse(w, http.StatusBadGateway, result.ErrorText)
	default:
		s.writer.WriteSuccessResponse(w, map[string]string{"response": result.Text})
	}
}

// handlePreview stores an uploaded image as the current selection and waits
// for its data-URL preview, so the page can show it before submitting.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodDelete:
		s.picker.Clear()
		s.writer.WriteSuccessResponse(w, map[string]string{"preview": ""})
	case http.MethodPost:
		r.Body = http.MaxBytesReader(nil, r.Body, s.maxUpload)
		if err := r.ParseMultipartForm(s.maxUpload); err != nil {
			s.writer.WriteErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("parsing form: %v", err))
			return
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			s.writer.WriteErrorResponse(w, http.StatusBadRequest, "image file is missing")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			s.writer.WriteErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("reading uploaded image: %v", err))
			return
		}

		<-s.picker.Select(header.Filename, data)
		s.writer.WriteSuccessResponse(w, map[string]string{
			"filename": header.Filename,
			"preview":  s.picker.Preview(),
		})
	default:
		s.writer.WriteErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writer.WriteSuccessResponse(w, map[string]string{"status": "ok"})
}

func renderMarkdown(text string) template.HTML {
	return template.HTML(blackfriday.MarkdownCommon([]byte(text)))
}
