package handlers

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/MrPunder/codeform/internal/export"
	"github.com/MrPunder/codeform/internal/form"
	"github.com/MrPunder/codeform/internal/logger"
	"github.com/MrPunder/codeform/internal/middleware"
	"github.com/MrPunder/codeform/internal/models"
	"github.com/MrPunder/codeform/internal/render"
	"github.com/MrPunder/codeform/internal/session"
	"github.com/MrPunder/codeform/internal/theme"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/index.html
var templatesFS embed.FS

// StateResponse - состояние формы с превью текущего кода
type StateResponse struct {
	State         models.FormState `json:"state"`
	HasLogoUpload bool             `json:"has_logo_upload"`
	Preview       *PreviewResponse `json:"preview,omitempty"`
}

// PreviewResponse - содержимое области превью; пустой DataURL означает "ничего не нарисовано"
type PreviewResponse struct {
	Kind     models.SymbolKind `json:"kind"`
	Filename string            `json:"filename"`
	DataURL  string            `json:"data_url"`
	SVG      string            `json:"svg,omitempty"`
	// SVGURL - одноразовая ссылка на разметку штрихкода, освобождается при первом чтении
	SVGURL   string            `json:"svg_url,omitempty"`
}

// ThemeRequest - выбор темы; пустая тема переключает текущую
type ThemeRequest struct {
	Theme string `json:"theme"`
}

type ThemeResponse struct {
	Theme models.Theme `json:"theme"`
}

type FormatRequest struct {
	Format string `json:"format"`
}

type Handler struct {
	logger    logger.Logger
	renderer  *render.Renderer
	exporter  *export.Exporter
	themes    *theme.Preference
	maxUpload int64
	timeout   time.Duration
	page      *template.Template
}

func NewHandler(logger logger.Logger, renderer *render.Renderer, exporter *export.Exporter, themes *theme.Preference, maxUpload int64) *Handler {
	return &Handler{
		logger:    logger,
		renderer:  renderer,
		exporter:  exporter,
		themes:    themes,
		maxUpload: maxUpload,
		timeout:   10 * time.Second,
		page:      template.Must(template.ParseFS(templatesFS, "templates/index.html")),
	}
}

// NewRouter собирает маршруты страницы формы и программного API.
// Непустой staticDir раздается по /static/.
func NewRouter(h *Handler, sessions *session.Middleware, tokenAuth *middleware.TokenAuth, staticDir string) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/ping", h.PingHandler)

	if staticDir != "" {
		fs := http.FileServer(http.Dir(staticDir))
		r.Handle("/static/*", http.StripPrefix("/static/", fs))
	}

	r.Group(func(r chi.Router) {
		r.Use(sessions.Handler)

		r.Get("/", h.PageHandler)

		r.Route("/api", func(r chi.Router) {
			r.Get("/state", h.GetStateHandler)
			r.Patch("/state", h.PatchStateHandler)
			r.Post("/format", h.SetFormatHandler)
			r.Post("/logo", h.UploadLogoHandler)
			r.Delete("/logo", h.DeleteLogoHandler)
			r.Get("/preview", h.PreviewHandler)
			r.Get("/blob/{id}", h.BlobHandler)
			r.Get("/download", h.DownloadHandler)
			r.Get("/copy", h.CopyHandler)
			r.Get("/theme", h.GetThemeHandler)
			r.Post("/theme", h.SetThemeHandler)
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(tokenAuth.Middleware)
		r.Get("/render", h.RenderHandler)
	})

	r.NotFound(h.DefaultHandler)

	return r
}

func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		h.logger.Errorf("Error writing response %v", err)
	}
}

// DefaultHandler for incorrect requests
func (h *Handler) DefaultHandler(w http.ResponseWriter, r *http.Request) {
	h.logger.Debugf("Unknown route %s %s", r.Method, r.URL.Path)
	http.Error(w, "wrong request", http.StatusNotFound)
}

type pageData struct {
	Theme       models.Theme
	State       models.FormState
	Formats     []models.BarcodeFormat
	MinSize     int
	MaxSize     int
	MinLogoSize int
	MaxLogoSize int
}

// PageHandler отдает страницу формы с сохраненной темой клиента
func (h *Handler) PageHandler(w http.ResponseWriter, r *http.Request) {
	client := h.client(w, r)
	if client == nil {
		return
	}

	data := pageData{
		Theme:       h.themes.Load(r.Context(), client.ID),
		State:       client.Form.State(),
		Formats:     []models.BarcodeFormat{models.FormatCode128, models.FormatEAN13, models.FormatUPC, models.FormatCode39},
		MinSize:     models.MinSize,
		MaxSize:     models.MaxSize,
		MinLogoSize: models.MinLogoSizePercent,
		MaxLogoSize: models.MaxLogoSizePercent,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.page.Execute(w, data); err != nil {
		h.logger.Errorf("Error rendering page: %v", err)
	}
}

func (h *Handler) GetStateHandler(w http.ResponseWriter, r *http.Request) {
	client := h.client(w, r)
	if client == nil {
		return
	}
	h.writeJSON(w, http.StatusOK, h.stateResponse(r.Context(), client, false))
}

// PatchStateHandler применяет частичное изменение формы
func (h *Handler) PatchStateHandler(w http.ResponseWriter, r *http.Request) {
	client := h.client(w, r)
	if client == nil {
		return
	}

	var patch form.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}
	if err := client.Form.Apply(patch); err != nil {
		h.logger.Debugf("Rejected patch: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, h.stateResponse(r.Context(), client, true))
}

// SetFormatHandler меняет формат штрихкода и сбрасывает текст на значение по умолчанию
func (h *Handler) SetFormatHandler(w http.ResponseWriter, r *http.Request) {
	client := h.client(w, r)
	if client == nil {
		return
	}

	var req FormatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}
	format, err := models.ParseBarcodeFormat(req.Format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	client.Form.SetFormat(format)

	h.writeJSON(w, http.StatusOK, h.stateResponse(r.Context(), client, true))
}

// UploadLogoHandler принимает файл логотипа (поле "logo")
func (h *Handler) UploadLogoHandler(w http.ResponseWriter, r *http.Request) {
	client := h.client(w, r)
	if client == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<16))
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.logger.Errorf("Ошибка парсинга формы: %v", err)
		http.Error(w, "Ошибка загрузки файла", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		http.Error(w, "Файл не найден в запросе", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		h.logger.Errorf("Ошибка чтения файла: %v", err)
		http.Error(w, "Ошибка загрузки файла", http.StatusBadRequest)
		return
	}
	if int64(len(data)) > h.maxUpload {
		http.Error(w, "Файл слишком большой", http.StatusRequestEntityTooLarge)
		return
	}
	if _, err := render.DecodeLogo(data); err != nil {
		http.Error(w, "Файл не является изображением", http.StatusBadRequest)
		return
	}

	client.Form.SetLogoUpload(data, header.Header.Get("Content-Type"))
	h.logger.Infof("Logo %s uploaded by %s (%d bytes)", header.Filename, client.ID, len(data))

	h.writeJSON(w, http.StatusOK, h.stateResponse(r.Context(), client, true))
}

// DeleteLogoHandler удаляет загруженный логотип; снова используется ссылка
func (h *Handler) DeleteLogoHandler(w http.ResponseWriter, r *http.Request) {
	client := h.client(w, r)
	if client == nil {
		return
	}
	client.Form.ClearLogoUpload()
	h.writeJSON(w, http.StatusOK, h.stateResponse(r.Context(), client, true))
}

func (h *Handler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	client := h.client(w, r)
	if client == nil {
		return
	}
	h.writeJSON(w, http.StatusOK, h.preview(r.Context(), client))
}

// DownloadHandler отдает PNG как вложение; если ничего не нарисовано, ответ пустой
func (h *Handler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	client := h.client(w, r)
	if client == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	surface := h.surface(ctx, client)
	if surface == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	target := &trackingActivator{LinkActivator: export.HTTPDownload{W: w}}
	if err := h.exporter.Download(ctx, surface, target); err != nil {
		h.logger.Errorf("Download failed: %v", err)
		if !target.activated {
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

// CopyHandler отдает PNG странице для записи в буфер обмена
func (h *Handler) CopyHandler(w http.ResponseWriter, r *http.Request) {
	client := h.client(w, r)
	if client == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	clip := &trackingClipboard{Clipboard: export.HTTPClipboard{W: w}}
	h.exporter.Copy(ctx, h.surface(ctx, client), clip)
	if !clip.written {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) GetThemeHandler(w http.ResponseWriter, r *http.Request) {
	client := h.client(w, r)
	if client == nil {
		return
	}
	h.writeJSON(w, http.StatusOK, ThemeResponse{Theme: h.themes.Load(r.Context(), client.ID)})
}

// SetThemeHandler сохраняет тему сразу; без темы в запросе переключает текущую
func (h *Handler) SetThemeHandler(w http.ResponseWriter, r *http.Request) {
	client := h.client(w, r)
	if client == nil {
		return
	}

	var req ThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	var (
		t   models.Theme
		err error
	)
	if req.Theme == "" {
		t, err = h.themes.Toggle(r.Context(), client.ID)
	} else {
		if t, err = models.ParseTheme(req.Theme); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err = h.themes.Set(r.Context(), client.ID, t)
	}
	if err != nil {
		h.logger.Errorf("Ошибка сохранения темы: %v", err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, ThemeResponse{Theme: t})
}

// RenderHandler рисует код по параметрам запроса без сохранения состояния.
// output=svg отдает разметку штрихкода вместо PNG.
func (h *Handler) RenderHandler(w http.ResponseWriter, r *http.Request) {
	patch, err := patchFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	surface, _, err := form.Render(ctx, h.renderer, h.logger, patch)
	var applyErr *form.ApplyError
	switch {
	case errors.As(err, &applyErr):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Errorf("Render failed: %v", err)
		http.Error(w, "Nothing rendered", http.StatusUnprocessableEntity)
		return
	}

	if vs, ok := surface.(*export.VectorSurface); ok && r.URL.Query().Get("output") == "svg" {
		w.Header().Set("Content-Type", "image/svg+xml")
		if _, err := io.WriteString(w, vs.Markup()); err != nil {
			h.logger.Errorf("Error writing response %v", err)
		}
		return
	}

	data, err := export.EncodePNG(surface)
	if err != nil {
		h.logger.Errorf("Render failed: %v", err)
		http.Error(w, "Nothing rendered", http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Errorf("Error writing response %v", err)
	}
}

func (h *Handler) client(w http.ResponseWriter, r *http.Request) *session.Client {
	client, ok := session.FromContext(r.Context())
	if !ok {
		h.logger.Error("Request without client session")
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return nil
	}
	return client
}

func (h *Handler) stateResponse(ctx context.Context, client *session.Client, withPreview bool) StateResponse {
	state := client.Form.State()
	resp := StateResponse{
		State:         state,
		HasLogoUpload: state.Logo.HasUpload(),
	}
	if withPreview {
		p := h.preview(ctx, client)
		resp.Preview = &p
	}
	return resp
}

// surface возвращает поверхность клиента или nil, если рисовать нечего
func (h *Handler) surface(ctx context.Context, client *session.Client) export.Surface {
	s, err := h.renderer.Surface(ctx, client.Form.State(), client.Binding)
	if err != nil {
		if !errors.Is(err, export.ErrEmptySurface) {
			h.logger.Errorf("Render failed for %s: %v", client.ID, err)
		}
		return nil
	}
	return s
}

func (h *Handler) preview(ctx context.Context, client *session.Client) PreviewResponse {
	kind := client.Form.State().Kind
	resp := PreviewResponse{Kind: kind, Filename: export.Filename(kind)}

	s := h.surface(ctx, client)
	if s == nil {
		return resp
	}
	url, err := s.ToRasterDataURL()
	if err != nil {
		h.logger.Errorf("Preview failed for %s: %v", client.ID, err)
		return resp
	}
	resp.DataURL = url
	if vs, ok := s.(*export.VectorSurface); ok {
		resp.SVG = vs.Markup()
		if ref, err := vs.ObjectURL(); err != nil {
			h.logger.Errorf("Preview object url failed for %s: %v", client.ID, err)
		} else {
			resp.SVGURL = "/api/blob/" + export.RefID(ref)
		}
	}
	return resp
}

// BlobHandler отдает временный объект один раз и освобождает ссылку
func (h *Handler) BlobHandler(w http.ResponseWriter, r *http.Request) {
	ref := export.BlobScheme + chi.URLParam(r, "id")
	mediaType, data, ok := h.renderer.ObjectURLs().Take(ref)
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Errorf("Error writing response %v", err)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Errorf("Error writing response %v", err)
	}
}

// trackingClipboard запоминает, что PNG был отдан
type trackingClipboard struct {
	export.Clipboard
	written bool
}

func (c *trackingClipboard) WriteImage(ctx context.Context, png []byte) error {
	c.written = true
	return c.Clipboard.WriteImage(ctx, png)
}

// trackingActivator запоминает, что ответ с файлом уже начат
type trackingActivator struct {
	export.LinkActivator
	activated bool
}

func (a *trackingActivator) Activate(ctx context.Context, link export.Link) error {
	a.activated = true
	return a.LinkActivator.Activate(ctx, link)
}

// patchFromQuery переводит параметры запроса в изменение формы
func patchFromQuery(r *http.Request) (form.Patch, error) {
	q := r.URL.Query()
	var p form.Patch

	str := func(key string) *string {
		if !q.Has(key) {
			return nil
		}
		v := q.Get(key)
		return &v
	}
	num := func(key string) (*int, error) {
		if !q.Has(key) {
			return nil, nil
		}
		v, err := strconv.Atoi(q.Get(key))
		if err != nil {
			return nil, errors.New("invalid " + key)
		}
		return &v, nil
	}

	p.Kind = str("kind")
	p.Payload = str("payload")
	p.Foreground = str("fg")
	p.Background = str("bg")
	p.Format = str("format")
	p.LogoURL = str("logo_url")
	p.CornerStyle = str("corner")

	var err error
	if p.Size, err = num("size"); err != nil {
		return p, err
	}
	if p.LogoSizePercent, err = num("logo_size"); err != nil {
		return p, err
	}
	if p.LogoURL != nil && *p.LogoURL != "" {
		include := true
		p.IncludeLogo = &include
	}
	return p, nil
}
