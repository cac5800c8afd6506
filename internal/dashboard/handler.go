package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/challan-admin/challan-admin/internal/remote"
	"github.com/challan-admin/challan-admin/internal/shared"
	"github.com/challan-admin/challan-admin/internal/view"
)

// ListDiscarder drops a session's held list page.
type ListDiscarder interface {
	Discard(ctx context.Context, sessionID string) error
}

// Handler renders the dashboard.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	lists     []ListDiscarder
}

// NewHandler builds Handler instance. Lists are discarded whenever the
// dashboard is shown, so returning to a list starts from a fresh fetch.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, lists ...ListDiscarder) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, lists: lists}
}

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
}

type pageData struct {
	AdminName   string
	Error       string
	Available   bool
	Users       int
	Records     int
	RefreshedAt time.Time
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	for _, list := range h.lists {
		if err := list.Discard(r.Context(), sess.ID); err != nil {
			h.logger.Warn("discard list state", slog.Any("error", err))
		}
	}

	data := pageData{AdminName: sess.AdminName()}
	counts, err := h.service.Counts(remote.WithSubject(r.Context(), sess.AdminID()))
	if err != nil {
		h.logger.Warn("load dashboard counts", slog.Any("error", err))
		data.Error = "Counts are unavailable right now."
	} else {
		data.Available = true
		data.Users = counts.Users
		data.Records = counts.Records
		data.RefreshedAt = counts.RefreshedAt
	}

	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Dashboard",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		AdminName:   sess.AdminName(),
		Data:        data,
	}
	if err := h.templates.Render(w, "pages/dashboard.html", viewData); err != nil {
		h.logger.Error("render dashboard", slog.Any("error", err))
	}
}
