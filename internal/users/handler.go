package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/challan-admin/challan-admin/internal/listview"
	"github.com/challan-admin/challan-admin/internal/platform/httpx"
	"github.com/challan-admin/challan-admin/internal/remote"
	"github.com/challan-admin/challan-admin/internal/shared"
	"github.com/challan-admin/challan-admin/internal/view"
)

// Handler serves the users list and its detail modal.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	pageSize  int
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, pageSize int) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if pageSize <= 0 {
		pageSize = listview.DefaultPageSize
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, pageSize: pageSize}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Post("/modal/close", h.closeModal)
	r.Get("/{id}", h.showUser)
	r.Post("/{id}/toggle", h.toggleUser)
}

type listPage struct {
	Inputs        listview.Inputs
	Rows          []User
	Pagination    shared.Pagination
	State         listview.ViewState
	Notice        string
	LastError     string
	Modal         *User
	ModalError    string
	SortOptions   []option
	StatusOptions []option
}

type option struct {
	Value string
	Label string
}

var (
	sortOptions = []option{
		{SortByUserName, "Sort by Name"},
		{SortByID, "Sort by ID"},
	}
	statusOptions = []option{
		{listview.StatusAll, "All Users"},
		{listview.StatusActive, "Active Users"},
		{listview.StatusInactive, "Inactive Users"},
	}
)

type listJSON struct {
	Users      []User          `json:"users"`
	TotalPages int             `json:"totalPages"`
	Inputs     listview.Inputs `json:"inputs"`
	State      string          `json:"state"`
	Error      string          `json:"error,omitempty"`
}

// listUsers mounts the list, or applies filter parameters, and fetches one
// page. A bare request with a held page re-renders it without fetching.
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	ctx := remote.WithSubject(r.Context(), sess.AdminID())
	ctrl, err := h.service.Open(ctx, sess.ID)
	if err != nil {
		h.logger.Error("open users list", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	form, err := listview.ParseFilterForm(r.URL.Query())
	if err != nil {
		h.render(w, r, ctrl, http.StatusBadRequest, errorMessage(err))
		return
	}
	form.Payment = nil
	if form.Empty() && ctrl.Loaded() {
		h.render(w, r, ctrl, http.StatusOK, "")
		return
	}
	if err := form.Apply(ctrl); err != nil {
		h.render(w, r, ctrl, http.StatusBadRequest, errorMessage(err))
		return
	}
	if err := ctrl.Refresh(ctx); err != nil {
		if listview.IsStale(err) {
			h.render(w, r, ctrl, http.StatusOK, "")
			return
		}
		h.logger.Warn("refresh users", slog.Any("error", err))
	}
	if err := h.service.Save(ctx, sess.ID, ctrl); err != nil {
		h.logger.Error("save users list", slog.Any("error", err))
	}
	h.render(w, r, ctrl, http.StatusOK, "")
}

func (h *Handler) showUser(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	ctrl, err := h.service.Open(r.Context(), sess.ID)
	if err != nil {
		h.logger.Error("open users list", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if _, err := ctrl.Modal().Open(chi.URLParam(r, "id")); err != nil {
		h.render(w, r, ctrl, http.StatusNotFound, errorMessage(err))
		return
	}
	if err := h.service.Save(r.Context(), sess.ID, ctrl); err != nil {
		h.logger.Error("save users list", slog.Any("error", err))
	}
	h.render(w, r, ctrl, http.StatusOK, "")
}

func (h *Handler) toggleUser(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	ctrl, err := h.service.Open(r.Context(), sess.ID)
	if err != nil {
		h.logger.Error("open users list", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	id := chi.URLParam(r, "id")
	updated, err := h.service.Toggle(r.Context(), ctrl, sess.AdminID(), id)
	if err != nil {
		h.redirectWithFlash(w, r, "/users", "error", errorMessage(err))
		return
	}
	if err := h.service.Save(r.Context(), sess.ID, ctrl); err != nil {
		h.logger.Error("save users list", slog.Any("error", err))
	}
	message := updated.UserName + " deactivated"
	if updated.Active {
		message = updated.UserName + " activated"
	}
	h.redirectWithFlash(w, r, "/users", "success", message)
}

func (h *Handler) closeModal(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	ctrl, err := h.service.Open(r.Context(), sess.ID)
	if err != nil {
		h.logger.Error("open users list", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	ctrl.Modal().Close()
	if err := h.service.Save(r.Context(), sess.ID, ctrl); err != nil {
		h.logger.Error("save users list", slog.Any("error", err))
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, ctrl *listview.Controller[User], status int, notice string) {
	if httpx.WantsJSON(r) {
		if status >= http.StatusBadRequest {
			httpx.Problem(w, status, http.StatusText(status), notice)
			return
		}
		httpx.JSON(w, status, listJSON{
			Users:      ctrl.Visible(),
			TotalPages: ctrl.TotalPages(),
			Inputs:     ctrl.Inputs(),
			State:      string(ctrl.State()),
			Error:      ctrl.LastError(),
		})
		return
	}

	inputs := ctrl.Inputs()
	pagination := shared.NewPagination(inputs.Page, h.pageSize, ctrl.TotalPages())
	pagination.Path = "/users"
	page := listPage{
		Inputs:        inputs,
		Rows:          ctrl.Visible(),
		Pagination:    pagination,
		State:         ctrl.State(),
		Notice:        notice,
		LastError:     ctrl.LastError(),
		SortOptions:   sortOptions,
		StatusOptions: statusOptions,
	}
	modal := ctrl.Modal()
	if selected, ok := modal.Entity(); ok {
		page.Modal = &selected
		page.ModalError = modal.Error()
	}

	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Users",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		AdminName:   sess.AdminName(),
		Data:        page,
	}
	if err := h.templates.RenderStatus(w, status, "pages/users.html", viewData); err != nil {
		h.logger.Error("render users", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func errorMessage(err error) string {
	if msg := listview.UserMessage(err); msg != "" {
		return msg
	}
	return shared.UserSafeMessage(err)
}
