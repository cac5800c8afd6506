package records

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/challan-admin/challan-admin/internal/listview"
	"github.com/challan-admin/challan-admin/internal/platform/httpx"
	"github.com/challan-admin/challan-admin/internal/remote"
	"github.com/challan-admin/challan-admin/internal/shared"
	"github.com/challan-admin/challan-admin/internal/view"
)

// IdempotencyField is the form field carrying the delete submission key.
const IdempotencyField = "idempotency_key"

// Handler serves the records list and its detail modal.
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

// MountRoutes registers record routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listRecords)
	r.Post("/modal/close", h.closeModal)
	r.Get("/{id}", h.showRecord)
	r.Post("/{id}/pay", h.markPaid)
	r.Post("/{id}/delete", h.deleteRecord)
}

type option struct {
	Value string
	Label string
}

type listPage struct {
	Inputs         listview.Inputs
	Rows           []Record
	Pagination     shared.Pagination
	State          listview.ViewState
	Notice         string
	LastError      string
	Modal          *Record
	ModalError     string
	IdempotencyKey string
	SortOptions    []option
	StatusOptions  []option
	PaymentOptions []option
}

type listJSON struct {
	Records    []Record        `json:"records"`
	TotalPages int             `json:"totalPages"`
	Inputs     listview.Inputs `json:"inputs"`
	State      string          `json:"state"`
	Error      string          `json:"error,omitempty"`
}

var (
	sortOptions = []option{
		{SortByCreatedAt, "Sort by Date"},
		{SortByRecordName, "Sort by Name"},
		{SortByAmount, "Sort by Amount"},
	}
	statusOptions = []option{
		{listview.StatusAll, "All Records"},
		{listview.StatusActive, "Active Records"},
		{listview.StatusInactive, "Inactive Records"},
	}
	paymentOptions = []option{
		{listview.PaymentAll, "All Records"},
		{listview.PaymentPaid, "Paid Records"},
		{listview.PaymentUnpaid, "Unpaid Records"},
	}
)

func (h *Handler) open(w http.ResponseWriter, r *http.Request) (*shared.Session, *listview.Controller[Record], bool) {
	sess := shared.SessionFromContext(r.Context())
	ctrl, err := h.service.Open(r.Context(), sess.ID)
	if err != nil {
		h.logger.Error("open records list", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, nil, false
	}
	return sess, ctrl, true
}

func (h *Handler) save(r *http.Request, sess *shared.Session, ctrl *listview.Controller[Record]) {
	if err := h.service.Save(r.Context(), sess.ID, ctrl); err != nil {
		h.logger.Error("save records list", slog.Any("error", err))
	}
}

// listRecords mounts the list, or applies filter parameters, and fetches one
// page. A bare request with a held page re-renders it without fetching.
func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	sess, ctrl, ok := h.open(w, r)
	if !ok {
		return
	}
	form, err := listview.ParseFilterForm(r.URL.Query())
	if err != nil {
		h.render(w, r, ctrl, http.StatusBadRequest, errorMessage(err))
		return
	}
	if form.Empty() && ctrl.Loaded() {
		h.render(w, r, ctrl, http.StatusOK, "")
		return
	}
	if err := form.Apply(ctrl); err != nil {
		h.render(w, r, ctrl, http.StatusBadRequest, errorMessage(err))
		return
	}
	ctx := remote.WithSubject(r.Context(), sess.AdminID())
	if err := ctrl.Refresh(ctx); err != nil {
		if listview.IsStale(err) {
			h.render(w, r, ctrl, http.StatusOK, "")
			return
		}
		h.logger.Warn("refresh records", slog.Any("error", err))
	}
	h.save(r, sess, ctrl)
	h.render(w, r, ctrl, http.StatusOK, "")
}

func (h *Handler) showRecord(w http.ResponseWriter, r *http.Request) {
	sess, ctrl, ok := h.open(w, r)
	if !ok {
		return
	}
	if _, err := ctrl.Modal().Open(chi.URLParam(r, "id")); err != nil {
		h.render(w, r, ctrl, http.StatusNotFound, errorMessage(err))
		return
	}
	h.save(r, sess, ctrl)
	h.render(w, r, ctrl, http.StatusOK, "")
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	sess, ctrl, ok := h.open(w, r)
	if !ok {
		return
	}
	updated, err := h.service.MarkPaid(r.Context(), ctrl, sess.AdminID(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrAlreadyPaid) {
			ctrl.Modal().Fail(errorMessage(err))
			h.save(r, sess, ctrl)
		}
		h.redirectWithFlash(w, r, "/records", "error", errorMessage(err))
		return
	}
	h.save(r, sess, ctrl)
	h.redirectWithFlash(w, r, "/records", "success", updated.RecordName+" marked as paid")
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	sess, ctrl, ok := h.open(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	key := r.PostFormValue(IdempotencyField)
	err := h.service.Delete(remote.WithSubject(r.Context(), sess.AdminID()), ctrl, sess.AdminID(), id, key)
	switch {
	case err == nil:
		h.save(r, sess, ctrl)
		h.redirectWithFlash(w, r, "/records", "success", "Record deleted")
	case errors.Is(err, shared.ErrIdempotencyConflict), errors.Is(err, listview.ErrNotFound):
		h.redirectWithFlash(w, r, "/records", "info", errorMessage(err))
	default:
		// The modal stays open and shows the failure.
		ctrl.Modal().Fail(errorMessage(err))
		h.save(r, sess, ctrl)
		http.Redirect(w, r, "/records", http.StatusSeeOther)
	}
}

func (h *Handler) closeModal(w http.ResponseWriter, r *http.Request) {
	sess, ctrl, ok := h.open(w, r)
	if !ok {
		return
	}
	ctrl.Modal().Close()
	h.save(r, sess, ctrl)
	http.Redirect(w, r, "/records", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, ctrl *listview.Controller[Record], status int, notice string) {
	if httpx.WantsJSON(r) {
		if status >= http.StatusBadRequest {
			httpx.Problem(w, status, http.StatusText(status), notice)
			return
		}
		httpx.JSON(w, status, listJSON{
			Records:    ctrl.Visible(),
			TotalPages: ctrl.TotalPages(),
			Inputs:     ctrl.Inputs(),
			State:      string(ctrl.State()),
			Error:      ctrl.LastError(),
		})
		return
	}

	inputs := ctrl.Inputs()
	pagination := shared.NewPagination(inputs.Page, h.pageSize, ctrl.TotalPages())
	pagination.Path = "/records"
	page := listPage{
		Inputs:         inputs,
		Rows:           ctrl.Visible(),
		Pagination:     pagination,
		State:          ctrl.State(),
		Notice:         notice,
		LastError:      ctrl.LastError(),
		SortOptions:    sortOptions,
		StatusOptions:  statusOptions,
		PaymentOptions: paymentOptions,
	}
	modal := ctrl.Modal()
	if selected, ok := modal.Entity(); ok {
		page.Modal = &selected
		page.ModalError = modal.Error()
		page.IdempotencyKey = uuid.NewString()
	}

	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Records",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		AdminName:   sess.AdminName(),
		Data:        page,
	}
	if err := h.templates.RenderStatus(w, status, "pages/records.html", viewData); err != nil {
		h.logger.Error("render records", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyPaid):
		return "This record is already paid."
	case errors.Is(err, remote.ErrNetworkFailure):
		return "The records service could not be reached. Please try again."
	}
	if msg := listview.UserMessage(err); msg != "" {
		return msg
	}
	return shared.UserSafeMessage(err)
}
