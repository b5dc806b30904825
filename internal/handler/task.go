package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist/internal/controller"
	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/render"
	"github.com/BuzzLyutic/tasklist/internal/repo"
	"github.com/BuzzLyutic/tasklist/internal/service"
	"github.com/BuzzLyutic/tasklist/internal/worker"
	"github.com/BuzzLyutic/tasklist/pkg/respond"
)

var errBadID = errors.New("invalid task id")

type TaskHandler struct {
	ctl    *controller.Controller
	page   *render.Page
	logger *zap.Logger
}

func NewTaskHandler(ctl *controller.Controller, page *render.Page, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		ctl:    ctl,
		page:   page,
		logger: logger,
	}
}

// formInput - поле ввода страницы для одного POST запроса
type formInput struct {
	text string
	page *render.Page
}

func (f *formInput) Text() string { return f.text }
func (f *formInput) Clear()       { f.page.SetDraft("") }
func (f *formInput) Warn(msg string) {
	f.page.SetDraft(f.text)
	f.page.Warn(msg)
}

// ---- HTML ----

func (h *TaskHandler) Index(w http.ResponseWriter, r *http.Request) {
	doc, err := h.page.Document()
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.HTML(w, r, http.StatusOK, doc)
}

func (h *TaskHandler) Stylesheet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write(render.Stylesheet())
}

func (h *TaskHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid form")
		return
	}

	in := &formInput{text: r.PostFormValue("text"), page: h.page}
	_, err := h.ctl.Add(r.Context(), in)
	h.backToPage(w, r, err)
}

func (h *TaskHandler) ToggleForm(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	h.backToPage(w, r, h.ctl.Toggle(r.Context(), id))
}

func (h *TaskHandler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	_, err = h.ctl.Delete(r.Context(), id)
	h.backToPage(w, r, err)
}

func (h *TaskHandler) ClearCompletedForm(w http.ResponseWriter, r *http.Request) {
	_, err := h.ctl.ClearCompleted(r.Context())
	h.backToPage(w, r, err)
}

func (h *TaskHandler) FilterForm(w http.ResponseWriter, r *http.Request) {
	mode, err := model.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	h.backToPage(w, r, h.ctl.SetFilter(mode))
}

// backToPage: состояние в памяти уже изменено и отрисовано, поэтому
// ошибки хранилища только логируются, а браузер возвращается на страницу
func (h *TaskHandler) backToPage(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil && !errors.Is(err, service.ErrValidation) {
		h.logger.Error("form action failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	respond.SeeOther(w, r, "/")
}

// ---- JSON API ----

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("filter")
	if raw == "" {
		respond.JSON(w, r, http.StatusOK, h.ctl.Snapshot())
		return
	}

	mode, err := model.ParseMode(raw)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, h.ctl.SnapshotFor(mode))
}

type createRequest struct {
	Text string `json:"text"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return
	}

	task, err := h.ctl.Add(r.Context(), &controller.TextInput{Value: req.Text})
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/tasks/%d", task.ID))
	respond.JSON(w, r, http.StatusCreated, task)
}

func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	if err := h.ctl.Toggle(r.Context(), id); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, h.ctl.Snapshot())
}

type deleteResponse struct {
	TaskID int64  `json:"task_id"`
	Handle string `json:"handle"`
	Due    string `json:"due"`
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	handle, err := h.ctl.Delete(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	if handle == nil { // Неизвестный id - не ошибка
		w.WriteHeader(http.StatusNoContent)
		return
	}

	respond.JSON(w, r, http.StatusAccepted, deleteResponse{
		TaskID: id,
		Handle: handle.ID().String(),
		Due:    handle.Due().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (h *TaskHandler) ClearCompleted(w http.ResponseWriter, r *http.Request) {
	if _, err := h.ctl.ClearCompleted(r.Context()); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, h.ctl.Snapshot())
}

type filterRequest struct {
	Mode string `json:"mode"`
}

func (h *TaskHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	mode, err := model.ParseMode(req.Mode)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	if err := h.ctl.SetFilter(mode); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, h.ctl.Snapshot())
}

func taskID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errBadID, chi.URLParam(r, "id"))
	}
	return id, nil
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadID):
		respond.Error(w, r, http.StatusBadRequest, "invalid task id")
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, service.WarningEmptyText)
	case errors.Is(err, model.ErrUnknownMode):
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, repo.ErrorUnavailable):
		h.logger.Error("storage unavailable", zap.Error(err))
		respond.Error(w, r, http.StatusServiceUnavailable, "storage unavailable")
	case errors.Is(err, worker.ErrStopped):
		respond.Error(w, r, http.StatusServiceUnavailable, "shutting down")
	default:
		h.logger.Error("internal error", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}
