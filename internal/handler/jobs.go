package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	appmw "github.com/jobmail/jobboard/internal/middleware"
	"github.com/jobmail/jobboard/internal/model"
	"github.com/jobmail/jobboard/internal/store"
)

// JobsHandler serves public job listings and the admin posting CRUD.
type JobsHandler struct {
	BaseHandler
	jobs  *store.JobStore
	audit *store.AuditStore
}

func NewJobsHandler(logger *slog.Logger, jobs *store.JobStore, audit *store.AuditStore) *JobsHandler {
	return &JobsHandler{BaseHandler: BaseHandler{Logger: logger}, jobs: jobs, audit: audit}
}

// PublicList returns published jobs only.
func (h *JobsHandler) PublicList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.JobFilter{
		Status:   model.JobPublished,
		Category: q.Get("category"),
		Location: q.Get("location"),
		Search:   q.Get("q"),
	}
	page := queryInt(q.Get("page"), 1)
	pageSize := queryInt(q.Get("page_size"), 10)

	jobs, total, err := h.jobs.List(r.Context(), filter, page, pageSize)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	_ = h.writeJSON(w, http.StatusOK, envelope{
		"jobs":      jobs,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	}, nil)
}

// PublicGet returns a single published job.
func (h *JobsHandler) PublicGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	job, err := h.jobs.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && job.Status != model.JobPublished) {
		h.notFoundResponse(w, r)
		return
	}
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	_ = h.writeJSON(w, http.StatusOK, envelope{"job": job}, nil)
}

// AdminList returns jobs of any status for the management pages.
func (h *JobsHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.JobFilter{
		Status:   model.JobStatus(q.Get("status")),
		Category: q.Get("category"),
		Location: q.Get("location"),
		Search:   q.Get("q"),
	}
	page := queryInt(q.Get("page"), 1)
	pageSize := queryInt(q.Get("page_size"), 10)

	jobs, total, err := h.jobs.List(r.Context(), filter, page, pageSize)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	_ = h.writeJSON(w, http.StatusOK, envelope{
		"jobs":      jobs,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	}, nil)
}

func (h *JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var job model.Job
	if err := h.readJSON(w, r, &job); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if job.Title == "" || job.Description == "" {
		h.errorResponse(w, r, http.StatusBadRequest, "title and description are required")
		return
	}
	if job.Status == "" {
		job.Status = model.JobDraft
	}
	if !job.Status.Valid() {
		h.errorResponse(w, r, http.StatusBadRequest, "invalid job status")
		return
	}

	created, err := h.jobs.Create(r.Context(), &job)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	caller := appmw.PrincipalFromContext(r.Context())
	h.audit.Record(r.Context(), caller.Username,
		fmt.Sprintf("Admin %s posted job: %s", caller.Username, created.Title))
	_ = h.writeJSON(w, http.StatusCreated, envelope{"job": created}, nil)
}

func (h *JobsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	var job model.Job
	if err := h.readJSON(w, r, &job); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	job.ID = id
	if !job.Status.Valid() {
		h.errorResponse(w, r, http.StatusBadRequest, "invalid job status")
		return
	}

	err := h.jobs.Update(r.Context(), &job)
	if errors.Is(err, store.ErrNotFound) {
		h.notFoundResponse(w, r)
		return
	}
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	caller := appmw.PrincipalFromContext(r.Context())
	h.audit.Record(r.Context(), caller.Username,
		fmt.Sprintf("Admin %s updated job: %s", caller.Username, job.Title))
	_ = h.writeJSON(w, http.StatusOK, envelope{"job": job}, nil)
}

func (h *JobsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	title, err := h.jobs.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.notFoundResponse(w, r)
		return
	}
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	caller := appmw.PrincipalFromContext(r.Context())
	h.audit.Record(r.Context(), caller.Username,
		fmt.Sprintf("Admin %s deleted job: %s", caller.Username, title))
	_ = h.writeJSON(w, http.StatusOK, envelope{"message": "job deleted"}, nil)
}

// Stats summarizes the posting table.
func (h *JobsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.jobs.Stats(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	_ = h.writeJSON(w, http.StatusOK, envelope{"stats": stats}, nil)
}
