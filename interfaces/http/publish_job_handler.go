package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/usecase"

	"github.com/gin-gonic/gin"
)

// EventStream serves the live job event feed of the current user.
type EventStream interface {
	Serve(c *gin.Context)
}

type IPublishJobHandler interface {
	Enqueue(c *gin.Context)
	List(c *gin.Context)
	Stats(c *gin.Context)
	Stream(c *gin.Context)
	Process(c *gin.Context)
	Get(c *gin.Context)
	Cancel(c *gin.Context)
	Retry(c *gin.Context)
	History(c *gin.Context)
}

type PublishJobHandler struct {
	jobUsecase usecase.IPublishJobUsecase
	stream     EventStream
}

func NewPublishJobHandler(jobUsecase usecase.IPublishJobUsecase, stream EventStream) IPublishJobHandler {
	return &PublishJobHandler{jobUsecase: jobUsecase, stream: stream}
}

func (h *PublishJobHandler) Enqueue(c *gin.Context) {
	var req dto.EnqueuePublishJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	jobs, err := h.jobUsecase.Enqueue(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, jobs)
}

// List handles GET /api/publish-jobs?status=PENDING,FAILED&video_id=&scheduled_from=&scheduled_to=
func (h *PublishJobHandler) List(c *gin.Context) {
	var filter dto.PublishJobFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err)
		return
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			st, err := model.ParseJobStatus(strings.ToUpper(strings.TrimSpace(s)))
			if err != nil {
				respondError(c, err)
				return
			}
			filter.Statuses = append(filter.Statuses, st)
		}
	}
	var err error
	if filter.ScheduledFrom, err = queryTime(c, "scheduled_from"); err != nil {
		respondError(c, err)
		return
	}
	if filter.ScheduledTo, err = queryTime(c, "scheduled_to"); err != nil {
		respondError(c, err)
		return
	}
	filter.CreatedByID = c.GetString("user_id")

	page, err := h.jobUsecase.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, page)
}

func queryTime(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339", model.ErrInvalidInput, key)
	}
	return &t, nil
}

func (h *PublishJobHandler) Stats(c *gin.Context) {
	stats, err := h.jobUsecase.Stats(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, stats)
}

func (h *PublishJobHandler) Stream(c *gin.Context) {
	if h.stream == nil {
		respondError(c, fmt.Errorf("event stream: %w", model.ErrNotConfigured))
		return
	}
	h.stream.Serve(c)
}

// Process runs one worker batch synchronously. Useful when the background worker is disabled.
func (h *PublishJobHandler) Process(c *gin.Context) {
	batch := 0
	if raw := c.Query("batch"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, fmt.Errorf("%w: batch must be a non-negative integer", model.ErrInvalidInput))
			return
		}
		batch = n
	}
	res, err := h.jobUsecase.ProcessDue(c.Request.Context(), batch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

func (h *PublishJobHandler) Get(c *gin.Context) {
	job, err := h.jobUsecase.Get(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, job)
}

func (h *PublishJobHandler) Cancel(c *gin.Context) {
	job, err := h.jobUsecase.Cancel(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, job)
}

func (h *PublishJobHandler) Retry(c *gin.Context) {
	job, err := h.jobUsecase.Retry(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, job)
}

func (h *PublishJobHandler) History(c *gin.Context) {
	entries, err := h.jobUsecase.History(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, entries)
}
