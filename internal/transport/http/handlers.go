package http

import (
	"net/http"
	"strconv"

	"edustop-service/internal/app"
	"edustop-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// TaskHandler serves task issuance and verification.
type TaskHandler struct {
	tasks *app.TaskService
}

func NewTaskHandler(tasks *app.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type positionQuery struct {
	Lat *float64 `form:"lat" binding:"required"`
	Lon *float64 `form:"lon" binding:"required"`
}

// RequestTask handles GET /api/v1/edustops/:id/request?lat=&lon=.
func (h *TaskHandler) RequestTask(c *gin.Context) {
	var q positionQuery
	if fields := bindQuery(c, &q); fields != nil {
		failWithFields(c, http.StatusBadRequest, ErrValidation, fields)
		return
	}

	ticket, err := h.tasks.RequestTask(c.Request.Context(), c.Param("id"), domain.Coordinate{
		Latitude:  *q.Lat,
		Longitude: *q.Lon,
	})
	if err != nil {
		failFromError(c, err)
		return
	}
	success(c, http.StatusOK, ticket)
}

type verifyQuery struct {
	AccessToken string `form:"accessToken" binding:"required"`
}

// VerifyTask handles POST /api/v1/edustops/verify?accessToken=.
func (h *TaskHandler) VerifyTask(c *gin.Context) {
	var q verifyQuery
	if fields := bindQuery(c, &q); fields != nil {
		failWithFields(c, http.StatusBadRequest, ErrValidation, fields)
		return
	}
	var answers []domain.AnswerSubmission
	if fields := bindJSON(c, &answers); fields != nil {
		failWithFields(c, http.StatusBadRequest, ErrValidation, fields)
		return
	}

	result, err := h.tasks.VerifyTask(c.Request.Context(), q.AccessToken, c.GetString(ContextKeyUserID), answers)
	if err != nil {
		failFromError(c, err)
		return
	}
	success(c, http.StatusOK, result)
}

// EduStopHandler serves EduStop lookups.
type EduStopHandler struct {
	stops *app.EduStopService
}

func NewEduStopHandler(stops *app.EduStopService) *EduStopHandler {
	return &EduStopHandler{stops: stops}
}

func (h *EduStopHandler) Get(c *gin.Context) {
	stop, err := h.stops.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromError(c, err)
		return
	}
	success(c, http.StatusOK, stop)
}

type searchRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// Search handles POST /api/v1/edustops/search?r=<km>.
func (h *EduStopHandler) Search(c *gin.Context) {
	radius := app.DefaultSearchRadiusKm
	if raw := c.Query("r"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			failWithFields(c, http.StatusBadRequest, ErrValidation, map[string]string{"r": "r must be a number"})
			return
		}
		radius = r
	}

	var req searchRequest
	if fields := bindJSON(c, &req); fields != nil {
		failWithFields(c, http.StatusBadRequest, ErrValidation, fields)
		return
	}

	stops, err := h.stops.Search(c.Request.Context(), domain.Coordinate{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	}, radius)
	if err != nil {
		failFromError(c, err)
		return
	}
	success(c, http.StatusOK, stops)
}

// RankingHandler serves the user ranking.
type RankingHandler struct {
	ranking *app.RankingService
}

func NewRankingHandler(ranking *app.RankingService) *RankingHandler {
	return &RankingHandler{ranking: ranking}
}

type rankingQuery struct {
	Page int `form:"page" binding:"min=0"`
	Size int `form:"size" binding:"min=0,max=100"`
}

// Ranking handles GET /api/v1/users/ranking?page=&size=.
func (h *RankingHandler) Ranking(c *gin.Context) {
	var q rankingQuery
	if fields := bindQuery(c, &q); fields != nil {
		failWithFields(c, http.StatusBadRequest, ErrValidation, fields)
		return
	}

	entries, err := h.ranking.Page(c.Request.Context(), q.Page, q.Size)
	if err != nil {
		failFromError(c, err)
		return
	}
	success(c, http.StatusOK, entries)
}
