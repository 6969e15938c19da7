package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cvready/orchestrator"
	"cvready/repository"
)

// EvaluationHandler exposes the Evaluation Orchestrator over HTTP,
// following the teacher's gin.H envelope idiom from PetitionHandler.
type EvaluationHandler struct {
	orchestrator *orchestrator.Orchestrator
}

func NewEvaluationHandler(o *orchestrator.Orchestrator) *EvaluationHandler {
	return &EvaluationHandler{orchestrator: o}
}

// RunEvaluationRequest is the body of POST /api/evaluations.
type RunEvaluationRequest struct {
	OwnerID string  `json:"owner_id" binding:"required"`
	CvID    string  `json:"cv_id" binding:"required"`
	JdID    *string `json:"jd_id"`
}

// RunEvaluation handles POST /api/evaluations.
func (h *EvaluationHandler) RunEvaluation(c *gin.Context) {
	var req RunEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "INVALID_REQUEST", "message": err.Error()},
		})
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "INVALID_OWNER_ID", "message": "Invalid owner_id format"},
		})
		return
	}
	cvID, err := uuid.Parse(req.CvID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "INVALID_CV_ID", "message": "Invalid cv_id format"},
		})
		return
	}

	var jdID *uuid.UUID
	if req.JdID != nil && *req.JdID != "" {
		parsed, err := uuid.Parse(*req.JdID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   gin.H{"code": "INVALID_JD_ID", "message": "Invalid jd_id format"},
			})
			return
		}
		jdID = &parsed
	}

	result, err := h.orchestrator.RunEvaluation(c.Request.Context(), ownerID, cvID, jdID)
	if err != nil {
		code, status := evaluationErrorCode(err)
		c.JSON(status, gin.H{
			"success": false,
			"error":   gin.H{"code": code, "message": err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// ListEvaluations handles GET /api/evaluations?owner_id=...
func (h *EvaluationHandler) ListEvaluations(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Query("owner_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "INVALID_OWNER_ID", "message": "Invalid or missing owner_id"},
		})
		return
	}

	evals, err := h.orchestrator.ListEvaluations(c.Request.Context(), ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   gin.H{"code": "LIST_FAILED", "message": err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": evals})
}

// GetEvaluationSummary handles GET /api/evaluations/:id?owner_id=...
func (h *EvaluationHandler) GetEvaluationSummary(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "INVALID_ID", "message": "Invalid evaluation ID format"},
		})
		return
	}
	ownerID, err := uuid.Parse(c.Query("owner_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "INVALID_OWNER_ID", "message": "Invalid or missing owner_id"},
		})
		return
	}

	eval, err := h.orchestrator.GetEvaluationSummary(c.Request.Context(), ownerID, id)
	if err != nil {
		code, status := evaluationErrorCode(err)
		c.JSON(status, gin.H{
			"success": false,
			"error":   gin.H{"code": code, "message": err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": eval})
}

// DeleteEvaluation handles DELETE /api/evaluations/:id?owner_id=...
func (h *EvaluationHandler) DeleteEvaluation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "INVALID_ID", "message": "Invalid evaluation ID format"},
		})
		return
	}
	ownerID, err := uuid.Parse(c.Query("owner_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "INVALID_OWNER_ID", "message": "Invalid or missing owner_id"},
		})
		return
	}

	if err := h.orchestrator.DeleteEvaluation(c.Request.Context(), ownerID, id); err != nil {
		code, status := evaluationErrorCode(err)
		c.JSON(status, gin.H{
			"success": false,
			"error":   gin.H{"code": code, "message": err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"id": id}})
}

// evaluationErrorCode maps the repository package's closed sentinel-error
// set to HTTP status/error-code pairs, per §7's "error kinds are a closed
// set" design.
func evaluationErrorCode(err error) (string, int) {
	switch {
	case errors.Is(err, repository.ErrCvNotFound), errors.Is(err, repository.ErrJdNotFound), errors.Is(err, repository.ErrEvaluationNotFound):
		return "NOT_FOUND", http.StatusNotFound
	case errors.Is(err, repository.ErrCvNotOwned), errors.Is(err, repository.ErrJdNotOwned):
		return "FORBIDDEN", http.StatusForbidden
	case errors.Is(err, repository.ErrCvNotParsed):
		return "CV_NOT_PARSED", http.StatusConflict
	default:
		return "EVALUATION_FAILED", http.StatusInternalServerError
	}
}
