package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taskhive/taskhive/pkg/domain"
)

// TransitionRequest represents a status change request
type TransitionRequest struct {
	Target domain.Status `json:"target" binding:"required"`
}

// TransitionResponse represents a successful status change
type TransitionResponse struct {
	Task *domain.Task `json:"task"`
}

// DenialResponse represents a denied status change. Every blocking reason is
// returned, not just the first.
type DenialResponse struct {
	Allowed bool     `json:"allowed"`
	Reasons []string `json:"reasons"`
}

// AddDependencyRequest represents an edge creation request
type AddDependencyRequest struct {
	TargetID string          `json:"target_id" binding:"required"`
	Relation domain.Relation `json:"relation"`
}

// SystemMessageRequest represents a privileged broadcast request
type SystemMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleTransition handles task status change requests
func (s *Server) handleTransition(c *gin.Context) {
	taskID := c.Param("id")

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	task, denial, err := s.controller.RequestTransition(c.Request.Context(), taskID, req.Target, actorFrom(c))
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: ErrorDetail{
					Code:    "TASK_NOT_FOUND",
					Message: "Task not found",
				},
			})
			return
		}
		if errors.Is(err, domain.ErrStatusConflict) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error: ErrorDetail{
					Code:    "STATUS_CONFLICT",
					Message: "Task status changed concurrently, retry",
				},
			})
			return
		}
		s.logger.Error("transition failed", zap.String("task_id", taskID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "TRANSITION_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	if denial != nil {
		c.JSON(http.StatusUnprocessableEntity, DenialResponse{
			Allowed: false,
			Reasons: denial.Reasons,
		})
		return
	}

	c.JSON(http.StatusOK, TransitionResponse{Task: task})
}

// handleCanStart handles the read-only startability check
func (s *Server) handleCanStart(c *gin.Context) {
	taskID := c.Param("id")

	decision := s.controller.CanStart(c.Request.Context(), taskID)
	c.JSON(http.StatusOK, decision)
}

// handleListDependencies lists all edges touching a task
func (s *Server) handleListDependencies(c *gin.Context) {
	taskID := c.Param("id")

	edges, err := s.controller.Dependencies(c.Request.Context(), taskID)
	if err != nil {
		s.logger.Error("failed to list dependencies", zap.String("task_id", taskID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "STORAGE_ERROR",
				Message: "Failed to list dependencies",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id": taskID,
		"edges":   edges,
		"total":   len(edges),
	})
}

// handleAddDependency creates a dependency edge from the task in the path to
// the target in the body
func (s *Server) handleAddDependency(c *gin.Context) {
	taskID := c.Param("id")

	var req AddDependencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	relation := req.Relation
	if relation == "" {
		relation = domain.RelationBlockedBy
	}

	edge, err := s.controller.AddDependency(c.Request.Context(), domain.DependencyEdge{
		SourceID:  taskID,
		TargetID:  req.TargetID,
		Relation:  relation,
		CreatedBy: actorFrom(c).ID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidEdge) {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error: ErrorDetail{
					Code:    "INVALID_EDGE",
					Message: err.Error(),
				},
			})
			return
		}
		s.logger.Error("failed to add dependency", zap.String("task_id", taskID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "STORAGE_ERROR",
				Message: "Failed to add dependency",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, edge)
}

// handleRemoveDependency deletes a dependency edge
func (s *Server) handleRemoveDependency(c *gin.Context) {
	edgeID := c.Param("id")

	if err := s.controller.RemoveDependency(c.Request.Context(), edgeID); err != nil {
		if errors.Is(err, domain.ErrEdgeNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: ErrorDetail{
					Code:    "EDGE_NOT_FOUND",
					Message: "Dependency edge not found",
				},
			})
			return
		}
		s.logger.Error("failed to remove dependency", zap.String("edge_id", edgeID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "STORAGE_ERROR",
				Message: "Failed to remove dependency",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"edge_id": edgeID, "removed": true})
}

// handleListPresence lists connected users for the presence UI
func (s *Server) handleListPresence(c *gin.Context) {
	users := s.registry.ListConnected()

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": len(users),
	})
}

// handleSystemMessage broadcasts a privileged message to all connections.
// The response is identical whether or not the actor was authorized; an
// unauthorized call is a silent no-op.
func (s *Server) handleSystemMessage(c *gin.Context) {
	var req SystemMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	s.dispatcher.SystemMessage(c.Request.Context(), actorFrom(c), req.Message)

	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}
