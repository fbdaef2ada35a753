package relay

import (
	"errors"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/NethermindEth/aiai-relay/pkg/relay/midjourney"
	"github.com/NethermindEth/aiai-relay/pkg/relay/persona"
)

const (
	msgInvalidBody       = "Invalid request body"
	msgPromptRequired    = "Prompt is required"
	msgTaskIdRequired    = "Task ID is required"
	msgSubmissionFailed  = "Failed to create image generation task"
	msgImageFailed       = "Failed to generate image"
	msgTextFailed        = "Failed to generate text"
	msgStatusFailed      = "Failed to check task status"
	msgTaskFailed        = "Image generation failed"
	msgAgentsUnavailable = "Agent datastore unavailable"
	msgAgentsFailed      = "Failed to fetch agents"
	msgInternal          = "Internal server error"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateTextRequest struct {
	Prompt        string `json:"prompt"`
	Model         string `json:"model"`
	AgentUsername string `json:"agent_username"`
}

type runWorkflowRequest struct {
	Prompt        string `json:"prompt"`
	AgentUsername string `json:"agent_username"`
}

func (r *Relay) generateRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestId(), accessLog(), securityHeaders(), corsMiddleware())

	router.POST("/generate", r.handleGenerate)
	router.GET("/check-status/:task_id", r.handleCheckStatus)
	router.POST("/generate-text", r.handleGenerateText)
	router.POST("/run-workflow", r.handleRunWorkflow)
	router.GET("/agents", r.handleAgents)
	router.GET("/health", r.handleHealth)

	if r.staticDir != "" {
		router.StaticFile("/", filepath.Join(r.staticDir, "index.html"))
		router.StaticFile("/chat", filepath.Join(r.staticDir, "chat.html"))
		router.Static("/static", r.staticDir)
	}

	return router
}

func (r *Relay) handleGenerate(c *gin.Context) {
	var req generateRequest
	if !bindPrompt(c, &req, &req.Prompt) {
		return
	}

	taskID, err := r.submitImage(c.Request.Context(), req.Prompt)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, msgSubmissionFailed)
		return
	}

	if wait, _ := strconv.ParseBool(c.Query("wait")); !wait {
		c.JSON(http.StatusOK, gin.H{
			"status":  StatusProcessing,
			"task_id": taskID,
			"message": imagePendingMessage,
		})
		return
	}

	task, err := r.awaitImage(c.Request.Context(), taskID)
	switch {
	case isStillProcessing(err):
		c.JSON(http.StatusOK, gin.H{
			"status":  StatusProcessing,
			"task_id": taskID,
			"message": imagePendingMessage,
		})
		return
	case err != nil:
		c.Error(err)
		abortWithError(c, http.StatusInternalServerError, msgImageFailed)
		return
	}

	response := gin.H{
		"status":    StatusSuccess,
		"task_id":   taskID,
		"image_url": task.ImageURL,
	}
	if hash := r.mirror.Pin(c.Request.Context(), taskID, task.ImageURL); hash != "" {
		response["ipfs_hash"] = hash
	}

	c.JSON(http.StatusOK, response)
}

func (r *Relay) handleCheckStatus(c *gin.Context) {
	taskID := strings.TrimSpace(c.Param("task_id"))
	if taskID == "" {
		abortWithError(c, http.StatusBadRequest, msgTaskIdRequired)
		return
	}

	task, err := r.imageClient.Status(c.Request.Context(), taskID)
	if err != nil {
		c.Error(err)
		abortWithError(c, http.StatusInternalServerError, msgStatusFailed)
		return
	}

	switch task.Status {
	case midjourney.StatusCompleted:
		if task.ImageURL == "" {
			c.JSON(http.StatusOK, gin.H{"status": StatusFailed, "error": msgTaskFailed})
			return
		}

		response := gin.H{
			"status":    StatusCompleted,
			"image_url": task.ImageURL,
		}
		if hash := r.mirror.Pin(c.Request.Context(), taskID, task.ImageURL); hash != "" {
			response["ipfs_hash"] = hash
		}
		c.JSON(http.StatusOK, response)
	case midjourney.StatusFailed:
		message := task.Error
		if message == "" {
			message = msgTaskFailed
		}
		c.JSON(http.StatusOK, gin.H{"status": StatusFailed, "error": message})
	default:
		c.JSON(http.StatusOK, gin.H{"status": StatusProcessing, "message": imagePendingMessage})
	}
}

func (r *Relay) handleGenerateText(c *gin.Context) {
	var req generateTextRequest
	if !bindPrompt(c, &req, &req.Prompt) {
		return
	}

	reply, err := r.GenerateText(c.Request.Context(), TextRequest{
		Prompt:        req.Prompt,
		Model:         req.Model,
		AgentUsername: req.AgentUsername,
	})
	if err != nil {
		abortWithReplyError(c, err)
		return
	}

	c.JSON(http.StatusOK, reply)
}

func (r *Relay) handleRunWorkflow(c *gin.Context) {
	var req runWorkflowRequest
	if !bindPrompt(c, &req, &req.Prompt) {
		return
	}

	reply, err := r.RunWorkflow(c.Request.Context(), TextRequest{
		Prompt:        req.Prompt,
		AgentUsername: req.AgentUsername,
	})
	if err != nil {
		abortWithReplyError(c, err)
		return
	}

	c.JSON(http.StatusOK, reply)
}

func (r *Relay) handleAgents(c *gin.Context) {
	agents, err := r.personaStore.ListByUsernames(c.Request.Context(), r.agentUsernames)
	switch {
	case errors.Is(err, persona.ErrDatastoreUnavailable):
		c.Error(err)
		abortWithError(c, http.StatusServiceUnavailable, msgAgentsUnavailable)
		return
	case err != nil:
		c.Error(err)
		abortWithError(c, http.StatusInternalServerError, msgAgentsFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": StatusSuccess,
		"data":   filterAllowed(agents, r.agentUsernames),
	})
}

func (r *Relay) handleHealth(c *gin.Context) {
	if pinger, ok := r.personaStore.(Pinger); ok {
		if err := pinger.Ping(c.Request.Context()); err != nil {
			c.Error(err)
			abortWithError(c, http.StatusServiceUnavailable, msgAgentsUnavailable)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bindPrompt decodes the body into req and reports whether the handler
// should continue. prompt must point into req.
func bindPrompt(c *gin.Context, req any, prompt *string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abortWithError(c, http.StatusBadRequest, msgInvalidBody)
		return false
	}

	if strings.TrimSpace(*prompt) == "" {
		abortWithError(c, http.StatusBadRequest, msgPromptRequired)
		return false
	}

	return true
}

func abortWithReplyError(c *gin.Context, err error) {
	c.Error(err)

	switch {
	case errors.Is(err, ErrImageSubmission):
		abortWithError(c, http.StatusInternalServerError, msgSubmissionFailed)
	case errors.Is(err, ErrImageGeneration):
		abortWithError(c, http.StatusInternalServerError, msgImageFailed)
	case errors.Is(err, ErrTextGeneration):
		abortWithError(c, http.StatusInternalServerError, msgTextFailed)
	default:
		abortWithError(c, http.StatusInternalServerError, msgInternal)
	}
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"status": StatusError, "error": message})
}

func filterAllowed(agents []persona.Summary, allowed []string) []persona.Summary {
	filtered := make([]persona.Summary, 0, len(agents))
	for _, agent := range agents {
		if slices.Contains(allowed, agent.Username) {
			filtered = append(filtered, agent)
		}
	}
	return filtered
}
