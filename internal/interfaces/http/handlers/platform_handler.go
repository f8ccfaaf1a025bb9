package handlers

import (
	"net/http"

	"eqic-a2a.backend/internal/domain/entities"
	"eqic-a2a.backend/internal/usecases"
	"github.com/gin-gonic/gin"
)

// PlatformHandler handles platform registry endpoints
type PlatformHandler struct {
	registry *usecases.PlatformRegistry
}

// NewPlatformHandler creates a new platform handler
func NewPlatformHandler(registry *usecases.PlatformRegistry) *PlatformHandler {
	return &PlatformHandler{registry: registry}
}

// ListPlatforms lists registered platforms
// GET /api/v1/platforms?active=true
func (h *PlatformHandler) ListPlatforms(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	platforms := h.registry.ListPlatforms(activeOnly)
	c.JSON(http.StatusOK, gin.H{"platforms": platforms})
}

// GetPlatform gets a platform by ID
// GET /api/v1/platforms/:id
func (h *PlatformHandler) GetPlatform(c *gin.Context) {
	id := c.Param("id")
	platform, ok := h.registry.GetPlatform(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Platform not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"platform": platform})
}

// CheckCompatibility computes transfer compatibility between two platforms
// GET /api/v1/platforms/compatibility?source=solana&target=ethereum
func (h *PlatformHandler) CheckCompatibility(c *gin.Context) {
	source := c.Query("source")
	target := c.Query("target")
	if source == "" || target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source and target query parameters are required"})
		return
	}

	result := h.registry.CheckCompatibility(source, target)
	c.JSON(http.StatusOK, result)
}

// UpdatePlatform merges fields into an existing platform (Admin only)
// PUT /api/v1/admin/platforms/:id
func (h *PlatformHandler) UpdatePlatform(c *gin.Context) {
	id := c.Param("id")

	var input entities.PlatformUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.registry.UpdatePlatform(id, input) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Platform not found"})
		return
	}

	platform, _ := h.registry.GetPlatform(id)
	c.JSON(http.StatusOK, gin.H{"message": "Platform updated", "platform": platform})
}
