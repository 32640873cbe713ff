package handler

import (
	"github.com/gin-gonic/gin"

	identityapp "github.com/smartstore/backend/internal/application/identity"
)

// APIKeyHandler manages the organization's API keys
type APIKeyHandler struct {
	BaseHandler
	keyService *identityapp.APIKeyService
}

// NewAPIKeyHandler creates a new API key handler
func NewAPIKeyHandler(keyService *identityapp.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{keyService: keyService}
}

// List godoc
// @Summary      List API keys
// @Tags         api-keys
// @Produce      json
// @Success      200 {object} APIResponse[[]identityapp.APIKeyResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /api-keys [get]
func (h *APIKeyHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	keys, err := h.keyService.List(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, keys)
}

// Create godoc
// @Summary      Create API key
// @Description  Create a key limited to a subset of the creator's permissions. The plaintext key is returned only once.
// @Tags         api-keys
// @Accept       json
// @Produce      json
// @Param        request body identityapp.CreateAPIKeyRequest true "Key data"
// @Success      201 {object} APIResponse[identityapp.CreatedAPIKeyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /api-keys [post]
func (h *APIKeyHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.principal(c)
	if !ok {
		return
	}

	var req identityapp.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	key, err := h.keyService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, key)
}

// Revoke godoc
// @Summary      Revoke API key
// @Tags         api-keys
// @Param        id path string true "API key ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /api-keys/{id} [delete]
func (h *APIKeyHandler) Revoke(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id", "API key")
	if !ok {
		return
	}

	if err := h.keyService.Revoke(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
