package core

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// respondError sends unified error payload {"error": {"code", "message"}}.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// respondRepoError maps ErrNotFound to 404 and anything else to 500.
func respondRepoError(c *gin.Context, logger *slog.Logger, err error, message string) {
	if errors.Is(err, ErrNotFound) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "product not found")
		return
	}
	logger.ErrorContext(c.Request.Context(), message, "error", err)
	respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", message)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid id")
		return 0, false
	}
	return id, true
}

func listProducts(c *gin.Context, logger *slog.Logger, list func(context.Context) ([]Product, error)) {
	items, err := list(c.Request.Context())
	if err != nil {
		logger.ErrorContext(c.Request.Context(), "failed to fetch products", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to fetch products")
		return
	}
	c.JSON(http.StatusOK, items)
}
