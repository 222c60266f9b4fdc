package handlers

import (
	"net/http"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"
	"time"

	"go.uber.org/zap"
)

type CategoryHandler struct {
	CategoryService CategoryService
}

func NewCategoryHandler(categoryService CategoryService) *CategoryHandler {
	return &CategoryHandler{CategoryService: categoryService}
}

func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	list, err := h.CategoryService.ListCategories(r.Context(), middleware.GetOwnerID(r.Context()))
	if err != nil {
		handleError(w, r, err, "list_categories")
		return
	}

	logger.Info("HTTP_OUT: Категории получены",
		zap.Int("count", len(list)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromCategoryList(list))
}

func (h *CategoryHandler) GetDefaultCategory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	c, err := h.CategoryService.GetDefaultCategory(r.Context(), middleware.GetOwnerID(r.Context()))
	if err != nil {
		handleError(w, r, err, "get_default_category")
		return
	}

	logger.Info("HTTP_OUT: Категория по умолчанию получена",
		zap.String("category_id", c.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromCategory(c))
}

func (h *CategoryHandler) PostCategory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.CategoryRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	created, err := h.CategoryService.CreateCategory(r.Context(), middleware.GetOwnerID(r.Context()), request.Fields())
	if err != nil {
		handleError(w, r, err, "create_category")
		return
	}

	logger.Info("HTTP_OUT: Категория создана",
		zap.String("category_id", created.UUID.String()),
		zap.Bool("is_default", created.IsDefault),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, dto.FromCategory(created))
}

func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var request dto.CategoryRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	updated, err := h.CategoryService.UpdateCategory(r.Context(), middleware.GetOwnerID(r.Context()), id, request.Fields())
	if err != nil {
		handleError(w, r, err, "update_category")
		return
	}

	logger.Info("HTTP_OUT: Категория обновлена",
		zap.String("category_id", updated.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.FromCategory(updated))
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.CategoryService.DeleteCategory(r.Context(), middleware.GetOwnerID(r.Context()), id); err != nil {
		handleError(w, r, err, "delete_category")
		return
	}

	logger.Info("HTTP_OUT: Категория удалена",
		zap.String("category_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	responseWithJSON(w, http.StatusNoContent, nil)
}
