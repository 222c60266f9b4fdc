package handlers

import (
	"net/http"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"time"

	"go.uber.org/zap"
)

type NotificationHandler struct {
	Scanner Scanner
}

func NewNotificationHandler(scanner Scanner) *NotificationHandler {
	return &NotificationHandler{Scanner: scanner}
}

// Scan запускает один цикл проверки вне расписания и возвращает найденные события
func (h *NotificationHandler) Scan(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	events := h.Scanner.ScanOnce(r.Context())

	logger.Info("HTTP_OUT: Проверка уведомлений выполнена",
		zap.Int("events", len(events)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, dto.ScanResponse{Count: len(events), Events: events})
}
