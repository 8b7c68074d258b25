package handlers

import (
	"net/http"
	"time"

	"github.com/ave4ge/findateammatebot/internal/transport/http/dto"
	httperrors "github.com/ave4ge/findateammatebot/internal/transport/http/errors"
)

type HealthHandler struct {
	now func() time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{now: time.Now}
}

func (h *HealthHandler) Get(w http.ResponseWriter, _ *http.Request) {
	httperrors.JSON(w, http.StatusOK, dto.HealthResponse{Status: "ok", Time: h.now().UTC()})
}
