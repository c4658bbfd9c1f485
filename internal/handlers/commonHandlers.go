package handlers

import (
	"net/http"

	"github.com/DanzelOng/MarkDownMate/internal/database"
	"github.com/DanzelOng/MarkDownMate/internal/utils"
)

type CommonHandler struct {
	db database.Service
}

func NewCommonHandler(db database.Service) *CommonHandler {
	return &CommonHandler{db: db}
}

func (c *CommonHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, c.db.Health())
}
