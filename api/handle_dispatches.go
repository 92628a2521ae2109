package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/lightlink-network/ll-bridge-validator/database/models"
)

func (s *Server) handleDispatchesGet(w http.ResponseWriter, r *http.Request) {
	if s.dispatches == nil {
		ERROR(w, http.StatusServiceUnavailable, errors.New("dispatch history is not recorded"))
		return
	}

	// Get query parameters
	page, err := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.ParseInt(r.URL.Query().Get("pageSize"), 10, 64)
	if err != nil || pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}

	// Build filter from query parameters
	filter := models.Filter{
		Status:    r.URL.Query().Get("status"),
		Kind:      r.URL.Query().Get("kind"),
		Chain:     r.URL.Query().Get("chain"),
		MessageID: r.URL.Query().Get("messageId"),
	}

	result, err := s.dispatches.GetDispatches(r.Context(), filter, page, pageSize)
	if err != nil {
		ERROR(w, http.StatusInternalServerError, err)
		return
	}

	JSON(w, http.StatusOK, result)
}
