package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lightlink-network/ll-bridge-validator/controller"
)

func (s *Server) handleStatusGet(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, s.controller.Stats())
}

// handleControllerPost moves the controller to the status named by the
// action path parameter: pause, resume or stop.
func (s *Server) handleControllerPost(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")

	var err error
	switch action {
	case "pause":
		err = s.controller.Pause(r.Context())
	case "resume":
		err = s.controller.Resume(r.Context())
	case "stop":
		err = s.controller.Stop(r.Context())
	default:
		ERROR(w, http.StatusNotFound, fmt.Errorf("unknown controller action %q", action))
		return
	}

	if err != nil {
		if errors.Is(err, controller.ErrInvalidTransition) || errors.Is(err, controller.ErrStopped) {
			ERROR(w, http.StatusConflict, err)
			return
		}
		s.log.Error("controller action failed", "action", action, "error", err)
		ERROR(w, http.StatusInternalServerError, err)
		return
	}

	s.log.Info("controller status changed by operator", "action", action)
	JSON(w, http.StatusOK, s.controller.Stats())
}
