package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rocketscienceinc/caro-backend/internal/apperror"
	"github.com/rocketscienceinc/caro-backend/internal/entity"
	"github.com/rocketscienceinc/caro-backend/internal/repository"
)

type errorResponse struct {
	Error string `json:"error"`
}

type boardTypesResponse struct {
	Default    string                `json:"default"`
	BoardTypes []entity.BoardProfile `json:"board_types"`
}

type createRoomRequest struct {
	RoomID string `json:"game_id"`

	entity.ProfileSelector
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

// writeError - maps domain errors onto status codes.
func (that *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperror.ErrRoomNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrInvalidProfile), errors.Is(err, repository.ErrAccountRequired):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrRoomFull), errors.Is(err, apperror.ErrRoomClosed):
		status = http.StatusConflict
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "error", err)
		message = http.StatusText(status)
	}

	that.writeJSON(w, status, errorResponse{Error: message})
}

func (that *Server) listBoardTypes(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, boardTypesResponse{
		Default:    that.manager.DefaultProfile().Name,
		BoardTypes: that.manager.BoardProfiles(),
	})
}

func (that *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms := that.manager.ListRooms(r.Context())
	if rooms == nil {
		rooms = []entity.RoomSummary{}
	}

	that.writeJSON(w, http.StatusOK, rooms)
}

func (that *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	var request createRoomRequest

	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
			return
		}
	}

	state, created, err := that.manager.CreateRoom(r.Context(), request.RoomID, request.ProfileSelector)
	if err != nil {
		that.writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	that.writeJSON(w, status, state)
}

func (that *Server) getRoom(w http.ResponseWriter, r *http.Request) {
	state, err := that.manager.GetRoom(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, state)
}

func (that *Server) getAccountStats(w http.ResponseWriter, r *http.Request) {
	stats, err := that.stats.GetStats(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, stats)
}
