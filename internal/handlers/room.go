package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studyroom-backend/internal/middleware"
	"studyroom-backend/internal/models"
	"studyroom-backend/internal/repository"
	"studyroom-backend/internal/services"
)

const (
	maxRoomCapacity   = 12
	maxDurationHours  = 12
	minDurationMinute = 10
)

type RoomHandler struct {
	roomRepo      *repository.RoomRepo
	studyTimeRepo *repository.StudyTimeRepo
	scheduler     *services.RoomScheduler
}

func NewRoomHandler(roomRepo *repository.RoomRepo, studyTimeRepo *repository.StudyTimeRepo, scheduler *services.RoomScheduler) *RoomHandler {
	return &RoomHandler{roomRepo: roomRepo, studyTimeRepo: studyTimeRepo, scheduler: scheduler}
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	hostID := middleware.GetUserID(r.Context())

	var req models.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if fields := validateRoomRequest(req); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	room := &models.Room{
		Name:            req.Name,
		HostID:          hostID,
		Capacity:        req.Capacity,
		DurationMinutes: req.DurationMinutes,
	}
	if err := h.roomRepo.Create(r.Context(), room); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create room", r))
		return
	}

	duration := time.Duration(room.DurationMinutes) * time.Minute
	if err := h.scheduler.ScheduleRoom(r.Context(), room.ID, duration); err != nil {
		// The room exists either way; it just won't alarm.
		log.Printf("room %s created but alarms not scheduled: %v", room.ID, err)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"room": room,
	})
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.roomRepo.ListOpen(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list rooms", r))
		return
	}
	if rooms == nil {
		rooms = []*models.Room{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rooms": rooms,
	})
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid room ID", r))
		return
	}

	room, err := h.roomRepo.GetByID(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Room not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load room", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"room": room,
	})
}

func (h *RoomHandler) Close(w http.ResponseWriter, r *http.Request) {
	hostID := middleware.GetUserID(r.Context())
	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid room ID", r))
		return
	}

	if err := h.roomRepo.Close(r.Context(), roomID, hostID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to close room", r))
		return
	}

	if err := h.scheduler.CancelRoom(r.Context(), roomID); err != nil {
		log.Printf("room %s closed but alarms not cancelled: %v", roomID, err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Room closed"})
}

// StudyTime returns the room's accumulated study time and its history of
// full-occupancy stretches.
func (h *RoomHandler) StudyTime(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid room ID", r))
		return
	}

	total, err := h.studyTimeRepo.TotalForRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Room not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load study time", r))
		return
	}

	history, err := h.studyTimeRepo.HistoryForRoom(r.Context(), roomID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load study time", r))
		return
	}
	if history == nil {
		history = []*models.StudyTime{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"room_id":             roomID,
		"total_study_seconds": total,
		"history":             history,
	})
}

func validateRoomRequest(req models.CreateRoomRequest) map[string]string {
	fields := make(map[string]string)
	if req.Name == "" || len(req.Name) > 100 {
		fields["name"] = "Name must be 1-100 characters"
	}
	if req.Capacity < 2 || req.Capacity > maxRoomCapacity {
		fields["capacity"] = "Capacity must be between 2 and 12"
	}
	if req.DurationMinutes < minDurationMinute || req.DurationMinutes > maxDurationHours*60 {
		fields["duration_minutes"] = "Duration must be between 10 minutes and 12 hours"
	}
	return fields
}
