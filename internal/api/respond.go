package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hackgods/autoservice-booking/internal/appointment"
	"github.com/hackgods/autoservice-booking/internal/catalog"
	"github.com/hackgods/autoservice-booking/internal/slot"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeServiceError maps service, catalog and slot errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *appointment.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_failed", Details: err.Error(), Fields: verr.Fields})
		return
	}
	var cerr *catalog.ValidationError
	if errors.As(err, &cerr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_failed", Details: err.Error(), Fields: cerr.Fields})
		return
	}

	switch {
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrNotPermitted):
		writeError(w, http.StatusForbidden, "not_permitted", err.Error())
	case errors.Is(err, slot.ErrSlotAlreadyBooked):
		writeError(w, http.StatusConflict, "slot_already_booked", err.Error())
	case errors.Is(err, appointment.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, appointment.ErrTerminalStatus):
		writeError(w, http.StatusConflict, "appointment_closed", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, appointment.ErrStaleAppointment):
		writeError(w, http.StatusConflict, "appointment_changed", err.Error())
	case errors.Is(err, appointment.ErrReviewNotAllowed):
		writeError(w, http.StatusConflict, "review_not_allowed", err.Error())
	case errors.Is(err, slot.ErrSlotInPast):
		writeError(w, http.StatusUnprocessableEntity, "slot_in_past", err.Error())
	case errors.Is(err, slot.ErrUnknownSlot):
		writeError(w, http.StatusUnprocessableEntity, "unknown_slot", err.Error())
	case errors.Is(err, slot.ErrSlotNotSelectable):
		writeError(w, http.StatusLocked, "read_only", err.Error())
	case errors.Is(err, catalog.ErrCategoryNotFound):
		writeError(w, http.StatusNotFound, "category_not_found", err.Error())
	case errors.Is(err, catalog.ErrOfferingNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, catalog.ErrDuplicate):
		writeError(w, http.StatusConflict, "catalog_duplicate", err.Error())
	case errors.Is(err, catalog.ErrCategoryInUse):
		writeError(w, http.StatusConflict, "category_in_use", err.Error())
	case errors.Is(err, appointment.ErrUnknownStatus),
		errors.Is(err, appointment.ErrInvalidRating),
		errors.Is(err, appointment.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
