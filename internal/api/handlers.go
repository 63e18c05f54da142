package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/autoservice-booking/internal/appointment"
)

const dateLayout = "2006-01-02"

type handlers struct {
	svc     AppointmentService
	catalog CatalogService
	loc     *time.Location
}

func (h *handlers) slotBoard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	day, err := time.ParseInLocation(dateLayout, q.Get("date"), h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}
	category := q.Get("category")

	board, err := h.svc.Availability(r.Context(), day, category)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SlotBoardResponse{
		Date:     day.Format(dateLayout),
		Category: strings.TrimSpace(category),
		Slots:    toSlotResponses(board),
	})
}

func (h *handlers) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req AppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	appt, err := h.svc.BookAppointment(r.Context(), actorFrom(r.Context()), req.draft())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
}

func (h *handlers) listAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := appointment.Filter{
		Name:  q.Get("name"),
		Email: q.Get("email"),
		Phone: q.Get("phone"),
	}

	switch scope := appointment.Scope(q.Get("scope")); scope {
	case appointment.ScopeAll, appointment.ScopeCurrent, appointment.ScopeHistory:
		f.Scope = scope
	default:
		writeError(w, http.StatusBadRequest, "invalid_scope", "scope must be current or history")
		return
	}

	if v := q.Get("status"); v != "" {
		s, err := appointment.ParseStatus(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
			return
		}
		f.Status = s
	}

	for key, dst := range map[string]**time.Time{"bookedOn": &f.BookedOn, "date": &f.ScheduledOn} {
		if v := q.Get(key); v != "" {
			d, err := time.ParseInLocation(dateLayout, v, h.loc)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", key+" must be YYYY-MM-DD")
				return
			}
			*dst = &d
		}
	}

	for key, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid_"+key, key+" must be a non-negative integer")
				return
			}
			*dst = n
		}
	}

	appts, err := h.svc.ListAppointments(r.Context(), actorFrom(r.Context()), f)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := ListAppointmentsResponse{
		Appointments: make([]AppointmentResponse, 0, len(appts)),
		Limit:        f.Limit,
		Offset:       f.Offset,
	}
	for i := range appts {
		resp.Appointments = append(resp.Appointments, toAppointmentResponse(&appts[i]))
	}

	writeJSON(w, http.StatusOK, resp)
}

// stats reads from and to as inclusive calendar days.
func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := time.ParseInLocation(dateLayout, q.Get("from"), h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "from must be YYYY-MM-DD")
		return
	}
	to, err := time.ParseInLocation(dateLayout, q.Get("to"), h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "to must be YYYY-MM-DD")
		return
	}

	st, err := h.svc.Stats(r.Context(), actorFrom(r.Context()), from, to.AddDate(0, 0, 1))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toStatsResponse(st))
}

func (h *handlers) getAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := appointmentID(w, r)
	if !ok {
		return
	}

	appt, err := h.svc.GetAppointment(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *handlers) updateAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := appointmentID(w, r)
	if !ok {
		return
	}

	var req AppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	appt, err := h.svc.UpdateAppointment(r.Context(), actorFrom(r.Context()), id, req.draft())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *handlers) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := appointmentID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteAppointment(r.Context(), actorFrom(r.Context()), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := appointmentID(w, r)
	if !ok {
		return
	}

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}
	to, err := appointment.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	appt, err := h.svc.ChangeStatus(r.Context(), actorFrom(r.Context()), id, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *handlers) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := appointmentID(w, r)
	if !ok {
		return
	}

	appt, err := h.svc.CancelAppointment(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *handlers) submitReview(w http.ResponseWriter, r *http.Request) {
	id, ok := appointmentID(w, r)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}
	if req.Rating == nil {
		writeError(w, http.StatusBadRequest, "invalid_rating", "rating is required")
		return
	}

	appt, err := h.svc.SubmitReview(r.Context(), actorFrom(r.Context()), id, *req.Rating, req.Comment)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func appointmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return pathID(w, r, "invalid_appointment_id")
}

func pathID(w http.ResponseWriter, r *http.Request, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, code, "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
