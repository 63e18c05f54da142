package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/autoservice-booking/internal/appointment"
	"github.com/hackgods/autoservice-booking/internal/slot"
)

type AppointmentRequest struct {
	FirstName           string    `json:"firstName"`
	LastName            string    `json:"lastName"`
	ContactNumber       string    `json:"contactNumber"`
	Email               string    `json:"email"`
	ServiceCategory     string    `json:"serviceCategory"`
	ServiceType         string    `json:"serviceType"`
	AppointmentDateTime time.Time `json:"appointmentDateTime"`
	AdditionalNotes     string    `json:"additionalNotes"`
}

func (r AppointmentRequest) draft() appointment.Draft {
	return appointment.Draft{
		FirstName:           r.FirstName,
		LastName:            r.LastName,
		ContactNumber:       r.ContactNumber,
		Email:               r.Email,
		ServiceCategory:     r.ServiceCategory,
		ServiceType:         r.ServiceType,
		AppointmentDateTime: r.AppointmentDateTime,
		AdditionalNotes:     r.AdditionalNotes,
	}
}

type StatusRequest struct {
	Status string `json:"status"`
}

type ReviewRequest struct {
	Rating  *int   `json:"rating"`
	Comment string `json:"comment"`
}

type ReviewResponse struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type AppointmentResponse struct {
	ID                  uuid.UUID       `json:"id"`
	UserID              uuid.UUID       `json:"userId"`
	FirstName           string          `json:"firstName"`
	LastName            string          `json:"lastName"`
	ContactNumber       string          `json:"contactNumber"`
	Email               string          `json:"email"`
	ServiceCategory     string          `json:"serviceCategory"`
	ServiceType         string          `json:"serviceType"`
	AppointmentDateTime time.Time       `json:"appointmentDateTime"`
	Status              string          `json:"status"`
	AdditionalNotes     string          `json:"additionalNotes,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
	Review              *ReviewResponse `json:"review,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:                  a.ID,
		UserID:              a.UserID,
		FirstName:           a.FirstName,
		LastName:            a.LastName,
		ContactNumber:       a.ContactNumber,
		Email:               a.Email,
		ServiceCategory:     a.ServiceCategory,
		ServiceType:         a.ServiceType,
		AppointmentDateTime: a.AppointmentDateTime,
		Status:              string(a.Status),
		AdditionalNotes:     a.AdditionalNotes,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
	if a.Review != nil {
		resp.Review = &ReviewResponse{
			Rating:    a.Review.Rating,
			Comment:   a.Review.Comment,
			CreatedAt: a.Review.CreatedAt,
		}
	}
	return resp
}

type ListAppointmentsResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

type SlotResponse struct {
	Label  string    `json:"label"`
	Start  time.Time `json:"start"`
	Status string    `json:"status"`
}

type SlotBoardResponse struct {
	Date     string         `json:"date"`
	Category string         `json:"category"`
	Slots    []SlotResponse `json:"slots"`
}

func toSlotResponses(board []slot.Classified) []SlotResponse {
	out := make([]SlotResponse, 0, len(board))
	for _, c := range board {
		out = append(out, SlotResponse{
			Label:  c.Slot.Label(),
			Start:  c.At,
			Status: string(c.Status),
		})
	}
	return out
}

type StatsResponse struct {
	From       time.Time      `json:"from"`
	To         time.Time      `json:"to"`
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"byStatus"`
	ByCategory map[string]int `json:"byCategory"`
}

func toStatsResponse(st *appointment.Stats) StatsResponse {
	byStatus := make(map[string]int, len(st.ByStatus))
	for s, n := range st.ByStatus {
		byStatus[string(s)] = n
	}
	return StatsResponse{
		From:       st.From,
		To:         st.To,
		Total:      st.Total,
		ByStatus:   byStatus,
		ByCategory: st.ByCategory,
	}
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
