package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"clinic-records-server/internal/core"
	"clinic-records-server/internal/middleware"
	"clinic-records-server/internal/models"
	"clinic-records-server/internal/store"
	"clinic-records-server/internal/utils"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	Scheduler *core.Scheduler
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(scheduler *core.Scheduler) *AppointmentHandler {
	return &AppointmentHandler{Scheduler: scheduler}
}

// BookAppointmentRequest represents the request body for booking an appointment.
type BookAppointmentRequest struct {
	PatientID string    `json:"patientId" binding:"required"`
	DoctorID  string    `json:"doctorId" binding:"required"`
	DateTime  time.Time `json:"dateTime" binding:"required"`
	Reason    string    `json:"reason" binding:"required"`
}

// BookAppointment handles booking a new appointment. Initiated by a
// patient; the core rejects bookings for anyone but the session's own
// linked patient.
func (h *AppointmentHandler) BookAppointment(c *gin.Context) {
	var req BookAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	session, _ := middleware.GetSessionFromContext(c)
	appt, err := h.Scheduler.Book(session, req.PatientID, req.DoctorID, req.DateTime, req.Reason)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Created(c, "Appointment booked successfully", appt)
}

// GetAppointments handles fetching the appointments visible to the
// session: patients and doctors see their own, admins see everything
// and may filter by patientId/doctorId/status query params.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	session, _ := middleware.GetSessionFromContext(c)

	filter := store.AppointmentFilter{
		PatientID: c.Query("patientId"),
		DoctorID:  c.Query("doctorId"),
		Status:    models.AppointmentStatus(c.Query("status")),
	}

	appointments, err := h.Scheduler.List(session, filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetAppointmentByID handles fetching a single appointment by its ID.
// Accessible by the involved patient, the involved doctor, or an admin.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	session, _ := middleware.GetSessionFromContext(c)

	appt, err := h.Scheduler.Get(session, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, "Appointment fetched successfully", appt)
}

// ConfirmAppointment handles PENDING -> CONFIRMED.
func (h *AppointmentHandler) ConfirmAppointment(c *gin.Context) {
	session, _ := middleware.GetSessionFromContext(c)

	appt, err := h.Scheduler.Confirm(session, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, "Appointment confirmed successfully", appt)
}

// CompleteAppointment handles PENDING/CONFIRMED -> COMPLETED.
func (h *AppointmentHandler) CompleteAppointment(c *gin.Context) {
	session, _ := middleware.GetSessionFromContext(c)

	appt, err := h.Scheduler.Complete(session, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, "Appointment completed successfully", appt)
}

// CancelAppointment handles PENDING/CONFIRMED -> CANCELLED.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	session, _ := middleware.GetSessionFromContext(c)

	appt, err := h.Scheduler.Cancel(session, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, "Appointment cancelled successfully", appt)
}

// DeleteAppointment handles the admin hard delete. This bypasses the
// status machine entirely.
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	session, _ := middleware.GetSessionFromContext(c)

	if err := h.Scheduler.Delete(session, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, "Appointment deleted successfully", nil)
}
