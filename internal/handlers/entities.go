package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"clinic-records-server/internal/core"
	"clinic-records-server/internal/middleware"
	"clinic-records-server/internal/store"
	"clinic-records-server/internal/utils"
)

// EntityHandler handles patient and doctor profile requests: the
// one-time profile registration that links an account to its clinical
// record, directory reads, and the admin overrides.
type EntityHandler struct {
	Linkage *core.LinkageResolver
	Guard   *core.Guard
	Store   *store.Store
}

// NewEntityHandler creates a new EntityHandler.
func NewEntityHandler(linkage *core.LinkageResolver, guard *core.Guard, s *store.Store) *EntityHandler {
	return &EntityHandler{Linkage: linkage, Guard: guard, Store: s}
}

// LinkPatientProfile handles the one-time patient profile registration
// for the authenticated account.
func (h *EntityHandler) LinkPatientProfile(c *gin.Context) {
	var req core.PatientProfile
	if !utils.BindAndValidate(c, &req) {
		return
	}

	session, _ := middleware.GetSessionFromContext(c)
	patient, err := h.Linkage.LinkPatient(session, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Created(c, "Patient profile registered successfully", patient)
}

// LinkDoctorProfile handles the one-time doctor profile registration
// for the authenticated account.
func (h *EntityHandler) LinkDoctorProfile(c *gin.Context) {
	var req core.DoctorProfile
	if !utils.BindAndValidate(c, &req) {
		return
	}

	session, _ := middleware.GetSessionFromContext(c)
	doctor, err := h.Linkage.LinkDoctor(session, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Created(c, "Doctor profile registered successfully", doctor)
}

// GetScope handles the resolveScope lookup for the authenticated
// account.
func (h *EntityHandler) GetScope(c *gin.Context) {
	session, _ := middleware.GetSessionFromContext(c)

	scope, err := h.Linkage.ResolveScope(session.AccountID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, "Scope resolved successfully", scope)
}

// GetDoctors handles fetching the doctor directory. Accessible by all
// authenticated users so patients can pick a doctor to book.
func (h *EntityHandler) GetDoctors(c *gin.Context) {
	session, _ := middleware.GetSessionFromContext(c)
	if err := h.Guard.Authorize(session, core.OpViewDoctor, ""); err != nil {
		utils.RespondError(c, err)
		return
	}

	doctors, err := h.Store.Doctors.List()
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}

	utils.Success(c, "Doctors fetched successfully", doctors)
}

// GetDoctorByID handles fetching a single doctor profile.
func (h *EntityHandler) GetDoctorByID(c *gin.Context) {
	session, _ := middleware.GetSessionFromContext(c)
	if err := h.Guard.Authorize(session, core.OpViewDoctor, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}

	doctor, err := h.Store.Doctors.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Doctor fetched successfully", doctor)
}

// GetPatientByID handles fetching a single patient profile. Patients
// see only their own; doctors and admins may look up any.
func (h *EntityHandler) GetPatientByID(c *gin.Context) {
	session, _ := middleware.GetSessionFromContext(c)
	if err := h.Guard.Authorize(session, core.OpViewPatient, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}

	patient, err := h.Store.Patients.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Patient fetched successfully", patient)
}

// GetPatients handles fetching all patients (admin).
func (h *EntityHandler) GetPatients(c *gin.Context) {
	patients, err := h.Store.Patients.List()
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch patients: "+err.Error())
		return
	}

	utils.Success(c, "Patients fetched successfully", patients)
}

// UpdatePatientRequest represents the request body for the admin
// patient update override. Zero fields are left unchanged.
type UpdatePatientRequest struct {
	Name           string `json:"name"`
	Age            *int   `json:"age"`
	Gender         string `json:"gender"`
	Contact        string `json:"contact"`
	Address        string `json:"address"`
	MedicalHistory string `json:"medicalHistory"`
}

// UpdatePatient handles updating a patient profile by ID (admin).
func (h *EntityHandler) UpdatePatient(c *gin.Context) {
	session, _ := middleware.GetSessionFromContext(c)
	if err := h.Guard.Authorize(session, core.OpAdminOverride, ""); err != nil {
		utils.RespondError(c, err)
		return
	}

	var req UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	patient, err := h.Store.Patients.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if req.Name != "" {
		patient.Name = req.Name
	}
	if req.Age != nil {
		patient.Age = *req.Age
	}
	if req.Gender != "" {
		patient.Gender = req.Gender
	}
	if req.Contact != "" {
		patient.Contact = req.Contact
	}
	if req.Address != "" {
		patient.Address = req.Address
	}
	if req.MedicalHistory != "" {
		patient.MedicalHistory = req.MedicalHistory
	}

	if err := h.Store.Patients.Update(patient); err != nil {
		utils.InternalServerError(c, "Failed to update patient: "+err.Error())
		return
	}

	utils.Success(c, "Patient updated successfully", patient)
}

// DeletePatient handles deleting a patient profile by ID (admin).
func (h *EntityHandler) DeletePatient(c *gin.Context) {
	session, _ := middleware.GetSessionFromContext(c)
	if err := h.Guard.Authorize(session, core.OpAdminOverride, ""); err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := h.Store.Patients.Delete(c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Failed to delete patient: "+err.Error())
		}
		return
	}

	utils.Success(c, "Patient deleted successfully", nil)
}

// UpdateDoctorRequest represents the request body for the admin doctor
// update override.
type UpdateDoctorRequest struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Contact   string `json:"contact"`
	Email     string `json:"email"`
	Schedule  string `json:"schedule"`
}

// UpdateDoctor handles updating a doctor profile by ID (admin).
func (h *EntityHandler) UpdateDoctor(c *gin.Context) {
	session, _ := middleware.GetSessionFromContext(c)
	if err := h.Guard.Authorize(session, core.OpAdminOverride, ""); err != nil {
		utils.RespondError(c, err)
		return
	}

	var req UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	doctor, err := h.Store.Doctors.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if req.Name != "" {
		doctor.Name = req.Name
	}
	if req.Specialty != "" {
		doctor.Specialty = req.Specialty
	}
	if req.Contact != "" {
		doctor.Contact = req.Contact
	}
	if req.Email != "" {
		doctor.Email = req.Email
	}
	if req.Schedule != "" {
		doctor.Schedule = req.Schedule
	}

	if err := h.Store.Doctors.Update(doctor); err != nil {
		utils.InternalServerError(c, "Failed to update doctor: "+err.Error())
		return
	}

	utils.Success(c, "Doctor updated successfully", doctor)
}

// DeleteDoctor handles deleting a doctor profile by ID (admin).
func (h *EntityHandler) DeleteDoctor(c *gin.Context) {
	session, _ := middleware.GetSessionFromContext(c)
	if err := h.Guard.Authorize(session, core.OpAdminOverride, ""); err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := h.Store.Doctors.Delete(c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Failed to delete doctor: "+err.Error())
		}
		return
	}

	utils.Success(c, "Doctor deleted successfully", nil)
}
