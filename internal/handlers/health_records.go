package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic-records-server/internal/core"
	"clinic-records-server/internal/middleware"
	"clinic-records-server/internal/utils"
)

// HealthRecordHandler handles health record related requests.
type HealthRecordHandler struct {
	Records *core.HealthRecords
}

// NewHealthRecordHandler creates a new HealthRecordHandler.
func NewHealthRecordHandler(records *core.HealthRecords) *HealthRecordHandler {
	return &HealthRecordHandler{Records: records}
}

// CreateHealthRecord handles creating a new health record.
// Only accessible by doctors; the record's doctorId is always the
// session's own linked doctor.
func (h *HealthRecordHandler) CreateHealthRecord(c *gin.Context) {
	var req core.RecordInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	session, _ := middleware.GetSessionFromContext(c)
	record, err := h.Records.Add(session, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Created(c, "Health record created successfully", record)
}

// GetHealthRecordsForPatient handles fetching health records for a
// specific patient. Accessible by the patient themselves, doctors, or
// an admin.
func (h *HealthRecordHandler) GetHealthRecordsForPatient(c *gin.Context) {
	session, _ := middleware.GetSessionFromContext(c)

	records, err := h.Records.ListByPatient(session, c.Param("patientId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, "Health records fetched successfully", records)
}

// GetHealthRecordByID handles fetching a single health record.
func (h *HealthRecordHandler) GetHealthRecordByID(c *gin.Context) {
	session, _ := middleware.GetSessionFromContext(c)

	record, err := h.Records.Get(session, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, "Health record fetched successfully", record)
}

// UpdateHealthRecord handles the administrative override that rewrites
// a record's clinical fields.
func (h *HealthRecordHandler) UpdateHealthRecord(c *gin.Context) {
	var req core.RecordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	session, _ := middleware.GetSessionFromContext(c)
	record, err := h.Records.Update(session, c.Param("id"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, "Health record updated successfully", record)
}

// DeleteHealthRecord handles the administrative delete override.
func (h *HealthRecordHandler) DeleteHealthRecord(c *gin.Context) {
	session, _ := middleware.GetSessionFromContext(c)

	if err := h.Records.Delete(session, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, "Health record deleted successfully", nil)
}

// ExportPatientHistory streams a patient's demographics and visit
// history as a plain-text report download.
func (h *HealthRecordHandler) ExportPatientHistory(c *gin.Context) {
	session, _ := middleware.GetSessionFromContext(c)
	patientID := c.Param("id")

	report, err := h.Records.HistoryReport(session, patientID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s-history.txt", patientID))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(report))
}
