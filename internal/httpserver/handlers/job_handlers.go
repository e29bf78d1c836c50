package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crmcore/internal/models"
)

func CreateServiceType(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			respondError(w, http.StatusBadRequest, "Service type name is required")
			return
		}
		st := models.ServiceType{Name: req.Name, Description: req.Description}
		if err := db.WithContext(r.Context()).Create(&st).Error; err != nil {
			lg.Errorw("service type create failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondStatus(w, http.StatusCreated, st)
	}
}

func UpdateServiceType(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uintParam(r, "id")
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid service type id")
			return
		}
		var req struct {
			Name        *string `json:"name"`
			Description *string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		var st models.ServiceType
		if err := db.WithContext(r.Context()).First(&st, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondError(w, http.StatusNotFound, "Service type not found")
				return
			}
			lg.Errorw("service type lookup failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondError(w, http.StatusBadRequest, "Service type name is required")
				return
			}
			st.Name = name
		}
		if req.Description != nil {
			st.Description = *req.Description
		}
		if err := db.WithContext(r.Context()).Save(&st).Error; err != nil {
			lg.Errorw("service type update failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, st)
	}
}

func ListServiceTypes(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sts []models.ServiceType
		if err := db.WithContext(r.Context()).Order("name").Find(&sts).Error; err != nil {
			lg.Errorw("service type list failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, sts)
	}
}

func DeleteServiceType(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uintParam(r, "id")
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid service type id")
			return
		}
		var count int64
		if err := db.WithContext(r.Context()).Model(&models.Job{}).
			Where("service_type_id = ?", id).Count(&count).Error; err != nil {
			lg.Errorw("job lookup failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if count > 0 {
			respondError(w, http.StatusBadRequest, "Service type is used by jobs")
			return
		}
		if err := db.WithContext(r.Context()).Delete(&models.ServiceType{}, id).Error; err != nil {
			lg.Errorw("service type delete failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, map[string]string{"message": "Service type deleted"})
	}
}

func CreateJob(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CustomerID    uint         `json:"customer_id"`
			ServiceTypeID uint         `json:"service_type_id"`
			ScheduledAt   time.Time    `json:"scheduled_at"`
			Details       models.JSONB `json:"details"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.CustomerID == 0 || req.ServiceTypeID == 0 || req.ScheduledAt.IsZero() {
			respondError(w, http.StatusBadRequest, "customer_id, service_type_id and scheduled_at are required")
			return
		}
		var count int64
		if err := db.WithContext(r.Context()).Model(&models.Customer{}).
			Where("id = ?", req.CustomerID).Count(&count).Error; err != nil {
			lg.Errorw("customer lookup failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if count == 0 {
			respondError(w, http.StatusBadRequest, "Customer not found")
			return
		}
		if err := db.WithContext(r.Context()).Model(&models.ServiceType{}).
			Where("id = ?", req.ServiceTypeID).Count(&count).Error; err != nil {
			lg.Errorw("service type lookup failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if count == 0 {
			respondError(w, http.StatusBadRequest, "Service type not found")
			return
		}
		job := models.Job{
			CustomerID:    req.CustomerID,
			ServiceTypeID: req.ServiceTypeID,
			ScheduledAt:   req.ScheduledAt,
			Status:        "SCHEDULED",
			Details:       req.Details,
		}
		if err := db.WithContext(r.Context()).Create(&job).Error; err != nil {
			lg.Errorw("job create failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondStatus(w, http.StatusCreated, job)
	}
}

func ListJobs(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var jobs []models.Job
		if err := db.WithContext(r.Context()).
			Preload("Customer").Preload("ServiceType").
			Order("scheduled_at desc").Find(&jobs).Error; err != nil {
			lg.Errorw("job list failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, jobs)
	}
}

func UpdateJob(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uintParam(r, "id")
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid job id")
			return
		}
		var req struct {
			ScheduledAt *time.Time   `json:"scheduled_at"`
			Status      *string      `json:"status"`
			Details     models.JSONB `json:"details"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		var job models.Job
		if err := db.WithContext(r.Context()).First(&job, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondError(w, http.StatusNotFound, "Job not found")
				return
			}
			lg.Errorw("job lookup failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if req.ScheduledAt != nil {
			job.ScheduledAt = *req.ScheduledAt
		}
		if req.Status != nil {
			job.Status = *req.Status
		}
		if len(req.Details) > 0 {
			job.Details = req.Details
		}
		if err := db.WithContext(r.Context()).Save(&job).Error; err != nil {
			lg.Errorw("job update failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, job)
	}
}

func DeleteJob(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uintParam(r, "id")
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid job id")
			return
		}
		if err := db.WithContext(r.Context()).Delete(&models.Job{}, id).Error; err != nil {
			lg.Errorw("job delete failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, map[string]string{"message": "Job deleted"})
	}
}
