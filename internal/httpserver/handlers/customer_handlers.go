package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crmcore/internal/models"
)

func CreateCustomer(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name    string `json:"name"`
			Address string `json:"address"`
			Phone   string `json:"phone"`
			Email   string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			respondError(w, http.StatusBadRequest, "Customer name is required")
			return
		}
		c := models.Customer{Name: req.Name, Address: req.Address, Phone: req.Phone, Email: req.Email}
		if err := db.WithContext(r.Context()).Create(&c).Error; err != nil {
			lg.Errorw("customer create failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondStatus(w, http.StatusCreated, c)
	}
}

func ListCustomers(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cs []models.Customer
		if err := db.WithContext(r.Context()).Order("created_at desc").Find(&cs).Error; err != nil {
			lg.Errorw("customer list failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, cs)
	}
}

func UpdateCustomer(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uintParam(r, "customerId")
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid customer id")
			return
		}
		var req struct {
			Name    *string `json:"name"`
			Address *string `json:"address"`
			Phone   *string `json:"phone"`
			Email   *string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		var c models.Customer
		if err := db.WithContext(r.Context()).First(&c, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondError(w, http.StatusNotFound, "Customer not found")
				return
			}
			lg.Errorw("customer lookup failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if req.Name != nil {
			c.Name = *req.Name
		}
		if req.Address != nil {
			c.Address = *req.Address
		}
		if req.Phone != nil {
			c.Phone = *req.Phone
		}
		if req.Email != nil {
			c.Email = *req.Email
		}
		if err := db.WithContext(r.Context()).Save(&c).Error; err != nil {
			lg.Errorw("customer update failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, c)
	}
}

func DeleteCustomer(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uintParam(r, "customerId")
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid customer id")
			return
		}
		err := db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("customer_id = ?", id).Delete(&models.Contact{}).Error; err != nil {
				return err
			}
			return tx.Delete(&models.Customer{}, id).Error
		})
		if err != nil {
			lg.Errorw("customer delete failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, map[string]string{"message": "Customer deleted"})
	}
}

func CreateContact(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := uintParam(r, "customerId")
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid customer id")
			return
		}
		var req struct {
			Name     string `json:"name"`
			Position string `json:"position"`
			Phone    string `json:"phone"`
			Email    string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			respondError(w, http.StatusBadRequest, "Contact name is required")
			return
		}
		var count int64
		if err := db.WithContext(r.Context()).Model(&models.Customer{}).
			Where("id = ?", customerID).Count(&count).Error; err != nil {
			lg.Errorw("customer lookup failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if count == 0 {
			respondError(w, http.StatusNotFound, "Customer not found")
			return
		}
		ct := models.Contact{
			CustomerID: customerID,
			Name:       req.Name,
			Position:   req.Position,
			Phone:      req.Phone,
			Email:      req.Email,
		}
		if err := db.WithContext(r.Context()).Create(&ct).Error; err != nil {
			lg.Errorw("contact create failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondStatus(w, http.StatusCreated, ct)
	}
}

func ListContacts(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := uintParam(r, "customerId")
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid customer id")
			return
		}
		var cts []models.Contact
		if err := db.WithContext(r.Context()).
			Where("customer_id = ?", customerID).Order("name").Find(&cts).Error; err != nil {
			lg.Errorw("contact list failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, cts)
	}
}

func UpdateContact(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uintParam(r, "id")
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid contact id")
			return
		}
		var req struct {
			Name     *string `json:"name"`
			Position *string `json:"position"`
			Phone    *string `json:"phone"`
			Email    *string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		var ct models.Contact
		if err := db.WithContext(r.Context()).First(&ct, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondError(w, http.StatusNotFound, "Contact not found")
				return
			}
			lg.Errorw("contact lookup failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondError(w, http.StatusBadRequest, "Contact name is required")
				return
			}
			ct.Name = name
		}
		if req.Position != nil {
			ct.Position = *req.Position
		}
		if req.Phone != nil {
			ct.Phone = *req.Phone
		}
		if req.Email != nil {
			ct.Email = *req.Email
		}
		if err := db.WithContext(r.Context()).Save(&ct).Error; err != nil {
			lg.Errorw("contact update failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, ct)
	}
}

func DeleteContact(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uintParam(r, "id")
		if !ok {
			respondError(w, http.StatusBadRequest, "Invalid contact id")
			return
		}
		if err := db.WithContext(r.Context()).Delete(&models.Contact{}, id).Error; err != nil {
			lg.Errorw("contact delete failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		respondJSON(w, map[string]string{"message": "Contact deleted"})
	}
}
