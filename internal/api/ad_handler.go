package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"classifieds-service/internal/entity"
	"classifieds-service/internal/service"
)

type AdHandler struct {
	adService *service.AdService
}

// NewAdHandler creates a new instance of AdHandler
func NewAdHandler(adService *service.AdService) *AdHandler {
	return &AdHandler{adService: adService}
}

type createAdRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	OwnerID     *int64  `json:"owner_id"`

	// Epoch seconds; storage stamps the creation time when absent.
	RegistrationTime *int64 `json:"registration_time"`
}

type adResponse struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	RegistrationTime int64  `json:"registration_time"`
	OwnerID          *int64 `json:"owner_id"`
}

type adSummary struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CreateAd creates a new ad --> POST /ad/
func (h *AdHandler) CreateAd(c echo.Context) error {
	req := createAdRequest{}
	if err := decodeStrict(c, &req); err != nil || req.Title == nil || req.Description == nil {
		return invalidPayload(c)
	}

	ad := entity.Ad{Title: *req.Title, Description: *req.Description, OwnerID: req.OwnerID}
	if req.RegistrationTime != nil {
		ad.RegistrationTime = time.Unix(*req.RegistrationTime, 0).UTC()
	}
	createdAd, err := h.adService.CreateAd(c.Request().Context(), sessionFrom(c), &ad)
	if err != nil {
		if errors.Is(err, service.ErrAdExists) {
			return c.JSON(409, map[string]string{"error": "Ad already exists"})
		}
		return err
	}

	return c.JSON(200, map[string]int64{"id": createdAd.ID})
}

// GetAd retrieves an ad by ID --> GET /ad/:id
func (h *AdHandler) GetAd(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	ad, err := h.adService.GetAdByID(c.Request().Context(), sessionFrom(c), id)
	if err != nil {
		return adError(c, err, id)
	}

	return c.JSON(200, adResponse{
		ID:               ad.ID,
		Title:            ad.Title,
		Description:      ad.Description,
		RegistrationTime: ad.RegistrationTime.Unix(),
		OwnerID:          ad.OwnerID,
	})
}

// UpdateAd overwrites the fields present in the body --> PATCH /ad/:id
func (h *AdHandler) UpdateAd(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	fields := map[string]json.RawMessage{}
	if err := json.NewDecoder(c.Request().Body).Decode(&fields); err != nil {
		return invalidPayload(c)
	}

	ad, err := h.adService.UpdateAd(c.Request().Context(), sessionFrom(c), id, fields)
	if err != nil {
		return adError(c, err, id)
	}

	return c.JSON(200, adSummary{ID: ad.ID, Title: ad.Title, Description: ad.Description})
}

// DeleteAd removes an ad --> DELETE /ad/:id
func (h *AdHandler) DeleteAd(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	deletedID, err := h.adService.DeleteAd(c.Request().Context(), sessionFrom(c), id)
	if err != nil {
		return adError(c, err, id)
	}

	return c.JSON(200, map[string]int64{"deleted id": deletedID})
}

// adError maps service failures onto responses. The not-found text names a
// user for compatibility with existing clients.
func adError(c echo.Context, err error, id int64) error {
	switch {
	case errors.Is(err, service.ErrAdNotFound):
		return c.JSON(404, map[string]string{"error": fmt.Sprintf("User with id %d not found", id)})
	case errors.Is(err, service.ErrInvalidInput):
		return invalidPayload(c)
	default:
		return err
	}
}
