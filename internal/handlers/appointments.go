// Package handlers translates HTTP requests into lifecycle-service calls and
// maps domain errors to status codes.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/insuhealth/appointment-service/internal/apperr"
	"github.com/insuhealth/appointment-service/internal/appointment"
)

// apiResponse is the response envelope shared by every endpoint.
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondSuccess(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, apiResponse{Success: true, Data: data, Message: message})
}

func respondError(c *gin.Context, err error) {
	var e *apperr.Error
	if errors.As(err, &e) {
		c.JSON(e.HTTPStatus(), apiResponse{Success: false, Error: e.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, apiResponse{Success: false, Error: "Internal server error"})
}

// RegisterAppointmentRoutes wires the lifecycle-service endpoints.
//
//	POST  /appointments                    create, returns 201 + pending ack
//	GET   /appointments                    filtered paginated scan
//	GET   /appointments/:insuredId         all appointments for an insured party
//	PATCH /appointments/:id/status         explicit status transition
func RegisterAppointmentRoutes(r gin.IRoutes, svc *appointment.Service) {
	r.POST("/appointments", func(c *gin.Context) {
		var req appointment.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperr.Validation("Invalid JSON format"))
			return
		}

		resp, err := svc.Create(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusCreated, resp, "Appointment created successfully")
	})

	r.GET("/appointments", func(c *gin.Context) {
		filter, err := parseListFilter(c)
		if err != nil {
			respondError(c, err)
			return
		}

		page, err := svc.GetAll(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, page, "")
	})

	r.GET("/appointments/:insuredId", func(c *gin.Context) {
		appts, err := svc.GetByInsuredID(c.Request.Context(), c.Param("insuredId"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, gin.H{
			"appointments": appts,
			"total":        len(appts),
		}, "")
	})

	r.PATCH("/appointments/:id/status", func(c *gin.Context) {
		var body struct {
			Status string `json:"status"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, apperr.Validation("Invalid JSON format"))
			return
		}

		err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), appointment.Status(body.Status))
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, nil, "Appointment status updated successfully")
	})
}

func parseListFilter(c *gin.Context) (appointment.ListFilter, error) {
	var f appointment.ListFilter
	f.CountryISO = c.Query("countryISO")
	f.Status = c.Query("status")

	if raw := c.Query("limit"); raw != "" {
		// An explicit limit is range-checked here: once it lands in the
		// filter, zero is indistinguishable from "not supplied".
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > appointment.MaxLimit {
			return f, apperr.Validation("limit must be between 1 and 100")
		}
		f.Limit = n
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, apperr.Validation("offset must be 0 or greater")
		}
		f.Offset = n
	}
	return f, nil
}
