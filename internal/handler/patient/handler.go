package patient

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/carelog/patient-api/internal/handler"
	"github.com/carelog/patient-api/internal/model"
	"github.com/carelog/patient-api/internal/service/patient"
	"github.com/carelog/patient-api/pkg/auth"
)

type Handler struct {
	service *patient.Service
	jwtSvc  auth.JWTService
}

func NewHandler(service *patient.Service, jwtSvc auth.JWTService) *Handler {
	return &Handler{service: service, jwtSvc: jwtSvc}
}

// RegisterRoutes wires the patient endpoints onto the root group. The paths
// are the public API contract and are intentionally flat.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)

	api := r.Group("/api")
	{
		api.GET("/patient/:id", h.GetProfile)
		api.POST("/patient/:id", h.UpdateProfile)
	}

	r.POST("/visit", h.RecordVisit)
	r.GET("/visit/:id", h.VisitHistory)
	r.POST("/payment", h.RecordPayment)
	r.GET("/payment", h.ListPayments)
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	id, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, &handler.Response{
		Success:   true,
		Message:   "registration successful",
		PatientID: id,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p, err := h.service.Authenticate(c.Request.Context(), req.ID, req.Password)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}

	token, err := h.jwtSvc.GenerateAccessToken(p)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, &handler.Response{
		Success: true,
		Message: "login successful",
		User:    p,
		Token:   token,
	})
}

func (h *Handler) GetProfile(c *gin.Context) {
	id, ok := h.patientID(c)
	if !ok {
		return
	}

	view, err := h.service.GetProfileView(c.Request.Context(), id)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(view))
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	id, ok := h.patientID(c)
	if !ok {
		return
	}

	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.UpdateProfile(c.Request.Context(), id, &req.Details); err != nil {
		handler.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, &handler.Response{Success: true, Message: "patient data updated successfully"})
}

func (h *Handler) RecordVisit(c *gin.Context) {
	var req model.RecordVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.RecordVisit(c.Request.Context(), &req); err != nil {
		handler.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, &handler.Response{Success: true, Message: "visit recorded successfully"})
}

// VisitHistory returns the raw history array, not the response envelope:
// the endpoint's contract is a bare JSON list.
func (h *Handler) VisitHistory(c *gin.Context) {
	id, ok := h.patientID(c)
	if !ok {
		return
	}

	events, err := h.service.VisitHistory(c.Request.Context(), id)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

func (h *Handler) RecordPayment(c *gin.Context) {
	var req model.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.RecordPayment(c.Request.Context(), &req); err != nil {
		handler.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, &handler.Response{Success: true, Message: "payment recorded successfully"})
}

// ListPayments returns a bare JSON array. It is unfiltered by default;
// page/page_size query params opt in to pagination.
func (h *Handler) ListPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	records, err := h.service.ListPayments(c.Request.Context(), page, pageSize)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

func (h *Handler) patientID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return 0, false
	}
	return id, true
}
