package scheduling

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
)

type Handler struct {
	svc  *Service
	gate *auth.Gate
}

func NewHandler(svc *Service, gate *auth.Gate) *Handler {
	return &Handler{svc: svc, gate: gate}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors/filter", h.FilterDoctors)

	anyRole := api.Group("", h.gate.Require(auth.RoleAdmin, auth.RoleDoctor, auth.RolePatient))
	anyRole.GET("/doctors/:id/availability", h.GetAvailability)
	anyRole.GET("/appointments/:id", h.GetAppointment)

	doctor := api.Group("", h.gate.Require(auth.RoleDoctor))
	doctor.GET("/doctors/me/appointments", h.ListForDoctor)
	doctor.PATCH("/appointments/:id/status", h.ChangeStatus)

	patient := api.Group("", h.gate.Require(auth.RolePatient))
	patient.GET("/patients/:id/appointments", h.ListForPatient)
	patient.GET("/patients/me/appointments/filter", h.FilterAppointments)
	patient.POST("/appointments", h.Book)
	patient.PUT("/appointments/:id", h.Update)
	patient.DELETE("/appointments/:id", h.Cancel)
}

type appointmentRequest struct {
	DoctorID        uuid.UUID `json:"doctor_id"`
	AppointmentTime string    `json:"appointment_time"`
	Status          *Status   `json:"status"`
}

type statusRequest struct {
	Status *Status `json:"status"`
}

type messageResponse struct {
	Message string    `json:"message"`
	ID      uuid.UUID `json:"id"`
}

type appointmentsResponse struct {
	Appointments []*Appointment `json:"appointments"`
}

type availabilityResponse struct {
	DoctorID       uuid.UUID `json:"doctor_id"`
	Date           string    `json:"date"`
	AvailableTimes []string  `json:"available_times"`
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"}

// parseAppointmentTime accepts RFC 3339 or a zone-less local time, which is
// read in the clinic zone.
func parseAppointmentTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Now().In(loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	return t, nil
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func identityUUID(c echo.Context) (auth.Identity, uuid.UUID, error) {
	id, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return auth.Identity{}, uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}
	uid, err := id.UUID()
	if err != nil {
		return auth.Identity{}, uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}
	return id, uid, nil
}

func (h *Handler) bindAppointment(c echo.Context) (*appointmentRequest, time.Time, error) {
	var req appointmentRequest
	if err := c.Bind(&req); err != nil {
		return nil, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.DoctorID == uuid.Nil {
		return nil, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "doctor_id is required")
	}
	at, ok := parseAppointmentTime(req.AppointmentTime, h.svc.Location())
	if !ok {
		return nil, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "appointment_time must be an ISO-8601 date-time")
	}
	return &req, at, nil
}

func (h *Handler) Book(c echo.Context) error {
	_, patientID, err := identityUUID(c)
	if err != nil {
		return err
	}
	req, at, err := h.bindAppointment(c)
	if err != nil {
		return err
	}

	appt := &Appointment{DoctorID: req.DoctorID, PatientID: patientID, Time: at, Status: StatusScheduled}
	res, err := h.svc.Schedule(c.Request().Context(), appt)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	switch res {
	case InvalidDoctor:
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid doctor ID")
	case SlotTaken:
		return echo.NewHTTPError(http.StatusConflict, "Selected time slot is not available")
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: "Appointment booked successfully", ID: appt.ID})
}

func (h *Handler) Update(c echo.Context) error {
	_, patientID, err := identityUUID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	req, at, err := h.bindAppointment(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	existing, err := h.svc.Get(ctx, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if existing.PatientID != patientID {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized to update this appointment")
	}

	status := existing.Status
	if req.Status != nil {
		status = *req.Status
	}
	updated, err := h.svc.Reschedule(ctx, &Appointment{
		ID:        id,
		DoctorID:  req.DoctorID,
		PatientID: patientID,
		Time:      at,
		Status:    status,
	})
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	requester, _ := auth.IdentityFromContext(ctx)
	if err := h.svc.Cancel(ctx, id, requester); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Appointment cancelled successfully", ID: id})
}

func (h *Handler) ChangeStatus(c echo.Context) error {
	_, doctorID, err := identityUUID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Status == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "status is required")
	}

	ctx := c.Request().Context()
	appt, err := h.svc.Get(ctx, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if appt.DoctorID != doctorID {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized to update this appointment")
	}
	updated, err := h.svc.ChangeStatus(ctx, id, *req.Status)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	appt, err := h.svc.Get(ctx, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	requester, _ := auth.IdentityFromContext(ctx)
	if requester.Role != auth.RoleAdmin &&
		!requester.Is(auth.RoleDoctor, appt.DoctorID) &&
		!requester.Is(auth.RolePatient, appt.PatientID) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized to view this appointment")
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) GetAvailability(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	date, err := parseDate(c.QueryParam("date"), h.svc.Location())
	if err != nil {
		return err
	}
	free, err := h.svc.Availability(c.Request().Context(), id, date)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, availabilityResponse{
		DoctorID:       id,
		Date:           date.Format("2006-01-02"),
		AvailableTimes: free,
	})
}

func (h *Handler) ListForDoctor(c echo.Context) error {
	_, doctorID, err := identityUUID(c)
	if err != nil {
		return err
	}
	date, err := parseDate(c.QueryParam("date"), h.svc.Location())
	if err != nil {
		return err
	}
	out, err := h.svc.ListForDoctor(c.Request().Context(), doctorID, date, c.QueryParam("patientName"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, appointmentsResponse{Appointments: nonNil(out)})
}

func (h *Handler) ListForPatient(c echo.Context) error {
	_, patientID, err := identityUUID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if id != patientID {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized to view these appointments")
	}
	out, err := h.svc.ListForPatient(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, appointmentsResponse{Appointments: nonNil(out)})
}

func (h *Handler) FilterAppointments(c echo.Context) error {
	_, patientID, err := identityUUID(c)
	if err != nil {
		return err
	}
	out, err := h.svc.FilterAppointments(c.Request().Context(), AppointmentFilter{
		Condition:  c.QueryParam("condition"),
		DoctorName: c.QueryParam("name"),
		PatientID:  patientID,
	})
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, appointmentsResponse{Appointments: nonNil(out)})
}

func (h *Handler) FilterDoctors(c echo.Context) error {
	out, err := h.svc.FilterDoctors(c.Request().Context(), DoctorFilter{
		Name:      c.QueryParam("name"),
		Specialty: c.QueryParam("specialty"),
		TimeOfDay: c.QueryParam("time"),
	})
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"doctors": out})
}

func nonNil(a []*Appointment) []*Appointment {
	if a == nil {
		return []*Appointment{}
	}
	return a
}
