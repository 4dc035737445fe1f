package directory

import (
	"net/http"

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

// RegisterRoutes mounts the account routes. loginLimit guards the three
// login endpoints; pass nil to leave them unthrottled.
func (h *Handler) RegisterRoutes(api *echo.Group, loginLimit echo.MiddlewareFunc) {
	var loginMW []echo.MiddlewareFunc
	if loginLimit != nil {
		loginMW = append(loginMW, loginLimit)
	}
	api.POST("/admin/login", h.LoginAdmin, loginMW...)
	api.POST("/doctors/login", h.LoginDoctor, loginMW...)
	api.POST("/patients/login", h.LoginPatient, loginMW...)

	api.POST("/patients", h.RegisterPatient)
	api.GET("/doctors", h.ListDoctors)

	patient := api.Group("", h.gate.Require(auth.RolePatient))
	patient.GET("/patients/me", h.GetMe)

	admin := api.Group("", h.gate.Require(auth.RoleAdmin))
	admin.POST("/doctors", h.CreateDoctor)
	admin.PUT("/doctors/:id", h.UpdateDoctor)
	admin.DELETE("/doctors/:id", h.DeleteDoctor)
}

type tokenResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string    `json:"message"`
	ID      uuid.UUID `json:"id"`
}

func (h *Handler) login(c echo.Context, fn func(echo.Context, Credentials) (string, error)) error {
	var creds Credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if creds.Identifier == "" || creds.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "identifier and password are required")
	}
	tok, err := fn(c, creds)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: tok})
}

func (h *Handler) LoginAdmin(c echo.Context) error {
	return h.login(c, func(c echo.Context, cr Credentials) (string, error) {
		return h.svc.LoginAdmin(c.Request().Context(), cr)
	})
}

func (h *Handler) LoginDoctor(c echo.Context) error {
	return h.login(c, func(c echo.Context, cr Credentials) (string, error) {
		return h.svc.LoginDoctor(c.Request().Context(), cr)
	})
}

func (h *Handler) LoginPatient(c echo.Context) error {
	return h.login(c, func(c echo.Context, cr Credentials) (string, error) {
		return h.svc.LoginPatient(c.Request().Context(), cr)
	})
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var in PatientRegistration
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.RegisterPatient(c.Request().Context(), in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: "Signup successful", ID: p.ID})
}

func (h *Handler) GetMe(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}
	pid, err := id.UUID()
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}
	p, err := h.svc.GetPatient(ctx, pid)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	ds, err := h.svc.ListDoctors(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, ds)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var in DoctorInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.CreateDoctor(c.Request().Context(), in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in DoctorInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.UpdateDoctor(c.Request().Context(), id, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), id); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
