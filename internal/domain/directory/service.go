package directory

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/sanitize"
)

// AppointmentPurger removes every appointment held with a doctor. It is
// satisfied by the scheduling appointment repository.
type AppointmentPurger interface {
	DeleteAllByDoctorID(ctx context.Context, doctorID uuid.UUID) error
}

// TxFunc runs fn in one database transaction.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	doctors  DoctorRepository
	patients PatientRepository
	admins   AdminRepository
	purger   AppointmentPurger
	withTx   TxFunc
	tokens   auth.TokenService
	logger   zerolog.Logger
}

func NewService(doctors DoctorRepository, patients PatientRepository, admins AdminRepository,
	purger AppointmentPurger, withTx TxFunc, logger zerolog.Logger) *Service {
	if withTx == nil {
		withTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{
		doctors:  doctors,
		patients: patients,
		admins:   admins,
		purger:   purger,
		withTx:   withTx,
		logger:   logger,
	}
}

// SetTokenService wires the issuer used by the login operations. The token
// service itself depends on s as its IdentityChecker, hence the setter.
func (s *Service) SetTokenService(tokens auth.TokenService) {
	s.tokens = tokens
}

// -- Patients --

func (s *Service) RegisterPatient(ctx context.Context, in PatientRegistration) (*Patient, error) {
	sanitize.Fields(&in.Name, &in.Address)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)

	switch {
	case in.Name == "":
		return nil, apperr.NewInvalidInput("name is required")
	case len(in.Name) > 100:
		return nil, apperr.NewInvalidInput("name must be at most 100 characters")
	case !validEmail(in.Email):
		return nil, apperr.NewInvalidInput("a valid email is required")
	case !validPhone(in.Phone):
		return nil, apperr.NewInvalidInput("phone must be 10 digits")
	case in.Address == "":
		return nil, apperr.NewInvalidInput("address is required")
	case in.Password == "":
		return nil, apperr.NewInvalidInput("password is required")
	}

	existing, err := s.patients.FindByEmailOrPhone(ctx, in.Email, in.Phone)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, apperr.NewInternal("failed to register patient", err)
	}
	if existing != nil {
		return nil, apperr.NewConflict("Patient with email id or phone no already exist")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.NewInternal("failed to register patient", err)
	}
	p := &Patient{Name: in.Name, Email: in.Email, Phone: in.Phone, Address: in.Address, PasswordHash: hash}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, apperr.NewInternal("failed to register patient", err)
	}
	s.logger.Info().Str("patient_id", p.ID.String()).Msg("patient registered")
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NewNotFound("Patient not found")
	}
	if err != nil {
		return nil, apperr.NewInternal("failed to load patient", err)
	}
	return p, nil
}

// -- Logins --

var errBadCredentials = apperr.NewUnauthorized("Invalid credentials")

func (s *Service) LoginAdmin(ctx context.Context, c Credentials) (string, error) {
	a, err := s.admins.GetByUsername(ctx, strings.TrimSpace(c.Identifier))
	if err != nil {
		return "", s.loginLookupErr(err)
	}
	if !auth.CheckPassword(a.PasswordHash, c.Password) {
		return "", errBadCredentials
	}
	return s.issue(ctx, auth.AdminIdentity(a.Username))
}

func (s *Service) LoginDoctor(ctx context.Context, c Credentials) (string, error) {
	d, err := s.doctors.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(c.Identifier)))
	if err != nil {
		return "", s.loginLookupErr(err)
	}
	if !auth.CheckPassword(d.PasswordHash, c.Password) {
		return "", errBadCredentials
	}
	return s.issue(ctx, auth.DoctorIdentity(d.ID))
}

func (s *Service) LoginPatient(ctx context.Context, c Credentials) (string, error) {
	p, err := s.patients.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(c.Identifier)))
	if err != nil {
		return "", s.loginLookupErr(err)
	}
	if !auth.CheckPassword(p.PasswordHash, c.Password) {
		return "", errBadCredentials
	}
	return s.issue(ctx, auth.PatientIdentity(p.ID))
}

func (s *Service) loginLookupErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return errBadCredentials
	}
	return apperr.NewInternal("login failed", err)
}

func (s *Service) issue(ctx context.Context, id auth.Identity) (string, error) {
	if s.tokens == nil {
		return "", apperr.NewInternal("login failed", errors.New("token service not configured"))
	}
	tok, err := s.tokens.Issue(ctx, id)
	if err != nil {
		return "", apperr.NewInternal("login failed", err)
	}
	s.logger.Info().Str("identity", id.String()).Msg("login")
	return tok, nil
}

// CreateAdmin provisions an admin account from the command line.
func (s *Service) CreateAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return apperr.NewInvalidInput("username and password are required")
	}
	_, err := s.admins.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return apperr.NewConflict("Admin already exists")
	case !errors.Is(err, ErrNotFound):
		return apperr.NewInternal("failed to create admin", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return apperr.NewInternal("failed to create admin", err)
	}
	if err := s.admins.Create(ctx, &Admin{Username: username, PasswordHash: hash}); err != nil {
		return apperr.NewInternal("failed to create admin", err)
	}
	return nil
}

// -- Doctors --

func (s *Service) ListDoctors(ctx context.Context) ([]*Doctor, error) {
	ds, err := s.doctors.ListAll(ctx)
	if err != nil {
		return nil, apperr.NewInternal("failed to list doctors", err)
	}
	return ds, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NewNotFound("Doctor not found")
	}
	if err != nil {
		return nil, apperr.NewInternal("failed to load doctor", err)
	}
	return d, nil
}

func (s *Service) CreateDoctor(ctx context.Context, in DoctorInput) (*Doctor, error) {
	if err := normalizeDoctorInput(&in, true); err != nil {
		return nil, err
	}
	_, err := s.doctors.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, apperr.NewConflict("Doctor already exists")
	case !errors.Is(err, ErrNotFound):
		return nil, apperr.NewInternal("failed to save doctor", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.NewInternal("failed to save doctor", err)
	}
	d := &Doctor{
		Name:           in.Name,
		Email:          in.Email,
		Phone:          in.Phone,
		Specialty:      in.Specialty,
		PasswordHash:   hash,
		AvailableTimes: in.AvailableTimes,
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, apperr.NewInternal("failed to save doctor", err)
	}
	s.logger.Info().Str("doctor_id", d.ID.String()).Msg("doctor created")
	return d, nil
}

// UpdateDoctor replaces a doctor's profile. An empty password keeps the
// current one.
func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, in DoctorInput) (*Doctor, error) {
	if err := normalizeDoctorInput(&in, false); err != nil {
		return nil, err
	}
	d, err := s.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != d.Email {
		other, err := s.doctors.GetByEmail(ctx, in.Email)
		switch {
		case err == nil && other.ID != id:
			return nil, apperr.NewConflict("Doctor already exists")
		case err != nil && !errors.Is(err, ErrNotFound):
			return nil, apperr.NewInternal("failed to update doctor", err)
		}
	}

	d.Name, d.Email, d.Phone, d.Specialty = in.Name, in.Email, in.Phone, in.Specialty
	d.AvailableTimes = in.AvailableTimes
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, apperr.NewInternal("failed to update doctor", err)
		}
		d.PasswordHash = hash
	}

	err = s.doctors.Update(ctx, d)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NewNotFound("Doctor not found")
	}
	if err != nil {
		return nil, apperr.NewInternal("failed to update doctor", err)
	}
	return d, nil
}

// DeleteDoctor removes a doctor together with every appointment booked with
// them, in one transaction.
func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetDoctor(ctx, id); err != nil {
		return err
	}
	err := s.withTx(ctx, func(ctx context.Context) error {
		if s.purger != nil {
			if err := s.purger.DeleteAllByDoctorID(ctx, id); err != nil {
				return err
			}
		}
		return s.doctors.Delete(ctx, id)
	})
	if errors.Is(err, ErrNotFound) {
		return apperr.NewNotFound("Doctor not found")
	}
	if err != nil {
		return apperr.NewInternal("failed to delete doctor", err)
	}
	s.logger.Info().Str("doctor_id", id.String()).Msg("doctor deleted")
	return nil
}

// IdentityExists reports whether the account behind id is still present.
// Tokens of deleted doctors stop validating through this check.
func (s *Service) IdentityExists(ctx context.Context, id auth.Identity) (bool, error) {
	var err error
	switch id.Role {
	case auth.RoleAdmin:
		_, err = s.admins.GetByUsername(ctx, id.ID)
	case auth.RoleDoctor, auth.RolePatient:
		uid, perr := id.UUID()
		if perr != nil {
			return false, nil
		}
		if id.Role == auth.RoleDoctor {
			_, err = s.doctors.GetByID(ctx, uid)
		} else {
			_, err = s.patients.GetByID(ctx, uid)
		}
	default:
		return false, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func normalizeDoctorInput(in *DoctorInput, requirePassword bool) error {
	sanitize.Fields(&in.Name, &in.Specialty)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)

	switch {
	case in.Name == "":
		return apperr.NewInvalidInput("name is required")
	case len(in.Name) > 100:
		return apperr.NewInvalidInput("name must be at most 100 characters")
	case !validEmail(in.Email):
		return apperr.NewInvalidInput("a valid email is required")
	case !validPhone(in.Phone):
		return apperr.NewInvalidInput("phone must be 10 digits")
	case in.Specialty == "":
		return apperr.NewInvalidInput("specialty is required")
	case len(in.Specialty) > 50:
		return apperr.NewInvalidInput("specialty must be at most 50 characters")
	case requirePassword && in.Password == "":
		return apperr.NewInvalidInput("password is required")
	}

	times := make([]string, 0, len(in.AvailableTimes))
	seen := make(map[string]bool, len(in.AvailableTimes))
	for _, raw := range in.AvailableTimes {
		t, err := time.Parse(AvailableTimeLayout, strings.ToUpper(strings.TrimSpace(raw)))
		if err != nil {
			return apperr.NewInvalidInput("available time " + raw + " must look like 09:00 AM")
		}
		label := t.Format(AvailableTimeLayout)
		if !seen[label] {
			seen[label] = true
			times = append(times, label)
		}
	}
	in.AvailableTimes = times
	return nil
}

func validEmail(s string) bool {
	if s == "" || len(s) > 255 {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func validPhone(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
