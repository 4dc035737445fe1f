package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("not found")

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByEmail(ctx context.Context, email string) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context) ([]*Doctor, error)
	// FindByNameLike matches a case-insensitive substring of the name.
	FindByNameLike(ctx context.Context, name string) ([]*Doctor, error)
	FindBySpecialtyIgnoreCase(ctx context.Context, specialty string) ([]*Doctor, error)
	FindByNameAndSpecialty(ctx context.Context, name, specialty string) ([]*Doctor, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByEmail(ctx context.Context, email string) (*Patient, error)
	// FindByEmailOrPhone returns the first patient sharing either field.
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*Patient, error)
}

type AdminRepository interface {
	Create(ctx context.Context, a *Admin) error
	GetByUsername(ctx context.Context, username string) (*Admin, error)
}
