package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinic/clinic/internal/platform/db"
)

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// -- Doctor Repository --

type doctorRepoPG struct {
	db db.DB
}

func NewDoctorRepo(database db.DB) DoctorRepository {
	return &doctorRepoPG{db: database}
}

func (r *doctorRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

const doctorCols = `id, name, email, phone, specialty, password_hash, available_times, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.Specialty, &d.PasswordHash,
		&d.AvailableTimes, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if d.AvailableTimes == nil {
		d.AvailableTimes = []string{}
	}
	return &d, nil
}

func (r *doctorRepoPG) queryDoctors(ctx context.Context, sql string, args ...any) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	if d.AvailableTimes == nil {
		d.AvailableTimes = []string{}
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctors (id, name, email, phone, specialty, password_hash, available_times, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		d.ID, d.Name, d.Email, d.Phone, d.Specialty, d.PasswordHash, d.AvailableTimes, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("doctor create: %w", err)
	}
	return nil
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r *doctorRepoPG) GetByEmail(ctx context.Context, email string) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE email = $1`, email))
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	d.UpdatedAt = time.Now().UTC()
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctors SET name=$2, email=$3, phone=$4, specialty=$5, password_hash=$6,
			available_times=$7, updated_at=$8
		WHERE id = $1`,
		d.ID, d.Name, d.Email, d.Phone, d.Specialty, d.PasswordHash, d.AvailableTimes, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("doctor update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *doctorRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("doctor delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *doctorRepoPG) ListAll(ctx context.Context) ([]*Doctor, error) {
	return r.queryDoctors(ctx, `SELECT `+doctorCols+` FROM doctors ORDER BY created_at, id`)
}

func (r *doctorRepoPG) FindByNameLike(ctx context.Context, name string) ([]*Doctor, error) {
	return r.queryDoctors(ctx, `SELECT `+doctorCols+` FROM doctors
		WHERE name ILIKE '%' || $1 || '%' ORDER BY created_at, id`, db.EscapeLike(name))
}

func (r *doctorRepoPG) FindBySpecialtyIgnoreCase(ctx context.Context, specialty string) ([]*Doctor, error) {
	return r.queryDoctors(ctx, `SELECT `+doctorCols+` FROM doctors
		WHERE LOWER(specialty) = LOWER($1) ORDER BY created_at, id`, specialty)
}

func (r *doctorRepoPG) FindByNameAndSpecialty(ctx context.Context, name, specialty string) ([]*Doctor, error) {
	return r.queryDoctors(ctx, `SELECT `+doctorCols+` FROM doctors
		WHERE name ILIKE '%' || $1 || '%' AND LOWER(specialty) = LOWER($2)
		ORDER BY created_at, id`, db.EscapeLike(name), specialty)
}

// -- Patient Repository --

type patientRepoPG struct {
	db db.DB
}

func NewPatientRepo(database db.DB) PatientRepository {
	return &patientRepoPG{db: database}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

const patientCols = `id, name, email, phone, address, password_hash, created_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Address, &p.PasswordHash, &p.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, name, email, phone, address, password_hash, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.Name, p.Email, p.Phone, p.Address, p.PasswordHash, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("patient create: %w", err)
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients
		WHERE email = $1 ORDER BY created_at LIMIT 1`, email))
}

func (r *patientRepoPG) FindByEmailOrPhone(ctx context.Context, email, phone string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients
		WHERE email = $1 OR phone = $2 ORDER BY created_at LIMIT 1`, email, phone))
}

// -- Admin Repository --

type adminRepoPG struct {
	db db.DB
}

func NewAdminRepo(database db.DB) AdminRepository {
	return &adminRepoPG{db: database}
}

func (r *adminRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

func (r *adminRepoPG) Create(ctx context.Context, a *Admin) error {
	a.CreatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `INSERT INTO admins (username, password_hash, created_at) VALUES ($1,$2,$3)`,
		a.Username, a.PasswordHash, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("admin create: %w", err)
	}
	return nil
}

func (r *adminRepoPG) GetByUsername(ctx context.Context, username string) (*Admin, error) {
	var a Admin
	err := r.conn(ctx).QueryRow(ctx, `SELECT username, password_hash, created_at FROM admins WHERE username = $1`, username).
		Scan(&a.Username, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}
