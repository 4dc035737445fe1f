package prescription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinic/clinic/internal/platform/db"
)

const uniqueViolation = "23505"

type repoPG struct {
	db db.DB
}

func NewRepo(database db.DB) Repository {
	return &repoPG{db: database}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescriptions (id, appointment_id, patient_name, medication, dosage, doctor_notes, created_at)
		VALUES ($1,$2,$3,$4,$5,NULLIF($6, ''),$7)`,
		p.ID, p.AppointmentID, p.PatientName, p.Medication, p.Dosage, p.DoctorNotes, p.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("prescription create: %w", err)
	}
	return nil
}

func (r *repoPG) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	var p Prescription
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, appointment_id, patient_name, medication, dosage, COALESCE(doctor_notes, ''), created_at
		FROM prescriptions WHERE appointment_id = $1`, appointmentID).
		Scan(&p.ID, &p.AppointmentID, &p.PatientName, &p.Medication, &p.Dosage, &p.DoctorNotes, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
