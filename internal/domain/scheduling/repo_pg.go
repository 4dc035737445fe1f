package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinic/clinic/internal/platform/db"
)

type appointmentRepoPG struct {
	db db.DB
}

func NewAppointmentRepo(database db.DB) AppointmentRepository {
	return &appointmentRepoPG{db: database}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

const appointmentSelect = `SELECT a.id, a.doctor_id, a.patient_id, a.appointment_time, a.status,
	a.created_at, a.updated_at, d.name, p.name, p.email, p.phone, p.address
	FROM appointments a
	JOIN doctors d ON d.id = a.doctor_id
	JOIN patients p ON p.id = a.patient_id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.Time, &a.Status,
		&a.CreatedAt, &a.UpdatedAt, &a.DoctorName, &a.PatientName,
		&a.PatientEmail, &a.PatientPhone, &a.PatientAddress)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepoPG) query(ctx context.Context, sql string, args ...any) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, doctor_id, patient_id, appointment_time, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.DoctorID, a.PatientID, a.Time, a.Status, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("appointment create: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx, appointmentSelect+` WHERE a.id = $1`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	a.UpdatedAt = time.Now().UTC()
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET doctor_id=$2, patient_id=$3, appointment_time=$4, status=$5, updated_at=$6
		WHERE id = $1`,
		a.ID, a.DoctorID, a.PatientID, a.Time, a.Status, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("appointment update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointment delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) DeleteAllByDoctorID(ctx context.Context, doctorID uuid.UUID) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE doctor_id = $1`, doctorID); err != nil {
		return fmt.Errorf("appointment delete by doctor: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) FindByDoctorAndTimeRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*Appointment, error) {
	return r.query(ctx, appointmentSelect+`
		WHERE a.doctor_id = $1 AND a.appointment_time BETWEEN $2 AND $3
		ORDER BY a.appointment_time, a.id`, doctorID, start, end)
}

func (r *appointmentRepoPG) FindByDoctorAndPatientNameAndTimeRange(ctx context.Context, doctorID uuid.UUID, patientName string, start, end time.Time) ([]*Appointment, error) {
	return r.query(ctx, appointmentSelect+`
		WHERE a.doctor_id = $1 AND p.name ILIKE '%' || $2 || '%'
			AND a.appointment_time BETWEEN $3 AND $4
		ORDER BY a.appointment_time, a.id`, doctorID, db.EscapeLike(patientName), start, end)
}

func (r *appointmentRepoPG) FindByPatientID(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	return r.query(ctx, appointmentSelect+`
		WHERE a.patient_id = $1 ORDER BY a.created_at, a.id`, patientID)
}

func (r *appointmentRepoPG) FindByPatientIDAndStatusOrderByTimeAsc(ctx context.Context, patientID uuid.UUID, status Status) ([]*Appointment, error) {
	return r.query(ctx, appointmentSelect+`
		WHERE a.patient_id = $1 AND a.status = $2
		ORDER BY a.appointment_time ASC, a.id`, patientID, status)
}

func (r *appointmentRepoPG) FilterByDoctorNameAndPatientID(ctx context.Context, doctorName string, patientID uuid.UUID) ([]*Appointment, error) {
	return r.query(ctx, appointmentSelect+`
		WHERE d.name ILIKE '%' || $1 || '%' AND a.patient_id = $2
		ORDER BY a.created_at, a.id`, db.EscapeLike(doctorName), patientID)
}

func (r *appointmentRepoPG) FilterByDoctorNameAndPatientIDAndStatus(ctx context.Context, doctorName string, patientID uuid.UUID, status Status) ([]*Appointment, error) {
	return r.query(ctx, appointmentSelect+`
		WHERE d.name ILIKE '%' || $1 || '%' AND a.patient_id = $2 AND a.status = $3
		ORDER BY a.created_at, a.id`, db.EscapeLike(doctorName), patientID, status)
}
