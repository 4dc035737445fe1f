package scheduling

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/directory"
)

// -- Mock Appointment Repository --

type mockAppointmentRepo struct {
	mu      sync.Mutex
	appts   map[uuid.UUID]*Appointment
	order   []uuid.UUID
	names   map[uuid.UUID]string // patient and doctor names by id
	err     error
	lastWin [2]time.Time
	calls   []string
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{
		appts: make(map[uuid.UUID]*Appointment),
		names: make(map[uuid.UUID]string),
	}
}

func (m *mockAppointmentRepo) called(name string) {
	m.calls = append(m.calls, name)
}

func (m *mockAppointmentRepo) copyOf(a *Appointment) *Appointment {
	c := *a
	c.DoctorName = m.names[a.DoctorID]
	c.PatientName = m.names[a.PatientID]
	return &c
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	stored := *a
	m.appts[a.ID] = &stored
	m.order = append(m.order, a.ID)
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.copyOf(a), nil
}

func (m *mockAppointmentRepo) Update(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appts[a.ID]; !ok {
		return ErrNotFound
	}
	stored := *a
	m.appts[a.ID] = &stored
	return nil
}

func (m *mockAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appts[id]; !ok {
		return ErrNotFound
	}
	delete(m.appts, id)
	return nil
}

func (m *mockAppointmentRepo) DeleteAllByDoctorID(_ context.Context, doctorID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range m.appts {
		if a.DoctorID == doctorID {
			delete(m.appts, id)
		}
	}
	return nil
}

func (m *mockAppointmentRepo) where(pred func(a *Appointment) bool) []*Appointment {
	var out []*Appointment
	for _, id := range m.order {
		if a, ok := m.appts[id]; ok && pred(a) {
			out = append(out, m.copyOf(a))
		}
	}
	return out
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (m *mockAppointmentRepo) FindByDoctorAndTimeRange(_ context.Context, doctorID uuid.UUID, start, end time.Time) ([]*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("FindByDoctorAndTimeRange")
	if m.err != nil {
		return nil, m.err
	}
	m.lastWin = [2]time.Time{start, end}
	return m.where(func(a *Appointment) bool {
		return a.DoctorID == doctorID && inRange(a.Time, start, end)
	}), nil
}

func (m *mockAppointmentRepo) FindByDoctorAndPatientNameAndTimeRange(_ context.Context, doctorID uuid.UUID, patientName string, start, end time.Time) ([]*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("FindByDoctorAndPatientNameAndTimeRange")
	m.lastWin = [2]time.Time{start, end}
	return m.where(func(a *Appointment) bool {
		return a.DoctorID == doctorID && inRange(a.Time, start, end) && containsFold(m.names[a.PatientID], patientName)
	}), nil
}

func (m *mockAppointmentRepo) FindByPatientID(_ context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("FindByPatientID")
	return m.where(func(a *Appointment) bool { return a.PatientID == patientID }), nil
}

func (m *mockAppointmentRepo) FindByPatientIDAndStatusOrderByTimeAsc(_ context.Context, patientID uuid.UUID, status Status) ([]*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("FindByPatientIDAndStatusOrderByTimeAsc")
	out := m.where(func(a *Appointment) bool { return a.PatientID == patientID && a.Status == status })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (m *mockAppointmentRepo) FilterByDoctorNameAndPatientID(_ context.Context, doctorName string, patientID uuid.UUID) ([]*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("FilterByDoctorNameAndPatientID")
	return m.where(func(a *Appointment) bool {
		return a.PatientID == patientID && containsFold(m.names[a.DoctorID], doctorName)
	}), nil
}

func (m *mockAppointmentRepo) FilterByDoctorNameAndPatientIDAndStatus(_ context.Context, doctorName string, patientID uuid.UUID, status Status) ([]*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("FilterByDoctorNameAndPatientIDAndStatus")
	return m.where(func(a *Appointment) bool {
		return a.PatientID == patientID && a.Status == status && containsFold(m.names[a.DoctorID], doctorName)
	}), nil
}

// -- Mock Doctor Repository --

type mockDoctorRepo struct {
	doctors []*directory.Doctor
	err     error
	calls   []string
}

func (m *mockDoctorRepo) Create(_ context.Context, d *directory.Doctor) error {
	d.ID = uuid.New()
	m.doctors = append(m.doctors, d)
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*directory.Doctor, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, d := range m.doctors {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (m *mockDoctorRepo) GetByEmail(_ context.Context, email string) (*directory.Doctor, error) {
	for _, d := range m.doctors {
		if d.Email == email {
			return d, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (m *mockDoctorRepo) Update(context.Context, *directory.Doctor) error { return nil }

func (m *mockDoctorRepo) Delete(context.Context, uuid.UUID) error { return nil }

func (m *mockDoctorRepo) filter(call string, pred func(d *directory.Doctor) bool) ([]*directory.Doctor, error) {
	m.calls = append(m.calls, call)
	if m.err != nil {
		return nil, m.err
	}
	var out []*directory.Doctor
	for _, d := range m.doctors {
		if pred(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockDoctorRepo) ListAll(context.Context) ([]*directory.Doctor, error) {
	return m.filter("ListAll", func(*directory.Doctor) bool { return true })
}

func (m *mockDoctorRepo) FindByNameLike(_ context.Context, name string) ([]*directory.Doctor, error) {
	return m.filter("FindByNameLike", func(d *directory.Doctor) bool { return containsFold(d.Name, name) })
}

func (m *mockDoctorRepo) FindBySpecialtyIgnoreCase(_ context.Context, specialty string) ([]*directory.Doctor, error) {
	return m.filter("FindBySpecialtyIgnoreCase", func(d *directory.Doctor) bool { return strings.EqualFold(d.Specialty, specialty) })
}

func (m *mockDoctorRepo) FindByNameAndSpecialty(_ context.Context, name, specialty string) ([]*directory.Doctor, error) {
	return m.filter("FindByNameAndSpecialty", func(d *directory.Doctor) bool {
		return containsFold(d.Name, name) && strings.EqualFold(d.Specialty, specialty)
	})
}

// -- Mock Patient Repository --

type mockPatientRepo struct {
	patients map[uuid.UUID]*directory.Patient
}

func (m *mockPatientRepo) Create(_ context.Context, p *directory.Patient) error {
	p.ID = uuid.New()
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*directory.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	return p, nil
}

func (m *mockPatientRepo) GetByEmail(context.Context, string) (*directory.Patient, error) {
	return nil, directory.ErrNotFound
}

func (m *mockPatientRepo) FindByEmailOrPhone(context.Context, string, string) (*directory.Patient, error) {
	return nil, directory.ErrNotFound
}

// -- Fakes --

type countingRecorder struct {
	mu       sync.Mutex
	bookings map[string]int
	cancels  int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{bookings: map[string]int{}}
}

func (r *countingRecorder) RecordBooking(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[result]++
}

func (r *countingRecorder) RecordCancellation() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels++
}

var errStore = errors.New("connection reset")
