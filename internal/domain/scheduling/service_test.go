package scheduling

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/directory"
	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/lock"
	"github.com/clinic/clinic/internal/platform/notify"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (n *recordingNotifier) Send(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

type testEnv struct {
	svc      *Service
	appts    *mockAppointmentRepo
	doctors  *mockDoctorRepo
	patients *mockPatientRepo
	recorder *countingRecorder
	notifier *recordingNotifier

	d1, d2, d3 *directory.Doctor
	p1, p2     *directory.Patient
}

func newTestEnv(opts ...Option) *testEnv {
	env := &testEnv{
		appts:    newMockAppointmentRepo(),
		doctors:  &mockDoctorRepo{},
		patients: &mockPatientRepo{patients: map[uuid.UUID]*directory.Patient{}},
		recorder: newCountingRecorder(),
		notifier: &recordingNotifier{},
	}
	ctx := context.Background()
	env.d1 = &directory.Doctor{Name: "Dr. Ada Lovelace", Email: "ada@clinic.test", Specialty: "Cardiology", AvailableTimes: []string{"09:00 AM", "02:00 PM"}}
	env.d2 = &directory.Doctor{Name: "Dr. Bob Stone", Email: "bob@clinic.test", Specialty: "Neurology", AvailableTimes: []string{"10:00 AM"}}
	env.d3 = &directory.Doctor{Name: "Dr. Ada Byron", Email: "byron@clinic.test", Specialty: "cardiology", AvailableTimes: []string{"03:00 PM"}}
	for _, d := range []*directory.Doctor{env.d1, env.d2, env.d3} {
		env.doctors.Create(ctx, d)
		env.appts.names[d.ID] = d.Name
	}
	env.p1 = &directory.Patient{Name: "Jane Roe", Email: "jane@example.com"}
	env.p2 = &directory.Patient{Name: "John Smith", Email: "john@example.com"}
	for _, p := range []*directory.Patient{env.p1, env.p2} {
		env.patients.Create(ctx, p)
		env.appts.names[p.ID] = p.Name
	}

	opts = append([]Option{WithRecorder(env.recorder), WithNotifier(env.notifier)}, opts...)
	env.svc = NewService(env.appts, env.doctors, env.patients, zerolog.Nop(), opts...)
	return env
}

func at(day, hour int) time.Time {
	return time.Date(2024, time.May, day, hour, 0, 0, 0, time.UTC)
}

// seed stores an appointment directly, bypassing validation.
func (env *testEnv) seed(t *testing.T, doctor *directory.Doctor, patient *directory.Patient, when time.Time, status Status) *Appointment {
	t.Helper()
	a := &Appointment{DoctorID: doctor.ID, PatientID: patient.ID, Time: when, Status: status}
	if err := env.appts.Create(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	return a
}

func assertKind(t *testing.T, err error, want apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := apperr.KindOf(err); got != want {
		t.Fatalf("expected %s, got %s (%v)", want, got, err)
	}
}

// -- Book / Schedule --

func TestService_Book(t *testing.T) {
	env := newTestEnv()
	a := &Appointment{DoctorID: env.d1.ID, PatientID: env.p1.ID, Time: at(1, 10)}
	if err := env.svc.Book(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == uuid.Nil {
		t.Error("expected ID to be assigned")
	}
}

func TestService_Book_StoreFailure(t *testing.T) {
	env := newTestEnv()
	env.appts.err = errStore
	err := env.svc.Book(context.Background(), &Appointment{DoctorID: env.d1.ID, PatientID: env.p1.ID, Time: at(1, 10)})
	assertKind(t, err, apperr.Internal)
}

func TestService_Schedule(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	first := &Appointment{DoctorID: env.d1.ID, PatientID: env.p1.ID, Time: at(1, 10)}
	res, err := env.svc.Schedule(ctx, first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != SlotOK {
		t.Fatalf("expected SlotOK, got %s", res)
	}

	second := &Appointment{DoctorID: env.d1.ID, PatientID: env.p2.ID, Time: at(1, 10)}
	res, err = env.svc.Schedule(ctx, second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != SlotTaken {
		t.Errorf("expected SlotTaken, got %s", res)
	}
	if second.ID != uuid.Nil {
		t.Error("rejected booking must not be stored")
	}

	res, _ = env.svc.Schedule(ctx, &Appointment{DoctorID: uuid.New(), PatientID: env.p1.ID, Time: at(1, 11)})
	if res != InvalidDoctor {
		t.Errorf("expected InvalidDoctor, got %s", res)
	}

	if env.recorder.bookings["ok"] != 1 || env.recorder.bookings["slot_taken"] != 1 || env.recorder.bookings["invalid_doctor"] != 1 {
		t.Errorf("unexpected booking metrics %v", env.recorder.bookings)
	}
	if len(env.notifier.sent) != 1 || env.notifier.sent[0].To != "jane@example.com" {
		t.Errorf("expected one confirmation to jane, got %+v", env.notifier.sent)
	}
}

func TestService_Schedule_ConcurrentSameSlot(t *testing.T) {
	env := newTestEnv(WithLocker(lock.NewMemory()))
	ctx := context.Background()

	const n = 8
	results := make([]ValidationResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := env.svc.Schedule(ctx, &Appointment{DoctorID: env.d1.ID, PatientID: env.p1.ID, Time: at(2, 9)})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, r := range results {
		if r == SlotOK {
			ok++
		}
	}
	if ok != 1 {
		t.Errorf("expected exactly one booking to win, got %d", ok)
	}
	booked, _ := env.appts.FindByDoctorAndTimeRange(ctx, env.d1.ID, at(2, 0), at(2, 23))
	if len(booked) != 1 {
		t.Errorf("expected one stored appointment, got %d", len(booked))
	}
}

// -- Update --

func TestService_Update(t *testing.T) {
	env := newTestEnv()
	a := env.seed(t, env.d1, env.p1, at(1, 10), StatusScheduled)

	updated, err := env.svc.Update(context.Background(), &Appointment{
		ID: a.ID, DoctorID: env.d2.ID, PatientID: env.p1.ID, Time: at(1, 15), Status: StatusCompleted,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.DoctorID != env.d2.ID || !updated.Time.Equal(at(1, 15)) || updated.Status != StatusCompleted {
		t.Errorf("fields not overwritten: %+v", updated)
	}
	if updated.DoctorName != env.d2.Name {
		t.Errorf("expected doctor name %q after moving doctors, got %q", env.d2.Name, updated.DoctorName)
	}
}

func TestService_Update_PatientNameFollowsPatient(t *testing.T) {
	env := newTestEnv()
	a := env.seed(t, env.d1, env.p1, at(1, 10), StatusScheduled)

	updated, err := env.svc.Update(context.Background(), &Appointment{
		ID: a.ID, DoctorID: env.d1.ID, PatientID: env.p2.ID, Time: at(1, 10), Status: StatusScheduled,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.PatientName != env.p2.Name {
		t.Errorf("expected patient name %q, got %q", env.p2.Name, updated.PatientName)
	}
}

// keyLocker records the keys it is asked to lock.
type keyLocker struct{ keys []string }

func (l *keyLocker) Lock(_ context.Context, key string) (func(), error) {
	l.keys = append(l.keys, key)
	return func() {}, nil
}

func TestService_Reschedule_IntoTakenSlot(t *testing.T) {
	locker := &keyLocker{}
	env := newTestEnv(WithLocker(locker))
	env.seed(t, env.d2, env.p2, at(1, 15), StatusScheduled)
	a := env.seed(t, env.d1, env.p1, at(1, 10), StatusScheduled)

	_, err := env.svc.Reschedule(context.Background(), &Appointment{
		ID: a.ID, DoctorID: env.d2.ID, PatientID: env.p1.ID, Time: at(1, 15), Status: StatusScheduled,
	})
	assertKind(t, err, apperr.Conflict)
	if len(locker.keys) != 1 {
		t.Fatalf("expected the target slot to be locked once, got %v", locker.keys)
	}

	got, _ := env.appts.GetByID(context.Background(), a.ID)
	if got.DoctorID != env.d1.ID || !got.Time.Equal(at(1, 10)) {
		t.Errorf("appointment must stay put after a refused move: %+v", got)
	}
}

func TestService_Reschedule_FreeSlot(t *testing.T) {
	locker := &keyLocker{}
	env := newTestEnv(WithLocker(locker))
	a := env.seed(t, env.d1, env.p1, at(1, 10), StatusScheduled)

	updated, err := env.svc.Reschedule(context.Background(), &Appointment{
		ID: a.ID, DoctorID: env.d2.ID, PatientID: env.p1.ID, Time: at(2, 11), Status: StatusScheduled,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.DoctorID != env.d2.ID || !updated.Time.Equal(at(2, 11)) || updated.DoctorName != env.d2.Name {
		t.Errorf("unexpected result %+v", updated)
	}
	if len(locker.keys) != 1 || locker.keys[0] != slotKey(updated) {
		t.Errorf("expected lock on %s, got %v", slotKey(updated), locker.keys)
	}
}

func TestService_Reschedule_SameSlotSkipsCheck(t *testing.T) {
	locker := &keyLocker{}
	env := newTestEnv(WithLocker(locker))
	a := env.seed(t, env.d1, env.p1, at(1, 10), StatusScheduled)

	// Its own booking occupies the slot; completing it must not conflict.
	updated, err := env.svc.Reschedule(context.Background(), &Appointment{
		ID: a.ID, DoctorID: env.d1.ID, PatientID: env.p1.ID, Time: at(1, 10), Status: StatusCompleted,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", updated.Status)
	}
	if len(locker.keys) != 0 {
		t.Errorf("expected no lock for an unchanged slot, got %v", locker.keys)
	}
}

func TestService_Reschedule_UnknownDoctor(t *testing.T) {
	env := newTestEnv()
	a := env.seed(t, env.d1, env.p1, at(1, 10), StatusScheduled)

	_, err := env.svc.Reschedule(context.Background(), &Appointment{
		ID: a.ID, DoctorID: uuid.New(), PatientID: env.p1.ID, Time: at(1, 11), Status: StatusScheduled,
	})
	assertKind(t, err, apperr.InvalidInput)

	_, err = env.svc.Reschedule(context.Background(), &Appointment{ID: uuid.New(), DoctorID: env.d1.ID})
	assertKind(t, err, apperr.NotFound)
}

func TestService_Update_Errors(t *testing.T) {
	env := newTestEnv()
	a := env.seed(t, env.d1, env.p1, at(1, 10), StatusCompleted)
	ctx := context.Background()

	_, err := env.svc.Update(ctx, &Appointment{ID: uuid.New(), DoctorID: env.d1.ID})
	assertKind(t, err, apperr.NotFound)

	_, err = env.svc.Update(ctx, &Appointment{ID: a.ID, DoctorID: uuid.New(), PatientID: env.p1.ID, Time: at(1, 11), Status: StatusCompleted})
	assertKind(t, err, apperr.InvalidInput)

	_, err = env.svc.Update(ctx, &Appointment{ID: a.ID, DoctorID: env.d1.ID, PatientID: env.p1.ID, Time: at(1, 11), Status: StatusScheduled})
	assertKind(t, err, apperr.InvalidInput)
}

// -- Cancel --

func TestService_Cancel_NonOwner(t *testing.T) {
	env := newTestEnv()
	a := env.seed(t, env.d1, env.p2, at(1, 10), StatusScheduled)

	err := env.svc.Cancel(context.Background(), a.ID, auth.PatientIdentity(env.p1.ID))
	assertKind(t, err, apperr.Unauthorized)

	if _, err := env.appts.GetByID(context.Background(), a.ID); err != nil {
		t.Error("appointment must survive a refused cancel")
	}

	// A doctor token carrying the patient's id is still not the owner.
	err = env.svc.Cancel(context.Background(), a.ID, auth.Identity{Role: auth.RoleDoctor, ID: env.p2.ID.String()})
	assertKind(t, err, apperr.Unauthorized)
}

func TestService_Cancel_Owner(t *testing.T) {
	env := newTestEnv()
	a := env.seed(t, env.d1, env.p2, at(1, 10), StatusScheduled)

	if err := env.svc.Cancel(context.Background(), a.ID, auth.PatientIdentity(env.p2.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := env.appts.GetByID(context.Background(), a.ID); err != ErrNotFound {
		t.Error("expected appointment to be deleted")
	}
	if env.recorder.cancels != 1 {
		t.Errorf("expected 1 cancellation recorded, got %d", env.recorder.cancels)
	}

	err := env.svc.Cancel(context.Background(), a.ID, auth.PatientIdentity(env.p2.ID))
	assertKind(t, err, apperr.NotFound)
}

// -- ChangeStatus --

func TestService_ChangeStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{"complete", StatusScheduled, StatusCompleted, false},
		{"stay scheduled", StatusScheduled, StatusScheduled, false},
		{"stay completed", StatusCompleted, StatusCompleted, false},
		{"reopen", StatusCompleted, StatusScheduled, true},
		{"unknown code", StatusScheduled, Status(7), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			a := env.seed(t, env.d1, env.p1, at(1, 10), tt.from)
			got, err := env.svc.ChangeStatus(context.Background(), a.ID, tt.to)
			if tt.wantErr {
				assertKind(t, err, apperr.InvalidInput)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != tt.to {
				t.Errorf("expected %s, got %s", tt.to, got.Status)
			}
		})
	}

	env := newTestEnv()
	_, err := env.svc.ChangeStatus(context.Background(), uuid.New(), StatusCompleted)
	assertKind(t, err, apperr.NotFound)
}

// -- Listing --

func TestService_ListForDoctor(t *testing.T) {
	env := newTestEnv()
	env.seed(t, env.d1, env.p1, at(1, 9), StatusScheduled)
	env.seed(t, env.d1, env.p2, at(1, 14), StatusScheduled)
	env.seed(t, env.d1, env.p1, at(2, 9), StatusScheduled)
	env.seed(t, env.d2, env.p1, at(1, 10), StatusScheduled)
	ctx := context.Background()

	all, err := env.svc.ListForDoctor(ctx, env.d1.ID, at(1, 12), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 appointments on the day, got %d", len(all))
	}

	start, end := env.appts.lastWin[0], env.appts.lastWin[1]
	if !start.Equal(at(1, 0)) || !end.Equal(time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC)) {
		t.Errorf("unexpected day window %s - %s", start, end)
	}

	smith, _ := env.svc.ListForDoctor(ctx, env.d1.ID, at(1, 12), "SMITH")
	if len(smith) != 1 || smith[0].PatientID != env.p2.ID {
		t.Errorf("expected only John Smith, got %+v", smith)
	}

	null, _ := env.svc.ListForDoctor(ctx, env.d1.ID, at(1, 12), "null")
	if len(null) != 2 {
		t.Errorf("expected \"null\" to mean no name filter, got %d", len(null))
	}
}

func TestService_ListForPatient(t *testing.T) {
	env := newTestEnv()
	env.seed(t, env.d1, env.p1, at(1, 9), StatusScheduled)
	env.seed(t, env.d2, env.p2, at(1, 10), StatusScheduled)

	out, err := env.svc.ListForPatient(context.Background(), env.p1.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].PatientID != env.p1.ID {
		t.Errorf("expected p1's single appointment, got %+v", out)
	}
}
