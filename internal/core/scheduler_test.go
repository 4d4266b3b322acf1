package core

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-records-server/internal/models"
	"clinic-records-server/internal/store"
)

func futureSlot() time.Time {
	return time.Now().Add(48 * time.Hour).Truncate(time.Minute)
}

func TestBook(t *testing.T) {
	f := newFixture()
	patientSession, patientID := f.newPatient(t, "jane")
	_, doctorID := f.newDoctor(t, "bob")

	slot := futureSlot()
	appt, err := f.scheduler.Book(patientSession, patientID, doctorID, slot.Add(30*time.Second), "checkup")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(appt.ID, "A-"))
	assert.Equal(t, models.StatusPending, appt.Status)
	assert.Equal(t, patientID, appt.PatientID)
	assert.Equal(t, doctorID, appt.DoctorID)
	// Sub-minute precision is dropped so equal wall-clock slots collide.
	assert.Equal(t, slot, appt.DateTime)
}

func TestBookValidation(t *testing.T) {
	f := newFixture()
	patientSession, patientID := f.newPatient(t, "jane")
	_, doctorID := f.newDoctor(t, "bob")

	_, err := f.scheduler.Book(patientSession, patientID, "", futureSlot(), "checkup")
	assert.True(t, IsKind(err, KindValidation), "got %v", err)

	_, err = f.scheduler.Book(patientSession, patientID, doctorID, time.Time{}, "checkup")
	assert.True(t, IsKind(err, KindValidation), "got %v", err)

	_, err = f.scheduler.Book(patientSession, patientID, doctorID, time.Now().Add(-time.Hour), "checkup")
	assert.True(t, IsKind(err, KindValidation), "got %v", err)

	_, err = f.scheduler.Book(patientSession, patientID, "D-missing", futureSlot(), "checkup")
	assert.True(t, IsKind(err, KindNotFound), "got %v", err)
}

func TestBookWithinCurrentMinute(t *testing.T) {
	f := newFixture()
	patientSession, patientID := f.newPatient(t, "jane")
	_, doctorID := f.newDoctor(t, "bob")

	now := time.Date(2026, 10, 1, 9, 0, 40, 0, time.UTC)
	f.scheduler.now = func() time.Time { return now }

	// A strictly-future instant inside the current minute is bookable;
	// the stored slot still lands on the minute boundary.
	appt, err := f.scheduler.Book(patientSession, patientID, doctorID, now.Add(10*time.Second), "checkup")
	require.NoError(t, err)
	assert.Equal(t, now.Truncate(time.Minute), appt.DateTime)

	// An instant behind the clock is still rejected.
	_, err = f.scheduler.Book(patientSession, patientID, doctorID, now.Add(-10*time.Second), "checkup")
	assert.True(t, IsKind(err, KindValidation), "got %v", err)
}

func TestBookOwnershipAndRole(t *testing.T) {
	f := newFixture()
	patientSession, patientID := f.newPatient(t, "jane")
	otherSession, _ := f.newPatient(t, "mallory")
	doctorSession, doctorID := f.newDoctor(t, "bob")
	admin := f.newAdmin(t)

	// Booking on behalf of another patient is an ownership failure.
	_, err := f.scheduler.Book(otherSession, patientID, doctorID, futureSlot(), "checkup")
	assert.True(t, IsKind(err, KindNotOwner), "got %v", err)

	_, err = f.scheduler.Book(doctorSession, patientID, doctorID, futureSlot(), "checkup")
	assert.True(t, IsKind(err, KindRoleMismatch), "got %v", err)

	_, err = f.scheduler.Book(admin, patientID, doctorID, futureSlot(), "checkup")
	assert.True(t, IsKind(err, KindRoleMismatch), "got %v", err)

	_, err = f.scheduler.Book(Session{}, patientID, doctorID, futureSlot(), "checkup")
	assert.True(t, IsKind(err, KindUnauthenticated), "got %v", err)

	_, err = f.scheduler.Book(patientSession, patientID, doctorID, futureSlot(), "checkup")
	assert.NoError(t, err)
}

func TestBookSlotConflict(t *testing.T) {
	f := newFixture()
	janeSession, janeID := f.newPatient(t, "jane")
	mallorySession, malloryID := f.newPatient(t, "mallory")
	_, doctorID := f.newDoctor(t, "bob")
	_, otherDoctorID := f.newDoctor(t, "eve")

	slot := futureSlot()
	_, err := f.scheduler.Book(janeSession, janeID, doctorID, slot, "checkup")
	require.NoError(t, err)

	// Same doctor, same instant: conflict even across patients.
	_, err = f.scheduler.Book(mallorySession, malloryID, doctorID, slot, "checkup")
	assert.True(t, IsKind(err, KindSlotConflict), "got %v", err)

	// Sub-minute offsets land in the same slot.
	_, err = f.scheduler.Book(mallorySession, malloryID, doctorID, slot.Add(20*time.Second), "checkup")
	assert.True(t, IsKind(err, KindSlotConflict), "got %v", err)

	// A different doctor or a different minute is free.
	_, err = f.scheduler.Book(mallorySession, malloryID, otherDoctorID, slot, "checkup")
	assert.NoError(t, err)
	_, err = f.scheduler.Book(mallorySession, malloryID, doctorID, slot.Add(time.Minute), "checkup")
	assert.NoError(t, err)
}

func TestBookConcurrentSameSlot(t *testing.T) {
	f := newFixture()
	_, doctorID := f.newDoctor(t, "bob")

	const attempts = 8
	sessions := make([]Session, attempts)
	patientIDs := make([]string, attempts)
	for i := 0; i < attempts; i++ {
		sessions[i], patientIDs[i] = f.newPatient(t, "patient"+string(rune('a'+i)))
	}

	slot := futureSlot()
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.scheduler.Book(sessions[i], patientIDs[i], doctorID, slot, "checkup")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, IsKind(err, KindSlotConflict), "got %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
}

// Full lifecycle: book, confirm, conflicting re-book, complete, then a
// late cancel that must fail against the terminal state.
func TestAppointmentLifecycle(t *testing.T) {
	f := newFixture()
	patientSession, patientID := f.newPatient(t, "jane")
	mallorySession, malloryID := f.newPatient(t, "mallory")
	doctorSession, doctorID := f.newDoctor(t, "bob")

	slot := futureSlot()
	appt, err := f.scheduler.Book(patientSession, patientID, doctorID, slot, "checkup")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, appt.Status)

	confirmed, err := f.scheduler.Confirm(doctorSession, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)

	// The slot stays held while the appointment is active.
	_, err = f.scheduler.Book(mallorySession, malloryID, doctorID, slot, "checkup")
	assert.True(t, IsKind(err, KindSlotConflict), "got %v", err)

	completed, err := f.scheduler.Complete(doctorSession, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)

	// COMPLETED is final; cancelling it is an illegal transition.
	_, err = f.scheduler.Cancel(patientSession, appt.ID)
	assert.True(t, IsKind(err, KindInvalidTransition), "got %v", err)

	// The completed appointment no longer holds the slot.
	_, err = f.scheduler.Book(mallorySession, malloryID, doctorID, slot, "follow-up")
	assert.NoError(t, err)
}

func TestTransitionAuthorization(t *testing.T) {
	f := newFixture()
	patientSession, patientID := f.newPatient(t, "jane")
	doctorSession, doctorID := f.newDoctor(t, "bob")
	otherDoctor, _ := f.newDoctor(t, "eve")
	otherPatient, _ := f.newPatient(t, "mallory")

	appt, err := f.scheduler.Book(patientSession, patientID, doctorID, futureSlot(), "checkup")
	require.NoError(t, err)

	// Patients cannot confirm or complete.
	_, err = f.scheduler.Confirm(patientSession, appt.ID)
	assert.True(t, IsKind(err, KindRoleMismatch), "got %v", err)
	_, err = f.scheduler.Complete(patientSession, appt.ID)
	assert.True(t, IsKind(err, KindRoleMismatch), "got %v", err)

	// Another doctor cannot touch the appointment at all.
	_, err = f.scheduler.Confirm(otherDoctor, appt.ID)
	assert.True(t, IsKind(err, KindNotOwner), "got %v", err)

	// Another patient cannot cancel it.
	_, err = f.scheduler.Cancel(otherPatient, appt.ID)
	assert.True(t, IsKind(err, KindNotOwner), "got %v", err)

	// The appointment's own patient may cancel.
	cancelled, err := f.scheduler.Cancel(patientSession, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	// And CANCELLED is terminal.
	_, err = f.scheduler.Confirm(doctorSession, appt.ID)
	assert.True(t, IsKind(err, KindInvalidTransition), "got %v", err)
}

func TestTransitionByAdmin(t *testing.T) {
	f := newFixture()
	patientSession, patientID := f.newPatient(t, "jane")
	_, doctorID := f.newDoctor(t, "bob")
	admin := f.newAdmin(t)

	appt, err := f.scheduler.Book(patientSession, patientID, doctorID, futureSlot(), "checkup")
	require.NoError(t, err)

	confirmed, err := f.scheduler.Confirm(admin, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)

	cancelled, err := f.scheduler.Cancel(admin, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
}

func TestConcurrentTransitionsOneWinner(t *testing.T) {
	f := newFixture()
	patientSession, patientID := f.newPatient(t, "jane")
	doctorSession, doctorID := f.newDoctor(t, "bob")

	appt, err := f.scheduler.Book(patientSession, patientID, doctorID, futureSlot(), "checkup")
	require.NoError(t, err)

	// Doctor races to complete while the patient races to cancel.
	var wg sync.WaitGroup
	var completeErr, cancelErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, completeErr = f.scheduler.Complete(doctorSession, appt.ID)
	}()
	go func() {
		defer wg.Done()
		_, cancelErr = f.scheduler.Cancel(patientSession, appt.ID)
	}()
	wg.Wait()

	// Exactly one side wins; the loser sees the same kind a stale
	// caller would.
	if completeErr == nil {
		assert.True(t, IsKind(cancelErr, KindInvalidTransition), "got %v", cancelErr)
	} else {
		require.NoError(t, cancelErr)
		assert.True(t, IsKind(completeErr, KindInvalidTransition), "got %v", completeErr)
	}

	got, err := f.store.Appointments.Get(appt.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.IsTerminal())
}

func TestTransitionNotFound(t *testing.T) {
	f := newFixture()
	doctorSession, _ := f.newDoctor(t, "bob")

	_, err := f.scheduler.Confirm(doctorSession, "A-missing")
	assert.True(t, IsKind(err, KindNotFound), "got %v", err)
}

func TestSchedulerGet(t *testing.T) {
	f := newFixture()
	patientSession, patientID := f.newPatient(t, "jane")
	_, doctorID := f.newDoctor(t, "bob")
	otherPatient, _ := f.newPatient(t, "mallory")

	appt, err := f.scheduler.Book(patientSession, patientID, doctorID, futureSlot(), "checkup")
	require.NoError(t, err)

	got, err := f.scheduler.Get(patientSession, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appt.ID, got.ID)

	_, err = f.scheduler.Get(otherPatient, appt.ID)
	assert.True(t, IsKind(err, KindNotOwner), "got %v", err)
}

func TestSchedulerListScoping(t *testing.T) {
	f := newFixture()
	janeSession, janeID := f.newPatient(t, "jane")
	mallorySession, malloryID := f.newPatient(t, "mallory")
	doctorSession, doctorID := f.newDoctor(t, "bob")
	_, otherDoctorID := f.newDoctor(t, "eve")
	admin := f.newAdmin(t)

	slot := futureSlot()
	_, err := f.scheduler.Book(janeSession, janeID, doctorID, slot, "checkup")
	require.NoError(t, err)
	_, err = f.scheduler.Book(mallorySession, malloryID, doctorID, slot.Add(time.Hour), "checkup")
	require.NoError(t, err)
	_, err = f.scheduler.Book(mallorySession, malloryID, otherDoctorID, slot, "checkup")
	require.NoError(t, err)

	// A patient sees only their own appointments, whatever the filter.
	own, err := f.scheduler.List(janeSession, store.AppointmentFilter{PatientID: malloryID})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, janeID, own[0].PatientID)

	// A doctor sees their own side.
	byDoctor, err := f.scheduler.List(doctorSession, store.AppointmentFilter{})
	require.NoError(t, err)
	assert.Len(t, byDoctor, 2)

	// Admin sees everything and may filter freely.
	all, err := f.scheduler.List(admin, store.AppointmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	filtered, err := f.scheduler.List(admin, store.AppointmentFilter{DoctorID: otherDoctorID})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)

	// An unlinked account has nothing to see.
	unlinked := f.newAccount(t, "fresh", models.RolePatient)
	none, err := f.scheduler.List(unlinked, store.AppointmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.scheduler.List(admin, store.AppointmentFilter{Status: "NOPE"})
	assert.True(t, IsKind(err, KindValidation), "got %v", err)
}

func TestSchedulerDelete(t *testing.T) {
	f := newFixture()
	patientSession, patientID := f.newPatient(t, "jane")
	_, doctorID := f.newDoctor(t, "bob")
	admin := f.newAdmin(t)

	appt, err := f.scheduler.Book(patientSession, patientID, doctorID, futureSlot(), "checkup")
	require.NoError(t, err)

	// Only an admin may hard-delete.
	err = f.scheduler.Delete(patientSession, appt.ID)
	assert.True(t, IsKind(err, KindRoleMismatch), "got %v", err)

	require.NoError(t, f.scheduler.Delete(admin, appt.ID))

	err = f.scheduler.Delete(admin, appt.ID)
	assert.True(t, IsKind(err, KindNotFound), "got %v", err)
}
