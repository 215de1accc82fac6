package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"agenda/backend/internal/domain"
	"agenda/backend/internal/store"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	db, err := Open(DriverSQLite, ":memory:", PoolConfig{})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := Migrate(ctx, db, DriverSQLite); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}
	// A second run must be a no-op.
	if err := Migrate(ctx, db, DriverSQLite); err != nil {
		t.Fatalf("second Migrate error: %v", err)
	}
	return New(db)
}

type fixture struct {
	client  domain.Client
	service domain.Service
	staff   domain.StaffUser
}

func seedFixture(t *testing.T, s store.Store) fixture {
	t.Helper()
	f, err := store.View(context.Background(), s, func(ctx context.Context, tx store.Tx) (fixture, error) {
		var f fixture
		var err error
		if f.client, err = tx.InsertClient(ctx, domain.Client{Name: "Ana", Phone: "111"}); err != nil {
			return f, err
		}
		if f.service, err = tx.InsertService(ctx, domain.Service{Name: "Cut", Price: 3000, DurationMinutes: 30}); err != nil {
			return f, err
		}
		f.staff, err = tx.InsertStaffUser(ctx, domain.StaffUser{Name: "Bia", Email: "bia@example.com", PasswordHash: "hash"})
		return f, err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return f
}

func TestSQLite_AppointmentCreateListAndExpand(t *testing.T) {
	s := openSQLite(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	base := time.Date(2024, 12, 20, 10, 0, 0, 0, time.UTC)
	got, err := store.View(ctx, s, func(ctx context.Context, tx store.Tx) ([]domain.Appointment, error) {
		for _, at := range []time.Time{base.Add(2 * time.Hour), base, base} {
			_, err := tx.InsertAppointment(ctx, domain.Appointment{
				ScheduledAt: at,
				Status:      domain.StatusPending,
				ClientID:    f.client.ID,
				ServiceID:   f.service.ID,
				StaffUserID: f.staff.ID,
			})
			if err != nil {
				return nil, err
			}
		}
		return tx.ListAppointmentDetails(ctx)
	})
	if err != nil {
		t.Fatalf("tx error: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	wantIDs := []int64{2, 3, 1}
	for i, a := range got {
		if a.ID != wantIDs[i] {
			t.Fatalf("got[%d].ID = %d, want %d", i, a.ID, wantIDs[i])
		}
		if !a.Expanded() {
			t.Fatalf("got[%d] not expanded", i)
		}
	}
	if got[0].Client.Name != "Ana" || got[0].Service.Price != 3000 || got[0].StaffUser.Email != "bia@example.com" {
		t.Fatalf("relations = %+v %+v %+v", got[0].Client, got[0].Service, got[0].StaffUser)
	}
	if !got[0].ScheduledAt.Equal(base) {
		t.Fatalf("scheduledAt = %v, want %v", got[0].ScheduledAt, base)
	}
}

func TestSQLite_UpdateAppointmentKeepsUntouchedColumns(t *testing.T) {
	s := openSQLite(t)
	f := seedFixture(t, s)
	ctx := context.Background()
	at := time.Date(2024, 12, 20, 10, 0, 0, 0, time.UTC)

	updated, err := store.View(ctx, s, func(ctx context.Context, tx store.Tx) (domain.Appointment, error) {
		a, err := tx.InsertAppointment(ctx, domain.Appointment{ScheduledAt: at, Status: domain.StatusPending, ClientID: f.client.ID, ServiceID: f.service.ID, StaffUserID: f.staff.ID})
		if err != nil {
			return domain.Appointment{}, err
		}
		a.Status = domain.StatusConfirmed
		return tx.UpdateAppointment(ctx, a)
	})
	if err != nil {
		t.Fatalf("tx error: %v", err)
	}
	if updated.Status != domain.StatusConfirmed || !updated.ScheduledAt.Equal(at) || updated.ClientID != f.client.ID {
		t.Fatalf("updated = %+v", updated)
	}
}

func TestSQLite_ForeignKeysAndRestrict(t *testing.T) {
	s := openSQLite(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	err := s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.InsertAppointment(ctx, domain.Appointment{ScheduledAt: time.Now(), Status: domain.StatusPending, ClientID: 999, ServiceID: f.service.ID, StaffUserID: f.staff.ID})
		return err
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("dangling insert err = %v, want ErrConflict", err)
	}

	err = s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.InsertAppointment(ctx, domain.Appointment{ScheduledAt: time.Now(), Status: domain.StatusPending, ClientID: f.client.ID, ServiceID: f.service.ID, StaffUserID: f.staff.ID})
		return err
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	err = s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.DeleteService(ctx, f.service.ID)
	})
	var refErr *store.ReferencedError
	if !errors.As(err, &refErr) || refErr.Kind != store.KindService || refErr.Count != 1 {
		t.Fatalf("DeleteService err = %v, want referenced", err)
	}
}

func TestSQLite_NotFoundAndDuplicate(t *testing.T) {
	s := openSQLite(t)
	seedFixture(t, s)
	ctx := context.Background()

	err := s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.DeleteAppointment(ctx, 42)
	})
	var nf *store.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != store.KindAppointment || nf.ID != 42 {
		t.Fatalf("err = %v, want appointment 42 not found", err)
	}

	_, err = store.View(ctx, s, func(ctx context.Context, tx store.Tx) (domain.Client, error) {
		return tx.UpdateClient(ctx, domain.Client{ID: 7, Name: "x", Phone: "y"})
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("UpdateClient err = %v, want ErrNotFound", err)
	}

	err = s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.InsertStaffUser(ctx, domain.StaffUser{Name: "Other", Email: "bia@example.com", PasswordHash: "h"})
		return err
	})
	var dup *store.DuplicateError
	if !errors.As(err, &dup) || dup.Field != "email" {
		t.Fatalf("err = %v, want duplicate email", err)
	}
}

func TestSQLite_ListClientsByteOrder(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	names, err := store.View(ctx, s, func(ctx context.Context, tx store.Tx) ([]string, error) {
		for _, n := range []string{"bruno", "Ana", "Zeca"} {
			if _, err := tx.InsertClient(ctx, domain.Client{Name: n, Phone: "1"}); err != nil {
				return nil, err
			}
		}
		rows, err := tx.ListClients(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.Name)
		}
		return out, nil
	})
	if err != nil {
		t.Fatalf("tx error: %v", err)
	}
	want := []string{"Ana", "Zeca", "bruno"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestSQLite_RollbackOnError(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.InsertClient(ctx, domain.Client{Name: "Ana", Phone: "1"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	exists, err := store.View(ctx, s, func(ctx context.Context, tx store.Tx) (bool, error) {
		return tx.Exists(ctx, store.KindClient, 1)
	})
	if err != nil || exists {
		t.Fatalf("exists = %v err = %v, want rolled back", exists, err)
	}
}
