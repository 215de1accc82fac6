package clients

import (
	"context"
	"errors"
	"testing"
	"time"

	"agenda/backend/internal/domain"
	"agenda/backend/internal/store"
	"agenda/backend/internal/store/memory"
	"agenda/backend/internal/validation"
)

func TestCreateListOrderedByName(t *testing.T) {
	svc := NewService(memory.New())
	ctx := context.Background()

	for _, name := range []string{"bruno", "Ana", "Zeca"} {
		if _, err := svc.Create(ctx, validation.Payload{"nome": name, "telefone": "111"}); err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"Ana", "Zeca", "bruno"}
	for i, c := range list {
		if c.Name != want[i] {
			t.Fatalf("list[%d] = %q, want %q", i, c.Name, want[i])
		}
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(memory.New())

	_, err := svc.Create(context.Background(), validation.Payload{"name": "Ana"})
	var vErr *validation.Error
	if !errors.As(err, &vErr) || vErr.Error() != "phone is required" {
		t.Fatalf("err = %v, want phone is required", err)
	}
}

func TestUpdate_PartialAndClearEmail(t *testing.T) {
	svc := NewService(memory.New())
	ctx := context.Background()

	c, err := svc.Create(ctx, validation.Payload{"name": "Ana", "phone": "111", "email": "ana@example.com"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Email == nil || *c.Email != "ana@example.com" {
		t.Fatalf("email = %v", c.Email)
	}

	u, err := svc.Update(ctx, c.ID, validation.Payload{"phone": "999", "email": ""})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.Name != "Ana" || u.Phone != "999" || u.Email != nil {
		t.Fatalf("updated = %+v", u)
	}

	if _, err := svc.Update(ctx, 42, validation.Payload{"phone": "1"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRemove_ReferencedClientIsRejected(t *testing.T) {
	st := memory.New()
	svc := NewService(st)
	ctx := context.Background()

	c, err := svc.Create(ctx, validation.Payload{"name": "Ana", "phone": "111"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	err = st.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		sv, err := tx.InsertService(ctx, domain.Service{Name: "Cut", Price: 3000, DurationMinutes: 30})
		if err != nil {
			return err
		}
		u, err := tx.InsertStaffUser(ctx, domain.StaffUser{Name: "Bia", Email: "bia@example.com", PasswordHash: "x"})
		if err != nil {
			return err
		}
		_, err = tx.InsertAppointment(ctx, domain.Appointment{ScheduledAt: time.Now(), Status: domain.StatusPending, ClientID: c.ID, ServiceID: sv.ID, StaffUserID: u.ID})
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	err = svc.Remove(ctx, c.ID)
	var refErr *store.ReferencedError
	if !errors.As(err, &refErr) || refErr.Kind != store.KindClient || refErr.Count != 1 {
		t.Fatalf("err = %v, want referenced client", err)
	}
	if _, err := svc.Get(ctx, c.ID); err != nil {
		t.Fatalf("client should survive: %v", err)
	}
}

func TestRemove_Unknown(t *testing.T) {
	err := NewService(memory.New()).Remove(context.Background(), 1)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
