package staff

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"agenda/backend/internal/store"
	"agenda/backend/internal/store/memory"
	"agenda/backend/internal/validation"
)

func TestCreate_HashesPassword(t *testing.T) {
	svc := NewService(memory.New(), WithBcryptCost(bcrypt.MinCost))

	u, err := svc.Create(context.Background(), validation.Payload{"nome": "Bia", "email": "Bia@Example.com", "senha": "s3cret"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Email != "bia@example.com" {
		t.Fatalf("email = %q", u.Email)
	}
	if u.PasswordHash == "s3cret" || !CheckPassword(u, "s3cret") || CheckPassword(u, "wrong") {
		t.Fatalf("password hash not usable: %q", u.PasswordHash)
	}
}

func TestCreate_DuplicateEmailConflicts(t *testing.T) {
	svc := NewService(memory.New(), WithBcryptCost(bcrypt.MinCost))
	ctx := context.Background()
	p := validation.Payload{"name": "Bia", "email": "bia@example.com", "password": "x"}

	if _, err := svc.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.Create(ctx, validation.Payload{"name": "Other", "email": "BIA@example.com", "password": "y"})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestListGetRemove(t *testing.T) {
	svc := NewService(memory.New(), WithBcryptCost(bcrypt.MinCost))
	ctx := context.Background()
	u, err := svc.Create(ctx, validation.Payload{"name": "Bia", "email": "bia@example.com", "password": "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := svc.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %+v, %v", list, err)
	}
	if err := svc.Remove(ctx, u.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := svc.Get(ctx, u.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get err = %v, want ErrNotFound", err)
	}
}
