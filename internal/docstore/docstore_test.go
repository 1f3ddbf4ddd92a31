package docstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/playperu/territorio/internal/database"
	"github.com/playperu/territorio/internal/docstore"
	"github.com/playperu/territorio/internal/migrations"
	"github.com/playperu/territorio/internal/territorio"
)

func setupStore(t *testing.T) *docstore.DocStore {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return docstore.New(db)
}

func square(x, y, size float64) []territorio.Ring {
	return []territorio.Ring{{
		{Lat: y, Lng: x},
		{Lat: y, Lng: x + size},
		{Lat: y + size, Lng: x + size},
		{Lat: y + size, Lng: x},
	}}
}

func TestCreateAndListTerritories(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	idA, err := s.CreateTerritory(ctx, "USER_A", square(0, 0, 1), docstore.Metadata{Name: "Centro", Area: 12.5})
	if err != nil {
		t.Fatalf("create A: %v", err)
	}
	idB, err := s.CreateTerritory(ctx, "USER_B", square(5, 5, 1), docstore.Metadata{})
	if err != nil {
		t.Fatalf("create B: %v", err)
	}
	if idA == "" || idA == idB {
		t.Fatalf("ids = %q, %q; want distinct non-empty", idA, idB)
	}

	all, err := s.ListTerritories(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[0].ID != idA || all[0].Name != "Centro" || all[0].Area != 12.5 {
		t.Errorf("first = %+v", all[0])
	}
	if !territorio.RingsEqual(all[0].Coordinates, square(0, 0, 1)) {
		t.Errorf("coordinates = %v", all[0].Coordinates)
	}
	if all[0].Timestamp == 0 {
		t.Error("timestamp not derived from createdAt")
	}

	mine, err := s.ListTerritories(ctx, "USER_B")
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != idB {
		t.Errorf("owner filter = %+v", mine)
	}
}

func TestUpdateTerritory(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	id, err := s.CreateTerritory(ctx, "USER_A", square(0, 0, 1), docstore.Metadata{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.UpdateTerritoryCoordinates(ctx, id, square(2, 2, 3)); err != nil {
		t.Fatalf("update coords: %v", err)
	}
	if err := s.UpdateTerritoryOwner(ctx, id, "USER_B"); err != nil {
		t.Fatalf("update owner: %v", err)
	}

	got, err := s.ListTerritories(ctx, "USER_B")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || !territorio.RingsEqual(got[0].Coordinates, square(2, 2, 3)) {
		t.Errorf("after update = %+v", got)
	}

	if err := s.UpdateTerritoryCoordinates(ctx, "missing", square(0, 0, 1)); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("missing update err = %v, want ErrNotFound", err)
	}
}

func TestDeleteTerritories(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	var ids []string
	for i := range 3 {
		id, err := s.CreateTerritory(ctx, "USER_A", square(float64(i*2), 0, 1), docstore.Metadata{})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, id)
	}

	if err := s.DeleteTerritory(ctx, ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTerritory(ctx, ids[0]); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTerritories(ctx, []string{ids[1], ids[2], "missing"}); err != nil {
		t.Fatalf("delete many: %v", err)
	}
	if err := s.DeleteTerritories(ctx, nil); err != nil {
		t.Fatalf("delete none: %v", err)
	}

	left, err := s.ListTerritories(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("left = %d, want 0", len(left))
	}
}

func TestUsers(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, " Ana@Example.com ", "Ana", "secreto")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "ana@example.com" || u.Name != "Ana" || u.ID == "" {
		t.Errorf("user = %+v", u)
	}

	if _, err := s.CreateUser(ctx, "ana@example.com", "Otra", "x"); !errors.Is(err, docstore.ErrEmailTaken) {
		t.Errorf("duplicate err = %v, want ErrEmailTaken", err)
	}

	got, err := s.Authenticate(ctx, "ANA@example.com", "secreto")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("authenticated id = %q, want %q", got.ID, u.ID)
	}

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "ana@example.com", "nope"},
		{"unknown email", "bob@example.com", "secreto"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Authenticate(ctx, tt.email, tt.password); !errors.Is(err, docstore.ErrInvalidCredentials) {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}

	byID, err := s.GetUser(ctx, u.ID)
	if err != nil || byID.Email != u.Email {
		t.Errorf("GetUser = %+v, %v", byID, err)
	}
	if _, err := s.GetUser(ctx, "missing"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("GetUser missing err = %v", err)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("users = %d, want 1", len(users))
	}
}
