package users

import (
	"context"
	"errors"
	"testing"

	"github.com/marketdesk/marketdesk/pkg/db"
	"github.com/marketdesk/marketdesk/pkg/db/dbtest"
	"github.com/marketdesk/marketdesk/pkg/enums"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	client := dbtest.New(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	phone := "  555-0100 "
	user, err := repo.Create(ctx, CreateUserDTO{
		FullName:     " Ada Lovelace ",
		Email:        " Ada@Example.COM ",
		PasswordHash: "hash",
		Phone:        &phone,
		Role:         enums.RoleCustomer,
	})
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.NotEqual(t, uint(1), user.ID, "id 1 is reserved")
	require.Equal(t, "ada@example.com", user.Email)
	require.Equal(t, "Ada Lovelace", user.FullName)
	require.NotNil(t, user.Phone)
	require.Equal(t, "555-0100", *user.Phone)
	require.True(t, user.IsActive)

	found, err := repo.FindByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, found.ID)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, enums.RoleCustomer, byID.Role)

	_, err = repo.FindByEmail(ctx, "missing@example.com")
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryRejectsDuplicateEmail(t *testing.T) {
	client := dbtest.New(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{FullName: "A", Email: "a@x.com", PasswordHash: "h", Role: enums.RoleCustomer})
	require.NoError(t, err)

	_, err = repo.Create(ctx, CreateUserDTO{FullName: "B", Email: "A@X.com", PasswordHash: "h", Role: enums.RoleCustomer})
	require.Error(t, err)
	require.True(t, db.IsUniqueViolation(err, ""))
}

func TestRepositoryBootstrapIDAndCounts(t *testing.T) {
	client := dbtest.New(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	exists, err := repo.ExistsByID(ctx, 1)
	require.NoError(t, err)
	require.False(t, exists)

	admin, err := repo.Create(ctx, CreateUserDTO{ID: 1, FullName: "Root", Email: "root@x.com", PasswordHash: "h", Role: enums.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, uint(1), admin.ID)

	_, err = repo.Create(ctx, CreateUserDTO{FullName: "S", Email: "s@x.com", PasswordHash: "h", Role: enums.RoleSeller})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{FullName: "C", Email: "c@x.com", PasswordHash: "h", Role: enums.RoleCustomer})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{FullName: "C2", Email: "c2@x.com", PasswordHash: "h", Role: enums.RoleCustomer})
	require.NoError(t, err)

	counts, err := repo.CountByRole(ctx)
	require.NoError(t, err)
	got := map[enums.Role]int64{}
	for _, row := range counts {
		got[row.Role] = row.Count
	}
	require.Equal(t, map[enums.Role]int64{enums.RoleAdmin: 1, enums.RoleSeller: 1, enums.RoleCustomer: 2}, got)

	sellers, err := repo.ListByRole(ctx, enums.RoleSeller)
	require.NoError(t, err)
	require.Len(t, sellers, 1)

	require.NoError(t, repo.SetActive(ctx, sellers[0].ID, false))
	reloaded, err := repo.FindByID(ctx, sellers[0].ID)
	require.NoError(t, err)
	require.False(t, reloaded.IsActive)

	require.ErrorIs(t, repo.SetActive(ctx, 9999, false), gorm.ErrRecordNotFound)
}
