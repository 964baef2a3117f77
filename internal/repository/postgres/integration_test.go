//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dtroode/filedepot-server/internal/model"
	repo "github.com/dtroode/filedepot-server/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "filedepot_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/filedepot_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newUser(email string) model.User {
	return model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "$2a$04$hash",
		FullName:     "Test User",
		Role:         model.RoleUser,
		Status:       model.StatusActive,
	}
}

func newFile(ownerID uuid.UUID, name string, size int64) model.File {
	return model.File{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Name:       name,
		Size:       size,
		MimeType:   "application/pdf",
		StorageKey: "user-" + ownerID.String() + "/" + uuid.NewString() + "-" + name,
		StorageURL: "http://localhost:9000/files/" + name,
	}
}

func TestRepositories_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	users := repo.NewUserRepository(conn)
	files := repo.NewFileRepository(conn)
	activity := repo.NewActivityRepository(conn)

	t.Run("user_repository", func(t *testing.T) {
		u := newUser("alice@example.com")
		saved, err := users.Create(ctx, u)
		require.NoError(t, err)
		require.Equal(t, u.ID, saved.ID)
		require.Equal(t, model.StatusActive, saved.Status)

		byEmail, err := users.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, byEmail.ID)

		_, err = users.GetByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, model.ErrNotFound)

		// Duplicate email violates the unique constraint.
		dup := newUser("alice@example.com")
		_, err = users.Create(ctx, dup)
		require.ErrorIs(t, err, model.ErrConflict)

		count, err := users.Count(ctx)
		require.NoError(t, err)
		require.GreaterOrEqual(t, count, int64(1))

		promoted, err := users.SetRole(ctx, u.ID, model.RoleAdmin)
		require.NoError(t, err)
		require.Equal(t, model.RoleAdmin, promoted.Role)

		disabled, err := users.SetStatus(ctx, u.ID, model.StatusDisabled)
		require.NoError(t, err)
		require.Equal(t, model.StatusDisabled, disabled.Status)

		_, err = users.SetRole(ctx, uuid.New(), model.RoleAdmin)
		require.ErrorIs(t, err, model.ErrNotFound)

		listed, total, err := users.List(ctx, model.ListUsersParams{Search: "alice", Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Equal(t, int64(1), total)
		require.Len(t, listed, 1)
	})

	t.Run("file_repository_counter", func(t *testing.T) {
		owner := newUser("bob@example.com")
		_, err := users.Create(ctx, owner)
		require.NoError(t, err)

		f1, err := files.Create(ctx, newFile(owner.ID, "a.pdf", 100))
		require.NoError(t, err)
		_, err = files.Create(ctx, newFile(owner.ID, "b.pdf", 50))
		require.NoError(t, err)

		reloaded, err := users.GetByID(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(150), reloaded.StorageUsed)

		require.NoError(t, files.SoftDelete(ctx, f1.ID))

		reloaded, err = users.GetByID(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(50), reloaded.StorageUsed)

		// Repeated delete must not decrement again.
		err = files.SoftDelete(ctx, f1.ID)
		require.ErrorIs(t, err, model.ErrNotFound)

		reloaded, err = users.GetByID(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(50), reloaded.StorageUsed)

		_, err = files.GetByID(ctx, f1.ID)
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("file_repository_listing", func(t *testing.T) {
		owner := newUser("carol@example.com")
		_, err := users.Create(ctx, owner)
		require.NoError(t, err)

		_, err = files.Create(ctx, newFile(owner.ID, "invoice.pdf", 10))
		require.NoError(t, err)
		_, err = files.Create(ctx, newFile(owner.ID, "photo.png", 30))
		require.NoError(t, err)

		all, err := files.ListByOwner(ctx, owner.ID, model.ListFilesParams{})
		require.NoError(t, err)
		require.Len(t, all, 2)

		matched, err := files.ListByOwner(ctx, owner.ID, model.ListFilesParams{Search: "INV"})
		require.NoError(t, err)
		require.Len(t, matched, 1)
		assert.Equal(t, "invoice.pdf", matched[0].Name)

		bySize, err := files.ListByOwner(ctx, owner.ID, model.ListFilesParams{Sort: model.SortBySize, Ascending: true})
		require.NoError(t, err)
		require.Len(t, bySize, 2)
		assert.Equal(t, "invoice.pdf", bySize[0].Name)

		totals, err := files.StorageTotals(ctx)
		require.NoError(t, err)
		assert.Greater(t, totals.TotalBytes, int64(0))

		usage, err := files.StorageByOwner(ctx, 10)
		require.NoError(t, err)
		assert.NotEmpty(t, usage)
	})

	t.Run("cascade_delete_by_owner", func(t *testing.T) {
		owner := newUser("dave@example.com")
		_, err := users.Create(ctx, owner)
		require.NoError(t, err)

		_, err = files.Create(ctx, newFile(owner.ID, "one.pdf", 10))
		require.NoError(t, err)
		_, err = files.Create(ctx, newFile(owner.ID, "two.pdf", 20))
		require.NoError(t, err)

		require.NoError(t, files.SoftDeleteByOwner(ctx, owner.ID))

		remaining, err := files.ListByOwner(ctx, owner.ID, model.ListFilesParams{})
		require.NoError(t, err)
		assert.Empty(t, remaining)

		reloaded, err := users.GetByID(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), reloaded.StorageUsed)

		require.NoError(t, users.Delete(ctx, owner.ID))
		_, err = users.GetByID(ctx, owner.ID)
		require.ErrorIs(t, err, model.ErrNotFound)

		// The soft-deleted records survive account removal. They stay
		// available for recovery and for the audit trail.
		var survivors int
		err = conn.QueryRow(ctx,
			"SELECT COUNT(*) FROM files WHERE owner_id = $1 AND deleted_at IS NOT NULL",
			owner.ID).Scan(&survivors)
		require.NoError(t, err)
		assert.Equal(t, 2, survivors)
	})

	t.Run("activity_repository", func(t *testing.T) {
		actor := newUser("erin@example.com")
		_, err := users.Create(ctx, actor)
		require.NoError(t, err)

		fileID := uuid.New()
		entry := model.Activity{
			ID:      uuid.New(),
			ActorID: actor.ID,
			Action:  model.ActionUpload,
			FileID:  &fileID,
			Metadata: map[string]any{
				"name": "report.pdf",
				"size": float64(512),
			},
			CreatedAt: time.Now(),
		}
		require.NoError(t, activity.Create(ctx, entry))

		byActor, err := activity.ListByActor(ctx, actor.ID, 10)
		require.NoError(t, err)
		require.Len(t, byActor, 1)
		assert.Equal(t, model.ActionUpload, byActor[0].Action)
		assert.Equal(t, "report.pdf", byActor[0].Metadata["name"])

		recent, err := activity.ListRecent(ctx, 10)
		require.NoError(t, err)
		assert.NotEmpty(t, recent)
	})
}
