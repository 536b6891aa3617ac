package sqlstore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/datadict/datadict/internal/dict"
)

// setupPostgresStore connects to DATADICT_TEST_POSTGRES_DSN and skips the
// test when it is unset or unreachable
func setupPostgresStore(t *testing.T, driver string) *Store {
	t.Helper()

	dsn := os.Getenv("DATADICT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DATADICT_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, Config{Driver: driver, DSN: dsn}, zaptest.NewLogger(t))
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	_, err = s.DB().ExecContext(ctx,
		"DROP TABLE IF EXISTS lineages, model_fields, models, field_roots, fields, roots, dictionary_names, schema_migrations CASCADE")
	require.NoError(t, err)
	_, err = s.Migrate(ctx)
	require.NoError(t, err)
	return s
}

func TestPostgresRoundTrip(t *testing.T) {
	for _, driver := range []string{"pgx", "postgres"} {
		t.Run(driver, func(t *testing.T) {
			s := setupPostgresStore(t, driver)
			ctx := context.Background()

			user := newRoot("user")
			field := newField("user_id", "user", "id")
			inTx(t, s, func(tx dict.Tx) error {
				require.NoError(t, tx.InsertRoot(ctx, user))
				require.NoError(t, tx.InsertField(ctx, field))
				return tx.AdjustRootUsage(ctx, "user", 1)
			})

			err := s.WithTx(ctx, func(tx dict.Tx) error {
				return tx.InsertRoot(ctx, newRoot("user"))
			})
			assert.ErrorIs(t, err, dict.ErrDuplicate)

			inTx(t, s, func(tx dict.Tx) error {
				got, err := tx.GetRoot(ctx, user.ID)
				require.NoError(t, err)
				assert.Equal(t, 1, got.UsageCount)

				fields, err := tx.FieldsWithRoots(ctx, []string{"user", "id"})
				require.NoError(t, err)
				require.Len(t, fields, 1)
				assert.Equal(t, []string{"user", "id"}, fields[0].Roots)
				return nil
			})
		})
	}
}
