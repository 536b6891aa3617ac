package dict_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/datadict/datadict/internal/conflict"
	"github.com/datadict/datadict/internal/dict"
)

// wrappedStore hands fn a decorated transaction
type wrappedStore struct {
	dict.Store
	wrap func(dict.Tx) dict.Tx
}

func (s *wrappedStore) WithTx(ctx context.Context, fn func(tx dict.Tx) error) error {
	return s.Store.WithTx(ctx, func(tx dict.Tx) error {
		return fn(s.wrap(tx))
	})
}

// staleIndexTx sees the name index as it was before any name was written,
// like a writer racing another one that committed first
type staleIndexTx struct {
	dict.Tx
}

func (staleIndexTx) NameIndex(context.Context) ([]conflict.Entry, error) {
	return nil, nil
}

// failingNamesTx fails the model name scan
type failingNamesTx struct {
	dict.Tx
	err error
}

func (t failingNamesTx) ModelNames(context.Context) ([]string, error) {
	return nil, t.err
}

func TestConcurrentWriterDuplicatesBecomeConflicts(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()
	amount := mustRoot(t, svc, "Amount")

	stale := dict.NewService(&wrappedStore{
		Store: store,
		wrap:  func(tx dict.Tx) dict.Tx { return staleIndexTx{Tx: tx} },
	}, dict.WithLogger(zaptest.NewLogger(t)))

	_, err := stale.CreateRoot(ctx, dict.RootInput{Name: "Amount"})
	de := requireKind(t, err, dict.RootNameConflict)
	assert.ErrorIs(t, de, dict.ErrDuplicate)

	_, err = stale.CreateField(ctx, dict.FieldInput{Name: "amount", Roots: []string{"amount"}})
	requireKind(t, err, dict.FieldNameConflict)

	// nothing from the rejected writes survived
	fields, _, err := svc.ListFields(ctx, dict.ListParams{})
	require.NoError(t, err)
	assert.Empty(t, fields)
	assert.Zero(t, usage(t, svc, amount))
}

func TestModelConflictStoreFailure(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()
	mustModel(t, svc, "orders")
	invoices := mustModel(t, svc, "invoices")

	failing := dict.NewService(&wrappedStore{
		Store: store,
		wrap:  func(tx dict.Tx) dict.Tx { return failingNamesTx{Tx: tx, err: context.DeadlineExceeded} },
	}, dict.WithLogger(zaptest.NewLogger(t)))

	_, err := failing.CreateModel(ctx, dict.ModelInput{Name: "orders"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, dict.InternalError, dict.KindOf(err))

	taken := "orders"
	_, err = failing.UpdateModel(ctx, invoices.ID, dict.ModelUpdate{Name: &taken})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// names that do not collide never scan
	_, err = failing.CreateModel(ctx, dict.ModelInput{Name: "payments"})
	require.NoError(t, err)
}

func TestModelConflictSkipsTakenAlternatives(t *testing.T) {
	svc, _ := setupService(t)
	mustModel(t, svc, "orders")
	mustModel(t, svc, "orders_1")

	_, err := svc.CreateModel(context.Background(), dict.ModelInput{Name: "Orders"})
	de := requireKind(t, err, dict.ModelNameConflict)
	assert.Equal(t, []string{"orders_2"}, de.Alternatives)
}

func TestRawNameLength(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	padded := "amount" + strings.Repeat(" ", 300)

	_, err := svc.CreateRoot(ctx, dict.RootInput{Name: padded})
	de := requireKind(t, err, dict.ValidationError)
	assert.Contains(t, de.Message, "exceeds 255 characters")

	_, err = svc.CreateModel(ctx, dict.ModelInput{Name: padded})
	requireKind(t, err, dict.ValidationError)

	root := mustRoot(t, svc, "amount"+strings.Repeat(" ", 200))
	assert.Equal(t, "amount", root.Canonical)

	_, err = svc.AddAlias(ctx, root.ID, "amt"+strings.Repeat("\t", 300))
	requireKind(t, err, dict.ValidationError)

	// a field name must equal its root join, which keeps it short
	_, err = svc.CreateField(ctx, dict.FieldInput{Name: padded, Roots: []string{"amount"}})
	requireKind(t, err, dict.FieldNameInvalid)
}
