package dict_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datadict/datadict/internal/dict"
)

func TestCreateRoot(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	root, err := svc.CreateRoot(ctx, dict.RootInput{Name: "Amount  ", Remark: "money", Tags: []string{"finance", "finance"}})
	require.NoError(t, err)
	assert.Equal(t, "amount", root.Canonical)
	assert.Equal(t, "Amount  ", root.Name)
	assert.Zero(t, root.UsageCount)
	assert.Empty(t, root.Aliases)
	assert.Equal(t, []string{"finance"}, root.Tags)
	assert.Equal(t, dict.StatusActive, root.Status)
	assert.Equal(t, fixedNow, root.CreatedAt)

	_, err = svc.CreateRoot(ctx, dict.RootInput{Name: "amount"})
	de := requireKind(t, err, dict.RootNameConflict)
	assert.Equal(t, root.ID, de.ConflictID)
	assert.Equal(t, []string{"amount_1"}, de.Alternatives)
	assert.Contains(t, de.Message, "suggested: amount_1")
	assert.Contains(t, de.Details, "suggested: amount_1")
}

func TestCreateRoot_Invalid(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	for _, name := range []string{"", "   ", "___", "9lives", "日本"} {
		_, err := svc.CreateRoot(ctx, dict.RootInput{Name: name})
		requireKind(t, err, dict.ValidationError)
	}

	long := make([]byte, 65)
	for i := range long {
		long[i] = 'a'
	}
	_, err := svc.CreateRoot(ctx, dict.RootInput{Name: string(long)})
	requireKind(t, err, dict.ValidationError)
}

func TestCreateRoot_CollidesWithFieldName(t *testing.T) {
	svc, _ := setupService(t)
	mustRoot(t, svc, "user")
	mustRoot(t, svc, "id")
	field := mustField(t, svc, "user", "id")

	_, err := svc.CreateRoot(context.Background(), dict.RootInput{Name: "User ID"})
	de := requireKind(t, err, dict.RootNameConflict)
	assert.Equal(t, field.ID, de.ConflictID)
	assert.Contains(t, de.Message, "field name conflict")
}

func TestAddAlias(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	user := mustRoot(t, svc, "user")
	amount := mustRoot(t, svc, "amount")

	root, err := svc.AddAlias(ctx, user.ID, "USR")
	require.NoError(t, err)
	assert.Equal(t, []string{"usr"}, root.Aliases)

	// adding it again is a no-op
	root, err = svc.AddAlias(ctx, user.ID, "usr")
	require.NoError(t, err)
	assert.Equal(t, []string{"usr"}, root.Aliases)

	_, err = svc.CreateRoot(ctx, dict.RootInput{Name: "usr"})
	de := requireKind(t, err, dict.RootNameConflict)
	assert.Equal(t, user.ID, de.ConflictID)
	assert.Contains(t, de.Message, "alias usr")

	_, err = svc.AddAlias(ctx, amount.ID, "user")
	de = requireKind(t, err, dict.RootNameConflict)
	assert.Equal(t, user.ID, de.ConflictID)

	_, err = svc.AddAlias(ctx, amount.ID, "usr")
	requireKind(t, err, dict.RootNameConflict)

	_, err = svc.AddAlias(ctx, amount.ID, "  ")
	requireKind(t, err, dict.ValidationError)

	_, err = svc.AddAlias(ctx, 404, "x")
	requireKind(t, err, dict.RootNotFound)

	got, err := svc.GetRoot(ctx, amount.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Aliases)
}

func TestDeleteRoot_InUse(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	user := mustRoot(t, svc, "user")
	mustRoot(t, svc, "id")
	mustRoot(t, svc, "name")
	userID := mustField(t, svc, "user", "id")
	mustField(t, svc, "user", "name")
	orders := mustModel(t, svc, "orders")
	_, err := svc.BindField(ctx, orders.ID, dict.BindingInput{FieldID: userID.ID})
	require.NoError(t, err)

	err = svc.DeleteRoot(ctx, user.ID)
	de := requireKind(t, err, dict.RootInUse)
	assert.Equal(t, user.ID, de.ConflictID)
	assert.Contains(t, de.Details, "affected fields: 2")
	assert.Contains(t, de.Details, "affected models: 1")
	require.NotNil(t, de.Impact)
	assert.Len(t, de.Impact.Fields, 2)
	assert.Equal(t, []dict.EntityRef{{ID: orders.ID, Name: "orders"}}, de.Impact.Models)

	got, err := svc.GetRoot(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsageCount)

	impact, err := svc.RootImpact(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, impact.Fields, 2)
	assert.Len(t, impact.Models, 1)
}

func TestDeleteRoot_ReleasesNames(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	user := mustRoot(t, svc, "user")
	_, err := svc.AddAlias(ctx, user.ID, "usr")
	require.NoError(t, err)

	impact, err := svc.RootImpact(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, impact.Empty())

	require.NoError(t, svc.DeleteRoot(ctx, user.ID))
	_, err = svc.GetRoot(ctx, user.ID)
	requireKind(t, err, dict.RootNotFound)

	requireKind(t, svc.DeleteRoot(ctx, user.ID), dict.RootNotFound)

	mustRoot(t, svc, "user")
	mustRoot(t, svc, "usr")
}

func TestUpdateRoot(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	amount := mustRoot(t, svc, "amount")
	mustRoot(t, svc, "fee")

	name := "Amt"
	remark := "short form"
	root, err := svc.UpdateRoot(ctx, amount.ID, dict.RootUpdate{Name: &name, Remark: &remark, Tags: []string{"money"}})
	require.NoError(t, err)
	assert.Equal(t, "amt", root.Canonical)
	assert.Equal(t, "short form", root.Remark)
	assert.Equal(t, []string{"money"}, root.Tags)

	// the old name is free and the new one is taken
	mustRoot(t, svc, "amount")
	_, err = svc.CreateRoot(ctx, dict.RootInput{Name: "amt"})
	requireKind(t, err, dict.RootNameConflict)

	taken := "fee"
	_, err = svc.UpdateRoot(ctx, amount.ID, dict.RootUpdate{Name: &taken})
	requireKind(t, err, dict.RootNameConflict)

	bad := "1st"
	_, err = svc.UpdateRoot(ctx, amount.ID, dict.RootUpdate{Name: &bad})
	requireKind(t, err, dict.ValidationError)

	_, err = svc.UpdateRoot(ctx, 404, dict.RootUpdate{Remark: &remark})
	requireKind(t, err, dict.RootNotFound)
}

func TestUpdateRoot_RenameInUse(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	user := mustRoot(t, svc, "user")
	mustRoot(t, svc, "id")
	mustField(t, svc, "user", "id")

	name := "member"
	_, err := svc.UpdateRoot(ctx, user.ID, dict.RootUpdate{Name: &name})
	de := requireKind(t, err, dict.RootInUse)
	assert.Len(t, de.Impact.Fields, 1)

	// a display-only rename keeps the canonical name
	display := "User"
	root, err := svc.UpdateRoot(ctx, user.ID, dict.RootUpdate{Name: &display})
	require.NoError(t, err)
	assert.Equal(t, "user", root.Canonical)
	assert.Equal(t, "User", root.Name)
	assert.Equal(t, 1, root.UsageCount)
}

func TestSetRootStatus(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	user := mustRoot(t, svc, "user")
	mustRoot(t, svc, "id")

	root, err := svc.SetRootStatus(ctx, user.ID, dict.StatusDeprecated)
	require.NoError(t, err)
	assert.Equal(t, dict.StatusDeprecated, root.Status)

	_, err = svc.CreateField(ctx, dict.FieldInput{Name: "user_id", Roots: []string{"user", "id"}})
	de := requireKind(t, err, dict.MissingRoots)
	assert.Equal(t, []string{"user"}, de.Missing)

	_, err = svc.SetRootStatus(ctx, user.ID, "retired")
	requireKind(t, err, dict.ValidationError)

	_, err = svc.SetRootStatus(ctx, user.ID, dict.StatusActive)
	require.NoError(t, err)
	mustField(t, svc, "user", "id")
}

func TestListRoots(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	for _, name := range []string{"user", "user_type", "amount", "order", "id"} {
		mustRoot(t, svc, name)
	}

	roots, page, err := svc.ListRoots(ctx, dict.ListParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "amount", roots[0].Canonical)
	assert.Equal(t, dict.Page{Page: 2, PageSize: 2, Total: 5, TotalPages: 3, HasNext: true, HasPrev: true}, page)

	roots, page, err = svc.ListRoots(ctx, dict.ListParams{Search: "user"})
	require.NoError(t, err)
	assert.Len(t, roots, 2)
	assert.Equal(t, dict.DefaultPageSize, page.PageSize)
	assert.False(t, page.HasNext)

	_, _, err = svc.ListRoots(ctx, dict.ListParams{Status: "gone"})
	requireKind(t, err, dict.ValidationError)
}

func TestCheckRootName(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	amount := mustRoot(t, svc, "amount")

	check, err := svc.CheckRootName(ctx, "AMOUNT")
	require.NoError(t, err)
	assert.False(t, check.Unique)
	assert.Equal(t, "amount", check.Canonical)
	assert.Equal(t, amount.ID, check.ConflictID)
	assert.Equal(t, []string{"amount_1"}, check.Alternatives)

	check, err = svc.CheckRootName(ctx, "fee")
	require.NoError(t, err)
	assert.True(t, check.Unique)
	assert.Equal(t, "root name is available", check.Message)

	check, err = svc.CheckRootName(ctx, "")
	require.NoError(t, err)
	assert.False(t, check.Unique)
	assert.Equal(t, "root name must not be empty", check.Message)
}
