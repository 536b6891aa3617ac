package dict_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datadict/datadict/internal/dict"
)

func TestCreateModel(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	model, err := svc.CreateModel(ctx, dict.ModelInput{Name: "Daily Orders", Description: "orders per day"})
	require.NoError(t, err)
	assert.Equal(t, "daily_orders", model.Canonical)
	assert.Equal(t, dict.StatusActive, model.Status)

	_, err = svc.CreateModel(ctx, dict.ModelInput{Name: "daily_orders"})
	de := requireKind(t, err, dict.ModelNameConflict)
	assert.Equal(t, model.ID, de.ConflictID)
	assert.Equal(t, []string{"daily_orders_1"}, de.Alternatives)

	_, err = svc.CreateModel(ctx, dict.ModelInput{Name: "  "})
	requireKind(t, err, dict.ValidationError)

	// models live in their own namespace
	mustRoot(t, svc, "orders")
	mustModel(t, svc, "orders")
}

func TestUpdateModel(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	orders := mustModel(t, svc, "orders")
	mustModel(t, svc, "invoices")

	name := "Order Facts"
	desc := "fact table"
	model, err := svc.UpdateModel(ctx, orders.ID, dict.ModelUpdate{Name: &name, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "order_facts", model.Canonical)
	assert.Equal(t, "fact table", model.Description)

	taken := "invoices"
	_, err = svc.UpdateModel(ctx, orders.ID, dict.ModelUpdate{Name: &taken})
	requireKind(t, err, dict.ModelNameConflict)

	// renaming to its own canonical name is allowed
	same := "ORDER FACTS"
	model, err = svc.UpdateModel(ctx, orders.ID, dict.ModelUpdate{Name: &same})
	require.NoError(t, err)
	assert.Equal(t, "order_facts", model.Canonical)

	_, err = svc.UpdateModel(ctx, 404, dict.ModelUpdate{})
	requireKind(t, err, dict.ModelNotFound)

	model, err = svc.SetModelStatus(ctx, orders.ID, dict.StatusDeprecated)
	require.NoError(t, err)
	assert.Equal(t, dict.StatusDeprecated, model.Status)

	models, page, err := svc.ListModels(ctx, dict.ListParams{Status: dict.StatusActive})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "invoices", models[0].Name)
}

func TestBindField(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	for _, r := range []string{"user", "order", "id"} {
		mustRoot(t, svc, r)
	}
	userID := mustField(t, svc, "user", "id")
	orderID := mustField(t, svc, "order", "id")
	orders := mustModel(t, svc, "orders")

	def := "0"
	binding, err := svc.BindField(ctx, orders.ID, dict.BindingInput{FieldID: userID.ID, Position: 2, Required: true, Default: &def})
	require.NoError(t, err)
	assert.NotZero(t, binding.ID)
	assert.Equal(t, fixedNow, binding.CreatedAt)

	_, err = svc.BindField(ctx, orders.ID, dict.BindingInput{FieldID: userID.ID, Position: 5})
	de := requireKind(t, err, dict.FieldAlreadyBound)
	assert.Equal(t, userID.ID, de.ConflictID)

	_, err = svc.BindField(ctx, orders.ID, dict.BindingInput{FieldID: orderID.ID, Position: 1})
	require.NoError(t, err)

	detail, err := svc.ModelDetail(ctx, orders.ID)
	require.NoError(t, err)
	require.Len(t, detail.Fields, 2)
	assert.Equal(t, "order_id", detail.Fields[0].FieldName)
	assert.Equal(t, "user_id", detail.Fields[1].FieldName)
	assert.True(t, detail.Fields[1].Required)
	require.NotNil(t, detail.Fields[1].Default)
	assert.Equal(t, "0", *detail.Fields[1].Default)

	lineage, err := svc.ModelLineage(ctx, orders.ID)
	require.NoError(t, err)
	assert.Len(t, lineage, 2)

	lineage, err = svc.FieldLineage(ctx, userID.ID)
	require.NoError(t, err)
	require.Len(t, lineage, 1)
	assert.Equal(t, orders.ID, lineage[0].ModelID)
}

func TestBindField_Rejections(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	mustRoot(t, svc, "user")
	mustRoot(t, svc, "id")
	field := mustField(t, svc, "user", "id")
	orders := mustModel(t, svc, "orders")

	_, err := svc.BindField(ctx, orders.ID, dict.BindingInput{FieldID: 404})
	requireKind(t, err, dict.FieldNotFound)

	_, err = svc.BindField(ctx, 404, dict.BindingInput{FieldID: field.ID})
	requireKind(t, err, dict.ModelNotFound)

	_, err = svc.BindField(ctx, orders.ID, dict.BindingInput{FieldID: field.ID, Position: -1})
	requireKind(t, err, dict.ValidationError)

	lineage, err := svc.FieldLineage(ctx, field.ID)
	require.NoError(t, err)
	assert.Empty(t, lineage)

	_, err = svc.FieldLineage(ctx, 404)
	requireKind(t, err, dict.FieldNotFound)
}

func TestUnbindField(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	mustRoot(t, svc, "user")
	mustRoot(t, svc, "id")
	field := mustField(t, svc, "user", "id")
	orders := mustModel(t, svc, "orders")

	_, err := svc.BindField(ctx, orders.ID, dict.BindingInput{FieldID: field.ID})
	require.NoError(t, err)
	require.NoError(t, svc.UnbindField(ctx, orders.ID, field.ID))

	detail, err := svc.ModelDetail(ctx, orders.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Fields)

	lineage, err := svc.ModelLineage(ctx, orders.ID)
	require.NoError(t, err)
	assert.Empty(t, lineage)

	err = svc.UnbindField(ctx, orders.ID, field.ID)
	de := requireKind(t, err, dict.FieldNotBound)
	assert.Equal(t, field.ID, de.ConflictID)

	requireKind(t, svc.UnbindField(ctx, 404, field.ID), dict.ModelNotFound)

	// binding again after unbinding is allowed
	_, err = svc.BindField(ctx, orders.ID, dict.BindingInput{FieldID: field.ID})
	require.NoError(t, err)
}

func TestDeleteModel_RemovesBindingsAndLineage(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	user := mustRoot(t, svc, "user")
	mustRoot(t, svc, "id")
	field := mustField(t, svc, "user", "id")
	orders := mustModel(t, svc, "orders")

	_, err := svc.BindField(ctx, orders.ID, dict.BindingInput{FieldID: field.ID})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteModel(ctx, orders.ID))
	_, err = svc.GetModel(ctx, orders.ID)
	requireKind(t, err, dict.ModelNotFound)

	lineage, err := svc.FieldLineage(ctx, field.ID)
	require.NoError(t, err)
	assert.Empty(t, lineage)

	impact, err := svc.RootImpact(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, impact.Models)

	require.NoError(t, svc.DeleteField(ctx, field.ID))
	require.NoError(t, svc.DeleteRoot(ctx, user.ID))

	// the model name is free again
	mustModel(t, svc, "orders")
}
