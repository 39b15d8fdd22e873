package amendment_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Veraticus/amendment-desk/internal/amendment"
	"github.com/Veraticus/amendment-desk/internal/catalog"
	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/service"
	"github.com/Veraticus/amendment-desk/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	err       error
	published []model.ContractAmendment
}

func (p *recordingPublisher) PublishSubmitted(_ context.Context, _ string, a model.ContractAmendment) error {
	p.published = append(p.published, a)
	return p.err
}

func newStore(t *testing.T) (*storage.SQLiteStorage, *model.Contract) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "amend.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	contract, err := store.CreateContract(context.Background(), service.NewContract{
		KeyTerms: model.KeyTerms{
			PropertyAddress: "88 Harbor Road",
			PurchasePrice:   decimal.NewFromInt(500000),
		},
		Content:       "PURCHASE AGREEMENT",
		CreatedByName: "Dana Agent",
	})
	require.NoError(t, err)
	return store, contract
}

func priceReduction() model.CompletedAddendum {
	return model.CompletedAddendum{
		AddendumType:     model.AddendumPriceReduction,
		GeneratedContent: "PRICE REDUCTION ADDENDUM\n\nNew Purchase Price: $480,000.00",
		Details: map[string]model.FieldValue{
			"new_purchase_price": model.CurrencyValue(decimal.NewFromInt(480000), "$480,000"),
		},
	}
}

func TestSubmitter_CreatesPendingAmendment(t *testing.T) {
	store, contract := newStore(t)
	pub := &recordingPublisher{}
	var created []model.ContractAmendment

	sub := amendment.NewSubmitter(store, catalog.Default(), contract.ID,
		amendment.WithPublisher(pub),
		amendment.OnCreated(func(a model.ContractAmendment) { created = append(created, a) }),
	)

	require.NoError(t, sub.Submit(context.Background(), priceReduction()))

	list, err := store.ListAmendments(context.Background(), contract.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.AmendmentPendingReview, list[0].Status)
	assert.Equal(t, amendment.Title(catalog.Default().MustGetInfo(model.AddendumPriceReduction)), list[0].Title)
	assert.Contains(t, list[0].Content, "$480,000.00")

	require.Len(t, pub.published, 1)
	assert.Equal(t, list[0].ID, pub.published[0].ID)
	require.Len(t, created, 1)
	assert.Equal(t, list[0].ID, created[0].ID)
}

func TestSubmitter_PublishFailureDoesNotFailSubmission(t *testing.T) {
	store, contract := newStore(t)
	pub := &recordingPublisher{err: errors.New("broker unavailable")}

	sub := amendment.NewSubmitter(store, catalog.Default(), contract.ID, amendment.WithPublisher(pub))
	require.NoError(t, sub.Submit(context.Background(), priceReduction()))

	list, err := store.ListAmendments(context.Background(), contract.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSubmitter_Errors(t *testing.T) {
	store, contract := newStore(t)

	t.Run("unknown contract", func(t *testing.T) {
		sub := amendment.NewSubmitter(store, catalog.Default(), "missing")
		err := sub.Submit(context.Background(), priceReduction())
		assert.ErrorIs(t, err, common.ErrSubmissionFailed)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("unknown type", func(t *testing.T) {
		sub := amendment.NewSubmitter(store, catalog.Default(), contract.ID)
		err := sub.Submit(context.Background(), model.CompletedAddendum{AddendumType: "zoning_variance", GeneratedContent: "x"})
		assert.ErrorIs(t, err, common.ErrSubmissionFailed)
	})
}
