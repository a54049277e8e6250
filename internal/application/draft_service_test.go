package application

import (
	"context"
	"testing"

	"thunder-text-core/internal/domain"
	"thunder-text-core/internal/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type draftFixture struct {
	shop     *domain.Shop
	shops    *fakeShopRepo
	drafts   *fakeDraftRepo
	conns    *fakeConnRepo
	platform *fakePlatform
	svc      *DraftService
}

func newDraftFixture(t *testing.T, platform *fakePlatform) *draftFixture {
	t.Helper()
	shop := &domain.Shop{Domain: "alpha.myshopify.com", Active: true}
	shops := newFakeShopRepo(shop)
	conns := newFakeConnRepo()
	storeConnection(t, conns, shop.ID, platform.name, domain.Connection{
		EncryptedAccessToken: "enc:platform-token",
		AdAccountID:          "act_1",
	})
	registry := newFakeRegistry(platform)
	tokens := newTokenFixture(t, shops, conns, registry, nil)
	drafts := newFakeDraftRepo()
	svc := NewDraftService(shops, drafts, tokens, registry, zerolog.Nop())
	return &draftFixture{shop: shop, shops: shops, drafts: drafts, conns: conns, platform: platform, svc: svc}
}

func validDraftInput() CreateDraftInput {
	return CreateDraftInput{
		ShopDomain:  "alpha.myshopify.com",
		Provider:    domain.ProviderFacebook,
		Title:       "Summer Sale",
		PrimaryText: "Everything 20% off",
		AdAccountID: "act_1",
		CampaignID:  "camp_1",
		LandingURL:  "https://alpha.myshopify.com/collections/sale",
	}
}

func TestCreateDraftValidationNamesFields(t *testing.T) {
	f := newDraftFixture(t, &fakePlatform{name: domain.ProviderFacebook})

	_, err := f.svc.CreateDraft(context.Background(), CreateDraftInput{Provider: domain.ProviderShopify})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"shop", "title", "ad_account_id", "provider"}, verr.Fields)
}

func TestCreateDraftStartsInDraftState(t *testing.T) {
	f := newDraftFixture(t, &fakePlatform{name: domain.ProviderFacebook})

	draft, err := f.svc.CreateDraft(context.Background(), validDraftInput())

	require.NoError(t, err)
	assert.Equal(t, domain.DraftStatusDraft, draft.Status)
	assert.Equal(t, f.shop.ID, draft.ShopID)
	assert.Equal(t, "https://alpha.myshopify.com/collections/sale", draft.Metadata["landing_url"])
	assert.Empty(t, draft.RemoteAdID)
}

func TestSubmitHappyPath(t *testing.T) {
	var submittedSpec ports.AdDraftSpec
	platform := &fakePlatform{
		name: domain.ProviderFacebook,
		createDraftFn: func(ctx context.Context, accessToken string, spec ports.AdDraftSpec) (string, error) {
			assert.Equal(t, "platform-token", accessToken)
			return "creative-9", nil
		},
		submitDraftFn: func(ctx context.Context, accessToken string, spec ports.AdDraftSpec, remoteDraftID string) (*ports.SubmitResult, error) {
			submittedSpec = spec
			assert.Equal(t, "creative-9", remoteDraftID)
			return &ports.SubmitResult{RemoteAdID: "ad-42", Status: "PAUSED"}, nil
		},
	}
	f := newDraftFixture(t, platform)
	draft, err := f.svc.CreateDraft(context.Background(), validDraftInput())
	require.NoError(t, err)

	submitted, err := f.svc.Submit(context.Background(), draft.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.DraftStatusSubmitted, submitted.Status)
	assert.Equal(t, "creative-9", submitted.RemoteDraftID)
	assert.Equal(t, "ad-42", submitted.RemoteAdID)
	assert.Equal(t, "camp_1", submittedSpec.CampaignID)
	assert.Equal(t, "https://alpha.myshopify.com/collections/sale", submittedSpec.LandingURL)
}

func TestSubmitFailureRecordsError(t *testing.T) {
	platform := &fakePlatform{
		name: domain.ProviderFacebook,
		submitDraftFn: func(ctx context.Context, accessToken string, spec ports.AdDraftSpec, remoteDraftID string) (*ports.SubmitResult, error) {
			return nil, &domain.ProviderError{Provider: "facebook", Status: 400, Message: "invalid creative"}
		},
	}
	f := newDraftFixture(t, platform)
	draft, err := f.svc.CreateDraft(context.Background(), validDraftInput())
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), draft.ID)
	require.Error(t, err)

	stored, gerr := f.drafts.Get(context.Background(), draft.ID)
	require.NoError(t, gerr)
	assert.Equal(t, domain.DraftStatusSubmitFailed, stored.Status)
	assert.Contains(t, stored.SubmitError, "invalid creative")
	assert.Empty(t, stored.RemoteAdID, "submitted is never recorded without a remote success")
}

func TestSubmitCreateFailureNeverReachesSubmit(t *testing.T) {
	platform := &fakePlatform{
		name: domain.ProviderFacebook,
		createDraftFn: func(ctx context.Context, accessToken string, spec ports.AdDraftSpec) (string, error) {
			return "", &domain.ProviderError{Provider: "facebook", Status: 500, Message: "creative upload failed"}
		},
		submitDraftFn: func(ctx context.Context, accessToken string, spec ports.AdDraftSpec, remoteDraftID string) (*ports.SubmitResult, error) {
			t.Fatal("submit must not run after a failed create")
			return nil, nil
		},
	}
	f := newDraftFixture(t, platform)
	draft, err := f.svc.CreateDraft(context.Background(), validDraftInput())
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), draft.ID)
	require.Error(t, err)

	stored, gerr := f.drafts.Get(context.Background(), draft.ID)
	require.NoError(t, gerr)
	assert.Equal(t, domain.DraftStatusSubmitFailed, stored.Status)
}

func TestSubmitFailedDraftCanBeRetried(t *testing.T) {
	calls := 0
	platform := &fakePlatform{
		name: domain.ProviderFacebook,
		submitDraftFn: func(ctx context.Context, accessToken string, spec ports.AdDraftSpec, remoteDraftID string) (*ports.SubmitResult, error) {
			calls++
			if calls == 1 {
				return nil, &domain.ProviderError{Provider: "facebook", Status: 500, Message: "transient"}
			}
			return &ports.SubmitResult{RemoteAdID: "ad-42", Status: "PAUSED"}, nil
		},
	}
	f := newDraftFixture(t, platform)
	draft, err := f.svc.CreateDraft(context.Background(), validDraftInput())
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), draft.ID)
	require.Error(t, err)

	retried, err := f.svc.Submit(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DraftStatusSubmitted, retried.Status)
}

func TestSubmitTerminalDraftRejected(t *testing.T) {
	f := newDraftFixture(t, &fakePlatform{name: domain.ProviderFacebook})
	draft, err := f.svc.CreateDraft(context.Background(), validDraftInput())
	require.NoError(t, err)
	_, err = f.svc.Submit(context.Background(), draft.ID)
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), draft.ID)

	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSubmitWithoutConnectionReturnsNotConnected(t *testing.T) {
	f := newDraftFixture(t, &fakePlatform{name: domain.ProviderFacebook})
	require.NoError(t, f.conns.Deactivate(context.Background(), f.shop.ID, domain.ProviderFacebook))
	draft, err := f.svc.CreateDraft(context.Background(), validDraftInput())
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), draft.ID)

	assert.ErrorIs(t, err, domain.ErrNotConnected)

	stored, gerr := f.drafts.Get(context.Background(), draft.ID)
	require.NoError(t, gerr)
	assert.Equal(t, domain.DraftStatusDraft, stored.Status, "resolution failures leave the draft untouched")
}

func TestAbandon(t *testing.T) {
	f := newDraftFixture(t, &fakePlatform{name: domain.ProviderFacebook})
	draft, err := f.svc.CreateDraft(context.Background(), validDraftInput())
	require.NoError(t, err)

	abandoned, err := f.svc.Abandon(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DraftStatusAbandoned, abandoned.Status)

	_, err = f.svc.Submit(context.Background(), draft.ID)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestAbandonSubmittedDraftRejected(t *testing.T) {
	f := newDraftFixture(t, &fakePlatform{name: domain.ProviderFacebook})
	draft, err := f.svc.CreateDraft(context.Background(), validDraftInput())
	require.NoError(t, err)
	_, err = f.svc.Submit(context.Background(), draft.ID)
	require.NoError(t, err)

	_, err = f.svc.Abandon(context.Background(), draft.ID)

	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestGetUnknownDraftReturnsNotFound(t *testing.T) {
	f := newDraftFixture(t, &fakePlatform{name: domain.ProviderFacebook})

	_, err := f.svc.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
