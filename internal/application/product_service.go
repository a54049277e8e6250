package application

import (
	"context"

	"thunder-text-core/internal/domain"
	"thunder-text-core/internal/ports"

	"github.com/rs/zerolog"
)

// ProductService performs Shopify product mutations. The primary mutation
// must succeed; metafield, variant and image writes are secondary and each
// failure is recorded as an outcome and skipped, never rolling back the
// product.
type ProductService struct {
	tokens  *TokenService
	shopify ports.ShopifyClient
	logger  zerolog.Logger
}

// NewProductService creates a product service.
func NewProductService(tokens *TokenService, shopify ports.ShopifyClient, logger zerolog.Logger) *ProductService {
	return &ProductService{tokens: tokens, shopify: shopify, logger: logger}
}

// ProductInput is the create/update payload, including secondary writes.
type ProductInput struct {
	ShopDomain   string                `json:"shop"`
	SessionToken string                `json:"session_token,omitempty"`
	Product      ports.ProductSpec     `json:"product"`
	Metafields   []ports.MetafieldSpec `json:"metafields,omitempty"`
	Variants     []ports.VariantSpec   `json:"variants,omitempty"`
	ImageURLs    []string              `json:"uploaded_images,omitempty"`
}

// ProductResult reports the primary product id plus the outcome of every
// secondary write, so callers can see exactly what partially failed.
type ProductResult struct {
	ProductID int64                     `json:"product_id"`
	Outcomes  []domain.OperationOutcome `json:"outcomes"`
}

func (in *ProductInput) validate(requireID bool) error {
	var missing []string
	if in.ShopDomain == "" {
		missing = append(missing, "shop")
	}
	if in.Product.Title == "" && !requireID {
		missing = append(missing, "product.title")
	}
	if requireID && in.Product.ID == 0 {
		missing = append(missing, "product.id")
	}
	if len(missing) > 0 {
		return domain.NewValidationError(missing...)
	}
	return nil
}

// CreateProduct creates the product and then applies secondary writes,
// continuing past individual failures.
func (s *ProductService) CreateProduct(ctx context.Context, input ProductInput) (*ProductResult, error) {
	if err := input.validate(false); err != nil {
		return nil, err
	}
	token, err := s.tokens.Resolve(ctx, input.ShopDomain, domain.ProviderShopify, ResolveOptions{SessionToken: input.SessionToken})
	if err != nil {
		return nil, err
	}

	productID, err := s.shopify.CreateProduct(ctx, input.ShopDomain, token.AccessToken, input.Product)
	if err != nil {
		return nil, err
	}

	result := &ProductResult{ProductID: productID}
	s.applySecondaryWrites(ctx, input, token.AccessToken, productID, result)
	s.logger.Info().
		Str("shop", input.ShopDomain).
		Int64("product_id", productID).
		Int("outcomes", len(result.Outcomes)).
		Msg("Created product")
	return result, nil
}

// UpdateProduct updates the product and then applies secondary writes,
// continuing past individual failures.
func (s *ProductService) UpdateProduct(ctx context.Context, input ProductInput) (*ProductResult, error) {
	if err := input.validate(true); err != nil {
		return nil, err
	}
	token, err := s.tokens.Resolve(ctx, input.ShopDomain, domain.ProviderShopify, ResolveOptions{SessionToken: input.SessionToken})
	if err != nil {
		return nil, err
	}

	if err := s.shopify.UpdateProduct(ctx, input.ShopDomain, token.AccessToken, input.Product); err != nil {
		return nil, err
	}

	result := &ProductResult{ProductID: input.Product.ID}
	s.applySecondaryWrites(ctx, input, token.AccessToken, input.Product.ID, result)
	s.logger.Info().
		Str("shop", input.ShopDomain).
		Int64("product_id", input.Product.ID).
		Int("outcomes", len(result.Outcomes)).
		Msg("Updated product")
	return result, nil
}

func (s *ProductService) applySecondaryWrites(ctx context.Context, input ProductInput, accessToken string, productID int64, result *ProductResult) {
	for _, mf := range input.Metafields {
		outcome := domain.OperationOutcome{
			Operation: "metafield",
			Target:    mf.Namespace + "." + mf.Key,
			OK:        true,
		}
		if err := s.shopify.SetMetafield(ctx, input.ShopDomain, accessToken, productID, mf); err != nil {
			outcome.OK = false
			outcome.Error = err.Error()
			s.logger.Warn().
				Err(err).
				Str("shop", input.ShopDomain).
				Str("metafield", outcome.Target).
				Msg("Metafield write failed, continuing")
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	for _, v := range input.Variants {
		outcome := domain.OperationOutcome{
			Operation: "variant",
			Target:    v.SKU,
			OK:        true,
		}
		if err := s.shopify.UpdateVariant(ctx, input.ShopDomain, accessToken, v); err != nil {
			outcome.OK = false
			outcome.Error = err.Error()
			s.logger.Warn().
				Err(err).
				Str("shop", input.ShopDomain).
				Int64("variant_id", v.ID).
				Msg("Variant write failed, continuing")
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	for _, img := range input.ImageURLs {
		outcome := domain.OperationOutcome{
			Operation: "image",
			Target:    img,
			OK:        true,
		}
		if err := s.shopify.AttachImage(ctx, input.ShopDomain, accessToken, productID, img); err != nil {
			outcome.OK = false
			outcome.Error = err.Error()
			s.logger.Warn().
				Err(err).
				Str("shop", input.ShopDomain).
				Str("image", img).
				Msg("Image upload failed, continuing")
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
}
