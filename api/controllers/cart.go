package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CartSessions resolves the cart store for a signed-in user.
type CartSessions interface {
	Acquire(ctx context.Context, identity cart.Identity) (*cart.Store, error)
	Release(ctx context.Context, userID string) error
}

type cartResponse struct {
	Items      []cart.LineItem `json:"items"`
	TotalItems int             `json:"total_items"`
	Total      float64         `json:"total"`
	Loaded     bool            `json:"loaded"`
}

func toCartResponse(store *cart.Store) cartResponse {
	return cartResponse{
		Items:      store.Items(),
		TotalItems: store.TotalItems(),
		Total:      store.Total(),
		Loaded:     store.Loaded(),
	}
}

type addCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  *int   `json:"quantity,omitempty" validate:"omitempty,max=999"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"max=999"`
}

func storeForRequest(r *http.Request, sessions CartSessions) (*cart.Store, error) {
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart sessions unavailable")
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	store, err := sessions.Acquire(r.Context(), cart.Identity{
		ID:          identity.UserID,
		DisplayName: identity.DisplayName,
		Email:       identity.Email,
		AvatarURL:   identity.AvatarURL,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open cart")
	}
	return store, nil
}

// GetCart returns the caller's cart with its derived totals.
func GetCart(sessions CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(store))
	}
}

// AddCartItem prices a catalog product for the cart and adds it. A missing
// quantity means one; quantities below one are ignored by the store and
// quantities above 999 are rejected.
func AddCartItem(sessions CartSessions, products catalog.Service, normalizer *pricing.Normalizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if products == nil || normalizer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		store, err := storeForRequest(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := products.GetProduct(r.Context(), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !product.InStock() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product is out of stock").
				WithDetails(map[string]any{"product_id": product.ID}))
			return
		}

		quantity := 1
		if payload.Quantity != nil {
			quantity = *payload.Quantity
		}
		store.Add(cart.LineItem{
			ID:       product.ID,
			Name:     product.Name,
			Price:    normalizer.ForCart(product.PricingInput()),
			ImageURL: product.ImageURL,
			Quantity: quantity,
		})
		responses.WriteSuccess(w, toCartResponse(store))
	}
}

// UpdateCartItem sets an item's quantity; quantities below one leave the cart unchanged.
func UpdateCartItem(sessions CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.UpdateQuantity(chi.URLParam(r, "itemId"), payload.Quantity)
		responses.WriteSuccess(w, toCartResponse(store))
	}
}

func RemoveCartItem(sessions CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.Remove(chi.URLParam(r, "itemId"))
		responses.WriteSuccess(w, toCartResponse(store))
	}
}

func ClearCart(sessions CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.Clear()
		responses.WriteSuccess(w, toCartResponse(store))
	}
}

// Logout drops the caller's cart session after flushing pending saves.
func Logout(sessions CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart sessions unavailable"))
			return
		}
		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		if err := sessions.Release(r.Context(), userID); err != nil && logg != nil {
			logg.Error(r.Context(), "cart.release_failed", err)
		}
		responses.WriteSuccess(w, map[string]any{"signed_out": true})
	}
}
