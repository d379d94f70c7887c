package admin

import (
	"context"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"weddingplanner/api"
	"weddingplanner/models"
	"weddingplanner/payload"
	"weddingplanner/utils"
)

const tokenLength = 42

type TokenStore interface {
	List(ctx context.Context) ([]models.Token, error)
	Insert(ctx context.Context, t *models.Token) error
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// IssuedToken is returned once on creation. Only the digest is kept.
type IssuedToken struct {
	models.Token
	Secret string `json:"id"`
}

func (h *Handler) listTokens(w http.ResponseWriter, r *api.Request) error {
	tokens, err := h.Tokens.List(r.Context())
	if err != nil {
		return err
	}
	return api.OK(w, tokens)
}

type tokenRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=512"`
}

func (h *Handler) createToken(w http.ResponseWriter, r *api.Request) error {
	var body tokenRequest
	if err := payload.Bind(r.Body, &body); err != nil {
		return err
	}
	secret := utils.GenerateSecret(tokenLength)
	tok := &models.Token{
		Hash:        utils.TokenDigest(secret),
		Name:        body.Name,
		Description: body.Description,
		Created:     time.Now(),
	}
	r.Log.Info().Str("token", tok.Name).Msg("creating authentication token")
	if err := h.Tokens.Insert(r.Context(), tok); err != nil {
		return err
	}
	return api.OK(w, IssuedToken{Token: *tok, Secret: secret})
}

func (h *Handler) removeToken(w http.ResponseWriter, r *api.Request) error {
	id, err := primitive.ObjectIDFromHex(r.Params.ByName("tokenId"))
	if err != nil {
		return payload.Invalid("tokenId", "")
	}
	found, err := h.Tokens.Delete(r.Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return payload.Invalid("tokenId", "")
	}
	r.Log.Info().Str("token", id.Hex()).Msg("removed authentication token")
	return api.NoContent(w)
}
