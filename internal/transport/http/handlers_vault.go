package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hearth/internal/transport/http/shared"
	"hearth/internal/vault"
	dErrors "hearth/pkg/domain-errors"
)

// VaultService defines the guarded blob operations.
type VaultService interface {
	Read(ctx context.Context, wireToken, collection string) (vault.Blob, error)
	Write(ctx context.Context, wireToken, collection string, blob vault.Blob) error
}

// VaultHandler handles ciphertext blob endpoints. Authorization is carried
// by a consent token in the bearer header, not an owner session, so agents
// holding a grant can reach exactly the collections it covers.
type VaultHandler struct {
	vault  VaultService
	logger *slog.Logger
}

func NewVaultHandler(vaultSvc VaultService, logger *slog.Logger) *VaultHandler {
	return &VaultHandler{vault: vaultSvc, logger: logger}
}

// Register registers the vault routes with the chi router.
func (h *VaultHandler) Register(r chi.Router) {
	r.Get("/vault/{collection}", h.handleGet)
	r.Put("/vault/{collection}", h.handlePut)
}

func bearerToken(r *http.Request) (string, bool) {
	return strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
}

type blobView struct {
	Ciphertext []byte `json:"ciphertext"`
	IV         []byte `json:"iv"`
	AuthTag    []byte `json:"auth_tag"`
	UpdatedAt  int64  `json:"updated_at"`
}

func (h *VaultHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wire, ok := bearerToken(r)
	if !ok || wire == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authorized"))
		return
	}

	blob, err := h.vault.Read(ctx, wire, chi.URLParam(r, "collection"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, blobView{
		Ciphertext: blob.Ciphertext,
		IV:         blob.IV,
		AuthTag:    blob.AuthTag,
		UpdatedAt:  blob.UpdatedAt.UnixMilli(),
	})
}

func (h *VaultHandler) handlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wire, ok := bearerToken(r)
	if !ok || wire == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authorized"))
		return
	}

	var view blobView
	if err := json.NewDecoder(r.Body).Decode(&view); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	blob := vault.Blob{Ciphertext: view.Ciphertext, IV: view.IV, AuthTag: view.AuthTag}
	if err := h.vault.Write(ctx, wire, chi.URLParam(r, "collection"), blob); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
