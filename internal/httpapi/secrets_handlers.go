package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"

	"leasingedge-engine/internal/config"
	"leasingedge-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setLLMKeyReq struct {
	APIKey string `json:"api_key"`
}

// SetLLMKey stores the model API key in the OS keychain. The running client
// keeps its key until the engine restarts.
func (h SecretsHandler) SetLLMKey(w http.ResponseWriter, r *http.Request) {
	var req setLLMKeyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if strings.TrimSpace(req.APIKey) == "" {
		WriteError(w, r, http.StatusBadRequest, "invalid_request", "api_key is required")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	if err := secrets.SetLLMAPIKey(cfg.LLM.KeyringAccount, strings.TrimSpace(req.APIKey)); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring_failed", "failed to store key: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
