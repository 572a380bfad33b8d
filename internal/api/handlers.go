package api

import (
	"net/http"
	"strconv"

	"github.com/dao-vault/internal/chain"
	"github.com/dao-vault/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
)

// TxResponse is returned by every mutating endpoint.
type TxResponse struct {
	Receipt    *chain.Receipt  `json:"receipt"`
	Address    *common.Address `json:"address,omitempty"`
	ProposalID *uint64         `json:"proposalId,omitempty"`
}

// respondTx writes the outcome of one submitted call. Reverted calls map to
// their error category and still report the transaction id.
func respondTx(w http.ResponseWriter, r *http.Request, status int, receipt *chain.Receipt, err error, resp TxResponse) {
	if err != nil {
		respondServiceError(w, r, err, receipt)
		return
	}
	resp.Receipt = receipt
	respondJSON(w, status, resp)
}

// requireCaller fails the request when no caller header was supplied
func requireCaller(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	caller, ok := callerFrom(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeCallerRequired, HeaderCaller+" header is required", nil)
		return common.Address{}, false
	}
	return caller, true
}

// decodeBody parses the JSON body or writes a 400
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := parseJSONBody(r, v); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}
	return true
}

func pathAddress(w http.ResponseWriter, r *http.Request, name string) (common.Address, bool) {
	return parseAddressField(w, name, mux.Vars(r)[name])
}

func pathAsset(w http.ResponseWriter, r *http.Request, name string) (common.Address, bool) {
	return parseAssetField(w, name, mux.Vars(r)[name])
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid id", map[string]interface{}{
			"field": name,
			"value": raw,
		})
		return 0, false
	}
	return id, true
}

func parseAddressField(w http.ResponseWriter, field, raw string) (common.Address, bool) {
	addr, err := types.ParseAddress(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidAddress, err.Error(), map[string]interface{}{
			"field": field,
		})
		return common.Address{}, false
	}
	return addr, true
}

func parseAssetField(w http.ResponseWriter, field, raw string) (common.Address, bool) {
	asset, err := types.ParseAsset(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidAddress, err.Error(), map[string]interface{}{
			"field": field,
		})
		return common.Address{}, false
	}
	return asset, true
}

func parseAmountField(w http.ResponseWriter, field, raw string) (*uint256.Int, bool) {
	amount, err := types.ParseAmount(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidAmount, err.Error(), map[string]interface{}{
			"field": field,
		})
		return nil, false
	}
	return amount, true
}

// queryInt reads a non-negative integer query parameter, falling back to def
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
