package api

import (
	"net/http"
	"strconv"

	"github.com/dao-vault/internal/types"
	"github.com/gorilla/mux"
)

type faucetRequest struct {
	Asset   string `json:"asset"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type ledgerApproveRequest struct {
	Asset   string `json:"asset"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type ledgerTransferRequest struct {
	Asset  string `json:"asset"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type rejectingRequest struct {
	Account   string `json:"account"`
	Rejecting bool   `json:"rejecting"`
}

// handleFaucet handles POST /api/ledger/faucet
func (s *Server) handleFaucet(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req faucetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	asset, ok := parseAssetField(w, "asset", req.Asset)
	if !ok {
		return
	}
	account, ok := parseAddressField(w, "account", req.Account)
	if !ok {
		return
	}
	amount, ok := parseAmountField(w, "amount", req.Amount)
	if !ok {
		return
	}

	receipt, err := s.svc.Faucet(r.Context(), caller, asset, account, amount)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleLedgerApprove(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req ledgerApproveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	asset, ok := parseAssetField(w, "asset", req.Asset)
	if !ok {
		return
	}
	spender, ok := parseAddressField(w, "spender", req.Spender)
	if !ok {
		return
	}
	amount, ok := parseAmountField(w, "amount", req.Amount)
	if !ok {
		return
	}

	receipt, err := s.svc.Approve(r.Context(), caller, asset, spender, amount)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleLedgerTransfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req ledgerTransferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	asset, ok := parseAssetField(w, "asset", req.Asset)
	if !ok {
		return
	}
	to, ok := parseAddressField(w, "to", req.To)
	if !ok {
		return
	}
	amount, ok := parseAmountField(w, "amount", req.Amount)
	if !ok {
		return
	}

	receipt, err := s.svc.Transfer(r.Context(), caller, asset, to, amount)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleSetRejecting(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req rejectingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	account, ok := parseAddressField(w, "account", req.Account)
	if !ok {
		return
	}

	receipt, err := s.svc.SetRejecting(r.Context(), caller, account, req.Rejecting)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

// handleLedgerBalance handles GET /api/ledger/balances/{account}?asset=
func (s *Server) handleLedgerBalance(w http.ResponseWriter, r *http.Request) {
	account, ok := pathAddress(w, r, "account")
	if !ok {
		return
	}
	asset, ok := parseAssetField(w, "asset", r.URL.Query().Get("asset"))
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"account": account,
		"asset":   asset,
		"label":   types.AssetLabel(asset),
		"balance": s.svc.BalanceOf(asset, account),
	})
}

func (s *Server) handleLedgerAllowance(w http.ResponseWriter, r *http.Request) {
	owner, ok := pathAddress(w, r, "owner")
	if !ok {
		return
	}
	spender, ok := pathAddress(w, r, "spender")
	if !ok {
		return
	}
	asset, ok := parseAssetField(w, "asset", r.URL.Query().Get("asset"))
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"owner":     owner,
		"spender":   spender,
		"asset":     asset,
		"allowance": s.svc.Allowance(asset, owner, spender),
	})
}

// handleListReceipts handles GET /api/receipts?after=&limit=
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	var after uint64
	if raw := r.URL.Query().Get("after"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid after parameter", nil)
			return
		}
		after = v
	}
	receipts := s.svc.Receipts(after, queryInt(r, "limit", 100))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"receipts": receipts,
		"count":    len(receipts),
	})
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.svc.Receipt(mux.Vars(r)["txId"])
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

// handleContractHistory serves the recent call history mirrored to Redis
func (s *Server) handleContractHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "History mirror is not enabled", nil)
		return
	}
	contract, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	entries, err := s.history.History(r.Context(), contract, int64(queryInt(r, "limit", 20)))
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"contract": contract,
		"history":  entries,
		"count":    len(entries),
	})
}

// handleContractEvents serves events mirrored to Postgres
func (s *Server) handleContractEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "Event mirror is not enabled", nil)
		return
	}
	contract, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	events, err := s.events.ListEvents(r.Context(), contract.Hex(), queryInt(r, "limit", 100))
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"contract": contract,
		"events":   events,
		"count":    len(events),
	})
}
