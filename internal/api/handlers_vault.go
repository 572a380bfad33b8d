package api

import (
	"net/http"

	"github.com/dao-vault/internal/service"
	"github.com/dao-vault/internal/types"
	"github.com/holiman/uint256"
)

type createVaultRequest struct {
	DAO                string `json:"dao"`
	WithdrawalLimit    string `json:"withdrawalLimit,omitempty"`
	RequiredSignatures uint64 `json:"requiredSignatures,omitempty"`
}

type depositRequest struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type withdrawRequest struct {
	Asset     string `json:"asset"`
	Amount    string `json:"amount"`
	Recipient string `json:"recipient"`
}

type spendingProposalRequest struct {
	Asset       string `json:"asset"`
	Amount      string `json:"amount"`
	Recipient   string `json:"recipient"`
	Description string `json:"description"`
}

type signerRequest struct {
	Signer string `json:"signer"`
}

type withdrawalLimitRequest struct {
	Limit string `json:"limit"`
}

type requiredSignaturesRequest struct {
	Required uint64 `json:"required"`
}

type pauseRequest struct {
	Reason string `json:"reason"`
}

// handleCreateVault handles POST /api/vaults. Omitting the limit and the
// signature count deploys a default vault.
func (s *Server) handleCreateVault(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req createVaultRequest
	if !decodeBody(w, r, &req) {
		return
	}
	dao, ok := parseAddressField(w, "dao", req.DAO)
	if !ok {
		return
	}
	var limit *uint256.Int
	if req.WithdrawalLimit != "" {
		if limit, ok = parseAmountField(w, "withdrawalLimit", req.WithdrawalLimit); !ok {
			return
		}
	}

	addr, receipt, err := s.svc.CreateVault(r.Context(), caller, service.CreateVaultInput{
		DAO:                dao,
		WithdrawalLimit:    limit,
		RequiredSignatures: req.RequiredSignatures,
	})
	respondTx(w, r, http.StatusCreated, receipt, err, TxResponse{Address: &addr})
}

func (s *Server) handleListVaults(w http.ResponseWriter, r *http.Request) {
	vaults, err := s.svc.GetAllVaults()
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"vaults": vaults,
		"count":  len(vaults),
	})
}

// handleGetVault handles GET /api/vaults/{vault}
func (s *Server) handleGetVault(w http.ResponseWriter, r *http.Request) {
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}
	view, err := s.svc.GetVault(vault)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetVaultBalance(w http.ResponseWriter, r *http.Request) {
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}
	asset, ok := pathAsset(w, r, "asset")
	if !ok {
		return
	}
	balance, err := s.svc.GetVaultBalance(vault, asset)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, service.AssetBalance{
		Asset:   asset,
		Label:   types.AssetLabel(asset),
		Balance: balance,
	})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}
	var req depositRequest
	if !decodeBody(w, r, &req) {
		return
	}
	asset, ok := parseAssetField(w, "asset", req.Asset)
	if !ok {
		return
	}
	amount, ok := parseAmountField(w, "amount", req.Amount)
	if !ok {
		return
	}

	receipt, err := s.svc.Deposit(r.Context(), caller, vault, asset, amount)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}
	var req withdrawRequest
	if !decodeBody(w, r, &req) {
		return
	}
	asset, ok := parseAssetField(w, "asset", req.Asset)
	if !ok {
		return
	}
	amount, ok := parseAmountField(w, "amount", req.Amount)
	if !ok {
		return
	}
	recipient, ok := parseAddressField(w, "recipient", req.Recipient)
	if !ok {
		return
	}

	receipt, err := s.svc.Withdraw(r.Context(), caller, vault, asset, amount, recipient)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

// handleCreateSpendingProposal handles POST /api/vaults/{vault}/proposals
func (s *Server) handleCreateSpendingProposal(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}
	var req spendingProposalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	asset, ok := parseAssetField(w, "asset", req.Asset)
	if !ok {
		return
	}
	amount, ok := parseAmountField(w, "amount", req.Amount)
	if !ok {
		return
	}
	recipient, ok := parseAddressField(w, "recipient", req.Recipient)
	if !ok {
		return
	}

	id, receipt, err := s.svc.CreateSpendingProposal(r.Context(), caller, vault, service.SpendingProposalInput{
		Asset:       asset,
		Amount:      amount,
		Recipient:   recipient,
		Description: req.Description,
	})
	respondTx(w, r, http.StatusCreated, receipt, err, TxResponse{ProposalID: &id})
}

func (s *Server) handleGetSpendingProposal(w http.ResponseWriter, r *http.Request) {
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	view, err := s.svc.GetSpendingProposal(vault, id)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleApproveSpendingProposal(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	receipt, err := s.svc.ApproveSpendingProposal(r.Context(), caller, vault, id)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleHasApproved(w http.ResponseWriter, r *http.Request) {
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	signer, ok := pathAddress(w, r, "signer")
	if !ok {
		return
	}
	approved, err := s.svc.HasApproved(vault, id, signer)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"hasApproved": approved})
}

func (s *Server) handleExecuteSpendingProposal(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	receipt, err := s.svc.ExecuteSpendingProposal(r.Context(), caller, vault, id)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleGetSigners(w http.ResponseWriter, r *http.Request) {
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}
	signers, err := s.svc.GetSigners(vault)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"signers": signers,
		"count":   len(signers),
	})
}

func (s *Server) handleAddSigner(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}
	var req signerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	signer, ok := parseAddressField(w, "signer", req.Signer)
	if !ok {
		return
	}

	receipt, err := s.svc.AddSigner(r.Context(), caller, vault, signer)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleRemoveSigner(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}
	signer, ok := pathAddress(w, r, "signer")
	if !ok {
		return
	}

	receipt, err := s.svc.RemoveSigner(r.Context(), caller, vault, signer)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleUpdateWithdrawalLimit(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}
	var req withdrawalLimitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	limit, ok := parseAmountField(w, "limit", req.Limit)
	if !ok {
		return
	}

	receipt, err := s.svc.UpdateWithdrawalLimit(r.Context(), caller, vault, limit)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleUpdateRequiredSignatures(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}
	var req requiredSignaturesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	receipt, err := s.svc.UpdateRequiredSignatures(r.Context(), caller, vault, req.Required)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleEmergencyPause(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}
	var req pauseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	receipt, err := s.svc.EmergencyPause(r.Context(), caller, vault, req.Reason)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleUnpauseVault(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}

	receipt, err := s.svc.UnpauseVault(r.Context(), caller, vault)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}

func (s *Server) handleTransferVaultOwnership(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	vault, ok := pathAddress(w, r, "vault")
	if !ok {
		return
	}
	var req ownershipRequest
	if !decodeBody(w, r, &req) {
		return
	}
	newOwner, ok := parseAddressField(w, "newOwner", req.NewOwner)
	if !ok {
		return
	}

	receipt, err := s.svc.TransferVaultOwnership(r.Context(), caller, vault, newOwner)
	respondTx(w, r, http.StatusOK, receipt, err, TxResponse{})
}
