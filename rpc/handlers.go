package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"nftstaking/core/auth"
	"nftstaking/crypto"
	"nftstaking/indexer"
	"nftstaking/native/bank"
	"nftstaking/native/nftstaking"
)

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func parseAddress(value string, prefix crypto.AddressPrefix) ([20]byte, error) {
	decoded, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if decoded.Prefix() != prefix {
		return [20]byte{}, fmt.Errorf("%w: expected %s address, got %s", errBadRequest, prefix, decoded.Prefix())
	}
	return decoded.Array(), nil
}

func urlAddress(r *http.Request, param string, prefix crypto.AddressPrefix) ([20]byte, error) {
	return parseAddress(chi.URLParam(r, param), prefix)
}

// authenticate verifies the signature over the operation and checks it was
// produced by the declared signer.
func authenticate(signed Signed, operation string, fields [][]byte) (auth.Caller, error) {
	sig, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signed.Signature), "0x"))
	if err != nil {
		return auth.Caller{}, fmt.Errorf("%w: signature must be hex", errBadRequest)
	}
	caller, err := auth.AuthenticateOperation(operation, signed.Nonce, sig, fields...)
	if err != nil {
		return auth.Caller{}, err
	}
	signer, err := parseAddress(signed.Signer, crypto.AccountPrefix)
	if err != nil {
		return auth.Caller{}, err
	}
	if signer != caller.Address() {
		return auth.Caller{}, errSignerMismatch
	}
	return caller, nil
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	collection, err := parseAddress(req.Collection, crypto.AssetPrefix)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	params := nftstaking.OpenParams{
		Collection:            collection,
		RewardAsset:           req.RewardAsset,
		RatePerSecond:         req.RatePerSecond,
		HorizonStart:          req.HorizonStart,
		HorizonEnd:            req.HorizonEnd,
		MinimumEligiblePeriod: req.MinimumEligiblePeriod,
		MaxCapacity:           req.MaxCapacity,
	}
	caller, err := authenticate(req.Signed, OpOpen, OpenFields(params))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cfg, err := s.node.Open(r.Context(), caller, params)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, configView(cfg))
}

// positionRequest decodes and authenticates the shared body of lock, claim
// and unlock.
func (s *Server) positionRequest(w http.ResponseWriter, r *http.Request, operation string) (auth.Caller, [20]byte, [20]byte, bool) {
	config, err := urlAddress(r, "config", crypto.AccountPrefix)
	if err != nil {
		s.fail(w, r, err)
		return auth.Caller{}, config, [20]byte{}, false
	}
	var req PositionRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return auth.Caller{}, config, [20]byte{}, false
	}
	nft, err := parseAddress(req.NFT, crypto.AssetPrefix)
	if err != nil {
		s.fail(w, r, err)
		return auth.Caller{}, config, nft, false
	}
	caller, err := authenticate(req.Signed, operation, PositionFields(config, nft))
	if err != nil {
		s.fail(w, r, err)
		return auth.Caller{}, config, nft, false
	}
	return caller, config, nft, true
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	caller, config, nft, ok := s.positionRequest(w, r, OpLock)
	if !ok {
		return
	}
	pos, err := s.node.Lock(r.Context(), caller, config, nft)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, positionView(pos))
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	caller, config, nft, ok := s.positionRequest(w, r, OpClaim)
	if !ok {
		return
	}
	reward, err := s.node.Claim(r.Context(), caller, config, nft)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ClaimView{Reward: reward})
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	caller, config, nft, ok := s.positionRequest(w, r, OpUnlock)
	if !ok {
		return
	}
	res, err := s.node.Unlock(r.Context(), caller, config, nft)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UnlockView{Eligible: res.Eligible, Reward: res.Reward, Scaled: res.Scaled})
}

func (s *Server) handleReconfigure(w http.ResponseWriter, r *http.Request) {
	config, err := urlAddress(r, "config", crypto.AccountPrefix)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req ReconfigureRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	params := nftstaking.ReconfigureParams{RatePerSecond: req.RatePerSecond, HorizonEnd: req.HorizonEnd}
	caller, err := authenticate(req.Signed, OpReconfigure, ReconfigureFields(config, params))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.node.Reconfigure(r.Context(), caller, config, params)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ReconfigureView{Record: auditView(res.Record), TopUp: res.TopUp})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	config, err := urlAddress(r, "config", crypto.AccountPrefix)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req CloseRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	caller, err := authenticate(req.Signed, OpClose, CloseFields(config))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	refund, err := s.node.Close(r.Context(), caller, config)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CloseView{Refunded: refund})
}

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.node.Configs()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]ConfigView, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, configView(cfg))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	config, err := urlAddress(r, "config", crypto.AccountPrefix)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cfg, err := s.node.Config(config)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, configView(cfg))
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	config, err := urlAddress(r, "config", crypto.AccountPrefix)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	records, err := s.node.AuditRecords(config)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]AuditRecordView, 0, len(records))
	for _, rec := range records {
		out = append(out, auditView(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	config, err := urlAddress(r, "config", crypto.AccountPrefix)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	positions, err := s.node.Positions(config)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]PositionView, 0, len(positions))
	for _, pos := range positions {
		out = append(out, positionView(pos))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) configAndNFT(w http.ResponseWriter, r *http.Request) ([20]byte, [20]byte, bool) {
	config, err := urlAddress(r, "config", crypto.AccountPrefix)
	if err != nil {
		s.fail(w, r, err)
		return config, [20]byte{}, false
	}
	nft, err := urlAddress(r, "nft", crypto.AssetPrefix)
	if err != nil {
		s.fail(w, r, err)
		return config, nft, false
	}
	return config, nft, true
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	config, nft, ok := s.configAndNFT(w, r)
	if !ok {
		return
	}
	pos, err := s.node.Position(config, nft)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, positionView(pos))
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	config, nft, ok := s.configAndNFT(w, r)
	if !ok {
		return
	}
	eligible, reward, err := s.node.PendingReward(config, nft)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PendingView{Eligible: eligible, Reward: reward})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.indexer == nil {
		s.fail(w, r, errNoIndexer)
		return
	}
	config, err := urlAddress(r, "config", crypto.AccountPrefix)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	query := indexer.Query{Config: accountString(config), Type: r.URL.Query().Get("type")}
	if raw := r.URL.Query().Get("nft"); raw != "" {
		nft, err := parseAddress(raw, crypto.AssetPrefix)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		query.NFT = assetString(nft)
	}
	if raw := r.URL.Query().Get("after"); raw != "" {
		after, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.fail(w, r, fmt.Errorf("%w: after: %v", errBadRequest, err))
			return
		}
		query.After = after
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.fail(w, r, fmt.Errorf("%w: invalid limit", errBadRequest))
			return
		}
		query.Limit = limit
	}
	records, err := s.indexer.History(r.Context(), query)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		entry, err := historyEntry(rec)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	id, err := urlAddress(r, "collection", crypto.AssetPrefix)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.node.Collection(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, collectionView(c))
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := urlAddress(r, "address", crypto.AccountPrefix)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	nonce, err := s.node.Nonce(addr)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AccountView{Address: accountString(addr), Nonce: nonce})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := urlAddress(r, "address", crypto.AccountPrefix)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	asset := chi.URLParam(r, "asset")
	balance, err := s.node.Balance(addr, asset)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceView{Address: accountString(addr), Asset: strings.ToUpper(asset), Balance: balance})
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	info, err := s.node.Asset(chi.URLParam(r, "asset"))
	if errors.Is(err, bank.ErrUnknownAsset) {
		writeError(w, r, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AssetView{Symbol: info.Symbol, Name: info.Name, Decimals: info.Decimals, Supply: info.Supply})
}
