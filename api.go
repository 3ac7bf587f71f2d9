package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nativemint/nfm/collection"
	"github.com/nativemint/nfm/native"
)

// API exposes every facade operation over HTTP for operators. The caller
// address travels in the request body; the daemon forwards it to the manager
// unchanged and does no authentication of its own.
type API struct {
	mgr *collection.Manager
	log zerolog.Logger
}

func NewAPI(mgr *collection.Manager, logger zerolog.Logger) *API {
	return &API{
		mgr: mgr,
		log: logger.With().Str("module", "api").Logger(),
	}
}

func (api *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(api.requestID)

	r.Post("/initialize", api.handleInitialize)
	r.Post("/mint", api.handleMint)
	r.Post("/burn", api.handleBurn)
	r.Post("/kyc/grant", api.accountHandler("grant", api.mgr.GrantKYC))
	r.Post("/kyc/revoke", api.accountHandler("revoke", api.mgr.RevokeKYC))
	r.Post("/freeze", api.accountHandler("freeze", api.mgr.Freeze))
	r.Post("/unfreeze", api.accountHandler("unfreeze", api.mgr.Unfreeze))
	r.Post("/pause", api.handlePause)
	r.Post("/unpause", api.handleUnpause)
	r.Post("/wipe", api.handleWipe)
	r.Post("/fees", api.handleFees)
	r.Post("/keys/rotate", api.handleRotate)
	r.Post("/keys/neutralize", api.handleNeutralize)
	r.Post("/delete", api.handleDelete)
	r.Put("/scan-limit", api.handleScanLimit)
	r.Get("/state", api.handleState)
	r.Get("/tokens/{index}", api.handleTokenByIndex)
	r.Get("/owners/{owner}/tokens", api.handleTokensOfOwner)
	return r
}

func (api *API) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := uuid.NewV4()
		w.Header().Set("X-Request-Id", id.String())
		api.log.Debug().Str("request", id.String()).Str("path", r.URL.Path).Msg("request")
		next.ServeHTTP(w, r)
	})
}

type initializeRequest struct {
	Caller           string          `json:"caller"`
	Name             string          `json:"name"`
	Symbol           string          `json:"symbol"`
	Memo             string          `json:"memo"`
	KeyMask          uint8           `json:"key_mask"`
	FreezeDefault    bool            `json:"freeze_default"`
	AutoRenewAccount string          `json:"auto_renew_account"`
	AutoRenewPeriod  int64           `json:"auto_renew_period"`
	Payment          decimal.Decimal `json:"payment"`
}

func (api *API) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.renderError(w, err)
		return
	}
	caller, err := native.AddressFromHex(req.Caller)
	if err != nil {
		api.renderError(w, err)
		return
	}
	var renew native.Address
	if req.AutoRenewAccount != "" {
		renew, err = native.AddressFromHex(req.AutoRenewAccount)
		if err != nil {
			api.renderError(w, err)
			return
		}
	}
	token, err := api.mgr.Initialize(r.Context(), caller, collection.InitConfig{
		Name:             req.Name,
		Symbol:           req.Symbol,
		Memo:             req.Memo,
		KeyMask:          req.KeyMask,
		FreezeDefault:    req.FreezeDefault,
		AutoRenewAccount: renew,
		AutoRenewPeriod:  req.AutoRenewPeriod,
		Payment:          req.Payment,
	})
	if err != nil {
		api.renderError(w, err)
		return
	}
	api.renderJSON(w, map[string]interface{}{"token": token.String()})
}

type mintRequest struct {
	Caller    string `json:"caller"`
	Recipient string `json:"recipient"`
	Metadata  []byte `json:"metadata"`
}

func (api *API) handleMint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.renderError(w, err)
		return
	}
	caller, err := native.AddressFromHex(req.Caller)
	if err != nil {
		api.renderError(w, err)
		return
	}
	recipient, err := native.AddressFromHex(req.Recipient)
	if err != nil {
		api.renderError(w, err)
		return
	}
	serial, err := api.mgr.MintTo(r.Context(), caller, recipient, req.Metadata)
	if err != nil {
		api.renderError(w, err)
		return
	}
	api.renderJSON(w, map[string]interface{}{"serial": serial})
}

type burnRequest struct {
	Caller string `json:"caller"`
	Holder string `json:"holder"`
	Serial uint64 `json:"serial"`
}

func (api *API) handleBurn(w http.ResponseWriter, r *http.Request) {
	var req burnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.renderError(w, err)
		return
	}
	caller, err := native.AddressFromHex(req.Caller)
	if err != nil {
		api.renderError(w, err)
		return
	}
	if req.Holder == "" {
		err = api.mgr.Burn(r.Context(), caller, req.Serial)
	} else {
		var holder native.Address
		holder, err = native.AddressFromHex(req.Holder)
		if err == nil {
			err = api.mgr.BurnFrom(r.Context(), caller, holder, req.Serial)
		}
	}
	if err != nil {
		api.renderError(w, err)
		return
	}
	api.renderJSON(w, map[string]interface{}{"serial": req.Serial})
}

type accountRequest struct {
	Caller  string `json:"caller"`
	Account string `json:"account"`
}

func (api *API) accountHandler(op string, fn func(ctx context.Context, caller, account native.Address) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req accountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.renderError(w, err)
			return
		}
		caller, err := native.AddressFromHex(req.Caller)
		if err != nil {
			api.renderError(w, err)
			return
		}
		account, err := native.AddressFromHex(req.Account)
		if err != nil {
			api.renderError(w, err)
			return
		}
		if err := fn(r.Context(), caller, account); err != nil {
			api.renderError(w, err)
			return
		}
		api.renderJSON(w, map[string]interface{}{"op": op, "account": account.String()})
	}
}

func (api *API) handlePause(w http.ResponseWriter, r *http.Request) {
	api.tokenOp(w, r, api.mgr.Pause)
}

func (api *API) handleUnpause(w http.ResponseWriter, r *http.Request) {
	api.tokenOp(w, r, api.mgr.Unpause)
}

func (api *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	api.tokenOp(w, r, api.mgr.Delete)
}

func (api *API) tokenOp(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, caller native.Address) error) {
	var req struct {
		Caller string `json:"caller"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.renderError(w, err)
		return
	}
	caller, err := native.AddressFromHex(req.Caller)
	if err != nil {
		api.renderError(w, err)
		return
	}
	if err := fn(r.Context(), caller); err != nil {
		api.renderError(w, err)
		return
	}
	api.renderJSON(w, map[string]interface{}{"ok": true})
}

type wipeRequest struct {
	Caller  string   `json:"caller"`
	Account string   `json:"account"`
	Serials []uint64 `json:"serials"`
}

func (api *API) handleWipe(w http.ResponseWriter, r *http.Request) {
	var req wipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.renderError(w, err)
		return
	}
	caller, err := native.AddressFromHex(req.Caller)
	if err != nil {
		api.renderError(w, err)
		return
	}
	account, err := native.AddressFromHex(req.Account)
	if err != nil {
		api.renderError(w, err)
		return
	}
	if err := api.mgr.Wipe(r.Context(), caller, account, req.Serials); err != nil {
		api.renderError(w, err)
		return
	}
	api.renderJSON(w, map[string]interface{}{"ok": true})
}

type feeEntry struct {
	Numerator   int64           `json:"numerator"`
	Denominator int64           `json:"denominator"`
	FallbackFee decimal.Decimal `json:"fallback_fee"`
	Collector   string          `json:"collector"`
}

type feesRequest struct {
	Caller string     `json:"caller"`
	Fees   []feeEntry `json:"fees"`
}

func (api *API) handleFees(w http.ResponseWriter, r *http.Request) {
	var req feesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.renderError(w, err)
		return
	}
	caller, err := native.AddressFromHex(req.Caller)
	if err != nil {
		api.renderError(w, err)
		return
	}
	fees := make([]native.RoyaltyFee, len(req.Fees))
	for i, f := range req.Fees {
		collector, err := native.AddressFromHex(f.Collector)
		if err != nil {
			api.renderError(w, err)
			return
		}
		fees[i] = native.RoyaltyFee{
			Numerator:   f.Numerator,
			Denominator: f.Denominator,
			FallbackFee: f.FallbackFee,
			Collector:   collector,
		}
	}
	if err := api.mgr.UpdateRoyalties(r.Context(), caller, fees); err != nil {
		api.renderError(w, err)
		return
	}
	api.renderJSON(w, map[string]interface{}{"ok": true})
}

type rotateRequest struct {
	Caller string `json:"caller"`
	Mask   uint8  `json:"mask"`
	Holder string `json:"holder"`
}

func (api *API) handleRotate(w http.ResponseWriter, r *http.Request) {
	var req rotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.renderError(w, err)
		return
	}
	caller, err := native.AddressFromHex(req.Caller)
	if err != nil {
		api.renderError(w, err)
		return
	}
	holder, err := native.AddressFromHex(req.Holder)
	if err != nil {
		api.renderError(w, err)
		return
	}
	if err := api.mgr.RotateKeys(r.Context(), caller, req.Mask, holder); err != nil {
		api.renderError(w, err)
		return
	}
	api.renderJSON(w, map[string]interface{}{"ok": true})
}

type neutralizeRequest struct {
	Caller  string `json:"caller"`
	Mask    uint8  `json:"mask"`
	Confirm bool   `json:"confirm"`
}

func (api *API) handleNeutralize(w http.ResponseWriter, r *http.Request) {
	var req neutralizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.renderError(w, err)
		return
	}
	caller, err := native.AddressFromHex(req.Caller)
	if err != nil {
		api.renderError(w, err)
		return
	}
	if err := api.mgr.Neutralize(r.Context(), caller, req.Mask, req.Confirm); err != nil {
		api.renderError(w, err)
		return
	}
	api.renderJSON(w, map[string]interface{}{"ok": true})
}

type scanLimitRequest struct {
	Caller string `json:"caller"`
	Limit  int64  `json:"limit"`
}

func (api *API) handleScanLimit(w http.ResponseWriter, r *http.Request) {
	var req scanLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.renderError(w, err)
		return
	}
	caller, err := native.AddressFromHex(req.Caller)
	if err != nil {
		api.renderError(w, err)
		return
	}
	if err := api.mgr.SetScanLimit(caller, req.Limit); err != nil {
		api.renderError(w, err)
		return
	}
	api.renderJSON(w, map[string]interface{}{"limit": req.Limit})
}

func (api *API) handleState(w http.ResponseWriter, r *http.Request) {
	api.renderJSON(w, map[string]interface{}{
		"initialized":        api.mgr.Initialized(),
		"token":              api.mgr.TokenAddress().String(),
		"last_issued_serial": api.mgr.LastIssuedSerial(),
		"scan_limit":         api.mgr.ScanLimit(),
	})
}

func (api *API) handleTokenByIndex(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseInt(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		api.renderError(w, err)
		return
	}
	serial, err := api.mgr.TokenByIndex(r.Context(), index)
	if err != nil {
		api.renderError(w, err)
		return
	}
	api.renderJSON(w, map[string]interface{}{"serial": serial})
}

func (api *API) handleTokensOfOwner(w http.ResponseWriter, r *http.Request) {
	owner, err := native.AddressFromHex(chi.URLParam(r, "owner"))
	if err != nil {
		api.renderError(w, err)
		return
	}
	var maxScan int64
	if q := r.URL.Query().Get("max"); q != "" {
		maxScan, err = strconv.ParseInt(q, 10, 64)
		if err != nil {
			api.renderError(w, err)
			return
		}
	}
	serials, err := api.mgr.TokensOfOwner(r.Context(), owner, maxScan)
	if err != nil {
		api.renderError(w, err)
		return
	}
	api.renderJSON(w, map[string]interface{}{"serials": serials})
}

func (api *API) renderJSON(w http.ResponseWriter, val interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(val)
}

func (api *API) renderError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	body := map[string]interface{}{"error": err.Error()}

	var ce *native.CallError
	switch {
	case errors.As(err, &ce):
		status = http.StatusBadGateway
		body["op"] = ce.Op
		body["code"] = ce.Code
	case errors.Is(err, collection.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, collection.ErrNotInitialized),
		errors.Is(err, collection.ErrAlreadyInitialized):
		status = http.StatusConflict
	case errors.Is(err, collection.ErrIndexOutOfBounds):
		status = http.StatusNotFound
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
