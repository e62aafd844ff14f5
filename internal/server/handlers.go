package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/forca/trading/internal/model"
	"github.com/forca/trading/internal/request"
)

type ctxKey int

const userIDKey ctxKey = iota

// requireUser pulls the owner id set by the session layer. Authentication
// itself happens upstream; here only presence is enforced
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing or invalid X-User-ID"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	})
}

func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}

type errorBody struct {
	Error string `json:"error"`
}

type createAccountBody struct {
	InitialAmount decimal.Decimal `json:"initial_amount"`
}

type openPositionBody struct {
	Side     model.Side `json:"side"`
	Symbol   string     `json:"symbol"`
	Quantity int32      `json:"quantity"`
}

func (s *Server) getQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	price, err := s.service.CurrentPrice(r.Context(), symbol)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"symbol": symbol, "price": price})
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var body createAccountBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	account, err := s.service.CreateAccount(r.Context(), userID(r), body.InitialAmount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.service.GetAccount(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteAccount(r.Context(), userID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) openPosition(w http.ResponseWriter, r *http.Request) {
	var body openPositionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	id, err := s.service.OpenPosition(r.Context(), &request.OpenPositionService{
		OwnerID:  userID(r),
		Side:     body.Side,
		Symbol:   body.Symbol,
		Quantity: body.Quantity,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"transaction_id": id})
}

func (s *Server) closePosition(w http.ResponseWriter, r *http.Request) {
	positionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid position id"})
		return
	}
	offsetting, err := s.service.ClosePosition(r.Context(), userID(r), positionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offsetting)
}

func (s *Server) listPositions(w http.ResponseWriter, r *http.Request) {
	var (
		positions []*model.Position
		err       error
	)
	if r.URL.Query().Get("status") == "open" {
		positions, err = s.service.ListOpenPositions(r.Context(), userID(r))
	} else {
		positions, err = s.service.ListPositions(r.Context(), userID(r))
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if positions == nil {
		positions = []*model.Position{}
	}
	writeJSON(w, http.StatusOK, positions)
}

func (s *Server) getHoldings(w http.ResponseWriter, r *http.Request) {
	value, err := s.service.HoldingsValue(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"holdings_value": value})
}

// writeError maps ledger results onto status codes. Transient failures come
// back as 5xx so the front end can offer a manual retry
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidTrade), errors.Is(err, model.ErrInvalidAmount):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, model.ErrInsufficientMargin):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case errors.Is(err, model.ErrAccountNotFound), errors.Is(err, model.ErrPositionNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, model.ErrAlreadyClosed), errors.Is(err, model.ErrDuplicateAccount):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, model.ErrPriceUnavailable):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: model.ErrPriceUnavailable.Error()})
	case errors.Is(err, model.ErrConnectionFailed):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: model.ErrConnectionFailed.Error()})
	default:
		log.Error(err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(err)
	}
}
