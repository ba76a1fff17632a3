package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/engine"
	"github.com/cambial/cambio/internal/store"
)

// Swap directions for the platform-rate conversion endpoint.
const (
	DirectionUSDToLBP = "USD_TO_LBP"
	DirectionLBPToUSD = "LBP_TO_USD"
)

// DirectSwapRequest represents the input for a direct swap at the
// current platform rate.
type DirectSwapRequest struct {
	UserID    string
	Direction string
	Amount    float64
}

// ExchangeService executes direct swaps against the treasury account
// at the live mid rate and serves transaction history.
type ExchangeService struct {
	swaps      *engine.SwapEngine
	rates      *RateService
	log        *store.LedgerLog
	audit      *AuditService
	treasuryID string
}

// NewExchangeService creates an ExchangeService. treasuryID is the
// house account taking the other side of every platform-rate swap.
func NewExchangeService(
	swaps *engine.SwapEngine,
	rates *RateService,
	log *store.LedgerLog,
	audit *AuditService,
	treasuryID string,
) *ExchangeService {
	return &ExchangeService{
		swaps:      swaps,
		rates:      rates,
		log:        log,
		audit:      audit,
		treasuryID: treasuryID,
	}
}

// CreateDirectSwap validates the request, fetches the current rate,
// and executes the conversion as an atomic two-party swap: the user's
// leg against the treasury's exact mirror.
func (s *ExchangeService) CreateDirectSwap(ctx context.Context, req DirectSwapRequest) (*domain.LedgerRecord, error) {
	if req.Direction != DirectionUSDToLBP && req.Direction != DirectionLBPToUSD {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("Unknown direction: %s. Must be one of: USD_TO_LBP, LBP_TO_USD", req.Direction),
		}
	}
	if req.Amount <= 0 {
		return nil, &domain.ValidationError{Message: "amount must be greater than 0"}
	}
	amount, err := domain.ToMinor(req.Amount)
	if err != nil {
		return nil, &domain.ValidationError{Message: "amount must have at most 2 decimal places"}
	}

	quote, err := s.rates.Current(ctx)
	if err != nil {
		return nil, err
	}

	var debit, credit engine.Leg
	if req.Direction == DirectionUSDToLBP {
		debit = engine.Leg{Currency: domain.CurrencyUSD, Amount: amount}
		credit = engine.Leg{Currency: domain.CurrencyLBP, Amount: domain.Convert(amount, quote.Mid)}
	} else {
		debit = engine.Leg{Currency: domain.CurrencyLBP, Amount: amount}
		credit = engine.Leg{Currency: domain.CurrencyUSD, Amount: domain.Convert(amount, decimal.NewFromInt(1).Div(quote.Mid))}
	}
	if credit.Amount <= 0 {
		return nil, &domain.ValidationError{Message: "amount is too small to convert at the current rate"}
	}

	record, err := s.swaps.ExecuteSwap(ctx, engine.SwapRequest{
		PartyA:  req.UserID,
		DebitA:  debit,
		CreditA: credit,
		PartyB:  s.treasuryID,
		DebitB:  credit,
		CreditB: debit,
	})
	if err != nil {
		return nil, err
	}
	directSwapsTotal.Inc()

	s.audit.Record(req.UserID, "TRANSACTION_CREATED", fmt.Sprintf(
		"Exchanged %d %s to %d %s (Rate: %s)",
		debit.Amount, debit.Currency, credit.Amount, credit.Currency, quote.Mid))
	return record, nil
}

// ListMine returns the user's direct swap records, oldest first.
func (s *ExchangeService) ListMine(userID string) []*domain.LedgerRecord {
	records := make([]*domain.LedgerRecord, 0)
	for r := range s.log.Query(store.RecordFilter{UserID: userID, Type: domain.RecordDirectSwap}) {
		records = append(records, r)
	}
	return records
}

// ListTransactions returns ledger records matching the filter, oldest
// first. This is the read surface audit and analytics consume.
func (s *ExchangeService) ListTransactions(f store.RecordFilter) []*domain.LedgerRecord {
	records := make([]*domain.LedgerRecord, 0)
	for r := range s.log.Query(f) {
		records = append(records, r)
	}
	return records
}

// ExportCSV streams the user's postings as CSV, one row per leg.
func (s *ExchangeService) ExportCSV(w io.Writer, userID string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Date", "Type", "Currency", "Amount", "Balance After"}); err != nil {
		return err
	}

	for r := range s.log.Query(store.RecordFilter{UserID: userID}) {
		for _, p := range r.Postings {
			if p.UserID != userID {
				continue
			}
			row := []string{
				r.CreatedAt.Format("2006-01-02 15:04:05"),
				string(r.Type),
				p.Currency,
				fmt.Sprintf("%.2f", domain.FromMinor(p.Delta)),
				fmt.Sprintf("%.2f", domain.FromMinor(p.Resulting)),
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}
