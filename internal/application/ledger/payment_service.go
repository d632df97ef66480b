package ledger

import (
	"context"
	"sort"

	"github.com/codledger/backend/internal/domain/carrier"
	"github.com/codledger/backend/internal/domain/ledger"
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const codeRetries = 3

// PaymentService registers carrier payments and applies them against the
// oldest outstanding movements first.
type PaymentService struct {
	paymentRepo    ledger.PaymentRepository
	movementRepo   ledger.MovementRepository
	carrierRepo    carrier.Repository
	txScope        TransactionScope
	idempotency    shared.IdempotencyStore
	idempotencyCfg shared.IdempotencyConfig
}

// NewPaymentService creates a PaymentService
func NewPaymentService(
	paymentRepo ledger.PaymentRepository,
	movementRepo ledger.MovementRepository,
	carrierRepo carrier.Repository,
	txScope TransactionScope,
) *PaymentService {
	return &PaymentService{
		paymentRepo:    paymentRepo,
		movementRepo:   movementRepo,
		carrierRepo:    carrierRepo,
		txScope:        txScope,
		idempotencyCfg: shared.DefaultIdempotencyConfig(),
	}
}

// SetIdempotencyStore wires the store that makes payment registration safe to retry
func (s *PaymentService) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	s.idempotency = store
	s.idempotencyCfg = cfg
}

// RegisterPayment records a money transfer and, for from_carrier payments,
// applies it oldest-first against the carrier's outstanding movements. The
// payment, its ledger movement and the settled-amount updates commit together.
// A replayed idempotency key returns the originally registered payment without
// applying anything again; a failed attempt frees its key for a corrected retry.
func (s *PaymentService) RegisterPayment(ctx context.Context, storeID, userID uuid.UUID, req RegisterPaymentRequest) (*PaymentResponse, error) {
	idemKey := ""
	if req.IdempotencyKey != "" && s.idempotency != nil && s.idempotencyCfg.Enabled {
		idemKey = "payment:" + storeID.String() + ":" + req.IdempotencyKey
		fresh, code, err := s.idempotency.Reserve(ctx, idemKey, s.idempotencyCfg.TTL)
		if err != nil {
			return nil, err
		}
		if !fresh {
			if code == "" {
				// original request still in flight
				return nil, shared.ErrDuplicateIdempotency
			}
			return s.replayPayment(ctx, storeID, code)
		}
	}

	resp, err := s.registerPayment(ctx, storeID, userID, req)
	if idemKey != "" {
		if err != nil {
			_ = s.idempotency.Release(ctx, idemKey)
		} else {
			// a failed Complete leaves the key reserved; replays then conflict
			// until the TTL expires, which beats double-applying the payment
			_ = s.idempotency.Complete(ctx, idemKey, resp.Code, s.idempotencyCfg.TTL)
		}
	}
	return resp, err
}

func (s *PaymentService) registerPayment(ctx context.Context, storeID, userID uuid.UUID, req RegisterPaymentRequest) (*PaymentResponse, error) {
	if _, err := s.carrierRepo.FindByID(ctx, storeID, req.CarrierID); err != nil {
		return nil, err
	}

	payment, err := ledger.NewPayment(
		storeID,
		req.CarrierID,
		req.Amount,
		ledger.PaymentDirection(req.Direction),
		ledger.PaymentMethod(req.Method),
		userID,
	)
	if err != nil {
		return nil, err
	}
	payment.Reference = req.Reference
	payment.Notes = req.Notes

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		// the unsettled read happens inside the transaction, and every
		// settled-amount write below re-checks the outstanding amount, so two
		// racing payments cannot both consume the same movement
		var result *ledger.ApplicationResult
		if payment.Direction == ledger.DirectionFromCarrier {
			targets, err := s.applicationTargets(ctx, repos.MovementRepo(), storeID, req)
			if err != nil {
				return err
			}
			result, err = ledger.ApplyPaymentOldestFirst(payment, targets)
			if err != nil {
				return err
			}
		}

		movement, err := payment.Movement()
		if err != nil {
			return err
		}
		if err := createPaymentWithCodeRetry(ctx, repos.PaymentRepo(), payment); err != nil {
			return err
		}
		if err := repos.MovementRepo().Create(ctx, movement); err != nil {
			return err
		}
		if result != nil {
			for _, app := range result.Applications {
				if err := repos.MovementRepo().ApplySettlement(ctx, storeID, app.MovementID, app.Amount); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// applicationTargets resolves the movements a from_carrier payment applies to.
// Explicit settlement or movement ids restrict the application to them; without
// targets the payment runs against the carrier's whole unsettled set.
func (s *PaymentService) applicationTargets(ctx context.Context, repo ledger.MovementRepository, storeID uuid.UUID, req RegisterPaymentRequest) ([]*ledger.Movement, error) {
	if len(req.MovementIDs) == 0 && len(req.SettlementIDs) == 0 {
		return repo.FindUnsettled(ctx, storeID, req.CarrierID)
	}

	seen := make(map[uuid.UUID]struct{})
	var targets []*ledger.Movement
	if len(req.MovementIDs) > 0 {
		movements, err := repo.FindByIDs(ctx, storeID, req.MovementIDs)
		if err != nil {
			return nil, err
		}
		if len(movements) != len(req.MovementIDs) {
			return nil, shared.NewNotFoundError("MOVEMENTS_NOT_FOUND", "One or more movements do not exist in this store")
		}
		for _, m := range movements {
			if !m.Type.IsReceivable() {
				return nil, shared.NewValidationError("MOVEMENT_NOT_RECEIVABLE", "Movement cannot be settled by a payment")
			}
			seen[m.ID] = struct{}{}
			targets = append(targets, m)
		}
	}
	for _, settlementID := range req.SettlementIDs {
		movements, err := repo.FindBySettlement(ctx, storeID, settlementID)
		if err != nil {
			return nil, err
		}
		if len(movements) == 0 {
			return nil, shared.NewNotFoundError("SETTLEMENT_MOVEMENTS_NOT_FOUND", "Settlement has no ledger movements in this store")
		}
		for _, m := range movements {
			// a settlement also produces fee movements; only receivables take payments
			if !m.Type.IsReceivable() {
				continue
			}
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			targets = append(targets, m)
		}
	}

	// fully settled targets carry nothing to apply against
	open := targets[:0]
	for _, m := range targets {
		if m.Outstanding().IsPositive() {
			open = append(open, m)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		return open[i].CreatedAt.Before(open[j].CreatedAt)
	})
	return open, nil
}

// replayPayment returns the payment a processed idempotency key produced
func (s *PaymentService) replayPayment(ctx context.Context, storeID uuid.UUID, code string) (*PaymentResponse, error) {
	p, err := s.paymentRepo.FindByCode(ctx, storeID, code)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// GetPayment retrieves a payment by id
func (s *PaymentService) GetPayment(ctx context.Context, storeID, id uuid.UUID) (*PaymentResponse, error) {
	p, err := s.paymentRepo.FindByID(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// ListPayments lists payments, optionally narrowed to one carrier
func (s *PaymentService) ListPayments(ctx context.Context, storeID uuid.UUID, carrierID *uuid.UUID, page, pageSize int) ([]PaymentResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	payments, total, err := s.paymentRepo.List(ctx, storeID, carrierID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	resp := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, ToPaymentResponse(p))
	}
	return resp, total, nil
}

func createPaymentWithCodeRetry(ctx context.Context, repo ledger.PaymentRepository, p *ledger.Payment) error {
	var err error
	for attempt := 0; attempt < codeRetries; attempt++ {
		if err = repo.Create(ctx, p); err == nil {
			return nil
		}
		if !shared.IsCode(err, "DUPLICATE_CODE") {
			return err
		}
		p.RegenerateCode()
	}
	return err
}
