package ledger

import (
	"context"

	"github.com/codledger/backend/internal/domain/carrier"
	"github.com/codledger/backend/internal/domain/ledger"
	"github.com/codledger/backend/internal/domain/settlement"
	"github.com/codledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service serves carrier account queries and the operator-facing ledger
// maintenance operations: adjustments, the health check and the backfill repair.
type Service struct {
	movementRepo   ledger.MovementRepository
	settlementRepo settlement.Repository
	carrierRepo    carrier.Repository
	txScope        TransactionScope
}

// NewService creates a ledger Service
func NewService(
	movementRepo ledger.MovementRepository,
	settlementRepo settlement.Repository,
	carrierRepo carrier.Repository,
	txScope TransactionScope,
) *Service {
	return &Service{
		movementRepo:   movementRepo,
		settlementRepo: settlementRepo,
		carrierRepo:    carrierRepo,
		txScope:        txScope,
	}
}

// Balances returns the replayed balance for every carrier with movements,
// annotated with carrier names.
func (s *Service) Balances(ctx context.Context, storeID uuid.UUID) ([]CarrierBalanceResponse, error) {
	balances, err := s.movementRepo.BalancesByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	carriers, err := s.carrierRepo.FindAll(ctx, storeID, false)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(carriers))
	for _, c := range carriers {
		names[c.ID] = c.Name
	}

	resp := make([]CarrierBalanceResponse, 0, len(balances))
	for _, b := range balances {
		resp = append(resp, CarrierBalanceResponse{
			CarrierID:     b.CarrierID,
			CarrierName:   names[b.CarrierID],
			Balance:       b.Balance,
			MovementCount: b.MovementCount,
		})
	}
	return resp, nil
}

// Statement returns one carrier's movement history with its current balance
func (s *Service) Statement(ctx context.Context, storeID, carrierID uuid.UUID, filter MovementListFilter) (*StatementResponse, error) {
	if _, err := s.carrierRepo.FindByID(ctx, storeID, carrierID); err != nil {
		return nil, err
	}

	domainFilter := ledger.MovementFilter{DateFrom: filter.DateFrom, DateTo: filter.DateTo}
	if filter.Type != nil {
		mt := ledger.MovementType(*filter.Type)
		if !mt.IsValid() {
			return nil, shared.NewValidationError("INVALID_TYPE", "Unknown movement type")
		}
		domainFilter.Type = &mt
	}

	movements, err := s.movementRepo.FindByCarrier(ctx, storeID, carrierID, domainFilter)
	if err != nil {
		return nil, err
	}
	balance, err := s.movementRepo.SumByCarrier(ctx, storeID, carrierID, nil, nil)
	if err != nil {
		return nil, err
	}

	resp := &StatementResponse{CarrierID: carrierID, Balance: balance}
	for _, m := range movements {
		resp.Movements = append(resp.Movements, ToMovementResponse(m))
	}
	return resp, nil
}

// CreateAdjustment appends a manual correction to a carrier's ledger
func (s *Service) CreateAdjustment(ctx context.Context, storeID, userID, carrierID uuid.UUID, req AdjustmentRequest) (*MovementResponse, error) {
	if _, err := s.carrierRepo.FindByID(ctx, storeID, carrierID); err != nil {
		return nil, err
	}
	m, err := ledger.NewAdjustment(storeID, carrierID, req.Amount, req.Credit, req.Description, userID)
	if err != nil {
		return nil, err
	}
	if err := s.movementRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	resp := ToMovementResponse(m)
	return &resp, nil
}

// Unsettled lists a carrier's open receivable movements, oldest first
func (s *Service) Unsettled(ctx context.Context, storeID, carrierID uuid.UUID) (*UnsettledResponse, error) {
	if _, err := s.carrierRepo.FindByID(ctx, storeID, carrierID); err != nil {
		return nil, err
	}
	movements, err := s.movementRepo.FindUnsettled(ctx, storeID, carrierID)
	if err != nil {
		return nil, err
	}

	resp := &UnsettledResponse{CarrierID: carrierID, Outstanding: decimal.Zero}
	for _, m := range movements {
		resp.Outstanding = resp.Outstanding.Add(m.Outstanding())
		resp.Movements = append(resp.Movements, ToMovementResponse(m))
	}
	return resp, nil
}

// Health replays every carrier's ledger against settlement history and reports
// HEALTHY or PROBLEMS_DETECTED. Read-only; repairs go through Backfill.
func (s *Service) Health(ctx context.Context, storeID uuid.UUID, carrierID *uuid.UUID) (*HealthReport, error) {
	carrierIDs, err := s.targetCarriers(ctx, storeID, carrierID)
	if err != nil {
		return nil, err
	}

	report := &HealthReport{Status: string(ledger.HealthStatusHealthy)}
	for _, cid := range carrierIDs {
		movements, err := s.movementRepo.FindByCarrier(ctx, storeID, cid, ledger.MovementFilter{})
		if err != nil {
			return nil, err
		}
		id := cid
		expected, err := s.settlementRepo.ExpectedOrderMovements(ctx, storeID, &id)
		if err != nil {
			return nil, err
		}
		diagnosis := ledger.DiagnoseCarrier(cid, movements, expected)
		if len(movements) == 0 && len(expected) == 0 {
			continue
		}
		report.Carriers = append(report.Carriers, diagnosis)
		if !diagnosis.Healthy() {
			report.Status = string(ledger.HealthStatusProblems)
		}
	}
	return report, nil
}

// Backfill reconstructs missing per-order movements from settlement history
// and removes duplicates. With DryRun it only reports the plan. Running it
// twice over an unchanged ledger applies nothing the second time.
func (s *Service) Backfill(ctx context.Context, storeID, userID uuid.UUID, req BackfillRequest) (*BackfillReport, error) {
	carrierIDs, err := s.targetCarriers(ctx, storeID, req.CarrierID)
	if err != nil {
		return nil, err
	}

	report := &BackfillReport{DryRun: req.DryRun}
	for _, cid := range carrierIDs {
		movements, err := s.movementRepo.FindByCarrier(ctx, storeID, cid, ledger.MovementFilter{})
		if err != nil {
			return nil, err
		}
		id := cid
		expected, err := s.settlementRepo.ExpectedOrderMovements(ctx, storeID, &id)
		if err != nil {
			return nil, err
		}

		diff := ledger.ComputeBackfillDiff(cid, movements, expected)
		if diff.Empty() {
			continue
		}
		report.Carriers = append(report.Carriers, BackfillCarrierReport{
			CarrierID:      cid,
			MissingCount:   diff.MissingCount,
			DuplicateCount: len(diff.Duplicates),
			BalanceDelta:   diff.BalanceDelta,
		})

		if req.DryRun {
			continue
		}
		if err := s.applyDiff(ctx, storeID, userID, diff); err != nil {
			return nil, err
		}
		report.Applied = true
	}
	return report, nil
}

func (s *Service) applyDiff(ctx context.Context, storeID, userID uuid.UUID, diff ledger.BackfillDiff) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if len(diff.Missing) > 0 {
			toCreate := make([]*ledger.Movement, 0, len(diff.Missing))
			for _, exp := range diff.Missing {
				m, err := ledger.NewDeliveryCollected(storeID, exp.CarrierID, exp.OrderID, exp.Amount)
				if err != nil {
					return err
				}
				sid := exp.SettlementID
				m.SettlementID = &sid
				if userID != uuid.Nil {
					uid := userID
					m.CreatedBy = &uid
				}
				m.Description = "backfilled from settlement history"
				toCreate = append(toCreate, m)
			}
			if err := repos.MovementRepo().CreateBatch(ctx, toCreate); err != nil {
				return err
			}
		}
		for _, dupID := range diff.Duplicates {
			if err := repos.MovementRepo().Delete(ctx, storeID, dupID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) targetCarriers(ctx context.Context, storeID uuid.UUID, carrierID *uuid.UUID) ([]uuid.UUID, error) {
	if carrierID != nil {
		if _, err := s.carrierRepo.FindByID(ctx, storeID, *carrierID); err != nil {
			return nil, err
		}
		return []uuid.UUID{*carrierID}, nil
	}
	carriers, err := s.carrierRepo.FindAll(ctx, storeID, false)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(carriers))
	for _, c := range carriers {
		ids = append(ids, c.ID)
	}
	return ids, nil
}
