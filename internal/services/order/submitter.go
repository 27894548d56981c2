package order

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/models"
)

// OrderCreator is the commerce backend's order-creation call.
type OrderCreator interface {
	CreateOrder(ctx context.Context, sub models.OrderSubmission) (*models.CreatedOrder, error)
}

// Submitter sends built orders to the backend.
//
// A submission is attempted once. Only a TransientNetworkFailure earns a
// second attempt, after a short backoff and with the same idempotency key so
// the backend can collapse the pair if the first attempt landed. A timed-out
// attempt may still have created the order, so delivery is at-least-once.
type Submitter struct {
	creator    OrderCreator
	locationID string
	state      string
	timeout    time.Duration
	backoff    time.Duration
	logger     *logger.Logger

	authFault atomic.Bool
}

type SubmitterConfig struct {
	LocationID string
	State      string
	Timeout    time.Duration
	Backoff    time.Duration
}

func NewSubmitter(creator OrderCreator, cfg SubmitterConfig, log *logger.Logger) *Submitter {
	return &Submitter{
		creator:    creator,
		locationID: cfg.LocationID,
		state:      cfg.State,
		timeout:    cfg.Timeout,
		backoff:    cfg.Backoff,
		logger:     log,
	}
}

// AuthFault reports whether the backend has rejected our credential since
// startup.
func (s *Submitter) AuthFault() bool {
	return s.authFault.Load()
}

// LocationID is the location orders are submitted to.
func (s *Submitter) LocationID() string {
	return s.locationID
}

// Submit sends the intent and returns a classified result.
func (s *Submitter) Submit(ctx context.Context, intent *models.OrderIntent, requestID string) models.SubmissionResult {
	sub := s.submission(intent)

	created, err := s.attempt(ctx, sub)
	if err != nil && models.IsRetryable(err) {
		s.logger.Warn("submission_retry", "Transient failure, retrying once", requestID, map[string]interface{}{
			"idempotency_key": sub.IdempotencyKey,
			"error":           err.Error(),
		})
		select {
		case <-ctx.Done():
		case <-time.After(s.backoff):
			created, err = s.attempt(ctx, sub)
		}
	}

	if err != nil {
		se := classify(err)
		if se.Kind == models.AuthFailure {
			s.authFault.Store(true)
			s.logger.Error("configuration_fault", "Commerce backend rejected the access token", requestID, err, map[string]interface{}{
				"location_id": s.locationID,
			})
		} else {
			s.logger.Error("submission_failed", "Order submission failed", requestID, err, map[string]interface{}{
				"kind":            string(se.Kind),
				"idempotency_key": sub.IdempotencyKey,
			})
		}
		return models.SubmissionResult{Failure: &models.SubmissionFailure{Kind: se.Kind, Message: se.Message}}
	}

	return models.SubmissionResult{Success: &models.SubmissionSuccess{
		ExternalOrderID: created.ID,
		Status:          created.State,
		TotalMoney:      created.TotalMoney,
	}}
}

func (s *Submitter) attempt(ctx context.Context, sub models.OrderSubmission) (*models.CreatedOrder, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	created, err := s.creator.CreateOrder(ctx, sub)
	if err != nil {
		return nil, classify(err)
	}
	return created, nil
}

func (s *Submitter) submission(intent *models.OrderIntent) models.OrderSubmission {
	sub := models.OrderSubmission{
		IdempotencyKey: intent.IdempotencyKey,
		LocationID:     s.locationID,
		State:          s.state,
		ReferenceID:    intent.CustomerName,
		Note:           intent.Note,
		LineItems:      make([]models.SubmissionLineItem, 0, len(intent.LineItems)),
	}
	for _, li := range intent.LineItems {
		line := models.SubmissionLineItem{
			CatalogObjectID: li.CatalogVariationID,
			Quantity:        strconv.Itoa(li.UnitQuantity),
		}
		for _, m := range li.ResolvedModifiers {
			line.ModifierIDs = append(line.ModifierIDs, m.CatalogObjectID)
		}
		sub.LineItems = append(sub.LineItems, line)
	}
	return sub
}

// classify keeps backend classifications and maps anything else a creator
// returns onto the taxonomy.
func classify(err error) *models.SubmissionError {
	if se, ok := models.AsSubmissionError(err); ok {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &models.SubmissionError{Kind: models.TransientNetworkFailure, Message: "request timed out", Err: err}
	}
	return &models.SubmissionError{Kind: models.UnknownFailure, Message: "unclassified error", Err: err}
}
