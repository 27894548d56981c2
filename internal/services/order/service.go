package order

import (
	"context"

	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/models"
	"github.com/isaac-anthony/mano/internal/services/order/internal/validation"
)

// Stage is where a place-order invocation currently is.
type Stage string

const (
	StageReceived   Stage = "received"
	StageParsed     Stage = "parsed"
	StageResolving  Stage = "resolving"
	StageBuilding   Stage = "building"
	StageSubmitting Stage = "submitting"
	StageResponding Stage = "responding"
	StageFailed     Stage = "failed"
)

// Cause says which part of the pipeline rejected an invocation.
type Cause string

const (
	CauseMalformed          Cause = "malformed"
	CauseCatalogUnavailable Cause = "catalog_unavailable"
	CauseEmptyOrder         Cause = "empty_order"
	CauseUnresolved         Cause = "unresolved"
	CauseSubmission         Cause = "submission"
	CauseInternal           Cause = "internal"
)

// Publisher announces accepted orders. Optional.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, msg *models.OrderPlacedMessage, requestID string) error
}

// CallInfo identifies the conversation an invocation came from.
type CallInfo struct {
	RequestID string
	CallID    string
}

// Outcome is the full result of one invocation. Response is all a caller
// should ever hear; the rest is for logs and direct API callers.
type Outcome struct {
	Response models.AgentResponse
	Stage    Stage
	// Cause and Reason are set when Stage is StageFailed.
	Cause  Cause
	Reason string
	Intent *models.OrderIntent
	Result *models.SubmissionResult
}

// Service drives resolve, build and submit for one place-order request.
type Service struct {
	resolver  *Resolver
	submitter *Submitter
	publisher Publisher
	logger    *logger.Logger
}

func NewService(resolver *Resolver, submitter *Submitter, publisher Publisher, log *logger.Logger) *Service {
	return &Service{
		resolver:  resolver,
		submitter: submitter,
		publisher: publisher,
		logger:    log,
	}
}

// AuthFault reports a recorded credential rejection.
func (s *Service) AuthFault() bool {
	return s.submitter.AuthFault()
}

// Malformed is the outcome for an envelope that never reached the pipeline.
func Malformed(reason string) Outcome {
	return Outcome{
		Response: models.AgentResponse{SpokenMessage: msgMalformed, Success: false},
		Stage:    StageFailed,
		Cause:    CauseMalformed,
		Reason:   reason,
	}
}

// PlaceOrder runs the pipeline for an already-parsed request.
func (s *Service) PlaceOrder(ctx context.Context, req *models.PlaceOrderRequest, call CallInfo) Outcome {
	rid := call.RequestID
	s.transition(StageReceived, rid, map[string]interface{}{"call_id": call.CallID})

	if err := validation.ValidatePlaceOrderRequest(req); err != nil {
		s.logger.Warn("validation_failed", err.Error(), rid, nil)
		return s.fail(Malformed(err.Error()), rid)
	}
	s.transition(StageParsed, rid, map[string]interface{}{"items": len(req.Items)})

	s.transition(StageResolving, rid, nil)
	results, err := s.resolver.Resolve(ctx, req.Items, rid)
	if err != nil {
		s.logger.Error("catalog_unavailable", "Catalog lookup failed during resolution", rid, err, nil)
		return s.fail(Outcome{
			Response: models.AgentResponse{SpokenMessage: msgCatalogUnavailable},
			Stage:    StageFailed,
			Cause:    CauseCatalogUnavailable,
			Reason:   "catalog unavailable",
		}, rid)
	}

	s.transition(StageBuilding, rid, nil)
	intent, err := BuildIntent(results, req.CustomerName, req.SpecialInstructions)
	if err != nil {
		return s.fail(s.buildFailure(err, rid), rid)
	}

	s.transition(StageSubmitting, rid, map[string]interface{}{
		"lines":           len(intent.LineItems),
		"idempotency_key": intent.IdempotencyKey,
	})
	result := s.submitter.Submit(ctx, intent, rid)
	if !result.OK() {
		return s.fail(Outcome{
			Response: models.AgentResponse{SpokenMessage: submissionMessage(result.Failure.Kind)},
			Stage:    StageFailed,
			Cause:    CauseSubmission,
			Reason:   string(result.Failure.Kind),
			Intent:   intent,
			Result:   &result,
		}, rid)
	}

	s.logger.Info("order_placed", "Order accepted by backend", rid, map[string]interface{}{
		"order_id":        result.Success.ExternalOrderID,
		"status":          result.Success.Status,
		"lines":           len(intent.LineItems),
		"idempotency_key": intent.IdempotencyKey,
		"call_id":         call.CallID,
	})
	s.publish(ctx, intent, result.Success, call)

	s.transition(StageResponding, rid, nil)
	return Outcome{
		Response: models.AgentResponse{SpokenMessage: confirmationMessage(intent, result.Success), Success: true},
		Stage:    StageResponding,
		Intent:   intent,
		Result:   &result,
	}
}

func (s *Service) buildFailure(err error, rid string) Outcome {
	if models.IsEmptyOrder(err) {
		return Outcome{
			Response: models.AgentResponse{SpokenMessage: msgEmptyOrder},
			Stage:    StageFailed,
			Cause:    CauseEmptyOrder,
			Reason:   string(models.EmptyOrder),
		}
	}
	if errs, ok := models.AsResolutionErrors(err); ok {
		s.logger.Warn("order_rejected", err.Error(), rid, map[string]interface{}{
			"failed_items": len(errs),
		})
		return Outcome{
			Response: models.AgentResponse{SpokenMessage: resolutionMessage(errs)},
			Stage:    StageFailed,
			Cause:    CauseUnresolved,
			Reason:   err.Error(),
		}
	}
	return Outcome{
		Response: models.AgentResponse{SpokenMessage: msgUnknownFailure},
		Stage:    StageFailed,
		Cause:    CauseInternal,
		Reason:   err.Error(),
	}
}

func (s *Service) publish(ctx context.Context, intent *models.OrderIntent, success *models.SubmissionSuccess, call CallInfo) {
	if s.publisher == nil {
		return
	}
	msg := models.NewOrderPlacedMessage(intent, success, s.submitter.LocationID(), call.CallID)
	if err := s.publisher.PublishOrderPlaced(ctx, msg, call.RequestID); err != nil {
		s.logger.Error("publish_failed", "Failed to publish order placed event", call.RequestID, err, map[string]interface{}{
			"order_id": success.ExternalOrderID,
		})
	}
}

func (s *Service) fail(out Outcome, rid string) Outcome {
	out.Stage = StageFailed
	out.Response.Success = false
	s.logger.Debug("stage", string(StageFailed), rid, map[string]interface{}{"reason": out.Reason})
	return out
}

func (s *Service) transition(stage Stage, rid string, fields map[string]interface{}) {
	s.logger.Debug("stage", string(stage), rid, fields)
}
