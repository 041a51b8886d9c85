package order

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/gigplane/gigplane/internal/config"
)

// Payments is the wallet collaborator. All calls happen after the lifecycle
// transition has committed; a failure is logged, never rolled back into the
// order.
type Payments interface {
	Hold(ctx context.Context, orderID, clientID string, amount int64) error
	Release(ctx context.Context, orderID, clientID, professionalID string, amount int64) error
	Refund(ctx context.Context, orderID, clientID string, amount int64) error
	Split(ctx context.Context, orderID, clientID, professionalID string, payout, refund int64) error
}

// Notifier dispatches timeline notifications to a party. Best-effort.
type Notifier interface {
	Notify(orderID, recipientID, kind, body string)
}

type Service struct {
	store     Store
	deadlines config.Deadlines
	payments  Payments
	notifier  Notifier
	now       func() time.Time
}

func NewService(store Store, deadlines config.Deadlines, payments Payments, notifier Notifier) *Service {
	return &Service{
		store:     store,
		deadlines: deadlines,
		payments:  payments,
		notifier:  notifier,
		now:       time.Now,
	}
}

type CreateCommand struct {
	ClientID       string
	ProfessionalID string
	ServiceID      string
	Items          []LineItem
	Milestones     []Milestone
	Discount       int64
	ServiceFee     int64
	DueAt          *time.Time
	ExtraInfo      string
}

// Create records a completed purchase as a new pending order and asks the
// wallet to hold the total in escrow.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Order, error) {
	if cmd.ClientID == "" || cmd.ProfessionalID == "" || cmd.ServiceID == "" {
		return nil, fmt.Errorf("%w: missing parties", ErrValidation)
	}
	if cmd.ClientID == cmd.ProfessionalID {
		return nil, fmt.Errorf("%w: client and professional must differ", ErrValidation)
	}
	if len(cmd.Items) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one priced item", ErrValidation)
	}
	var subtotal int64
	for _, it := range cmd.Items {
		if it.UnitPrice < 0 || it.Quantity < 0 {
			return nil, fmt.Errorf("%w: negative price or quantity", ErrValidation)
		}
		subtotal += it.UnitPrice * int64(it.Quantity)
	}
	for _, m := range cmd.Milestones {
		if m.UnitPrice < 0 || m.Quantity < 0 || m.DeliveryOffsetDays < 0 {
			return nil, fmt.Errorf("%w: invalid milestone", ErrValidation)
		}
	}
	if cmd.Discount < 0 || cmd.ServiceFee < 0 {
		return nil, fmt.Errorf("%w: negative discount or service fee", ErrValidation)
	}
	total := subtotal - cmd.Discount + cmd.ServiceFee
	if total < 0 {
		return nil, fmt.Errorf("%w: discount exceeds order value", ErrValidation)
	}

	now := s.now()
	o := &Order{
		ID:             uuid.New().String(),
		ServiceID:      cmd.ServiceID,
		ClientID:       cmd.ClientID,
		ProfessionalID: cmd.ProfessionalID,
		Subtotal:       subtotal,
		Discount:       cmd.Discount,
		ServiceFee:     cmd.ServiceFee,
		Total:          total,
		Items:          cmd.Items,
		Milestones:     cmd.Milestones,
		DueAt:          cmd.DueAt,
		CreatedAt:      now,
	}
	if cmd.ExtraInfo != "" {
		o.ExtraInfo = &ExtraInfo{Message: cmd.ExtraInfo, SubmittedAt: now}
	}
	o.refresh()
	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	if s.payments != nil {
		if err := s.payments.Hold(ctx, o.ID, o.ClientID, o.Total); err != nil {
			log.Printf("order %s: escrow hold failed (will retry out of band): %v", o.ID, err)
		}
	}
	s.notify(o.ID, o.ProfessionalID, "order:placed", "A new order was placed for your service.")
	return o, nil
}

type StartWorkCommand struct {
	OrderID string
	ActorID string
}

// StartWork moves a paid order into active work.
func (s *Service) StartWork(ctx context.Context, cmd StartWorkCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if cmd.ActorID != o.ProfessionalID {
		return nil, ErrUnauthorized
	}
	if o.Status != StatusPending {
		return nil, ErrInvalidState
	}
	now := s.now()
	o.WorkStartedAt = &now
	o.refresh()
	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	s.notify(o.ID, o.ClientID, "order:started", "Work on your order has started.")
	return o, nil
}

type SubmitExtraInfoCommand struct {
	OrderID     string
	ActorID     string
	Message     string
	Attachments []Attachment
}

// SubmitExtraInfo records the client's additional-information submission
// (brief, source material). One submission per order.
func (s *Service) SubmitExtraInfo(ctx context.Context, cmd SubmitExtraInfoCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if cmd.ActorID != o.ClientID {
		return nil, ErrUnauthorized
	}
	if o.Terminal() {
		return nil, ErrInvalidState
	}
	if cmd.Message == "" && len(cmd.Attachments) == 0 {
		return nil, fmt.Errorf("%w: nothing to submit", ErrValidation)
	}
	o.ExtraInfo = &ExtraInfo{Message: cmd.Message, Attachments: cmd.Attachments, SubmittedAt: s.now()}
	o.refresh()
	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	s.notify(o.ID, o.ProfessionalID, "order:info", "The client added information to the order.")
	return o, nil
}

type SubmitDeliveryCommand struct {
	OrderID        string
	ActorID        string
	Message        string
	Attachments    []Attachment
	MilestoneIndex *int
}

// SubmitDelivery appends a numbered delivery and moves the order to delivered.
// A revision in progress is closed as completed by the redelivery.
func (s *Service) SubmitDelivery(ctx context.Context, cmd SubmitDeliveryCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if cmd.ActorID != o.ProfessionalID {
		return nil, ErrUnauthorized
	}
	if o.Status != StatusActive && o.Status != StatusRevision {
		return nil, ErrInvalidState
	}
	if cmd.Message == "" && len(cmd.Attachments) == 0 {
		return nil, fmt.Errorf("%w: delivery needs a message or at least one file", ErrValidation)
	}
	if cmd.MilestoneIndex != nil && (*cmd.MilestoneIndex < 0 || *cmd.MilestoneIndex >= len(o.Milestones)) {
		return nil, fmt.Errorf("%w: milestone index out of range", ErrValidation)
	}
	now := s.now()
	o.Deliveries = append(o.Deliveries, Delivery{
		Number:         len(o.Deliveries) + 1,
		Message:        cmd.Message,
		Attachments:    cmd.Attachments,
		MilestoneIndex: cmd.MilestoneIndex,
		DeliveredAt:    now,
	})
	if o.Revision != nil && (o.Revision.Status == RevisionPending || o.Revision.Status == RevisionInProgress) {
		o.Revision.Status = RevisionCompleted
		o.Revision.RespondedAt = &now
	}
	o.refresh()
	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	s.notify(o.ID, o.ClientID, "order:delivered", "Your order has been delivered. Review and accept to complete it.")
	return o, nil
}

type RequestRevisionCommand struct {
	OrderID        string
	ActorID        string
	Reason         string
	MilestoneIndex *int
}

func (s *Service) RequestRevision(ctx context.Context, cmd RequestRevisionCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if cmd.ActorID != o.ClientID {
		return nil, ErrUnauthorized
	}
	if o.Status != StatusDelivered {
		return nil, ErrInvalidState
	}
	if cmd.Reason == "" {
		return nil, fmt.Errorf("%w: revision reason required", ErrValidation)
	}
	if cmd.MilestoneIndex != nil && (*cmd.MilestoneIndex < 0 || *cmd.MilestoneIndex >= len(o.Milestones)) {
		return nil, fmt.Errorf("%w: milestone index out of range", ErrValidation)
	}
	o.Revision = &Revision{
		Status:         RevisionPending,
		Reason:         cmd.Reason,
		MilestoneIndex: cmd.MilestoneIndex,
		RequestedAt:    s.now(),
	}
	o.refresh()
	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	s.notify(o.ID, o.ProfessionalID, "order:revision_requested", "The client requested a revision.")
	return o, nil
}

type RespondToRevisionCommand struct {
	OrderID string
	ActorID string
	Accept  bool
	Note    string
}

func (s *Service) RespondToRevision(ctx context.Context, cmd RespondToRevisionCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if cmd.ActorID != o.ProfessionalID {
		return nil, ErrUnauthorized
	}
	if o.Status != StatusRevision || o.Revision == nil || o.Revision.Status != RevisionPending {
		return nil, ErrInvalidState
	}
	now := s.now()
	if cmd.Accept {
		o.Revision.Status = RevisionInProgress
	} else {
		o.Revision.Status = RevisionRejected
	}
	o.Revision.ResponseNote = cmd.Note
	o.Revision.RespondedAt = &now
	o.refresh()
	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	if cmd.Accept {
		s.notify(o.ID, o.ClientID, "order:revision_accepted", "The professional accepted your revision request.")
	} else {
		s.notify(o.ID, o.ClientID, "order:revision_rejected", "The professional rejected your revision request.")
	}
	return o, nil
}

type RequestCancellationCommand struct {
	OrderID     string
	ActorID     string
	Reason      string
	Attachments []Attachment
}

func (s *Service) RequestCancellation(ctx context.Context, cmd RequestCancellationCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !o.Party(cmd.ActorID) {
		return nil, ErrUnauthorized
	}
	if o.Terminal() || o.Dispute.Active() {
		return nil, ErrInvalidState
	}
	if o.Cancellation != nil && o.Cancellation.Status == CancellationPending {
		return nil, ErrInvalidState
	}
	if cmd.Reason == "" {
		return nil, fmt.Errorf("%w: cancellation reason required", ErrValidation)
	}
	now := s.now()
	o.Cancellation = &Cancellation{
		Status:      CancellationPending,
		RequesterID: cmd.ActorID,
		Reason:      cmd.Reason,
		Attachments: cmd.Attachments,
		RespondBy:   now.Add(s.deadlines.CancelResponse),
		RequestedAt: now,
	}
	o.refresh()
	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	s.notify(o.ID, o.Counterparty(cmd.ActorID), "order:cancellation_requested",
		"The other party asked to cancel the order. Respond before the deadline or it is approved automatically.")
	return o, nil
}

type RespondToCancellationCommand struct {
	OrderID         string
	ActorID         string
	Approve         bool
	RejectionReason string
}

func (s *Service) RespondToCancellation(ctx context.Context, cmd RespondToCancellationCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusCancellationPending || o.Cancellation == nil || o.Cancellation.Status != CancellationPending {
		return nil, ErrInvalidState
	}
	// Only the counterparty of the requester may answer.
	if !o.Party(cmd.ActorID) || cmd.ActorID == o.Cancellation.RequesterID {
		return nil, ErrUnauthorized
	}
	if !cmd.Approve && cmd.RejectionReason == "" {
		return nil, fmt.Errorf("%w: rejection reason required", ErrValidation)
	}
	now := s.now()
	o.Cancellation.ResolvedAt = &now
	if cmd.Approve {
		o.Cancellation.Status = CancellationApproved
		o.CancelledAt = &now
	} else {
		o.Cancellation.Status = CancellationRejected
		o.Cancellation.RejectionReason = cmd.RejectionReason
	}
	o.refresh()
	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	if cmd.Approve {
		s.refundEscrow(ctx, o)
		s.notify(o.ID, o.Cancellation.RequesterID, "order:cancelled", "Your cancellation request was approved.")
	} else {
		s.notify(o.ID, o.Cancellation.RequesterID, "order:cancellation_rejected", "Your cancellation request was rejected.")
	}
	return o, nil
}

type WithdrawCancellationCommand struct {
	OrderID string
	ActorID string
	Reason  string
}

func (s *Service) WithdrawCancellation(ctx context.Context, cmd WithdrawCancellationCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusCancellationPending || o.Cancellation == nil || o.Cancellation.Status != CancellationPending {
		return nil, ErrInvalidState
	}
	if cmd.ActorID != o.Cancellation.RequesterID {
		return nil, ErrUnauthorized
	}
	now := s.now()
	o.Cancellation.Status = CancellationWithdrawn
	o.Cancellation.ResolvedAt = &now
	o.refresh()
	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	s.notify(o.ID, o.Counterparty(cmd.ActorID), "order:cancellation_withdrawn", "The cancellation request was withdrawn.")
	return o, nil
}

type RequestExtensionCommand struct {
	OrderID      string
	ActorID      string
	ProposedDueAt time.Time
	Reason       string
}

// RequestExtension is only valid inside the configured pre-deadline window and
// never after the current due date has passed.
func (s *Service) RequestExtension(ctx context.Context, cmd RequestExtensionCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if cmd.ActorID != o.ProfessionalID {
		return nil, ErrUnauthorized
	}
	if o.Status != StatusActive && o.Status != StatusRevision {
		return nil, ErrInvalidState
	}
	if o.Extension != nil && o.Extension.Status == ExtensionPending {
		return nil, ErrInvalidState
	}
	if o.DueAt == nil {
		return nil, fmt.Errorf("%w: order has no scheduled delivery date", ErrValidation)
	}
	now := s.now()
	if now.After(*o.DueAt) {
		return nil, fmt.Errorf("%w: delivery date already passed", ErrValidation)
	}
	if o.DueAt.Sub(now) > s.deadlines.ExtensionEligibility {
		return nil, fmt.Errorf("%w: too early to request an extension", ErrValidation)
	}
	if !cmd.ProposedDueAt.After(*o.DueAt) {
		return nil, fmt.Errorf("%w: proposed date must be after the current one", ErrValidation)
	}
	o.Extension = &Extension{
		Status:       ExtensionPending,
		ProposedDueAt: cmd.ProposedDueAt,
		Reason:       cmd.Reason,
		RespondBy:    now.Add(s.deadlines.ExtensionResponse),
		RequestedAt:  now,
	}
	o.refresh()
	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	s.notify(o.ID, o.ClientID, "order:extension_requested", "The professional asked for more time on your order.")
	return o, nil
}

type RespondToExtensionCommand struct {
	OrderID string
	ActorID string
	Approve bool
}

func (s *Service) RespondToExtension(ctx context.Context, cmd RespondToExtensionCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if cmd.ActorID != o.ClientID {
		return nil, ErrUnauthorized
	}
	if o.Extension == nil || o.Extension.Status != ExtensionPending {
		return nil, ErrInvalidState
	}
	now := s.now()
	o.Extension.ResolvedAt = &now
	if cmd.Approve {
		o.Extension.Status = ExtensionApproved
		d := o.Extension.ProposedDueAt
		o.DueAt = &d
	} else {
		o.Extension.Status = ExtensionRejected
	}
	o.refresh()
	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	if cmd.Approve {
		s.notify(o.ID, o.ProfessionalID, "order:extension_approved", "Your extension request was approved.")
	} else {
		s.notify(o.ID, o.ProfessionalID, "order:extension_rejected", "Your extension request was rejected.")
	}
	return o, nil
}

type OpenDisputeCommand struct {
	OrderID           string
	ActorID           string
	Requirements      string
	UnmetRequirements string
	Evidence          []Attachment
	OfferAmount       int64
	MilestoneIndexes  []int
}

func (s *Service) OpenDispute(ctx context.Context, cmd OpenDisputeCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !o.Party(cmd.ActorID) {
		return nil, ErrUnauthorized
	}
	if o.Status != StatusDelivered && o.Status != StatusCompleted {
		return nil, ErrInvalidState
	}
	if o.Dispute.Active() {
		return nil, ErrInvalidState
	}
	if len(cmd.Evidence) == 0 {
		return nil, fmt.Errorf("%w: a dispute needs at least one evidence attachment", ErrValidation)
	}
	now := s.now()
	if last := o.LatestDelivery(); last != nil && now.Sub(last.DeliveredAt) > s.deadlines.DisputeWindow {
		return nil, fmt.Errorf("%w: dispute window has closed", ErrValidation)
	}
	if len(cmd.MilestoneIndexes) > 0 {
		sum, ok := o.MilestoneAmountSum(cmd.MilestoneIndexes)
		if !ok {
			return nil, fmt.Errorf("%w: milestone index out of range", ErrValidation)
		}
		if cmd.OfferAmount != sum {
			return nil, fmt.Errorf("%w: offer must equal the selected milestone amounts", ErrValidation)
		}
	} else if cmd.OfferAmount <= 0 || cmd.OfferAmount > o.Total {
		return nil, fmt.Errorf("%w: offer must be between zero and the order total", ErrValidation)
	}
	if err := o.raiseOffer(cmd.ActorID, cmd.OfferAmount); err != nil {
		return nil, err
	}
	o.Dispute = &Dispute{
		Status:            DisputeOpen,
		OpenerID:          cmd.ActorID,
		Requirements:      cmd.Requirements,
		UnmetRequirements: cmd.UnmetRequirements,
		Evidence:          cmd.Evidence,
		OfferAmount:       cmd.OfferAmount,
		MilestoneIndexes:  cmd.MilestoneIndexes,
		RespondBy:         now.Add(s.deadlines.CancelResponse),
		OpenedAt:          now,
	}
	o.refresh()
	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	s.notify(o.ID, o.Counterparty(cmd.ActorID), "order:dispute_opened", "A dispute was opened on the order.")
	return o, nil
}

type RespondToDisputeCommand struct {
	OrderID      string
	ActorID      string
	Message      string
	CounterOffer *int64
}

func (s *Service) RespondToDispute(ctx context.Context, cmd RespondToDisputeCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !o.Party(cmd.ActorID) {
		return nil, ErrUnauthorized
	}
	if !o.Dispute.Active() {
		return nil, ErrInvalidState
	}
	if cmd.Message == "" && cmd.CounterOffer == nil {
		return nil, fmt.Errorf("%w: empty dispute response", ErrValidation)
	}
	if cmd.CounterOffer != nil {
		if *cmd.CounterOffer <= 0 || *cmd.CounterOffer > o.Total {
			return nil, fmt.Errorf("%w: offer must be between zero and the order total", ErrValidation)
		}
		if err := o.raiseOffer(cmd.ActorID, *cmd.CounterOffer); err != nil {
			return nil, err
		}
		o.Dispute.OfferAmount = *cmd.CounterOffer
	}
	o.Dispute.Transcript = append(o.Dispute.Transcript, DisputeMessage{
		SenderID: cmd.ActorID,
		Message:  cmd.Message,
		Offer:    cmd.CounterOffer,
		SentAt:   s.now(),
	})
	o.refresh()
	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	s.notify(o.ID, o.Counterparty(cmd.ActorID), "order:dispute_response", "New response in the order dispute.")
	return o, nil
}

type RequestArbitrationCommand struct {
	OrderID string
	ActorID string
}

func (s *Service) RequestArbitration(ctx context.Context, cmd RequestArbitrationCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !o.Party(cmd.ActorID) {
		return nil, ErrUnauthorized
	}
	if o.Dispute == nil || o.Dispute.Status != DisputeOpen {
		return nil, ErrInvalidState
	}
	o.Dispute.Status = DisputeUnderArbitration
	o.refresh()
	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	s.notify(o.ID, o.Counterparty(cmd.ActorID), "order:arbitration_requested", "The dispute was escalated to arbitration.")
	return o, nil
}

type CancelDisputeCommand struct {
	OrderID string
	ActorID string
}

// CancelDispute lets the opener withdraw; the order falls back to the state
// its other sub-records imply.
func (s *Service) CancelDispute(ctx context.Context, cmd CancelDisputeCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !o.Dispute.Active() {
		return nil, ErrInvalidState
	}
	if cmd.ActorID != o.Dispute.OpenerID {
		return nil, ErrUnauthorized
	}
	now := s.now()
	o.Dispute.Status = DisputeWithdrawn
	o.Dispute.ClosedAt = &now
	o.refresh()
	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	s.notify(o.ID, o.Counterparty(cmd.ActorID), "order:dispute_withdrawn", "The dispute was withdrawn.")
	return o, nil
}

type ResolveDisputeCommand struct {
	OrderID   string
	ArbiterID string
	Complete  bool  // true: completed with adjusted payout; false: cancelled
	Payout    int64 // amount released to the professional when completing
}

// ResolveDispute accepts the arbitration outcome as a terminal input. Caller
// is responsible for verifying the arbiter role; actors party to the order are
// rejected here regardless.
func (s *Service) ResolveDispute(ctx context.Context, cmd ResolveDisputeCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if o.Party(cmd.ArbiterID) {
		return nil, ErrUnauthorized
	}
	if o.Dispute == nil || o.Dispute.Status != DisputeUnderArbitration {
		return nil, ErrInvalidState
	}
	now := s.now()
	o.Dispute.ClosedAt = &now
	o.Dispute.ResolvedBy = cmd.ArbiterID
	if cmd.Complete {
		if cmd.Payout < 0 || cmd.Payout > o.Total {
			return nil, fmt.Errorf("%w: payout must be between zero and the order total", ErrValidation)
		}
		o.Dispute.Status = DisputeResolvedCompleted
		payout := cmd.Payout
		o.Dispute.Payout = &payout
		o.CompletedAt = &now
	} else {
		o.Dispute.Status = DisputeResolvedCancelled
		o.CancelledAt = &now
	}
	o.refresh()
	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	if cmd.Complete {
		if s.payments != nil {
			if err := s.payments.Split(ctx, o.ID, o.ClientID, o.ProfessionalID, cmd.Payout, o.Total-cmd.Payout); err != nil {
				log.Printf("order %s: escrow split failed (will retry out of band): %v", o.ID, err)
			}
		}
	} else {
		s.refundEscrow(ctx, o)
	}
	s.notify(o.ID, o.ClientID, "order:dispute_resolved", "The dispute on your order was resolved.")
	s.notify(o.ID, o.ProfessionalID, "order:dispute_resolved", "The dispute on your order was resolved.")
	return o, nil
}

type CompleteCommand struct {
	OrderID string
	ActorID string
}

// Complete records explicit client acceptance of the delivery, releases the
// escrow and unlocks review submission.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if cmd.ActorID != o.ClientID {
		return nil, ErrUnauthorized
	}
	if o.Status != StatusDelivered {
		return nil, ErrInvalidState
	}
	now := s.now()
	o.CompletedAt = &now
	o.refresh()
	if err := s.store.Update(ctx, o); err != nil {
		return nil, err
	}
	s.releaseEscrow(ctx, o)
	s.notify(o.ID, o.ProfessionalID, "order:completed", "The order was completed and the funds released to your wallet.")
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	return s.store.ListByUser(ctx, userID)
}

// raiseOffer enforces that a party's settlement offers never decrease across
// disputes on the same order.
func (o *Order) raiseOffer(partyID string, amount int64) error {
	if floor, ok := o.OfferFloors[partyID]; ok && amount < floor {
		return fmt.Errorf("%w: offer below this party's previous offer", ErrValidation)
	}
	if o.OfferFloors == nil {
		o.OfferFloors = make(map[string]int64)
	}
	o.OfferFloors[partyID] = amount
	return nil
}

func (s *Service) notify(orderID, recipientID, kind, body string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(orderID, recipientID, kind, body)
}

func (s *Service) refundEscrow(ctx context.Context, o *Order) {
	if s.payments == nil {
		return
	}
	if err := s.payments.Refund(ctx, o.ID, o.ClientID, o.Total); err != nil {
		log.Printf("order %s: escrow refund failed (will retry out of band): %v", o.ID, err)
	}
}

func (s *Service) releaseEscrow(ctx context.Context, o *Order) {
	if s.payments == nil {
		return
	}
	if err := s.payments.Release(ctx, o.ID, o.ClientID, o.ProfessionalID, o.Total); err != nil {
		log.Printf("order %s: escrow release failed (will retry out of band): %v", o.ID, err)
	}
}
