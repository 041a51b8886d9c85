package order

import "time"

type Status string

const (
	StatusPending             Status = "pending"
	StatusActive              Status = "active"
	StatusDelivered           Status = "delivered"
	StatusRevision            Status = "revision"
	StatusDisputed            Status = "disputed"
	StatusCancellationPending Status = "cancellation_pending"
	StatusCompleted           Status = "completed"
	StatusCancelled           Status = "cancelled"
)

// Delivery sub-states reported alongside the main status.
const (
	DeliveryNone       = "none"
	DeliverySubmitted  = "submitted"
	DeliveryInRevision = "in_revision"
	DeliveryAccepted   = "accepted"
)

type RevisionStatus string

const (
	RevisionPending    RevisionStatus = "pending"
	RevisionInProgress RevisionStatus = "in_progress"
	RevisionCompleted  RevisionStatus = "completed"
	RevisionRejected   RevisionStatus = "rejected"
)

type CancellationStatus string

const (
	CancellationPending   CancellationStatus = "pending"
	CancellationApproved  CancellationStatus = "approved"
	CancellationRejected  CancellationStatus = "rejected"
	CancellationWithdrawn CancellationStatus = "withdrawn"
)

type ExtensionStatus string

const (
	ExtensionPending  ExtensionStatus = "pending"
	ExtensionApproved ExtensionStatus = "approved"
	ExtensionRejected ExtensionStatus = "rejected"
)

type DisputeStatus string

const (
	DisputeOpen              DisputeStatus = "open"
	DisputeUnderArbitration  DisputeStatus = "under_arbitration"
	DisputeResolvedCompleted DisputeStatus = "resolved_completed"
	DisputeResolvedCancelled DisputeStatus = "resolved_cancelled"
	DisputeWithdrawn         DisputeStatus = "withdrawn"
)

// Attachment is an opaque reference into the external file service.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type LineItem struct {
	Title     string `json:"title"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type Milestone struct {
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	UnitPrice        int64  `json:"unit_price"`
	Quantity         int    `json:"quantity"`
	DeliveryOffsetDays int  `json:"delivery_offset_days"`
}

// Amount is the milestone's share of the order total.
func (m Milestone) Amount() int64 {
	return m.UnitPrice * int64(m.Quantity)
}

// Delivery is one submission of completed work. Orders may accumulate several
// (one per redelivery after a revision); Number follows chronological order.
type Delivery struct {
	Number         int          `json:"number"`
	Message        string       `json:"message,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	MilestoneIndex *int         `json:"milestone_index,omitempty"`
	DeliveredAt    time.Time    `json:"delivered_at"`
}

type Revision struct {
	Status         RevisionStatus `json:"status"`
	Reason         string         `json:"reason"`
	MilestoneIndex *int           `json:"milestone_index,omitempty"`
	ResponseNote   string         `json:"response_note,omitempty"`
	RequestedAt    time.Time      `json:"requested_at"`
	RespondedAt    *time.Time     `json:"responded_at,omitempty"`
}

type Cancellation struct {
	Status          CancellationStatus `json:"status"`
	RequesterID     string             `json:"requester_id"`
	Reason          string             `json:"reason"`
	Attachments     []Attachment       `json:"attachments,omitempty"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	RespondBy       time.Time          `json:"respond_by"`
	RequestedAt     time.Time          `json:"requested_at"`
	ResolvedAt      *time.Time         `json:"resolved_at,omitempty"`
	AutoResolved    bool               `json:"auto_resolved,omitempty"`
}

type Extension struct {
	Status       ExtensionStatus `json:"status"`
	ProposedDueAt time.Time      `json:"proposed_due_at"`
	Reason       string          `json:"reason"`
	RespondBy    time.Time       `json:"respond_by"`
	RequestedAt  time.Time       `json:"requested_at"`
	ResolvedAt   *time.Time      `json:"resolved_at,omitempty"`
	AutoResolved bool            `json:"auto_resolved,omitempty"`
}

// DisputeMessage is one transcript entry; a message may carry a settlement
// counter-offer.
type DisputeMessage struct {
	SenderID string    `json:"sender_id"`
	Message  string    `json:"message"`
	Offer    *int64    `json:"offer,omitempty"`
	SentAt   time.Time `json:"sent_at"`
}

type Dispute struct {
	Status            DisputeStatus    `json:"status"`
	OpenerID          string           `json:"opener_id"`
	Requirements      string           `json:"requirements"`
	UnmetRequirements string           `json:"unmet_requirements"`
	Evidence          []Attachment     `json:"evidence"`
	OfferAmount       int64            `json:"offer_amount"`
	MilestoneIndexes  []int            `json:"milestone_indexes,omitempty"`
	Transcript        []DisputeMessage `json:"transcript,omitempty"`
	RespondBy         time.Time        `json:"respond_by"`
	OpenedAt          time.Time        `json:"opened_at"`
	ClosedAt          *time.Time       `json:"closed_at,omitempty"`
	Payout            *int64           `json:"payout,omitempty"`
	ResolvedBy        string           `json:"resolved_by,omitempty"`
}

// Active reports whether the dispute still blocks the order.
func (d *Dispute) Active() bool {
	return d != nil && (d.Status == DisputeOpen || d.Status == DisputeUnderArbitration)
}

// ExtraInfo is an additional-information submission from the client after
// purchase (briefs, credentials, source material).
type ExtraInfo struct {
	Message     string       `json:"message"`
	Attachments []Attachment `json:"attachments,omitempty"`
	SubmittedAt time.Time    `json:"submitted_at"`
}

// Order is the authoritative record for one purchase. Status is never set by
// hand outside the service: every write recomputes it from the sub-records via
// Derive so the two can never disagree.
type Order struct {
	ID             string `json:"id"`
	ServiceID      string `json:"service_id"`
	ClientID       string `json:"client_id"`
	ProfessionalID string `json:"professional_id"`

	Subtotal   int64 `json:"subtotal"`
	Discount   int64 `json:"discount"`
	ServiceFee int64 `json:"service_fee"`
	Total      int64 `json:"total"`

	Status         Status `json:"status"`
	DeliveryStatus string `json:"delivery_status"`
	Version        int    `json:"version"`

	Items      []LineItem  `json:"items"`
	Milestones []Milestone `json:"milestones,omitempty"`

	Deliveries   []Delivery    `json:"deliveries,omitempty"`
	Revision     *Revision     `json:"revision,omitempty"`
	Cancellation *Cancellation `json:"cancellation,omitempty"`
	Extension    *Extension    `json:"extension,omitempty"`
	Dispute      *Dispute      `json:"dispute,omitempty"`
	ExtraInfo    *ExtraInfo    `json:"extra_info,omitempty"`

	// OfferFloors tracks the highest settlement offer each party has made on
	// this order; later offers may never drop below it.
	OfferFloors map[string]int64 `json:"offer_floors,omitempty"`

	CreatedAt     time.Time  `json:"created_at"`
	WorkStartedAt *time.Time `json:"work_started_at,omitempty"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

// Derive computes the lifecycle status from the sub-records. Exactly one
// status describes the order at any instant; precedence runs from the records
// that block everything else (open dispute, terminal timestamps) down to the
// plain progress markers.
func (o *Order) Derive() Status {
	switch {
	case o.Dispute.Active():
		return StatusDisputed
	case o.CancelledAt != nil:
		return StatusCancelled
	case o.CompletedAt != nil:
		return StatusCompleted
	case o.Cancellation != nil && o.Cancellation.Status == CancellationPending:
		return StatusCancellationPending
	case o.Revision != nil && (o.Revision.Status == RevisionPending || o.Revision.Status == RevisionInProgress):
		return StatusRevision
	case len(o.Deliveries) > 0:
		return StatusDelivered
	case o.WorkStartedAt != nil:
		return StatusActive
	default:
		return StatusPending
	}
}

// DeriveDeliveryStatus computes the delivery sub-state shown next to the
// status.
func (o *Order) DeriveDeliveryStatus() string {
	switch {
	case len(o.Deliveries) == 0:
		return DeliveryNone
	case o.CompletedAt != nil:
		return DeliveryAccepted
	case o.Revision != nil && (o.Revision.Status == RevisionPending || o.Revision.Status == RevisionInProgress):
		return DeliveryInRevision
	default:
		return DeliverySubmitted
	}
}

// refresh recomputes the derived fields after a mutation.
func (o *Order) refresh() {
	o.Status = o.Derive()
	o.DeliveryStatus = o.DeriveDeliveryStatus()
}

// Terminal reports whether the order has reached completed or cancelled.
func (o *Order) Terminal() bool {
	s := o.Derive()
	return s == StatusCompleted || s == StatusCancelled
}

// Party reports whether userID is the client or the professional.
func (o *Order) Party(userID string) bool {
	return userID == o.ClientID || userID == o.ProfessionalID
}

// Counterparty returns the other side of the order.
func (o *Order) Counterparty(userID string) string {
	if userID == o.ClientID {
		return o.ProfessionalID
	}
	return o.ClientID
}

// LatestDelivery returns the most recent delivery, or nil.
func (o *Order) LatestDelivery() *Delivery {
	if len(o.Deliveries) == 0 {
		return nil
	}
	latest := &o.Deliveries[0]
	for i := range o.Deliveries {
		if o.Deliveries[i].DeliveredAt.After(latest.DeliveredAt) {
			latest = &o.Deliveries[i]
		}
	}
	return latest
}

// MilestoneAmountSum adds up the amounts of the selected milestones.
// The bool is false if any index is out of range.
func (o *Order) MilestoneAmountSum(indexes []int) (int64, bool) {
	var sum int64
	for _, idx := range indexes {
		if idx < 0 || idx >= len(o.Milestones) {
			return 0, false
		}
		sum += o.Milestones[idx].Amount()
	}
	return sum, true
}
