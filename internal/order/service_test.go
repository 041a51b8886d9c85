package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gigplane/gigplane/internal/config"
)

type paymentCall struct {
	Op      string
	OrderID string
	Amount  int64
	Payout  int64
	Refund  int64
}

type fakePayments struct {
	mu    sync.Mutex
	calls []paymentCall
}

func (f *fakePayments) Hold(_ context.Context, orderID, _ string, amount int64) error {
	f.record(paymentCall{Op: "hold", OrderID: orderID, Amount: amount})
	return nil
}

func (f *fakePayments) Release(_ context.Context, orderID, _, _ string, amount int64) error {
	f.record(paymentCall{Op: "release", OrderID: orderID, Amount: amount})
	return nil
}

func (f *fakePayments) Refund(_ context.Context, orderID, _ string, amount int64) error {
	f.record(paymentCall{Op: "refund", OrderID: orderID, Amount: amount})
	return nil
}

func (f *fakePayments) Split(_ context.Context, orderID, _, _ string, payout, refund int64) error {
	f.record(paymentCall{Op: "split", OrderID: orderID, Payout: payout, Refund: refund})
	return nil
}

func (f *fakePayments) record(c paymentCall) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakePayments) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Op
	}
	return out
}

type fakeNotifier struct {
	mu    sync.Mutex
	kinds []string
}

func (f *fakeNotifier) Notify(_, _, kind, _ string) {
	f.mu.Lock()
	f.kinds = append(f.kinds, kind)
	f.mu.Unlock()
}

func testDeadlines() config.Deadlines {
	return config.Deadlines{
		CancelResponse:       48 * time.Hour,
		ExtensionEligibility: 24 * time.Hour,
		ExtensionResponse:    24 * time.Hour,
		Acceptance:           72 * time.Hour,
		DisputeWindow:        14 * 24 * time.Hour,
	}
}

func newTestService(t *testing.T) (*Service, *fakePayments, *fakeNotifier) {
	t.Helper()
	p := &fakePayments{}
	n := &fakeNotifier{}
	return NewService(NewMemStore(), testDeadlines(), p, n), p, n
}

func createOrder(t *testing.T, svc *Service, cmd CreateCommand) *Order {
	t.Helper()
	if cmd.ClientID == "" {
		cmd.ClientID = "client-1"
	}
	if cmd.ProfessionalID == "" {
		cmd.ProfessionalID = "pro-1"
	}
	if cmd.ServiceID == "" {
		cmd.ServiceID = "svc-1"
	}
	if len(cmd.Items) == 0 {
		cmd.Items = []LineItem{{Title: "Logo design", UnitPrice: 10000, Quantity: 1}}
	}
	o, err := svc.Create(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return o
}

func deliveredOrder(t *testing.T, svc *Service) *Order {
	t.Helper()
	o := createOrder(t, svc, CreateCommand{})
	ctx := context.Background()
	if _, err := svc.StartWork(ctx, StartWorkCommand{OrderID: o.ID, ActorID: o.ProfessionalID}); err != nil {
		t.Fatalf("StartWork: %v", err)
	}
	o, err := svc.SubmitDelivery(ctx, SubmitDeliveryCommand{OrderID: o.ID, ActorID: o.ProfessionalID, Message: "done"})
	if err != nil {
		t.Fatalf("SubmitDelivery: %v", err)
	}
	return o
}

func TestCreateComputesTotals(t *testing.T) {
	svc, p, _ := newTestService(t)

	o := createOrder(t, svc, CreateCommand{
		Items:      []LineItem{{Title: "Design", UnitPrice: 5000, Quantity: 2}},
		Discount:   1000,
		ServiceFee: 500,
	})

	if o.Subtotal != 10000 {
		t.Fatalf("subtotal = %d, want 10000", o.Subtotal)
	}
	if o.Total != 9500 {
		t.Fatalf("total = %d, want 9500", o.Total)
	}
	if o.Status != StatusPending {
		t.Fatalf("status = %s, want %s", o.Status, StatusPending)
	}
	ops := p.ops()
	if len(ops) != 1 || ops[0] != "hold" {
		t.Fatalf("payment ops = %v, want [hold]", ops)
	}
	if p.calls[0].Amount != 9500 {
		t.Fatalf("held amount = %d, want 9500", p.calls[0].Amount)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		cmd  CreateCommand
	}{
		{"no items", CreateCommand{ClientID: "c", ProfessionalID: "p", ServiceID: "s"}},
		{"same parties", CreateCommand{ClientID: "c", ProfessionalID: "c", ServiceID: "s",
			Items: []LineItem{{UnitPrice: 100, Quantity: 1}}}},
		{"negative price", CreateCommand{ClientID: "c", ProfessionalID: "p", ServiceID: "s",
			Items: []LineItem{{UnitPrice: -100, Quantity: 1}}}},
		{"negative discount", CreateCommand{ClientID: "c", ProfessionalID: "p", ServiceID: "s",
			Items: []LineItem{{UnitPrice: 100, Quantity: 1}}, Discount: -1}},
		{"discount exceeds value", CreateCommand{ClientID: "c", ProfessionalID: "p", ServiceID: "s",
			Items: []LineItem{{UnitPrice: 100, Quantity: 1}}, Discount: 200}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.cmd); !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestStartWork(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	o := createOrder(t, svc, CreateCommand{})

	if _, err := svc.StartWork(ctx, StartWorkCommand{OrderID: o.ID, ActorID: o.ClientID}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("client start err = %v, want ErrUnauthorized", err)
	}

	got, err := svc.StartWork(ctx, StartWorkCommand{OrderID: o.ID, ActorID: o.ProfessionalID})
	if err != nil {
		t.Fatalf("StartWork: %v", err)
	}
	if got.Status != StatusActive {
		t.Fatalf("status = %s, want %s", got.Status, StatusActive)
	}

	if _, err := svc.StartWork(ctx, StartWorkCommand{OrderID: o.ID, ActorID: o.ProfessionalID}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second start err = %v, want ErrInvalidState", err)
	}
}

func TestDeliveryAndComplete(t *testing.T) {
	svc, p, _ := newTestService(t)
	ctx := context.Background()
	o := deliveredOrder(t, svc)

	if o.Status != StatusDelivered {
		t.Fatalf("status = %s, want %s", o.Status, StatusDelivered)
	}
	if len(o.Deliveries) != 1 || o.Deliveries[0].Number != 1 {
		t.Fatalf("deliveries = %+v, want one numbered 1", o.Deliveries)
	}

	if _, err := svc.Complete(ctx, CompleteCommand{OrderID: o.ID, ActorID: o.ProfessionalID}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("professional complete err = %v, want ErrUnauthorized", err)
	}

	got, err := svc.Complete(ctx, CompleteCommand{OrderID: o.ID, ActorID: o.ClientID})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %s, want %s", got.Status, StatusCompleted)
	}
	ops := p.ops()
	if ops[len(ops)-1] != "release" {
		t.Fatalf("payment ops = %v, want release last", ops)
	}
}

func TestEmptyDeliveryRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	o := createOrder(t, svc, CreateCommand{})
	if _, err := svc.StartWork(ctx, StartWorkCommand{OrderID: o.ID, ActorID: o.ProfessionalID}); err != nil {
		t.Fatalf("StartWork: %v", err)
	}
	_, err := svc.SubmitDelivery(ctx, SubmitDeliveryCommand{OrderID: o.ID, ActorID: o.ProfessionalID})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestRevisionRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	o := deliveredOrder(t, svc)

	if _, err := svc.RequestRevision(ctx, RequestRevisionCommand{OrderID: o.ID, ActorID: o.ClientID}); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty reason err = %v, want ErrValidation", err)
	}

	got, err := svc.RequestRevision(ctx, RequestRevisionCommand{OrderID: o.ID, ActorID: o.ClientID, Reason: "wrong colors"})
	if err != nil {
		t.Fatalf("RequestRevision: %v", err)
	}
	if got.Status != StatusRevision {
		t.Fatalf("status = %s, want %s", got.Status, StatusRevision)
	}

	got, err = svc.RespondToRevision(ctx, RespondToRevisionCommand{OrderID: o.ID, ActorID: o.ProfessionalID, Accept: true})
	if err != nil {
		t.Fatalf("RespondToRevision: %v", err)
	}
	if got.Revision.Status != RevisionInProgress {
		t.Fatalf("revision status = %s, want %s", got.Revision.Status, RevisionInProgress)
	}

	// Redelivery closes the revision and returns to delivered.
	got, err = svc.SubmitDelivery(ctx, SubmitDeliveryCommand{OrderID: o.ID, ActorID: o.ProfessionalID, Message: "fixed"})
	if err != nil {
		t.Fatalf("SubmitDelivery: %v", err)
	}
	if got.Status != StatusDelivered {
		t.Fatalf("status = %s, want %s", got.Status, StatusDelivered)
	}
	if got.Revision.Status != RevisionCompleted {
		t.Fatalf("revision status = %s, want %s", got.Revision.Status, RevisionCompleted)
	}
	if len(got.Deliveries) != 2 || got.Deliveries[1].Number != 2 {
		t.Fatalf("deliveries = %d, second number = %d, want 2 and 2", len(got.Deliveries), got.Deliveries[1].Number)
	}
}

func TestRevisionRejectedRestoresDelivered(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	o := deliveredOrder(t, svc)

	if _, err := svc.RequestRevision(ctx, RequestRevisionCommand{OrderID: o.ID, ActorID: o.ClientID, Reason: "too dark"}); err != nil {
		t.Fatalf("RequestRevision: %v", err)
	}
	got, err := svc.RespondToRevision(ctx, RespondToRevisionCommand{OrderID: o.ID, ActorID: o.ProfessionalID, Accept: false, Note: "out of scope"})
	if err != nil {
		t.Fatalf("RespondToRevision: %v", err)
	}
	if got.Status != StatusDelivered {
		t.Fatalf("status = %s, want %s", got.Status, StatusDelivered)
	}
}

func TestCancellationApproved(t *testing.T) {
	svc, p, _ := newTestService(t)
	ctx := context.Background()
	o := createOrder(t, svc, CreateCommand{})

	got, err := svc.RequestCancellation(ctx, RequestCancellationCommand{OrderID: o.ID, ActorID: o.ClientID, Reason: "changed my mind"})
	if err != nil {
		t.Fatalf("RequestCancellation: %v", err)
	}
	if got.Status != StatusCancellationPending {
		t.Fatalf("status = %s, want %s", got.Status, StatusCancellationPending)
	}

	// The requester cannot answer their own request.
	if _, err := svc.RespondToCancellation(ctx, RespondToCancellationCommand{OrderID: o.ID, ActorID: o.ClientID, Approve: true}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("requester respond err = %v, want ErrUnauthorized", err)
	}

	got, err = svc.RespondToCancellation(ctx, RespondToCancellationCommand{OrderID: o.ID, ActorID: o.ProfessionalID, Approve: true})
	if err != nil {
		t.Fatalf("RespondToCancellation: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("status = %s, want %s", got.Status, StatusCancelled)
	}
	ops := p.ops()
	if ops[len(ops)-1] != "refund" {
		t.Fatalf("payment ops = %v, want refund last", ops)
	}
}

func TestCancellationRejectionNeedsReason(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	o := createOrder(t, svc, CreateCommand{})

	if _, err := svc.RequestCancellation(ctx, RequestCancellationCommand{OrderID: o.ID, ActorID: o.ProfessionalID, Reason: "overbooked"}); err != nil {
		t.Fatalf("RequestCancellation: %v", err)
	}
	if _, err := svc.RespondToCancellation(ctx, RespondToCancellationCommand{OrderID: o.ID, ActorID: o.ClientID, Approve: false}); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	got, err := svc.RespondToCancellation(ctx, RespondToCancellationCommand{OrderID: o.ID, ActorID: o.ClientID, Approve: false, RejectionReason: "work is underway"})
	if err != nil {
		t.Fatalf("RespondToCancellation: %v", err)
	}
	if got.Status != StatusPending {
		t.Fatalf("status = %s, want %s after rejection", got.Status, StatusPending)
	}
}

func TestCancellationWithdraw(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	o := createOrder(t, svc, CreateCommand{})

	if _, err := svc.RequestCancellation(ctx, RequestCancellationCommand{OrderID: o.ID, ActorID: o.ClientID, Reason: "mistake"}); err != nil {
		t.Fatalf("RequestCancellation: %v", err)
	}
	if _, err := svc.WithdrawCancellation(ctx, WithdrawCancellationCommand{OrderID: o.ID, ActorID: o.ProfessionalID}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("counterparty withdraw err = %v, want ErrUnauthorized", err)
	}
	got, err := svc.WithdrawCancellation(ctx, WithdrawCancellationCommand{OrderID: o.ID, ActorID: o.ClientID})
	if err != nil {
		t.Fatalf("WithdrawCancellation: %v", err)
	}
	if got.Status != StatusPending {
		t.Fatalf("status = %s, want %s after withdrawal", got.Status, StatusPending)
	}
}

func TestExtensionWindow(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	due := base.Add(5 * 24 * time.Hour)
	o := createOrder(t, svc, CreateCommand{DueAt: &due})
	if _, err := svc.StartWork(ctx, StartWorkCommand{OrderID: o.ID, ActorID: o.ProfessionalID}); err != nil {
		t.Fatalf("StartWork: %v", err)
	}

	proposed := due.Add(48 * time.Hour)

	// Five days out is earlier than the eligibility window allows.
	_, err := svc.RequestExtension(ctx, RequestExtensionCommand{OrderID: o.ID, ActorID: o.ProfessionalID, ProposedDueAt: proposed, Reason: "more time"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("early request err = %v, want ErrValidation", err)
	}

	// Move inside the eligibility window.
	svc.now = func() time.Time { return due.Add(-12 * time.Hour) }
	if _, err := svc.RequestExtension(ctx, RequestExtensionCommand{OrderID: o.ID, ActorID: o.ProfessionalID, ProposedDueAt: due.Add(-1 * time.Hour), Reason: "more time"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("backwards proposal err = %v, want ErrValidation", err)
	}
	got, err := svc.RequestExtension(ctx, RequestExtensionCommand{OrderID: o.ID, ActorID: o.ProfessionalID, ProposedDueAt: proposed, Reason: "more time"})
	if err != nil {
		t.Fatalf("RequestExtension: %v", err)
	}
	if got.Extension == nil || got.Extension.Status != ExtensionPending {
		t.Fatalf("extension = %+v, want pending", got.Extension)
	}

	got, err = svc.RespondToExtension(ctx, RespondToExtensionCommand{OrderID: o.ID, ActorID: o.ClientID, Approve: true})
	if err != nil {
		t.Fatalf("RespondToExtension: %v", err)
	}
	if got.DueAt == nil || !got.DueAt.Equal(proposed) {
		t.Fatalf("due = %v, want %v", got.DueAt, proposed)
	}
}

func TestOpenDisputeValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	evidence := []Attachment{{Name: "diff.png", URL: "https://files/diff.png"}}

	t.Run("not delivered", func(t *testing.T) {
		o := createOrder(t, svc, CreateCommand{})
		_, err := svc.OpenDispute(ctx, OpenDisputeCommand{OrderID: o.ID, ActorID: o.ClientID, UnmetRequirements: "missing files", Evidence: evidence, OfferAmount: 1000})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("err = %v, want ErrInvalidState", err)
		}
	})

	t.Run("no evidence", func(t *testing.T) {
		o := deliveredOrder(t, svc)
		_, err := svc.OpenDispute(ctx, OpenDisputeCommand{OrderID: o.ID, ActorID: o.ClientID, UnmetRequirements: "missing files", OfferAmount: 1000})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
	})

	t.Run("offer above total", func(t *testing.T) {
		o := deliveredOrder(t, svc)
		_, err := svc.OpenDispute(ctx, OpenDisputeCommand{OrderID: o.ID, ActorID: o.ClientID, UnmetRequirements: "missing files", Evidence: evidence, OfferAmount: o.Total + 1})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
	})

	t.Run("window closed", func(t *testing.T) {
		o := deliveredOrder(t, svc)
		svc.now = func() time.Time { return time.Now().Add(15 * 24 * time.Hour) }
		defer func() { svc.now = time.Now }()
		_, err := svc.OpenDispute(ctx, OpenDisputeCommand{OrderID: o.ID, ActorID: o.ClientID, UnmetRequirements: "missing files", Evidence: evidence, OfferAmount: 1000})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
	})
}

func TestMilestoneDisputeOfferMustMatchSum(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	o := createOrder(t, svc, CreateCommand{
		Items: []LineItem{{Title: "Site build", UnitPrice: 20000, Quantity: 1}},
		Milestones: []Milestone{
			{Name: "Wireframes", UnitPrice: 10000, Quantity: 1, DeliveryOffsetDays: 3},
			{Name: "Pages", UnitPrice: 5000, Quantity: 2, DeliveryOffsetDays: 10},
		},
	})
	if _, err := svc.StartWork(ctx, StartWorkCommand{OrderID: o.ID, ActorID: o.ProfessionalID}); err != nil {
		t.Fatalf("StartWork: %v", err)
	}
	if _, err := svc.SubmitDelivery(ctx, SubmitDeliveryCommand{OrderID: o.ID, ActorID: o.ProfessionalID, Message: "all done"}); err != nil {
		t.Fatalf("SubmitDelivery: %v", err)
	}

	evidence := []Attachment{{Name: "notes.pdf", URL: "https://files/notes.pdf"}}

	_, err := svc.OpenDispute(ctx, OpenDisputeCommand{
		OrderID: o.ID, ActorID: o.ClientID, UnmetRequirements: "both milestones unmet",
		Evidence: evidence, OfferAmount: 19999, MilestoneIndexes: []int{0, 1},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("mismatched offer err = %v, want ErrValidation", err)
	}

	got, err := svc.OpenDispute(ctx, OpenDisputeCommand{
		OrderID: o.ID, ActorID: o.ClientID, UnmetRequirements: "both milestones unmet",
		Evidence: evidence, OfferAmount: 20000, MilestoneIndexes: []int{0, 1},
	})
	if err != nil {
		t.Fatalf("OpenDispute: %v", err)
	}
	if got.Status != StatusDisputed {
		t.Fatalf("status = %s, want %s", got.Status, StatusDisputed)
	}
	if got.Dispute.OfferAmount != 20000 {
		t.Fatalf("offer = %d, want 20000", got.Dispute.OfferAmount)
	}
}

func TestDisputeOffersNeverDecrease(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	o := deliveredOrder(t, svc)

	evidence := []Attachment{{Name: "proof.png", URL: "https://files/proof.png"}}
	if _, err := svc.OpenDispute(ctx, OpenDisputeCommand{OrderID: o.ID, ActorID: o.ClientID, UnmetRequirements: "half the pages missing", Evidence: evidence, OfferAmount: 4000}); err != nil {
		t.Fatalf("OpenDispute: %v", err)
	}

	lower := int64(3000)
	_, err := svc.RespondToDispute(ctx, RespondToDisputeCommand{OrderID: o.ID, ActorID: o.ClientID, Message: "actually less", CounterOffer: &lower})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("lowered offer err = %v, want ErrValidation", err)
	}

	higher := int64(6000)
	got, err := svc.RespondToDispute(ctx, RespondToDisputeCommand{OrderID: o.ID, ActorID: o.ProfessionalID, Message: "meet in the middle", CounterOffer: &higher})
	if err != nil {
		t.Fatalf("RespondToDispute: %v", err)
	}
	if got.Dispute.OfferAmount != 6000 {
		t.Fatalf("offer = %d, want 6000", got.Dispute.OfferAmount)
	}
	if len(got.Dispute.Transcript) != 1 {
		t.Fatalf("transcript length = %d, want 1", len(got.Dispute.Transcript))
	}
}

func TestCancelDisputeRevertsStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	o := deliveredOrder(t, svc)

	evidence := []Attachment{{Name: "proof.png", URL: "https://files/proof.png"}}
	if _, err := svc.OpenDispute(ctx, OpenDisputeCommand{OrderID: o.ID, ActorID: o.ClientID, UnmetRequirements: "missing pages", Evidence: evidence, OfferAmount: 2500}); err != nil {
		t.Fatalf("OpenDispute: %v", err)
	}

	if _, err := svc.CancelDispute(ctx, CancelDisputeCommand{OrderID: o.ID, ActorID: o.ProfessionalID}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("counterparty cancel err = %v, want ErrUnauthorized", err)
	}

	got, err := svc.CancelDispute(ctx, CancelDisputeCommand{OrderID: o.ID, ActorID: o.ClientID})
	if err != nil {
		t.Fatalf("CancelDispute: %v", err)
	}
	if got.Status != StatusDelivered {
		t.Fatalf("status = %s, want %s after withdrawal", got.Status, StatusDelivered)
	}
}

func TestResolveDispute(t *testing.T) {
	svc, p, _ := newTestService(t)
	ctx := context.Background()
	o := deliveredOrder(t, svc)

	evidence := []Attachment{{Name: "proof.png", URL: "https://files/proof.png"}}
	if _, err := svc.OpenDispute(ctx, OpenDisputeCommand{OrderID: o.ID, ActorID: o.ClientID, UnmetRequirements: "incomplete", Evidence: evidence, OfferAmount: 4000}); err != nil {
		t.Fatalf("OpenDispute: %v", err)
	}

	// Resolution requires arbitration first.
	if _, err := svc.ResolveDispute(ctx, ResolveDisputeCommand{OrderID: o.ID, ArbiterID: "arbiter-1", Complete: true, Payout: 6000}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("resolve open dispute err = %v, want ErrInvalidState", err)
	}
	if _, err := svc.RequestArbitration(ctx, RequestArbitrationCommand{OrderID: o.ID, ActorID: o.ClientID}); err != nil {
		t.Fatalf("RequestArbitration: %v", err)
	}

	// A party cannot arbitrate its own order.
	if _, err := svc.ResolveDispute(ctx, ResolveDisputeCommand{OrderID: o.ID, ArbiterID: o.ClientID, Complete: true, Payout: 6000}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("party resolve err = %v, want ErrUnauthorized", err)
	}

	got, err := svc.ResolveDispute(ctx, ResolveDisputeCommand{OrderID: o.ID, ArbiterID: "arbiter-1", Complete: true, Payout: 6000})
	if err != nil {
		t.Fatalf("ResolveDispute: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %s, want %s", got.Status, StatusCompleted)
	}

	last := p.calls[len(p.calls)-1]
	if last.Op != "split" || last.Payout != 6000 || last.Refund != got.Total-6000 {
		t.Fatalf("last payment = %+v, want split 6000/%d", last, got.Total-6000)
	}
}

func TestStaleWriteRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	store := svc.store
	o := createOrder(t, svc, CreateCommand{})

	stale, err := store.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := svc.StartWork(ctx, StartWorkCommand{OrderID: o.ID, ActorID: o.ProfessionalID}); err != nil {
		t.Fatalf("StartWork: %v", err)
	}
	if err := store.Update(ctx, stale); !errors.Is(err, ErrStaleState) {
		t.Fatalf("err = %v, want ErrStaleState", err)
	}
}
