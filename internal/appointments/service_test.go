package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vitacare/telecare-backend/internal/notifications"
	"github.com/vitacare/telecare-backend/pkg/db/models"
	"github.com/vitacare/telecare-backend/pkg/enums"
	pkgerrors "github.com/vitacare/telecare-backend/pkg/errors"
	"github.com/vitacare/telecare-backend/pkg/logger"
	"github.com/vitacare/telecare-backend/pkg/outbox"
	"github.com/vitacare/telecare-backend/pkg/pagination"
)

type fakeRepo struct {
	appointment *models.Appointment
	payment     *models.Payment
	createErr   error
	saved       []models.Appointment
	listRows    []models.Appointment
	listCursor  *pagination.Cursor
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, appointment *models.Appointment) error {
	if f.createErr != nil {
		return f.createErr
	}
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	f.appointment = appointment
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	if f.appointment == nil || f.appointment.ID != id {
		return nil, ErrNotFound
	}
	copied := *f.appointment
	return &copied, nil
}

func (f *fakeRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeRepo) Update(ctx context.Context, appointment *models.Appointment) error {
	f.saved = append(f.saved, *appointment)
	copied := *appointment
	f.appointment = &copied
	return nil
}

func (f *fakeRepo) FindPayment(ctx context.Context, appointmentID uuid.UUID) (*models.Payment, error) {
	return f.payment, nil
}

func (f *fakeRepo) ListByRequester(ctx context.Context, params listAppointmentsParams) ([]models.Appointment, *pagination.Cursor, error) {
	return f.listRows, f.listCursor, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeNotifier struct {
	sent []notifications.NotifyParams
	err  error
}

func (f *fakeNotifier) Notify(ctx context.Context, params notifications.NotifyParams) error {
	f.sent = append(f.sent, params)
	return f.err
}

func newTestService(t *testing.T, repo Repository, ob *fakeOutbox, n *fakeNotifier) Service {
	t.Helper()
	svc, err := NewService(repo, fakeTxRunner{}, ob, n, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestService_CreateStartsPendingWithoutPrice(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo, &fakeOutbox{}, &fakeNotifier{})

	dto, err := svc.Create(context.Background(), CreateInput{
		RequesterID: uuid.New(),
		PatientName: "Jordan Diaz",
		DoctorID:    uuid.New(),
		ScheduledAt: time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Status != enums.AppointmentStatusPending {
		t.Fatalf("expected pending status, got %s", dto.Status)
	}
	if dto.Price != nil {
		t.Fatal("new booking must not carry a price")
	}
}

func TestService_CreateValidation(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakeOutbox{}, &fakeNotifier{})

	cases := []CreateInput{
		{PatientName: "x", DoctorID: uuid.New(), ScheduledAt: time.Now().Add(time.Hour)},
		{RequesterID: uuid.New(), DoctorID: uuid.New(), ScheduledAt: time.Now().Add(time.Hour)},
		{RequesterID: uuid.New(), PatientName: "x", ScheduledAt: time.Now().Add(time.Hour)},
		{RequesterID: uuid.New(), PatientName: "x", DoctorID: uuid.New(), ScheduledAt: time.Now().Add(-time.Hour)},
	}
	for i, input := range cases {
		_, err := svc.Create(context.Background(), input)
		if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestService_SetPriceMovesToAwaitingPayment(t *testing.T) {
	appointment := &models.Appointment{
		ID:          uuid.New(),
		RequesterID: uuid.New(),
		Status:      enums.AppointmentStatusPending,
		Currency:    "USD",
	}
	repo := &fakeRepo{appointment: appointment}
	ob := &fakeOutbox{}
	notifier := &fakeNotifier{}
	svc := newTestService(t, repo, ob, notifier)

	dto, err := svc.SetPrice(context.Background(), SetPriceInput{
		AppointmentID: appointment.ID,
		Price:         decimal.RequireFromString("49.99"),
		ActorUserID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("set price: %v", err)
	}
	if dto.Status != enums.AppointmentStatusAwaitingPayment {
		t.Fatalf("expected awaiting_payment, got %s", dto.Status)
	}
	if repo.appointment.PriceCents == nil || *repo.appointment.PriceCents != 4999 {
		t.Fatalf("expected 4999 cents, got %v", repo.appointment.PriceCents)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventAppointmentPriced {
		t.Fatalf("expected priced event, got %+v", ob.events)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Type != enums.NotificationTypeAppointmentPriceQuote {
		t.Fatalf("expected price quote notification, got %+v", notifier.sent)
	}
}

func TestService_SetPriceRejectsSubCentAndNonPositive(t *testing.T) {
	appointment := &models.Appointment{ID: uuid.New(), Status: enums.AppointmentStatusPending}
	svc := newTestService(t, &fakeRepo{appointment: appointment}, &fakeOutbox{}, &fakeNotifier{})

	for _, raw := range []string{"0", "-10", "10.999"} {
		_, err := svc.SetPrice(context.Background(), SetPriceInput{
			AppointmentID: appointment.ID,
			Price:         decimal.RequireFromString(raw),
		})
		if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
			t.Fatalf("price %s: expected validation error, got %v", raw, err)
		}
	}
}

func TestService_SetPriceRequiresPendingStatus(t *testing.T) {
	appointment := &models.Appointment{ID: uuid.New(), Status: enums.AppointmentStatusConfirmed}
	svc := newTestService(t, &fakeRepo{appointment: appointment}, &fakeOutbox{}, &fakeNotifier{})

	_, err := svc.SetPrice(context.Background(), SetPriceInput{
		AppointmentID: appointment.ID,
		Price:         decimal.RequireFromString("25.00"),
	})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestService_CompleteRequiresConfirmed(t *testing.T) {
	appointment := &models.Appointment{
		ID:          uuid.New(),
		RequesterID: uuid.New(),
		Status:      enums.AppointmentStatusConfirmed,
	}
	repo := &fakeRepo{appointment: appointment}
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, ob, &fakeNotifier{})

	dto, err := svc.Complete(context.Background(), CompleteInput{AppointmentID: appointment.ID})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if dto.Status != enums.AppointmentStatusCompleted {
		t.Fatalf("expected completed, got %s", dto.Status)
	}
	if dto.CompletedAt == nil {
		t.Fatal("completed_at not set")
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventAppointmentCompleted {
		t.Fatalf("expected completed event, got %+v", ob.events)
	}

	repo.appointment.Status = enums.AppointmentStatusPending
	_, err = svc.Complete(context.Background(), CompleteInput{AppointmentID: appointment.ID})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict from pending, got %v", err)
	}
}

func TestService_CompleteNotificationFailureIsNonFatal(t *testing.T) {
	appointment := &models.Appointment{
		ID:          uuid.New(),
		RequesterID: uuid.New(),
		Status:      enums.AppointmentStatusConfirmed,
	}
	notifier := &fakeNotifier{err: pkgerrors.New(pkgerrors.CodeDependency, "push down")}
	svc := newTestService(t, &fakeRepo{appointment: appointment}, &fakeOutbox{}, notifier)

	if _, err := svc.Complete(context.Background(), CompleteInput{AppointmentID: appointment.ID}); err != nil {
		t.Fatalf("notification failure must not fail completion: %v", err)
	}
}

func TestService_CancelVoidsPendingPayment(t *testing.T) {
	appointment := &models.Appointment{
		ID:          uuid.New(),
		RequesterID: uuid.New(),
		Status:      enums.AppointmentStatusAwaitingPayment,
	}
	repo := &fakeRepo{appointment: appointment}
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, ob, &fakeNotifier{})

	reason := "patient request"
	dto, err := svc.Cancel(context.Background(), CancelInput{
		AppointmentID: appointment.ID,
		Reason:        &reason,
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if dto.Status != enums.AppointmentStatusCancelled {
		t.Fatalf("expected cancelled, got %s", dto.Status)
	}
	if dto.CancelReason == nil || *dto.CancelReason != reason {
		t.Fatal("cancel reason not stored")
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventAppointmentCancelled {
		t.Fatalf("expected cancelled event, got %+v", ob.events)
	}
}

func TestService_CancelRejectsSettledPayment(t *testing.T) {
	appointment := &models.Appointment{
		ID:     uuid.New(),
		Status: enums.AppointmentStatusConfirmed,
	}
	repo := &fakeRepo{
		appointment: appointment,
		payment:     &models.Payment{Status: enums.PaymentStatusCompleted},
	}
	svc := newTestService(t, repo, &fakeOutbox{}, &fakeNotifier{})

	_, err := svc.Cancel(context.Background(), CancelInput{AppointmentID: appointment.ID})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestService_CancelRejectsTerminalStatus(t *testing.T) {
	appointment := &models.Appointment{ID: uuid.New(), Status: enums.AppointmentStatusCancelled}
	svc := newTestService(t, &fakeRepo{appointment: appointment}, &fakeOutbox{}, &fakeNotifier{})

	_, err := svc.Cancel(context.Background(), CancelInput{AppointmentID: appointment.ID})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestService_GetIncludesPaymentView(t *testing.T) {
	price := int64(5000)
	appointment := &models.Appointment{
		ID:         uuid.New(),
		Status:     enums.AppointmentStatusConfirmed,
		PriceCents: &price,
		Currency:   "USD",
	}
	repo := &fakeRepo{
		appointment: appointment,
		payment: &models.Payment{
			ID:            uuid.New(),
			Status:        enums.PaymentStatusCompleted,
			AmountCents:   5000,
			RefundedCents: 1000,
		},
	}
	svc := newTestService(t, repo, &fakeOutbox{}, &fakeNotifier{})

	dto, err := svc.Get(context.Background(), appointment.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dto.Price == nil || *dto.Price != "50.00" {
		t.Fatalf("expected price 50.00, got %v", dto.Price)
	}
	if dto.Payment == nil || dto.Payment.RefundedCents != 1000 {
		t.Fatalf("payment view missing: %+v", dto.Payment)
	}
}

func TestService_GetNotFound(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakeOutbox{}, &fakeNotifier{})
	_, err := svc.Get(context.Background(), uuid.New())
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
