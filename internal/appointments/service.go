package appointments

import (
	"context"
	"fmt"
	"strings"

	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/notify"
	"github.com/crestline/estatesite/internal/telemetry/metrics"
	"github.com/crestline/estatesite/internal/telemetry/tracing"
	"github.com/crestline/estatesite/pkg"

	log "github.com/sirupsen/logrus"
)

var ErrInvalidStatus = apierr.Newf(apierr.Validation, "status must be one of: %s, %s, %s, %s",
	StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted)

type appointmentsRepo interface {
	Add(ctx context.Context, a *Appointment) (*Appointment, error)
	Get(ctx context.Context, id int) (*Appointment, error)
	List(ctx context.Context, status Status) ([]Appointment, error)
	UpdateStatus(ctx context.Context, id int, status Status) (*Appointment, error)
	Delete(ctx context.Context, id int) error
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

type mailSender interface {
	Send(ctx context.Context, msg notify.Message) error
}

type BookingRequest struct {
	CompanyName     string `json:"companyName"`
	PhoneNumber     string `json:"phoneNumber"`
	Email           string `json:"email"`
	PreferredDate   string `json:"preferredDate"`
	PreferredTime   string `json:"preferredTime"`
	Property        string `json:"property"`
	Floor           string `json:"floor"`
	AdditionalNotes string `json:"additionalNotes"`
}

type Service struct {
	repo         appointmentsRepo
	mailer       mailSender
	companyEmail string
	metrics      *metrics.Manager
}

func NewService(
	repo appointmentsRepo,
	mailer mailSender,
	companyEmail string,
	metrics *metrics.Manager,
) *Service {
	return &Service{
		repo:         repo,
		mailer:       mailer,
		companyEmail: companyEmail,
		metrics:      metrics,
	}
}

// Book notifies the company and the requester, then persists the booking.
// Notification failures are logged and counted, only a failed insert fails the booking.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.appointments.book")
	var err error
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	appointment := req.normalize()
	if err = validateBooking(appointment); err != nil {
		return nil, err
	}

	s.notify(ctx, companyNotification(s.companyEmail, appointment))
	s.notify(ctx, requesterConfirmation(appointment))

	added, err := s.repo.Add(ctx, appointment)
	if err != nil {
		err = fmt.Errorf("persist appointment: %w", err)
		return nil, err
	}

	s.metrics.CounterAppointmentsBooked.Inc()
	log.Infof("appointment %d booked by [%s] for %s %s", added.ID, added.CompanyName, added.PreferredDate, added.PreferredTime)
	return added, nil
}

func (s *Service) notify(ctx context.Context, msg notify.Message) {
	if msg.To == "" {
		return
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.metrics.CounterNotificationFailures.Inc()
		log.Errorf("send notification [%s] to [%s]: %s", msg.Subject, msg.To, err)
	}
}

func (s *Service) List(ctx context.Context, status Status) ([]Appointment, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.List(ctx, status)
}

func (s *Service) Get(ctx context.Context, id int) (*Appointment, error) {
	return s.repo.Get(ctx, id)
}

// UpdateStatus is idempotent, setting the current status again succeeds.
func (s *Service) UpdateStatus(ctx context.Context, id int, status Status) (*Appointment, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	log.Debugf("appointment %d status set to [%s]", id, status)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Infof("appointment %d deleted", id)
	return nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count appointments: %w", err)
	}

	stats := Stats{
		Pending:   counts[StatusPending],
		Confirmed: counts[StatusConfirmed],
		Cancelled: counts[StatusCancelled],
		Completed: counts[StatusCompleted],
	}
	for _, c := range counts {
		stats.Total += c
	}
	return stats, nil
}

func (r BookingRequest) normalize() *Appointment {
	return &Appointment{
		CompanyName:     strings.TrimSpace(r.CompanyName),
		PhoneNumber:     strings.TrimSpace(r.PhoneNumber),
		Email:           strings.TrimSpace(r.Email),
		PreferredDate:   strings.TrimSpace(r.PreferredDate),
		PreferredTime:   strings.TrimSpace(r.PreferredTime),
		Property:        strings.TrimSpace(r.Property),
		Floor:           strings.TrimSpace(r.Floor),
		AdditionalNotes: strings.TrimSpace(r.AdditionalNotes),
		Status:          StatusPending,
	}
}

func validateBooking(a *Appointment) error {
	var missing []string
	if a.CompanyName == "" {
		missing = append(missing, "companyName")
	}
	if a.PhoneNumber == "" {
		missing = append(missing, "phoneNumber")
	}
	if a.Email == "" {
		missing = append(missing, "email")
	}
	if a.PreferredDate == "" {
		missing = append(missing, "preferredDate")
	}
	if a.PreferredTime == "" {
		missing = append(missing, "preferredTime")
	}
	if len(missing) > 0 {
		return apierr.Newf(apierr.Validation, "missing required fields: %s", strings.Join(missing, ", "))
	}
	if !pkg.IsEmail(a.Email) {
		return apierr.New(apierr.Validation, "a valid email is required")
	}
	return nil
}
