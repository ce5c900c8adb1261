package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"rollcall/internal/queue"
)

var alertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rollcall_absence_alerts_total",
	Help: "Absence alert dispatch attempts by outcome.",
}, []string{"outcome"})

// ErrMissingDestination is returned before any sink contact when the request
// carries no phone number.
var ErrMissingDestination = errors.New("missing phone number")

// SinkError carries the provider's failure detail to the caller.
type SinkError struct {
	Status string
	Detail string
}

func (e *SinkError) Error() string {
	if e.Status == "" {
		return e.Detail
	}
	return e.Status + ": " + e.Detail
}

// Request is the canonical absence alert payload. Date and Time are still sent
// by a legacy caller and are accepted but ignored.
type Request struct {
	StudentName string `json:"studentName"`
	RollNumber  string `json:"rollNumber"`
	Subject     string `json:"subject"`
	PhoneNumber string `json:"phoneNumber"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
}

// Sink delivers a pre-formatted text message and returns a provider receipt id.
type Sink interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// Config is the dispatcher's explicit configuration; nothing is read from
// ambient state.
type Config struct {
	// ToOverride, when set, receives every alert regardless of the request's
	// phone number. The request number is still required to be present.
	ToOverride  string
	Institution string
}

// Dispatcher is the single source of truth for turning an absence event into
// an outbound message. Both the marking flow and the public relay delegate here.
type Dispatcher struct {
	sink     Sink
	cfg      Config
	outcomes queue.Queue
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher. outcomes may be nil to skip audit publishing.
func NewDispatcher(sink Sink, cfg Config, outcomes queue.Queue, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{sink: sink, cfg: cfg, outcomes: outcomes, logger: logger}
}

// Message renders the deterministic alert template for req.
func (d *Dispatcher) Message(req Request) string {
	return fmt.Sprintf("Dear Parents,\nYour child %s bearing roll number %s is found absent on %s class.\nRegards,\n%s",
		req.StudentName, req.RollNumber, req.Subject, d.cfg.Institution)
}

// SendAbsenceAlert makes exactly one delivery attempt. There is no retry, and
// a failure never reverses the attendance mutation that triggered it.
func (d *Dispatcher) SendAbsenceAlert(ctx context.Context, req Request) error {
	if req.PhoneNumber == "" {
		alertsTotal.WithLabelValues("rejected").Inc()
		return ErrMissingDestination
	}
	to := req.PhoneNumber
	if d.cfg.ToOverride != "" {
		to = d.cfg.ToOverride
	}

	sid, err := d.sink.Send(ctx, to, d.Message(req))
	if err != nil {
		alertsTotal.WithLabelValues("failed").Inc()
		var sinkErr *SinkError
		if !errors.As(err, &sinkErr) {
			sinkErr = &SinkError{Detail: err.Error()}
		}
		d.logger.Error("absence alert failed",
			zap.String("roll_number", req.RollNumber),
			zap.String("to", to),
			zap.Error(sinkErr))
		d.publishOutcome(ctx, req, to, "failed", sinkErr.Error())
		return sinkErr
	}

	alertsTotal.WithLabelValues("sent").Inc()
	d.logger.Info("absence alert sent",
		zap.String("roll_number", req.RollNumber),
		zap.String("to", to),
		zap.String("sid", sid))
	d.publishOutcome(ctx, req, to, "sent", sid)
	return nil
}

// Outcome is the audit record of one dispatch attempt, persisted by the worker.
type Outcome struct {
	ID          string    `json:"id"`
	StudentName string    `json:"student_name"`
	RollNumber  string    `json:"roll_number"`
	Subject     string    `json:"subject"`
	Destination string    `json:"destination"`
	Result      string    `json:"result"`
	Detail      string    `json:"detail"`
	SentAt      time.Time `json:"sent_at"`
}

// MsgTypeOutcome tags dispatch outcome messages on the queue.
const MsgTypeOutcome = "alert_outcome"

func (d *Dispatcher) publishOutcome(ctx context.Context, req Request, to, result, detail string) {
	if d.outcomes == nil {
		return
	}
	out := Outcome{
		ID:          uuid.NewString(),
		StudentName: req.StudentName,
		RollNumber:  req.RollNumber,
		Subject:     req.Subject,
		Destination: to,
		Result:      result,
		Detail:      detail,
		SentAt:      time.Now().UTC(),
	}
	body, err := json.Marshal(out)
	if err != nil {
		return
	}
	if err := d.outcomes.Publish(ctx, queue.Message{Type: MsgTypeOutcome, Body: body}); err != nil {
		d.logger.Warn("outcome publish failed", zap.Error(err))
	}
}
