package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"rollcall/internal/queue"
)

type fakeSink struct {
	calls []struct{ to, body string }
	err   error
}

func (s *fakeSink) Send(_ context.Context, to, body string) (string, error) {
	s.calls = append(s.calls, struct{ to, body string }{to, body})
	if s.err != nil {
		return "", s.err
	}
	return "SM123", nil
}

func req() Request {
	return Request{
		StudentName: "Asha",
		RollNumber:  "21CS01",
		Subject:     "DBMS",
		PhoneNumber: "+910000000000",
	}
}

func TestSendAbsenceAlert(t *testing.T) {
	sink := &fakeSink{}
	d := NewDispatcher(sink, Config{Institution: "NISTU"}, nil, nil)

	if err := d.SendAbsenceAlert(context.Background(), req()); err != nil {
		t.Fatalf("SendAbsenceAlert() error = %v", err)
	}
	if len(sink.calls) != 1 {
		t.Fatalf("sink called %d times, want 1", len(sink.calls))
	}
	call := sink.calls[0]
	if call.to != "+910000000000" {
		t.Errorf("to = %q, want request number", call.to)
	}
	for _, want := range []string{"Asha", "21CS01", "DBMS", "NISTU", "Dear Parents"} {
		if !strings.Contains(call.body, want) {
			t.Errorf("message %q missing %q", call.body, want)
		}
	}
}

func TestSendAbsenceAlertMissingDestination(t *testing.T) {
	sink := &fakeSink{}
	d := NewDispatcher(sink, Config{Institution: "NISTU", ToOverride: "+911111111111"}, nil, nil)

	r := req()
	r.PhoneNumber = ""
	err := d.SendAbsenceAlert(context.Background(), r)
	if !errors.Is(err, ErrMissingDestination) {
		t.Fatalf("error = %v, want ErrMissingDestination", err)
	}
	if len(sink.calls) != 0 {
		t.Errorf("sink contacted %d times, want 0", len(sink.calls))
	}
}

func TestSendAbsenceAlertOverrideDestination(t *testing.T) {
	sink := &fakeSink{}
	d := NewDispatcher(sink, Config{Institution: "NISTU", ToOverride: "+911111111111"}, nil, nil)

	if err := d.SendAbsenceAlert(context.Background(), req()); err != nil {
		t.Fatalf("SendAbsenceAlert() error = %v", err)
	}
	if sink.calls[0].to != "+911111111111" {
		t.Errorf("to = %q, want the configured override", sink.calls[0].to)
	}
}

func TestSendAbsenceAlertSinkFailure(t *testing.T) {
	sink := &fakeSink{err: errors.New("provider says no")}
	d := NewDispatcher(sink, Config{Institution: "NISTU"}, nil, nil)

	err := d.SendAbsenceAlert(context.Background(), req())
	var sinkErr *SinkError
	if !errors.As(err, &sinkErr) {
		t.Fatalf("error = %v, want *SinkError", err)
	}
	if !strings.Contains(sinkErr.Detail, "provider says no") {
		t.Errorf("detail = %q, want provider detail carried", sinkErr.Detail)
	}
	// Exactly one attempt, no retry.
	if len(sink.calls) != 1 {
		t.Errorf("sink called %d times, want 1", len(sink.calls))
	}
}

// A sink returning a typed error keeps its provider status; the dispatcher
// only wraps untyped failures.
func TestSendAbsenceAlertKeepsSinkStatus(t *testing.T) {
	sink := &fakeSink{err: &SinkError{Status: "401 Unauthorized", Detail: "Authenticate"}}
	d := NewDispatcher(sink, Config{Institution: "NISTU"}, nil, nil)

	err := d.SendAbsenceAlert(context.Background(), req())
	var sinkErr *SinkError
	if !errors.As(err, &sinkErr) {
		t.Fatalf("error = %v, want *SinkError", err)
	}
	if sinkErr.Status != "401 Unauthorized" {
		t.Errorf("status = %q, want the provider status preserved", sinkErr.Status)
	}
}

func TestSendAbsenceAlertPublishesOutcome(t *testing.T) {
	sink := &fakeSink{}
	q := queue.NewInMemory(4)
	d := NewDispatcher(sink, Config{Institution: "NISTU"}, q, nil)

	if err := d.SendAbsenceAlert(context.Background(), req()); err != nil {
		t.Fatalf("SendAbsenceAlert() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	select {
	case msg := <-msgs:
		if msg.Type != MsgTypeOutcome {
			t.Errorf("type = %q, want %q", msg.Type, MsgTypeOutcome)
		}
		if !strings.Contains(string(msg.Body), "21CS01") {
			t.Errorf("outcome %q missing roll number", msg.Body)
		}
	case <-ctx.Done():
		t.Fatal("no outcome published")
	}
}
