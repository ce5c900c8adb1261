package relay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"rollcall/internal/notify"
)

type fakeSink struct {
	bodies []string
	err    error
}

func (s *fakeSink) Send(_ context.Context, _, body string) (string, error) {
	s.bodies = append(s.bodies, body)
	if s.err != nil {
		return "", s.err
	}
	return "SM123", nil
}

func newRouter(sink notify.Sink) *gin.Engine {
	gin.SetMode(gin.TestMode)
	d := notify.NewDispatcher(sink, notify.Config{Institution: "NISTU"}, nil, nil)
	r := gin.New()
	r.POST("/absent", Handler(d))
	return r
}

func post(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/absent", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAbsentMissingPhoneNumber(t *testing.T) {
	sink := &fakeSink{}
	r := newRouter(sink)

	w := post(r, `{"studentName":"Asha","rollNumber":"21CS01","subject":"DBMS"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(sink.bodies) != 0 {
		t.Error("sink contacted on validation failure")
	}
}

func TestAbsentSuccess(t *testing.T) {
	sink := &fakeSink{}
	r := newRouter(sink)

	w := post(r, `{"studentName":"Asha","rollNumber":"21CS01","subject":"DBMS","phoneNumber":"+910000000000"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %q", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "SMS sent successfully") {
		t.Errorf("body = %q, want confirmation", w.Body.String())
	}
	if len(sink.bodies) != 1 {
		t.Fatalf("sink called %d times, want 1", len(sink.bodies))
	}
	for _, want := range []string{"Asha", "21CS01", "DBMS"} {
		if !strings.Contains(sink.bodies[0], want) {
			t.Errorf("message %q missing %q", sink.bodies[0], want)
		}
	}
}

func TestAbsentSinkFailure(t *testing.T) {
	sink := &fakeSink{err: errors.New("twilio error 401 Unauthorized")}
	r := newRouter(sink)

	w := post(r, `{"studentName":"Asha","rollNumber":"21CS01","subject":"DBMS","phoneNumber":"+910000000000"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "401 Unauthorized") {
		t.Errorf("body = %q, want provider detail", w.Body.String())
	}
}

// One legacy caller still posts date/time instead of subject/phone metadata;
// the extra fields must not break the canonical contract.
func TestAbsentLegacyFieldsIgnored(t *testing.T) {
	sink := &fakeSink{}
	r := newRouter(sink)

	w := post(r, `{"studentName":"Asha","rollNumber":"21CS01","phoneNumber":"+910000000000","date":"2024-01-01","time":"09:00:00"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if strings.Contains(sink.bodies[0], "2024-01-01") {
		t.Errorf("message %q leaked legacy date field", sink.bodies[0])
	}
}

func TestAbsentMalformedBody(t *testing.T) {
	r := newRouter(&fakeSink{})

	w := post(r, `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
