package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sungwon/mail-relay/internal/mailer"
	"github.com/sungwon/mail-relay/internal/validator"
)

// fakeSender records every email it is asked to send.
type fakeSender struct {
	mu      sync.Mutex
	sent    []mailer.Email
	success bool
}

func (f *fakeSender) SendEmail(_ context.Context, email mailer.Email) mailer.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, email)
	if !f.success {
		return mailer.Result{}
	}
	return mailer.Result{Success: true, MessageID: "<id@example.com>"}
}

func (f *fakeSender) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type errorBody struct {
	Message string           `json:"message"`
	Errors  validator.Issues `json:"errors"`
}

func newTestRouter(t *testing.T, sender mailer.Sender) http.Handler {
	t.Helper()
	v, err := validator.New()
	if err != nil {
		t.Fatalf("validator.New: %v", err)
	}
	return NewRouter(RouterConfig{
		Sender:    sender,
		Validator: v,
		Datastore: &fakePinger{},
		Log:       zerolog.Nop(),
	})
}

func postSendEmail(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/emails/send-emails", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var resp errorBody
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestSendEmailHandler_Success(t *testing.T) {
	sender := &fakeSender{success: true}
	h := newTestRouter(t, sender)

	rec := postSendEmail(t, h, `{"to":"a@b.co","subject":"Hi","body":"<p>x</p>"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	resp := decodeErrorBody(t, rec)
	if resp.Message != "Email sent successfully!" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if sender.calls() != 1 {
		t.Fatalf("expected 1 send, got %d", sender.calls())
	}
	got := sender.sent[0]
	if got.To != "a@b.co" || got.Subject != "Hi" || got.Body != "<p>x</p>" {
		t.Errorf("unexpected email %+v", got)
	}
}

func TestSendEmailHandler_InvalidRecipient(t *testing.T) {
	sender := &fakeSender{success: true}
	h := newTestRouter(t, sender)

	rec := postSendEmail(t, h, `{"to":"not-an-email","subject":"Hi","body":"x"}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	resp := decodeErrorBody(t, rec)
	if resp.Message != "Invalid request data." {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("expected 1 issue, got %d: %+v", len(resp.Errors), resp.Errors)
	}
	if resp.Errors[0].Path[0] != "to" {
		t.Errorf("expected path [to], got %v", resp.Errors[0].Path)
	}
	if sender.calls() != 0 {
		t.Errorf("expected no send, got %d", sender.calls())
	}
}

func TestSendEmailHandler_MissingFields(t *testing.T) {
	sender := &fakeSender{success: true}
	h := newTestRouter(t, sender)

	rec := postSendEmail(t, h, `{"to":"a@b.co"}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	resp := decodeErrorBody(t, rec)
	if len(resp.Errors) != 2 {
		t.Fatalf("expected 2 issues, got %+v", resp.Errors)
	}
	if resp.Errors[0].Path[0] != "subject" || resp.Errors[1].Path[0] != "body" {
		t.Errorf("unexpected issue order %+v", resp.Errors)
	}
	if sender.calls() != 0 {
		t.Errorf("expected no send, got %d", sender.calls())
	}
}

func TestSendEmailHandler_EmptyStrings(t *testing.T) {
	h := newTestRouter(t, &fakeSender{success: true})

	rec := postSendEmail(t, h, `{"to":"a@b.co","subject":"","body":""}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	if resp := decodeErrorBody(t, rec); len(resp.Errors) != 2 {
		t.Errorf("expected 2 issues, got %+v", resp.Errors)
	}
}

func TestSendEmailHandler_EmptyBody(t *testing.T) {
	h := newTestRouter(t, &fakeSender{success: true})

	rec := postSendEmail(t, h, "")

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	if resp := decodeErrorBody(t, rec); len(resp.Errors) != 3 {
		t.Errorf("expected 3 issues, got %+v", resp.Errors)
	}
}

func TestSendEmailHandler_WrongTypes(t *testing.T) {
	h := newTestRouter(t, &fakeSender{success: true})

	rec := postSendEmail(t, h, `{"to":42,"subject":null,"body":"x"}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	resp := decodeErrorBody(t, rec)
	if len(resp.Errors) != 2 {
		t.Fatalf("expected 2 issues, got %+v", resp.Errors)
	}
	if resp.Errors[0].Message != "to must be a string" {
		t.Errorf("unexpected first issue %+v", resp.Errors[0])
	}
	if resp.Errors[1].Message != "subject must be a string" {
		t.Errorf("unexpected second issue %+v", resp.Errors[1])
	}
}

func TestSendEmailHandler_NonObjectBody(t *testing.T) {
	h := newTestRouter(t, &fakeSender{success: true})

	rec := postSendEmail(t, h, `["a@b.co"]`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	resp := decodeErrorBody(t, rec)
	if len(resp.Errors) != 1 || len(resp.Errors[0].Path) != 0 {
		t.Errorf("expected a single root issue, got %+v", resp.Errors)
	}
}

func TestSendEmailHandler_MalformedJSON(t *testing.T) {
	sender := &fakeSender{success: true}
	h := newTestRouter(t, sender)

	rec := postSendEmail(t, h, `{"to":`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if resp := decodeErrorBody(t, rec); resp.Message != "Malformed JSON body." {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if sender.calls() != 0 {
		t.Errorf("expected no send, got %d", sender.calls())
	}
}

func TestSendEmailHandler_BodyTooLarge(t *testing.T) {
	sender := &fakeSender{success: true}
	h := newTestRouter(t, sender)

	body := `{"to":"a@b.co","subject":"Hi","body":"` + strings.Repeat("x", maxRequestBodyBytes) + `"}`
	rec := postSendEmail(t, h, body)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rec.Code)
	}
	if sender.calls() != 0 {
		t.Errorf("expected no send, got %d", sender.calls())
	}
}

func TestSendEmailHandler_TransportFailure(t *testing.T) {
	sender := &fakeSender{success: false}
	h := newTestRouter(t, sender)

	rec := postSendEmail(t, h, `{"to":"a@b.co","subject":"Hi","body":"x"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	resp := decodeErrorBody(t, rec)
	if resp.Message != "Failed to send email." {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if resp.Errors != nil {
		t.Errorf("expected no issue list, got %+v", resp.Errors)
	}
}

func TestSendEmailHandler_NoDeduplication(t *testing.T) {
	sender := &fakeSender{success: true}
	h := newTestRouter(t, sender)

	body := `{"to":"a@b.co","subject":"Hi","body":"x"}`
	for i := 0; i < 2; i++ {
		if rec := postSendEmail(t, h, body); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i, rec.Code)
		}
	}

	if sender.calls() != 2 {
		t.Errorf("expected 2 sends, got %d", sender.calls())
	}
}

func TestMergeIssues_FieldOrder(t *testing.T) {
	typeIssues := validator.Issues{{Path: []string{"body"}, Message: "body must be a string"}}
	ruleIssues := validator.Issues{
		{Path: []string{"subject"}, Message: "subject is a required field"},
		{Path: []string{"to"}, Message: "to is a required field"},
		{Path: []string{"body"}, Message: "body is a required field"},
	}

	got := mergeIssues(typeIssues, ruleIssues)

	want := []string{"to is a required field", "subject is a required field", "body must be a string"}
	if len(got) != len(want) {
		t.Fatalf("expected %d issues, got %+v", len(want), got)
	}
	for i, msg := range want {
		if got[i].Message != msg {
			t.Errorf("issue %d: expected %q, got %q", i, msg, got[i].Message)
		}
	}
}

func TestSendEmailHandler_EmptyRecipientReportsRequiredOnly(t *testing.T) {
	h := newTestRouter(t, &fakeSender{success: true})

	rec := postSendEmail(t, h, `{"to":"","subject":"Hi","body":"x"}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	resp := decodeErrorBody(t, rec)
	if len(resp.Errors) != 1 {
		t.Fatalf("expected 1 issue, got %+v", resp.Errors)
	}
	if resp.Errors[0].Message != "to is a required field" {
		t.Errorf("unexpected issue %+v", resp.Errors[0])
	}
}
