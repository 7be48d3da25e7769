package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sungwon/mail-relay/internal/logger"
	"github.com/sungwon/mail-relay/internal/mailer"
	"github.com/sungwon/mail-relay/internal/validator"
)

// maxRequestBodyBytes bounds the size of a send-email request body.
const maxRequestBodyBytes = 1 << 20

// sendEmailFields lists the request fields in the order issues are reported.
var sendEmailFields = []string{"to", "subject", "body"}

// sendEmailRequest is the JSON body of POST /emails/send-emails.
type sendEmailRequest struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

// SendEmailHandler handles POST /emails/send-emails.
// Every well-formed request results in exactly one transport attempt.
func SendEmailHandler(sender mailer.Sender, v *validator.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondMessage(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
				return
			}
			log.Error().Err(err).Msg("failed to read request body")
			respondMessage(w, http.StatusInternalServerError, msgInternalError)
			return
		}

		req, typeIssues, ok := decodeSendEmailRequest(raw)
		if !ok {
			respondMessage(w, http.StatusBadRequest, msgMalformedJSON)
			return
		}
		ruleIssues, err := validateSendEmailRequest(v, req)
		if err != nil {
			log.Error().Err(err).Msg("request validation failed unexpectedly")
			respondMessage(w, http.StatusInternalServerError, msgInternalError)
			return
		}
		issues := mergeIssues(typeIssues, ruleIssues)
		if len(issues) > 0 {
			log.Debug().Int("issues", len(issues)).Msg("send-email request rejected")
			respondValidationErrors(w, issues)
			return
		}

		result := sender.SendEmail(r.Context(), mailer.Email{
			To:      req.To,
			Subject: req.Subject,
			Body:    req.Body,
		})
		if !result.Success {
			respondMessage(w, http.StatusInternalServerError, msgEmailFailed)
			return
		}

		respondMessage(w, http.StatusOK, msgEmailSent)
	}
}

// decodeSendEmailRequest parses raw into a request. It reports type issues
// for fields that are present but not strings, and ok=false for malformed JSON.
// An empty body is treated as an empty object.
func decodeSendEmailRequest(raw []byte) (sendEmailRequest, validator.Issues, bool) {
	var req sendEmailRequest
	if len(bytes.TrimSpace(raw)) == 0 {
		return req, nil, true
	}
	if !json.Valid(raw) {
		return req, nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return req, validator.Issues{{Path: []string{}, Message: "request body must be a JSON object"}}, true
	}

	var issues validator.Issues
	targets := map[string]*string{"to": &req.To, "subject": &req.Subject, "body": &req.Body}
	for _, name := range sendEmailFields {
		value, present := fields[name]
		if !present {
			continue
		}
		if err := decodeString(value, targets[name]); err != nil {
			issues = append(issues, validator.Issue{Path: []string{name}, Message: name + " must be a string"})
		}
	}
	return req, issues, true
}

func decodeString(value json.RawMessage, dst *string) error {
	if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return errors.New("null is not a string")
	}
	return json.Unmarshal(value, dst)
}

func validateSendEmailRequest(v *validator.Validator, req sendEmailRequest) (validator.Issues, error) {
	err := v.Validate(req)
	if err == nil {
		return nil, nil
	}
	issues, ok := validator.AsIssues(err)
	if !ok {
		return nil, err
	}
	return issues, nil
}

// mergeIssues combines type issues with rule issues in field order. A field
// with a type issue does not also report its rule issues.
func mergeIssues(typeIssues, ruleIssues validator.Issues) validator.Issues {
	if len(typeIssues) == 1 && len(typeIssues[0].Path) == 0 {
		return typeIssues
	}
	byField := func(is validator.Issues, name string) validator.Issues {
		var out validator.Issues
		for _, i := range is {
			if len(i.Path) > 0 && i.Path[0] == name {
				out = append(out, i)
			}
		}
		return out
	}

	merged := make(validator.Issues, 0, len(typeIssues)+len(ruleIssues))
	for _, name := range sendEmailFields {
		if typed := byField(typeIssues, name); len(typed) > 0 {
			merged = append(merged, typed...)
			continue
		}
		merged = append(merged, byField(ruleIssues, name)...)
	}
	return merged
}
