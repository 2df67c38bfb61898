// internal/domain/validation.go
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"paylink-service/pkg/xerrors"

	"github.com/shopspring/decimal"
)

const (
	// MinExpiry is the advertised lower bound. The check itself allows
	// expiryGrace of clock skew below it.
	MinExpiry   = 10 * time.Minute
	expiryGrace = time.Minute
	MaxExpiry   = 30 * 24 * time.Hour

	MaxNotesLength      = 1000
	MinExternalIDLength = 3

	DefaultListLimit = 20
	MaxListLimit     = 100
)

var emailPattern = regexp.MustCompile(`(?i)^[a-z0-9_'+\-.]*[a-z0-9_+\-]@([a-z0-9][a-z0-9\-]*\.)+[a-z]{2,}$`)

// FieldIssue is one violated constraint.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated constraint, never just the first.
type ValidationError struct {
	Issues []FieldIssue `json:"issues"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == xerrors.ErrValidation
}

// Field returns the messages reported for field.
func (e *ValidationError) Field(field string) []string {
	var out []string
	for _, issue := range e.Issues {
		if issue.Field == field {
			out = append(out, issue.Message)
		}
	}
	return out
}

// CreatePaymentLinkRequest is the raw creation payload. Fields are kept as
// raw JSON so that a wrongly typed field is reported alongside every other
// problem instead of aborting decoding.
type CreatePaymentLinkRequest struct {
	ProjectID              json.RawMessage `json:"projectId"`
	Buyer                  json.RawMessage `json:"buyer"`
	Amount                 json.RawMessage `json:"amount"`
	Currency               json.RawMessage `json:"currency"`
	PaymentMethod          json.RawMessage `json:"paymentMethod"`
	SettlementAccountID    json.RawMessage `json:"settlementAccountId"`
	ExpiresAt              json.RawMessage `json:"expiresAt"`
	WebhookURL             json.RawMessage `json:"webhookUrl"`
	SuccessURL             json.RawMessage `json:"successUrl"`
	CancelURL              json.RawMessage `json:"cancelUrl"`
	Metadata               json.RawMessage `json:"metadata"`
	RequireKyc             json.RawMessage `json:"requireKyc"`
	RequireWalletWhitelist json.RawMessage `json:"requireWalletWhitelist"`
	Notes                  json.RawMessage `json:"notes"`
}

// PaymentLinkDraft is a validated, normalized creation request.
type PaymentLinkDraft struct {
	ProjectID              string
	Buyer                  *Buyer
	Amount                 decimal.Decimal
	Currency               Currency
	PaymentMethod          PaymentMethod
	SettlementAccountID    string
	ExpiresAt              time.Time
	WebhookURL             string
	SuccessURL             string
	CancelURL              string
	Metadata               map[string]interface{}
	RequireKyc             bool
	RequireWalletWhitelist bool
	Notes                  string
}

// Build turns the draft into a new ACTIVE link.
func (d *PaymentLinkDraft) Build(id, linkURL string, now time.Time) *PaymentLink {
	return &PaymentLink{
		ID:                     id,
		URL:                    linkURL,
		Status:                 PaymentLinkStatusActive,
		ProjectID:              d.ProjectID,
		Buyer:                  d.Buyer,
		Amount:                 d.Amount,
		Currency:               d.Currency,
		PaymentMethod:          d.PaymentMethod,
		SettlementAccountID:    d.SettlementAccountID,
		ExpiresAt:              d.ExpiresAt,
		WebhookURL:             d.WebhookURL,
		SuccessURL:             d.SuccessURL,
		CancelURL:              d.CancelURL,
		Metadata:               d.Metadata,
		RequireKyc:             d.RequireKyc,
		RequireWalletWhitelist: d.RequireWalletWhitelist,
		Notes:                  d.Notes,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// Validate checks the request against now and returns the normalized draft
// or a *ValidationError listing every issue.
func (r *CreatePaymentLinkRequest) Validate(now time.Time) (*PaymentLinkDraft, error) {
	v := &validator{}
	d := &PaymentLinkDraft{}

	d.ProjectID = v.requiredString("projectId", r.ProjectID, "Project is required")
	d.Buyer = v.buyer(r.Buyer)
	d.Amount = v.positiveAmount("amount", r.Amount)
	d.Currency = Currency(v.enum("currency", r.Currency, string(CurrencyAED), string(CurrencyUSDT)))
	d.PaymentMethod = PaymentMethod(v.enum("paymentMethod", r.PaymentMethod,
		string(PaymentMethodUSDTToAED), string(PaymentMethodAEDBankTransfer)))
	d.SettlementAccountID = v.requiredString("settlementAccountId", r.SettlementAccountID, "Settlement account is required")
	d.ExpiresAt = v.expiry("expiresAt", r.ExpiresAt, now)
	d.WebhookURL = v.optionalURL("webhookUrl", r.WebhookURL, "Invalid webhook URL")
	d.SuccessURL = v.optionalURL("successUrl", r.SuccessURL, "Invalid success URL")
	d.CancelURL = v.optionalURL("cancelUrl", r.CancelURL, "Invalid cancel URL")
	d.Metadata = v.metadata("metadata", r.Metadata)
	d.RequireKyc = v.boolDefault("requireKyc", r.RequireKyc, true)
	d.RequireWalletWhitelist = v.boolDefault("requireWalletWhitelist", r.RequireWalletWhitelist, true)
	d.Notes = v.notes("notes", r.Notes)

	if err := v.err(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate applies list defaults and bounds.
func (f *ListPaymentLinksFilter) Validate() error {
	v := &validator{}
	if f.Limit == 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit < 1 || f.Limit > MaxListLimit {
		v.add("limit", fmt.Sprintf("Limit must be between 1 and %d", MaxListLimit))
	}
	if f.Status != "" && !f.Status.Valid() {
		v.add("status", "Invalid enum value. Expected 'ACTIVE' | 'EXPIRED' | 'PAID' | 'CANCELLED'")
	}
	return v.err()
}

// IsValidEmail applies the same address check as buyer emails.
func IsValidEmail(s string) bool {
	if strings.HasPrefix(s, ".") || strings.Contains(s, "..") {
		return false
	}
	return emailPattern.MatchString(s)
}

type validator struct {
	issues []FieldIssue
}

func (v *validator) add(field, msg string) {
	v.issues = append(v.issues, FieldIssue{Field: field, Message: msg})
}

func (v *validator) err() error {
	if len(v.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: v.issues}
}

func (v *validator) requiredString(field string, raw json.RawMessage, msg string) string {
	s, present, ok := decodeString(raw)
	if !present {
		v.add(field, msg)
		return ""
	}
	if !ok {
		v.add(field, "Expected string, received "+jsonKind(raw))
		return ""
	}
	if s == "" {
		v.add(field, msg)
	}
	return s
}

func (v *validator) enum(field string, raw json.RawMessage, allowed ...string) string {
	s, present, ok := decodeString(raw)
	if !present {
		v.add(field, "Required")
		return ""
	}
	for _, a := range allowed {
		if ok && s == a {
			return s
		}
	}
	v.add(field, "Invalid enum value. Expected '"+strings.Join(allowed, "' | '")+"'")
	return ""
}

type rawBuyer struct {
	Type       json.RawMessage `json:"type"`
	Email      json.RawMessage `json:"email"`
	ExternalID json.RawMessage `json:"externalId"`
}

func (v *validator) buyer(raw json.RawMessage) *Buyer {
	if isAbsent(raw) {
		v.add("buyer", "Buyer is required")
		return nil
	}
	var rb rawBuyer
	if err := json.Unmarshal(raw, &rb); err != nil {
		v.add("buyer", "Expected object, received "+jsonKind(raw))
		return nil
	}

	t, _, _ := decodeString(rb.Type)
	switch BuyerType(t) {
	case BuyerTypeEmail:
		email, present, ok := decodeString(rb.Email)
		if !present || !ok || !IsValidEmail(email) {
			v.add("buyer.email", "Invalid email address")
			return nil
		}
		return EmailBuyer(email)
	case BuyerTypeExternalID:
		ext, present, ok := decodeString(rb.ExternalID)
		if !present || !ok || utf8.RuneCountInString(ext) < MinExternalIDLength {
			v.add("buyer.externalId", fmt.Sprintf("External ID must be at least %d characters", MinExternalIDLength))
			return nil
		}
		return ExternalIDBuyer(ext)
	}
	v.add("buyer.type", "Invalid discriminator value. Expected 'email' | 'externalId'")
	return nil
}

// positiveAmount coerces numbers and numeric strings.
func (v *validator) positiveAmount(field string, raw json.RawMessage) decimal.Decimal {
	var text string
	if s, present, ok := decodeString(raw); present && ok {
		text = strings.TrimSpace(s)
		if text == "" {
			text = "0"
		}
	} else if !isAbsent(raw) && jsonKind(raw) == "number" {
		text = string(bytes.TrimSpace(raw))
	} else {
		v.add(field, "Amount must be a number")
		return decimal.Zero
	}

	amount, err := decimal.NewFromString(text)
	if err != nil {
		v.add(field, "Amount must be a number")
		return decimal.Zero
	}
	if !amount.IsPositive() {
		v.add(field, "Amount must be greater than 0")
	}
	return amount
}

func (v *validator) expiry(field string, raw json.RawMessage, now time.Time) time.Time {
	if isAbsent(raw) {
		v.add(field, "Expiry date is required")
		return time.Time{}
	}
	t, ok := decodeTime(raw)
	if !ok {
		v.add(field, "Invalid date")
		return time.Time{}
	}
	lower := now.Add(MinExpiry - expiryGrace)
	upper := now.Add(MaxExpiry)
	if t.Before(lower) || t.After(upper) {
		v.add(field, "Expiry date must be between 10 minutes and 30 days from now")
	}
	return t
}

func (v *validator) optionalURL(field string, raw json.RawMessage, msg string) string {
	s, present, ok := decodeString(raw)
	if !present {
		return ""
	}
	if !ok {
		v.add(field, msg)
		return ""
	}
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		v.add(field, msg)
		return ""
	}
	return s
}

func (v *validator) metadata(field string, raw json.RawMessage) map[string]interface{} {
	if isAbsent(raw) {
		return nil
	}
	const msg = "Metadata must be valid JSON object"

	payload := []byte(raw)
	if s, _, ok := decodeString(raw); ok {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		payload = []byte(s)
	} else if jsonKind(raw) != "object" {
		v.add(field, msg)
		return nil
	}

	var parsed interface{}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		v.add(field, msg)
		return nil
	}
	obj, ok := parsed.(map[string]interface{})
	if !ok || obj == nil {
		v.add(field, msg)
		return nil
	}
	return obj
}

func (v *validator) boolDefault(field string, raw json.RawMessage, def bool) bool {
	if isAbsent(raw) {
		return def
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		v.add(field, "Expected boolean, received "+jsonKind(raw))
		return def
	}
	return b
}

func (v *validator) notes(field string, raw json.RawMessage) string {
	s, present, ok := decodeString(raw)
	if !present {
		return ""
	}
	if !ok {
		v.add(field, "Expected string, received "+jsonKind(raw))
		return ""
	}
	if utf8.RuneCountInString(s) > MaxNotesLength {
		v.add(field, fmt.Sprintf("Notes must be less than %d characters", MaxNotesLength))
	}
	return s
}

func isAbsent(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// decodeString reports whether raw was present and whether it was a string.
func decodeString(raw json.RawMessage) (s string, present bool, ok bool) {
	if isAbsent(raw) {
		return "", false, false
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", true, false
	}
	return s, true, true
}

func decodeTime(raw json.RawMessage) (time.Time, bool) {
	if s, _, ok := decodeString(raw); ok {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z07:00", "2006-01-02T15:04"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

func jsonKind(raw json.RawMessage) string {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return "undefined"
	}
	switch t[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	}
	return "number"
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
