package schema

import (
	"errors"
	"testing"

	"github.com/adsgram/backend/internal/apperr"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func TestNew_CompilesEveryBodySchema(t *testing.T) {
	v := newTestValidator(t)
	for _, name := range []string{AdCredit, TaskSubmit, TaskDecide, WithdrawalRequest, WithdrawalAction, DevLogin, VerifyCode, AdminLogin, ProfileUpdate} {
		if _, ok := v.schemas[name]; !ok {
			t.Errorf("schema %q not loaded", name)
		}
	}
}

func TestValidate_Accepts(t *testing.T) {
	v := newTestValidator(t)

	cases := []struct {
		schema string
		body   string
	}{
		{AdCredit, `{"adId":"6f1c2f0e-1b7a-4d0c-9a49-2d7cbb3b1f10"}`},
		{TaskSubmit, `{"taskId":"t1","proof":"https://t.me/c/1"}`},
		{TaskSubmit, `{"taskId":"t1","proof":null}`},
		{TaskDecide, `{"completionId":"c1","approve":false}`},
		{WithdrawalRequest, `{"method":"USDT"}`},
		{WithdrawalRequest, `{"method":1}`},
		{WithdrawalAction, `{"withdrawalId":"w1","txRef":"0xabc"}`},
		{DevLogin, `{"telegramId":123456789}`},
		{DevLogin, `{"telegramId":"123456789","username":"ana"}`},
		{VerifyCode, `{"code":"123456","extra":true}`},
		{AdminLogin, `{"pin":"1234"}`},
		{ProfileUpdate, `{"walletAddress":"TXYZ1234567890abcd","pixKey":null}`},
		{ProfileUpdate, `{}`},
	}
	for _, tc := range cases {
		if err := v.Validate(tc.schema, []byte(tc.body)); err != nil {
			t.Errorf("%s %s: unexpected error %v", tc.schema, tc.body, err)
		}
	}
}

func TestValidate_Rejects(t *testing.T) {
	v := newTestValidator(t)

	cases := []struct {
		name   string
		schema string
		body   string
		want   error
	}{
		{"missing ad id", AdCredit, `{}`, ErrValidation},
		{"empty ad id", AdCredit, `{"adId":""}`, ErrValidation},
		{"approve as string", TaskDecide, `{"completionId":"c1","approve":"yes"}`, ErrValidation},
		{"approve missing", TaskDecide, `{"completionId":"c1"}`, ErrValidation},
		{"method as object", WithdrawalRequest, `{"method":{}}`, ErrValidation},
		{"method fractional", WithdrawalRequest, `{"method":0.5}`, ErrValidation},
		{"telegram id bool", DevLogin, `{"telegramId":true}`, ErrValidation},
		{"not an object", VerifyCode, `["123456"]`, ErrValidation},
		{"wallet as number", ProfileUpdate, `{"walletAddress":12345678901234567}`, ErrValidation},
		{"malformed", AdminLogin, `{"pin":`, ErrMalformed},
		{"empty body", AdCredit, ``, ErrMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.schema, []byte(tc.body))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if apperr.KindOf(err) != apperr.KindInvalidInput {
				t.Errorf("expected invalid input kind, got %v", apperr.KindOf(err))
			}
		})
	}
}

func TestValidate_UnknownSchema(t *testing.T) {
	v := newTestValidator(t)
	err := v.Validate("nope", []byte(`{}`))
	if err == nil || apperr.KindOf(err) != apperr.KindInternal {
		t.Fatalf("expected unclassified error, got %v", err)
	}
}
