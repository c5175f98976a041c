package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutRequest struct {
	CustomerName  string `json:"customer_name" validate:"required"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	Quantity      int    `json:"quantity" validate:"gte=1,lte=99"`
	Method        string `json:"payment_method" validate:"omitempty,oneof=bank_transfer promptpay credit_card"`
}

func decode(t *testing.T, body string) (checkoutRequest, error) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/orders", strings.NewReader(body))
	var out checkoutRequest
	err := DecodeAndValidate(httptest.NewRecorder(), req, &out)
	return out, err
}

// Feature: storefront, Property: a request passes validation exactly when every required field is present
func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(includeName bool, includeEmail bool, includeQuantity bool) bool {
			reqMap := make(map[string]interface{})
			if includeName {
				reqMap["customer_name"] = "Somchai"
			}
			if includeEmail {
				reqMap["customer_email"] = "somchai@example.com"
			}
			if includeQuantity {
				reqMap["quantity"] = 2
			}

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/test", bytes.NewReader(reqBody))

			var out checkoutRequest
			err := DecodeAndValidate(httptest.NewRecorder(), req, &out)

			if includeName && includeEmail && includeQuantity {
				return err == nil
			}
			return err != nil && len(FormatValidationErrors(err)) > 0
		},
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFormatValidationErrors_UsesJSONNames(t *testing.T) {
	_, err := decode(t, `{"customer_name":"A","customer_email":"nope","quantity":0,"payment_method":"cash"}`)
	require.Error(t, err)

	fields := map[string]string{}
	for _, fe := range FormatValidationErrors(err) {
		fields[fe.Field] = fe.Message
	}
	assert.Equal(t, "Invalid email format", fields["customer_email"])
	assert.Equal(t, "Value must be greater than or equal to 1", fields["quantity"])
	assert.Equal(t, "Must be one of: bank_transfer promptpay credit_card", fields["payment_method"])
	assert.NotContains(t, fields, "customer_name")
}

func TestDecodeAndValidate_MalformedBody(t *testing.T) {
	for _, body := range []string{"", "{", "[]", `{"quantity":"two"}`} {
		_, err := decode(t, body)
		assert.True(t, errors.Is(err, ErrMalformedBody), "body %q: %v", body, err)
		assert.Empty(t, FormatValidationErrors(err))
	}
}

func TestDecodeAndValidate_Valid(t *testing.T) {
	out, err := decode(t, `{"customer_name":"A","customer_email":"a@b.co","quantity":3}`)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Quantity)
}
