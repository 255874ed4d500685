package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func TestRespondErrorMapsClasses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{shared.NewError(shared.ErrNotFound, "missing"), http.StatusNotFound},
		{fmt.Errorf("wrap: %w", shared.NewError(shared.ErrConflict, "dup")), http.StatusConflict},
		{shared.NewError(shared.ErrValidation, "bad"), http.StatusBadRequest},
		{shared.NewError(shared.ErrRejected, "stock"), http.StatusUnprocessableEntity},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		require.Equal(t, tc.status, rec.Code, tc.err.Error())
		var body ProblemDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, tc.status, body.Status)
		if tc.status == http.StatusInternalServerError {
			require.Empty(t, body.Detail)
		}
	}
}

type sampleRequest struct {
	SKU  string `json:"sku" validate:"required,max=4"`
	Kind string `json:"kind" validate:"oneof=revenue expense"`
}

func TestValidatorReportsJSONNames(t *testing.T) {
	v := NewValidator()
	fields := v.Struct(sampleRequest{SKU: "TOOLONG", Kind: "gift"})
	require.Equal(t, "must be at most 4 characters", fields["sku"])
	require.Equal(t, "must be one of revenue expense", fields["kind"])
	require.Nil(t, v.Struct(sampleRequest{SKU: "A1", Kind: "revenue"}))
}
