package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"cvready/repository"
)

func TestEvaluationErrorCode(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"cv not found", repository.ErrCvNotFound, "NOT_FOUND", http.StatusNotFound},
		{"jd not found", repository.ErrJdNotFound, "NOT_FOUND", http.StatusNotFound},
		{"evaluation not found", repository.ErrEvaluationNotFound, "NOT_FOUND", http.StatusNotFound},
		{"cv not owned", repository.ErrCvNotOwned, "FORBIDDEN", http.StatusForbidden},
		{"jd not owned", repository.ErrJdNotOwned, "FORBIDDEN", http.StatusForbidden},
		{"cv not parsed", repository.ErrCvNotParsed, "CV_NOT_PARSED", http.StatusConflict},
		{"wrapped sentinel", fmt.Errorf("load: %w", repository.ErrCvNotFound), "NOT_FOUND", http.StatusNotFound},
		{"unknown error", errors.New("boom"), "EVALUATION_FAILED", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, status := evaluationErrorCode(tc.err)
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantStatus, status)
		})
	}
}
