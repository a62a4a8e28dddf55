package port

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestPublicError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("parse: %w", ErrInvalidURL), http.StatusBadRequest, MsgInvalidURL},
		{fmt.Errorf("get repo: %w", ErrNotFound), http.StatusNotFound, MsgNotFound},
		{ErrAccessDenied, http.StatusForbidden, MsgAccessDenied},
		{fmt.Errorf("ai: %w", ErrRateLimited), http.StatusTooManyRequests, MsgRateLimited},
		{ErrServiceUnavailable, http.StatusServiceUnavailable, MsgServiceUnavailable},
		{ErrUpstream, http.StatusInternalServerError, MsgAnalysisFailed},
		{ErrAnalysisFailed, http.StatusInternalServerError, MsgAnalysisFailed},
		{errors.New("boom: secret upstream detail"), http.StatusInternalServerError, MsgAnalysisFailed},
	}
	for _, tc := range cases {
		status, msg := PublicError(tc.err)
		if status != tc.status || msg != tc.msg {
			t.Errorf("PublicError(%v) = %d %q, want %d %q", tc.err, status, msg, tc.status, tc.msg)
		}
	}
}
