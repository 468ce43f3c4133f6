package errors_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/loveknot/internal/errors"
)

func TestMap(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		kind   svcErr.Kind
		status int
		msg    string
	}{
		{"record not found", gorm.ErrRecordNotFound, svcErr.KindNotFound, http.StatusNotFound, "record not found"},
		{"wrapped not found", fmt.Errorf("load user: %w", gorm.ErrRecordNotFound), svcErr.KindNotFound, http.StatusNotFound, "record not found"},
		{"duplicate", gorm.ErrDuplicatedKey, svcErr.KindConflict, http.StatusConflict, "record already exists"},
		{"deadline", context.DeadlineExceeded, svcErr.KindInternal, http.StatusInternalServerError, "request timed out"},
		{"canceled", context.Canceled, svcErr.KindInternal, http.StatusInternalServerError, "request was canceled"},
		{"unknown", errors.New("dial tcp: refused"), svcErr.KindInternal, http.StatusInternalServerError, "internal server error"},
		{"already typed", svcErr.Forbidden("nope"), svcErr.KindForbidden, http.StatusForbidden, "nope"},
		{"invalid state", svcErr.InvalidState("premium not requested"), svcErr.KindInvalidState, http.StatusBadRequest, "premium not requested"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, svcErr.KindOf(tc.err))
			assert.Equal(t, tc.status, svcErr.HTTPStatus(tc.err))
			assert.Equal(t, tc.msg, svcErr.PublicMessage(tc.err))
		})
	}
}

func TestMap_NilStaysNil(t *testing.T) {
	assert.NoError(t, svcErr.Map(nil))
	assert.False(t, svcErr.Is(nil, svcErr.KindInternal))
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("password=hunter2 rejected")
	err := svcErr.Internal(cause)

	assert.Equal(t, "internal server error", svcErr.PublicMessage(err))
	assert.ErrorIs(t, err, cause)
}
