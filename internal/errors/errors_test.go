package errors_test

import (
	"errors"
	"net/http"
	"testing"

	cresterrs "github.com/agrange/crest/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEConstructor(t *testing.T) {
	got := cresterrs.E(
		"something went wrong",
		cresterrs.Detail{Field: "userId", Error: "required"},
		http.StatusBadRequest,
	)
	want := &cresterrs.Error{
		Err: errors.New("something went wrong"),
		Details: []cresterrs.Detail{
			{Field: "userId", Error: "required"},
		},
		Status: http.StatusBadRequest,
	}

	assert.Equal(t, want, got)
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := cresterrs.E(cause, http.StatusInternalServerError)

	require.ErrorIs(t, err, cause)
}
