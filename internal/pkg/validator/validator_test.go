package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsu-raid/internal/pkg/xerrors"
)

type bidForm struct {
	UserID string `validate:"required"`
	Amount int64  `validate:"gt=0"`
}

func TestCustomValidator(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(&bidForm{UserID: "u1", Amount: 10}))

	err := v.Validate(&bidForm{Amount: 10})
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.CodeInvalidParams))

	var appErr *xerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "UserID", appErr.Metadata("field"))

	err = v.Validate(&bidForm{UserID: "u1", Amount: 0})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Amount 必须大于 0", appErr.Metadata("validation_message"))
}
