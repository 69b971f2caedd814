package service

import (
	"testing"

	"course-enrollment-service/internal/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		price string
		want  int64
	}{
		{"49.99", 4999},
		{"10.005", 1001},
		{"0.125", 13},
		{"0", 0},
		{"19.5", 1950},
		{"100", 10000},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			got, err := ToMinorUnits(decimal.RequireFromString(tt.price))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToMinorUnits_Negative(t *testing.T) {
	_, err := ToMinorUnits(decimal.RequireFromString("-1.00"))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}
