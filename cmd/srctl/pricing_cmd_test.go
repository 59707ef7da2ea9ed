package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
)

func TestParseNaira(t *testing.T) {
	amount, err := parseNaira("15000")
	require.NoError(t, err)
	assert.Equal(t, domain.NGN(15000), amount)

	amount, err = parseNaira("15000.5")
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(1500050), amount)

	_, err = parseNaira("1.005")
	assert.Error(t, err)

	_, err = parseNaira("abc")
	assert.Error(t, err)
}
