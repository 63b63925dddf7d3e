package utils

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckUnit(t *testing.T) {
	for _, v := range []float64{0, 0.5, 1} {
		assert.NoError(t, CheckUnit("eta", v))
	}
	for _, v := range []float64{-1e-12, 1.0000001, math.NaN(), math.Inf(1)} {
		err := CheckUnit("xsi", v)
		assert.ErrorIs(t, err, ErrInvalidParameterRange)
		assert.Contains(t, err.Error(), "xsi")
	}
}

func TestCheckIndex(t *testing.T) {
	assert.NoError(t, CheckIndex(0, 1))
	assert.ErrorIs(t, CheckIndex(-1, 3), ErrIndexOutOfRange)
	assert.ErrorIs(t, CheckIndex(3, 3), ErrIndexOutOfRange)
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	Logger().Info("hello", "k", 1)
	assert.Contains(t, buf.String(), "hello")

	SetLogger(nil)
	buf.Reset()
	Logger().Info("dropped")
	assert.Empty(t, buf.String())
}
