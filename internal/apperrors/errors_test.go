package apperrors

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinel(t *testing.T) {
	tests := []struct {
		err  error
		want error
		kind Kind
	}{
		{Config("bad", nil), ErrConfig, KindConfig},
		{InputNotFound("x.xlsx", os.ErrNotExist), ErrInputNotFound, KindInputNotFound},
		{MissingColumns("x.xlsx", []string{"name"}), ErrSchema, KindSchema},
		{DataType("qty", "R1", "abc"), ErrDataType, KindDataType},
		{Output("save", nil), ErrOutput, KindOutput},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			wrapped := fmt.Errorf("run: %w", tt.err)
			assert.True(t, errors.Is(wrapped, tt.want))
			assert.Equal(t, tt.kind, KindOf(wrapped))
			assert.False(t, errors.Is(wrapped, ErrConfig) && tt.kind != KindConfig)
		})
	}
}

func TestErrorUnwrapsCause(t *testing.T) {
	err := InputNotFound("orders.xlsx", os.ErrNotExist)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestErrorMessage(t *testing.T) {
	err := DataType("qty", "R1", "abc")
	assert.Equal(t, `[DATA_TYPE] non-numeric value in summed column column="qty" route="R1" value="abc"`, err.Error())

	err2 := Config("failed to read config file", errors.New("boom")).With("path", "job.yaml")
	assert.Equal(t, `[CONFIG] failed to read config file path="job.yaml": boom`, err2.Error())
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}
