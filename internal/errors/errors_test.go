package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsCode(t *testing.T) {
	err := Wrap(InvalidInput("series must not be empty"), "analyze failed")

	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.Equal(t, "analyze failed: series must not be empty", err.Error())
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestWrap_PlainErrorIsInternal(t *testing.T) {
	err := Wrapf(fmt.Errorf("disk full"), "persist %s", "decision")

	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
}

func TestHasCode_SearchesChain(t *testing.T) {
	cause := fmt.Errorf("HTTP 429")
	err := fmt.Errorf("refresh quote: %w", RateLimited("quote:BBCA", cause))

	assert.True(t, IsRateLimited(err))
	assert.True(t, IsUpstreamFailure(err))
	assert.False(t, HasCode(err, CodeUpstreamFetch))
	assert.True(t, stderrors.Is(err, cause))

	upstream := UpstreamFetch("quote:BBCA", fmt.Errorf("timeout"))
	assert.True(t, IsUpstreamFailure(upstream))
	assert.False(t, IsRateLimited(upstream))
	assert.Contains(t, upstream.Error(), `upstream fetch failed for "quote:BBCA": timeout`)
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeKillSwitch, fmt.Errorf("chart disabled"))

	assert.True(t, IsAppError(err))
	assert.True(t, HasCode(err, CodeKillSwitch))
	assert.Nil(t, WithCode(CodeKillSwitch, nil))
}

func TestGateErrorCodes(t *testing.T) {
	assert.True(t, HasCode(Structural("dataPoints is required"), CodeStructural))
	assert.True(t, HasCode(Semantic("no data"), CodeSemantic))

	err := KillSwitch("chart")
	assert.True(t, HasCode(err, CodeKillSwitch))
	assert.Contains(t, err.Error(), "chart")
}
