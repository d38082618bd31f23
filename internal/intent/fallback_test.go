package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	res   Result
	err   error
	calls int
}

func (s *stubClassifier) Classify(_ context.Context, _ Request) (Result, error) {
	s.calls++
	return s.res, s.err
}

func TestFallbackUsesPrimaryWhenHealthy(t *testing.T) {
	primary := &stubClassifier{res: Result{Intent: IntentBookYes, Confidence: 0.9}}
	fallback := &stubClassifier{res: Result{Intent: IntentUnclear}}
	c := NewFallbackClassifier(primary, fallback, nil)

	res, err := c.Classify(context.Background(), Request{Message: "book it"})
	require.NoError(t, err)
	assert.Equal(t, IntentBookYes, res.Intent)
	assert.Equal(t, 0, fallback.calls)
}

func TestFallbackOnPrimaryFailure(t *testing.T) {
	primary := &stubClassifier{err: errors.New("bedrock unavailable")}
	fallback := &stubClassifier{res: Result{Intent: IntentOptOut, Confidence: 0.6}}
	c := NewFallbackClassifier(primary, fallback, nil)

	res, err := c.Classify(context.Background(), Request{Message: "STOP"})
	require.NoError(t, err)
	assert.Equal(t, IntentOptOut, res.Intent)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestFallbackErrorWhenBothFail(t *testing.T) {
	primary := &stubClassifier{err: errors.New("primary down")}
	fallback := &stubClassifier{err: errors.New("fallback down")}
	c := NewFallbackClassifier(primary, fallback, nil)

	_, err := c.Classify(context.Background(), Request{Message: "hello"})
	assert.ErrorContains(t, err, "fallback down")
}

func TestFallbackNilFallbackReturnsPrimaryError(t *testing.T) {
	primary := &stubClassifier{err: errors.New("primary down")}
	c := NewFallbackClassifier(primary, nil, nil)

	_, err := c.Classify(context.Background(), Request{Message: "hello"})
	assert.ErrorContains(t, err, "primary down")
}
