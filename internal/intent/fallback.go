package intent

import (
	"context"

	"github.com/boostxlresults/intellisend/internal/tenancy"
	"github.com/boostxlresults/intellisend/pkg/logging"
)

// FallbackClassifier wraps a primary classifier with a fallback.
// If the primary fails, it automatically retries with the fallback.
type FallbackClassifier struct {
	primary  Classifier
	fallback Classifier
	logger   *logging.Logger
}

// NewFallbackClassifier creates a fallback-enabled classifier.
// If fallback is nil, only the primary is used.
func NewFallbackClassifier(primary, fallback Classifier, logger *logging.Logger) *FallbackClassifier {
	if primary == nil {
		panic("intent: primary classifier is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackClassifier{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Classify asks the primary classifier first. If it fails and a fallback is
// configured, retries with the fallback.
func (c *FallbackClassifier) Classify(ctx context.Context, req Request) (Result, error) {
	res, err := c.primary.Classify(ctx, req)
	if err == nil {
		return res, nil
	}

	orgID, _ := tenancy.OrgIDFromContext(ctx)
	c.logger.Warn("primary classifier failed, attempting fallback",
		"error", err.Error(),
		"org_id", orgID,
		"fallback_available", c.fallback != nil,
	)

	if c.fallback == nil {
		return Result{}, err
	}

	fallbackRes, fallbackErr := c.fallback.Classify(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback classifier also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return Result{}, fallbackErr
	}
	return fallbackRes, nil
}
