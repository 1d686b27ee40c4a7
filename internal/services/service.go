// Package services defines the contract shared by the commit resolvers and the
// sequential loop that drives them over a list of versions.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tbckr/commit-resolver/internal/apperr"
	"github.com/tbckr/commit-resolver/internal/validate"
)

// Result is the common interface every service's Run output must satisfy.
type Result interface {
	IsEmpty() bool
}

// Service is the contract every resolver must implement.
type Service interface {
	Name() string
	Run(ctx context.Context, version string) (Result, error)
	AggregateResults(results []Result) Result
}

// NormalizeVersion trims surrounding whitespace and rejects empty or malformed
// versions.
func NormalizeVersion(version string) (string, error) {
	v := strings.TrimSpace(version)
	if v == "" {
		return "", fmt.Errorf("%w: version must not be empty", apperr.ErrInvalidInput)
	}
	if !validate.IsVersion(v) {
		return "", fmt.Errorf("%w: malformed version %q", apperr.ErrInvalidInput, v)
	}
	return v, nil
}

// RunAll resolves versions one after another in input order and aggregates
// the results. The first error aborts the run; nothing partial is returned.
func RunAll(ctx context.Context, svc Service, versions []string) (Result, error) {
	results := make([]Result, 0, len(versions))
	for _, v := range versions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := svc.Run(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", svc.Name(), strings.TrimSpace(v), err)
		}
		results = append(results, r)
	}
	return svc.AggregateResults(results), nil
}
