package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/stylecoach/internal/bodyshape"
	"github.com/example/stylecoach/internal/catalog"
	"github.com/example/stylecoach/internal/logging"
	"github.com/example/stylecoach/internal/repository"
	"github.com/example/stylecoach/internal/season"
	"github.com/example/stylecoach/internal/session"
)

// Recommendation pairs the advice for a body shape and a season. Either side may be absent.
type Recommendation struct {
	Body   *catalog.Entry `json:"body,omitempty"`
	Season *catalog.Entry `json:"season,omitempty"`
}

// Recommend looks up advice for the given categories. Empty categories are skipped,
// but at least one must be set and every set category must be resolvable.
func (uc *AnalysisUseCase) Recommend(ctx context.Context, requestID string, body bodyshape.Category, tone season.Category) (*Recommendation, error) {
	if body == "" && tone == "" {
		return nil, fmt.Errorf("%w: body or season is required", ErrInvalidInput)
	}
	if body != "" && !body.Valid() {
		return nil, fmt.Errorf("%w: unknown body shape %q", ErrInvalidInput, body)
	}
	if tone != "" && !tone.Valid() {
		return nil, fmt.Errorf("%w: unknown season %q", ErrInvalidInput, tone)
	}

	rec := &Recommendation{}
	if body != "" {
		entry, err := uc.lookup(ctx, requestID, catalog.KindBody, string(body))
		if err != nil {
			return nil, err
		}
		rec.Body = entry
	}
	if tone != "" {
		entry, err := uc.lookup(ctx, requestID, catalog.KindSeason, string(tone))
		if err != nil {
			return nil, err
		}
		rec.Season = entry
	}
	return rec, nil
}

// Catalog lists every body-shape entry followed by every season entry. A kind the
// repository has no rows for falls back to the built-in catalog.
func (uc *AnalysisUseCase) Catalog(ctx context.Context, requestID string) ([]catalog.Entry, error) {
	var entries []catalog.Entry
	for _, kind := range []catalog.Kind{catalog.KindBody, catalog.KindSeason} {
		var listed []catalog.Entry
		if uc.repo != nil {
			found, err := uc.repo.List(ctx, requestID, kind)
			if err != nil {
				return nil, logging.NewOperationError("usecase.catalog", requestID, err)
			}
			listed = found
		}
		if len(listed) == 0 {
			listed = builtinEntries(kind)
		}
		entries = append(entries, listed...)
	}
	return entries, nil
}

func builtinEntries(kind catalog.Kind) []catalog.Entry {
	var entries []catalog.Entry
	for _, entry := range catalog.Defaults() {
		if entry.Kind == kind {
			entries = append(entries, entry)
		}
	}
	return entries
}

func (uc *AnalysisUseCase) recommendFor(ctx context.Context, requestID string, s *session.Session) (*Recommendation, error) {
	var body bodyshape.Category
	var tone season.Category
	if s.Body != nil {
		body = s.Body.Category
	}
	if s.Color != nil {
		tone = s.Color.Category
	}
	return uc.Recommend(ctx, requestID, body, tone)
}

// lookup reads through the in-process cache, then the repository, then the built-in catalog.
func (uc *AnalysisUseCase) lookup(ctx context.Context, requestID string, kind catalog.Kind, key string) (*catalog.Entry, error) {
	cacheKey := string(kind) + ":" + key
	if entry, ok := uc.recommendations.Get(cacheKey); ok {
		return &entry, nil
	}

	var entry *catalog.Entry
	if uc.repo != nil {
		found, err := uc.repo.Find(ctx, requestID, kind, key)
		switch {
		case err == nil:
			entry = found
		case errors.Is(err, repository.ErrNotFound):
			logging.WithOperation(uc.logger, "usecase.recommend", requestID).Warn("catalog entry missing, using built-in advice", zap.String("kind", string(kind)), zap.String("key", key))
		default:
			return nil, logging.NewOperationError("usecase.recommend", requestID, err)
		}
	}
	if entry == nil {
		builtin, ok := builtinEntry(kind, key)
		if !ok {
			return nil, fmt.Errorf("%w: no advice for %s %q", ErrInvalidInput, kind, key)
		}
		entry = &builtin
	}

	uc.recommendations.Add(cacheKey, *entry)
	return entry, nil
}

func builtinEntry(kind catalog.Kind, key string) (catalog.Entry, bool) {
	switch kind {
	case catalog.KindBody:
		return catalog.Body(bodyshape.Category(key))
	case catalog.KindSeason:
		return catalog.Season(season.Category(key))
	default:
		return catalog.Entry{}, false
	}
}
