package extraction

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nursia/nursia-api/internal/normalize"
)

var ErrImageInvalid = errors.New("invalid image")

// Result pairs the provider's raw answer with its canonical form.
type Result struct {
	Data   map[string]any    `json:"data"`
	Record *normalize.Record `json:"record"`
	Cached bool              `json:"cached"`
}

// Observer is told how each extraction ended: invalid, cache_hit, provider,
// empty or error.
type Observer interface {
	ObserveExtraction(outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveExtraction(string) {}

type Service struct {
	extractor  Extractor
	cache      Cache
	normalizer *normalize.Normalizer
	logger     zerolog.Logger
	observer   Observer
}

func NewService(extractor Extractor, cache Cache, n *normalize.Normalizer, logger zerolog.Logger) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{extractor: extractor, cache: cache, normalizer: n, logger: logger, observer: nopObserver{}}
}

// WithObserver reports extraction outcomes to o.
func (s *Service) WithObserver(o Observer) *Service {
	if o != nil {
		s.observer = o
	}
	return s
}

// Extract reads the form in a data:image/... URL. Cache errors are logged
// and never fail the request.
func (s *Service) Extract(ctx context.Context, imageDataURL string) (*Result, error) {
	if !strings.HasPrefix(imageDataURL, "data:image/") {
		s.observer.ObserveExtraction("invalid")
		return nil, ErrImageInvalid
	}

	key := CacheKey(imageDataURL)
	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn().Err(err).Msg("extraction cache read failed")
	} else if ok {
		s.observer.ObserveExtraction("cache_hit")
		return s.result(data, true), nil
	}

	data, err := s.extractor.Extract(ctx, imageDataURL)
	if err != nil {
		s.observer.ObserveExtraction("error")
		return nil, err
	}
	if len(data) == 0 {
		// Most likely a provider hiccup; do not pin it.
		s.observer.ObserveExtraction("empty")
		return s.result(map[string]any{}, false), nil
	}

	s.observer.ObserveExtraction("provider")
	if err := s.cache.Set(ctx, key, data); err != nil {
		s.logger.Warn().Err(err).Msg("extraction cache write failed")
	}
	return s.result(data, false), nil
}

func (s *Service) result(data map[string]any, cached bool) *Result {
	return &Result{Data: data, Record: s.normalizer.Normalize(data), Cached: cached}
}
