package shorten

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/abdusco/shortr/internal"
	"github.com/abdusco/shortr/internal/repo"
)

const (
	// Insert attempts for a generated alias before giving up.
	createAttempts = 5
	// Probe attempts when only reserving a free id without inserting.
	generateProbes = 10
)

// Service owns alias validation and the collision-retry insert loop, so
// handlers never deal with uniqueness conflicts themselves.
type Service struct {
	links *repo.LinksRepo
}

func NewService(links *repo.LinksRepo) *Service {
	return &Service{links: links}
}

// Shorten maps longURL to an alias. With a custom alias the call is
// idempotent for the same URL and conflicts for a different one. Without one,
// an existing mapping for the URL is returned as-is, otherwise a generated
// alias is inserted with a bounded number of retries on collision.
func (s *Service) Shorten(ctx context.Context, longURL, custom string) (*internal.Link, error) {
	if !ValidURL(longURL) {
		return nil, internal.ErrInvalidURL
	}

	if custom != "" {
		return s.shortenCustom(ctx, longURL, custom)
	}

	existing, err := s.links.GetByLongURL(ctx, longURL)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, internal.ErrNotFound) {
		return nil, err
	}

	for i := 0; i < createAttempts; i++ {
		link, err := s.links.Create(ctx, NewAlias(), longURL)
		if err == nil {
			return link, nil
		}
		if errors.Is(err, internal.ErrAliasConflict) {
			log.Debug().Str("url", longURL).Msg("alias collision, retrying")
			continue
		}
		return nil, err
	}

	return nil, internal.ErrGenerationExhausted
}

func (s *Service) shortenCustom(ctx context.Context, longURL, alias string) (*internal.Link, error) {
	if !ValidAlias(alias) || Reserved(alias) {
		return nil, internal.ErrInvalidAlias
	}

	existing, err := s.links.GetByShortID(ctx, alias)
	if err == nil {
		if existing.LongURL == longURL {
			return existing, nil
		}
		return nil, internal.ErrAliasConflict
	}
	if !errors.Is(err, internal.ErrNotFound) {
		return nil, err
	}

	// A concurrent insert can still win the race; Create surfaces that as
	// the same conflict.
	return s.links.Create(ctx, alias, longURL)
}

// GenerateFree finds a generated alias with no mapping yet. It does not
// reserve the id; it only probes the store.
func (s *Service) GenerateFree(ctx context.Context) (string, error) {
	for i := 0; i < generateProbes; i++ {
		alias := NewAlias()
		_, err := s.links.GetByShortID(ctx, alias)
		if errors.Is(err, internal.ErrNotFound) {
			return alias, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", internal.ErrGenerationExhausted
}

// Lookup resolves a bare alias or a full short URL to its mapping without
// side effects.
func (s *Service) Lookup(ctx context.Context, input string) (*internal.Link, error) {
	alias, err := ExtractShortID(input)
	if err != nil {
		return nil, err
	}
	return s.links.GetByShortID(ctx, alias)
}

// ExtractShortID pulls the alias out of a bare id or a full short URL.
func ExtractShortID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", internal.ErrInvalidInput
	}

	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		u, err := url.Parse(input)
		if err != nil {
			return "", internal.ErrInvalidInput
		}
		input = u.Path
	}

	alias := strings.TrimPrefix(input, "/")
	if alias == "" {
		return "", internal.ErrInvalidInput
	}
	return alias, nil
}

// ValidURL reports whether raw is an absolute http or https URL.
func ValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
