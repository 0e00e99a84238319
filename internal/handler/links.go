package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/abdusco/shortr/internal"
	"github.com/abdusco/shortr/internal/repo"
	"github.com/abdusco/shortr/internal/shorten"
	"github.com/abdusco/shortr/internal/visit"
)

type LinkHandler struct {
	shortener *shorten.Service
	links     *repo.LinksRepo
	recorder  *visit.Recorder
	baseURL   string
}

func NewLinkHandler(shortener *shorten.Service, links *repo.LinksRepo, recorder *visit.Recorder, baseURL string) *LinkHandler {
	return &LinkHandler{
		shortener: shortener,
		links:     links,
		recorder:  recorder,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

type ShortenRequest struct {
	URL    string `json:"url"`
	Custom string `json:"custom"`
}

type ShortenResponse struct {
	ShortID   string    `json:"shortId"`
	ShortURL  string    `json:"shortUrl"`
	LongURL   string    `json:"longUrl"`
	Clicks    int64     `json:"clicks"`
	CreatedAt time.Time `json:"createdAt"`
}

type GenerateResponse struct {
	ShortID  string `json:"shortId"`
	ShortURL string `json:"shortUrl"`
}

type ResolveRequest struct {
	Short string `json:"short"`
}

// LinkResponse mirrors a urls row.
type LinkResponse struct {
	ShortID   string    `json:"short_id"`
	LongURL   string    `json:"long_url"`
	Clicks    int64     `json:"clicks"`
	CreatedAt time.Time `json:"created_at"`
}

type ListLinksResponse struct {
	URLs []LinkResponse `json:"urls"`
}

func (h *LinkHandler) Shorten(c echo.Context) error {
	ctx := c.Request().Context()

	var req ShortenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	link, err := h.shortener.Shorten(ctx, req.URL, req.Custom)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, ShortenResponse{
		ShortID:   link.ShortID,
		ShortURL:  h.shortURL(link.ShortID),
		LongURL:   link.LongURL,
		Clicks:    link.Clicks,
		CreatedAt: link.CreatedAt,
	})
}

func (h *LinkHandler) Generate(c echo.Context) error {
	ctx := c.Request().Context()

	alias, err := h.shortener.GenerateFree(ctx)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, GenerateResponse{
		ShortID:  alias,
		ShortURL: h.shortURL(alias),
	})
}

func (h *LinkHandler) Resolve(c echo.Context) error {
	ctx := c.Request().Context()

	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	link, err := h.shortener.Lookup(ctx, req.Short)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, toLinkResponse(link))
}

func (h *LinkHandler) Info(c echo.Context) error {
	ctx := c.Request().Context()

	link, err := h.links.GetByShortID(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, toLinkResponse(link))
}

func (h *LinkHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	links, err := h.links.List(ctx)
	if err != nil {
		return httpError(err)
	}

	responses := lo.Map(links, func(link *internal.Link, _ int) LinkResponse {
		return toLinkResponse(link)
	})

	return c.JSON(http.StatusOK, ListLinksResponse{URLs: responses})
}

func (h *LinkHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.links.Delete(ctx, c.Param("id")); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Redirect resolves an alias, bumps the click counter and logs the visit.
// Visit logging is best-effort: its failure must not break the redirect.
func (h *LinkHandler) Redirect(c echo.Context) error {
	ctx := c.Request().Context()
	alias := c.Param("id")

	link, err := h.links.GetByShortID(ctx, alias)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return c.String(http.StatusNotFound, "Short URL not found")
		}
		return c.String(http.StatusInternalServerError, "Server error")
	}

	if err := h.links.IncrementClicks(ctx, alias); err != nil {
		return c.String(http.StatusInternalServerError, "Server error")
	}

	if err := h.recorder.Record(ctx, alias, c.Request()); err != nil {
		log.Error().Err(err).Str("short_id", alias).Msg("analytics logging failed")
	}

	return c.Redirect(http.StatusMovedPermanently, link.LongURL)
}

func (h *LinkHandler) shortURL(alias string) string {
	return h.baseURL + "/" + alias
}

func toLinkResponse(link *internal.Link) LinkResponse {
	return LinkResponse{
		ShortID:   link.ShortID,
		LongURL:   link.LongURL,
		Clicks:    link.Clicks,
		CreatedAt: link.CreatedAt,
	}
}

// httpError maps domain errors onto HTTP statuses. Store-level failures
// degrade to a generic message instead of leaking internals.
func httpError(err error) error {
	switch {
	case errors.Is(err, internal.ErrInvalidURL),
		errors.Is(err, internal.ErrInvalidAlias),
		errors.Is(err, internal.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, internal.ErrAliasConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, internal.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, internal.ErrNotFound.Error())
	case errors.Is(err, internal.ErrGenerationExhausted):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, internal.ErrStore.Error())
	}
}
