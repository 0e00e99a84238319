package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/abdusco/shortr/internal"
	"github.com/abdusco/shortr/internal/repo"
)

const (
	topCountries = 10
	topReferrers = 10
	recentVisits = 100
)

type AnalyticsHandler struct {
	links  *repo.LinksRepo
	visits *repo.VisitsRepo
}

func NewAnalyticsHandler(links *repo.LinksRepo, visits *repo.VisitsRepo) *AnalyticsHandler {
	return &AnalyticsHandler{links: links, visits: visits}
}

type VisitResponse struct {
	IP        string    `json:"ip"`
	Country   *string   `json:"country"`
	Device    string    `json:"device"`
	Browser   string    `json:"browser"`
	Referrer  *string   `json:"referrer"`
	CreatedAt time.Time `json:"created_at"`
}

type AnalyticsReport struct {
	Info       LinkResponse             `json:"info"`
	ByCountry  []internal.CountryCount  `json:"byCountry"`
	ByDevice   []internal.DeviceCount   `json:"byDevice"`
	ByReferrer []internal.ReferrerCount `json:"byReferrer"`
	Recent     []VisitResponse          `json:"recent"`
}

func (h *AnalyticsHandler) GetAnalytics(c echo.Context) error {
	ctx := c.Request().Context()
	alias := c.Param("id")

	link, err := h.links.GetByShortID(ctx, alias)
	if err != nil {
		return httpError(err)
	}

	byCountry, err := h.visits.CountByCountry(ctx, alias, topCountries)
	if err != nil {
		return httpError(err)
	}

	byDevice, err := h.visits.CountByDevice(ctx, alias)
	if err != nil {
		return httpError(err)
	}

	byReferrer, err := h.visits.CountByReferrer(ctx, alias, topReferrers)
	if err != nil {
		return httpError(err)
	}

	recent, err := h.visits.Recent(ctx, alias, recentVisits)
	if err != nil {
		return httpError(err)
	}

	report := AnalyticsReport{
		Info:       toLinkResponse(link),
		ByCountry:  byCountry,
		ByDevice:   byDevice,
		ByReferrer: byReferrer,
		Recent: lo.Map(recent, func(v *internal.Visit, _ int) VisitResponse {
			return VisitResponse{
				IP:        v.IP,
				Country:   v.Country,
				Device:    v.Device,
				Browser:   v.Browser,
				Referrer:  v.Referrer,
				CreatedAt: v.CreatedAt,
			}
		}),
	}

	return c.JSON(http.StatusOK, report)
}
