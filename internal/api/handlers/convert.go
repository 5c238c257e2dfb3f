package handlers

import (
	"directory-map-service/internal/api/dto"
	"directory-map-service/internal/domain"
	"directory-map-service/internal/services"
	"errors"
)

func toCoordinate(c domain.Coordinate) dto.CoordinateResponse {
	return dto.CoordinateResponse{Lat: c.Lat, Lng: c.Lng}
}

func toOptionalCoordinate(c *domain.Coordinate) *dto.CoordinateResponse {
	if c == nil {
		return nil
	}
	out := toCoordinate(*c)
	return &out
}

func toBusiness(b domain.Business) dto.BusinessResponse {
	return dto.BusinessResponse{
		ID:           b.ID,
		Name:         b.Name,
		Description:  b.Description,
		Address:      b.Address,
		City:         b.City,
		Phone:        b.Phone,
		OpeningHours: b.OpeningHours,
		Category:     b.Category,
		Position:     toOptionalCoordinate(b.Position),
		ImageURL:     b.ImageURL,
	}
}

// toError maps a session error to its banner, or nil.
func toError(err error) *dto.ErrorResponse {
	if err == nil {
		return nil
	}

	code := "error"
	switch {
	case errors.Is(err, domain.ErrLocationDenied):
		code = "location_denied"
	case errors.Is(err, domain.ErrLocationTimeout):
		code = "location_timeout"
	case errors.Is(err, domain.ErrLocationUnsupported):
		code = "location_unsupported"
	case errors.Is(err, domain.ErrLocationUnavailable):
		code = "location_unavailable"
	case errors.Is(err, domain.ErrSearchDispatchFailed):
		code = "search_failed"
	}

	return &dto.ErrorResponse{Code: code, Message: err.Error()}
}

func toSession(v services.View) dto.SessionResponse {
	markers := make([]dto.MarkerResponse, 0, len(v.Layer.Markers))
	for _, m := range v.Layer.Markers {
		markers = append(markers, dto.MarkerResponse{
			BusinessID: m.Business.ID,
			Name:       m.Business.Name,
			Position:   toCoordinate(m.Position),
			Selected:   m.Selected,
		})
	}

	results := make([]dto.ListEntryResponse, 0, len(v.Layer.List))
	for _, e := range v.Layer.List {
		results = append(results, dto.ListEntryResponse{
			Business:       toBusiness(e.Business),
			DistanceMeters: e.DistanceMeters,
			OnMap:          e.OnMap,
		})
	}

	suggestions := v.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}

	return dto.SessionResponse{
		ID: v.ID,
		Criteria: dto.CriteriaResponse{
			Text:          v.Criteria.Text,
			Category:      v.Criteria.Category,
			LocationQuery: v.Criteria.LocationQuery,
			Active:        v.Criteria.Active(),
			NearMe:        v.Criteria.NearMe(),
		},
		UI: dto.UIResponse{
			SearchOpen:         v.UI.SearchOpen,
			CustomLocation:     v.UI.CustomLocation,
			SuggestionsVisible: v.UI.SuggestionsVisible,
			Suggestions:        suggestions,
			SelectedID:         v.UI.SelectedID,
		},
		Viewport: dto.ViewportResponse{
			Center: toCoordinate(v.Viewport.Center),
			Zoom:   v.Viewport.Zoom,
			Rule:   v.ViewportRule,
		},
		UserLocation:  toOptionalCoordinate(v.UserLocation),
		LocationError: toError(v.LocationErr),
		SearchError:   toError(v.SearchErr),
		Markers:       markers,
		Results:       results,
		ResultCount:   v.ResultCount,
		Generation:    v.CriteriaGeneration,
	}
}

func toDirections(link services.Link, v services.View) dto.DirectionsResponse {
	return dto.DirectionsResponse{
		URL:           link.URL,
		Origin:        toOptionalCoordinate(link.Origin),
		LocationError: toError(link.LocationErr),
		Session:       toSession(v),
	}
}
