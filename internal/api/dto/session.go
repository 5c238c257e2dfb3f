package dto

// Position as reported by the browser Geolocation API. Either Lat/Lng or
// ErrorCode (1 denied, 2 unavailable, 3 timeout) is set; neither means the
// device has no geolocation.
type ReportedPosition struct {
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	ErrorCode    int      `json:"error_code"`
	HighAccuracy bool     `json:"high_accuracy"`
}

type CreateSessionRequest struct {
	ReportedPosition
}

type NearMeRequest struct {
	ReportedPosition
}

type TextRequest struct {
	Text string `json:"text"`
}

type CategoryRequest struct {
	Category string `json:"category"`
}

type SuggestionRequest struct {
	Name string `json:"name"`
}

type SelectionRequest struct {
	BusinessID string `json:"business_id"`
}

// Open sets the panel state; when omitted the panel is toggled.
type SearchPanelRequest struct {
	Open *bool `json:"open"`
}

type DirectionsRequest struct {
	BusinessID string `json:"business_id"`
	LiveOrigin bool   `json:"live_origin"`
	ReportedPosition
}

type CoordinateResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type BusinessResponse struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	Address      string              `json:"address,omitempty"`
	City         string              `json:"city,omitempty"`
	Phone        string              `json:"phone,omitempty"`
	OpeningHours string              `json:"opening_hours,omitempty"`
	Category     string              `json:"category,omitempty"`
	Position     *CoordinateResponse `json:"position"`
	ImageURL     string              `json:"image_url,omitempty"`
}

type MarkerResponse struct {
	BusinessID string             `json:"business_id"`
	Name       string             `json:"name"`
	Position   CoordinateResponse `json:"position"`
	Selected   bool               `json:"selected"`
}

type ListEntryResponse struct {
	Business       BusinessResponse `json:"business"`
	DistanceMeters *float64         `json:"distance_meters"`
	OnMap          bool             `json:"on_map"`
}

type ViewportResponse struct {
	Center CoordinateResponse `json:"center"`
	Zoom   int                `json:"zoom"`
	Rule   string             `json:"rule"`
}

type CriteriaResponse struct {
	Text          string `json:"text"`
	Category      string `json:"category"`
	LocationQuery string `json:"location_query"`
	Active        bool   `json:"active"`
	NearMe        bool   `json:"near_me"`
}

type UIResponse struct {
	SearchOpen         bool     `json:"search_open"`
	CustomLocation     bool     `json:"custom_location"`
	SuggestionsVisible bool     `json:"suggestions_visible"`
	Suggestions        []string `json:"suggestions"`
	SelectedID         string   `json:"selected_id,omitempty"`
}

// Error banners. Code is a stable machine-readable identifier.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SessionResponse struct {
	ID            string              `json:"id"`
	Criteria      CriteriaResponse    `json:"criteria"`
	UI            UIResponse          `json:"ui"`
	Viewport      ViewportResponse    `json:"viewport"`
	UserLocation  *CoordinateResponse `json:"user_location"`
	LocationError *ErrorResponse      `json:"location_error"`
	SearchError   *ErrorResponse      `json:"search_error"`
	Markers       []MarkerResponse    `json:"markers"`
	Results       []ListEntryResponse `json:"results"`
	ResultCount   int                 `json:"result_count"`
	Generation    uint64              `json:"generation"`
}

type DirectionsResponse struct {
	URL           string              `json:"url"`
	Origin        *CoordinateResponse `json:"origin"`
	LocationError *ErrorResponse      `json:"location_error"`
	Session       SessionResponse     `json:"session"`
}

type ListCategoriesResponse struct {
	Categories []string `json:"categories"`
}

type GazetteerResponse struct {
	Places []string `json:"places"`
}
