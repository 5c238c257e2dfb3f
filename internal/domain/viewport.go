package domain

// Zoom levels chosen by the viewport fallback chain.
const (
	ZoomSelected = 15
	ZoomFew      = 13
	ZoomMany     = 12
	ZoomNear     = 13
	ZoomDefault  = 12
)

// The map's center and zoom level. Only the viewport recompute step produces one.
type Viewport struct {
	Center Coordinate
	Zoom   int
}

// Ephemeral presentation flags owned by a discovery session.
type UIState struct {
	SearchOpen         bool
	CustomLocation     bool
	SuggestionsVisible bool
	SelectedID         string
}
