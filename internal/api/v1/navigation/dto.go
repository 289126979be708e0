package navigation

type ResolveRequest struct {
	Path string `json:"path" binding:"required"`
}

// ResolveResponse tells the app where a navigation to Path ends up.
type ResolveResponse struct {
	Path     string `json:"path"`
	Location string `json:"location"`
	Redirect bool   `json:"redirect"`
	Reason   string `json:"reason"`
}
