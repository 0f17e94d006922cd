package chessdto

type StartRequest struct {
	Mode      string `json:"mode,omitempty"`
	WhiteName string `json:"white_name,omitempty"`
	BlackName string `json:"black_name,omitempty"`
	FEN       string `json:"fen,omitempty"`
}

// SquareRequest carries the square for select, move and click. Move also accepts
// From to apply a from/to move in one call.
type SquareRequest struct {
	Square string `json:"square"`
	From   string `json:"from,omitempty"`
}
