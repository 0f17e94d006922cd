package game

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"math"
	"strings"

	"github.com/golang/freetype/truetype"
	"github.com/park285/Cheese-boardchess/internal/chess"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// RenderOptions decorates the board image.
type RenderOptions struct {
	// Selected is the square awaiting a destination.
	Selected *chess.Square
	// Destinations are shown green when empty and red when they capture.
	Destinations []chess.Square
	LastMove     *chess.Move
	Scores       chess.Scores
	WhiteName    string
	BlackName    string
	HUDTurn      string
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, board chess.Board, opts RenderOptions) ([]byte, error)
}

const (
	squareSize    = 64
	sideMargin    = 28
	topMargin     = 64
	bottomMargin  = 28
	boardSize     = squareSize * chess.Size
	imageWidth    = boardSize + sideMargin*2
	imageHeight   = boardSize + topMargin + bottomMargin
	panelHeight   = 26
	panelRadius   = 8
	panelPaddingX = 12
	gapToBoard    = 10
	hudFontSize   = 13
)

type svgBoardRenderer struct {
	face font.Face
	// hudFont is nil when the embedded TrueType font failed to parse; the HUD
	// then falls back to face.
	hudFont *truetype.Font
}

// NewSVGBoardRenderer draws pieces rasterized from SVG, labels with basicfont
// and the HUD with Go Regular.
func NewSVGBoardRenderer() BoardRenderer {
	r := &svgBoardRenderer{face: basicfont.Face7x13}
	if f, err := truetype.Parse(goregular.TTF); err == nil {
		r.hudFont = f
	}
	return r
}

// hudFace returns a fresh face per render; truetype faces cache glyphs and
// are not safe for concurrent use.
func (r *svgBoardRenderer) hudFace() font.Face {
	if r.hudFont == nil {
		return r.face
	}
	return truetype.NewFace(r.hudFont, &truetype.Options{Size: hudFontSize, DPI: 72, Hinting: font.HintingFull})
}

func (r *svgBoardRenderer) RenderPNG(ctx context.Context, board chess.Board, opts RenderOptions) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	origin := image.Point{X: sideMargin, Y: topMargin}
	boardRect := image.Rect(origin.X, origin.Y, origin.X+boardSize, origin.Y+boardSize)

	img := image.NewRGBA(image.Rect(0, 0, imageWidth, imageHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	r.drawHUD(img, opts, boardRect)
	drawSquares(img, origin)
	drawLastMove(img, opts.LastMove, origin)
	if opts.Selected != nil && opts.Selected.Valid() {
		drawSquareOverlay(img, *opts.Selected, origin, selectedColor)
	}
	drawDestinations(img, &board, opts.Destinations, origin)
	if err := r.drawPieces(img, &board, origin); err != nil {
		return nil, err
	}
	r.drawCoordinates(img, origin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	backgroundColor     = color.RGBA{R: 22, G: 24, B: 34, A: 255}
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	selectedColor       = color.NRGBA{R: 255, G: 228, B: 120, A: 150}
	quietTargetColor    = color.NRGBA{R: 60, G: 200, B: 90, A: 140}
	captureTargetColor  = color.NRGBA{R: 230, G: 60, B: 60, A: 150}
	lastMoveArrowColor  = color.NRGBA{R: 148, G: 207, B: 255, A: 150}
	hudPanelColor       = color.NRGBA{R: 40, G: 44, B: 62, A: 255}
	hudTextPrimary      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

func squareRect(sq chess.Square, origin image.Point) image.Rectangle {
	x := origin.X + sq.Col*squareSize
	y := origin.Y + sq.Row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func squareCenter(sq chess.Square, origin image.Point) image.Point {
	rect := squareRect(sq, origin)
	return image.Pt(rect.Min.X+squareSize/2, rect.Min.Y+squareSize/2)
}

func squareColor(sq chess.Square) color.Color {
	// a8 (row 0, col 0) is light
	if (sq.Row+sq.Col)%2 == 0 {
		return lightSquare
	}
	return darkSquare
}

func drawSquares(dst imagedraw.Image, origin image.Point) {
	for _, sq := range chess.Squares() {
		imagedraw.Draw(dst, squareRect(sq, origin), image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
	}
}

func drawSquareOverlay(img *image.RGBA, sq chess.Square, origin image.Point, clr color.Color) {
	imagedraw.Draw(img, squareRect(sq, origin), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawDestinations(img *image.RGBA, board *chess.Board, dests []chess.Square, origin image.Point) {
	for _, sq := range dests {
		if !sq.Valid() {
			continue
		}
		clr := color.Color(quietTargetColor)
		if !board.IsEmpty(sq) {
			clr = captureTargetColor
		}
		drawSquareOverlay(img, sq, origin, clr)
	}
}

func (r *svgBoardRenderer) drawPieces(img *image.RGBA, board *chess.Board, origin image.Point) error {
	drawer := &font.Drawer{Dst: img, Face: r.face}
	ascent := r.face.Metrics().Ascent.Ceil()
	for _, sq := range chess.Squares() {
		p := board.Get(sq)
		if p.IsEmpty() {
			continue
		}
		disc, err := renderPieceImage(p, squareSize)
		if err != nil {
			return err
		}
		imagedraw.Draw(img, squareRect(sq, origin), disc, image.Point{}, imagedraw.Over)

		c := squareCenter(sq, origin)
		drawer.Src = image.NewUniform(pieceTextColor(p))
		drawCenteredText(drawer, strings.ToUpper(string(p.Letter())), c.X, c.Y+ascent/2-1)
	}
	return nil
}

func drawLastMove(img *image.RGBA, mv *chess.Move, origin image.Point) {
	if mv == nil || !mv.From.Valid() || !mv.To.Valid() || mv.From == mv.To {
		return
	}
	start := squareCenter(mv.From, origin)
	end := squareCenter(mv.To, origin)

	dx := float64(end.X - start.X)
	dy := float64(end.Y - start.Y)
	length := math.Hypot(dx, dy)
	dirX, dirY := dx/length, dy/length
	perpX, perpY := -dirY, dirX

	baseLength := length - float64(squareSize)*0.45
	if baseLength < float64(squareSize)*0.35 {
		baseLength = length * 0.6
	}
	halfWidth := float64(squareSize) * 0.12
	headWidth := float64(squareSize) * 0.36

	baseX := float64(start.X) + dirX*baseLength
	baseY := float64(start.Y) + dirY*baseLength

	fillQuad(img,
		pointF{X: float64(start.X) - perpX*halfWidth, Y: float64(start.Y) - perpY*halfWidth},
		pointF{X: float64(start.X) + perpX*halfWidth, Y: float64(start.Y) + perpY*halfWidth},
		pointF{X: baseX + perpX*halfWidth, Y: baseY + perpY*halfWidth},
		pointF{X: baseX - perpX*halfWidth, Y: baseY - perpY*halfWidth},
		lastMoveArrowColor,
	)
	fillTriangleF(img,
		pointF{X: float64(end.X), Y: float64(end.Y)},
		pointF{X: baseX - perpX*headWidth/2, Y: baseY - perpY*headWidth/2},
		pointF{X: baseX + perpX*headWidth/2, Y: baseY + perpY*headWidth/2},
		lastMoveArrowColor,
	)
}

func (r *svgBoardRenderer) drawHUD(img *image.RGBA, opts RenderOptions, boardRect image.Rectangle) {
	face := r.hudFace()
	drawer := &font.Drawer{Dst: img, Face: face}

	white := strings.TrimSpace(opts.WhiteName)
	if white == "" {
		white = "White"
	}
	black := strings.TrimSpace(opts.BlackName)
	if black == "" {
		black = "Black"
	}
	title := white + " vs " + black
	score := fmt.Sprintf("%s: %d  %s: %d", white, opts.Scores.White, black, opts.Scores.Black)
	turn := strings.TrimSpace(opts.HUDTurn)

	bottom := boardRect.Min.Y - gapToBoard
	top := bottom - panelHeight
	half := boardRect.Dx()/2 - 4

	titleRect := image.Rect(boardRect.Min.X, top, boardRect.Min.X+half, bottom)
	scoreRect := image.Rect(boardRect.Max.X-half, top, boardRect.Max.X, bottom)
	drawRoundedPanel(img, titleRect, panelRadius, hudPanelColor)
	drawRoundedPanel(img, scoreRect, panelRadius, hudPanelColor)

	if turn != "" {
		title = title + " | " + turn
	}
	drawCenteredString(drawer, titleRect, truncateWithEllipsis(face, title, titleRect.Dx()-panelPaddingX*2), hudTextPrimary)
	drawCenteredString(drawer, scoreRect, truncateWithEllipsis(face, score, scoreRect.Dx()-panelPaddingX*2), hudTextPrimary)
}

func (r *svgBoardRenderer) drawCoordinates(img *image.RGBA, origin image.Point) {
	drawer := &font.Drawer{Dst: img, Face: r.face, Src: image.NewUniform(coordinateTextColor)}
	ascent := r.face.Metrics().Ascent.Ceil()
	for i := 0; i < chess.Size; i++ {
		rank := string(rune('8' - i))
		file := string(rune('a' + i))
		drawCenteredText(drawer, rank, origin.X-sideMargin/2, origin.Y+i*squareSize+squareSize/2+ascent/2)
		drawCenteredText(drawer, file, origin.X+i*squareSize+squareSize/2, origin.Y+boardSize+ascent+4)
	}
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 || face == nil {
		return trimmed
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	const ellipsis = "..."
	if drawer.MeasureString(ellipsis).Round() > maxWidth {
		return ""
	}
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if rect.Empty() {
		return
	}
	maxRadius := rect.Dx() / 2
	if r := rect.Dy() / 2; r < maxRadius {
		maxRadius = r
	}
	if radius > maxRadius {
		radius = maxRadius
	}
	fill := image.NewUniform(clr)
	if radius <= 0 {
		imagedraw.Draw(img, rect, fill, image.Point{}, imagedraw.Over)
		return
	}
	// cross-shaped body plus four corner discs
	imagedraw.Draw(img, image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	corners := []image.Point{
		{rect.Min.X + radius, rect.Min.Y + radius},
		{rect.Max.X - radius - 1, rect.Min.Y + radius},
		{rect.Min.X + radius, rect.Max.Y - radius - 1},
		{rect.Max.X - radius - 1, rect.Max.Y - radius - 1},
	}
	for _, c := range corners {
		drawQuarterDisc(img, c, radius, clr, rect)
	}
}

// drawQuarterDisc fills the disc around center, clipped to the corner region outside the body.
func drawQuarterDisc(img *image.RGBA, center image.Point, radius int, clr color.Color, panel image.Rectangle) {
	body := image.Rect(panel.Min.X+radius, panel.Min.Y, panel.Max.X-radius, panel.Max.Y)
	rSquared := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y > rSquared {
				continue
			}
			p := image.Pt(center.X+x, center.Y+y)
			if !p.In(panel) || p.In(body) {
				continue
			}
			if p.Y >= panel.Min.Y+radius && p.Y < panel.Max.Y-radius {
				continue
			}
			blendPixel(img, p.X, p.Y, clr)
		}
	}
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := rect.Min.X + (rect.Dx()-width)/2
	if x < rect.Min.X {
		x = rect.Min.X
	}
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	dst := img.RGBAAt(x, y)
	inv := 65535 - sa
	// premultiplied "over"
	img.SetRGBA(x, y, color.RGBA{
		R: uint8((sr + uint32(dst.R)*257*inv/65535) >> 8),
		G: uint8((sg + uint32(dst.G)*257*inv/65535) >> 8),
		B: uint8((sb + uint32(dst.B)*257*inv/65535) >> 8),
		A: uint8((sa + uint32(dst.A)*257*inv/65535) >> 8),
	})
}

type pointF struct {
	X float64
	Y float64
}

func fillQuad(img *image.RGBA, p0, p1, p2, p3 pointF, clr color.Color) {
	fillTriangleF(img, p0, p1, p2, clr)
	fillTriangleF(img, p0, p2, p3, clr)
}

func fillTriangleF(img *image.RGBA, a, b, c pointF, clr color.Color) {
	minX := int(math.Floor(math.Min(a.X, math.Min(b.X, c.X))))
	maxX := int(math.Ceil(math.Max(a.X, math.Max(b.X, c.X))))
	minY := int(math.Floor(math.Min(a.Y, math.Min(b.Y, c.Y))))
	maxY := int(math.Ceil(math.Max(a.Y, math.Max(b.Y, c.Y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if pointInTriangle(float64(x)+0.5, float64(y)+0.5, a, b, c) {
				blendPixel(img, x, y, clr)
			}
		}
	}
}

func pointInTriangle(x, y float64, a, b, c pointF) bool {
	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if denom == 0 {
		return false
	}
	alpha := ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / denom
	beta := ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / denom
	gamma := 1 - alpha - beta
	return alpha >= 0 && beta >= 0 && gamma >= 0
}
