package game

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/park285/Cheese-boardchess/internal/chess"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Pieces are drawn as discs sized by kind; the letter is stamped on top by the renderer.
const pieceSVGTemplate = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100" width="100" height="100">
<circle cx="50" cy="52" r="%d" style="fill: #000000; fill-opacity:0.25"/>
<circle cx="50" cy="50" r="%d" style="fill: #%s; stroke: #%s; stroke-width: 5"/>
</svg>`

var discRadius = map[chess.Kind]int{
	chess.Pawn:   28,
	chess.Knight: 34,
	chess.Bishop: 34,
	chess.Rook:   36,
	chess.Queen:  40,
	chess.King:   42,
}

type pieceCacheKey struct {
	piece chess.Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func pieceSVG(p chess.Piece) []byte {
	fill, stroke := "f4f1ea", "2b2b2b"
	if p.Side() == chess.Black {
		fill, stroke = "262626", "d8d8d8"
	}
	r := discRadius[p.Kind()]
	return []byte(fmt.Sprintf(pieceSVGTemplate, r, r, fill, stroke))
}

func renderPieceImage(p chess.Piece, size int) (image.Image, error) {
	if p.IsEmpty() {
		return nil, fmt.Errorf("render empty piece")
	}
	key := pieceCacheKey{piece: p, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	icon, err := oksvg.ReadIconStream(bytes.NewReader(sanitizeSVG(pieceSVG(p))))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}

func pieceTextColor(p chess.Piece) color.Color {
	if p.Side() == chess.Black {
		return color.NRGBA{R: 240, G: 240, B: 240, A: 255}
	}
	return color.NRGBA{R: 20, G: 20, B: 20, A: 255}
}
