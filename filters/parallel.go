package filters

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minBandRows is the smallest number of rows worth handing to a goroutine.
const minBandRows = 16

// parallelRows splits [0,height) into contiguous bands and calls fn for
// each band concurrently. Bands never overlap so fn may write its output
// rows without synchronization.
func parallelRows(height int, fn func(y0, y1 int)) {
	bands := min(runtime.GOMAXPROCS(0), height/minBandRows)
	if bands <= 1 {
		fn(0, height)
		return
	}
	chunk := (height + bands - 1) / bands
	var g errgroup.Group
	g.SetLimit(bands)
	for y0 := 0; y0 < height; y0 += chunk {
		y1 := min(y0+chunk, height)
		g.Go(func() error {
			fn(y0, y1)
			return nil
		})
	}
	g.Wait()
}

func clampInt(v int) uint8 {
	if v < 0 {
		return 0
	} else if v > 255 {
		return 255
	}
	return uint8(v)
}

// clampRound rounds half to even and clamps to [0,255]. NaN maps to 0.
func clampRound(v float64) uint8 {
	if !(v > 0) {
		return 0
	} else if v >= 255 {
		return 255
	}
	return uint8(math.RoundToEven(v))
}
