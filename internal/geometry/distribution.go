package geometry

// DistributionArray distributes indices into a regular grid of bins covering
// the area [left, left+width) x [top, top+height).
type DistributionArray struct {
	left, top      float64
	invBinWidth    float64
	invBinHeight   float64
	horizontalBins int
	verticalBins   int
	bins           [][]int
}

// NewDistributionArray creates an empty grid. Bin counts below one are raised
// to one.
func NewDistributionArray(left, top, width, height float64, horizontalBins, verticalBins int) *DistributionArray {
	if horizontalBins < 1 {
		horizontalBins = 1
	}
	if verticalBins < 1 {
		verticalBins = 1
	}

	d := &DistributionArray{
		left:           left,
		top:            top,
		horizontalBins: horizontalBins,
		verticalBins:   verticalBins,
		bins:           make([][]int, horizontalBins*verticalBins),
	}
	if width > 0 {
		d.invBinWidth = float64(horizontalBins) / width
	}
	if height > 0 {
		d.invBinHeight = float64(verticalBins) / height
	}
	return d
}

// HorizontalBins returns the number of bins along X.
func (d *DistributionArray) HorizontalBins() int { return d.horizontalBins }

// VerticalBins returns the number of bins along Y.
func (d *DistributionArray) VerticalBins() int { return d.verticalBins }

// HorizontalBin returns the column holding x, clamped into the grid.
func (d *DistributionArray) HorizontalBin(x float64) int {
	return clampBin(int((x-d.left)*d.invBinWidth), d.horizontalBins)
}

// VerticalBin returns the row holding y, clamped into the grid.
func (d *DistributionArray) VerticalBin(y float64) int {
	return clampBin(int((y-d.top)*d.invBinHeight), d.verticalBins)
}

// Add appends index to bin (xBin, yBin).
func (d *DistributionArray) Add(xBin, yBin, index int) {
	b := yBin*d.horizontalBins + xBin
	d.bins[b] = append(d.bins[b], index)
}

// AddPoint appends index to the bin holding p.
func (d *DistributionArray) AddPoint(p Vector2, index int) {
	d.Add(d.HorizontalBin(p.X), d.VerticalBin(p.Y), index)
}

// Indices returns the indices stored in bin (xBin, yBin).
func (d *DistributionArray) Indices(xBin, yBin int) []int {
	return d.bins[yBin*d.horizontalBins+xBin]
}

// IndicesNeighborhood9 appends the indices of the 3x3 bins centered at
// (xBin, yBin) to dst and returns it. Bins outside the grid are skipped.
func (d *DistributionArray) IndicesNeighborhood9(xBin, yBin int, dst []int) []int {
	for y := max(0, yBin-1); y <= min(d.verticalBins-1, yBin+1); y++ {
		for x := max(0, xBin-1); x <= min(d.horizontalBins-1, xBin+1); x++ {
			dst = append(dst, d.bins[y*d.horizontalBins+x]...)
		}
	}
	return dst
}

// IdealBinsNeighborhood9 returns bin counts for which points closer than
// distance usually fall into each other's 3x3 neighborhood. Each count is
// clamped to [2, 20] and to the image size.
func IdealBinsNeighborhood9(width, height int, distance float64) (horizontalBins, verticalBins int) {
	if distance < 1 {
		distance = 1
	}
	horizontalBins = clampInt(int(float64(width)/distance+0.5), 2, 20)
	verticalBins = clampInt(int(float64(height)/distance+0.5), 2, 20)
	return clampInt(horizontalBins, 1, max(1, width)), clampInt(verticalBins, 1, max(1, height))
}

func clampBin(bin, bins int) int {
	if bin < 0 {
		return 0
	}
	if bin >= bins {
		return bins - 1
	}
	return bin
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
