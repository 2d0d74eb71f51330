// Package datasets implements the tiny datasets derived from a training run
package datasets

// Dataset maps a feature (here: an epoch number) to a boolean outcome.
type Dataset map[uint32]bool

func (d *Dataset) Init() {
	*d = make(map[uint32]bool)
}

// FromHistory builds a dataset from a per-epoch loss history: epoch n is
// true when its loss is lower than the loss of epoch n-1. The first epoch
// is always an improvement.
func FromHistory(loss []float64) (d Dataset) {
	d.Init()
	for i, v := range loss {
		d[uint32(i)] = i == 0 || v < loss[i-1]
	}
	return
}

// Improved counts the true entries.
func (d Dataset) Improved() (n int) {
	for _, v := range d {
		if v {
			n++
		}
	}
	return
}
