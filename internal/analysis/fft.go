package analysis

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

var ErrShortSeries = errors.New("series too short for spectral analysis")

// PowerSpectrum returns the magnitude of the first len(data)/2 frequency
// bins. Any length works; bin k is k cycles over the whole series.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n < 2 {
		return nil
	}

	coeffs := fourier.NewFFT(n).Coefficients(nil, data)
	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(coeffs[i])
	}
	return ps
}

// NextPow2 returns the smallest power of two >= n.
func NextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// DominantPeriod estimates the period of the strongest oscillation in a
// series sampled every dt. The mean is removed and the series zero-padded
// to a power of two; the peak bin is refined by parabolic interpolation.
func DominantPeriod(series []float64, dt float64) (float64, error) {
	if len(series) < 4 {
		return 0, ErrShortSeries
	}

	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))

	n := NextPow2(len(series))
	padded := make([]float64, n)
	for i, v := range series {
		padded[i] = v - mean
	}

	ps := PowerSpectrum(padded)

	// bin 0 is the (removed) mean
	peak := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	if ps[peak] == 0 {
		return 0, errors.New("series has no oscillation")
	}

	offset := 0.0
	if peak+1 < len(ps) {
		a, b, c := ps[peak-1], ps[peak], ps[peak+1]
		if d := a - 2*b + c; d != 0 {
			offset = 0.5 * (a - c) / d
		}
	}

	return float64(n) * dt / (float64(peak) + offset), nil
}
