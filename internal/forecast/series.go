package forecast

// Point is a single annual observation.
type Point struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// RevenueSeries is an immutable ordered sequence of annual revenue
// observations. Years are strictly increasing and values are positive. A
// series is owned by the analysis run that created it and is never mutated.
type RevenueSeries struct {
	points []Point
}

// NewRevenueSeries validates and wraps a sequence of observations. The input
// slice is copied so later caller mutations cannot leak into the series.
func NewRevenueSeries(points []Point) (*RevenueSeries, error) {
	if len(points) < 2 {
		return nil, NewInsufficientDataErrorf("series", "need at least 2 observations, got %d", len(points))
	}

	for i, p := range points {
		if p.Value <= 0 {
			return nil, NewInvalidArgumentErrorf("series", "value for year %d must be positive, got %g", p.Year, p.Value)
		}
		if i > 0 && p.Year <= points[i-1].Year {
			return nil, NewInvalidArgumentErrorf("series", "years must be strictly increasing, got %d after %d", p.Year, points[i-1].Year)
		}
	}

	copied := make([]Point, len(points))
	copy(copied, points)

	return &RevenueSeries{points: copied}, nil
}

// Len returns the number of observations.
func (s *RevenueSeries) Len() int {
	return len(s.points)
}

// Points returns a copy of the observations.
func (s *RevenueSeries) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Years returns the observation years in order.
func (s *RevenueSeries) Years() []int {
	out := make([]int, len(s.points))
	for i, p := range s.points {
		out[i] = p.Year
	}
	return out
}

// Values returns the observation values in order.
func (s *RevenueSeries) Values() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Value
	}
	return out
}

// FirstValue returns the earliest observed value.
func (s *RevenueSeries) FirstValue() float64 {
	return s.points[0].Value
}

// LastValue returns the most recent observed value.
func (s *RevenueSeries) LastValue() float64 {
	return s.points[len(s.points)-1].Value
}

// LastYear returns the most recent observed year.
func (s *RevenueSeries) LastYear() int {
	return s.points[len(s.points)-1].Year
}

// FutureYears returns the horizon years lastYear+1 .. lastYear+horizon.
func (s *RevenueSeries) FutureYears(horizon int) []int {
	out := make([]int, 0, horizon)
	for i := 1; i <= horizon; i++ {
		out = append(out, s.LastYear()+i)
	}
	return out
}

// GrowthRates returns the year-over-year fractional changes, length Len()-1.
func (s *RevenueSeries) GrowthRates() []float64 {
	out := make([]float64, 0, len(s.points)-1)
	for i := 1; i < len(s.points); i++ {
		out = append(out, s.points[i].Value/s.points[i-1].Value-1)
	}
	return out
}

// RecentGrowth returns the mean fractional change over the final window
// observations (window-1 changes).
func (s *RevenueSeries) RecentGrowth(window int) float64 {
	tail := s.points[len(s.points)-window:]
	rates := make([]float64, 0, window-1)
	for i := 1; i < len(tail); i++ {
		rates = append(rates, tail[i].Value/tail[i-1].Value-1)
	}
	return mean(rates)
}
