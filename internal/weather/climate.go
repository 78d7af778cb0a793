package weather

// SeasonalMeans maps each season to its long-run mean temperature in °C.
type SeasonalMeans map[Season]float64

// CityClimate is one row of the climate table.
type CityClimate struct {
	City  string
	Means SeasonalMeans
}

// Climate is the ordered table of per-city seasonal means used for synthetic
// generation.
type Climate []CityClimate

// DefaultClimate holds approximate real-world seasonal means for fifteen cities.
var DefaultClimate = Climate{
	{"New York", SeasonalMeans{SeasonWinter: 0, SeasonSpring: 10, SeasonSummer: 25, SeasonAutumn: 15}},
	{"London", SeasonalMeans{SeasonWinter: 5, SeasonSpring: 11, SeasonSummer: 18, SeasonAutumn: 12}},
	{"Paris", SeasonalMeans{SeasonWinter: 4, SeasonSpring: 12, SeasonSummer: 20, SeasonAutumn: 13}},
	{"Tokyo", SeasonalMeans{SeasonWinter: 6, SeasonSpring: 15, SeasonSummer: 27, SeasonAutumn: 18}},
	{"Moscow", SeasonalMeans{SeasonWinter: -10, SeasonSpring: 5, SeasonSummer: 18, SeasonAutumn: 8}},
	{"Sydney", SeasonalMeans{SeasonWinter: 12, SeasonSpring: 18, SeasonSummer: 25, SeasonAutumn: 20}},
	{"Berlin", SeasonalMeans{SeasonWinter: 0, SeasonSpring: 10, SeasonSummer: 20, SeasonAutumn: 11}},
	{"Beijing", SeasonalMeans{SeasonWinter: -2, SeasonSpring: 13, SeasonSummer: 27, SeasonAutumn: 16}},
	{"Rio de Janeiro", SeasonalMeans{SeasonWinter: 20, SeasonSpring: 25, SeasonSummer: 30, SeasonAutumn: 25}},
	{"Dubai", SeasonalMeans{SeasonWinter: 20, SeasonSpring: 30, SeasonSummer: 40, SeasonAutumn: 30}},
	{"Los Angeles", SeasonalMeans{SeasonWinter: 15, SeasonSpring: 18, SeasonSummer: 25, SeasonAutumn: 20}},
	{"Singapore", SeasonalMeans{SeasonWinter: 27, SeasonSpring: 28, SeasonSummer: 28, SeasonAutumn: 27}},
	{"Mumbai", SeasonalMeans{SeasonWinter: 25, SeasonSpring: 30, SeasonSummer: 35, SeasonAutumn: 30}},
	{"Cairo", SeasonalMeans{SeasonWinter: 15, SeasonSpring: 25, SeasonSummer: 35, SeasonAutumn: 25}},
	{"Mexico City", SeasonalMeans{SeasonWinter: 12, SeasonSpring: 18, SeasonSummer: 20, SeasonAutumn: 15}},
}

// Cities returns the table's cities in table order.
func (c Climate) Cities() []string {
	out := make([]string, 0, len(c))
	for _, row := range c {
		out = append(out, row.City)
	}
	return out
}

// Lookup returns the seasonal means of a city.
func (c Climate) Lookup(city string) (SeasonalMeans, bool) {
	for _, row := range c {
		if row.City == city {
			return row.Means, true
		}
	}
	return nil, false
}

// Mean returns the seasonal mean for a city, or a *GenerationError when the
// city or season is absent from the table.
func (c Climate) Mean(city string, season Season) (float64, error) {
	means, ok := c.Lookup(city)
	if !ok {
		return 0, &GenerationError{City: city}
	}
	m, ok := means[season]
	if !ok {
		return 0, &GenerationError{City: city}
	}
	return m, nil
}
