package domain

import (
	"image/color"
	"math/rand"
	"slices"
)

// Small enumerated tag classifying a location's environmental condition.
type WeatherCode int

const (
	WeatherSunny  WeatherCode = 1
	WeatherCloudy WeatherCode = 2
	WeatherRainy  WeatherCode = 4
	WeatherStormy WeatherCode = 6
)

// WeatherCodes lists the closed set of known codes in ascending order.
var WeatherCodes = []WeatherCode{WeatherSunny, WeatherCloudy, WeatherRainy, WeatherStormy}

// Display classification of a weather code.
type WeatherClass struct {
	Code  WeatherCode
	Label string
	Color color.RGBA
}

var weatherClasses = map[WeatherCode]WeatherClass{
	WeatherSunny:  {Code: WeatherSunny, Label: "sunny", Color: color.RGBA{R: 0xFF, G: 0xA5, B: 0x00, A: 0xFF}},
	WeatherCloudy: {Code: WeatherCloudy, Label: "cloudy", Color: color.RGBA{R: 0xA0, G: 0xA0, B: 0xA0, A: 0xFF}},
	WeatherRainy:  {Code: WeatherRainy, Label: "rainy", Color: color.RGBA{R: 0x4A, G: 0x90, B: 0xE2, A: 0xFF}},
	WeatherStormy: {Code: WeatherStormy, Label: "stormy", Color: color.RGBA{R: 0x6B, G: 0x72, B: 0x80, A: 0xFF}},
}

// DefaultWeather is the class used for codes outside the known set.
var DefaultWeather = weatherClasses[WeatherSunny]

// Classify maps a code to its label and color.
// Unknown codes fall back to DefaultWeather; this never fails.
func Classify(code WeatherCode) WeatherClass {
	if c, ok := weatherClasses[code]; ok {
		return c
	}
	return DefaultWeather
}

// Known reports whether code belongs to the enumerated set.
func (c WeatherCode) Known() bool {
	_, ok := weatherClasses[c]
	return ok
}

func (c WeatherCode) String() string { return Classify(c).Label }

// RandomWeather assigns a placeholder code to each of n locations.
// It is used before a solver result is available.
func RandomWeather(n int, rng *rand.Rand) map[int]WeatherCode {
	out := make(map[int]WeatherCode, n)
	for i := 0; i < n; i++ {
		out[i] = WeatherCodes[rng.Intn(len(WeatherCodes))]
	}
	return out
}

// WeatherFromMatrix derives one code per location from an N×N influence matrix:
// the most frequent known code among row i's off-diagonal entries, ties going
// to the smaller code. Rows without any known code are left out.
func WeatherFromMatrix(m [][]float64) map[int]WeatherCode {
	out := make(map[int]WeatherCode, len(m))
	for i, row := range m {
		counts := make(map[WeatherCode]int, len(WeatherCodes))
		for j, v := range row {
			if i == j {
				continue
			}
			code := WeatherCode(int(v))
			if float64(code) != v || !code.Known() {
				continue
			}
			counts[code]++
		}
		if len(counts) == 0 {
			continue
		}

		codes := make([]WeatherCode, 0, len(counts))
		for c := range counts {
			codes = append(codes, c)
		}
		slices.Sort(codes)

		best := codes[0]
		for _, c := range codes[1:] {
			if counts[c] > counts[best] {
				best = c
			}
		}
		out[i] = best
	}
	return out
}
