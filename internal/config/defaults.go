package config

import (
	"github.com/shopspring/decimal"

	"github.com/drawplan/drawplan/internal/domain"
)

// RMDStartAge is the first age with a required minimum distribution under
// SECURE 2.0.
const RMDStartAge = 73

// DefaultOrdinaryBrackets returns the 2023 federal brackets for married
// filing jointly.
func DefaultOrdinaryBrackets() []domain.TaxBracket {
	return bracketTable([][2]float64{
		{0, 0.10},
		{22000, 0.12},
		{89450, 0.22},
		{190750, 0.24},
		{364200, 0.32},
		{462500, 0.35},
		{693750, 0.37},
	})
}

// DefaultCapitalGainsBrackets returns the 2023 federal long-term
// capital-gains brackets for married filing jointly.
func DefaultCapitalGainsBrackets() []domain.TaxBracket {
	return bracketTable([][2]float64{
		{0, 0.00},
		{89250, 0.15},
		{553850, 0.20},
	})
}

// DefaultStandardDeduction is the 2023 federal standard deduction for
// married filing jointly.
func DefaultStandardDeduction() decimal.Decimal {
	return decimal.NewFromInt(27700)
}

func bracketTable(rows [][2]float64) []domain.TaxBracket {
	out := make([]domain.TaxBracket, len(rows))
	for i, r := range rows {
		out[i] = domain.TaxBracket{
			Threshold: decimal.NewFromFloat(r[0]),
			Rate:      decimal.NewFromFloat(r[1]),
		}
	}
	return out
}

// UniformLifetimeTable returns the IRS Uniform Lifetime Table divisors
// (Publication 590-B, 2022 revision) keyed by age.
func UniformLifetimeTable() map[int]decimal.Decimal {
	divisors := map[int]float64{
		72: 27.4, 73: 26.5, 74: 25.5, 75: 24.6, 76: 23.7,
		77: 22.9, 78: 22.0, 79: 21.1, 80: 20.2, 81: 19.4,
		82: 18.5, 83: 17.7, 84: 16.8, 85: 16.0, 86: 15.2,
		87: 14.4, 88: 13.7, 89: 12.9, 90: 12.2, 91: 11.5,
		92: 10.8, 93: 10.1, 94: 9.5, 95: 8.9, 96: 8.4,
		97: 7.8, 98: 7.3, 99: 6.8, 100: 6.4, 101: 6.0,
		102: 5.6, 103: 5.2, 104: 4.9, 105: 4.6, 106: 4.3,
		107: 4.1, 108: 3.9, 109: 3.7, 110: 3.5, 111: 3.4,
		112: 3.3, 113: 3.1, 114: 3.0, 115: 2.9, 116: 2.8,
		117: 2.7, 118: 2.5, 119: 2.3, 120: 2.0,
	}
	out := make(map[int]decimal.Decimal, len(divisors))
	for age, d := range divisors {
		out[age] = decimal.NewFromFloat(d)
	}
	return out
}
