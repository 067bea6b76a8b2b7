package marketplace

import "github.com/2024luvyavarliani-boop/Upcyclee/internal/material"

// CO2PerKg is the kg of CO2 credited per kg of claimed material.
const CO2PerKg = 1.5

// Baseline figures the campus had before this instance started counting.
const (
	baselineDivertedKg  = 1284
	baselineCarbonKg    = 3210
	baselineActiveUsers = 482
)

func baselineByCategory() map[material.Category]float64 {
	return map[material.Category]float64{
		material.CategoryMetal:       400,
		material.CategoryTimber:      300,
		material.CategoryElectronics: 200,
		material.CategoryChemicals:   100,
	}
}

// Stats summarises the impact of everything claimed so far on top of the
// baseline. activeUsers is added to the baseline user count.
func (c *Catalog) Stats(activeUsers int) material.ImpactStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := material.ImpactStats{
		TotalDivertedKg:    baselineDivertedKg,
		CarbonSavedKg:      baselineCarbonKg,
		ItemsRedistributed: len(c.claimed),
		ActiveUsers:        baselineActiveUsers + activeUsers,
		DivertedByCategory: baselineByCategory(),
	}

	for _, item := range c.claimed {
		stats.TotalDivertedKg += item.WeightKg
		stats.CarbonSavedKg += item.WeightKg * CO2PerKg
		stats.DivertedByCategory[item.Category] += item.WeightKg
	}

	return stats
}
