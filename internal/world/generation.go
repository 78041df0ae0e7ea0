package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/halfearth/internal/kinds"
	"github.com/talgya/halfearth/internal/social"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Seed       int64   // Random seed (0 = random)
	Regions    int     // Number of regions
	StartYear  int     // First simulated year
	Population float64 // Starting population in millions
}

// DefaultGenConfig returns the standard starting world.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Seed:       0,
		Regions:    12,
		StartYear:  2022,
		Population: 8000,
	}
}

// SmallTestConfig returns a small deterministic world for tests.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Seed:       42,
		Regions:    4,
		StartYear:  2022,
		Population: 2000,
	}
}

var regionNames = []string{
	"Andean Highlands", "Sahel", "Great Plains", "Mekong Delta", "Siberian Taiga",
	"Mediterranean Basin", "Congo Basin", "Indo-Gangetic Plain", "Pampas", "Arabian Peninsula",
	"Nordic Coast", "Australian Outback", "Yangtze Valley", "Great Lakes", "Horn of Africa",
	"Amazonia",
}

// Generate creates a world with regions drawn from layered simplex noise
// and the default processes, projects, events and factions.
func Generate(cfg GenConfig) *World {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	// Independent noise layers for each regional attribute.
	sizeNoise := opensimplex.NewNormalized(seed)
	wealthNoise := opensimplex.NewNormalized(seed + 1)
	heatNoise := opensimplex.NewNormalized(seed + 2)
	rainNoise := opensimplex.NewNormalized(seed + 3)

	n := max(cfg.Regions, 1)
	regions := make([]*social.Region, 0, n)
	weights := make([]float64, 0, n)
	var totalWeight float64

	for i := 0; i < n; i++ {
		// Spread regions around a circle so neighbours share climate.
		angle := 2 * math.Pi * float64(i) / float64(n)
		x, y := math.Cos(angle)*4, math.Sin(angle)*4

		size := octaveNoise(sizeNoise, x, y, 3, 0.5, 0.5)
		wealth := octaveNoise(wealthNoise, x, y, 2, 0.4, 0.5)
		heat := octaveNoise(heatNoise, x, y, 3, 0.3, 0.5)
		rain := octaveNoise(rainNoise, x, y, 2, 0.3, 0.5)

		name := regionNames[i%len(regionNames)]
		if i >= len(regionNames) {
			name = name + " " + string(rune('A'+i/len(regionNames)))
		}

		tempHi := 22 + heat*18
		r := &social.Region{
			ID:               kinds.IdFor("region:" + name),
			Name:             name,
			Income:           social.Income(min(int(wealth*social.NumIncomes), social.NumIncomes-1)),
			Development:      math.Mod(wealth*social.NumIncomes, 1),
			Outlook:          5,
			BaseHabitability: 6 + rain*4,
			TempHi:           tempHi,
			TempLo:           tempHi - 10 - (1-heat)*20,
			PrecipLo:         20 + rain*60,
			PrecipHi:         60 + rain*200,
			Latitude:         latitudeFor(heat),
		}
		w := 0.3 + size
		weights = append(weights, w)
		totalWeight += w
		regions = append(regions, r)
	}
	for i, r := range regions {
		r.Population = cfg.Population * weights[i] / totalWeight
	}

	return &World{
		Year:              cfg.StartYear,
		DeathYear:         cfg.StartYear + 80,
		Regions:           regions,
		Processes:         DefaultProcesses(),
		Projects:          DefaultProjects(),
		Events:            DefaultEvents(),
		NPCs:              social.SeedNPCs(),
		BaseResources:     baseResources(cfg.Population),
		FeedstockReserves: feedstockReserves(cfg.Population),
		PerCapitaDemand:   perCapitaDemand,
		PopulationGrowth:  [social.NumIncomes]float64{0.02, 0.012, 0.005, 0.002},
		Temperature:       1.1,
		Precipitation:     1,
		ExtinctionRate:    20,
		BaseOutlook:       5,
		ProtectedLand:     0.1,
		PoliticalCapital:  100,
		ResearchPoints:    5,
	}
}

func latitudeFor(heat float64) social.Latitude {
	switch {
	case heat > 0.7:
		return social.LatitudeTropic
	case heat > 0.5:
		return social.LatitudeSubtropic
	case heat > 0.25:
		return social.LatitudeTemperate
	}
	return social.LatitudeFrigid
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
