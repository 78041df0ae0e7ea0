package world

import (
	"github.com/talgya/halfearth/internal/events"
	"github.com/talgya/halfearth/internal/kinds"
	"github.com/talgya/halfearth/internal/production"
	"github.com/talgya/halfearth/internal/projects"
	"github.com/talgya/halfearth/internal/social"
)

// Quantities are per million people unless noted. Outputs are in abstract
// supply units; byproducts are in Gt per unit.

var perCapitaDemand = [social.NumIncomes]kinds.OutputMap{
	{1, 0.5, 3, 0.3},
	{2, 1.5, 3.2, 0.6},
	{4, 3, 3.4, 1},
	{8, 6, 3.5, 1.4},
}

// About half the usable land is farmed or built on at the start, so a
// default run can feed itself with room to protect more.
func baseResources(population float64) kinds.ResourceMap {
	var r kinds.ResourceMap
	r[kinds.ResourceLand] = 8.5 * population
	r[kinds.ResourceWater] = 16 * population
	r[kinds.ResourceFuel] = 0.5 * population
	r[kinds.ResourceElectricity] = 0.2 * population
	return r
}

func feedstockReserves(population float64) kinds.FeedstockMap {
	var f kinds.FeedstockMap
	f[kinds.FeedstockCoal] = 100 * population
	f[kinds.FeedstockOil] = 120 * population
	f[kinds.FeedstockNaturalGas] = 60 * population
	f[kinds.FeedstockUranium] = 0.5 * population
	f[kinds.FeedstockLithium] = population
	f[kinds.FeedstockThorium] = 0.5 * population
	return f
}

var (
	greens   = kinds.IdFor("Green Coalition")
	industry = kinds.IdFor("Industry Council")
	labor    = kinds.IdFor("Labor Federation")
	techno   = kinds.IdFor("Technocrats")
	agrarian = kinds.IdFor("Agrarian League")
)

type processSpec struct {
	name      string
	output    kinds.Output
	share     int
	land      float64
	water     float64
	elec      float64
	fuel      float64
	feedstock production.FeedstockUse
	co2       float64
	ch4       float64
	n2o       float64
	bio       float64
	features  []production.Feature
	locked    bool
	pro, anti []kinds.Id
}

func (s processSpec) build() *production.Process {
	p := &production.Process{
		ID:         kinds.IdFor(s.name),
		Name:       s.name,
		Output:     s.output,
		MixShare:   s.share,
		Feedstock:  s.feedstock,
		Features:   s.features,
		Locked:     s.locked,
		Supporters: s.pro,
		Opposers:   s.anti,
	}
	p.Resources[kinds.ResourceLand] = s.land
	p.Resources[kinds.ResourceWater] = s.water
	p.Resources[kinds.ResourceElectricity] = s.elec
	p.Resources[kinds.ResourceFuel] = s.fuel
	p.Byproducts[kinds.ByproductCO2] = s.co2
	p.Byproducts[kinds.ByproductCH4] = s.ch4
	p.Byproducts[kinds.ByproductN2O] = s.n2o
	p.Byproducts[kinds.ByproductBiodiversity] = s.bio
	return p
}

// DefaultProcesses returns the standard production processes. Shares for
// each output sum to production.MixUnits.
func DefaultProcesses() []*production.Process {
	const (
		fossil     = production.FeatureIsFossil
		combustion = production.FeatureIsCombustion
	)
	specs := []processSpec{
		{name: "Coal Power", output: kinds.OutputElectricity, share: 8, land: 0.01, water: 0.5,
			feedstock: production.FeedstockUse{Kind: kinds.FeedstockCoal, Amount: 1}, co2: 0.001,
			features: []production.Feature{fossil, combustion},
			pro: []kinds.Id{industry, labor}, anti: []kinds.Id{greens}},
		{name: "Natural Gas Power", output: kinds.OutputElectricity, share: 5, land: 0.005, water: 0.2,
			feedstock: production.FeedstockUse{Kind: kinds.FeedstockNaturalGas, Amount: 1}, co2: 0.0005, ch4: 0.000005,
			features: []production.Feature{fossil, combustion}},
		{name: "Nuclear Power", output: kinds.OutputElectricity, share: 3, land: 0.002, water: 0.3,
			feedstock: production.FeedstockUse{Kind: kinds.FeedstockUranium, Amount: 0.01},
			features: []production.Feature{production.FeatureCanMeltdown, production.FeatureMakesNuclearWaste},
			pro: []kinds.Id{techno}, anti: []kinds.Id{greens}},
		{name: "Solar PV", output: kinds.OutputElectricity, share: 2, land: 0.05, bio: 0.00005,
			features: []production.Feature{production.FeatureIsSolar, production.FeatureIsIntermittent},
			pro: []kinds.Id{greens}},
		{name: "Wind Power", output: kinds.OutputElectricity, share: 2, land: 0.03, bio: 0.00005,
			features: []production.Feature{production.FeatureIsIntermittent}},
		{name: "Fusion Power", output: kinds.OutputElectricity, share: 0, land: 0.001, water: 0.1,
			feedstock: production.FeedstockUse{Kind: kinds.FeedstockThorium, Amount: 0.001}, locked: true},

		{name: "Oil", output: kinds.OutputFuel, share: 14, water: 0.1, elec: 0.02,
			feedstock: production.FeedstockUse{Kind: kinds.FeedstockOil, Amount: 1}, co2: 0.0008,
			features: []production.Feature{fossil, combustion, production.FeatureUsesOil}},
		{name: "Natural Gas", output: kinds.OutputFuel, share: 4, water: 0.05, elec: 0.01,
			feedstock: production.FeedstockUse{Kind: kinds.FeedstockNaturalGas, Amount: 1}, co2: 0.0006, ch4: 0.000008,
			features: []production.Feature{fossil, combustion}},
		{name: "Biofuels", output: kinds.OutputFuel, share: 2, land: 0.2, water: 1, co2: 0.0001, bio: 0.0003,
			features: []production.Feature{combustion}},
		{name: "Synthetic Fuel", output: kinds.OutputFuel, share: 0, water: 0.2, elec: 1.5, locked: true,
			features: []production.Feature{production.FeatureIsCCS}},

		{name: "Industrial Agriculture", output: kinds.OutputPlantCalories, share: 16, land: 0.3, water: 2, fuel: 0.05,
			feedstock: production.FeedstockUse{Kind: kinds.FeedstockSoil, Amount: 1}, n2o: 0.0000002, bio: 0.0004,
			features: []production.Feature{production.FeatureUsesPesticides, production.FeatureUsesSynFertilizer}},
		{name: "Regenerative Agriculture", output: kinds.OutputPlantCalories, share: 4, land: 0.45, water: 1.5, fuel: 0.02,
			feedstock: production.FeedstockUse{Kind: kinds.FeedstockSoil, Amount: 0.5}, bio: 0.0002,
			features: []production.Feature{production.FeatureIsLaborIntensive}},
		{name: "Vertical Farming", output: kinds.OutputPlantCalories, share: 0, water: 0.5, elec: 0.5, locked: true},

		{name: "Industrial Livestock", output: kinds.OutputAnimalCalories, share: 16, land: 2, water: 8, fuel: 0.05,
			ch4: 0.000025, bio: 0.0015, features: []production.Feature{production.FeatureUsesLivestock},
			pro: []kinds.Id{agrarian}},
		{name: "Pasture Livestock", output: kinds.OutputAnimalCalories, share: 4, land: 5, water: 5,
			ch4: 0.000035, bio: 0.002, features: []production.Feature{production.FeatureUsesLivestock}},
		{name: "Cellular Meat", output: kinds.OutputAnimalCalories, share: 0, water: 1, elec: 1, locked: true},
	}

	out := make([]*production.Process, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.build())
	}
	return out
}

// DefaultProjects returns the standard policies, research and initiatives.
func DefaultProjects() []*projects.Project {
	always := func(l events.Likelihood, effects ...events.Effect) projects.Outcome {
		return projects.Outcome{Effects: effects, Probability: events.Probability{Likelihood: l}}
	}
	return []*projects.Project{
		{
			ID: kinds.IdFor("Carbon Tax"), Name: "Carbon Tax", Kind: projects.KindPolicy, Group: projects.GroupEnergy,
			BaseCost: projects.Fixed(30), Cost: 30,
			Effects: []events.Effect{
				events.DemandChange(kinds.OutputFuel, -0.05),
				events.FeatureOutputChange(production.FeatureIsFossil, -0.1),
			},
			Upgrades: []projects.Upgrade{{Cost: 20, Effects: []events.Effect{
				events.DemandChange(kinds.OutputFuel, -0.1),
				events.FeatureOutputChange(production.FeatureIsFossil, -0.2),
			}}},
			Supporters: []kinds.Id{greens, techno},
			Opposers:   []kinds.Id{industry},
		},
		{
			ID: kinds.IdFor("Protected Areas"), Name: "Protected Areas", Kind: projects.KindPolicy, Group: projects.GroupProtection,
			BaseCost: projects.Fixed(20), Cost: 20,
			Effects:  []events.Effect{events.ProtectLand(10)},
			Upgrades: []projects.Upgrade{
				{Cost: 30, Effects: []events.Effect{events.ProtectLand(20)}},
				{Cost: 50, Effects: []events.Effect{events.ProtectLand(30)}},
			},
			Supporters: []kinds.Id{greens},
			Opposers:   []kinds.Id{agrarian},
		},
		{
			ID: kinds.IdFor("Meatless Mondays"), Name: "Meatless Mondays", Kind: projects.KindPolicy, Group: projects.GroupFood,
			BaseCost: projects.Fixed(15), Cost: 15,
			Effects:    []events.Effect{events.AddFlag(events.FlagVegetarian)},
			Supporters: []kinds.Id{greens},
			Opposers:   []kinds.Id{agrarian},
		},
		{
			ID: kinds.IdFor("Fusion Research"), Name: "Fusion Research", Kind: projects.KindResearch, Group: projects.GroupNuclear,
			BaseCost: projects.Fixed(40), Cost: 40,
			Effects:    []events.Effect{events.UnlockProcess(kinds.IdFor("Fusion Power"))},
			Outcomes:   []projects.Outcome{always(events.LikelihoodUnlikely, events.PlayerChange(events.PlayerResearchPoints, 5))},
			Supporters: []kinds.Id{techno},
		},
		{
			ID: kinds.IdFor("Synthetic Fuel Research"), Name: "Synthetic Fuel Research", Kind: projects.KindResearch, Group: projects.GroupEnergy,
			BaseCost: projects.Fixed(15), Cost: 15,
			Effects: []events.Effect{events.UnlockProcess(kinds.IdFor("Synthetic Fuel"))},
		},
		{
			ID: kinds.IdFor("Cellular Meat Research"), Name: "Cellular Meat Research", Kind: projects.KindResearch, Group: projects.GroupFood,
			BaseCost: projects.Fixed(20), Cost: 20,
			Effects:  []events.Effect{events.UnlockProcess(kinds.IdFor("Cellular Meat"))},
			Opposers: []kinds.Id{agrarian},
		},
		{
			ID: kinds.IdFor("Vertical Farming Research"), Name: "Vertical Farming Research", Kind: projects.KindResearch, Group: projects.GroupAgriculture,
			BaseCost: projects.Fixed(12), Cost: 12,
			Effects: []events.Effect{events.UnlockProcess(kinds.IdFor("Vertical Farming"))},
		},
		{
			ID: kinds.IdFor("Grid Electrification"), Name: "Grid Electrification", Kind: projects.KindInitiative, Group: projects.GroupElectrification,
			Gradual:  true,
			BaseCost: projects.Dynamic(0.0005, projects.Factor{Kind: projects.FactorOutput, Output: kinds.OutputElectricity}),
			Effects: []events.Effect{
				events.AddFlag(events.FlagElectrified),
				events.DemandChange(kinds.OutputElectricity, -0.05),
			},
			Outcomes: []projects.Outcome{
				always(events.LikelihoodLikely, events.WorldChange(events.WorldOutlook, 1)),
				always(events.LikelihoodGuaranteed),
			},
			Supporters: []kinds.Id{techno, labor},
		},
		{
			ID: kinds.IdFor("Direct Air Capture"), Name: "Direct Air Capture", Kind: projects.KindInitiative, Group: projects.GroupGeoengineering,
			Ongoing:  true,
			BaseCost: projects.Fixed(15), Cost: 15,
			Effects:  []events.Effect{events.WorldChange(events.WorldEmissions, -0.5)},
			Upgrades: []projects.Upgrade{{Cost: 25, Effects: []events.Effect{events.WorldChange(events.WorldEmissions, -1.5)}}},
		},
		{
			ID: kinds.IdFor("Solar Radiation Management"), Name: "Solar Radiation Management", Kind: projects.KindInitiative, Group: projects.GroupGeoengineering,
			Ongoing:  true,
			Locked:   true,
			BaseCost: projects.Fixed(8), Cost: 8,
			Effects:  []events.Effect{events.WorldChange(events.WorldTemperature, -0.5)},
			Outcomes: []projects.Outcome{
				always(events.LikelihoodRandom, events.TriggerEvent(kinds.IdFor("Monsoon Failure"), 2)),
			},
			Opposers: []kinds.Id{greens},
		},
		{
			ID: kinds.IdFor("Land Restoration"), Name: "Land Restoration", Kind: projects.KindInitiative, Group: projects.GroupRestoration,
			Gradual:  true,
			BaseCost: projects.Dynamic(6, projects.Factor{Kind: projects.FactorIncome}),
			Effects: []events.Effect{
				events.ProtectLand(5),
				{Kind: events.EffWorldVariable, Variable: string(events.WorldExtinctionRate), Value: -2},
			},
			Supporters: []kinds.Id{greens, agrarian},
		},
	}
}

// DefaultEvents returns the standard event pool.
func DefaultEvents() []*events.Event {
	clause := func(l events.Likelihood, conds ...events.Condition) events.Probability {
		return events.Probability{Likelihood: l, Conditions: conds}
	}
	return []*events.Event{
		{
			ID: kinds.IdFor("Heatwave"), Name: "Heatwave", Repeats: true,
			Probabilities: []events.Probability{
				clause(events.LikelihoodLikely,
					events.LocalVar(events.LocalHabitability, events.Less, 4),
					events.WorldVar(events.WorldTemperature, events.Greater, 1.5)),
				clause(events.LikelihoodUnlikely, events.WorldVar(events.WorldTemperature, events.Greater, 1.0)),
			},
			Effects: []events.Effect{{Kind: events.EffMigration}},
		},
		{
			ID: kinds.IdFor("Crop Failure"), Name: "Crop Failure", Repeats: true,
			Probabilities: []events.Probability{
				clause(events.LikelihoodUnlikely, events.WorldVar(events.WorldTemperature, events.Greater, 1.2)),
			},
			Effects: []events.Effect{events.OutputChange(kinds.OutputPlantCalories, -0.02)},
		},
		{
			ID: kinds.IdFor("Oil Shock"), Name: "Oil Shock", Repeats: false,
			Probabilities: []events.Probability{
				clause(events.LikelihoodLikely, events.Condition{
					Kind: events.CondFeedstockYears, Feedstock: kinds.FeedstockOil,
					Comparator: events.Less, Value: 20,
				}),
				clause(events.LikelihoodImprobable),
			},
			Effects: []events.Effect{
				events.PlayerChange(events.PlayerPoliticalCapital, -10),
				events.TriggerEvent(kinds.IdFor("Energy Riots"), 1),
			},
		},
		{
			ID: kinds.IdFor("Energy Riots"), Name: "Energy Riots", Repeats: false,
			Probabilities: []events.Probability{clause(events.LikelihoodImpossible)},
			Effects:       []events.Effect{events.WorldChange(events.WorldOutlook, -0.5)},
		},
		{
			ID: kinds.IdFor("Monsoon Failure"), Name: "Monsoon Failure", Repeats: true,
			Probabilities: []events.Probability{clause(events.LikelihoodImpossible)},
			Effects: []events.Effect{
				{Kind: events.EffRegionHabitability, Latitude: string(social.LatitudeTropic), Value: -1},
				events.WorldChange(events.WorldPrecipitation, -0.05),
			},
		},
		{
			ID: kinds.IdFor("Solar Boom"), Name: "Solar Boom", Repeats: false,
			Probabilities: []events.Probability{
				clause(events.LikelihoodRandom, events.FeatureMixShare(production.FeatureIsSolar, events.GreaterEqual, 0.25)),
			},
			Effects: []events.Effect{
				events.NPCChange(greens, 1),
				events.PlayerChange(events.PlayerPoliticalCapital, 10),
			},
		},
		{
			ID: kinds.IdFor("Secession Movement"), Name: "Secession Movement", Repeats: false,
			Probabilities: []events.Probability{
				clause(events.LikelihoodLikely, events.LocalVar(events.LocalOutlook, events.Less, 0)),
			},
			Effects: []events.Effect{{Kind: events.EffRegionLeave}},
		},
		{
			ID: kinds.IdFor("Pandemic"), Name: "Pandemic", Repeats: true,
			Probabilities: []events.Probability{clause(events.LikelihoodImprobable)},
			Effects:       []events.Effect{events.WorldChange(events.WorldPopulation, -50)},
		},
		{
			ID: kinds.IdFor("Scientific Breakthrough"), Name: "Scientific Breakthrough", Repeats: true,
			Probabilities: []events.Probability{
				clause(events.LikelihoodUnlikely, events.HasFlag(events.FlagHyperResearch)),
				clause(events.LikelihoodRare),
			},
			Effects: []events.Effect{events.PlayerChange(events.PlayerResearchPoints, 5)},
		},
		{
			ID: kinds.IdFor("Extinction Warning"), Name: "Extinction Warning", Repeats: false,
			Probabilities: []events.Probability{
				clause(events.LikelihoodLikely, events.WorldVar(events.WorldExtinctionRate, events.Greater, 60)),
			},
			Effects: []events.Effect{
				events.AddFlag(events.FlagEcosystemModeling),
				events.UnlockProject(kinds.IdFor("Solar Radiation Management")),
			},
		},
		{
			ID: kinds.IdFor("Refugee Crisis"), Name: "Refugee Crisis", Repeats: true,
			Probabilities: []events.Probability{
				clause(events.LikelihoodUnlikely,
					events.LocalVar(events.LocalHabitability, events.Less, 2),
					events.WithoutFlag(events.FlagClosedBorders)),
			},
			Choices: []events.Choice{
				{Label: "Open the borders", Effects: []events.Effect{
					events.WorldChange(events.WorldOutlook, -0.2),
					events.NPCChange(labor, 1),
				}},
				{
					Label:      "Close the borders",
					Conditions: []events.Condition{events.PlayerVar(events.PlayerPoliticalCapital, events.GreaterEqual, 10)},
					Effects: []events.Effect{
						events.AddFlag(events.FlagClosedBorders),
						events.PlayerChange(events.PlayerPoliticalCapital, -10),
						events.NPCChange(labor, -1),
					},
				},
			},
		},
		{
			ID: kinds.IdFor("Industry Lobbying"), Name: "Industry Lobbying", Repeats: false,
			Probabilities: []events.Probability{
				clause(events.LikelihoodRandom, events.ProjectIs(kinds.IdFor("Carbon Tax"), string(projects.StatusActive))),
			},
			Effects: []events.Effect{
				{Kind: events.EffProjectRequest, Project: kinds.IdFor("Carbon Tax"), Active: false, Bounty: 25},
				events.NPCChange(industry, -1),
			},
		},
		{
			ID: kinds.IdFor("Livestock Pushback"), Name: "Livestock Pushback", Repeats: false,
			Probabilities: []events.Probability{
				clause(events.LikelihoodLikely, events.HasFlag(events.FlagVegetarian),
					events.Condition{Kind: events.CondNPCRelationship, NPC: agrarian, Relation: string(social.RelationNemesis)}),
			},
			Effects: []events.Effect{
				{Kind: events.EffProcessRequest, Process: kinds.IdFor("Pasture Livestock"), Active: true, Bounty: 15},
			},
		},
	}
}
