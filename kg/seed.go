package kg

import (
	"go.uber.org/zap"

	"github.com/epihelix/epihelix/types"
)

// Seed returns a small slice of the production graph: a handful of diseases,
// countries, outbreaks, and organizations with the same schema the ETL jobs
// write. It powers the offline demo mode and the test fixtures. Embeddings
// are deliberately absent; enrichment attaches them separately.
func Seed() []types.Entity {
	return []types.Entity{
		{
			ID:    "covid19",
			Type:  types.EntityDisease,
			Label: "COVID-19",
			Properties: []types.Property{
				{Key: types.PropDescription, Value: "Contagious respiratory disease caused by the SARS-CoV-2 virus, responsible for the 2019-2023 global pandemic"},
				{Key: types.PropPathogen, Value: "SARS-CoV-2"},
				{Key: types.PropSymptoms, Value: []string{"fever", "cough", "loss of smell", "fatigue"}},
				{Key: types.PropTransmission, Value: []string{"airborne", "droplet"}},
				{Key: types.PropCategory, Value: "viral"},
			},
			Relations: []types.Relation{
				{Predicate: "OCCURRED_IN", Direction: types.DirectionOut, TargetID: "USA", TargetLabel: "United States"},
				{Predicate: "OCCURRED_IN", Direction: types.DirectionOut, TargetID: "IND", TargetLabel: "India"},
				{Predicate: "PREVENTED_BY", Direction: types.DirectionOut, TargetID: "bnt162b2", TargetLabel: "Pfizer-BioNTech COVID-19 vaccine"},
			},
		},
		{
			ID:    "malaria",
			Type:  types.EntityDisease,
			Label: "Malaria",
			Properties: []types.Property{
				{Key: types.PropDescription, Value: "Mosquito-borne infectious disease caused by Plasmodium parasites, endemic in tropical regions"},
				{Key: types.PropPathogen, Value: "Plasmodium falciparum"},
				{Key: types.PropSymptoms, Value: []string{"fever", "chills", "headache"}},
				{Key: types.PropTransmission, Value: []string{"mosquito bite"}},
				{Key: types.PropCategory, Value: "parasitic"},
			},
			Relations: []types.Relation{
				{Predicate: "OCCURRED_IN", Direction: types.DirectionOut, TargetID: "NGA", TargetLabel: "Nigeria"},
				{Predicate: "TRACKED_BY", Direction: types.DirectionOut, TargetID: "who", TargetLabel: "World Health Organization"},
			},
		},
		{
			ID:    "cholera",
			Type:  types.EntityDisease,
			Label: "Cholera",
			Properties: []types.Property{
				{Key: types.PropDescription, Value: "Acute diarrhoeal infection caused by ingesting water contaminated with Vibrio cholerae"},
				{Key: types.PropPathogen, Value: "Vibrio cholerae"},
				{Key: types.PropTransmission, Value: []string{"contaminated water"}},
				{Key: types.PropCategory, Value: "bacterial"},
			},
		},
		{
			ID:    "tuberculosis",
			Type:  types.EntityDisease,
			Label: "Tuberculosis",
			Properties: []types.Property{
				{Key: types.PropDescription, Value: "Bacterial disease that most often affects the lungs, spread through the air when infected people cough"},
				{Key: types.PropPathogen, Value: "Mycobacterium tuberculosis"},
				{Key: types.PropCategory, Value: "bacterial"},
			},
		},
		{
			ID:    "USA",
			Type:  types.EntityCountry,
			Label: "United States",
			Properties: []types.Property{
				{Key: types.PropDescription, Value: "Country in North America with federal public health agencies including the CDC"},
				{Key: types.PropPopulation, Value: 331900000},
				{Key: types.PropContinent, Value: "North America"},
				{Key: types.PropCapital, Value: "Washington, D.C."},
			},
		},
		{
			ID:    "IND",
			Type:  types.EntityCountry,
			Label: "India",
			Properties: []types.Property{
				{Key: types.PropDescription, Value: "Country in South Asia, site of major vaccination campaigns against polio and COVID-19"},
				{Key: types.PropPopulation, Value: 1407000000},
				{Key: types.PropContinent, Value: "Asia"},
				{Key: types.PropCapital, Value: "New Delhi"},
			},
		},
		{
			ID:    "NGA",
			Type:  types.EntityCountry,
			Label: "Nigeria",
			Properties: []types.Property{
				{Key: types.PropDescription, Value: "Country in West Africa carrying a large share of the global malaria burden"},
				{Key: types.PropPopulation, Value: 213400000},
				{Key: types.PropContinent, Value: "Africa"},
				{Key: types.PropCapital, Value: "Abuja"},
			},
		},
		{
			ID:    "covid_USA_20200302",
			Type:  types.EntityOutbreak,
			Label: "COVID-19 outbreak (USA, March 2020)",
			Properties: []types.Property{
				{Key: types.PropYear, Value: 2020},
				{Key: types.PropCases, Value: 103.0},
				{Key: "date", Value: "2020-03-02"},
			},
			Relations: []types.Relation{
				{Predicate: "OUTBREAK_OF", Direction: types.DirectionOut, TargetID: "covid19", TargetLabel: "COVID-19"},
				{Predicate: "LOCATED_IN", Direction: types.DirectionOut, TargetID: "USA", TargetLabel: "United States"},
			},
		},
		{
			ID:    "vacc_IND_2021_covid",
			Type:  types.EntityVaccinationRecord,
			Label: "COVID-19 vaccination coverage (India, 2021)",
			Properties: []types.Property{
				{Key: types.PropYear, Value: 2021},
				{Key: types.PropVaccineName, Value: "Covishield"},
				{Key: types.PropCoverage, Value: 44.1},
			},
			Relations: []types.Relation{
				{Predicate: "RECORDED_IN", Direction: types.DirectionOut, TargetID: "IND", TargetLabel: "India"},
			},
		},
		{
			ID:    "who",
			Type:  types.EntityOrganization,
			Label: "World Health Organization",
			Properties: []types.Property{
				{Key: types.PropDescription, Value: "United Nations agency responsible for international public health, coordinator of global outbreak response"},
				{Key: types.PropRole, Value: "global health coordination"},
				{Key: types.PropHeadquarters, Value: "Geneva"},
			},
		},
		{
			ID:    "cdc",
			Type:  types.EntityOrganization,
			Label: "Centers for Disease Control and Prevention",
			Properties: []types.Property{
				{Key: types.PropDescription, Value: "National public health agency of the United States"},
				{Key: types.PropRole, Value: "national public health"},
				{Key: types.PropHeadquarters, Value: "Atlanta"},
			},
		},
		{
			ID:    "bnt162b2",
			Type:  types.EntityVaccine,
			Label: "Pfizer-BioNTech COVID-19 vaccine",
			Properties: []types.Property{
				{Key: types.PropDescription, Value: "mRNA vaccine against COVID-19 developed by BioNTech and Pfizer"},
				{Key: types.PropManufacturer, Value: "Pfizer / BioNTech"},
			},
			Relations: []types.Relation{
				{Predicate: "PREVENTS", Direction: types.DirectionOut, TargetID: "covid19", TargetLabel: "COVID-19"},
			},
		},
		{
			ID:    "spanish_flu_1918",
			Type:  types.EntityPandemicEvent,
			Label: "1918 Spanish Flu",
			Properties: []types.Property{
				{Key: types.PropAbstract, Value: "The Spanish flu pandemic of 1918, caused by an H1N1 influenza A virus, infected a third of the world's population and killed tens of millions"},
				{Key: types.PropStartDate, Value: "1918-02"},
				{Key: types.PropDeathToll, Value: "17-100 million"},
				{Key: types.PropLocation, Value: "worldwide"},
			},
			Relations: []types.Relation{
				{Predicate: "CAUSED_BY_PATHOGEN_FAMILY", Direction: types.DirectionOut, TargetID: "influenza", TargetLabel: "Influenza"},
			},
		},
		{
			ID:    "influenza",
			Type:  types.EntityDisease,
			Label: "Influenza",
			Properties: []types.Property{
				{Key: types.PropDescription, Value: "Contagious respiratory illness caused by influenza viruses, with seasonal epidemics and occasional pandemics"},
				{Key: types.PropPathogen, Value: "Influenza A/B"},
				{Key: types.PropSymptoms, Value: []string{"fever", "cough", "body aches"}},
				{Key: types.PropCategory, Value: "viral"},
			},
		},
	}
}

// SeededMemoryStore returns a MemoryStore pre-populated with Seed(). Used by
// tests and the offline demo server.
func SeededMemoryStore(logger *zap.Logger) *MemoryStore {
	s := NewMemoryStore(logger)
	s.Upsert(Seed()...)
	return s
}
