package provider

import (
	"github.com/shopspring/decimal"

	"github.com/iliamunaev/storefront-mock/internal/model"
)

func ptr[T any](v T) *T { return &v }

func builtin() map[string]entry {
	return map[string]entry{
		"pr1": {
			offset:    0,
			basePrice: 15000,
			variations: []model.PriceVariation{
				{Name: "Leak repair", Price: 15000},
				{Name: "Tap replacement", Price: 22000},
				{Name: "Full bathroom fitting", Price: 85000},
			},
			profile: model.Profile{
				ID:             "pr1",
				Name:           "Johnson Smith",
				Category:       "Plumber",
				Location:       "Sagamu",
				Description:    "Licensed plumber with eight years of residential and light commercial work around Sagamu.",
				WhatIDoSummary: "Fix leaks and burst pipes. Install sinks, taps and water heaters. Unblock drains. Fit out new bathrooms",
				PastJobs: []model.PastJob{
					{
						ID:               "j1",
						Title:            "Fix Leaking Kitchen Sink and Replace Tap",
						ClientName:       "Adaeze O.",
						StartDate:        "2024-03-02",
						EndDate:          "2024-03-02",
						Responsibilities: []string{"Trace leak", "Replace trap and mixer tap"},
						Technologies:     []string{"PEX", "Compression fittings"},
						Outcome:          "Leak fixed same day",
						Rating:           ptr(4.8),
						RatingCount:      ptr(12),
					},
					{
						ID:               "j2",
						Title:            "Bathroom Re-pipe",
						ClientName:       "Tunde A.",
						StartDate:        "2023-11-14",
						EndDate:          "2023-11-18",
						Responsibilities: []string{"Remove galvanised lines", "Pressure test new runs"},
						Technologies:     []string{"PPR", "Heat fusion"},
						Outcome:          "Water pressure restored",
					},
				},
			},
		},
		"pr2": {
			offset:    1,
			basePrice: 12000,
			variations: []model.PriceVariation{
				{Name: "Socket installation", Price: 8000},
				{Name: "House rewiring (per room)", Price: 45000},
			},
			discount: decimal.NewFromInt(10),
			profile: model.Profile{
				ID:             "pr2",
				Name:           "Mary John",
				Category:       "Electrician",
				Location:       "Sagamu",
				Description:    "Certified electrician covering installations, fault finding and inverter setups.",
				WhatIDoSummary: "Install sockets and lighting. Trace electrical faults. Set up inverters and solar panels",
				PastJobs: []model.PastJob{
					{
						ID:               "j3",
						Title:            "Inverter and Solar Setup",
						ClientName:       "Bola K.",
						StartDate:        "2024-01-20",
						EndDate:          "2024-01-22",
						Responsibilities: []string{"Size battery bank", "Mount panels", "Wire changeover"},
						Technologies:     []string{"MPPT controller", "Lithium batteries"},
						Outcome:          "Twelve hours of backup power",
						Rating:           ptr(5.0),
						RatingCount:      ptr(7),
					},
				},
			},
		},
	}
}

func fallback() entry {
	return entry{
		offset:    2,
		basePrice: 10000,
		variations: []model.PriceVariation{
			{Name: "Standard visit", Price: 10000},
		},
		profile: model.Profile{
			ID:             "default",
			Name:           "Service Professional",
			Category:       "General",
			Location:       "Sagamu",
			Description:    "Verified professional available for general home services.",
			WhatIDoSummary: "Assess the job. Agree a price. Get it done",
			PastJobs: []model.PastJob{
				{
					ID:               "j0",
					Title:            "General Home Repair",
					ClientName:       "Anonymous",
					StartDate:        "2024-01-01",
					EndDate:          "2024-01-01",
					Responsibilities: []string{"Inspect", "Repair"},
					Technologies:     []string{},
					Outcome:          "Completed",
				},
			},
		},
	}
}
