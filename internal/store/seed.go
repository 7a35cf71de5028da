package store

import "github.com/iliamunaev/storefront-mock/internal/model"

// Seed returns the demo orders o1 and o2.
func Seed() []model.Order {
	o1 := model.Order{
		ID:     "o1",
		Status: model.StatusOngoing,
		Items: []model.OrderItem{
			{ID: "p1", Name: "Jollof Rice", Price: 2500, Qty: 1, Store: "FoodCourt"},
			{ID: "p2", Name: "Chicken Shawarma", Price: 4200, Qty: 1, Store: "FoodCourt"},
		},
		ETA:      "12-25 mins",
		Tracking: model.StagePreparing,
	}
	o1.Total, _ = model.Total(o1.Items)

	o2 := model.Order{
		ID:     "o2",
		Status: model.StatusPast,
		Items: []model.OrderItem{
			{ID: "p3", Name: "Chips", Price: 1300, Qty: 1, Store: "FoodCourt"},
		},
		ETA:      "12 mins",
		Tracking: model.StageTransit,
	}
	o2.Total, _ = model.Total(o2.Items)

	return []model.Order{o1, o2}
}
