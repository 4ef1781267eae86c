package tools

import "github.com/Chative-core-poc-v1/intent-router/internal/agent/model"

// MockProducts is the demo catalogue served by the mock tool server.
var MockProducts = []model.Product{
	{
		ID:          8001,
		Title:       "Floral Print Cotton Shirt",
		ProductType: "Shirts",
		Description: "Breathable cotton shirt with an all-over floral print",
		Tags:        []string{"floral", "summer", "cotton"},
		Variants: []model.Variant{
			{ID: 42910880890961, Title: "S / Blue", Price: "1499.00"},
			{ID: 42910880890962, Title: "M / Blue", Price: "1499.00"},
		},
		Available: true,
	},
	{
		ID:          8002,
		Title:       "Striped Linen Shirt",
		ProductType: "Shirts",
		Description: "Relaxed linen shirt with vertical stripes",
		Tags:        []string{"striped", "linen"},
		Variants: []model.Variant{
			{ID: 42910880890963, Title: "M / White", Price: "2299.00"},
			{ID: 42910880890964, Title: "L / White", Price: "2299.00"},
		},
		Available: true,
	},
	{
		ID:          8003,
		Title:       "Floral Maxi Dress",
		ProductType: "Dresses",
		Description: "Flowing maxi dress with a rose floral pattern",
		Tags:        []string{"floral", "maxi"},
		Variants: []model.Variant{
			{ID: 42910880890965, Title: "S / Red", Price: "2999.00"},
		},
		Available: true,
	},
	{
		ID:          8004,
		Title:       "Polka Dot Wrap Dress",
		ProductType: "Dresses",
		Description: "Wrap dress in navy with white polka dots",
		Tags:        []string{"polka dot", "navy"},
		Variants: []model.Variant{
			{ID: 42910880890966, Title: "M / Navy", Price: "1899.00"},
		},
		Available: false,
	},
	{
		ID:          8005,
		Title:       "Gold Hoop Earrings",
		ProductType: "Earrings",
		Description: "Lightweight gold-plated hoop earrings",
		Tags:        []string{"jewellery", "gold"},
		Variants: []model.Variant{
			{ID: 42910880890967, Title: "Default", Price: "799.00"},
		},
		Available: true,
	},
	{
		ID:          8006,
		Title:       "Denim Jacket",
		ProductType: "Jackets",
		Description: "Classic blue denim jacket with button front",
		Tags:        []string{"denim", "blue"},
		Variants: []model.Variant{
			{ID: 42910880890968, Title: "M / Blue", Price: "3499.00"},
			{ID: 42910880890969, Title: "L / Blue", Price: "3499.00"},
		},
		Available: true,
	},
}
