package marketplace

import "github.com/2024luvyavarliani-boop/Upcyclee/internal/material"

// SeedItems returns the demo materials shown before anything is published.
func SeedItems() []material.Item {
	return []material.Item{
		{
			ID:          "1",
			Name:        "Aluminum Extrusion Scraps",
			Category:    material.CategoryMetal,
			Description: "High-grade 6063 aluminum scraps from a fabrication project. Pieces vary from 30cm to 1m.",
			Quantity:    "approx 25kg",
			Location:    material.Location{Lat: 40.7128, Lng: -74.006, Address: "Engineering Hall, Main Campus"},
			WeightKg:    25,
			ImageURL:    "https://images.unsplash.com/photo-1558363352-03d350901e13?auto=format&fit=crop&q=80&w=400",
			DonorName:   "Dr. Sarah Wilson",
			PostedAt:    "2h ago",
		},
		{
			ID:          "2",
			Name:        "Borosilicate Glass Tubes",
			Category:    material.CategoryLab,
			Description: "Surplus laboratory glassware. Excellent for student chemistry projects or artistic blowing.",
			Quantity:    "12 units",
			Location:    material.Location{Lat: 40.7138, Lng: -74.007, Address: "Bio-Chem Lab, West Wing"},
			WeightKg:    4,
			ImageURL:    "https://images.unsplash.com/photo-1576086213369-97a306d36557?auto=format&fit=crop&q=80&w=400",
			DonorName:   "Chemistry Dept",
			PostedAt:    "5h ago",
		},
		{
			ID:          "3",
			Name:        "Pine Timber Offcuts",
			Category:    material.CategoryTimber,
			Description: "Clean pine wood offcuts from furniture workshop. Various thicknesses and lengths.",
			Quantity:    "1 large bin",
			Location:    material.Location{Lat: 40.7118, Lng: -74.005, Address: "Industrial Arts Workshop"},
			WeightKg:    45,
			ImageURL:    "https://images.unsplash.com/photo-1589939705384-5185137a7f0f?auto=format&fit=crop&q=80&w=400",
			DonorName:   "Workshop Manager",
			PostedAt:    "1d ago",
		},
		{
			ID:          "4",
			Name:        "Circuit Board Components",
			Category:    material.CategoryElectronics,
			Description: "Unused capacitors, resistors, and empty breadboards from a terminated project.",
			Quantity:    "2 small boxes",
			Location:    material.Location{Lat: 40.7148, Lng: -74.008, Address: "Robotics Lab"},
			WeightKg:    2,
			ImageURL:    "https://images.unsplash.com/photo-1518770660439-4636190af475?auto=format&fit=crop&q=80&w=400",
			DonorName:   "RoboClub Admin",
			PostedAt:    "3h ago",
		},
	}
}
