package material

import "strings"

// Location is where a material can be picked up.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// Item is a material listed on the marketplace.
type Item struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Quantity    string   `json:"quantity"` // Free text, e.g. "5 Rolls"
	Location    Location `json:"location"`
	WeightKg    float64  `json:"weightKg"`
	ImageURL    string   `json:"imageUrl"`
	DonorName   string   `json:"donorName"`
	PostedAt    string   `json:"postedAt"`
}

// Role is the kind of campus user.
type Role string

const (
	RoleStudent  Role = "student"
	RoleIndustry Role = "industry"
	RoleLab      Role = "lab"
)

// Roles lists the selectable roles.
var Roles = []Role{RoleStudent, RoleIndustry, RoleLab}

// ParseRole returns the role matching s.
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// User is a signed-in marketplace user.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// ImpactStats summarizes the marketplace's environmental impact.
type ImpactStats struct {
	TotalDivertedKg    float64              `json:"totalDivertedKg"`
	CarbonSavedKg      float64              `json:"carbonSavedKg"`
	ItemsRedistributed int                  `json:"itemsRedistributed"`
	ActiveUsers        int                  `json:"activeUsers"`
	DivertedByCategory map[Category]float64 `json:"divertedByCategory"`
}

// NameFromEmail returns the display name for a plain sign-in, which is the
// local part of the email address.
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
