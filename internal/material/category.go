package material

// Category is a material category label shown to users.
type Category string

const (
	CategoryMetal       Category = "Metal Scraps"
	CategoryLab         Category = "Lab Equipment"
	CategoryTimber      Category = "Timber Offcuts"
	CategoryElectronics Category = "Electronic Components"
	CategoryChemicals   Category = "Chemical Containers"
	CategoryPlastic     Category = "Plastic Scrap"
)

// CategoryOther is returned when a material could not be classified.
// It is intentionally not part of Categories.
const CategoryOther Category = "Other"

// CategoryAll is the catalog filter value that matches every category.
const CategoryAll = "All"

// Categories lists the known categories in display order.
var Categories = []Category{
	CategoryMetal,
	CategoryLab,
	CategoryTimber,
	CategoryElectronics,
	CategoryChemicals,
	CategoryPlastic,
}

// IsKnown reports whether c is one of Categories.
func (c Category) IsKnown() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// CategoryLabels returns the category labels as plain strings.
func CategoryLabels() []string {
	labels := make([]string, len(Categories))
	for i, c := range Categories {
		labels[i] = string(c)
	}
	return labels
}
