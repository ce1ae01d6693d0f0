package query

// Badge is the display variant of a category badge.
type Badge string

const (
	BadgeDefault     Badge = "default"
	BadgeDestructive Badge = "destructive"
	BadgeOutline     Badge = "outline"
)

// BadgeFor maps a lead category onto a badge variant.
func BadgeFor(category string) Badge {
	switch category {
	case "Hot":
		return BadgeDefault
	case "Cold":
		return BadgeDestructive
	default:
		return BadgeOutline
	}
}
