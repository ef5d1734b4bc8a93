package domain

// TimeBlockID identifies a slot in the fixed daily time-block catalog.
type TimeBlockID string

// Catalog time-block identifiers. Clock-anchored and meal-anchored blocks
// interleave so the catalog order matches the shape of a day.
const (
	TimeBlockWaking    TimeBlockID = "waking"
	TimeBlockBreakfast TimeBlockID = "breakfast"
	TimeBlockMorning   TimeBlockID = "morning"
	TimeBlockLunch     TimeBlockID = "lunch"
	TimeBlockAfternoon TimeBlockID = "afternoon"
	TimeBlockDinner    TimeBlockID = "dinner"
	TimeBlockEvening   TimeBlockID = "evening"
	TimeBlockBedtime   TimeBlockID = "bedtime"
)

// TimeBlock is one entry of the immutable catalog.
type TimeBlock struct {
	ID        TimeBlockID `json:"id"`
	Label     string      `json:"label"`
	SortOrder int         `json:"sort_order"`
	IsMeal    bool        `json:"is_meal"`
}

var timeBlockCatalog = []TimeBlock{
	{ID: TimeBlockWaking, Label: "Waking Up", SortOrder: 1},
	{ID: TimeBlockBreakfast, Label: "Breakfast", SortOrder: 2, IsMeal: true},
	{ID: TimeBlockMorning, Label: "Morning", SortOrder: 3},
	{ID: TimeBlockLunch, Label: "Lunch", SortOrder: 4, IsMeal: true},
	{ID: TimeBlockAfternoon, Label: "Afternoon", SortOrder: 5},
	{ID: TimeBlockDinner, Label: "Dinner", SortOrder: 6, IsMeal: true},
	{ID: TimeBlockEvening, Label: "Evening", SortOrder: 7},
	{ID: TimeBlockBedtime, Label: "Bedtime", SortOrder: 8},
}

// TimeBlocks returns a copy of the catalog in display order.
func TimeBlocks() []TimeBlock {
	out := make([]TimeBlock, len(timeBlockCatalog))
	copy(out, timeBlockCatalog)
	return out
}

// LookupTimeBlock resolves a catalog entry by ID.
func LookupTimeBlock(id TimeBlockID) (TimeBlock, bool) {
	for _, tb := range timeBlockCatalog {
		if tb.ID == id {
			return tb, true
		}
	}
	return TimeBlock{}, false
}

// TimeBlockSortOrder returns the catalog sort position for id, or a position
// after every catalog entry when id is not in the catalog.
func TimeBlockSortOrder(id TimeBlockID) int {
	if tb, ok := LookupTimeBlock(id); ok {
		return tb.SortOrder
	}
	return len(timeBlockCatalog) + 1
}
