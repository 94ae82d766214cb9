package models

// Festival is one upcoming festival in the inventory plan. DaysLeft and
// Urgency are recomputed from Date after generation.
type Festival struct {
	ID       int      `json:"id" desc:"Sequential id starting at 1"`
	Name     string   `json:"name" desc:"Festival name exactly as listed in the upcoming festivals" validate:"required"`
	Date     string   `json:"date" desc:"Festival date in YYYY-MM-DD format"`
	DaysLeft int      `json:"daysLeft" desc:"Days from today until the festival" advisory:"daysUntil=date"`
	Urgency  string   `json:"urgency" desc:"Stocking urgency: high, medium or low" validate:"omitempty,urgency" advisory:"urgency=date"`
	Items    []string `json:"items" desc:"Products to stock for this festival"`
}

type RecommendedProduct struct {
	ID     int    `json:"id" desc:"Sequential id starting at 1"`
	Name   string `json:"name" desc:"Product name" validate:"required"`
	Demand string `json:"demand" desc:"Very High, High or Medium"`
	Profit string `json:"profit" desc:"Expected profit per unit in rupees, e.g. ₹250"`
	Units  string `json:"units" desc:"Suggested stock range, e.g. 50-80"`
	Trend  string `json:"trend" desc:"Demand change, e.g. +35%"`
}

type LocalDemand struct {
	ID      int    `json:"id" desc:"Sequential id starting at 1"`
	Area    string `json:"area" desc:"Neighborhood name in the seller's city"`
	Product string `json:"product" desc:"Product category in demand"`
	Demand  string `json:"demand" desc:"High or Medium"`
}

type AvoidProduct struct {
	ID         int    `json:"id" desc:"Sequential id starting at 1"`
	Name       string `json:"name" desc:"Product to avoid stocking now"`
	Reason     string `json:"reason" desc:"Short reason, e.g. Seasonal Mismatch"`
	Suggestion string `json:"suggestion" desc:"What to do instead, e.g. Wait until October"`
}

// PlannerReport backs the inventory planner page.
type PlannerReport struct {
	UpcomingFestivals  []Festival           `json:"upcomingFestivals" desc:"4 upcoming festivals chosen from the provided list" validate:"dive"`
	TopProductsToStock []RecommendedProduct `json:"topProductsToStock" desc:"5 products to stock now"`
	NearbyDemand       []LocalDemand        `json:"nearbyDemand" desc:"3 nearby areas with demand"`
	AvoidProducts      []AvoidProduct       `json:"avoidProducts" desc:"3 products to avoid"`
	Recommendations    []string             `json:"recommendations,omitempty" desc:"Short actionable tips for the seller"`
}
