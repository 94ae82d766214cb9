package models

type PersonalizedInsight struct {
	Location string `json:"location"`
	Trend    string `json:"trend" desc:"Name of the trend"`
	Change   string `json:"change" desc:"Change in demand, e.g. +40%"`
	Type     string `json:"type" desc:"opportunity, warning or info"`
	Message  string `json:"message"`
	Action   string `json:"action" desc:"Recommended next step"`
}

type CategoryDataPoint struct {
	Period    string  `json:"period" desc:"Week label, e.g. Week 1"`
	Searches  int     `json:"searches"`
	Purchases int     `json:"purchases"`
	Events    *string `json:"events" desc:"Festival or event influencing that week, or null"`
}

type Hotspot struct {
	Area    string `json:"area"`
	Pincode string `json:"pincode" desc:"Six digit Indian pincode"`
	City    string `json:"city"`
	Product string `json:"product"`
	Trend   string `json:"trend"`
}

// TrendingProduct.Similarity is clamped to 0..100 after generation.
type TrendingProduct struct {
	Product    string `json:"product"`
	Trend      string `json:"trend"`
	AvgPrice   string `json:"avgPrice" desc:"Average selling price in rupees"`
	Action     string `json:"action"`
	Similarity int    `json:"similarity" desc:"Similarity to the seller's catalogue from 0 to 100"`
}

type ReturnedProduct struct {
	Product    string `json:"product"`
	ReturnRate string `json:"returnRate" desc:"Return rate, e.g. 18%"`
	MainReason string `json:"mainReason"`
	Suggestion string `json:"suggestion"`
}

// TrendsReport backs the trends and insights page.
type TrendsReport struct {
	PersonalizedInsights []PersonalizedInsight `json:"personalizedInsights" desc:"3 personalized insights"`
	CategoryData         []CategoryDataPoint   `json:"categoryData" desc:"5 weeks of category data"`
	Hotspots             []Hotspot             `json:"hotspots" desc:"4 demand hotspots"`
	TrendingProducts     []TrendingProduct     `json:"trendingProducts" desc:"4 trending products"`
	ReturnedProducts     []ReturnedProduct     `json:"returnedProducts" desc:"3 frequently returned products"`
}
