package models

// ContentType names one generated listing variant.
type ContentType string

const (
	ContentSEO            ContentType = "seo"
	ContentWhatsApp       ContentType = "whatsapp"
	ContentConversational ContentType = "conversational"
)

var ContentTypes = []ContentType{ContentSEO, ContentWhatsApp, ContentConversational}

func (c ContentType) Valid() bool {
	for _, t := range ContentTypes {
		if t == c {
			return true
		}
	}
	return false
}

// SEOListing is the marketplace listing.
type SEOListing struct {
	Title       string   `json:"title" binding:"required" desc:"Catchy SEO friendly title with the product name and 1-2 key features, around 60-70 characters" validate:"required"`
	Description string   `json:"description" binding:"required" desc:"Engaging 2-3 paragraph description: a hook, features and benefits, then a call to action" validate:"required"`
	Tags        []string `json:"tags,omitempty" desc:"10-15 tags covering product type, material, color, use cases, style and audience"`
	SEOKeywords []string `json:"seo_keywords,omitempty" desc:"5-7 primary search keywords"`
	Category    string   `json:"category" desc:"The provided category"`
}

// WhatsAppListing is a short broadcast message for WhatsApp catalogues.
type WhatsAppListing struct {
	Message      string   `json:"message" desc:"Short WhatsApp broadcast under 600 characters with a few emojis and line breaks" validate:"required"`
	Hashtags     []string `json:"hashtags,omitempty" desc:"3-5 hashtags"`
	CallToAction string   `json:"call_to_action" desc:"One line asking the customer to order or reply"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ConversationalListing is a friendly spoken-style pitch.
type ConversationalListing struct {
	Headline  string   `json:"headline" desc:"Friendly one line opener" validate:"required"`
	Pitch     string   `json:"pitch" desc:"Conversational pitch as if talking to a customer, 1-2 paragraphs" validate:"required"`
	KeyPoints []string `json:"key_points" desc:"3-5 short selling points"`
	FAQs      []FAQ    `json:"faqs,omitempty" desc:"2-3 common customer questions with answers"`
}

// ImprovedContent is what the improve endpoint asks the provider for.
type ImprovedContent struct {
	Title       string `json:"title" desc:"Improved, catchier title" validate:"required"`
	Description string `json:"description" desc:"Improved, more persuasive and benefit oriented description" validate:"required"`
}

type ImproveListingRequest struct {
	Title           string     `json:"title" binding:"required"`
	Description     string     `json:"description" binding:"required"`
	OriginalListing SEOListing `json:"original_listing" binding:"required"`
}

type TranslateRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Language    string `json:"language" binding:"required"`
}

type TranslatedContent struct {
	Title       string `json:"title" desc:"Translated title" validate:"required"`
	Description string `json:"description" desc:"Translated description" validate:"required"`
}
