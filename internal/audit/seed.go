package audit

import (
	"context"
	"fmt"
)

type seedGlossary struct {
	name           string
	description    string
	industry       string
	sourceLanguage string
	targetLanguage string
	terms          []seedTerm
}

type seedTerm struct {
	source  string
	context string
}

var systemGlossaries = []seedGlossary{
	{
		name:           "E-commerce Standard Terms",
		description:    "Common terminology for online retail and shopping websites",
		industry:       "ecommerce",
		sourceLanguage: "en",
		targetLanguage: "ko",
		terms: []seedTerm{
			{"Add to Cart", "Button to add item to shopping cart"},
			{"Checkout", "Process to complete purchase"},
			{"Shopping Cart", "Collection of items to purchase"},
			{"Wishlist", "Saved items for later"},
			{"Free Shipping", "No delivery charge"},
			{"Return Policy", "Rules for returning items"},
			{"Track Order", "Follow shipment status"},
			{"Out of Stock", "Item not available"},
			{"In Stock", "Item available for purchase"},
			{"Size Guide", "Measurement reference"},
			{"Customer Reviews", "User feedback on products"},
			{"Best Seller", "Top selling item"},
			{"New Arrival", "Recently added product"},
			{"Sale", "Discounted price"},
			{"Discount Code", "Promotional code for savings"},
			{"Payment Method", "How to pay"},
			{"Billing Address", "Payment address"},
			{"Shipping Address", "Delivery address"},
			{"Order Confirmation", "Purchase verification"},
			{"Refund", "Money returned for return"},
		},
	},
	{
		name:           "Ad Tech Standard Terms",
		description:    "Digital advertising and marketing terminology",
		industry:       "adtech",
		sourceLanguage: "en",
		targetLanguage: "ko",
		terms: []seedTerm{
			{"Impressions", "Number of times ad was displayed"},
			{"Click-Through Rate (CTR)", "Clicks divided by impressions"},
			{"Conversion", "Desired action completed"},
			{"Cost Per Click (CPC)", "Price per ad click"},
			{"Cost Per Mille (CPM)", "Cost per thousand impressions"},
			{"Return on Ad Spend (ROAS)", "Revenue per ad dollar spent"},
			{"Target Audience", "Intended ad recipients"},
			{"Attribution", "Assigning credit to touchpoints"},
			{"A/B Testing", "Comparing two variants"},
			{"Landing Page", "Page after ad click"},
			{"Call to Action (CTA)", "Prompt to take action"},
			{"Bounce Rate", "Single-page visit rate"},
			{"Engagement Rate", "User interaction metric"},
			{"Reach", "Unique users exposed to ad"},
			{"Frequency", "Times ad shown per user"},
			{"Retargeting", "Ads to previous visitors"},
			{"Lookalike Audience", "Similar user targeting"},
			{"Ad Placement", "Where ad appears"},
			{"Campaign", "Marketing initiative"},
			{"Ad Creative", "Visual/text ad content"},
		},
	},
	{
		name:           "Wellness & Health Standard Terms",
		description:    "Health, wellness, and supplement industry terminology",
		industry:       "wellness",
		sourceLanguage: "en",
		targetLanguage: "ko",
		terms: []seedTerm{
			{"Dietary Supplement", "Nutritional product"},
			{"Serving Size", "Recommended portion"},
			{"Daily Value", "Percentage of daily needs"},
			{"Active Ingredient", "Primary effective component"},
			{"Natural", "From natural sources"},
			{"Organic", "Certified organic product"},
			{"Gluten-Free", "Contains no gluten"},
			{"Non-GMO", "No genetic modification"},
			{"Vegan", "No animal products"},
			{"Disclaimer", "Legal notice about claims"},
			{"Consult your doctor", "Medical advice notice"},
			{"Side Effects", "Possible adverse reactions"},
			{"Dosage", "Amount to take"},
			{"Wellness", "Overall health state"},
			{"Immune Support", "Immunity benefits"},
			{"Energy Boost", "Increased vitality"},
			{"Sleep Support", "Better sleep aid"},
			{"Stress Relief", "Anxiety reduction"},
			{"Digestive Health", "Gut wellness"},
			{"Results may vary", "Individual outcome disclaimer"},
		},
	},
}

// SeedSystemGlossaries installs the built-in industry glossaries. Glossaries
// that already exist (matched by name) are left untouched, so reseeding on
// every daemon start is safe. Target terms are intentionally empty: the seed
// data fixes WHICH terms matter per industry, not their translations.
func (s *Store) SeedSystemGlossaries(ctx context.Context) (int, error) {
	seeded := 0
	for _, seed := range systemGlossaries {
		var count int
		row := s.db.QueryRowContext(
			ctx,
			`SELECT COUNT(1) FROM glossaries WHERE is_system = 1 AND name = ?`,
			seed.name,
		)
		if err := row.Scan(&count); err != nil {
			return seeded, fmt.Errorf("check system glossary %q: %w", seed.name, err)
		}
		if count > 0 {
			continue
		}

		glossary := &Glossary{
			Name:           seed.name,
			Description:    seed.description,
			Industry:       seed.industry,
			SourceLanguage: seed.sourceLanguage,
			TargetLanguage: seed.targetLanguage,
			IsSystem:       true,
			Terms:          make([]GlossaryTerm, 0, len(seed.terms)),
		}
		for _, term := range seed.terms {
			glossary.Terms = append(glossary.Terms, GlossaryTerm{
				SourceTerm: term.source,
				Context:    term.context,
			})
		}
		if _, err := s.CreateGlossary(ctx, glossary); err != nil {
			return seeded, fmt.Errorf("seed system glossary %q: %w", seed.name, err)
		}
		seeded++
	}
	return seeded, nil
}
