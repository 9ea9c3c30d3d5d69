package catalog

const (
	// Freepik image generation per image, by quality tier
	freepikLowCost    = 0.12
	freepikMediumCost = 0.24
	freepikHighCost   = 0.48

	// Monthly seats
	chatGPTMonthly    = 200.0
	midjourneyMonthly = 30.0

	// Video seconds
	runwayPerSecond = 0.05
	klingPerSecond  = 0.08

	// Credit plans
	higgsfieldPerCredit = 0.06
	higgsfieldAllotment = 1000.0
	elevenLabsPerCredit = 0.0003
	elevenLabsAllotment = 100000.0
	elevenLabsPerItem   = 1000.0
)

// Defaults returns the built-in pricing table. It is a starting point only:
// deployments are expected to point CATALOG_PATH at the table the business
// has agreed on.
func Defaults() *File {
	higgsfieldCredits := higgsfieldAllotment
	elevenLabsCredits := elevenLabsAllotment
	elevenLabsItem := elevenLabsPerItem

	return &File{
		Tools: []ToolDefinition{
			{
				ID:       "freepik",
				Name:     "Freepik",
				Category: "image",
				Pricing: PricingDefinition{
					Type: PricingTiered,
					Tiers: []TierDefinition{
						{Label: "Low", UnitCost: freepikLowCost},
						{Label: "Medium", UnitCost: freepikMediumCost},
						{Label: "High", UnitCost: freepikHighCost},
					},
				},
			},
			{
				ID:       "chatgpt",
				Name:     "ChatGPT",
				Category: "bundle",
				Pricing:  PricingDefinition{Type: PricingFlatMonthly, Amount: chatGPTMonthly},
			},
			{
				ID:       "midjourney",
				Name:     "Midjourney",
				Category: "image",
				Pricing:  PricingDefinition{Type: PricingFlatMonthly, Amount: midjourneyMonthly},
			},
			{
				ID:       "runway",
				Name:     "Runway",
				Category: "video",
				Pricing:  PricingDefinition{Type: PricingPerSecond, Rate: runwayPerSecond},
			},
			{
				ID:       "kling",
				Name:     "Kling",
				Category: "video",
				Pricing:  PricingDefinition{Type: PricingPerSecond, Rate: klingPerSecond},
			},
			{
				ID:       "higgsfield",
				Name:     "Higgsfield",
				Category: "video",
				Pricing: PricingDefinition{
					Type:                 PricingCreditMetered,
					RatePerCredit:        higgsfieldPerCredit,
					TotalCreditsAllotted: &higgsfieldCredits,
				},
			},
			{
				ID:       "elevenlabs",
				Name:     "ElevenLabs",
				Category: "audio",
				Pricing: PricingDefinition{
					Type:                 PricingCreditMetered,
					RatePerCredit:        elevenLabsPerCredit,
					TotalCreditsAllotted: &elevenLabsCredits,
					CreditsPerItem:       &elevenLabsItem,
				},
			},
		},
	}
}
