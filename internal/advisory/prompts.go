package advisory

import (
	"strings"
	"text/template"
)

const systemPrompt = "You are an expert agricultural advisor. Reply with a single JSON object and nothing else."

var (
	cropsPrompt = template.Must(template.New("crops").Parse(
		`Based on the provided soil type, land location, and crop history of nearby farms, suggest exactly 5 of the best crops for the farmer to plant.

Soil Type: {{.SoilType}}
Land Location: {{.LandLocation}}
Nearby Crop History: {{.NearbyCropHistory}}

Consider both best-fit crops and popular crops in the locality.
Answer as {"cropSuggestions": ["...", "...", "...", "...", "..."]}.`))

	pesticidesPrompt = template.Must(template.New("pesticides").Parse(
		`Act like a search engine. A farmer is growing {{.Crop}} and is experiencing issues with the following pests: {{.Pests}}.
Provide a list of pesticide suggestions and the reasoning behind each suggestion.
Answer as {"pesticideSuggestions": ["..."], "reasoning": "..."}.`))

	diagnosisPrompt = template.Must(template.New("diagnosis").Parse(
		`Act like a search engine specialised in diagnosing plant illnesses from images.
Analyze the attached image and description to identify any pests or diseases affecting the plant, then suggest appropriate pesticides.

Description: {{.}}

Explain what you identified in the image. If the image is not clear or not a plant, say so in the reasoning.
Answer as {"pesticideSuggestions": ["..."], "reasoning": "..."}.`))

	cropDetailsPrompt = template.Must(template.New("cropDetails").Parse(
		`For the crop "{{.CropName}}", provide its detailed information.
Answer as {"name": "...", "details": {"growthPeriod": "...", "weatherNeeds": "...", "irrigationNeeds": "...", "fertilizerRecs": "...", "harvestPrediction": "..."}}.`))
)

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
