// Package advisory asks a chat-completions model for crop and pest advice.
package advisory

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/ariefcatur/go-threshing-market/internal/validate"
)

var (
	// ErrDisabled is returned when no API key is configured.
	ErrDisabled = errors.New("advisory service disabled")
	// ErrUpstream covers transport failures, non-2xx answers and replies that do not
	// fit the expected shape.
	ErrUpstream = errors.New("advisory service failed")
)

// Service is the advice surface used by the HTTP layer.
type Service interface {
	SuggestCrops(ctx context.Context, in CropsInput) (CropsOutput, error)
	SuggestPesticides(ctx context.Context, in PesticidesInput) (PesticidesOutput, error)
	DiagnosePlantHealth(ctx context.Context, in DiagnosisInput) (PesticidesOutput, error)
	GetCropDetails(ctx context.Context, in CropDetailsInput) (CropDetailsOutput, error)
}

const cropSuggestionCount = 5

type CropsInput struct {
	SoilType          string `json:"soilType"`
	LandLocation      string `json:"landLocation"`
	NearbyCropHistory string `json:"nearbyCropHistory"`
}

func (in CropsInput) Validate() error {
	return validate.Required(
		validate.Field{Name: "soilType", Value: in.SoilType},
		validate.Field{Name: "landLocation", Value: in.LandLocation},
		validate.Field{Name: "nearbyCropHistory", Value: in.NearbyCropHistory},
	)
}

type CropsOutput struct {
	CropSuggestions []string `json:"cropSuggestions"`
}

type PesticidesInput struct {
	Crop  string `json:"crop"`
	Pests string `json:"pests"`
}

func (in PesticidesInput) Validate() error {
	return validate.Required(
		validate.Field{Name: "crop", Value: in.Crop},
		validate.Field{Name: "pests", Value: in.Pests},
	)
}

// PesticidesOutput is shared by the pest and the photo diagnosis flows.
type PesticidesOutput struct {
	PesticideSuggestions []string `json:"pesticideSuggestions"`
	Reasoning            string   `json:"reasoning"`
}

const defaultDescription = "No description provided."

type DiagnosisInput struct {
	PhotoDataURI string `json:"photoDataUri"`
	Description  string `json:"description,omitempty"`
}

var dataURI = regexp.MustCompile(`^data:[\w.+-]+/[\w.+-]+;base64,[A-Za-z0-9+/=\s]+$`)

func (in DiagnosisInput) Validate() error {
	if err := validate.Required(validate.Field{Name: "photoDataUri", Value: in.PhotoDataURI}); err != nil {
		return err
	}
	if !dataURI.MatchString(in.PhotoDataURI) {
		return &validate.Error{Field: "photoDataUri", Reason: "must be data:<mimetype>;base64,<data>"}
	}
	return nil
}

func (in DiagnosisInput) description() string {
	if d := strings.TrimSpace(in.Description); d != "" {
		return d
	}
	return defaultDescription
}

type CropDetailsInput struct {
	CropName string `json:"cropName"`
}

func (in CropDetailsInput) Validate() error {
	return validate.Required(validate.Field{Name: "cropName", Value: in.CropName})
}

type CropDetails struct {
	GrowthPeriod      string `json:"growthPeriod"`
	WeatherNeeds      string `json:"weatherNeeds"`
	IrrigationNeeds   string `json:"irrigationNeeds"`
	FertilizerRecs    string `json:"fertilizerRecs"`
	HarvestPrediction string `json:"harvestPrediction"`
}

type CropDetailsOutput struct {
	Name    string      `json:"name"`
	Details CropDetails `json:"details"`
}
