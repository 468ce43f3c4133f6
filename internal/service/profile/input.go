package profile

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/oggyb/loveknot/internal/db"
)

// Input is a submitted biodata. Known fields map onto columns; every other
// top-level key of the JSON body is kept in Details.
type Input struct {
	BiodataType       string
	Type              string
	Name              string
	Age               string
	MobileNumber      string
	ContactEmail      string
	ProfileImage      string
	Occupation        string
	PermanentDivision string
	PresentDivision   string
	Details           map[string]any
}

// columns are the body keys stored as columns; server-owned keys are dropped.
var columns = map[string]bool{
	"biodataType": true, "type": true, "name": true, "age": true,
	"mobileNumber": true, "contactEmail": true, "profileImage": true,
	"occupation": true, "permanentDivision": true, "presentDivision": true,
	"id": true, "_id": true, "biodataId": true,
	"premiumRequested": true, "premiumApproved": true,
}

func (in *Input) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("biodata must be a JSON object")
	}

	in.BiodataType = text(raw["biodataType"])
	in.Type = text(raw["type"])
	in.Name = text(raw["name"])
	in.Age = text(raw["age"])
	in.MobileNumber = text(raw["mobileNumber"])
	in.ContactEmail = text(raw["contactEmail"])
	in.ProfileImage = text(raw["profileImage"])
	in.Occupation = text(raw["occupation"])
	in.PermanentDivision = text(raw["permanentDivision"])
	in.PresentDivision = text(raw["presentDivision"])

	in.Details = map[string]any{}
	for k, v := range raw {
		if !columns[k] {
			in.Details[k] = v
		}
	}
	if nested, ok := raw["details"].(map[string]any); ok {
		delete(in.Details, "details")
		for k, v := range nested {
			in.Details[k] = v
		}
	}
	return nil
}

// text renders a scalar JSON value as a string. Ages arrive as both 27 and "27".
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%g", t))
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func (in Input) toModel(biodataType db.BiodataType, contactEmail string) *db.Profile {
	var details datatypes.JSONMap
	if len(in.Details) > 0 {
		details = datatypes.JSONMap(in.Details)
	}
	return &db.Profile{
		ContactEmail:      contactEmail,
		BiodataType:       biodataType,
		Type:              in.Type,
		Name:              in.Name,
		Age:               in.Age,
		MobileNumber:      in.MobileNumber,
		ProfileImage:      in.ProfileImage,
		Occupation:        in.Occupation,
		PermanentDivision: in.PermanentDivision,
		PresentDivision:   in.PresentDivision,
		Details:           details,
	}
}
