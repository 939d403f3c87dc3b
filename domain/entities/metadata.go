package entities

import "strings"

// ServiceMetadata is the service's self-description fetched from its
// configuration endpoint. Components mirrors the raw document; the
// enumerations of voices and languages are derived from it.
type ServiceMetadata struct {
	Components []MetadataComponent    `json:"components"`
	Raw        map[string]interface{} `json:"-"`
}

// MetadataComponent is one UI component entry in the configuration
// document. Dropdown components carry the enumerations of interest.
type MetadataComponent struct {
	ID    int                    `json:"id"`
	Type  string                 `json:"type"`
	Props map[string]interface{} `json:"props"`
}

// DropdownChoices returns the choices of the first dropdown component
// whose label contains the given substring, case-insensitively. Gradio
// encodes each choice either as a plain string or as a
// [display, value] pair; the display form is returned, since that is
// what submissions send back.
func (m *ServiceMetadata) DropdownChoices(label string) []string {
	needle := strings.ToLower(label)

	for _, component := range m.Components {
		if component.Type != "dropdown" {
			continue
		}
		componentLabel, _ := component.Props["label"].(string)
		if !strings.Contains(strings.ToLower(componentLabel), needle) {
			continue
		}

		rawChoices, _ := component.Props["choices"].([]interface{})
		choices := make([]string, 0, len(rawChoices))
		for _, raw := range rawChoices {
			switch choice := raw.(type) {
			case string:
				choices = append(choices, choice)
			case []interface{}:
				if len(choice) > 0 {
					if display, ok := choice[0].(string); ok {
						choices = append(choices, display)
					}
				}
			}
		}
		return choices
	}

	return nil
}
