package render

import (
	"fmt"

	"github.com/goliatone/go-formflow/pkg/model"
)

// ComponentType names the presentational component a field renders as.
type ComponentType string

const (
	ComponentInput          ComponentType = "input"
	ComponentTextarea       ComponentType = "textarea"
	ComponentCharacterCount ComponentType = "characterCount"
	ComponentRadios         ComponentType = "radios"
	ComponentCheckboxes     ComponentType = "checkboxes"
	ComponentDateInput      ComponentType = "dateInput"
)

// ComponentTypeFor maps a field kind to its component.
func ComponentTypeFor(kind model.FieldKind) (ComponentType, error) {
	switch kind {
	case model.KindText:
		return ComponentInput, nil
	case model.KindTextarea:
		return ComponentTextarea, nil
	case model.KindCharacterCount:
		return ComponentCharacterCount, nil
	case model.KindRadio:
		return ComponentRadios, nil
	case model.KindCheckbox:
		return ComponentCheckboxes, nil
	case model.KindDate:
		return ComponentDateInput, nil
	default:
		return "", fmt.Errorf("render: no component for field kind %q", kind)
	}
}

// FieldComponent pairs a component bag with the component that renders it.
type FieldComponent struct {
	Path          string        `json:"path"`
	ComponentType ComponentType `json:"componentType"`
	Component     Component     `json:"component"`
}

// Component is the parameter bag handed to component templates. Hint holds
// sanitised markup; every other string is plain text.
type Component struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Label        string            `json:"label"`
	Hint         string            `json:"hint,omitempty"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
	DescribedBy  string            `json:"describedBy,omitempty"`
	Value        string            `json:"value,omitempty"`
	Classes      string            `json:"classes,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	MaxLength    int               `json:"maxLength,omitempty"`
	Remaining    string            `json:"remaining,omitempty"`
	Items        []Item            `json:"items,omitempty"`
	DateItems    []DateItem        `json:"dateItems,omitempty"`
}

// Item is one radio or checkbox option.
type Item struct {
	ID          string       `json:"id"`
	Value       string       `json:"value"`
	Text        string       `json:"text"`
	Checked     bool         `json:"checked,omitempty"`
	Conditional *Conditional `json:"conditional,omitempty"`
}

// Conditional carries the pre-rendered sub-fields revealed by an option.
type Conditional struct {
	HTML string `json:"html"`
}

// DateItem is one of the day, month and year inputs of a date field.
type DateItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Label   string `json:"label"`
	Value   string `json:"value,omitempty"`
	Classes string `json:"classes"`
	Invalid bool   `json:"invalid,omitempty"`
}
