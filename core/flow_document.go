package core

import (
	"encoding/json"
	"fmt"
)

const (
	FlowSchemaVersion  = "3.0"
	FlowDataAPIVersion = "3.0"

	FlowLayoutSingleColumn = "SingleColumnLayout"
	FlowCompleteAction     = "complete"

	TerminalLabelNext   = "Next"
	TerminalLabelSubmit = "Submit"
)

type ControlKind string

const (
	ControlRadioButtons ControlKind = "RadioButtonsGroup"
	ControlTextInput    ControlKind = "TextInput"
	ControlFooter       ControlKind = "Footer"
)

type ChoiceOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type FieldSpec struct {
	ID        string
	Label     string
	Control   ControlKind
	InputType string
	Options   []ChoiceOption
	Required  bool
	DataType  string
	Example   string
}

type ActionPayload struct {
	Section string `json:"section"`
}

type TerminalAction struct {
	Label   string
	Name    string
	Payload ActionPayload
}

type FlowScreen struct {
	ID       string
	Title    string
	Fields   []FieldSpec
	Terminal TerminalAction
}

type FlowDocument struct {
	Version        string
	DataAPIVersion string
	Screens        []FlowScreen
}

// FirstScreenID is the default entry screen for flow invitations.
func (d FlowDocument) FirstScreenID() string {
	if len(d.Screens) == 0 {
		return ""
	}
	return d.Screens[0].ID
}

type wireFieldData struct {
	Type    string `json:"type"`
	Example string `json:"__example__"`
}

type wireAction struct {
	Name    string        `json:"name"`
	Payload ActionPayload `json:"payload"`
}

type wireComponent struct {
	Type          ControlKind    `json:"type"`
	Name          string         `json:"name,omitempty"`
	Label         string         `json:"label"`
	DataSource    []ChoiceOption `json:"data-source,omitempty"`
	InputType     string         `json:"input-type,omitempty"`
	Required      bool           `json:"required,omitempty"`
	OnClickAction *wireAction    `json:"on-click-action,omitempty"`
}

type wireLayout struct {
	Type     string          `json:"type"`
	Children []wireComponent `json:"children"`
}

type wireScreen struct {
	ID     string                   `json:"id"`
	Title  string                   `json:"title"`
	Data   map[string]wireFieldData `json:"data"`
	Layout wireLayout               `json:"layout"`
}

type wireDocument struct {
	Version        string       `json:"version"`
	Screens        []wireScreen `json:"screens"`
	DataAPIVersion string       `json:"data_api_version"`
}

// MarshalJSON renders the provider's flow JSON layout. Map keys in the
// per-screen data model are emitted sorted, so output is byte-stable.
func (d FlowDocument) MarshalJSON() ([]byte, error) {
	doc := wireDocument{
		Version:        d.Version,
		DataAPIVersion: d.DataAPIVersion,
		Screens:        make([]wireScreen, 0, len(d.Screens)),
	}
	for _, screen := range d.Screens {
		wire := wireScreen{
			ID:    screen.ID,
			Title: screen.Title,
			Data:  make(map[string]wireFieldData, len(screen.Fields)),
			Layout: wireLayout{
				Type:     FlowLayoutSingleColumn,
				Children: make([]wireComponent, 0, len(screen.Fields)+1),
			},
		}
		for _, field := range screen.Fields {
			wire.Layout.Children = append(wire.Layout.Children, wireComponent{
				Type:       field.Control,
				Name:       field.ID,
				Label:      field.Label,
				DataSource: field.Options,
				InputType:  field.InputType,
				Required:   field.Required,
			})
			wire.Data[field.ID] = wireFieldData{Type: field.DataType, Example: field.Example}
		}
		wire.Layout.Children = append(wire.Layout.Children, wireComponent{
			Type:  ControlFooter,
			Label: screen.Terminal.Label,
			OnClickAction: &wireAction{
				Name:    screen.Terminal.Name,
				Payload: screen.Terminal.Payload,
			},
		})
		doc.Screens = append(doc.Screens, wire)
	}
	return json.Marshal(doc)
}

// Serialize returns the asset body uploaded to the provider.
func (d FlowDocument) Serialize() ([]byte, error) {
	data, err := d.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("core: serialize flow document: %w", err)
	}
	return data, nil
}
