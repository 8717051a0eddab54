package core

import (
	"fmt"
	"strings"
)

type controlSpec struct {
	Control   ControlKind
	InputType string
	Options   []ChoiceOption
	DataType  string
	Example   string
}

var questionControls = map[QuestionType]controlSpec{
	QuestionTypeBoolean: {
		Control: ControlRadioButtons,
		Options: []ChoiceOption{
			{ID: "yes", Title: "Yes"},
			{ID: "no", Title: "No"},
		},
		DataType: "string",
		Example:  "yes",
	},
	QuestionTypeNumeric: {
		Control:   ControlTextInput,
		InputType: "number",
		DataType:  "number",
		Example:   "0",
	},
	QuestionTypeText: {
		Control:  ControlTextInput,
		DataType: "string",
		Example:  "0",
	},
}

func controlFor(questionType QuestionType) controlSpec {
	if spec, ok := questionControls[questionType]; ok {
		return spec
	}
	return questionControls[QuestionTypeText]
}

func ScreenID(sectionIndex int) string {
	return fmt.Sprintf("section_%d", sectionIndex)
}

func FieldID(sectionIndex int, fieldIndex int) string {
	return fmt.Sprintf("q_%d_%d", sectionIndex, fieldIndex)
}

// CompileFlow turns ordered sections and their questions into a flow
// document: one screen per section, one required field per question.
// Questions pointing at sections outside the input are skipped.
func CompileFlow(sections []Section, questions []Question) (FlowDocument, error) {
	if len(sections) == 0 {
		return FlowDocument{}, ValidationError("sections", "no sections found for this restaurant")
	}
	if len(questions) == 0 {
		return FlowDocument{}, ValidationError("questions", "no questions found for this restaurant")
	}

	bySection := make(map[string][]Question, len(sections))
	for _, question := range questions {
		key := strings.TrimSpace(question.SectionID)
		bySection[key] = append(bySection[key], question)
	}

	doc := FlowDocument{
		Version:        FlowSchemaVersion,
		DataAPIVersion: FlowDataAPIVersion,
		Screens:        make([]FlowScreen, 0, len(sections)),
	}
	last := len(sections) - 1
	for sectionIdx, section := range sections {
		sectionQuestions := bySection[strings.TrimSpace(section.ID)]
		screen := FlowScreen{
			ID:     ScreenID(sectionIdx),
			Title:  section.Name,
			Fields: make([]FieldSpec, 0, len(sectionQuestions)),
		}
		for fieldIdx, question := range sectionQuestions {
			spec := controlFor(question.Type)
			screen.Fields = append(screen.Fields, FieldSpec{
				ID:        FieldID(sectionIdx, fieldIdx),
				Label:     question.Text,
				Control:   spec.Control,
				InputType: spec.InputType,
				Options:   append([]ChoiceOption(nil), spec.Options...),
				Required:  true,
				DataType:  spec.DataType,
				Example:   spec.Example,
			})
		}
		label := TerminalLabelNext
		if sectionIdx == last {
			label = TerminalLabelSubmit
		}
		screen.Terminal = TerminalAction{
			Label:   label,
			Name:    FlowCompleteAction,
			Payload: ActionPayload{Section: section.ID},
		}
		doc.Screens = append(doc.Screens, screen)
	}
	return doc, nil
}
