package answer

import "encoding/json"

// Event types emitted on a query stream. Every stream ends with exactly one
// done event, regardless of any prior error.
const (
	EventToken = "token"
	EventMeta  = "meta"
	EventError = "error"
	EventDone  = "done"
)

// Source describes one retrieved chunk in the meta event.
type Source struct {
	SourceFile   string  `json:"source_file"`
	SectionTitle string  `json:"section_title"`
	Score        float64 `json:"score"`
	TextSnippet  string  `json:"text_snippet"`
}

// Entities groups the domain tokens extracted from a finished answer.
type Entities struct {
	CASNumbers              []string `json:"cas_numbers"`
	HazardStatements        []string `json:"hazard_statements"`
	PrecautionaryStatements []string `json:"precautionary_statements"`
	ChemicalFormulas        []string `json:"chemical_formulas"`
}

// Event is one element of a query stream. Which fields are meaningful depends
// on Type; MarshalJSON emits only the fields the wire format defines for each
// variant.
type Event struct {
	Type       string
	Content    string
	Message    string
	Sources    []Source
	Confidence float64
	Entities   *Entities
}

func TokenEvent(content string) Event {
	return Event{Type: EventToken, Content: content}
}

func MetaEvent(sources []Source, confidence float64, entities *Entities) Event {
	return Event{Type: EventMeta, Sources: sources, Confidence: confidence, Entities: entities}
}

func ErrorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}

func DoneEvent() Event {
	return Event{Type: EventDone}
}

// MarshalJSON emits the wire format. A meta event always carries a sources
// array and an entities object, even when empty.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventToken:
		return json.Marshal(struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}{e.Type, e.Content})
	case EventMeta:
		sources := e.Sources
		if sources == nil {
			sources = []Source{}
		}
		var entities json.RawMessage
		if e.Entities == nil {
			entities = json.RawMessage(`{}`)
		} else {
			b, err := json.Marshal(e.Entities)
			if err != nil {
				return nil, err
			}
			entities = b
		}
		return json.Marshal(struct {
			Type       string          `json:"type"`
			Sources    []Source        `json:"sources"`
			Confidence float64         `json:"confidence"`
			Entities   json.RawMessage `json:"entities"`
		}{e.Type, sources, e.Confidence, entities})
	case EventError:
		return json.Marshal(struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}{e.Type, e.Message})
	default:
		return json.Marshal(struct {
			Type string `json:"type"`
		}{e.Type})
	}
}
