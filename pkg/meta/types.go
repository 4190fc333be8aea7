// Package meta extracts component metadata (props, events, slots) from Vue
// single-file components and serves it through a process-wide cache.
package meta

import "strings"

// PropMeta describes one component prop.
type PropMeta struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// EventMeta describes one emitted event. Type is the payload tuple.
type EventMeta struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// SlotMeta describes one slot. Type is the slot props type.
type SlotMeta struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// ModelMeta is a prop paired with its update: event.
type ModelMeta struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// ComponentMeta is the metadata of one component export.
type ComponentMeta struct {
	Props  []PropMeta  `json:"props"`
	Events []EventMeta `json:"events"`
	Slots  []SlotMeta  `json:"slots"`
}

// Empty reports whether the component declares nothing.
func (m *ComponentMeta) Empty() bool {
	return m == nil || len(m.Props)+len(m.Events)+len(m.Slots) == 0
}

// Source looks up component metadata by file path and export name.
type Source interface {
	GetMeta(path, exportName string) (*ComponentMeta, error)
}

// UpdatePrefix marks the event half of a model.
const UpdatePrefix = "update:"

// internalProps never show up as plain props.
var internalProps = map[string]bool{
	"key":     true,
	"ref":     true,
	"ref_for": true,
	"ref_key": true,
	"class":   true,
	"style":   true,
}

// ParseModels partitions metadata into plain props, plain events and
// models. A prop P is a model iff an event update:P exists; the prop and
// that event leave their plain lists. Internal props are always dropped.
func ParseModels(m *ComponentMeta) (props []PropMeta, events []EventMeta, models []ModelMeta) {
	if m == nil {
		return nil, nil, nil
	}

	eventNames := make(map[string]bool, len(m.Events))
	for _, e := range m.Events {
		eventNames[e.Name] = true
	}

	modelNames := make(map[string]bool)
	for _, p := range m.Props {
		if eventNames[UpdatePrefix+p.Name] {
			modelNames[p.Name] = true
			models = append(models, ModelMeta{
				Name:        p.Name,
				Type:        p.Type,
				Default:     p.Default,
				Description: p.Description,
			})
			continue
		}
		if internalProps[p.Name] {
			continue
		}
		props = append(props, p)
	}

	for _, e := range m.Events {
		if name, ok := strings.CutPrefix(e.Name, UpdatePrefix); ok && modelNames[name] {
			continue
		}
		events = append(events, e)
	}
	return props, events, models
}
