package decisiongraph

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/condition"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/expand"
)

// NodeType is the stored discriminator of a node payload.
type NodeType string

const (
	NodeStart     NodeType = "start"
	NodeGroup     NodeType = "group"
	NodeCondition NodeType = "condition"
	NodeTask      NodeType = "task"
	NodeNothing   NodeType = "nothing"
)

// Handle labels the condition outcome an edge leaves from.
type Handle string

const (
	HandleYes  Handle = "oui"
	HandleNo   Handle = "non"
	HandleNone Handle = ""
)

// Graph is a stored decision graph.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Empty reports whether the graph has no nodes.
func (g Graph) Empty() bool {
	return len(g.Nodes) == 0
}

// Edge connects two nodes. SourceHandle is only meaningful when leaving a
// condition node.
type Edge struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle Handle `json:"sourceHandle,omitempty"`
}

// Node is one graph vertex.
type Node struct {
	ID   string
	Data Data
}

// Type returns the node discriminator.
func (n Node) Type() NodeType {
	if n.Data == nil {
		return ""
	}
	return n.Data.Kind()
}

// Data is the kind-specific payload of a node.
type Data interface {
	Kind() NodeType
	Accept(v Visitor, node Node)
}

// Visitor handles each node kind.
type Visitor interface {
	VisitStart(node Node, data StartData)
	VisitGroup(node Node, data GroupData)
	VisitCondition(node Node, data ConditionData)
	VisitTask(node Node, data TaskData)
	VisitNothing(node Node, data NothingData)
	VisitUnknown(node Node, data UnknownData)
}

// StartData marks a traversal entry point.
type StartData struct {
	Label string `json:"label,omitempty"`
}

// GroupData is a pass-through organizational node.
type GroupData struct {
	Label string `json:"label,omitempty"`
}

// ConditionData branches on a snapshot predicate.
type ConditionData struct {
	Label string `json:"label,omitempty"`
	condition.Condition
}

// TaskData emits the obligations of its template.
type TaskData struct {
	Label string `json:"label,omitempty"`
	expand.Template
}

// NothingData ends a path.
type NothingData struct {
	Label string `json:"label,omitempty"`
}

// UnknownData carries a node kind this version does not know. Traversal
// passes through it.
type UnknownData struct {
	Type NodeType
	Raw  json.RawMessage
}

func (StartData) Kind() NodeType     { return NodeStart }
func (GroupData) Kind() NodeType     { return NodeGroup }
func (ConditionData) Kind() NodeType { return NodeCondition }
func (TaskData) Kind() NodeType      { return NodeTask }
func (NothingData) Kind() NodeType   { return NodeNothing }
func (d UnknownData) Kind() NodeType { return d.Type }

func (d StartData) Accept(v Visitor, n Node)     { v.VisitStart(n, d) }
func (d GroupData) Accept(v Visitor, n Node)     { v.VisitGroup(n, d) }
func (d ConditionData) Accept(v Visitor, n Node) { v.VisitCondition(n, d) }
func (d TaskData) Accept(v Visitor, n Node)      { v.VisitTask(n, d) }
func (d NothingData) Accept(v Visitor, n Node)   { v.VisitNothing(n, d) }
func (d UnknownData) Accept(v Visitor, n Node)   { v.VisitUnknown(n, d) }

type nodeJSON struct {
	ID   string          `json:"id"`
	Type NodeType        `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON encodes the node as {id, type, data}.
func (n Node) MarshalJSON() ([]byte, error) {
	var raw json.RawMessage
	switch d := n.Data.(type) {
	case nil:
	case UnknownData:
		raw = d.Raw
	default:
		encoded, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("encode node %s data: %w", n.ID, err)
		}
		raw = encoded
	}
	return json.Marshal(nodeJSON{ID: n.ID, Type: n.Type(), Data: raw})
}

// UnmarshalJSON decodes {id, type, data} into the matching Data variant.
func (n *Node) UnmarshalJSON(b []byte) error {
	var wire nodeJSON
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	data, err := decodeData(wire.Type, wire.Data)
	if err != nil {
		return fmt.Errorf("decode node %s: %w", wire.ID, err)
	}
	n.ID = wire.ID
	n.Data = data
	return nil
}

func decodeData(kind NodeType, raw json.RawMessage) (Data, error) {
	switch kind {
	case NodeStart:
		return decodeInto[StartData](raw)
	case NodeGroup:
		return decodeInto[GroupData](raw)
	case NodeCondition:
		return decodeInto[ConditionData](raw)
	case NodeTask:
		return decodeInto[TaskData](raw)
	case NodeNothing:
		return decodeInto[NothingData](raw)
	default:
		return UnknownData{Type: kind, Raw: raw}, nil
	}
}

func decodeInto[T Data](raw json.RawMessage) (Data, error) {
	var data T
	if len(raw) == 0 || string(raw) == "null" {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}
