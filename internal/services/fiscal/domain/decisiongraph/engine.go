package decisiongraph

import (
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/condition"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/dateformula"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/expand"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/obligation"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/snapshot"
)

// Engine walks one graph. It holds no per-run state and may be shared.
type Engine struct {
	nodes     map[string]Node
	outgoing  map[string][]Edge
	startIDs  []string
	nodeCount int
}

// New indexes g for traversal. When ids repeat, the first node wins.
func New(g Graph) *Engine {
	e := &Engine{
		nodes:     make(map[string]Node, len(g.Nodes)),
		outgoing:  make(map[string][]Edge, len(g.Edges)),
		nodeCount: len(g.Nodes),
	}
	for _, node := range g.Nodes {
		if _, exists := e.nodes[node.ID]; exists {
			continue
		}
		e.nodes[node.ID] = node
		if node.Type() == NodeStart {
			e.startIDs = append(e.startIDs, node.ID)
		}
	}
	for _, edge := range g.Edges {
		e.outgoing[edge.Source] = append(e.outgoing[edge.Source], edge)
	}
	return e
}

// Name identifies the strategy.
func (e *Engine) Name() string { return "graph" }

// Empty reports whether the graph has no nodes.
func (e *Engine) Empty() bool { return e.nodeCount == 0 }

// Generate walks the graph for the snapshot and fiscal year. Obligations come
// out in breadth-first discovery order.
func (e *Engine) Generate(s snapshot.Snapshot, fiscalYear int) []obligation.Obligation {
	t := &traversal{
		engine:   e,
		snapshot: s,
		basis: dateformula.Basis{
			FiscalYear: fiscalYear,
			Closing:    dateformula.ParseClosing(s.DateClotureComptable),
			VATDueDay:  s.VATDueDay(),
		},
		visited: make(map[string]bool, len(e.nodes)),
	}
	t.queue = append(t.queue, e.startIDs...)

	for len(t.queue) > 0 {
		id := t.queue[0]
		t.queue = t.queue[1:]
		if t.visited[id] {
			continue
		}
		t.visited[id] = true
		node, ok := e.nodes[id]
		if !ok || node.Data == nil {
			continue
		}
		node.Data.Accept(t, node)
	}
	return t.out
}

type traversal struct {
	engine   *Engine
	snapshot snapshot.Snapshot
	basis    dateformula.Basis
	queue    []string
	visited  map[string]bool
	out      []obligation.Obligation
}

func (t *traversal) VisitStart(node Node, _ StartData) { t.follow(node.ID) }

func (t *traversal) VisitGroup(node Node, _ GroupData) { t.follow(node.ID) }

func (t *traversal) VisitCondition(node Node, data ConditionData) {
	want := HandleNo
	if condition.Evaluate(t.snapshot, data.Condition) {
		want = HandleYes
	}
	for _, edge := range t.engine.outgoing[node.ID] {
		if edge.SourceHandle == want {
			t.queue = append(t.queue, edge.Target)
		}
	}
}

func (t *traversal) VisitTask(node Node, data TaskData) {
	t.out = append(t.out, expand.Expand(data.Template, t.basis)...)
	t.follow(node.ID)
}

func (t *traversal) VisitNothing(Node, NothingData) {}

func (t *traversal) VisitUnknown(node Node, _ UnknownData) { t.follow(node.ID) }

func (t *traversal) follow(id string) {
	for _, edge := range t.engine.outgoing[id] {
		t.queue = append(t.queue, edge.Target)
	}
}
