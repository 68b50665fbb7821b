package rulefile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/decisiongraph"
)

// ParseGraphJSON decodes a stored decision graph.
func ParseGraphJSON(data []byte) (decisiongraph.Graph, error) {
	var g decisiongraph.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return decisiongraph.Graph{}, fmt.Errorf("decode graph: %w", err)
	}
	return g, nil
}

// LoadGraphFile reads and decodes the decision graph at path.
func LoadGraphFile(path string) (decisiongraph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return decisiongraph.Graph{}, fmt.Errorf("read graph file: %w", err)
	}
	return ParseGraphJSON(data)
}
