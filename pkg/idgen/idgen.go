package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator issues time-ordered unique ids.
type Generator struct {
	node *snowflake.Node
}

func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to init snowflake node: %w", err)
	}
	return &Generator{node: node}, nil
}

// Next returns prefix + "_" + a fresh snowflake id, e.g. payout_1795412334123454464.
func (g *Generator) Next(prefix string) string {
	return prefix + "_" + g.node.Generate().String()
}
