package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID. It must be
// called once at startup before any IDs are generated.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// NewString generates a time-ordered unique ID rendered in base 10,
// suitable for request IDs carried in headers and log fields.
func NewString() string {
	return node.Generate().String()
}
