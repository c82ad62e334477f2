package infra

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ReferenceGenerator issues purchase order reference numbers of the form
// PO-<yyyymmddHHMMSS>-<snowflake id in base36>. The snowflake part keeps them
// unique across processes as long as every process has its own node number.
type ReferenceGenerator struct {
	node *snowflake.Node
	now  func() time.Time
}

func NewReferenceGenerator(node int64) (*ReferenceGenerator, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}
	return &ReferenceGenerator{node: n, now: time.Now}, nil
}

func (g *ReferenceGenerator) NewReference() string {
	id := g.node.Generate()
	return "PO-" + g.now().UTC().Format("20060102150405") + "-" + strings.ToUpper(id.Base36())
}
