package taxonomy

import "github.com/google/uuid"

type NodeType string

const (
	NodeTypeSkill    NodeType = "skill"
	NodeTypeCategory NodeType = "category"
)

type Node struct {
	ID       uuid.UUID
	Name     string
	ParentID *uuid.UUID
	Type     NodeType
}

func (n Node) HasParent() bool {
	return n.ParentID != nil && *n.ParentID != uuid.Nil
}
