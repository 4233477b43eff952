package repository

import (
	"context"
	"fmt"

	"talent-match/internal/database"
	"talent-match/internal/domain/taxonomy"

	"github.com/google/uuid"
)

type TaxonomyRepository interface {
	ListNodes(ctx context.Context) ([]taxonomy.Node, error)
}

type PostgresTaxonomyRepository struct {
	db database.Querier
}

func NewPostgresTaxonomyRepository(db database.Querier) *PostgresTaxonomyRepository {
	return &PostgresTaxonomyRepository{db: db}
}

func (r *PostgresTaxonomyRepository) ListNodes(ctx context.Context) ([]taxonomy.Node, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, parent_id, type
		 FROM taxonomies
		 ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list taxonomies: %w", err)
	}
	defer rows.Close()

	out := make([]taxonomy.Node, 0)
	for rows.Next() {
		var (
			n        taxonomy.Node
			parentID *uuid.UUID
			typ      string
		)
		if err := rows.Scan(&n.ID, &n.Name, &parentID, &typ); err != nil {
			return nil, fmt.Errorf("scan taxonomy: %w", err)
		}
		if parentID != nil && *parentID != uuid.Nil {
			pid := *parentID
			n.ParentID = &pid
		}
		n.Type = taxonomy.NodeType(typ)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate taxonomies: %w", err)
	}
	return out, nil
}

var _ TaxonomyRepository = (*PostgresTaxonomyRepository)(nil)
