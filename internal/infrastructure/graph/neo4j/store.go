package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/mzolotarev/notegraph/internal/core/domain"
)

// Store keeps the note/entity co-occurrence graph in neo4j.
//
// Notes MENTION entities; entities RELATE to each other. Related notes are
// the ones sharing at least one mentioned entity.
type Store struct {
	driver neo4j.DriverWithContext
}

func New(ctx context.Context, uri, user, password string) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Store{driver: driver}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) AddEntities(ctx context.Context, noteID string, entities []domain.Entity) error {
	if len(entities) == 0 {
		return nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, entity := range entities {
			_, err := tx.Run(ctx, `
MERGE (e:Entity {id: $id})
SET e.name = $name, e.type = $type, e.description = $description
MERGE (n:Note {id: $note_id})
MERGE (n)-[:MENTIONS]->(e)
`, map[string]any{
				"id":          entity.ID,
				"name":        entity.Name,
				"type":        entity.Type,
				"description": entity.Description,
				"note_id":     noteID,
			})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("add entities: %w", err)
	}
	return nil
}

func (s *Store) AddRelations(ctx context.Context, relations []domain.Relation) error {
	if len(relations) == 0 {
		return nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, rel := range relations {
			_, err := tx.Run(ctx, `
MATCH (s:Entity {name: $source})
MATCH (t:Entity {name: $target})
MERGE (s)-[r:RELATES {type: $type}]->(t)
`, map[string]any{
				"source": rel.Source,
				"target": rel.Target,
				"type":   rel.Type,
			})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("add relations: %w", err)
	}
	return nil
}

func (s *Store) RelatedNotes(ctx context.Context, noteIDs []string) ([]string, error) {
	if len(noteIDs) == 0 {
		return []string{}, nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, `
MATCH (n:Note)-[:MENTIONS]->(:Entity)<-[:MENTIONS]-(m:Note)
WHERE n.id IN $ids AND NOT m.id IN $ids
RETURN DISTINCT m.id AS id
LIMIT 20
`, map[string]any{"ids": noteIDs})
		if err != nil {
			return nil, err
		}

		var ids []string
		for records.Next(ctx) {
			if id, ok := records.Record().Get("id"); ok {
				if s, ok := id.(string); ok {
					ids = append(ids, s)
				}
			}
		}
		return ids, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("related notes: %w", err)
	}

	ids, _ := result.([]string)
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *Store) DeleteNote(ctx context.Context, noteID string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Drop entities nothing else mentions, then the note itself.
		if _, err := tx.Run(ctx, `
MATCH (n:Note {id: $id})-[:MENTIONS]->(e:Entity)
WHERE NOT EXISTS {
	MATCH (other:Note)-[:MENTIONS]->(e)
	WHERE other.id <> $id
}
DETACH DELETE e
`, map[string]any{"id": noteID}); err != nil {
			return nil, err
		}
		_, err := tx.Run(ctx, `MATCH (n:Note {id: $id}) DETACH DELETE n`, map[string]any{"id": noteID})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("delete note from graph: %w", err)
	}
	return nil
}
