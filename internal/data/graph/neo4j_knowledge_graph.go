package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
	"github.com/yungbote/knowledgemap-backend/internal/platform/neo4jdb"
)

// Mirror copies course knowledge graphs into Neo4j so they can be queried
// across courses. The relational store stays the source of truth; a nil
// client turns every call into a no-op.
type Mirror struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewMirror(client *neo4jdb.Client, baseLog *logger.Logger) *Mirror {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Mirror{client: client, log: baseLog.With("component", "KnowledgeGraphMirror")}
}

func (m *Mirror) Enabled() bool {
	return m != nil && m.client != nil && m.client.Driver != nil
}

// graphRecords flattens g into Cypher parameters. Node keys are scoped by
// course so ids produced by the model never collide across courses. Edges
// whose endpoints are unknown are dropped.
func graphRecords(courseID string, g *course.KnowledgeGraph, now string) ([]map[string]any, []map[string]any) {
	if g == nil {
		return nil, nil
	}
	known := make(map[string]bool, len(g.Nodes))
	nodes := make([]map[string]any, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		id := strings.TrimSpace(n.ID)
		if id == "" || known[id] {
			continue
		}
		known[id] = true
		nodes = append(nodes, map[string]any{
			"key":         nodeKey(courseID, id),
			"id":          id,
			"course_id":   courseID,
			"label":       n.Label,
			"type":        n.Type,
			"description": n.Description,
			"chapter_id":  n.ChapterID,
			"synced_at":   now,
		})
	}
	rels := make([]map[string]any, 0, len(g.Edges))
	for _, e := range g.Edges {
		if !known[e.Source] || !known[e.Target] {
			continue
		}
		rels = append(rels, map[string]any{
			"from_key":  nodeKey(courseID, e.Source),
			"to_key":    nodeKey(courseID, e.Target),
			"relation":  e.Relation,
			"label":     e.Label,
			"course_id": courseID,
			"synced_at": now,
		})
	}
	return nodes, rels
}

func nodeKey(courseID, id string) string { return courseID + ":" + id }

// UpsertCourseGraph replaces the mirrored graph of one course.
func (m *Mirror) UpsertCourseGraph(ctx context.Context, courseID, courseName string, g *course.KnowledgeGraph) error {
	if !m.Enabled() {
		return nil
	}
	if strings.TrimSpace(courseID) == "" {
		return fmt.Errorf("neo4j knowledge graph sync: missing courseID")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	nodes, rels := graphRecords(courseID, g, time.Now().UTC().Format(time.RFC3339Nano))

	session := m.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: m.client.Database,
	})
	defer session.Close(ctx)

	// schema helpers are best-effort; restricted users may not create them
	if res, err := session.Run(ctx, `CREATE CONSTRAINT kg_node_key_unique IF NOT EXISTS FOR (n:KGNode) REQUIRE n.key IS UNIQUE`, nil); err != nil {
		m.log.Warn("neo4j schema init failed (continuing)", "error", err)
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (c:Course {id: $course_id})
SET c.name = $course_name
WITH c
OPTIONAL MATCH (c)-[:HAS_NODE]->(old:KGNode)
DETACH DELETE old
`, map[string]any{"course_id": courseID, "course_name": courseName})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		if len(nodes) > 0 {
			res, err := tx.Run(ctx, `
MATCH (c:Course {id: $course_id})
UNWIND $nodes AS n
MERGE (k:KGNode {key: n.key})
SET k += n
MERGE (c)-[:HAS_NODE]->(k)
`, map[string]any{"course_id": courseID, "nodes": nodes})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		if len(rels) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $rels AS r
MATCH (a:KGNode {key: r.from_key})
MATCH (b:KGNode {key: r.to_key})
MERGE (a)-[e:KG_EDGE {relation: r.relation}]->(b)
SET e.label = r.label, e.course_id = r.course_id, e.synced_at = r.synced_at
`, map[string]any{"rels": rels})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4j knowledge graph sync: %w", err)
	}
	m.log.Debug("Mirrored knowledge graph", "course_id", courseID, "nodes", len(nodes), "edges", len(rels))
	return nil
}

// DeleteCourse removes the course and its mirrored graph.
func (m *Mirror) DeleteCourse(ctx context.Context, courseID string) error {
	if !m.Enabled() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	session := m.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: m.client.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (c:Course {id: $course_id})
OPTIONAL MATCH (c)-[:HAS_NODE]->(k:KGNode)
DETACH DELETE k, c
`, map[string]any{"course_id": courseID})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("neo4j delete course graph: %w", err)
	}
	return nil
}
