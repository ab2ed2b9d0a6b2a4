package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/knowledgemap-backend/internal/platform/llm"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
	"github.com/yungbote/knowledgemap-backend/internal/platform/neo4jdb"
	"github.com/yungbote/knowledgemap-backend/internal/realtime/bus"
)

type Clients struct {
	LLM   llm.Client
	Bus   bus.Bus
	Neo4j *neo4jdb.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	llmClient, err := llm.NewClient(log, cfg.LLM)
	if err != nil {
		return Clients{}, fmt.Errorf("init llm client: %w", err)
	}

	// Redis fans task events out across instances; a single process uses the
	// in-memory bus.
	var eventBus bus.Bus
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		b, err := bus.NewRedisBus(log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis event bus: %w", err)
		}
		eventBus = b
	} else {
		eventBus = bus.NewLocalBus()
	}

	graphDB, err := neo4jdb.New(log, cfg.Neo4j)
	if err != nil {
		_ = eventBus.Close()
		return Clients{}, fmt.Errorf("init neo4j: %w", err)
	}
	if graphDB == nil {
		log.Info("Neo4j not configured; knowledge graph mirror disabled")
	}

	return Clients{LLM: llmClient, Bus: eventBus, Neo4j: graphDB}, nil
}
