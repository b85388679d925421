package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/docchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/docchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docchat/internal/adapters/driving/cli"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/services"
	"github.com/custodia-labs/docchat/internal/extractors"
	"github.com/custodia-labs/docchat/internal/logger"
	"github.com/custodia-labs/docchat/internal/postprocessors"
)

// stores groups the persistence ports of one backend.
type stores struct {
	vectors driven.VectorStore
	states  driven.ProcessingStateStore
	history driven.HistoryStore
	close   func() error
}

// bootstrap wires the core services from the configuration in configDir.
func bootstrap(ctx context.Context, configDir string) (*cli.Services, error) {
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	st, err := openStores(settings, configDir)
	if err != nil {
		return nil, err
	}

	logger.Section("AI services")
	aiServices := ai.Init(ctx, settings)
	for _, w := range aiServices.Warnings {
		logger.Warn("%s", w)
	}

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		aiServices.Close()
		return nil, errors.Join(fmt.Errorf("open prompts: %w", err), st.close())
	}

	kb := services.NewKnowledgeBase(st.vectors, aiServices.EmbeddingService)
	indexer := services.NewIndexer(extractors.NewDefaultRegistry(), postprocessors.NewDefaultPipeline(), kb)
	sessions := services.NewSessions(st.states, kb, indexer, settings.Ingestion.FileTimeout)

	conversation := services.NewConversationManager(settings.Conversation.MaxHistory, settings.Retrieval.HistoryWindow)
	query := services.NewQueryOrchestrator(kb, aiServices.LLMService, conversation,
		services.WithTopK(settings.Retrieval.TopK),
		services.WithPromptStore(prompts),
	)

	return &cli.Services{
		Settings:     settingsService,
		Chat:         services.NewChatService(st.history, query, conversation),
		Knowledge:    services.NewKnowledgeService(kb, sessions),
		Sessions:     sessions,
		Runner:       services.NewRunner(settings.Ingestion.TickInterval),
		TickInterval: settings.Ingestion.TickInterval,
		Close: func() error {
			aiServices.Close()
			return st.close()
		},
	}, nil
}

func openStores(settings *domain.AppSettings, configDir string) (*stores, error) {
	if settings.Storage.Backend == domain.StorageMemory {
		logger.Debug("using in-memory storage")
		vectors := memory.NewVectorStore()
		return &stores{
			vectors: vectors,
			states:  memory.NewProcessingStateStore(),
			history: memory.NewHistoryStore(),
			close:   vectors.Close,
		}, nil
	}

	dataDir := settings.Storage.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(configDir, "data")
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	logger.Debug("using sqlite storage at %s", store.Path())

	return &stores{
		vectors: store.VectorStore(),
		states:  store.ProcessingStateStore(),
		history: store.HistoryStore(),
		close:   store.Close,
	}, nil
}
