package main

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/supportdesk/agents"
	appcontext "github.com/Abraxas-365/supportdesk/context"
	"github.com/Abraxas-365/supportdesk/conversation"
	"github.com/Abraxas-365/supportdesk/conversation/conversationinfra"
	"github.com/Abraxas-365/supportdesk/conversation/conversationsrv"
	"github.com/Abraxas-365/supportdesk/manifest"
	"github.com/Abraxas-365/supportdesk/orchestator"
	"github.com/Abraxas-365/supportdesk/pkg/ai/llm"
	aianthropic "github.com/Abraxas-365/supportdesk/pkg/ai/providers/anthropic"
	aigoogle "github.com/Abraxas-365/supportdesk/pkg/ai/providers/google"
	aiopenai "github.com/Abraxas-365/supportdesk/pkg/ai/providers/openai"
	"github.com/Abraxas-365/supportdesk/pkg/config"
	"github.com/Abraxas-365/supportdesk/pkg/logx"
	"github.com/Abraxas-365/supportdesk/router"
	"github.com/Abraxas-365/supportdesk/store"
	"github.com/Abraxas-365/supportdesk/tools"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/jmoiron/sqlx"
	openaioption "github.com/openai/openai-go/v3/option"
	"github.com/redis/go-redis/v9"
)

// application holds every long-lived dependency of the process
type application struct {
	cfg         *config.Config
	db          *sqlx.DB
	redis       *redis.Client
	manifestReg *manifest.Registry
	orch        *orchestator.Orchestrator
}

// Close releases database and cache connections
func (a *application) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logx.WithError(err).Warn("Failed to close Redis client")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logx.WithError(err).Warn("Failed to close database")
		}
	}
}

// buildApplication wires storage, routing, responders and the orchestrator
// from configuration
func buildApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	a := &application{cfg: cfg}

	// --- A. Database ---
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db = db

	// --- B. Manifest Registry ---
	a.manifestReg, err = initManifest(cfg.Router.ManifestPath)
	if err != nil {
		a.Close()
		return nil, err
	}

	// --- C. Router ---
	rt, err := initRouter(ctx, cfg, a.manifestReg)
	if err != nil {
		a.Close()
		return nil, err
	}

	// --- D. Tools & Responders ---
	sqlTools := tools.NewSQLTools(db)
	responders := orchestator.Responders{
		Order:   agents.NewOrderResponder(sqlTools),
		Billing: agents.NewBillingResponder(sqlTools),
		Support: agents.NewSupportResponder(sqlTools),
	}

	// --- E. Conversations (SQL or memory, optional Redis cache and S3 archive) ---
	var opts []conversationsrv.Option
	if cfg.Redis.Addr != "" {
		client, err := conversationinfra.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logx.WithError(err).Warn("⚠️ Redis not available, conversation state is read from the database")
		} else {
			a.redis = client
			opts = append(opts, conversationsrv.WithStateCache(conversationinfra.NewRedisStateCache(client, cfg.Redis.TTL)))
		}
	}
	if cfg.Archive.Bucket != "" {
		client, err := conversationinfra.NewS3Client(ctx, cfg.Archive)
		if err != nil {
			logx.WithError(err).Warn("⚠️ S3 not available, transcript export disabled")
		} else {
			opts = append(opts, conversationsrv.WithArchiver(
				conversationinfra.NewS3Archiver(client, cfg.Archive.Bucket, cfg.Archive.Prefix),
			))
		}
	}
	conversations := conversationsrv.NewService(newConversationRepository(cfg.Conversations, db), opts...)

	// --- F. Orchestrator ---
	policy, err := orchestator.ParseReasoningPolicy(cfg.Router.ReasoningPolicy)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.orch = orchestator.NewOrchestrator(orchestator.Config{
		Router:          rt,
		Strategy:        cfg.Router.Strategy,
		Responders:      responders,
		ReasoningPolicy: policy,
		ContextBuilder:  appcontext.NewBuilder(conversations, cfg.Router.HistoryLimit),
		Conversations:   conversations,
		ManifestReg:     a.manifestReg,
		DB:              db,
	})

	return a, nil
}

func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate || cfg.Seed {
		if err := store.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if cfg.Seed {
		if err := store.Seed(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		logx.Info("✅ Demo data seeded")
	}

	logx.WithField("driver", cfg.Driver).Info("✅ Database connected successfully")
	return db, nil
}

// newConversationRepository picks the conversation store; an empty backend
// means the database
func newConversationRepository(cfg config.ConversationsConfig, db *sqlx.DB) conversation.Repository {
	if cfg.Backend == "memory" {
		logx.Warn("⚠️ Conversations are kept in memory and are lost on restart")
		return conversationinfra.NewMemoryRepository()
	}
	return conversationinfra.NewSQLRepository(db)
}

// initManifest loads the keyword manifest from path, or the built-in
// keyword sets when no path is configured
func initManifest(path string) (*manifest.Registry, error) {
	reg := manifest.NewRegistry()
	if path == "" {
		if err := reg.Load(manifest.Default()); err != nil {
			return nil, err
		}
		logx.Info("✅ Using built-in keyword manifest")
		return reg, nil
	}

	if err := reg.LoadFromFile(path); err != nil {
		return nil, fmt.Errorf("load manifest %s: %w", path, err)
	}
	logx.WithFields(logx.Fields{"path": path, "stats": reg.Stats()}).Info("✅ Manifest loaded")
	return reg, nil
}

func initRouter(ctx context.Context, cfg *config.Config, reg *manifest.Registry) (router.Router, error) {
	if cfg.Router.Strategy != "llm" {
		return router.NewKeywordRouter(reg.KeywordSetsOrDefault()), nil
	}

	client, err := newLLMClient(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	logx.WithFields(logx.Fields{
		"provider": client.Provider(),
		"model":    cfg.LLM.Model,
	}).Info("✅ LLM router initialized")

	return router.NewLLMRouter(client,
		router.WithModel(cfg.LLM.Model),
		router.WithTimeout(cfg.LLM.Timeout),
		router.WithHistory(cfg.Router.HistoryLimit),
	), nil
}

func newLLMClient(ctx context.Context, cfg config.LLMConfig) (*llm.Client, error) {
	var provider llm.Provider
	switch cfg.Provider {
	case "openai":
		var opts []openaioption.RequestOption
		if cfg.BaseURL != "" {
			opts = append(opts, openaioption.WithBaseURL(cfg.BaseURL))
		}
		provider = aiopenai.NewOpenAIProvider(cfg.APIKey, opts...)
	case "anthropic":
		var opts []anthropicoption.RequestOption
		if cfg.BaseURL != "" {
			opts = append(opts, anthropicoption.WithBaseURL(cfg.BaseURL))
		}
		provider = aianthropic.NewAnthropicProvider(cfg.APIKey, opts...)
	case "google":
		p, err := aigoogle.NewGoogleProvider(ctx, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		provider = p
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}

	var defaults []llm.Option
	if cfg.Model != "" {
		defaults = append(defaults, llm.WithModel(cfg.Model))
	}
	return llm.NewClient(provider, defaults...), nil
}
