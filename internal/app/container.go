package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/doeshing/sqlchat/internal/application/auth"
	"github.com/doeshing/sqlchat/internal/application/chat"
	configapp "github.com/doeshing/sqlchat/internal/application/config"
	"github.com/doeshing/sqlchat/internal/application/doctor"
	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/infrastructure/agent"
	"github.com/doeshing/sqlchat/internal/infrastructure/catalog"
	"github.com/doeshing/sqlchat/internal/infrastructure/config"
	"github.com/doeshing/sqlchat/internal/infrastructure/history"
	"github.com/doeshing/sqlchat/internal/infrastructure/identity"
	"github.com/doeshing/sqlchat/internal/infrastructure/observability"
	"github.com/doeshing/sqlchat/internal/infrastructure/security"
	"github.com/doeshing/sqlchat/internal/infrastructure/web"
	"github.com/doeshing/sqlchat/internal/pkg/logger"
	"github.com/doeshing/sqlchat/internal/ports"
	"github.com/doeshing/sqlchat/internal/version"
)

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config         domain.Config
	ConfigErr      error
	ConfigProvider ports.ConfigProvider
	ConfigLoader   *config.FileLoader
	Logger         *logger.ZapLogger
	Metrics        *observability.Metrics
	Guardrail      *security.Guardrail
	Catalog        ports.Catalog
	ModelFactory   *agent.Factory
	HistoryStore   ports.HistoryRepository
	ChatService    *chat.Service
	AuthService    *auth.Service
	DoctorService  *doctor.Service
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.NewStd(verbose)
	metrics := observability.NewMetrics()

	configErr := configapp.Validate(cfg)
	if configErr != nil {
		log.Warn("configuration invalid", map[string]interface{}{"path": cfgLoader.Path(), "error": configErr.Error()})
	}

	guardrail, err := security.NewGuardrail(cfg.Security.RulesFile)
	if err != nil {
		log.Warn("guardrail rules unreadable, using defaults", map[string]interface{}{"path": cfg.Security.RulesFile, "error": err.Error()})
		guardrail, err = security.NewGuardrail("")
		if err != nil {
			return nil, err
		}
	}
	var guard ports.SQLGuard
	if cfg.Security.Enabled {
		guard = guardrail
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	inner, err := buildCatalog(cfg, awsCfg, guard, log)
	if err != nil {
		return nil, err
	}
	cat := catalog.NewFilteredCatalog(inner, cfg.Catalog.DesiredTables)

	historyStore, err := buildHistory(cfg, awsCfg)
	if err != nil {
		return nil, err
	}

	factory := agent.NewFactory(awsCfg)
	sqlAgent := buildAgent(cfg, factory, cat, log)

	chatService := &chat.Service{
		ConfigProvider: cfgLoader,
		Agent:          sqlAgent,
		Sink:           historyStore,
		Metrics:        metrics,
		Logger:         log,
	}

	authService := &auth.Service{
		Authenticator: buildAuthenticator(cfg, awsCfg),
		Metrics:       metrics,
		Logger:        log,
	}

	doctorService := &doctor.Service{
		ConfigProvider: cfgLoader,
		Guard:          guard,
		Catalog:        cat,
		History:        historyStore,
		Credentials:    factory,
	}

	return &Container{
		Config:         cfg,
		ConfigErr:      configErr,
		ConfigProvider: cfgLoader,
		ConfigLoader:   cfgLoader,
		Logger:         log,
		Metrics:        metrics,
		Guardrail:      guardrail,
		Catalog:        cat,
		ModelFactory:   factory,
		HistoryStore:   historyStore,
		ChatService:    chatService,
		AuthService:    authService,
		DoctorService:  doctorService,
	}, nil
}

// Ready reports whether the configuration is complete enough to serve users.
func (c *Container) Ready() error {
	if c.ConfigErr != nil {
		return fmt.Errorf("invalid configuration %s: %w", c.ConfigLoader.Path(), c.ConfigErr)
	}
	return nil
}

// WebServer assembles the HTTP front end over the container's services.
func (c *Container) WebServer() *web.Server {
	return &web.Server{
		Chat:     c.ChatService,
		Auth:     c.AuthService,
		Sessions: web.NewSessionStore(c.Config.Server.SessionCookie, c.Config.Server.SecureCookie, c.Config.ConversationLimit()),
		Metrics:  c.Metrics.Handler(),
		Logger:   c.Logger,
		Version:  version.Version,
	}
}

func buildCatalog(cfg domain.Config, awsCfg aws.Config, guard ports.SQLGuard, log ports.Logger) (ports.Catalog, error) {
	switch cfg.Catalog.Driver {
	case domain.CatalogDriverSQLite:
		return catalog.NewSQLiteCatalog(cfg.Catalog.SQLitePath, guard, cfg.Catalog.SampleRows)
	case domain.CatalogDriverAthena:
		client := athena.NewFromConfig(awsCfg, func(o *athena.Options) {
			if cfg.Catalog.Region != "" {
				o.Region = cfg.Catalog.Region
			}
		})
		return catalog.NewAthenaCatalog(client, guard, log, catalog.AthenaOptions{
			Database:       cfg.Catalog.Database,
			Workgroup:      cfg.Catalog.Workgroup,
			OutputLocation: cfg.Catalog.OutputLocation,
			SampleRows:     cfg.Catalog.SampleRows,
			PollInterval:   cfg.CatalogPollInterval(),
		}), nil
	default:
		return nil, fmt.Errorf("unsupported catalog driver: %s", cfg.Catalog.Driver)
	}
}

func buildHistory(cfg domain.Config, awsCfg aws.Config) (ports.HistoryRepository, error) {
	switch cfg.Sink.Driver {
	case domain.SinkDriverDynamoDB:
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.Sink.Region != "" {
				o.Region = cfg.Sink.Region
			}
		})
		return history.NewDynamoStore(client, cfg.Sink.Table), nil
	case domain.SinkDriverSQLite:
		return history.NewSQLiteStore(cfg.Sink.Path), nil
	case domain.SinkDriverFile:
		return history.NewFileStore(cfg.Sink.Path), nil
	default:
		return nil, fmt.Errorf("unsupported sink driver: %s", cfg.Sink.Driver)
	}
}

func buildAuthenticator(cfg domain.Config, awsCfg aws.Config) ports.Authenticator {
	if !cfg.RequiresAuthentication() {
		return identity.AllowAll{}
	}
	client := cip.NewFromConfig(awsCfg, func(o *cip.Options) {
		if cfg.Auth.Region != "" {
			o.Region = cfg.Auth.Region
		}
	})
	return identity.NewCognito(client, cfg.Auth.ClientID)
}

// buildAgent never fails: a model that cannot be constructed surfaces on the
// first question instead of blocking commands that never ask one.
func buildAgent(cfg domain.Config, factory *agent.Factory, cat ports.Catalog, log ports.Logger) ports.Agent {
	model, err := cfg.ActiveModel()
	if err != nil {
		return unavailableAgent{err: err}
	}
	llm, err := factory.ForModel(model)
	if err != nil {
		log.Warn("model unavailable", map[string]interface{}{"model": model.Name, "error": err.Error()})
		return unavailableAgent{err: fmt.Errorf("build model %s: %w", model.Name, err)}
	}
	return agent.New(llm, cat, model, log, agent.Options{
		SystemPrompt:  cfg.Agent.SystemPrompt,
		MaxIterations: cfg.Agent.MaxIterations,
	})
}

type unavailableAgent struct {
	err error
}

func (u unavailableAgent) Invoke(context.Context, string, ports.TurnObserver) (domain.AgentResult, error) {
	return domain.AgentResult{}, u.err
}
