// workplane es el binario del servicio: API multi-tenant con registro de
// tenants, cache de modelos por namespace y pipeline de autenticación /
// autorización.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/workplane/internal/config"
	"github.com/dropDatabas3/workplane/internal/domain/repository"
	httpserver "github.com/dropDatabas3/workplane/internal/http"
	"github.com/dropDatabas3/workplane/internal/http/handlers"
	"github.com/dropDatabas3/workplane/internal/http/router"
	"github.com/dropDatabas3/workplane/internal/infra/modelcache"
	"github.com/dropDatabas3/workplane/internal/metrics"
	"github.com/dropDatabas3/workplane/internal/observability/logger"
	"github.com/dropDatabas3/workplane/internal/rate"
	"github.com/dropDatabas3/workplane/internal/registry"
	"github.com/dropDatabas3/workplane/internal/security/password"
	pgstore "github.com/dropDatabas3/workplane/internal/store/pg"
	"github.com/dropDatabas3/workplane/internal/token"

	rdb "github.com/redis/go-redis/v9"
)

func main() {
	// .env es opcional; en prod las variables vienen del entorno real.
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:   "workplane",
		Short: "Workplane: API core multi-tenant",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "ruta del archivo de configuración")

	root.AddCommand(serveCmd(&cfgPath))
	root.AddCommand(tenantCmd(&cfgPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "workplane",
	})
	return cfg, nil
}

// buildCore arma el stack compartido entre serve y los subcomandos de
// tenant: store, registry, cache de modelos y resolver.
func buildCore(ctx context.Context, cfg *config.Config) (*pgstore.Store, *registry.Service, *modelcache.Manager, error) {
	st, err := pgstore.New(ctx, cfg.Storage.DSN, pgstore.Config{
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime(),
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("storage: %w", err)
	}

	schemas := pgstore.NewSchemaManager(st)
	if err := schemas.EnsureRegistrySchema(ctx); err != nil {
		st.Close()
		return nil, nil, nil, fmt.Errorf("registry schema: %w", err)
	}

	cache, err := modelcache.New(modelcache.Config{Load: st.LoadModelSet})
	if err != nil {
		st.Close()
		return nil, nil, nil, err
	}

	reg, err := registry.New(registry.Config{
		Store:     pgstore.NewTenantStore(st),
		Schemas:   schemas,
		Models:    cache,
		LookupTTL: cfg.LookupTTL(),
	})
	if err != nil {
		st.Close()
		return nil, nil, nil, err
	}
	return st, reg, cache, nil
}

func serveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			metrics.Register(prometheus.DefaultRegisterer)

			st, reg, cache, err := buildCore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			defer cache.Close()

			tokens, err := token.New(token.Config{
				Secret: []byte(cfg.Token.Secret),
				Issuer: cfg.Token.Issuer,
				TTL:    cfg.TokenTTL(),
				Leeway: cfg.TokenLeeway(),
			})
			if err != nil {
				return err
			}

			var limiter rate.Limiter
			if cfg.Rate.Enabled {
				if cfg.Rate.Redis != "" {
					client := rdb.NewClient(&rdb.Options{Addr: cfg.Rate.Redis})
					limiter = rate.NewRedisLimiter(client, "rl:login:", cfg.Rate.Login.Limit, cfg.LoginRateWindow())
				} else {
					limiter = rate.NewMemoryLimiter(cfg.Rate.Login.Limit, cfg.LoginRateWindow())
				}
			}

			hasher := password.Default
			if cfg.Password.Memory > 0 {
				hasher.Memory = cfg.Password.Memory
			}
			if cfg.Password.Time > 0 {
				hasher.Time = cfg.Password.Time
			}
			if cfg.Password.Parallelism > 0 {
				hasher.Parallelism = cfg.Password.Parallelism
			}

			handler := router.New(router.Deps{
				Resolver:     registry.NewResolver(reg, cfg.ProbeTimeout()),
				Tokens:       tokens,
				TenantHeader: cfg.Server.TenantHeader,
				Auth:         handlers.NewAuthHandler(tokens),
				Tenants:      handlers.NewTenantsHandler(reg, cache),
				Employees:    handlers.NewEmployeesHandler(),
				Users:        handlers.NewUsersHandler(hasher),
				Health:       handlers.NewHealthHandler(st),
				LoginLimiter: limiter,
			})

			srv := httpserver.NewServer(cfg.Server.Addr, handler)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutCtx)
		},
	}
}

func tenantCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Operaciones sobre el directorio de tenants",
	}

	var (
		name          string
		contactEmail  string
		planType      string
		adminEmail    string
		adminPassword string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Crea un tenant (y opcionalmente su primer usuario admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			st, reg, cache, err := buildCore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			defer cache.Close()

			tenant, err := reg.Create(ctx, registry.CreateInput{
				Name:         name,
				ContactEmail: contactEmail,
				PlanType:     planType,
				CreatedBy:    "cli",
			})
			if err != nil {
				return err
			}
			fmt.Printf("tenant %s creado (namespace %s)\n", tenant.Name, tenant.NamespaceID)

			if adminEmail != "" && adminPassword != "" {
				if err := seedAdmin(ctx, st, tenant.NamespaceID, tenant.ID, adminEmail, adminPassword); err != nil {
					return fmt.Errorf("seed admin: %w", err)
				}
				fmt.Printf("usuario admin %s creado\n", adminEmail)
			}
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "nombre del tenant (requerido)")
	create.Flags().StringVar(&contactEmail, "contact-email", "", "email de contacto")
	create.Flags().StringVar(&planType, "plan", "standard", "tipo de plan")
	create.Flags().StringVar(&adminEmail, "admin-email", "", "email del primer usuario admin")
	create.Flags().StringVar(&adminPassword, "admin-password", "", "password del primer usuario admin")
	_ = create.MarkFlagRequired("name")

	var pingName string
	ping := &cobra.Command{
		Use:   "ping",
		Short: "Verifica que el storage del tenant responda",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			st, reg, cache, err := buildCore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			defer cache.Close()

			resolver := registry.NewResolver(reg, cfg.ProbeTimeout())
			tc, err := resolver.Resolve(ctx, pingName)
			if err != nil {
				return err
			}
			fmt.Printf("ok: tenant %s (namespace %s) responde\n", tc.TenantName, tc.NamespaceID)
			return nil
		},
	}
	ping.Flags().StringVar(&pingName, "name", "", "nombre del tenant (requerido)")
	_ = ping.MarkFlagRequired("name")

	cmd.AddCommand(create, ping)
	return cmd
}

func seedAdmin(ctx context.Context, st *pgstore.Store, namespaceID, tenantID, email, plain string) error {
	models, err := st.LoadModelSet(ctx, namespaceID, tenantID)
	if err != nil {
		return err
	}
	hash, err := password.Hash(password.Default, plain)
	if err != nil {
		return err
	}
	_, err = models.Users().Create(ctx, repository.CreateUserInput{
		Email:        email,
		Role:         "admin",
		PasswordHash: hash,
	})
	return err
}
