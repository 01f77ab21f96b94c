package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatehouse.dev/internal/audit"
	"gatehouse.dev/internal/auth"
	"gatehouse.dev/internal/config"
	"gatehouse.dev/internal/httpapi"
	"gatehouse.dev/internal/obs"
	"gatehouse.dev/internal/rpc"
	"gatehouse.dev/internal/store/memory"
	"gatehouse.dev/internal/store/pg"
)

const readinessInterval = 5 * time.Second

type store interface {
	auth.AdminStore
	Ping(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(cfg.Version, cfg.Commit)
	obs.SetTokenVersion(cfg.Token.Version)

	// Postgres when a DSN is configured, otherwise an in-memory store.
	var st store
	if cfg.PostgresDSN != "" {
		pgStore, err := pg.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		st = pgStore
	} else {
		obs.Warn("no database configured, using in-memory store", nil)
		st = memory.New()
	}

	codec, err := newCodec(cfg.Token)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}
	hasher, err := auth.NewPasswordHasher(cfg.Password.Algorithm, cfg.Password.BcryptCost)
	if err != nil {
		log.Fatalf("password hasher: %v", err)
	}
	admin, err := auth.NewAdmin(st, hasher)
	if err != nil {
		log.Fatalf("admin: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Master.Enabled() {
		if err := bootstrapMaster(ctx, admin, cfg.Master); err != nil {
			log.Fatalf("bootstrap master: %v", err)
		}
	}

	logins := auth.NewLoginService(st, st, hasher, codec)

	api := httpapi.New(httpapi.ReadyProbe{Store: st}, httpapi.Options{
		Version:       cfg.Version,
		Logins:        logins,
		Codec:         codec,
		Admin:         admin,
		RateBurst:     cfg.Login.Burst,
		RatePerSecond: cfg.Login.RatePerSecond,
		MaxBodyBytes:  cfg.Login.MaxBodyBytes,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	reporter := rpc.NewHealthReporter(st)
	grpcServer := rpc.NewServer(logins, codec, reporter)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("grpc listen: %v", err)
	}

	go reporter.Run(ctx, readinessInterval)

	go func() {
		obs.Info("grpc listening", map[string]any{"addr": cfg.GRPCAddr})
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("grpc serve: %v", err)
		}
	}()

	go func() {
		obs.Info("http listening", map[string]any{"addr": srv.Addr, "version": cfg.Version})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	obs.Info("shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		obs.Error("http shutdown", map[string]any{"error": err.Error()})
	}
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}
	obs.Info("stopped", nil)
}

func newCodec(cfg config.TokenConfig) (*auth.Codec, error) {
	opts := []auth.CodecOption{
		auth.WithIssuer(cfg.Issuer),
		auth.WithAudience(cfg.Audience),
		auth.WithTTL(cfg.TTL),
		auth.WithTokenVersion(cfg.Version),
	}
	if cfg.UsesRSA() {
		opts = append(opts, auth.WithRS256Keys(cfg.PrivateKeyPEM, cfg.PublicKeyPEM))
		if cfg.KeyID != "" {
			opts = append(opts, auth.WithKeyID(cfg.KeyID))
		}
	} else {
		opts = append(opts, auth.WithHMACSecret([]byte(cfg.Secret)))
	}
	return auth.NewCodec(opts...)
}

func bootstrapMaster(ctx context.Context, admin *auth.Admin, cfg config.BootstrapConfig) error {
	user, created, err := admin.BootstrapMaster(ctx, auth.RegisterUserInput{
		Username: cfg.Username,
		Email:    cfg.Email,
		Password: cfg.Password,
	})
	if err != nil {
		return err
	}
	if !created {
		return nil
	}
	return audit.LogEvent(ctx, audit.EventMasterBootstrap, map[string]any{
		"user_id":  int64(user.ID),
		"username": user.Username,
	})
}
