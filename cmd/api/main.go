package main

import (
	"context"
	"errors"
	"log"

	"freelance-chat/config"
	"freelance-chat/internal/redis"
	"freelance-chat/internal/repository"
	"freelance-chat/internal/server"
	"freelance-chat/internal/services"
	"freelance-chat/internal/websocket"
	"freelance-chat/pkg/database"
	"freelance-chat/pkg/logger"
)

var errRelayNotSubscribed = errors.New("redis relay not subscribed")

type stores struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	profiles      repository.ProfileRepository
	health        repository.HealthChecker
	close         func()
}

func main() {
	cfg := config.LoadConfig()
	l := logger.New(cfg.LogMode)
	defer l.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, l)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.close()

	auth, err := services.NewAuthService(cfg)
	if err != nil {
		log.Fatalf("Failed to configure token verification: %v", err)
	}

	broadcaster := websocket.NewBroadcaster(cfg.WSSendBuffer, l.Logger)
	var publisher websocket.Publisher = broadcaster
	var profileCache services.ProfileCache
	var redisHealth server.HealthCheck

	if cfg.RedisEnabled {
		client, err := redis.Connect(ctx, redis.ConfigFrom(cfg))
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer client.Close()

		profileCache = redis.NewCacheStore(client, cfg.ProfileCacheTTL)

		relay := websocket.NewRedisRelay(broadcaster, redis.NewPublisher(client), redis.NewSubscriber(client), l.Logger)
		publisher = relay
		go relay.Run(ctx, nil)

		redisHealth = func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return err
			}
			if !relay.Subscribed() {
				return errRelayNotSubscribed
			}
			return nil
		}
	}

	conversations := services.NewConversationService(st.conversations, l.Logger)
	chat := services.NewChatService(conversations, st.messages)
	profiles := services.NewProfileService(st.profiles, profileCache, l.Logger)

	handler := websocket.NewHandler(ctx, websocket.SessionDeps{
		Auth:           websocket.NewAuthGate(auth),
		Identities:     profiles,
		Sender:         chat,
		Broadcaster:    broadcaster,
		Publisher:      publisher,
		Logger:         websocket.NewWebSocketLogger(l.Logger),
		PersistTimeout: cfg.WSPersistTimeout,
	}, websocket.HandlerOptions{
		MaxMessageSize: cfg.WSMaxMessageSize,
		AllowedOrigins: cfg.WSAllowedOrigins,
	})

	srv := server.New(cfg, l)
	srv.SetupRoutes(server.Dependencies{
		Chat:        handler,
		Broadcaster: broadcaster,
		Database:    st.health.Ping,
		Redis:       redisHealth,
	})
	srv.OnShutdown(func(shutdownCtx context.Context) {
		cancel()
		if err := handler.Wait(shutdownCtx); err != nil {
			l.Warnf("Websocket sessions still open at shutdown: %v", err)
		}
	})

	if err := srv.Start(); err != nil {
		l.Errorf("Server stopped with error: %v", err)
	}
}

func openStores(ctx context.Context, cfg *config.Config, l *logger.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		seeds, err := repository.ParseProfileSeeds(cfg.MemoryProfiles)
		if err != nil {
			return nil, err
		}
		mem := repository.NewMemoryStore()
		for login, id := range seeds {
			mem.AddProfile(login, id)
		}
		l.Warnf("Using in-memory store with %d profiles; nothing is persisted", len(seeds))
		return &stores{
			conversations: mem.Conversations(),
			messages:      mem.Messages(),
			profiles:      mem.Profiles(),
			health:        mem,
			close:         func() {},
		}, nil
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL())
	if err != nil {
		return nil, err
	}
	l.Infof("Connected to postgres at %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)
	return &stores{
		conversations: repository.NewConversationRepository(pool),
		messages:      repository.NewMessageRepository(pool),
		profiles:      repository.NewProfileRepository(pool),
		health:        pool,
		close:         pool.Close,
	}, nil
}

