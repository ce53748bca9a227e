package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/caro-backend/internal/config"
	"github.com/rocketscienceinc/caro-backend/internal/repository"
	"github.com/rocketscienceinc/caro-backend/internal/repository/storage"
	"github.com/rocketscienceinc/caro-backend/internal/session"
	redistransport "github.com/rocketscienceinc/caro-backend/internal/transport/redis"
	"github.com/rocketscienceinc/caro-backend/internal/usecase"
	"github.com/rocketscienceinc/caro-backend/transport/rest"
	"github.com/rocketscienceinc/caro-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application until SIGINT/SIGTERM or the first server failure.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString, conf.Redis.Password, conf.Redis.DB)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	defaultProfile, err := conf.Game.Profile()
	if err != nil {
		return fmt.Errorf("invalid game config: %w", err)
	}

	rewardRepo := repository.NewRewardRepository(redisStorage.Connection, conf.Redis.OutcomeStream)
	roomEvents := redistransport.NewPublisher(redisStorage.Connection, conf.Redis.ChannelPrefix)

	gameManager := usecase.NewGameManager(
		logger,
		usecase.GameManagerConfig{
			DefaultProfile: defaultProfile,
			WaitingRoomTTL: conf.Game.WaitingRoomTTL,
		},
		repository.NewRoomRegistry(conf.Game.Shards),
		session.NewTracker(),
		rewardRepo,
		roomEvents,
	)

	wsServer := websocket.New(logger, gameManager)
	gameManager.Subscribe(wsServer)

	restServer := rest.New(logger, gameManager, rewardRepo)
	sweeper := usecase.NewSweeper(logger, gameManager, conf.Game.CleanupInterval)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := restServer.Start(groupCtx, conf.HTTPPort); httpErr != nil {
			return fmt.Errorf("HTTP server error: %w", httpErr)
		}
		return nil
	})

	group.Go(func() error {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := wsServer.Start(groupCtx, conf.SocketPort); wsErr != nil {
			return fmt.Errorf("WebSocket server error: %w", wsErr)
		}
		return nil
	})

	group.Go(func() error {
		return sweeper.Run(groupCtx)
	})

	if err = group.Wait(); err != nil {
		return err
	}

	log.Info("Application context canceled, shutting down")

	return nil
}
