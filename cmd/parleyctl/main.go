// parleyctl is a small command-line companion for the Parley API: it lists,
// creates and joins rooms through the same cached store the desktop client
// uses.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	parley "github.com/parleyhq/parley-go"
	"github.com/parleyhq/parley-go/configs"
	"github.com/parleyhq/parley-go/option"
	"github.com/parleyhq/parley-go/preferences"
	"github.com/parleyhq/parley-go/roomstore"
	"github.com/parleyhq/parley-go/session"
	"github.com/parleyhq/parley-go/telemetry"
	"go.uber.org/zap"
)

func main() {
	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()

	token := flag.String("token", os.Getenv("PARLEY_TOKEN"), "session bearer token")
	user := flag.String("user", os.Getenv("PARLEY_USER_UUID"), "authenticated user UUID")
	flag.Parse()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		logger.Fatalw("load config", "path", configPath, "error", err)
	}

	ctx := context.Background()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:  "parleyctl",
			Environment:  cfg.Telemetry.Environment,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		})
		if err != nil {
			logger.Fatalw("init tracer", "error", err)
		}
		defer shutdown(ctx)
	}

	opts := []option.RequestOption{
		option.WithRequestTimeout(cfg.API.RequestTimeout),
		option.WithMaxRetries(cfg.API.MaxRetries),
	}
	if cfg.API.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.API.BaseURL))
	}
	if *token != "" {
		opts = append(opts, option.WithBearerToken(*token))
	}
	if cfg.Telemetry.Enabled {
		opts = append(opts, option.WithTracing())
	}

	client := parley.NewClient(opts...)

	sess := session.NewStore()
	sess.SignIn(*user)
	prefs := preferences.NewStore(cfg.RoomStore.DefaultRegion)

	store := roomstore.New(
		roomstore.ClientAPI{Client: client},
		sess,
		prefs,
		roomstore.WithLogger(logger.Desugar()),
		roomstore.WithPageSize(cfg.RoomStore.PageSize),
	)

	ctx, span := telemetry.GetTracer("parleyctl").Start(ctx, "parleyctl.run")
	err = run(ctx, store, prefs, flag.Args())
	span.End()
	if err != nil {
		logger.Fatalw("command failed", "error", err)
	}
}

func run(ctx context.Context, store *roomstore.Store, prefs *preferences.Store, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: parleyctl [flags] <list|create|join|sync> ...")
	}

	switch args[0] {
	case "list":
		category := roomstore.CategoryAll
		if len(args) > 1 {
			category = roomstore.Category(args[1])
		}
		if _, err := store.ListRooms(ctx, category); err != nil {
			return err
		}
		for cat, uuids := range store.RoomUUIDsByCategory() {
			fmt.Printf("%s:\n", cat)
			for _, uuid := range uuids {
				rec, _ := store.Room(uuid)
				fmt.Printf("  %s  %-24s %s\n", uuid, rec.Title, rec.RoomStatus)
			}
		}
		return nil

	case "create":
		if len(args) < 2 {
			return fmt.Errorf("usage: parleyctl create <title>")
		}
		uuid, err := store.CreateRoom(ctx, parley.CreateRoomParams{
			Title:     args[1],
			Type:      parley.RoomTypeSmallClass,
			Region:    prefs.Region(),
			BeginTime: time.Now().UnixMilli(),
		})
		if err != nil {
			return err
		}
		fmt.Println(uuid)
		return nil

	case "join":
		if len(args) < 2 {
			return fmt.Errorf("usage: parleyctl join <uuid-or-invite-code>")
		}
		res, err := store.JoinRoom(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("joined %s (owner %s)\n", res.RoomUUID, res.OwnerUUID)
		return nil

	case "sync":
		if len(args) < 2 {
			return fmt.Errorf("usage: parleyctl sync <room-uuid>")
		}
		if err := store.SyncRoomInfo(ctx, args[1]); err != nil {
			return err
		}
		rec, ok := store.Room(args[1])
		if !ok {
			return fmt.Errorf("room %s not cached", args[1])
		}
		fmt.Printf("%s  %s  %s\n", rec.RoomUUID, rec.Title, rec.RoomStatus)
		return nil

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
