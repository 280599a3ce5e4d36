// The agent is a headless peer used for automated practice sessions: it joins
// a room like a browser client would, holds up its end of the call with a
// silent audio track, and hangs up cleanly on SIGINT.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/campusbridge/meet/internal/call"
	"github.com/campusbridge/meet/internal/config"
	"github.com/campusbridge/meet/internal/domain"
	"github.com/campusbridge/meet/internal/repository"
	meetsignal "github.com/campusbridge/meet/internal/signal"
	"github.com/campusbridge/meet/lib/logger/sl"
)

const offerWaitTimeout = 2 * time.Minute

func main() {
	_ = godotenv.Load(".env")

	roomID := flag.String("room", "", "room id to join (empty: create a new room)")
	userID := flag.String("user", "agent", "user id the agent joins as")

	cfg := config.MustLoad()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(cfg, log, *roomID, *userID); err != nil {
		log.Error("agent stopped", sl.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger, roomID, userID string) error {
	ctx := context.Background()

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		return err
	}

	redisClient, err := meetsignal.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	meetingRepo := repository.NewPostgresMeetingRepository(db)
	store := meetsignal.NewRedisStore(redisClient)

	meeting := domain.NewMeeting(roomID, userID, cfg.Meeting.Lifetime)
	role := domain.RoleHost
	if roomID == "" {
		meeting.RoomID = domain.GenerateRoomID()
	}
	if err := meetingRepo.Create(ctx, meeting); err != nil {
		if !errors.Is(err, repository.ErrMeetingExists) {
			return err
		}
		existing, err := meetingRepo.GetByID(ctx, meeting.RoomID)
		if err != nil {
			return err
		}
		meeting = existing
		role = existing.RoleOf(userID)
	}

	log.Info("joined meeting",
		slog.String("room_id", meeting.RoomID),
		slog.String("role", string(role)),
	)

	sessionCfg := call.Config{
		Store:             store,
		STUNServers:       cfg.WebRTC.STUNServers,
		CandidatePoolSize: cfg.WebRTC.CandidatePoolSize,
		Logger:            log,
	}
	source := call.NewStaticSource("agent")
	onRemote := func(stream *call.RemoteStream) {
		log.Info("remote stream updated", slog.Int("tracks", stream.Len()))
	}

	var session *call.Session
	if role == domain.RoleHost {
		session, err = call.Dial(ctx, sessionCfg, meeting.RoomID, source, onRemote)
	} else {
		if err := waitForOffer(ctx, store, meeting.RoomID); err != nil {
			return err
		}
		session, err = call.Answer(ctx, sessionCfg, meeting.RoomID, source, onRemote)
	}
	if err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	if err := session.Close(ctx); err != nil {
		return err
	}
	return meetingRepo.SetStatus(ctx, meeting.RoomID, domain.MeetingStatusEnded)
}

// waitForOffer blocks a guest agent until the host has written its offer.
func waitForOffer(ctx context.Context, store meetsignal.Store, roomID string) error {
	if callRecord, err := store.GetCall(ctx, roomID); err == nil && callRecord.Offer != nil {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, offerWaitTimeout)
	defer cancel()

	updates, err := store.WatchCall(waitCtx, roomID)
	if err != nil {
		return err
	}
	for {
		select {
		case <-waitCtx.Done():
			return errors.New("timed out waiting for an offer")
		case update, ok := <-updates:
			if !ok {
				return errors.New("call ended before an offer arrived")
			}
			if update.Offer != nil {
				return nil
			}
		}
	}
}
