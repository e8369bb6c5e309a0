package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	cache "github.com/mohdafzal1700/max-chat/internal/infrastructure/cache/port"
	chat "github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/domain"
	repository "github.com/mohdafzal1700/max-chat/internal/pkg/chat/persistence/repository/port"
)

// presenceCacheTTL bounds staleness of the cached snapshot if a disconnect
// update never lands.
const presenceCacheTTL = 5 * time.Minute

// UpdatePresenceUseCase transitions a user's online/offline state as a side
// effect of the connection lifecycle. Both transitions are best-effort: a
// store failure is retried once, then swallowed, because a flaky presence
// write must never block or abort a connection.
type UpdatePresenceUseCase struct {
	Repo  repository.ChatRepository
	Cache cache.Cache // optional; nil disables the snapshot write-through
	Log   *slog.Logger
}

func NewUpdatePresenceUseCase(repo repository.ChatRepository, c cache.Cache, log *slog.Logger) *UpdatePresenceUseCase {
	return &UpdatePresenceUseCase{Repo: repo, Cache: c, Log: log}
}

// SetOnline marks the user online and clears last_seen.
func (uc *UpdatePresenceUseCase) SetOnline(ctx context.Context, userID chat.UserID) {
	uc.apply(ctx, chat.Presence{UserID: userID, IsOnline: true, LastSeen: nil})
}

// SetOffline marks the user offline and stamps last_seen with the current time.
func (uc *UpdatePresenceUseCase) SetOffline(ctx context.Context, userID chat.UserID) {
	uc.apply(ctx, chat.Presence{
		UserID:   userID,
		IsOnline: false,
		LastSeen: lo.ToPtr(time.Now().UTC()),
	})
}

func (uc *UpdatePresenceUseCase) apply(ctx context.Context, p chat.Presence) {
	if err := uc.Repo.UpsertPresence(ctx, p); err != nil {
		uc.Log.Error("presence upsert failed, retrying once",
			"user_id", p.UserID, "is_online", p.IsOnline, "err", err)
		if err = uc.Repo.UpsertPresence(ctx, p); err != nil {
			uc.Log.Error("presence upsert fallback failed",
				"user_id", p.UserID, "is_online", p.IsOnline, "err", err)
			return
		}
	}
	uc.cacheSnapshot(ctx, p)
}

// cacheSnapshot mirrors the presence row into the cache so sibling services
// can read online state without hitting the store. Failures are logged and
// ignored; the store row stays authoritative.
func (uc *UpdatePresenceUseCase) cacheSnapshot(ctx context.Context, p chat.Presence) {
	if uc.Cache == nil {
		return
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return
	}
	key := fmt.Sprintf("presence:%d", p.UserID)
	if err := uc.Cache.Set(ctx, key, string(payload), presenceCacheTTL); err != nil {
		uc.Log.Warn("presence cache write failed", "user_id", p.UserID, "err", err)
	}
}
