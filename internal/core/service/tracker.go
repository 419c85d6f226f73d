package service

import (
	"context"
	"fmt"
	"stickerbot/internal/core/domain"
	"stickerbot/internal/core/port"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Tracker interface {
	AddConversion(chatID int64)
	CheckLimit(ctx context.Context, message *domain.Message) bool
}

// UsageTracker counts conversions per chat and day. Results served from the cache or shared with another
// request are not counted. A zero limit disables tracking.
type UsageTracker struct {
	chats      map[int64]int
	dailyLimit int
	mutex      sync.Mutex
	sender     port.TextSender
}

func NewUsageTracker(ctx context.Context, sender port.TextSender) *UsageTracker {
	ut := &UsageTracker{
		chats:      make(map[int64]int),
		sender:     sender,
		dailyLimit: viper.GetInt("telegram.daily_conversion_limit"),
	}

	if ut.dailyLimit > 0 {
		go ut.ResetDailyLimit(ctx)
	}

	return ut
}

func (t *UsageTracker) AddConversion(chatID int64) {
	if t.dailyLimit <= 0 {
		return
	}

	t.mutex.Lock()
	t.chats[chatID]++
	t.mutex.Unlock()
}

const overLimit = "You have reached your daily limit of %d conversions. Limit will reset in %s."

func (t *UsageTracker) CheckLimit(ctx context.Context, message *domain.Message) bool {
	if t.dailyLimit <= 0 {
		return true
	}

	t.mutex.Lock()
	used := t.chats[message.ChatID]
	t.mutex.Unlock()

	if used < t.dailyLimit {
		return true
	}

	limitErr := fmt.Errorf(overLimit, t.dailyLimit, time.Until(getNextResetTime()).Truncate(time.Second))
	if err := t.sender.NotifyAndReturnError(ctx, limitErr, message); err != limitErr {
		log.Warn().Err(err).Msg("failed to send daily limit exceeded warning")
	}

	return false
}

func (t *UsageTracker) ResetDailyLimit(ctx context.Context) {
	reset := getNextResetTime()

	for {
		log.Debug().Time("reset", reset).Msg("running reset timer")
		select {
		case <-time.After(time.Until(reset)):
			log.Debug().Msg("resetting daily limit")
			t.mutex.Lock()
			t.chats = make(map[int64]int)
			t.mutex.Unlock()
			time.Sleep(time.Second)
			reset = getNextResetTime()
		case <-ctx.Done():
			log.Debug().Msg("stopping daily limit reset")
			return
		}
	}
}

func getNextResetTime() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}
