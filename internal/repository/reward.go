package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/caro-backend/internal/entity"
)

const (
	WinReward           = 50
	ParticipationReward = 10

	DefaultOutcomeStream = "game:outcomes"
)

var ErrAccountRequired = errors.New("account id is required")

// RewardRepository records game outcomes for the external rewards service:
// every outcome goes to a redis stream and per-account counters are bumped
// in a hash.
type RewardRepository struct {
	client *redis.Client
	stream string
}

func NewRewardRepository(client *redis.Client, stream string) *RewardRepository {
	if stream == "" {
		stream = DefaultOutcomeStream
	}

	return &RewardRepository{
		client: client,
		stream: stream,
	}
}

func statsKey(accountID string) string {
	return "account:" + accountID + ":stats"
}

func (that *RewardRepository) Dispatch(ctx context.Context, outcome entity.Outcome) error {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("could not marshal outcome: %w", err)
	}

	pipe := that.client.TxPipeline()

	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: that.stream,
		Values: map[string]interface{}{
			"room_id":           outcome.RoomID,
			"reason":            outcome.Reason,
			"is_draw":           strconv.FormatBool(outcome.IsDraw),
			"winner_account_id": outcome.WinnerAccountID(),
			"loser_account_id":  outcome.LoserAccountID(),
			"payload":           string(payload),
		},
	})

	if outcome.IsDraw {
		that.credit(ctx, pipe, outcome.Winner, "draws", ParticipationReward)
		that.credit(ctx, pipe, outcome.Loser, "draws", ParticipationReward)
	} else {
		that.credit(ctx, pipe, outcome.Winner, "wins", WinReward)
		that.credit(ctx, pipe, outcome.Loser, "losses", ParticipationReward)
	}

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record outcome for room %s: %w", outcome.RoomID, err)
	}

	return nil
}

// anonymous players have no account and earn nothing
func (that *RewardRepository) credit(ctx context.Context, pipe redis.Pipeliner, player *entity.Player, field string, coins int64) {
	if player == nil || player.IsAnonymous() {
		return
	}

	key := statsKey(player.AccountID)
	pipe.HIncrBy(ctx, key, field, 1)
	pipe.HIncrBy(ctx, key, "coins", coins)
}

func (that *RewardRepository) GetStats(ctx context.Context, accountID string) (entity.AccountStats, error) {
	if accountID == "" {
		return entity.AccountStats{}, ErrAccountRequired
	}

	values, err := that.client.HGetAll(ctx, statsKey(accountID)).Result()
	if err != nil {
		return entity.AccountStats{}, fmt.Errorf("failed to get stats: %w", err)
	}

	stats := entity.AccountStats{AccountID: accountID}
	for field, target := range map[string]*int64{
		"wins":   &stats.Wins,
		"losses": &stats.Losses,
		"draws":  &stats.Draws,
		"coins":  &stats.Coins,
	} {
		raw, ok := values[field]
		if !ok {
			continue
		}

		if *target, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return entity.AccountStats{}, fmt.Errorf("failed to parse %s: %w", field, err)
		}
	}

	return stats, nil
}

// Outcomes reads back up to count recorded outcomes, oldest first.
func (that *RewardRepository) Outcomes(ctx context.Context, count int64) ([]entity.Outcome, error) {
	messages, err := that.client.XRangeN(ctx, that.stream, "-", "+", count).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read outcomes: %w", err)
	}

	outcomes := make([]entity.Outcome, 0, len(messages))
	for _, message := range messages {
		raw, ok := message.Values["payload"].(string)
		if !ok {
			continue
		}

		var outcome entity.Outcome
		if err = json.Unmarshal([]byte(raw), &outcome); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outcome: %w", err)
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}
