// Package seed installs the decoy candidate profiles.
package seed

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/m3rciful/meetbot/bot/models"
	"github.com/m3rciful/meetbot/bot/storage"
	"github.com/m3rciful/meetbot/core/logger"
)

func ptr[T any](v T) *T { return &v }

// decoys are placeholder candidates with reserved negative IDs. They keep the
// candidate pool non-empty for early adopters; notification to them simply
// fails and is ignored. The match engine treats them like any other profile.
var decoys = []models.Profile{
	{ChatID: -1, Name: "Alice", Bio: "Long walks and longer talks", Contact: ptr("@alice_bot"), Category: models.CategoryFriendship},
	{ChatID: -2, Name: "Boris", Bio: "A poem a day", Contact: ptr("@boris_creative"), Category: models.CategoryCollab, Creativity: ptr("poems every day")},
	{ChatID: -3, Name: "Clara", Bio: "Film photography nerd", Contact: ptr("@clara_35mm"), Category: models.CategoryCollab, Creativity: ptr("analog street photography")},
	{ChatID: -4, Name: "Daniil", Bio: "Board games and bad puns", Contact: ptr("@daniil_plays"), Category: models.CategoryFriendship},
	{ChatID: -5, Name: "Eva", Bio: "Looking for a partner in crime", Contact: ptr("@eva_here"), Category: models.CategoryLove, Gender: ptr(models.GenderFemale)},
	{ChatID: -6, Name: "Fedor", Bio: "Runs at sunrise", Contact: ptr("@fedor_run"), Category: models.CategoryLove, Gender: ptr(models.GenderMale)},
}

// Decoys seeds the placeholder profiles, skipping any that already exist so
// repeated boots do not reset them.
func Decoys(ctx context.Context, store *storage.Store) error {
	start := time.Now()
	inserted := 0
	for i := range decoys {
		ok, err := store.InsertIfAbsent(ctx, &decoys[i])
		if err != nil {
			return fmt.Errorf("seed decoys: %w", err)
		}
		if ok {
			inserted++
		}
	}
	logger.SEED.Info("decoy profiles seeded",
		slog.String("event", "seed.decoys"),
		slog.Int("count", inserted),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}
