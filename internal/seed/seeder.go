// Package seed fills a development database with believable mappers and
// influence edges so the frontend has something to render locally.
package seed

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/mapperinfluences/backend/internal/database"
	"github.com/mapperinfluences/backend/internal/logger"
	"github.com/mapperinfluences/backend/internal/osuapi"
	"go.uber.org/zap"
)

// idOffset keeps generated ids far away from real osu! user ids.
const idOffset = 90_000_000

// maxInfluenceType matches the frontend's influence type picker.
const maxInfluenceType = 8

// Seeder generates fake users and wires them into a dense influence graph.
type Seeder struct {
	db        *database.DB
	userCount int
	faker     *gofakeit.Faker
}

// NewSeeder creates a seeder. A fixed source keeps repeated runs
// deterministic.
func NewSeeder(db *database.DB, userCount int) *Seeder {
	return &Seeder{
		db:        db,
		userCount: userCount,
		faker:     gofakeit.New(1),
	}
}

// Run writes users, bios, showcase beatmaps and influence edges.
func (s *Seeder) Run() error {
	users := s.generateUsers()

	for _, user := range users {
		if err := s.db.UpsertUser(user, false); err != nil {
			return fmt.Errorf("failed to seed user %d: %w", user.ID, err)
		}
		if err := s.db.UpdateBio(user.ID, s.bio()); err != nil {
			return fmt.Errorf("failed to seed bio for user %d: %w", user.ID, err)
		}
		for range s.faker.IntRange(0, 3) {
			if err := s.db.AddBeatmapToUser(user.ID, s.beatmapID()); err != nil {
				return fmt.Errorf("failed to seed beatmap for user %d: %w", user.ID, err)
			}
		}
	}
	logger.Log.Info("Seeded users", zap.Int("count", len(users)))

	edges := 0
	for _, user := range users {
		for _, target := range s.pickTargets(users, user.ID) {
			options := database.InfluenceOptions{
				InfluenceType: uint8(s.faker.IntRange(1, maxInfluenceType)),
				Description:   s.description(),
			}
			if s.faker.Bool() {
				options.Beatmaps = []uint32{s.beatmapID()}
			}
			if _, err := s.db.AddInfluenceRelation(user.ID, target, options); err != nil {
				return fmt.Errorf("failed to seed influence %d -> %d: %w", user.ID, target, err)
			}
			edges++
		}
	}
	logger.Log.Info("Seeded influences", zap.Int("count", edges))
	return nil
}

// generateUsers builds userCount fake upstream records with stable ids.
func (s *Seeder) generateUsers() []osuapi.UserOsu {
	users := make([]osuapi.UserOsu, s.userCount)
	for i := range users {
		users[i] = osuapi.UserOsu{
			ID:        uint32(idOffset + i),
			Username:  s.faker.Username(),
			AvatarURL: fmt.Sprintf("https://a.ppy.sh/%d?", idOffset+i),
			Country: osuapi.Country{
				Code: s.faker.CountryAbr(),
				Name: s.faker.Country(),
			},
			RankedAndApprovedBeatmapsetCount: uint32(s.faker.IntRange(0, 12)),
			GuestBeatmapsetCount:             uint32(s.faker.IntRange(0, 6)),
			GraveyardBeatmapsetCount:         uint32(s.faker.IntRange(0, 30)),
			PendingBeatmapsetCount:           uint32(s.faker.IntRange(0, 3)),
		}
		users[i].RankedBeatmapsetCount = users[i].RankedAndApprovedBeatmapsetCount
	}
	return users
}

// pickTargets selects up to five distinct influence targets, never the user
// itself.
func (s *Seeder) pickTargets(users []osuapi.UserOsu, self uint32) []uint32 {
	count := s.faker.IntRange(0, 5)
	picked := make(map[uint32]struct{}, count)
	targets := make([]uint32, 0, count)
	for len(targets) < count {
		candidate := users[s.faker.IntRange(0, len(users)-1)].ID
		if candidate == self {
			continue
		}
		if _, ok := picked[candidate]; ok {
			continue
		}
		picked[candidate] = struct{}{}
		targets = append(targets, candidate)
	}
	return targets
}

func (s *Seeder) beatmapID() uint32 {
	return uint32(s.faker.IntRange(100_000, 4_000_000))
}

func (s *Seeder) bio() string {
	return s.faker.HipsterParagraph()
}

func (s *Seeder) description() string {
	return s.faker.HipsterSentence()
}
