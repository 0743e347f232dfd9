// Package main seeds a development database with users, lessons and
// engagement, and prints bearer tokens the development server accepts.
//
// Usage:
//
//	go run ./cmd/seed
//	go run ./cmd/seed -lessons 40 -- -data-path ./data
//	go run ./cmd/seed -tokens-only
//
// Arguments after -- are passed to the server configuration loader, so the
// seed tool writes to the same store the server reads.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/digitallifelessons/lifelessons-server/internal/auth"
	"github.com/digitallifelessons/lifelessons-server/internal/config"
	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/id"
	"github.com/digitallifelessons/lifelessons-server/internal/search"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
	"github.com/digitallifelessons/lifelessons-server/internal/store/mongo"
	"github.com/digitallifelessons/lifelessons-server/internal/store/sqlite"
)

var (
	lessonCount = flag.Int("lessons", 24, "Number of lessons to create")
	tokensOnly  = flag.Bool("tokens-only", false, "Only print tokens for the seed users")
	tokenTTL    = flag.Duration("token-ttl", 30*24*time.Hour, "Lifetime of the printed tokens")
)

type seedUser struct {
	email   string
	name    string
	role    domain.Role
	premium bool
}

var seedUsers = []seedUser{
	{email: "admin@lifelessons.dev", name: "Ada Admin", role: domain.RoleAdmin},
	{email: "premium@lifelessons.dev", name: "Pat Premium", role: domain.RoleUser, premium: true},
	{email: "writer@lifelessons.dev", name: "Wren Writer", role: domain.RoleUser},
	{email: "reader@lifelessons.dev", name: "Rey Reader", role: domain.RoleUser},
}

var (
	categories = []string{"Personal Growth", "Career", "Relationships", "Mindset", "Mistakes Learned"}
	emotions   = []string{"Motivational", "Sad", "Realization", "Gratitude"}
	titles     = []string{
		"Patience pays",
		"The job I almost turned down",
		"What my grandmother knew",
		"Saying no without guilt",
		"Failing in public",
		"The friend who stayed",
		"Money is a tool",
		"Asking for help",
	}
	reasons = []string{"Spam or promotional content", "Inappropriate content", "Misleading information"}
)

func main() {
	flag.Parse()

	cfg, err := config.Load(flag.Args())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := os.MkdirAll(cfg.Store.DataPath, 0o750); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	if !*tokensOnly {
		seed(cfg)
	}
	printTokens(cfg)
}

func seed(cfg *config.Config) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	// A running server holds the index lock; it reindexes on its next start
	// when the index is empty.
	index, err := search.NewSearchIndex(search.Options{DataPath: cfg.Store.DataPath, Logger: logger})
	if err != nil {
		fmt.Printf("Search index unavailable, lessons will not be indexed: %v\n", err)
	} else {
		defer index.Close()
		st.SetSearchIndexer(index)
	}

	users := make([]*domain.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		u, err := ensureUser(ctx, st, su)
		if err != nil {
			log.Fatalf("Failed to create user %s: %v", su.email, err)
		}
		users = append(users, u)
	}
	fmt.Printf("Ensured %d users\n", len(users))

	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	authors := users[:3]

	lessons := make([]*domain.Lesson, 0, *lessonCount)
	for n := range *lessonCount {
		author := authors[n%len(authors)]
		lesson := newLesson(rng, author, n)
		if err := st.CreateLesson(ctx, lesson); err != nil {
			log.Fatalf("Failed to create lesson: %v", err)
		}
		lessons = append(lessons, lesson)
	}
	fmt.Printf("Created %d lessons\n", len(lessons))

	var likes, comments, favorites, views int
	for _, lesson := range lessons {
		if !lesson.IsPublic() {
			continue
		}
		for _, u := range users {
			if rng.IntN(3) == 0 {
				if _, err := st.ToggleLike(ctx, lesson.ID, u.Email); err == nil {
					likes++
				}
			}
			if rng.IntN(4) == 0 {
				if created, err := st.AddFavorite(ctx, &domain.Favorite{
					ID:        id.MustGenerate(id.PrefixFavorite),
					LessonID:  lesson.ID,
					UserEmail: u.Email,
					CreatedAt: time.Now().UTC(),
				}); err == nil && created {
					favorites++
				}
			}
			if rng.IntN(5) == 0 {
				if err := st.CreateComment(ctx, &domain.Comment{
					ID:          id.MustGenerate(id.PrefixComment),
					LessonID:    lesson.ID,
					AuthorEmail: u.Email,
					AuthorName:  u.DisplayName,
					AuthorImage: u.PhotoURL,
					Text:        "This one stayed with me. Thank you for sharing.",
					CreatedAt:   time.Now().UTC(),
				}); err == nil {
					comments++
				}
			}
		}
		for range rng.IntN(25) {
			if _, err := st.IncrementLessonViews(ctx, lesson.ID); err == nil {
				views++
			}
		}
	}
	fmt.Printf("Added %d likes, %d favorites, %d comments, %d views\n", likes, favorites, comments, views)

	reader := users[len(users)-1]
	var reports int
	for _, lesson := range lessons[:min(3, len(lessons))] {
		if err := st.CreateReport(ctx, &domain.Report{
			ID:            id.MustGenerate(id.PrefixReport),
			LessonID:      lesson.ID,
			ReporterEmail: reader.Email,
			Reason:        reasons[rng.IntN(len(reasons))],
			CreatedAt:     time.Now().UTC(),
		}); err == nil {
			reports++
		}
	}
	fmt.Printf("Filed %d reports\n", reports)
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	if cfg.Store.Driver == config.StoreMongo {
		ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		return mongo.Open(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase, logger)
	}
	return sqlite.Open(filepath.Join(cfg.Store.DataPath, "lifelessons.db"), logger)
}

func ensureUser(ctx context.Context, st store.Store, su seedUser) (*domain.User, error) {
	u, err := st.GetUserByEmail(ctx, su.email)
	if err != nil {
		u = domain.NewUser(id.MustGenerate(id.PrefixUser), su.email, su.name,
			"https://i.pravatar.cc/150?u="+su.email)
		if err := st.CreateUser(ctx, u); err != nil {
			return nil, err
		}
	}
	if su.role != u.Role {
		if u, err = st.SetUserRole(ctx, su.email, su.role); err != nil {
			return nil, err
		}
	}
	if su.premium != u.IsPremium {
		if u, err = st.SetUserPremium(ctx, su.email, su.premium); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func newLesson(rng *rand.Rand, author *domain.User, n int) *domain.Lesson {
	now := time.Now().UTC().Add(-time.Duration(n) * time.Hour)

	privacy := domain.PrivacyPublic
	if n%7 == 6 {
		privacy = domain.PrivacyPrivate
	}
	access := domain.AccessFree
	if author.CanPublishPremium() && n%3 == 0 {
		access = domain.AccessPremium
	}

	return &domain.Lesson{
		ID:          id.MustGenerate(id.PrefixLesson),
		AuthorEmail: author.Email,
		AuthorName:  author.DisplayName,
		AuthorImage: author.PhotoURL,
		Title:       fmt.Sprintf("%s #%d", titles[rng.IntN(len(titles))], n+1),
		Description: "<p>It took me years to see it, but the lesson was there all along.</p>" +
			"<p>Slow down, notice what matters, and be <strong>kind</strong> to yourself.</p>",
		Category:    categories[rng.IntN(len(categories))],
		Emotion:     emotions[rng.IntN(len(emotions))],
		Privacy:     privacy,
		AccessLevel: access,
		IsFeatured:  n < 3,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func printTokens(cfg *config.Config) {
	if cfg.Identity.Mode != config.IdentityPaseto || cfg.Identity.PublicKeyHex != "" {
		fmt.Println("\nThe server verifies tokens from an external identity provider; no dev tokens printed.")
		return
	}

	secretKey, err := auth.LoadOrGenerateKeyPair(cfg.Store.DataPath)
	if err != nil {
		log.Fatalf("Failed to load development key pair: %v", err)
	}
	issuer := auth.NewIssuer(secretKey, cfg.Identity.Issuer, cfg.Identity.Audience, *tokenTTL)

	fmt.Println("\nDevelopment bearer tokens:")
	for _, su := range seedUsers {
		token, err := issuer.Issue(auth.Identity{
			Email:   su.email,
			Subject: "seed|" + su.email,
			Name:    su.name,
		})
		if err != nil {
			log.Fatalf("Failed to issue token for %s: %v", su.email, err)
		}
		fmt.Printf("  %-26s %s\n", su.email, token)
	}
}
