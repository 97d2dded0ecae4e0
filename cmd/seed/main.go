// Command seed fills the database with generated data.
package main

import (
	"context"
	"flag"
	"log"

	"arche/internal/config"
	"arche/internal/database"
	"arche/internal/seed"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.Profiles, "profiles", opts.Profiles, "Number of profiles to create")
	flag.IntVar(&opts.Savoirs, "savoirs", opts.Savoirs, "Number of savoirs to create")
	flag.IntVar(&opts.MaxVotes, "max-votes", opts.MaxVotes, "Maximum votes per savoir")
	flag.IntVar(&opts.MaxComments, "max-comments", opts.MaxComments, "Maximum comments per savoir")
	flag.BoolVar(&opts.Clean, "clean", opts.Clean, "Clean database before seeding")
	flag.Int64Var(&opts.RandSeed, "rand-seed", 0, "Random seed for a reproducible dataset (0 = random)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d profiles, %d savoirs, clean=%v\n", opts.Profiles, opts.Savoirs, opts.Clean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sum, err := seed.NewSeeder(db, opts).Run(ctx)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✓ %d profiles, %d savoirs, %d votes, %d comments, %d reactions, %d follows, %d favorites",
		sum.Profiles, sum.Savoirs, sum.Votes, sum.Comments, sum.Reactions, sum.Follows, sum.Favorites)
	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 All seeded accounts have the password: %s", seed.DefaultPassword)
}
