// Command seed fills the database with demo users, ideas and activity.
package main

import (
	"context"
	"flag"
	"log"

	"kaizen/internal/config"
	"kaizen/internal/database"
	"kaizen/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of extra users to create")
	numPosts := flag.Int("posts", 30, "Number of extra posts to create")
	maxComments := flag.Int("comments", 5, "Maximum comments per post")
	maxDays := flag.Int("days", 90, "Spread creation dates over this many past days")
	shouldClean := flag.Bool("clean", false, "Remove existing users, posts and activity first")
	randSeed := flag.Int64("seed", 0, "Random seed (0 uses the current time)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	rate, err := cfg.HourlyRate()
	if err != nil {
		log.Fatalf("Invalid hourly rate: %v", err)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	stats, err := seed.Seed(ctx, db, seed.Options{
		NumUsers:           *numUsers,
		NumPosts:           *numPosts,
		MaxCommentsPerPost: *maxComments,
		MaxDays:            *maxDays,
		ShouldClean:        *shouldClean,
		RandSeed:           *randSeed,
		HourlyRate:         rate,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Created %d users, %d posts, %d surveys, %d comments, %d likes",
		stats.Users, stats.Posts, stats.Surveys, stats.Comments, stats.Likes)
	log.Printf("📧 Generated users have the password: %s", seed.DefaultPassword)
}
