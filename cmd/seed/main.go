// Command main runs the database seeder for Ask Away.
package main

import (
	"context"
	"flag"
	"log"

	"askaway/internal/bootstrap"
	"askaway/internal/config"
	"askaway/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 0, "Number of extra generated users")
	numQuestions := flag.Int("questions", 0, "Number of extra generated questions")
	maxAnswers := flag.Int("max-answers", 4, "Maximum generated answers per generated question")
	maxDays := flag.Int("days", 30, "Spread generated timestamps over this many days")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: sample data + %d users, %d questions, clean=%v\n", *numUsers, *numQuestions, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = rt.Close(context.Background()) }()

	result, err := seed.New(rt.Repos, rt.Cleaner).Seed(ctx, seed.Options{
		Users:       *numUsers,
		Questions:   *numQuestions,
		MaxAnswers:  *maxAnswers,
		MaxDays:     *maxDays,
		ShouldClean: *shouldClean,
		SkipBcrypt:  *numUsers > 100,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! users=%d questions=%d answers=%d stars=%d",
		result.Users, result.Questions, result.Answers, result.Stars)
	log.Printf("📧 Generated users have the password: %s", seed.GeneratedPassword)
}
