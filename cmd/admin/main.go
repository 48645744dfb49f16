// Package main provides operator utilities for Ask Away: platform stats,
// account lookup and removal, and one-off runs of the integration jobs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"askaway/internal/bootstrap"
	"askaway/internal/config"
	"askaway/internal/integrations"
	"askaway/internal/models"
	"askaway/internal/service"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin/main.go stats                 - Print platform totals")
	fmt.Println("  go run ./cmd/admin/main.go user <username>       - Show a user and their stats")
	fmt.Println("  go run ./cmd/admin/main.go delete-user <username> - Remove a user account")
	fmt.Println("  go run ./cmd/admin/main.go daily-summary         - Send yesterday's summary to Slack now")
	fmt.Println("  go run ./cmd/admin/main.go backup                - Upload a platform backup to S3 now")
	fmt.Println("  go run ./cmd/admin/main.go metrics               - Publish platform metrics to CloudWatch now")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = rt.Close(context.Background()) }()

	command := os.Args[1]
	switch command {
	case "stats":
		stats, err := rt.Repos.Stats.Platform(ctx)
		if err != nil {
			log.Fatalf("Failed to load stats: %v", err)
		}
		printJSON(stats)

	case "user", "delete-user":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin/main.go %s <username>\n", command)
			os.Exit(1)
		}
		user := lookupUser(ctx, rt, os.Args[2])
		if command == "user" {
			stats, err := rt.Repos.Stats.User(ctx, user.ID)
			if err != nil {
				log.Fatalf("Failed to load user stats: %v", err)
			}
			printJSON(map[string]any{"user": user, "stats": stats})
			return
		}
		if err := rt.Repos.Users.Delete(ctx, user.ID); err != nil {
			log.Fatalf("Failed to delete user: %v", err)
		}
		fmt.Printf("✅ Deleted %s (ID: %s)\n", user.Username, user.ID)

	case "daily-summary", "backup", "metrics":
		runJob(ctx, cfg, rt, command)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
	}
}

func lookupUser(ctx context.Context, rt *bootstrap.Runtime, username string) *models.User {
	user, err := rt.Repos.Users.GetByUsername(ctx, username)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	if user == nil {
		fmt.Printf("User %s not found\n", username)
		os.Exit(1)
	}
	return user
}

// runJob runs an integration job in the foreground so the process waits for
// the upload or post to finish.
func runJob(ctx context.Context, cfg *config.Config, rt *bootstrap.Runtime, job string) {
	slack := integrations.NewSlack(integrations.SlackConfig{
		BotToken:     cfg.SlackBotToken,
		Channel:      cfg.SlackChannel,
		StatsChannel: cfg.SlackStatsChannel,
		FrontendURL:  cfg.FrontendURL,
	})
	cloud, err := integrations.NewAWS(ctx, integrations.AWSConfig{
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Region:          cfg.AWSRegion,
		Bucket:          cfg.AWSS3Bucket,
	})
	if err != nil {
		log.Fatalf("Failed to configure AWS: %v", err)
	}

	svc := service.NewIntegrationService(slack, cloud, nil, rt.Repos.Stats, rt.Repos.Questions, foreground)
	status := svc.Status()

	switch job {
	case "daily-summary":
		if !status.Slack.Configured {
			log.Fatal("Slack is not configured")
		}
		activity, err := svc.ScheduleDailySummary(ctx)
		if err != nil {
			log.Fatalf("Daily summary failed: %v", err)
		}
		printJSON(activity)
	case "backup":
		if !cloud.S3Configured() {
			log.Fatal("S3 is not configured")
		}
		res, err := svc.ScheduleBackup(ctx, "admin-cli")
		if err != nil {
			log.Fatalf("Backup failed: %v", err)
		}
		printJSON(res)
	case "metrics":
		res, err := svc.ScheduleMetrics(ctx)
		if err != nil {
			log.Fatalf("Metrics failed: %v", err)
		}
		printJSON(res)
	}
}

// foreground is a service.Spawner that runs the job before returning and
// exits on failure.
func foreground(ctx context.Context, operation string, fn func(ctx context.Context) error) {
	if err := fn(ctx); err != nil {
		log.Fatalf("%s failed: %v", operation, err)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("encode: %v", err)
	}
}
