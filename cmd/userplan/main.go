package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"possessher/internal/adapter/repo"
	"possessher/internal/domain"
	"possessher/internal/infra"
)

func main() {
	var (
		emailFlag  string
		planFlag   string
		showFlag   bool
		timeoutSec int
	)

	flag.StringVar(&emailFlag, "email", "", "profile email to update")
	flag.StringVar(&planFlag, "plan", "pro", "plan to assign (free, pro)")
	flag.BoolVar(&showFlag, "show", false, "print the current plan without changing it")
	flag.IntVar(&timeoutSec, "timeout", 10, "database timeout in seconds")
	flag.Parse()

	_ = godotenv.Load()

	email := strings.TrimSpace(emailFlag)
	plan := domain.UserPlan(strings.TrimSpace(strings.ToLower(planFlag)))
	if email == "" {
		exitWithError(errors.New("-email is required"))
	}
	switch plan {
	case domain.UserPlanFree, domain.UserPlanPro:
	default:
		exitWithError(fmt.Errorf("unsupported plan %q", plan))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	pool, err := infra.OpenPool(ctx, dbURL, 1)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "userplan").Logger()
	profiles := repo.NewProfileRepository(infra.NewSQLRunner(pool, logger))

	var profile *domain.Profile
	if showFlag {
		profile, err = profiles.Get(ctx, email)
	} else {
		profile, err = profiles.SetPro(ctx, email, plan == domain.UserPlanPro)
	}
	if errors.Is(err, domain.ErrNotFound) {
		exitWithError(fmt.Errorf("no profile for %s", email))
	}
	if err != nil {
		exitWithError(fmt.Errorf("failed to update profile: %w", err))
	}

	fmt.Printf("Profile %s (%s) plan=%s\n", profile.ID, profile.Email, domain.PlanFor(profile.IsPro))
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
