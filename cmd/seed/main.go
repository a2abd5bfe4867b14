package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dchole/handymen/internal/db"
)

var professions = []string{
	"Plumbing",
	"Electrical",
	"Carpentry",
	"Painting",
	"Roofing",
	"Landscaping",
	"HVAC",
	"Masonry",
	"Flooring",
	"Appliance Repair",
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	// One shared hash keeps seeding fast; every seeded account logs in
	// with "Password1!".
	hash, err := bcrypt.GenerateFromPassword([]byte("Password1!"), bcrypt.MinCost)
	if err != nil {
		log.Fatalf("hash seed password: %v", err)
	}

	if err := seedHandymen(context.Background(), pool, string(hash), 50); err != nil {
		log.Fatalf("seed handymen: %v", err)
	}
	if err := seedCustomers(context.Background(), pool, string(hash), 500); err != nil {
		log.Fatalf("seed customers: %v", err)
	}

	log.Println("seed complete")
}

func seedHandymen(ctx context.Context, pool *pgxpool.Pool, passwordHash string, count int) error {
	log.Printf("seeding %d handymen", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		userID := uuid.New()
		profileID := uuid.New()

		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, first_name, last_name, email, password_hash, account_type, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, 'HANDYMAN', now(), now())
		`, userID, gofakeit.FirstName(), gofakeit.LastName(), gofakeit.Email(), passwordHash)
		if err != nil {
			return err
		}

		trades := pickProfessions()
		_, err = tx.Exec(ctx, `
			INSERT INTO handyman_profiles (id, user_id, professions, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, profileID, userID, trades)
		if err != nil {
			return err
		}

		if err := seedWindows(ctx, tx, profileID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("handymen seeded")
	return nil
}

// seedWindows gives a handyman one working block per day for the next
// two weeks. Blocks never touch, so the no-overlap rule holds.
func seedWindows(ctx context.Context, tx pgx.Tx, profileID uuid.UUID) error {
	day := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)

	for d := 0; d < 14; d++ {
		startHour := gofakeit.Number(7, 10)
		hours := gofakeit.Number(4, 9)

		start := day.Add(time.Duration(d)*24*time.Hour + time.Duration(startHour)*time.Hour)
		end := start.Add(time.Duration(hours) * time.Hour)

		_, err := tx.Exec(ctx, `
			INSERT INTO available_slots (id, handyman_profile_id, start_time, end_time, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, uuid.New(), profileID, start, end)
		if err != nil {
			return err
		}
	}

	return nil
}

func seedCustomers(ctx context.Context, pool *pgxpool.Pool, passwordHash string, count int) error {
	log.Printf("seeding %d customers", count)

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			userID := uuid.New()

			_, err := tx.Exec(ctx, `
				INSERT INTO users (id, first_name, last_name, email, password_hash, account_type, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, 'CUSTOMER', now(), now())
			`, userID, gofakeit.FirstName(), gofakeit.LastName(), gofakeit.Email(), passwordHash)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO customer_profiles (id, user_id, created_at, updated_at)
				VALUES ($1, $2, now(), now())
			`, uuid.New(), userID)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("customers seeded: %d/%d", end, count)
	}

	log.Println("customers seeded")
	return nil
}

func pickProfessions() []string {
	n := gofakeit.Number(1, 3)
	picked := make([]string, 0, n)
	seen := make(map[string]bool)
	for len(picked) < n {
		p := professions[gofakeit.Number(0, len(professions)-1)]
		if !seen[p] {
			seen[p] = true
			picked = append(picked, p)
		}
	}
	return picked
}
