package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/kevenm/barber-booking/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	_ = godotenv.Load()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, db.Config{DSN: dsn})
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	profID, err := seedProfessional(context.Background(), pool)
	if err != nil {
		log.Fatalf("seed professional: %v", err)
	}
	clientIDs, err := seedClients(context.Background(), pool, 25)
	if err != nil {
		log.Fatalf("seed clients: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, profID, clientIDs, 60); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
	log.Printf("professional login: barber@admin.com / barber123 (id=%s)", profID)
}

func seedProfessional(ctx context.Context, pool *pgxpool.Pool) (uuid.UUID, error) {
	id := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("barber123"), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO professionals (id, name, phone_number, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (email) DO NOTHING
	`, id, "Barbearia Sarty", gofakeit.Phone(), "barber@admin.com", string(hash))
	if err != nil {
		return uuid.Nil, err
	}

	// The insert may have been a no-op on rerun; read the id back.
	var existingID uuid.UUID
	err = pool.QueryRow(ctx, `SELECT id FROM professionals WHERE email = $1`, "barber@admin.com").Scan(&existingID)
	if err != nil {
		return uuid.Nil, err
	}

	log.Println("professional seeded")
	return existingID, nil
}

func seedClients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d clients", count)

	hash, err := bcrypt.GenerateFromPassword([]byte("client123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		email := gofakeit.Email()
		phone := gofakeit.Phone()

		_, err := tx.Exec(ctx, `
			INSERT INTO clients (id, name, email, phone, password_hash, created_at)
			VALUES ($1, $2, $3, $4, $5, now())
			ON CONFLICT (email) DO NOTHING
		`, id, name, email, phone, string(hash))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("clients seeded")
	return ids, nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, profID uuid.UUID, clientIDs []uuid.UUID, count int) error {
	log.Printf("seeding %d appointments", count)

	statuses := []string{"pending", "confirmed", "cancelled"}
	hours := []string{"09:00", "09:30", "10:00", "10:30", "11:00", "14:00", "14:30", "15:00", "15:30", "16:00"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	base := time.Now().AddDate(0, 0, -count/4)

	inserted := 0
	for day := 0; inserted < count; day++ {
		date := base.AddDate(0, 0, day).Format("2006-01-02")
		for _, hour := range hours {
			if inserted >= count {
				break
			}
			// Leave ~half the slots open so the seeded calendar is bookable.
			if gofakeit.Bool() {
				continue
			}

			var clientID *uuid.UUID
			name := gofakeit.Name()
			if len(clientIDs) > 0 && gofakeit.Bool() {
				id := clientIDs[gofakeit.Number(0, len(clientIDs)-1)]
				clientID = &id
			}
			status := statuses[gofakeit.Number(0, len(statuses)-1)]

			_, err := tx.Exec(ctx, `
				INSERT INTO appointments (id, client_name, date, time, status, professional_id, client_id, created_at)
				VALUES ($1, $2, $3::date, $4::time, $5, $6, $7, now())
			`, uuid.New(), name, date, hour, status, profID, clientID)
			if err != nil {
				return fmt.Errorf("insert appointment %s %s: %w", date, hour, err)
			}
			inserted++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("appointments seeded")
	return nil
}
