package main

import (
	"database/sql"
	"directory-map-service/internal/adapters/repositories"
	"directory-map-service/internal/config"
	"directory-map-service/internal/platform/db"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// dbtool initialises the Postgres directory schema and seeds it from JSON.
// With -sqlite it targets a SQLite file instead.
func main() {
	sqlitePath := flag.String("sqlite", "", "seed this SQLite file instead of DATABASE_URL")
	schemaOnly := flag.Bool("schema-only", false, "create the schema without seeding")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	var (
		conn    *sql.DB
		dialect repositories.Dialect
		err     error
	)

	if *sqlitePath != "" {
		conn, err = db.OpenSqlite(*sqlitePath)
		dialect = repositories.Sqlite
	} else {
		databaseURL := os.Getenv("DATABASE_URL")
		if strings.TrimSpace(databaseURL) == "" {
			log.Fatal("DATABASE_URL is required")
		}
		conn, err = db.Open(databaseURL)
		dialect = repositories.Postgres
	}
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	log.Printf("Initializing database schema dialect=%s...", dialect.Name)
	if err := repositories.InitSchema(conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	if *schemaOnly {
		return
	}

	seedPath := config.Get("SEED_PATH", "data/seeds/businesses.json")
	log.Printf("Seeding database from %s...", seedPath)
	if err := repositories.SeedFromJSON(conn, dialect, seedPath); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Seeding complete.")
}
