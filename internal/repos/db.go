package repos

import (
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"shopfront/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one connection: keeps :memory: databases coherent and serializes sqlite writers
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// SeedCatalog inserts demo products for the business when it has none.
func SeedCatalog(db *sqlx.DB, businessID string) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products WHERE business_id = ?`, businessID); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo products")

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()
	tx.MustExec(`INSERT INTO products(id,business_id,name,description,price,image) VALUES
	  ('cake-001',?,'Chocolate Cake','Two layer chocolate sponge','250.00','products/cake-001/main.jpg'),
	  ('cake-002',?,'Vanilla Cupcakes','Box of six','90.00','products/cake-002/main.jpg'),
	  ('print-001',?,'Custom Photo Print','Send us your photo','45.50','products/print-001/main.jpg')`,
		businessID, businessID, businessID)
	return tx.Commit()
}

// SeedAdmin ensures a back office admin exists (idempotent).
func SeedAdmin(db *sqlx.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO users(id,email,name,password_hash,role)
		VALUES(?,?,?,?,?)
		ON CONFLICT(email) DO NOTHING
	`, uuid.NewString(), email, "Admin", string(h), domain.RoleAdmin)
	return err
}
