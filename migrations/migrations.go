package migrations

import (
	"database/sql"
	"fmt"
	"time"
)

type User struct {
	ID        int       `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

var db *sql.DB

// Init sets the DB connection for migrations and queries
func Init(database *sql.DB) {
	db = database
}

// Migrate creates required tables if they do not exist
func Migrate() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	createUsers := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		email VARCHAR(191) NOT NULL UNIQUE,
		password VARCHAR(191) NOT NULL,
		role VARCHAR(50) NOT NULL DEFAULT 'user',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createUsers); err != nil {
		return err
	}

	createPlans := `
	CREATE TABLE IF NOT EXISTS subscription_plans (
		id VARCHAR(50) PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		currency VARCHAR(10) NOT NULL DEFAULT 'USD',
		price DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		stripe_product_id VARCHAR(191) NOT NULL DEFAULT '',
		stripe_price_id VARCHAR(191) NOT NULL DEFAULT ''
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createPlans); err != nil {
		return err
	}

	createSubs := `
	CREATE TABLE IF NOT EXISTS subscriptions (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		plan_id VARCHAR(50) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		current_period_end DATETIME NULL,
		addons JSON NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (plan_id) REFERENCES subscription_plans(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createSubs); err != nil {
		return err
	}

	createGuides := `
	CREATE TABLE IF NOT EXISTS guides (
		id VARCHAR(36) PRIMARY KEY,
		slug VARCHAR(191) NOT NULL UNIQUE,
		owner_id INT NOT NULL,
		title VARCHAR(255) NOT NULL,
		theme_id VARCHAR(50) NOT NULL DEFAULT '',
		blocks JSON NULL,
		published TINYINT(1) NOT NULL DEFAULT 0,
		city_hint VARCHAR(100) NOT NULL DEFAULT '',
		manual_text MEDIUMTEXT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE,
		INDEX idx_guides_owner (owner_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createGuides); err != nil {
		return err
	}
	return nil
}

func GetUserByEmail(email string) *User {
	if db == nil {
		return nil
	}
	row := db.QueryRow(`SELECT id, first_name, last_name, email, password, role FROM users WHERE email=? LIMIT 1`, email)
	var u User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password, &u.Role); err != nil {
		return nil
	}
	return &u
}

func EmailExists(email string) (bool, error) {
	if db == nil {
		return false, fmt.Errorf("db is not initialized")
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(1) FROM users WHERE email=?`, email).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func CreateUser(firstName, lastName, email, password, role string) (int, error) {
	if db == nil {
		return 0, fmt.Errorf("db is not initialized")
	}
	if role == "" {
		role = "user"
	}
	res, err := db.Exec(`INSERT INTO users (first_name, last_name, email, password, role) VALUES (?,?,?,?,?)`,
		firstName, lastName, email, password, role)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}
