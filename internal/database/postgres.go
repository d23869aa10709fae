package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// DBConfig holds database configuration.
//
// LockTimeout bounds how long a settlement waits on another request's
// account row lock before failing; without it a stalled transaction holding
// FOR UPDATE queues every later wager on that account behind it.
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	ApplicationName string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	LockTimeout     time.Duration
	ConnectTimeout  time.Duration
}

// GetConfig returns database configuration with defaults
func GetConfig() *DBConfig {
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.name", "betablockz")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.application_name", "betablockz-ledger")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", time.Minute*5)
	viper.SetDefault("database.conn_max_idle_time", time.Minute)
	viper.SetDefault("database.lock_timeout", 5*time.Second)
	viper.SetDefault("database.connect_timeout", 10*time.Second)

	return &DBConfig{
		Host:            viper.GetString("database.host"),
		Port:            viper.GetString("database.port"),
		User:            viper.GetString("database.user"),
		Password:        viper.GetString("database.password"),
		Name:            viper.GetString("database.name"),
		SSLMode:         viper.GetString("database.ssl_mode"),
		ApplicationName: viper.GetString("database.application_name"),
		MaxOpenConns:    viper.GetInt("database.max_open_conns"),
		MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: viper.GetDuration("database.conn_max_lifetime"),
		ConnMaxIdleTime: viper.GetDuration("database.conn_max_idle_time"),
		LockTimeout:     viper.GetDuration("database.lock_timeout"),
		ConnectTimeout:  viper.GetDuration("database.connect_timeout"),
	}
}

// DSN renders the lib/pq key/value connection string. Keys lib/pq does not
// know itself (lock_timeout) are sent to the server as session parameters.
func (c *DBConfig) DSN() string {
	parts := []string{
		"host=" + dsnValue(c.Host),
		"port=" + dsnValue(c.Port),
		"user=" + dsnValue(c.User),
		"password=" + dsnValue(c.Password),
		"dbname=" + dsnValue(c.Name),
		"sslmode=" + dsnValue(c.SSLMode),
	}
	if c.ApplicationName != "" {
		parts = append(parts, "application_name="+dsnValue(c.ApplicationName))
	}
	if c.ConnectTimeout > 0 {
		// whole seconds, rounded up so a sub-second value is not read as "no timeout"
		secs := int64((c.ConnectTimeout + time.Second - 1) / time.Second)
		parts = append(parts, "connect_timeout="+strconv.FormatInt(secs, 10))
	}
	if c.LockTimeout > 0 {
		parts = append(parts, "lock_timeout="+strconv.FormatInt(c.LockTimeout.Milliseconds(), 10))
	}
	return strings.Join(parts, " ")
}

// dsnValue quotes values that would otherwise split the key/value string.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// InitDB opens the pool and verifies the server is reachable.
func InitDB() (*sql.DB, error) {
	config := GetConfig()

	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout+time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	log.Info().
		Str("host", config.Host).
		Str("database", config.Name).
		Dur("lock_timeout", config.LockTimeout).
		Int("max_open_conns", config.MaxOpenConns).
		Msg("Database connection established")
	return db, nil
}

// InitDatabase initializes database with error handling
func InitDatabase() *sql.DB {
	db, err := InitDB()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	return db
}
