package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	MaxParticipants int
	MinParticipants int

	CountdownSeconds int
	TickInterval     time.Duration

	TapDurationSeconds int
	MaxTapsPerSecond   int
	ChallengeInterval  time.Duration
	ChallengeWindow    time.Duration

	VoteDurationSeconds    int
	QuestionDisplaySeconds int
	BuzzWindowSeconds      int
	TriviaRounds           int
	CategoryOptions        int

	RouletteChambers   int
	RouletteRounds     int
	PickTimeoutSeconds int
	RevealSeconds      int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
}

func Default() Config {
	return Config{
		MaxParticipants: 12,
		MinParticipants: 2,

		CountdownSeconds: 3,
		TickInterval:     500 * time.Millisecond,

		TapDurationSeconds: 10,
		MaxTapsPerSecond:   20,
		ChallengeInterval:  2 * time.Second,
		ChallengeWindow:    2 * time.Second,

		VoteDurationSeconds:    15,
		QuestionDisplaySeconds: 3,
		BuzzWindowSeconds:      10,
		TriviaRounds:           3,
		CategoryOptions:        3,

		RouletteChambers:   6,
		RouletteRounds:     5,
		PickTimeoutSeconds: 10,
		RevealSeconds:      3,

		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
	}
}

func Load() Config {
	cfg := Default()
	loadInt(&cfg.MaxParticipants, "MAX_PARTICIPANTS")
	loadInt(&cfg.MinParticipants, "MIN_PARTICIPANTS")
	loadInt(&cfg.CountdownSeconds, "COUNTDOWN_SECONDS")
	loadDuration(&cfg.TickInterval, "TICK_INTERVAL")
	loadInt(&cfg.TapDurationSeconds, "TAP_DURATION_SECONDS")
	loadInt(&cfg.MaxTapsPerSecond, "MAX_TAPS_PER_SECOND")
	loadDuration(&cfg.ChallengeInterval, "CHALLENGE_INTERVAL")
	loadDuration(&cfg.ChallengeWindow, "CHALLENGE_WINDOW")
	loadInt(&cfg.VoteDurationSeconds, "VOTE_SECONDS")
	loadInt(&cfg.QuestionDisplaySeconds, "QUESTION_DISPLAY_SECONDS")
	loadInt(&cfg.BuzzWindowSeconds, "BUZZ_WINDOW_SECONDS")
	loadInt(&cfg.TriviaRounds, "TRIVIA_ROUNDS")
	loadInt(&cfg.CategoryOptions, "CATEGORY_OPTIONS")
	loadInt(&cfg.RouletteChambers, "ROULETTE_CHAMBERS")
	loadInt(&cfg.RouletteRounds, "ROULETTE_ROUNDS")
	loadInt(&cfg.PickTimeoutSeconds, "PICK_TIMEOUT_SECONDS")
	loadInt(&cfg.RevealSeconds, "REVEAL_SECONDS")
	loadInt(&cfg.DBMaxOpenConns, "DB_MAX_OPEN_CONNS")
	loadInt(&cfg.DBMaxIdleConns, "DB_MAX_IDLE_CONNS")
	loadInt(&cfg.DBConnMaxLifetimeSeconds, "DB_CONN_MAX_LIFETIME_SECONDS")
	loadInt(&cfg.DBConnMaxIdleTimeSeconds, "DB_CONN_MAX_IDLE_SECONDS")
	if raw := os.Getenv("REDIS_ADDR"); raw != "" {
		cfg.RedisAddr = raw
	}
	if raw := os.Getenv("REDIS_PASSWORD"); raw != "" {
		cfg.RedisPassword = raw
	}
	loadInt(&cfg.RedisDB, "REDIS_DB")
	return cfg
}

func loadInt(target *int, key string) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	if value, err := strconv.Atoi(raw); err == nil && value > 0 {
		*target = value
	}
}

func loadDuration(target *time.Duration, key string) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	if value, err := time.ParseDuration(raw); err == nil && value > 0 {
		*target = value
	}
}
