package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Geofence   GeofenceConfig   `yaml:"geofence"`
	Attendance AttendanceConfig `yaml:"attendance"`
	Verify     VerifyConfig     `yaml:"verify"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Sweeper    SweeperConfig    `yaml:"sweeper"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// AuthConfig holds token verification settings for the API middleware.
type AuthConfig struct {
	JWTSecret  string   `yaml:"jwt_secret"`
	AdminRoles []string `yaml:"admin_roles"`
}

// GeofenceConfig defines the single allowed check-in region.
type GeofenceConfig struct {
	CenterLongitude float64 `yaml:"center_longitude"`
	CenterLatitude  float64 `yaml:"center_latitude"`
	RadiusMeters    float64 `yaml:"radius_meters"`
}

// AttendanceConfig holds session policy settings.
type AttendanceConfig struct {
	Timezone                string `yaml:"timezone"`
	LateHour                int    `yaml:"late_hour"`
	OpenSessionLookbackDays int    `yaml:"open_session_lookback_days"`
}

// VerifyConfig holds credential verification thresholds and windows.
type VerifyConfig struct {
	FaceMatchThreshold  float64 `yaml:"face_match_threshold"`
	QRSecret            string  `yaml:"qr_secret"`
	QRTokenTTLHours     int     `yaml:"qr_token_ttl_hours"`
	QRScanWindowMinutes int     `yaml:"qr_scan_window_minutes"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// SweeperConfig controls the background open-session sweep.
type SweeperConfig struct {
	Enabled             bool          `yaml:"enabled"`
	IntervalSeconds     int           `yaml:"interval_seconds"`
	Interval            time.Duration `yaml:"-"` // Ignored by YAML parser
	OpenSessionMaxHours int           `yaml:"open_session_max_hours"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 20
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Geofence.RadiusMeters <= 0 {
		cfg.Geofence.RadiusMeters = 500
	}

	if cfg.Attendance.Timezone == "" {
		cfg.Attendance.Timezone = "UTC"
	}
	if cfg.Attendance.LateHour <= 0 {
		cfg.Attendance.LateHour = 9
	}
	if cfg.Attendance.OpenSessionLookbackDays <= 0 {
		cfg.Attendance.OpenSessionLookbackDays = 30
	}

	if cfg.Verify.FaceMatchThreshold <= 0 {
		cfg.Verify.FaceMatchThreshold = 0.6
	}
	if cfg.Verify.QRTokenTTLHours <= 0 {
		cfg.Verify.QRTokenTTLHours = 12
	}
	if cfg.Verify.QRScanWindowMinutes <= 0 {
		cfg.Verify.QRScanWindowMinutes = 5
	}

	if len(cfg.Auth.AdminRoles) == 0 {
		cfg.Auth.AdminRoles = []string{"admin", "hr"}
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Sweeper.IntervalSeconds <= 0 {
		cfg.Sweeper.IntervalSeconds = 600
	}
	cfg.Sweeper.Interval = time.Duration(cfg.Sweeper.IntervalSeconds) * time.Second
	if cfg.Sweeper.OpenSessionMaxHours <= 0 {
		cfg.Sweeper.OpenSessionMaxHours = 12
	}

	return &cfg, nil
}
