package config

import (
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	CleanupScopeFile   = "file"
	CleanupScopeGlobal = "global"
)

// Config 환경변수에서 읽는 서버 설정
type Config struct {
	AppEnv       string `env:"APP_ENV,default=development" validate:"oneof=production development"`
	Port         int    `env:"PORT,default=3000" validate:"min=1,max=65535"`
	PublicOrigin string `env:"PUBLIC_ORIGIN" validate:"required_if=AppEnv production"`

	DBType string `env:"DB_TYPE,default=sqlite" validate:"oneof=sqlite mysql"`
	DBDSN  string `env:"DB_DSN,default=./fileshare.db" validate:"required"`

	// 5MB 초과 업로드에 필요한 공유 PIN
	UploadPin string `env:"UPLOAD_PIN"`

	AccessToken      string        `env:"ACCESS_TOKEN" validate:"required_if=AppEnv production"`
	ShortenerURL     string        `env:"SHORTENER_URL,default=https://api.tinyurl.com/create" validate:"url"`
	ShortenerDomain  string        `env:"SHORTENER_DOMAIN,default=tinyurl.com"`
	ShortenerTimeout time.Duration `env:"SHORTENER_TIMEOUT,default=10s"`

	StagingDir        string        `env:"STAGING_DIR,default=./uploads" validate:"required"`
	CleanupDelay      time.Duration `env:"CLEANUP_DELAY,default=5s"`
	CleanupScope      string        `env:"CLEANUP_SCOPE,default=file" validate:"oneof=file global"`
	StagingMaxAge     time.Duration `env:"STAGING_MAX_AGE,default=1h" validate:"gt=0"`
	StrictUniqueNames bool          `env:"STRICT_UNIQUE_NAMES,default=false"`
	MaxUploadSize     int           `env:"MAX_UPLOAD_SIZE,default=104857600" validate:"gt=0"`

	DetailsCacheSize int           `env:"DETAILS_CACHE_SIZE,default=1024" validate:"gt=0"`
	DetailsCacheTTL  time.Duration `env:"DETAILS_CACHE_TTL,default=1m"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
	LogDir   string `env:"LOG_DIR,default=./logs"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Load .env(있으면)와 환경변수에서 설정을 읽고 검증한다.
func Load() (*Config, error) {
	// .env는 선택 사항
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 구조체 태그 규칙 검사
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.PublicOrigin != "" {
		if err := v.Var(c.PublicOrigin, "url"); err != nil {
			return fmt.Errorf("invalid configuration: PUBLIC_ORIGIN: %w", err)
		}
	}
	return nil
}

// Production 단축 URL 서비스를 쓰는 운영 모드인지 여부
func (c *Config) Production() bool {
	return c.AppEnv == EnvProduction
}

// Origin 공개 링크의 기준 주소. 개발 모드에서 비어 있으면 localhost를 쓴다.
func (c *Config) Origin() string {
	if c.PublicOrigin != "" {
		return strings.TrimRight(c.PublicOrigin, "/")
	}
	return fmt.Sprintf("http://localhost:%d", c.Port)
}

// Addr 서버 listen 주소
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
