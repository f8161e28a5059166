package config

import (
	"github.com/JaimeStill/smart-ocr/pkg/database"
	"github.com/JaimeStill/smart-ocr/pkg/logging"
	"github.com/JaimeStill/smart-ocr/pkg/memorydb"
	"github.com/JaimeStill/smart-ocr/pkg/middleware"
	"github.com/JaimeStill/smart-ocr/pkg/pagination"
	"github.com/JaimeStill/smart-ocr/pkg/storage"
)

var serverEnv = &ServerEnv{
	Host:            "SERVER_HOST",
	Port:            "SERVER_PORT",
	ReadTimeout:     "SERVER_READ_TIMEOUT",
	WriteTimeout:    "SERVER_WRITE_TIMEOUT",
	ShutdownTimeout: "SERVER_SHUTDOWN_TIMEOUT",
}

var databaseEnv = &database.Env{
	Host:            "DATABASE_HOST",
	Port:            "DATABASE_PORT",
	Name:            "DATABASE_NAME",
	User:            "DATABASE_USER",
	Password:        "DATABASE_PASSWORD",
	SSLMode:         "DATABASE_SSL_MODE",
	MaxOpenConns:    "DATABASE_MAX_OPEN_CONNS",
	MaxIdleConns:    "DATABASE_MAX_IDLE_CONNS",
	ConnMaxLifetime: "DATABASE_CONN_MAX_LIFETIME",
	ConnTimeout:     "DATABASE_CONN_TIMEOUT",
	AutoMigrate:     "DATABASE_AUTO_MIGRATE",
}

var redisEnv = &RedisEnv{
	Client: memorydb.Env{
		Addrs:    "REDIS_ADDRS",
		Username: "REDIS_USERNAME",
		Password: "REDIS_PASSWORD",
		DB:       "REDIS_DB",
		PoolSize: "REDIS_POOL_SIZE",
	},
	KeyPrefix: "REDIS_KEY_PREFIX",
	StatusTTL: "REDIS_STATUS_TTL",
}

var storageEnv = &storage.Env{
	Backend:        "STORAGE_BACKEND",
	Bucket:         "STORAGE_BUCKET",
	BasePath:       "STORAGE_BASE_PATH",
	MaxUploadSize:  "STORAGE_MAX_UPLOAD_SIZE",
	SignedURLTTL:   "STORAGE_SIGNED_URL_TTL",
	SigningKey:     "STORAGE_SIGNING_KEY",
	PublicURL:      "STORAGE_PUBLIC_URL",
	S3Region:       "STORAGE_S3_REGION",
	S3Endpoint:     "STORAGE_S3_ENDPOINT",
	S3AccessKeyID:  "STORAGE_S3_ACCESS_KEY_ID",
	S3SecretKey:    "STORAGE_S3_SECRET_ACCESS_KEY",
	S3UsePathStyle: "STORAGE_S3_USE_PATH_STYLE",
}

var queueEnv = &QueueEnv{
	Name:           "QUEUE_NAME",
	Workers:        "QUEUE_WORKERS",
	MaxAttempts:    "QUEUE_MAX_ATTEMPTS",
	BlockTimeout:   "QUEUE_BLOCK_TIMEOUT",
	ProcessTimeout: "QUEUE_PROCESS_TIMEOUT",
	RetryBackoff:   "QUEUE_RETRY_BACKOFF",
	HeartbeatTTL:   "QUEUE_HEARTBEAT_TTL",
	ConsumerID:     "QUEUE_CONSUMER_ID",
}

var pipelineEnv = &PipelineEnv{
	FetchTimeout:      "PIPELINE_FETCH_TIMEOUT",
	RecognizeTimeout:  "PIPELINE_RECOGNIZE_TIMEOUT",
	EntitiesTimeout:   "PIPELINE_ENTITIES_TIMEOUT",
	ScratchDir:        "PIPELINE_SCRATCH_DIR",
	TesseractBinary:   "PIPELINE_TESSERACT_BINARY",
	TesseractLanguage: "PIPELINE_TESSERACT_LANGUAGE",
	RasterDPI:         "PIPELINE_RASTER_DPI",
	MaxPages:          "PIPELINE_MAX_PAGES",
}

var loggingEnv = &logging.Env{
	Level:  "LOGGING_LEVEL",
	Format: "LOGGING_FORMAT",
	File:   "LOGGING_FILE",
}

var corsEnv = &middleware.CORSEnv{
	Enabled:          "CORS_ENABLED",
	Origins:          "CORS_ORIGINS",
	AllowedMethods:   "CORS_ALLOWED_METHODS",
	AllowedHeaders:   "CORS_ALLOWED_HEADERS",
	AllowCredentials: "CORS_ALLOW_CREDENTIALS",
	MaxAge:           "CORS_MAX_AGE",
}

var paginationEnv = &pagination.Env{
	DefaultPageSize: "PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "PAGINATION_MAX_PAGE_SIZE",
}
