package config

// Config holds all worker configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Broker   BrokerConfig   `mapstructure:"broker" validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker" validate:"required"`
}

// ServerConfig contains process-level settings for the worker.
type ServerConfig struct {
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// HealthPort is where the liveness/readiness endpoints listen.
	HealthPort int `mapstructure:"health_port" validate:"required,gt=0,lt=65536"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`

	// AutoMigrate runs pending schema migrations on startup when true.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// BrokerConfig contains the RabbitMQ connection and queue settings.
// Publisher and consumer must agree on QueueName and durability flags or
// messages are silently never received.
type BrokerConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`

	// QueueName is the durable queue shared by publisher and consumer.
	// The deployed contract names it "Remainder"; keep in sync with any
	// existing consumers before changing it.
	QueueName string `mapstructure:"queue_name" validate:"required"`
}

// WorkerConfig contains the scanner and consumer tuning knobs.
type WorkerConfig struct {
	// PollSeconds is the scanner tick interval.
	PollSeconds int `mapstructure:"poll_seconds" validate:"required,gt=0"`

	// BatchSize bounds how many overdue tasks one tick may publish.
	BatchSize int `mapstructure:"batch_size" validate:"required,gt=0"`

	// PrefetchCount bounds unacknowledged in-flight deliveries per consumer.
	PrefetchCount int `mapstructure:"prefetch_count" validate:"required,gt=0"`

	// ConnectAttempts and ConnectBackoffSeconds control the fixed-backoff
	// retry loop for the first broker connection. Exhausting the attempts
	// is fatal for the process.
	ConnectAttempts       int `mapstructure:"connect_attempts" validate:"required,gt=0"`
	ConnectBackoffSeconds int `mapstructure:"connect_backoff_seconds" validate:"required,gt=0"`

	// MaxDeliveries caps redeliveries of a single message before the
	// consumer stops requeueing it.
	MaxDeliveries int `mapstructure:"max_deliveries" validate:"required,gt=0"`
}
