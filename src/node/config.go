package node

import (
	"testing"
	"time"

	"github.com/mosaicnetworks/routing/src/common"
	"github.com/mosaicnetworks/routing/src/messages"
	"github.com/mosaicnetworks/routing/src/stats"
	"github.com/sirupsen/logrus"
)

// Config contains the parameters of a routing node and of the handlers that
// run on it.
type Config struct {
	// GroupSize is the number of close nodes a message is delivered to.
	GroupSize int `mapstructure:"group-size"`

	// RequestTimeout is how long a client request waits for a response.
	RequestTimeout time.Duration `mapstructure:"request-timeout"`

	// MaxPartLen is the largest payload carried by a single user message
	// part.
	MaxPartLen int `mapstructure:"max-part-len"`

	// TCPTimeout is the timeout of network operations.
	TCPTimeout time.Duration `mapstructure:"timeout"`

	// InboxSize is the capacity of the queue between the transport and the
	// event loop.
	InboxSize int `mapstructure:"inbox-size"`

	// Tokens allocates timer tokens. Nil means the process-wide allocator.
	Tokens *TokenAllocator

	Logger *logrus.Logger
}

// NewConfig ...
func NewConfig(groupSize int,
	requestTimeout time.Duration,
	maxPartLen int,
	timeout time.Duration,
	logger *logrus.Logger) *Config {

	return &Config{
		GroupSize:      groupSize,
		RequestTimeout: requestTimeout,
		MaxPartLen:     maxPartLen,
		TCPTimeout:     timeout,
		InboxSize:      1024,
		Logger:         logger,
	}
}

// DefaultConfig ...
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		GroupSize:      stats.GroupSize,
		RequestTimeout: 60 * time.Second,
		MaxPartLen:     messages.DefaultMaxPartLen,
		TCPTimeout:     1000 * time.Millisecond,
		InboxSize:      1024,
		Logger:         logger,
	}
}

// TestConfig returns a DefaultConfig that logs to t and gives up on requests
// quickly.
func TestConfig(t testing.TB) *Config {
	config := DefaultConfig()
	config.RequestTimeout = 2 * time.Second
	config.Logger = common.NewTestLogger(t, common.TestLogLevel)
	return config
}
