package integration_testing

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/formcheck/internal"
	"github.com/2beens/formcheck/internal/config"

	"github.com/go-redis/redis/v8"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	log "github.com/sirupsen/logrus"
)

const (
	serverPort = 9123
	serverHost = "localhost"

	newSessionsAllowedPerMin = 5
)

var serverEndpoint = fmt.Sprintf("http://%s:%d", serverHost, serverPort)

// Suite runs the service against a redis container.
type Suite struct {
	RedisClient *redis.Client
	dockerPool  *dockertest.Pool
	server      *internal.Server
	teardown    []func()
}

func newSuite(ctx context.Context) (*Suite, error) {
	var err error
	suite := &Suite{
		teardown: make([]func(), 0),
	}

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	suite.dockerPool, err = dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("could not create new dockertest pool: %w", err)
	}

	// uses pool to try to connect to Docker
	if err = suite.dockerPool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping dockertest pool: %w", err)
	}

	redisPort, err := suite.redisSetup()
	if err != nil {
		suite.cleanup()
		return nil, fmt.Errorf("failed to setup redis: %w", err)
	}

	cfg := getTestConfig(redisPort)
	suite.server, err = internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			VersionInfo:             "test-version-info",
			RedisPassword:           "",
			HoneycombTracingEnabled: false,
		},
	)
	if err != nil {
		suite.cleanup()
		return nil, fmt.Errorf("new server: %w", err)
	}

	suite.server.Serve(cfg.Host, cfg.Port)
	if err := waitForServer(10 * time.Second); err != nil {
		suite.cleanup()
		return nil, err
	}

	return suite, nil
}

func (s *Suite) cleanup() {
	if s.server != nil {
		s.server.GracefulShutdown()
	}
	if s.RedisClient != nil {
		if err := s.RedisClient.Close(); err != nil {
			log.Errorf("close test redis client: %s", err)
		}
	}
	for _, teardown := range s.teardown {
		teardown()
	}
}

func getTestConfig(redisPort string) *config.Config {
	return &config.Config{
		Host:                     serverHost,
		Port:                     serverPort,
		Environment:              "test",
		RedisHost:                "localhost",
		RedisPort:                redisPort,
		ExercisesDir:             "../configs/exercises",
		SessionIdleTimeout:       config.Duration{Duration: time.Minute},
		SummaryTTL:               config.Duration{Duration: time.Minute},
		SummaryCacheSizeMB:       1,
		NewSessionsAllowedPerMin: newSessionsAllowedPerMin,
	}
}

func (s *Suite) redisSetup() (string, error) {
	redisResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Name:       "formcheck-redis",
		Tag:        "6.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		return "", fmt.Errorf("run redis: %w", err)
	}

	s.teardown = append(s.teardown, func() {
		if err := redisResource.Close(); err != nil {
			log.Errorf("close redis container: %s", err)
		}
	})

	redisPort := redisResource.GetPort("6379/tcp")
	s.RedisClient = redis.NewClient(&redis.Options{
		Addr: "localhost:" + redisPort,
	})

	// the container takes a moment to accept connections
	err = s.dockerPool.Retry(func() error {
		return s.RedisClient.Ping(context.Background()).Err()
	})
	if err != nil {
		return "", fmt.Errorf("ping redis: %w", err)
	}

	return redisPort, nil
}

func waitForServer(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(serverEndpoint + "/version")
		if err == nil {
			_ = resp.Body.Close()
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server not up after %s", timeout)
}
