package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/allisson/msc/internal/database"
	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
	envelopeHTTP "github.com/allisson/msc/internal/envelope/http"
	envelopeRepository "github.com/allisson/msc/internal/envelope/repository"
	envelopeService "github.com/allisson/msc/internal/envelope/service"
	envelopeUseCase "github.com/allisson/msc/internal/envelope/usecase"
	"github.com/allisson/msc/internal/metrics"
)

// envelopeComponents groups the secure envelope protocol components held by the Container.
type envelopeComponents struct {
	kmsService      envelopeService.KMSService
	masterKey       *envelopeDomain.MasterKey
	aeadManager     envelopeService.AEADManager
	aeadCodec       *envelopeService.AEADCodec
	keyExchange     *envelopeService.KeyExchange
	replayGuard     *envelopeService.ReplayGuard
	accessGate      *envelopeService.AccessGate
	sessionRegistry *envelopeUseCase.SessionRegistry
	replayRepo      envelopeUseCase.ReplayRepository
	sessionUseCase  envelopeUseCase.SessionUseCase
	channelUseCase  envelopeUseCase.ChannelUseCase
	replayUseCase   envelopeUseCase.ReplayUseCase
	sessionHandler  *envelopeHTTP.SessionHandler
	channelHandler  *envelopeHTTP.ChannelHandler

	kmsServiceInit      sync.Once
	masterKeyInit       sync.Once
	aeadManagerInit     sync.Once
	aeadCodecInit       sync.Once
	keyExchangeInit     sync.Once
	replayGuardInit     sync.Once
	accessGateInit      sync.Once
	sessionRegistryInit sync.Once
	replayRepoInit      sync.Once
	sessionUseCaseInit  sync.Once
	channelUseCaseInit  sync.Once
	replayUseCaseInit   sync.Once
	sessionHandlerInit  sync.Once
	channelHandlerInit  sync.Once
}

// KMSService returns the KMS service used to protect SERVER_SECRET.
func (c *Container) KMSService() envelopeService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = envelopeService.NewKMSService()
	})
	return c.kmsService
}

// MasterKey returns the process master key derived from SERVER_SECRET and SERVER_SALT.
func (c *Container) MasterKey() (*envelopeDomain.MasterKey, error) {
	err := c.once(&c.masterKeyInit, "masterKey", func() (err error) {
		c.masterKey, err = c.initMasterKey()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.masterKey, nil
}

// AEADManager returns the cipher factory.
func (c *Container) AEADManager() envelopeService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = envelopeService.NewAEADManager()
	})
	return c.aeadManager
}

// AEADCodec returns the payload codec for the configured algorithm.
func (c *Container) AEADCodec() (*envelopeService.AEADCodec, error) {
	err := c.once(&c.aeadCodecInit, "aeadCodec", func() error {
		alg, err := envelopeDomain.ParseAlgorithm(c.config.AEADAlgorithm)
		if err != nil {
			return fmt.Errorf("failed to parse aead algorithm: %w", err)
		}
		c.aeadCodec = envelopeService.NewAEADCodec(c.AEADManager(), alg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.aeadCodec, nil
}

// KeyExchange returns the RSA-OAEP session key wrapper.
func (c *Container) KeyExchange() *envelopeService.KeyExchange {
	c.keyExchangeInit.Do(func() {
		c.keyExchange = envelopeService.NewKeyExchange()
	})
	return c.keyExchange
}

// ReplayGuard returns the sealer for replay metadata, keyed from the master key.
func (c *Container) ReplayGuard() (*envelopeService.ReplayGuard, error) {
	err := c.once(&c.replayGuardInit, "replayGuard", func() error {
		masterKey, err := c.MasterKey()
		if err != nil {
			return fmt.Errorf("failed to get master key for replay guard: %w", err)
		}
		alg, err := envelopeDomain.ParseAlgorithm(c.config.AEADAlgorithm)
		if err != nil {
			return fmt.Errorf("failed to parse aead algorithm: %w", err)
		}
		c.replayGuard, err = envelopeService.NewReplayGuard(masterKey, c.AEADManager(), alg)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.replayGuard, nil
}

// AccessGate returns the access token gate. ACCESS_TOKEN_HASH takes precedence over ACCESS_TOKEN.
func (c *Container) AccessGate() (*envelopeService.AccessGate, error) {
	err := c.once(&c.accessGateInit, "accessGate", func() error {
		if c.config.AccessTokenHash != "" {
			gate, err := envelopeService.NewHashedAccessGate(c.config.AccessTokenHash)
			if err != nil {
				return fmt.Errorf("failed to create hashed access gate: %w", err)
			}
			c.accessGate = gate
			return nil
		}
		c.accessGate = envelopeService.NewAccessGate(c.config.AccessToken)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.accessGate, nil
}

// SessionRegistry returns the in-memory session store.
func (c *Container) SessionRegistry() (*envelopeUseCase.SessionRegistry, error) {
	err := c.once(&c.sessionRegistryInit, "sessionRegistry", func() error {
		registry := envelopeUseCase.NewSessionRegistry()

		provider, err := c.MetricsProvider()
		if err != nil {
			return fmt.Errorf("failed to get metrics provider for session registry: %w", err)
		}
		if provider != nil {
			if err := metrics.RegisterActiveSessionsGauge(
				provider.MeterProvider(),
				provider.Namespace(),
				registry.Len,
			); err != nil {
				return fmt.Errorf("failed to register active sessions gauge: %w", err)
			}
		}

		c.sessionRegistry = registry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.sessionRegistry, nil
}

// ReplayRepository returns the store of accepted request ids selected by REPLAY_STORE.
func (c *Container) ReplayRepository() (envelopeUseCase.ReplayRepository, error) {
	err := c.once(&c.replayRepoInit, "replayRepo", func() (err error) {
		c.replayRepo, err = c.initReplayRepository()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.replayRepo, nil
}

// SessionUseCase returns the session use case, wrapped with metrics when enabled.
func (c *Container) SessionUseCase() (envelopeUseCase.SessionUseCase, error) {
	err := c.once(&c.sessionUseCaseInit, "sessionUseCase", func() (err error) {
		c.sessionUseCase, err = c.initSessionUseCase()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.sessionUseCase, nil
}

// ChannelUseCase returns the channel use case, wrapped with metrics when enabled.
func (c *Container) ChannelUseCase() (envelopeUseCase.ChannelUseCase, error) {
	err := c.once(&c.channelUseCaseInit, "channelUseCase", func() (err error) {
		c.channelUseCase, err = c.initChannelUseCase()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.channelUseCase, nil
}

// ReplayUseCase returns the replay use case, wrapped with metrics when enabled.
func (c *Container) ReplayUseCase() (envelopeUseCase.ReplayUseCase, error) {
	err := c.once(&c.replayUseCaseInit, "replayUseCase", func() (err error) {
		c.replayUseCase, err = c.initReplayUseCase()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.replayUseCase, nil
}

// SessionHandler returns the HTTP handler for session endpoints.
func (c *Container) SessionHandler() (*envelopeHTTP.SessionHandler, error) {
	err := c.once(&c.sessionHandlerInit, "sessionHandler", func() error {
		useCase, err := c.SessionUseCase()
		if err != nil {
			return fmt.Errorf("failed to get session use case for session handler: %w", err)
		}
		c.sessionHandler = envelopeHTTP.NewSessionHandler(useCase, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.sessionHandler, nil
}

// ChannelHandler returns the HTTP handler for envelope endpoints.
func (c *Container) ChannelHandler() (*envelopeHTTP.ChannelHandler, error) {
	err := c.once(&c.channelHandlerInit, "channelHandler", func() error {
		useCase, err := c.ChannelUseCase()
		if err != nil {
			return fmt.Errorf("failed to get channel use case for channel handler: %w", err)
		}
		c.channelHandler = envelopeHTTP.NewChannelHandler(useCase, envelopeHTTP.EchoProcessor, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.channelHandler, nil
}

func (c *Container) initMasterKey() (*envelopeDomain.MasterKey, error) {
	secret := c.config.ServerSecret
	if c.config.KMSKeyURI != "" {
		decrypted, err := envelopeService.DecryptSecret(
			context.Background(),
			c.KMSService(),
			c.config.KMSKeyURI,
			secret,
		)
		if err != nil {
			return nil, err
		}
		secret = decrypted
	}

	if c.config.UsesDevelopmentSalt() {
		c.Logger().Warn("SERVER_SALT is not set, using the development salt")
	}

	masterKey, err := envelopeService.NewKeyDeriver().Derive(secret, c.config.Salt())
	if err != nil {
		return nil, fmt.Errorf("failed to derive master key: %w", err)
	}
	return masterKey, nil
}

func (c *Container) initReplayRepository() (envelopeUseCase.ReplayRepository, error) {
	if !c.config.UsesDatabase() {
		return envelopeRepository.NewMemoryReplayRepository(), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for replay repository: %w", err)
	}

	switch c.config.DBDriver {
	case database.DriverPostgres:
		return envelopeRepository.NewPostgreSQLReplayRepository(db), nil
	case database.DriverMySQL:
		return envelopeRepository.NewMySQLReplayRepository(db), nil
	default:
		return nil, fmt.Errorf("%w: unsupported database driver: %s", envelopeDomain.ErrConfiguration, c.config.DBDriver)
	}
}

func (c *Container) initChannelUseCase() (envelopeUseCase.ChannelUseCase, error) {
	registry, err := c.SessionRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to get session registry for channel use case: %w", err)
	}

	codec, err := c.AEADCodec()
	if err != nil {
		return nil, fmt.Errorf("failed to get aead codec for channel use case: %w", err)
	}

	guard, err := c.ReplayGuard()
	if err != nil {
		return nil, fmt.Errorf("failed to get replay guard for channel use case: %w", err)
	}

	accessGate, err := c.AccessGate()
	if err != nil {
		return nil, fmt.Errorf("failed to get access gate for channel use case: %w", err)
	}

	useCase := envelopeUseCase.NewChannelUseCase(registry, codec, guard, accessGate)
	if !c.config.MetricsEnabled {
		return useCase, nil
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for channel use case: %w", err)
	}
	return envelopeUseCase.NewChannelUseCaseWithMetrics(useCase, businessMetrics), nil
}

func (c *Container) initReplayUseCase() (envelopeUseCase.ReplayUseCase, error) {
	guard, err := c.ReplayGuard()
	if err != nil {
		return nil, fmt.Errorf("failed to get replay guard for replay use case: %w", err)
	}

	repo, err := c.ReplayRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get replay repository for replay use case: %w", err)
	}

	useCase := envelopeUseCase.NewReplayUseCase(guard, repo, c.config.ReplayWindow)
	if !c.config.MetricsEnabled {
		return useCase, nil
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for replay use case: %w", err)
	}
	return envelopeUseCase.NewReplayUseCaseWithMetrics(useCase, businessMetrics), nil
}

func (c *Container) initSessionUseCase() (envelopeUseCase.SessionUseCase, error) {
	registry, err := c.SessionRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to get session registry for session use case: %w", err)
	}

	useCase := envelopeUseCase.NewSessionUseCase(registry, c.KeyExchange(), c.config.SessionTTL)
	if !c.config.MetricsEnabled {
		return useCase, nil
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for session use case: %w", err)
	}
	return envelopeUseCase.NewSessionUseCaseWithMetrics(useCase, businessMetrics), nil
}
