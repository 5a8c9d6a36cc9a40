// cmd/server/app.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api/auth"
	"github.com/codr1/Courtside/internal/api/bookings"
	"github.com/codr1/Courtside/internal/booking"
	"github.com/codr1/Courtside/internal/cache"
	"github.com/codr1/Courtside/internal/cognito"
	"github.com/codr1/Courtside/internal/config"
	"github.com/codr1/Courtside/internal/db"
	"github.com/codr1/Courtside/internal/email"
	"github.com/codr1/Courtside/internal/events"
	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/ratelimit"
	"github.com/codr1/Courtside/internal/scheduler"
)

// app holds the long-lived collaborators built from configuration.
type app struct {
	database      *db.DB
	redis         *redis.Client
	publisher     *events.Publisher
	notifier      *email.Notifier
	limiter       *ratelimit.Limiter
	scheduler     *scheduler.Service
	authenticator auth.Authenticator
	bookings      *bookings.Handler
	closed        bool
}

var openDatabase = db.NewFromConfig

// newApp builds every collaborator cfg enables. On failure whatever was
// already opened is closed before returning.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.database, err = openDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	store := models.NewStore(a.database)

	var communities booking.CommunityProvider = store
	if cfg.Redis.Enabled {
		a.redis, err = cache.Connect(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Secrets.RedisPassword,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		communities = cache.NewCommunities(cache.NewRedisStore(a.redis), store, cfg.Redis.TTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Community cache enabled")
	}

	var profiles booking.ProfileProvider = store
	if cfg.Cognito.Enabled {
		profiles, err = cognito.NewProfiles(ctx, cfg.Cognito.PoolID)
		if err != nil {
			return nil, fmt.Errorf("init cognito profiles: %w", err)
		}
		log.Info().Str("pool_id", cfg.Cognito.PoolID).Msg("Using Cognito profile provider")
	}

	var admissionListeners []booking.AdmissionListener
	var cancellationListeners []bookings.CancellationListener
	if cfg.Email.Enabled {
		sender, err := email.NewSESClient(ctx, cfg.Secrets.AWSAccessKeyID, cfg.Secrets.AWSSecretAccessKey, cfg.Email.Region, cfg.Email.Sender)
		if err != nil {
			return nil, fmt.Errorf("init ses client: %w", err)
		}
		a.notifier = email.NewNotifier(sender, profiles, communities,
			email.WithReminderSender(cfg.Email.ReminderSender),
			email.WithSendTimeout(cfg.Email.SendTimeout),
		)
		admissionListeners = append(admissionListeners, a.notifier)
		cancellationListeners = append(cancellationListeners, a.notifier)
	}
	if cfg.Events.Enabled {
		a.publisher, err = events.Dial(cfg.Secrets.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			return nil, fmt.Errorf("connect to broker: %w", err)
		}
		admissionListeners = append(admissionListeners, a.publisher)
		cancellationListeners = append(cancellationListeners, a.publisher)
	}

	engine, err := booking.NewEngine(booking.Dependencies{
		Communities:   communities,
		Store:         store,
		Profiles:      profiles,
		Subscriptions: store,
		BookingTiers:  cfg.Booking.Tiers,
		Listeners:     admissionListeners,
	})
	if err != nil {
		return nil, err
	}

	switch cfg.Auth.Mode {
	case "clerk":
		a.authenticator, err = auth.NewClerkAuthenticator(cfg.Secrets.ClerkSecretKey)
	default:
		a.authenticator, err = auth.NewJWTAuthenticator(cfg.Secrets.JWTSecret, cfg.Auth.Issuer)
	}
	if err != nil {
		return nil, fmt.Errorf("init authenticator: %w", err)
	}

	if cfg.RateLimit.Enabled {
		a.limiter = ratelimit.New(&ratelimit.Config{
			AttemptCooldown:     cfg.RateLimit.AttemptCooldown,
			AttemptMaxPerHour:   cfg.RateLimit.AttemptMaxPerHour,
			AttemptMaxIPPerHour: cfg.RateLimit.AttemptMaxIPPerHour,
			RejectionMaxStreak:  cfg.RateLimit.RejectionMaxStreak,
			RejectionLockout:    cfg.RateLimit.RejectionLockout,
		})
	}

	offset := cfg.Booking.ClockOffset
	now := func() time.Time { return time.Now().Add(offset) }

	a.bookings, err = bookings.NewHandler(bookings.Config{
		Engine:     engine,
		Store:      store,
		Limiter:    a.limiter,
		TrustProxy: cfg.RateLimit.TrustProxy,
		Listeners:  cancellationListeners,
		Now:        now,
	})
	if err != nil {
		return nil, err
	}

	a.scheduler, err = scheduler.New()
	if err != nil {
		return nil, fmt.Errorf("init scheduler: %w", err)
	}
	if a.notifier != nil {
		job := scheduler.NewReminderJob(store, communities, a.notifier, now)
		if err := job.Register(a.scheduler, cfg.Scheduler.ReminderCron); err != nil {
			return nil, fmt.Errorf("register reminder job: %w", err)
		}
	} else {
		log.Info().Msg("Email disabled, booking reminders not scheduled")
	}

	return a, nil
}

// Close releases everything newApp opened. It is safe to call twice.
func (a *app) Close() {
	if a == nil || a.closed {
		return
	}
	a.closed = true

	if a.scheduler != nil {
		if err := a.scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop scheduler")
		}
	}
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.notifier != nil {
		a.notifier.Wait()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close event publisher")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis client")
		}
	}
	if a.database != nil {
		if err := a.database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}
}
