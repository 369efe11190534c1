package app

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"forceautomaton/api/internal/config"
	"forceautomaton/api/internal/crm"
	"forceautomaton/api/internal/mention"
	"forceautomaton/api/internal/metrics"
	"forceautomaton/api/internal/session"
	"forceautomaton/api/internal/wave"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Greeting is posted when the robot joins a wave.
const Greeting = "ForceAutomaton online!"

var accountQuery = crm.NewQuery(
	"SELECT Name, AnnualRevenue, BillingStreet, BillingCity, BillingState, BillingPostalCode, " +
		"BillingCountry, Fax, Phone, Website FROM Account WHERE Name LIKE :name LIMIT 1",
)

type sessionCache interface {
	Get(context.Context, string) (crm.Session, bool, error)
	Put(context.Context, string, crm.Session, time.Duration) error
	Delete(context.Context, string) error
	Ping(context.Context) error
}

type crmClient interface {
	Login(context.Context, string, string) (crm.Session, error)
	Connect(context.Context, crm.Session) crm.Querier
}

type Service struct {
	cfg      config.Config
	cache    sessionCache
	crm      crmClient
	logger   *zap.Logger
	cacheKey string
}

func New(cfg config.Config, cache sessionCache, client crmClient, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = session.DefaultTTL
	}
	return &Service{
		cfg:      cfg,
		cache:    cache,
		crm:      client,
		logger:   logger,
		cacheKey: session.Key([]byte(cfg.Session.KeySecret), cfg.Salesforce.Username, cfg.Salesforce.Password),
	}
}

// Ping checks the session cache.
func (s *Service) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

// ProcessBundle handles one event bundle and returns the operations to send
// back to the host. The first failure stops the bundle; it is reported in a new
// blip and returned as a *RobotError. Operations recorded before the failure
// are kept.
func (s *Service) ProcessBundle(ctx context.Context, bundle wave.Bundle) (ops *wave.Operations, err error) {
	ops = wave.NewOperations(bundle.Wavelet)
	defer func() {
		if recovered := recover(); recovered != nil {
			err = &RobotError{
				Kind:  KindInternal,
				Err:   fmt.Errorf("panic: %v", recovered),
				stack: debug.Stack(),
			}
		}
		if err != nil {
			err = s.report(ctx, ops, bundle, err)
			metrics.BundlesTotal.WithLabelValues("error").Inc()
			return
		}
		metrics.BundlesTotal.WithLabelValues("ok").Inc()
	}()

	if bundle.WasSelfAdded() {
		ops.AppendBlip().Append(Greeting)
	}

	for _, event := range bundle.Events {
		if event.Type != wave.EventBlipSubmitted {
			continue
		}
		if err := s.handleSubmitted(ctx, bundle, event, ops); err != nil {
			return ops, err
		}
	}
	return ops, nil
}

func (s *Service) handleSubmitted(ctx context.Context, bundle wave.Bundle, event wave.Event, ops *wave.Operations) error {
	blip, ok := bundle.Blip(event.Properties.BlipID)
	if !ok {
		return robotError(KindInternal, fmt.Errorf("submitted blip %q not in bundle", event.Properties.BlipID))
	}

	names := mention.Extract(blip.Content)
	if len(names) == 0 {
		s.logger.Info("no account mentions",
			zap.String("blip_id", blip.BlipID),
			zap.Int("text_length", len(blip.Content)),
		)
		return nil
	}

	metrics.MentionsTotal.Add(float64(len(names)))
	s.logger.Info("found account mentions",
		zap.String("blip_id", blip.BlipID),
		zap.Strings("accounts", names),
	)

	doc := ops.CreateChild(blip.BlipID)
	conn, err := s.Connection(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := s.lookup(ctx, conn, name, doc); err != nil {
			return err
		}
	}
	return nil
}

// Connection returns a CRM connection, reusing the cached session when there
// is one. The cache is only an optimization: read and write failures fall
// back to a fresh login.
func (s *Service) Connection(ctx context.Context) (crm.Querier, error) {
	cached, ok, err := s.cache.Get(ctx, s.cacheKey)
	switch {
	case err != nil:
		metrics.SessionCacheTotal.WithLabelValues("error").Inc()
		s.logger.Warn("session cache read failed", zap.Error(err))
	case ok:
		metrics.SessionCacheTotal.WithLabelValues("hit").Inc()
		return s.crm.Connect(ctx, cached), nil
	default:
		metrics.SessionCacheTotal.WithLabelValues("miss").Inc()
	}

	fresh, err := s.crm.Login(ctx, s.cfg.Salesforce.Username, s.cfg.Salesforce.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, robotError(KindAuthentication, fmt.Errorf("crm login: %w", err))
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	if err := s.cache.Put(ctx, s.cacheKey, fresh, s.cfg.Session.TTL); err != nil {
		s.logger.Warn("session cache write failed", zap.Error(err))
	}
	return s.crm.Connect(ctx, fresh), nil
}

func (s *Service) lookup(ctx context.Context, conn crm.Querier, name string, doc *wave.Document) error {
	started := time.Now()
	records, err := conn.Query(ctx, accountQuery.Bind("name", crm.Contains(name)))
	metrics.QueryDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		if errors.Is(err, crm.ErrSessionExpired) {
			if evictErr := s.cache.Delete(ctx, s.cacheKey); evictErr != nil {
				s.logger.Warn("session cache evict failed", zap.Error(evictErr))
			}
		}
		return robotError(KindQuery, fmt.Errorf("lookup account %q: %w", name, err))
	}

	if len(records) != 1 {
		metrics.LookupsTotal.WithLabelValues("not_found").Inc()
		doc.Append(NotFoundMessage(name))
		return nil
	}
	metrics.LookupsTotal.WithLabelValues("found").Inc()
	doc.Append(FormatAccount(records[0]))
	return nil
}

// FormatAccount renders an Account record as blip text.
func FormatAccount(record crm.Record) string {
	var b strings.Builder
	b.WriteString(record.String("Name") + "\n")
	b.WriteString(record.String("BillingStreet") + "\n")
	b.WriteString(record.String("BillingCity") + ",")
	b.WriteString(record.String("BillingState") + " ")
	b.WriteString(record.String("BillingPostalCode") + "\n")
	b.WriteString(record.String("BillingCountry") + "\n")
	b.WriteString("Phone: " + record.String("Phone") + "\n")
	b.WriteString("Website: " + record.String("Website") + "\n")
	return b.String()
}

func NotFoundMessage(name string) string {
	return fmt.Sprintf("I am not able to find account '%s'", name)
}

func (s *Service) report(ctx context.Context, ops *wave.Operations, bundle wave.Bundle, err error) *RobotError {
	var robotErr *RobotError
	if !errors.As(err, &robotErr) {
		robotErr = robotError(KindInternal, err)
	}
	robotErr.Ref = uuid.NewString()

	ops.AppendBlip().Append(robotErr.UserMessage())

	fields := []zap.Field{
		zap.String("ref", robotErr.Ref),
		zap.String("kind", string(robotErr.Kind)),
		zap.String("wave_id", bundle.Wavelet.WaveID),
		zap.String("wavelet_id", bundle.Wavelet.WaveletID),
		zap.Error(robotErr.Err),
	}
	if requestID := requestIDFrom(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if robotErr.stack != nil {
		fields = append(fields, zap.ByteString("panic_stack", robotErr.stack))
	}
	s.logger.Error("event bundle failed", fields...)
	return robotErr
}
