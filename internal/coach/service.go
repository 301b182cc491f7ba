package coach

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/2beens/formcheck/internal/engine"
	"github.com/2beens/formcheck/internal/exercise"
	"github.com/2beens/formcheck/internal/pose"
	"github.com/2beens/formcheck/internal/telemetry/metrics"
	"github.com/2beens/formcheck/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var ErrInvalidSessionConfig = errors.New("invalid session config")

// ExerciseInfo describes a loaded exercise definition.
type ExerciseInfo struct {
	Kind        exercise.Kind `json:"kind"`
	Source      string        `json:"source"`
	Rules       int           `json:"rules"`
	Declarative bool          `json:"declarative"`
	Warnings    string        `json:"warnings,omitempty"`
}

type Service struct {
	defs           map[exercise.Kind]*exercise.Definition
	registry       *Registry
	summaries      SummaryStore
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewService(
	defs map[exercise.Kind]*exercise.Definition,
	registry *Registry,
	summaries SummaryStore,
	metricsManager *metrics.Manager,
) *Service {
	return &Service{
		defs:           defs,
		registry:       registry,
		summaries:      summaries,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

func (s *Service) CreateSession(ctx context.Context, cfg engine.SessionConfig) (*SessionInfo, error) {
	_, span := tracing.GlobalTracer.Start(ctx, "service.coach.create_session")
	defer span.End()

	kind, err := exercise.ParseKind(string(cfg.Exercise))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSessionConfig, err)
	}
	def, ok := s.defs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: exercise %s not loaded", ErrInvalidSessionConfig, kind)
	}

	eng, err := engine.New(def, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSessionConfig, err)
	}

	sess := &Session{
		SessionInfo: SessionInfo{
			ID:        uuid.NewString(),
			Exercise:  kind,
			Config:    eng.Config(),
			CreatedAt: s.now(),
		},
		engine: eng,
	}
	s.registry.Add(sess)
	s.metricsManager.CounterSessions.With(prometheus.Labels{"exercise": string(kind)}).Inc()

	span.SetAttributes(
		attribute.String("session.id", sess.ID),
		attribute.String("session.exercise", string(kind)),
	)
	log.Debugf("session [%s] created: %s, target %d", sess.ID, kind, sess.Config.TargetReps)

	info := sess.SessionInfo
	return &info, nil
}

// ProcessFrame runs f through the session engine. The summary is stored the
// moment the session completes.
func (s *Service) ProcessFrame(ctx context.Context, sessionID string, f *pose.Frame) (engine.Output, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return engine.Output{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	begin := time.Now()
	out := sess.engine.ProcessFrame(f)
	s.metricsManager.HistogramFrameDuration.Observe(time.Since(begin).Seconds())

	exerciseLabel := prometheus.Labels{"exercise": string(sess.Exercise)}
	s.metricsManager.CounterFrames.With(prometheus.Labels{
		"exercise": string(sess.Exercise),
		"view":     string(out.View),
	}).Inc()

	if out.RepCount > sess.reps {
		s.metricsManager.CounterReps.With(exerciseLabel).Add(float64(out.RepCount - sess.reps))
		s.metricsManager.HistogramRepScore.With(exerciseLabel).Observe(float64(out.LastRepScorePercent))
		sess.reps = out.RepCount
	}

	if out.IsSessionComplete && !sess.completed {
		sess.completed = true
		s.metricsManager.CounterSessionsCompleted.With(exerciseLabel).Inc()
		if err := s.saveSummary(ctx, sess); err != nil {
			log.Errorf("session [%s] complete, save summary: %s", sess.ID, err)
		}
	}

	return out, nil
}

func (s *Service) Reset(ctx context.Context, sessionID string) error {
	_, span := tracing.GlobalTracer.Start(ctx, "service.coach.reset")
	defer span.End()

	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.engine.Reset(); err != nil {
		return fmt.Errorf("reset engine: %w", err)
	}
	sess.reps = 0
	sess.completed = false
	return nil
}

// Summary returns the summary of a live session, or the stored one once the
// session is gone.
func (s *Service) Summary(ctx context.Context, sessionID string) (_ *SummaryRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.coach.summary")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	sess, err := s.registry.Get(sessionID)
	if err == nil {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		return s.summaryRecord(sess), nil
	}

	rec, err := s.summaries.Get(ctx, sessionID)
	if errors.Is(err, ErrSummaryNotFound) {
		return nil, ErrSessionNotFound
	}
	return rec, err
}

// Finish stores the current summary of the session, complete or not. Called
// when a client stream closes.
func (s *Service) Finish(ctx context.Context, sessionID string) error {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.saveSummary(ctx, sess)
}

// Delete drops the session. Its summary stays in the store when it had
// any reps.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.coach.delete")
	defer span.End()

	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	if sess.reps > 0 {
		if err := s.saveSummary(ctx, sess); err != nil {
			log.Errorf("delete session [%s], save summary: %s", sessionID, err)
		}
	}
	sess.mu.Unlock()

	return s.registry.Remove(sessionID)
}

func (s *Service) Exercises() []ExerciseInfo {
	infos := make([]ExerciseInfo, 0, len(s.defs))
	for kind, def := range s.defs {
		info := ExerciseInfo{
			Kind:        kind,
			Source:      def.Source,
			Rules:       len(def.Rules),
			Declarative: def.FSM != nil,
		}
		if def.Warnings != nil {
			info.Warnings = def.Warnings.Error()
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Kind < infos[j].Kind
	})
	return infos
}

// summaryRecord expects sess.mu to be held.
func (s *Service) summaryRecord(sess *Session) *SummaryRecord {
	summary, complete := sess.engine.Summary()
	return &SummaryRecord{
		SessionID: sess.ID,
		Exercise:  sess.Exercise,
		Complete:  complete,
		Summary:   summary,
		SavedAt:   s.now(),
	}
}

// saveSummary expects sess.mu to be held.
func (s *Service) saveSummary(ctx context.Context, sess *Session) error {
	rec := s.summaryRecord(sess)
	if err := s.summaries.Save(ctx, rec); err != nil {
		return err
	}
	log.Debugf("session [%s] summary saved: %d reps, complete: %t", sess.ID, rec.Summary.TotalReps, rec.Complete)
	return nil
}
