package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/souvenir/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by the engine lifecycle hooks.
type Metrics struct {
	TaskStates *prometheus.CounterVec
	Batches    *prometheus.CounterVec
	Questions  *prometheus.CounterVec
	Answers    *prometheus.CounterVec
	Strikes    prometheus.Counter
	PoolSize   prometheus.Gauge
	Latency    *prometheus.HistogramVec

	mu        sync.Mutex
	presented map[*domain.QandA]time.Time
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TaskStates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "souvenir_task_transitions_total",
				Help: "Module task state transitions",
			},
			[]string{"module_type", "state"},
		),
		Batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "souvenir_batches_total",
				Help: "Question batches added to the pool",
			},
			[]string{"module_type"},
		),
		Questions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "souvenir_questions_presented_total",
				Help: "Questions presented to the consumer",
			},
			[]string{"module"},
		),
		Answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "souvenir_answers_total",
				Help: "Answers by outcome (correct, wrong, revealed)",
			},
			[]string{"outcome"},
		),
		Strikes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "souvenir_strikes_total",
			Help: "Wrong answers given",
		}),
		PoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "souvenir_pool_batches",
			Help: "Batches waiting in the pool after the last addition",
		}),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "souvenir_answer_latency_seconds",
				Help:    "Time between presenting a question and its resolution",
				Buckets: []float64{1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"outcome"},
		),
		presented: map[*domain.QandA]time.Time{},
	}
	if reg != nil {
		reg.MustRegister(m.TaskStates, m.Batches, m.Questions, m.Answers, m.Strikes, m.PoolSize, m.Latency)
	}
	return m
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTaskState: func(_ context.Context, e *domain.TaskEvent) {
			m.TaskStates.WithLabelValues(e.Module.Type, string(e.To)).Inc()
		},
		OnBatch: func(_ context.Context, e *domain.BatchEvent) {
			m.Batches.WithLabelValues(e.Module.Type).Inc()
			m.PoolSize.Set(float64(e.PoolSize))
		},
		OnQuestion: func(_ context.Context, e *domain.QuestionEvent) {
			m.Questions.WithLabelValues(e.Question.Module).Inc()
			m.mu.Lock()
			m.presented[e.Question] = e.Timestamp
			m.mu.Unlock()
		},
		OnAnswer: func(_ context.Context, e *domain.AnswerEvent) {
			outcome := Outcome(e)
			m.Answers.WithLabelValues(outcome).Inc()
			if outcome == "wrong" {
				m.Strikes.Inc()
			}
			m.mu.Lock()
			start, ok := m.presented[e.Question]
			delete(m.presented, e.Question)
			m.mu.Unlock()
			if ok {
				m.Latency.WithLabelValues(outcome).Observe(e.Timestamp.Sub(start).Seconds())
			}
		},
	}
}

// Outcome labels an answer event.
func Outcome(e *domain.AnswerEvent) string {
	switch {
	case e.Index < 0:
		return "revealed"
	case e.Correct:
		return "correct"
	default:
		return "wrong"
	}
}
