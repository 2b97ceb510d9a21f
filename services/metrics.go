package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"lexicon/models"
)

// Metrics holds the Prometheus collectors for the lexicon workflows.
// A nil *Metrics records nothing.
type Metrics struct {
	submissions      *prometheus.CounterVec
	partialWrites    *prometheus.CounterVec
	decisions        *prometheus.CounterVec
	versionsAppended *prometheus.CounterVec
	variantChecks    *prometheus.CounterVec
	logins           *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lexicon_submissions_total",
			Help: "term submissions by outcome",
		}, []string{"outcome"}),
		partialWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lexicon_partial_writes_total",
			Help: "submissions saved with a failed dependent write, by stage",
		}, []string{"stage"}),
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lexicon_moderation_decisions_total",
			Help: "applied moderation decisions by target and decision",
		}, []string{"target", "decision"}),
		versionsAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lexicon_versions_appended_total",
			Help: "ledger entries appended by contribution type",
		}, []string{"contribution_type"}),
		variantChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lexicon_variant_checks_total",
			Help: "variant checks by whether a suggestion was returned",
		}, []string{"matched"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lexicon_logins_total",
			Help: "login attempts by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) partialWrite(stage string) {
	if m == nil {
		return
	}
	m.partialWrites.WithLabelValues(stage).Inc()
}

func (m *Metrics) decision(target string, decision models.ModerationStatus) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(target, string(decision)).Inc()
}

func (m *Metrics) versionAppended(ct models.ContributionType) {
	if m == nil {
		return
	}
	m.versionsAppended.WithLabelValues(string(ct)).Inc()
}

func (m *Metrics) variantCheck(matched bool) {
	if m == nil {
		return
	}
	if matched {
		m.variantChecks.WithLabelValues("true").Inc()
		return
	}
	m.variantChecks.WithLabelValues("false").Inc()
}

func (m *Metrics) login(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}
