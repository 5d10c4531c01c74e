package metrics

import "github.com/prometheus/client_golang/prometheus"

// Settlement job metrics, registered once at process start.

var jobRuns = &Metric{
	ID:          "jobRuns",
	Name:        "credit_settlement_runs_total",
	Description: "Settlement run attempts partitioned by outcome status.",
	Type:        "counter_vec",
	Args:        []string{"status"},
}

var jobUsersProcessed = &Metric{
	ID:          "jobUsersProcessed",
	Name:        "credit_settlement_users_processed_total",
	Description: "Users processed without error across all runs.",
	Type:        "counter",
}

var jobUserErrors = &Metric{
	ID:          "jobUserErrors",
	Name:        "credit_settlement_user_errors_total",
	Description: "Per-user settlement failures across all runs.",
	Type:        "counter",
}

var eventsPublished = &Metric{
	ID:          "eventsPublished",
	Name:        "billing_events_published_total",
	Description: "Billing ledger events published, partitioned by entry type.",
	Type:        "counter_vec",
	Args:        []string{"entry_type"},
}

var (
	JobRunsTotal      = NewMetric(jobRuns, "creditd").(*prometheus.CounterVec)
	JobUsersProcessed = NewMetric(jobUsersProcessed, "creditd").(prometheus.Counter)
	JobUserErrors     = NewMetric(jobUserErrors, "creditd").(prometheus.Counter)
	EventsPublished   = NewMetric(eventsPublished, "creditd").(*prometheus.CounterVec)
)

func init() {
	prometheus.MustRegister(JobRunsTotal, JobUsersProcessed, JobUserErrors, EventsPublished)
}
