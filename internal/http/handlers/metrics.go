package handlers

import "github.com/prometheus/client_golang/prometheus"

var (
	jobsQueuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pulsar_jobs_queued_total",
		Help: "Total number of paid jobs queued",
	})
	jobsCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pulsar_jobs_completed_total",
		Help: "Total number of jobs completed successfully",
	})
	jobsFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pulsar_jobs_failed_total",
		Help: "Total number of jobs failed",
	})
	paymentsSettledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pulsar_payments_settled_total",
		Help: "Total number of payments settled with the facilitator",
	})
	paymentsRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pulsar_payments_rejected_total",
		Help: "Total number of payment credentials rejected",
	})
)

func init() {
	prometheus.MustRegister(jobsQueuedTotal, jobsCompletedTotal, jobsFailedTotal, paymentsSettledTotal, paymentsRejectedTotal)
}
