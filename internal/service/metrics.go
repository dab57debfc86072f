package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	discountsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worksheet_discounts_applied_total",
			Help: "Discount snapshots attached to carts, by source (auto or manual).",
		},
		[]string{"source"},
	)

	discountRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worksheet_discount_rejections_total",
			Help: "Discount codes rejected at apply or validate time, by error code.",
		},
		[]string{"code"},
	)

	checkoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worksheet_checkouts_total",
			Help: "Checkout attempts by result.",
		},
		[]string{"result"},
	)

	ordersConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worksheet_orders_confirmed_total",
		Help: "Orders moved to completed by an admin.",
	})

	ledgerFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worksheet_usage_ledger_failures_total",
		Help: "Completed orders whose campaign usage could not be counted.",
	})

	emailFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worksheet_email_failures_total",
		Help: "Confirmation emails that failed to send.",
	})
)
