// Package observability provides metrics and tracing for the application.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SlugCollisions counts how many times a candidate slug was already taken
	// and a numeric suffix had to be probed.
	SlugCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_slug_collisions_total",
		Help: "Total number of slug uniqueness probe collisions",
	})

	// AssetUploadFailures counts failed cover image uploads by stage.
	AssetUploadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_asset_upload_failures_total",
		Help: "Total number of failed cover image uploads by stage",
	}, []string{"stage"})

	// OrphanedAssets counts cover images left behind in the asset store.
	// Orphans happen when a post is deleted or its image replaced (the store
	// object is not cleaned up) and when a DB write fails after a successful
	// upload. They are counted, not reclaimed.
	OrphanedAssets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_orphaned_assets_total",
		Help: "Total number of asset store objects orphaned by post mutations",
	}, []string{"reason"})

	// RedisErrors counts Redis command failures by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})
)
