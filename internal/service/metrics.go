package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mediaUploadedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postcraft_media_uploaded_total",
			Help: "Total number of media files stored, by type",
		},
		[]string{"type"},
	)

	blobDeleteTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postcraft_blob_delete_total",
			Help: "Blob deletions by outcome",
		},
		[]string{"result"},
	)

	linkedInCallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postcraft_linkedin_callback_total",
			Help: "LinkedIn OAuth callbacks by result code",
		},
		[]string{"result"},
	)
)
