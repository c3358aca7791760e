package cmd

import (
	"time"

	"github.com/stackwatch/resource-notifier/internal/config"
	"github.com/stackwatch/resource-notifier/internal/helpers"
)

var envMapString = map[*string]boundEnvVar[string]{
	&config.Global.Mode: {
		Name:        "mode",
		Description: "The application runtime mode. Possible values are 'lambda' and 'service'",
		Short:       helpers.Ptr("m"),
	},
	&config.Webhook.SecretName: {
		Name:        "webhook-secret-name",
		Description: "The name of the secret holding the chat webhook URL",
		Env:         helpers.Ptr("TEAMS_WEBHOOK_SECRET_NAME"),
	},
	&config.Webhook.Backend: {
		Name:        "webhook-secret-backend",
		Description: "The secret store backend. Supported values are 'secretsmanager' and 'ssm'",
	},
	&config.Global.S3.Archive.BucketName: {
		Name:        "event-archive-s3-bucket",
		Description: "The S3 bucket to use when archiving raw events",
		Env:         helpers.Ptr("EVENT_ARCHIVE_S3_BUCKET"),
	},
}

var envMapBool = map[*bool]boundEnvVar[bool]{
	&config.Global.Logging.CallerTrace: {
		Name:        "verbosity-caller-trace",
		Description: "Enable caller trace in logs",
		Short:       helpers.Ptr("V"),
	},
	&config.Global.S3.Archive.Enabled: {
		Name:        "event-archive-s3-upload",
		Description: "Enable S3 archival of raw events",
		Env:         helpers.Ptr("EVENT_ARCHIVE_S3_UPLOAD"),
	},
}

var envMapCount = map[*int]boundEnvVar[int]{
	&config.Global.Logging.Verbosity: {
		Name:        "verbosity",
		Description: "Increase logger verbosity (default WarnLevel)",
		Short:       helpers.Ptr("v"),
	},
}

var envMapDuration = map[*time.Duration]boundEnvVar[time.Duration]{
	&config.Webhook.CacheTTL: {
		Name:        "webhook-cache-ttl",
		Description: "Lifetime of the cached webhook URL (0 caches for the life of the process)",
	},
	&config.Webhook.FetchTimeout: {
		Name:        "webhook-fetch-timeout",
		Description: "Timeout for a single secret store round trip",
	},
	&config.Delivery.BackoffBase: {
		Name:        "delivery-backoff-base",
		Description: "Initial delay between webhook POST attempts",
	},
	&config.Delivery.Timeout: {
		Name:        "delivery-timeout",
		Description: "Timeout for a single webhook round trip",
	},
	&config.Lambda.InvocationTimeout: {
		Name:        "invocation-timeout",
		Description: "Upper bound for one whole invocation",
	},
}
