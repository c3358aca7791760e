package cmd

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stackwatch/resource-notifier/internal/config"
	"github.com/stackwatch/resource-notifier/internal/handler"
	"github.com/stackwatch/resource-notifier/internal/runtime"
)

func cmdLambda() *cobra.Command {
	cmd := &cobra.Command{
		Use: "lambda",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return errors.Wrap(err, "failed to setup lambda")
			}

			logger.Info("lambda starting...")
			lambda.StartWithOptions(rt.LambdaForEvent,
				lambda.WithContext(cmd.Context()))
			return nil
		},
	}

	return cmd
}

func setup(cmd *cobra.Command) (*runtime.Runtime, error) {
	logger.Debug("creating notification handler...")
	hdl, err := handler.NewHandler(
		handler.WithSecretName(config.Webhook.SecretName),
		handler.WithSecretBackend(config.Webhook.Backend),
		handler.WithArchiveBucket(config.Global.S3.Archive.BucketName),
		handler.WithContext(cmd.Context()),
		handler.WithLogger(logger.With("component", "notification-handler")))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create notification handler")
	}
	logger.Debug("creating runtime...")
	return runtime.NewRuntime(hdl,
		runtime.WithLogger(logger.With("component", "runtime")),
		runtime.WithInvocationTimeout(config.Lambda.InvocationTimeout)), nil
}
