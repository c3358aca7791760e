// Package aws provides the Controller struct that wraps the AWS services
// the notifier depends on: Secrets Manager and SSM for the webhook
// secret, and S3 for optional raw event archival.
package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go/logging"
	pkgerrors "github.com/pkg/errors"

	appconfig "github.com/stackwatch/resource-notifier/internal/config"
	"github.com/stackwatch/resource-notifier/internal/helpers"
)

// ErrSecretNotFound reports a secret or parameter that does not exist in
// the configured store. This is an expected configuration state, distinct
// from a store I/O fault.
var ErrSecretNotFound = errors.New("secret not found")

// Controller wraps the AWS service clients with context and logging support.
type Controller struct {
	ctx    context.Context
	logger *slog.Logger

	config        *aws.Config
	secretBackend string

	s3Client      *s3.Client
	ssmClient     *ssm.Client
	secretsClient *secretsmanager.Client
}

// Option defines a function type used to configure an instance of the Controller struct.
type Option func(*Controller)

// NewController initializes a Controller with customizable options and
// default configurations if unspecified.
func NewController(opts ...Option) (*Controller, error) {
	_inst := &Controller{}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("controller", "aws")
	if _inst.ctx == nil {
		_inst.ctx = context.Background()
	}
	if _inst.secretBackend == "" {
		_inst.secretBackend = appconfig.BackendSecretsManager
	}
	if _inst.config == nil {
		_inst.logger.Debug("loading default AWS configuration...")
		cfg, err := config.LoadDefaultConfig(_inst.ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to load AWS configuration")
		}
		cfg.Logger = newAWSLogger(_inst.logger)
		_inst.config = &cfg
	}

	_inst.s3Client = s3.NewFromConfig(*_inst.config)
	_inst.ssmClient = ssm.NewFromConfig(*_inst.config)
	_inst.secretsClient = secretsmanager.NewFromConfig(*_inst.config)
	return _inst, nil
}

// FetchSecret retrieves the named secret from the configured backend. A
// missing secret maps to ErrSecretNotFound; any other failure is a store
// I/O fault.
func (a *Controller) FetchSecret(ctx context.Context, name string) (string, error) {
	switch a.secretBackend {
	case appconfig.BackendSSM:
		return a.getParameter(ctx, name)
	default:
		return a.getSecretValue(ctx, name)
	}
}

func (a *Controller) getSecretValue(ctx context.Context, name string) (string, error) {
	a.logger.With("secret", name).Debug("fetching Secrets Manager secret...")
	resp, err := a.secretsClient.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		var notFound *smtypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", ErrSecretNotFound
		}
		return "", pkgerrors.Wrap(err, "failed to fetch secret")
	}
	if resp.SecretString == nil {
		return "", ErrSecretNotFound
	}
	return *resp.SecretString, nil
}

func (a *Controller) getParameter(ctx context.Context, name string) (string, error) {
	a.logger.With("parameter", name).Debug("fetching SSM parameter...")
	resp, err := a.ssmClient.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", ErrSecretNotFound
		}
		return "", pkgerrors.Wrap(err, "failed to load SSM parameter")
	}
	if resp.Parameter == nil || resp.Parameter.Value == nil {
		return "", ErrSecretNotFound
	}
	return *resp.Parameter.Value, nil
}

// ArchiveEvent uploads a raw event payload to the given S3 bucket with a
// key formatted as a timestamp and the event ID. An empty bucket name
// disables archival.
func (a *Controller) ArchiveEvent(ctx context.Context, id, bucket string, body []byte) error {
	if bucket == "" {
		return nil
	}
	key := fmt.Sprintf("%s.%s", time.Now().UTC().Format(time.RFC3339Nano), id)
	_, err := a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return pkgerrors.Wrap(err, "failed to archive event to S3")
	}
	return nil
}

type awsLogger struct {
	logger *slog.Logger
}

func newAWSLogger(logger *slog.Logger) *awsLogger {
	return &awsLogger{logger}
}

func (a *awsLogger) Logf(classification logging.Classification, format string, args ...any) {
	a.logger.Debug(fmt.Sprintf("[%v] %s", classification, fmt.Sprintf(format, args...)))
}
