package extract_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackwatch/resource-notifier/internal/extract"
	"github.com/stackwatch/resource-notifier/internal/models"
	"github.com/stackwatch/resource-notifier/internal/registry"
)

func mustLookup(t *testing.T, source, name string) *registry.Descriptor {
	t.Helper()
	desc, found := registry.Lookup(source, name)
	require.True(t, found)
	return desc
}

func TestExtractEC2RunInstances(t *testing.T) {
	evt := &models.Event{
		Region:  "eu-west-1",
		Account: "123456789012",
		Detail: map[string]any{
			"eventSource":        "ec2.amazonaws.com",
			"eventName":          "RunInstances",
			"awsRegion":          "eu-west-1",
			"recipientAccountId": "123456789012",
			"eventTime":          "2024-05-01T12:00:00Z",
			"userIdentity": map[string]any{
				"type":     "IAMUser",
				"userName": "alice",
			},
			"responseElements": map[string]any{
				"instancesSet": map[string]any{
					"items": []any{
						map[string]any{
							"instanceId":   "i-0123",
							"instanceType": "t3.micro",
							"imageId":      "ami-0abc",
						},
					},
				},
			},
		},
	}

	normalized, err := extract.Extract(evt, mustLookup(t, "ec2.amazonaws.com", "RunInstances"))
	require.NoError(t, err)

	assert.Equal(t, models.KindEC2Instance, normalized.Kind)
	assert.Equal(t, models.ActionCreated, normalized.Action)
	assert.Equal(t, "i-0123", normalized.ResourceID)
	assert.Equal(t, "i-0123", normalized.ResourceName) // name defaults to id
	assert.Equal(t, "alice", normalized.Actor)
	assert.Equal(t, "eu-west-1", normalized.Region)
	assert.Equal(t, "123456789012", normalized.AccountID)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), normalized.Timestamp)
	assert.Equal(t, []models.Field{
		{Label: "Instance Type", Value: "t3.micro"},
		{Label: "Image ID", Value: "ami-0abc"},
	}, normalized.ExtraFields)
}

func TestExtractDeleteBucketWithoutUserIdentity(t *testing.T) {
	evt := &models.Event{
		Detail: map[string]any{
			"eventSource": "s3.amazonaws.com",
			"eventName":   "DeleteBucket",
			"awsRegion":   "us-east-1",
			"requestParameters": map[string]any{
				"bucketName": "audit-logs",
			},
		},
	}

	normalized, err := extract.Extract(evt, mustLookup(t, "s3.amazonaws.com", "DeleteBucket"))
	require.NoError(t, err)

	assert.Equal(t, models.KindS3Bucket, normalized.Kind)
	assert.Equal(t, models.ActionDeleted, normalized.Action)
	assert.Equal(t, "audit-logs", normalized.ResourceID)
	assert.Equal(t, extract.UnknownActor, normalized.Actor)
}

func TestExtractActorVariants(t *testing.T) {
	testCases := []struct {
		Name     string
		Identity map[string]any
		Expected string
	}{
		{
			Name:     "iam_user",
			Identity: map[string]any{"type": "IAMUser", "userName": "bob"},
			Expected: "bob",
		},
		{
			Name: "assumed_role",
			Identity: map[string]any{
				"type": "AssumedRole",
				"sessionContext": map[string]any{
					"sessionIssuer": map[string]any{"userName": "deploy-role"},
				},
			},
			Expected: "deploy-role",
		},
		{
			Name:     "root",
			Identity: map[string]any{"type": "Root"},
			Expected: "Root User",
		},
		{
			Name:     "unrecognized_type",
			Identity: map[string]any{"type": "FederatedUser"},
			Expected: extract.UnknownActor,
		},
		{
			Name:     "absent",
			Identity: nil,
			Expected: extract.UnknownActor,
		},
	}

	desc := mustLookup(t, "iam.amazonaws.com", "DeleteUser")
	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			detail := map[string]any{
				"eventSource":       "iam.amazonaws.com",
				"eventName":         "DeleteUser",
				"requestParameters": map[string]any{"userName": "victim"},
			}
			if tc.Identity != nil {
				detail["userIdentity"] = tc.Identity
			}
			normalized, err := extract.Extract(&models.Event{Detail: detail}, desc)
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, normalized.Actor)
		})
	}
}

func TestExtractMissingIdentity(t *testing.T) {
	evt := &models.Event{
		Detail: map[string]any{
			"eventSource":       "s3.amazonaws.com",
			"eventName":         "DeleteBucket",
			"requestParameters": map[string]any{},
		},
	}

	_, err := extract.Extract(evt, mustLookup(t, "s3.amazonaws.com", "DeleteBucket"))
	var missing *extract.MissingIdentityError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, models.KindS3Bucket, missing.Kind)
}

func TestExtractNotApplicableChange(t *testing.T) {
	evt := &models.Event{
		Detail: map[string]any{
			"eventSource": "route53.amazonaws.com",
			"eventName":   "ChangeResourceRecordSets",
			"requestParameters": map[string]any{
				"hostedZoneId": "/hostedzone/Z0123",
				"changeBatch": map[string]any{
					"changes": []any{
						map[string]any{
							"action": "UPSERT",
							"resourceRecordSet": map[string]any{
								"name": "app.example.com.",
								"type": "A",
							},
						},
					},
				},
			},
		},
	}

	_, err := extract.Extract(evt, mustLookup(t, "route53.amazonaws.com", "ChangeResourceRecordSets"))
	var notApplicable *extract.NotApplicableError
	assert.ErrorAs(t, err, &notApplicable)
}

func TestExtractDNSRecordDeletion(t *testing.T) {
	evt := &models.Event{
		Detail: map[string]any{
			"eventSource": "route53.amazonaws.com",
			"eventName":   "ChangeResourceRecordSets",
			"awsRegion":   "us-east-1",
			"requestParameters": map[string]any{
				"hostedZoneId": "/hostedzone/Z0123",
				"changeBatch": map[string]any{
					"changes": []any{
						map[string]any{
							"action": "DELETE",
							"resourceRecordSet": map[string]any{
								"name": "app.example.com.",
								"type": "CNAME",
							},
						},
					},
				},
			},
		},
	}

	normalized, err := extract.Extract(evt, mustLookup(t, "route53.amazonaws.com", "ChangeResourceRecordSets"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionDeleted, normalized.Action)
	assert.Equal(t, "app.example.com.", normalized.ResourceID)
	assert.Equal(t, []models.Field{
		{Label: "Hosted Zone ID", Value: "Z0123"},
		{Label: "Record Type", Value: "CNAME"},
	}, normalized.ExtraFields)
}

func TestExtractLoadBalancerNameFromARN(t *testing.T) {
	arn := "arn:aws:elasticloadbalancing:eu-west-1:123456789012:loadbalancer/app/public-ingress/50dc6c495c0c9188"
	evt := &models.Event{
		Detail: map[string]any{
			"eventSource": "elasticloadbalancing.amazonaws.com",
			"eventName":   "DeleteLoadBalancer",
			"requestParameters": map[string]any{
				"loadBalancerArn": arn,
			},
		},
	}

	normalized, err := extract.Extract(evt, mustLookup(t, "elasticloadbalancing.amazonaws.com", "DeleteLoadBalancer"))
	require.NoError(t, err)

	assert.Equal(t, arn, normalized.ResourceID)
	assert.Equal(t, "public-ingress", normalized.ResourceName)
	assert.Equal(t, []models.Field{
		{Label: "Load Balancer Type", Value: "app"},
	}, normalized.ExtraFields)
}

func TestExtractIsIdempotent(t *testing.T) {
	evt := &models.Event{
		Region: "eu-central-1",
		Detail: map[string]any{
			"eventSource": "ec2.amazonaws.com",
			"eventName":   "DeleteVpc",
			"awsRegion":   "eu-central-1",
			"eventTime":   "2024-05-01T08:30:00Z",
			"requestParameters": map[string]any{
				"vpcId": "vpc-0a1b2c",
			},
		},
	}
	desc := mustLookup(t, "ec2.amazonaws.com", "DeleteVpc")

	first, err := extract.Extract(evt, desc)
	require.NoError(t, err)
	second, err := extract.Extract(evt, desc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExtractTimestampFallsBackToEnvelope(t *testing.T) {
	envelope := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	evt := &models.Event{
		Time: envelope,
		Detail: map[string]any{
			"eventSource": "ec2.amazonaws.com",
			"eventName":   "DeleteVpc",
			"eventTime":   "not-a-timestamp",
			"requestParameters": map[string]any{
				"vpcId": "vpc-0a1b2c",
			},
		},
	}

	normalized, err := extract.Extract(evt, mustLookup(t, "ec2.amazonaws.com", "DeleteVpc"))
	require.NoError(t, err)
	assert.Equal(t, envelope, normalized.Timestamp)
}
