package registry

import (
	"strings"

	"github.com/stackwatch/resource-notifier/internal/models"
)

// loadBalancerNameFromARN extracts the load balancer name from an ELBv2
// ARN of the form arn:aws:elasticloadbalancing:region:account:loadbalancer/type/name/id.
func loadBalancerNameFromARN(arn string) string {
	parts := strings.Split(arn, "/")
	if len(parts) >= 3 {
		return parts[2]
	}
	return arn
}

// loadBalancerTypeFromARN extracts the load balancer type (app, net,
// gateway) from an ELBv2 ARN.
func loadBalancerTypeFromARN(arn string) string {
	parts := strings.Split(arn, "/")
	if len(parts) >= 3 {
		return parts[1]
	}
	return ""
}

// trimHostedZonePrefix strips the /hostedzone/ prefix Route53 puts in
// front of zone IDs in request parameters.
func trimHostedZonePrefix(id string) string {
	if idx := strings.LastIndex(id, "/hostedzone/"); idx >= 0 {
		return id[idx+len("/hostedzone/"):]
	}
	return id
}

func init() {
	// EC2 instances
	register("ec2.amazonaws.com", "RunInstances", Descriptor{
		Kind:   models.KindEC2Instance,
		Action: models.ActionCreated,
		ID:     Rule{Paths: []string{"responseElements.instancesSet.items[0].instanceId"}},
		Name:   Rule{Paths: []string{"requestParameters.tagSpecificationSet.items[0].tags[?key=='Name']|[0].value"}},
		Extras: []Extra{
			{Label: "Instance Type", Rule: Rule{Paths: []string{
				"responseElements.instancesSet.items[0].instanceType",
				"requestParameters.instanceType",
			}}},
			{Label: "Image ID", Rule: Rule{Paths: []string{"responseElements.instancesSet.items[0].imageId"}}},
		},
	})
	register("ec2.amazonaws.com", "TerminateInstances", Descriptor{
		Kind:   models.KindEC2Instance,
		Action: models.ActionDeleted,
		ID:     Rule{Paths: []string{"requestParameters.instancesSet.items[0].instanceId"}},
	})

	// S3 buckets
	register("s3.amazonaws.com", "CreateBucket", Descriptor{
		Kind:   models.KindS3Bucket,
		Action: models.ActionCreated,
		ID:     Rule{Paths: []string{"requestParameters.bucketName"}},
		Extras: []Extra{
			{Label: "Bucket ACL", Rule: Rule{Paths: []string{`requestParameters."x-amz-acl"`}}},
		},
	})
	register("s3.amazonaws.com", "DeleteBucket", Descriptor{
		Kind:   models.KindS3Bucket,
		Action: models.ActionDeleted,
		ID:     Rule{Paths: []string{"requestParameters.bucketName"}},
	})

	// RDS instances
	register("rds.amazonaws.com", "CreateDBInstance", Descriptor{
		Kind:   models.KindRDSInstance,
		Action: models.ActionCreated,
		ID:     Rule{Paths: []string{"requestParameters.dBInstanceIdentifier"}},
		Extras: []Extra{
			{Label: "Engine", Rule: Rule{Paths: []string{"requestParameters.engine"}}},
			{Label: "Instance Class", Rule: Rule{Paths: []string{"requestParameters.dBInstanceClass"}}},
		},
	})
	register("rds.amazonaws.com", "DeleteDBInstance", Descriptor{
		Kind:   models.KindRDSInstance,
		Action: models.ActionDeleted,
		ID:     Rule{Paths: []string{"requestParameters.dBInstanceIdentifier"}},
		Extras: []Extra{
			{Label: "Skip Final Snapshot", Rule: Rule{Paths: []string{"requestParameters.skipFinalSnapshot"}}},
		},
	})

	// Lambda functions
	register("lambda.amazonaws.com", "CreateFunction20150331", Descriptor{
		Kind:   models.KindLambdaFunction,
		Action: models.ActionCreated,
		ID:     Rule{Paths: []string{"requestParameters.functionName"}},
		Extras: []Extra{
			{Label: "Runtime", Rule: Rule{Paths: []string{"requestParameters.runtime"}}},
		},
	})
	register("lambda.amazonaws.com", "DeleteFunction20150331", Descriptor{
		Kind:   models.KindLambdaFunction,
		Action: models.ActionDeleted,
		ID:     Rule{Paths: []string{"requestParameters.functionName"}},
	})

	// Security groups
	register("ec2.amazonaws.com", "CreateSecurityGroup", Descriptor{
		Kind:   models.KindSecurityGroup,
		Action: models.ActionCreated,
		ID:     Rule{Paths: []string{"responseElements.groupId"}},
		Name:   Rule{Paths: []string{"requestParameters.groupName"}},
		Extras: []Extra{
			{Label: "VPC ID", Rule: Rule{Paths: []string{"requestParameters.vpcId"}}},
		},
	})
	register("ec2.amazonaws.com", "DeleteSecurityGroup", Descriptor{
		Kind:   models.KindSecurityGroup,
		Action: models.ActionDeleted,
		ID:     Rule{Paths: []string{"requestParameters.groupId", "requestParameters.groupName"}},
		Name:   Rule{Paths: []string{"requestParameters.groupName"}},
	})

	// VPCs
	register("ec2.amazonaws.com", "CreateVpc", Descriptor{
		Kind:   models.KindVPC,
		Action: models.ActionCreated,
		ID:     Rule{Paths: []string{"responseElements.vpc.vpcId"}},
		Extras: []Extra{
			{Label: "CIDR Block", Rule: Rule{Paths: []string{"requestParameters.cidrBlock"}}},
		},
	})
	register("ec2.amazonaws.com", "DeleteVpc", Descriptor{
		Kind:   models.KindVPC,
		Action: models.ActionDeleted,
		ID:     Rule{Paths: []string{"requestParameters.vpcId"}},
	})

	// Load balancers (ELBv2)
	register("elasticloadbalancing.amazonaws.com", "CreateLoadBalancer", Descriptor{
		Kind:   models.KindLoadBalancer,
		Action: models.ActionCreated,
		ID:     Rule{Paths: []string{"responseElements.loadBalancers[0].loadBalancerArn"}},
		Name: Rule{Paths: []string{
			"requestParameters.name",
			"responseElements.loadBalancers[0].loadBalancerName",
		}},
		Extras: []Extra{
			{Label: "Load Balancer Type", Rule: Rule{Paths: []string{"responseElements.loadBalancers[0].type"}}},
			{Label: "Scheme", Rule: Rule{Paths: []string{"responseElements.loadBalancers[0].scheme"}}},
		},
	})
	register("elasticloadbalancing.amazonaws.com", "DeleteLoadBalancer", Descriptor{
		Kind:   models.KindLoadBalancer,
		Action: models.ActionDeleted,
		ID:     Rule{Paths: []string{"requestParameters.loadBalancerArn"}},
		Name: Rule{
			Paths:     []string{"requestParameters.loadBalancerArn"},
			Transform: loadBalancerNameFromARN,
		},
		Extras: []Extra{
			{Label: "Load Balancer Type", Rule: Rule{
				Paths:     []string{"requestParameters.loadBalancerArn"},
				Transform: loadBalancerTypeFromARN,
			}},
		},
	})

	// IAM users
	register("iam.amazonaws.com", "CreateUser", Descriptor{
		Kind:   models.KindIAMUser,
		Action: models.ActionCreated,
		ID:     Rule{Paths: []string{"requestParameters.userName"}},
		Extras: []Extra{
			{Label: "Path", Rule: Rule{Paths: []string{"requestParameters.path"}}},
		},
	})
	register("iam.amazonaws.com", "DeleteUser", Descriptor{
		Kind:   models.KindIAMUser,
		Action: models.ActionDeleted,
		ID:     Rule{Paths: []string{"requestParameters.userName"}},
	})

	// Route53 record sets; CREATE and DELETE arrive under one event name,
	// so the action resolves from the change batch.
	register("route53.amazonaws.com", "ChangeResourceRecordSets", Descriptor{
		Kind:       models.KindDNSRecord,
		ActionPath: "requestParameters.changeBatch.changes[0].action",
		ID:         Rule{Paths: []string{"requestParameters.changeBatch.changes[0].resourceRecordSet.name"}},
		Extras: []Extra{
			{Label: "Hosted Zone ID", Rule: Rule{
				Paths:     []string{"requestParameters.hostedZoneId"},
				Transform: trimHostedZonePrefix,
			}},
			{Label: "Record Type", Rule: Rule{Paths: []string{"requestParameters.changeBatch.changes[0].resourceRecordSet.type"}}},
		},
	})
}
