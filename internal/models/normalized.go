package models

import "time"

// Kind identifies the category of monitored resource an audit event refers to.
type Kind string

// The set of monitored resource kinds.
const (
	KindEC2Instance    Kind = "EC2Instance"
	KindS3Bucket       Kind = "S3Bucket"
	KindRDSInstance    Kind = "RDSInstance"
	KindLambdaFunction Kind = "LambdaFunction"
	KindSecurityGroup  Kind = "SecurityGroup"
	KindVPC            Kind = "VPC"
	KindLoadBalancer   Kind = "LoadBalancer"
	KindIAMUser        Kind = "IAMUser"
	KindDNSRecord      Kind = "DNSRecord"
)

// Action is the lifecycle transition an audit event describes.
type Action string

// Supported actions.
const (
	ActionCreated Action = "Created"
	ActionDeleted Action = "Deleted"
)

// Field is a single labelled value attached to a normalized event. Order
// is significant and preserved through rendering.
type Field struct {
	Label string
	Value string
}

// NormalizedEvent is the pipeline's internal representation of one audit
// event. It is constructed once per invocation and never mutated.
type NormalizedEvent struct {
	Kind         Kind
	Action       Action
	ResourceID   string
	ResourceName string
	Region       string
	AccountID    string
	Actor        string
	Timestamp    time.Time
	ExtraFields  []Field
}

// DisplayName returns the resource name, falling back to the resource ID.
func (n *NormalizedEvent) DisplayName() string {
	if n.ResourceName != "" {
		return n.ResourceName
	}
	return n.ResourceID
}
