// Package render converts normalized events into Microsoft Teams
// MessageCard documents. Rendering is pure and total: any missing
// optional value renders as an explicit placeholder so every kind
// produces a card of stable shape.
package render

import (
	"fmt"
	"time"

	"github.com/stackwatch/resource-notifier/internal/models"
)

// Theme colours per action: deletions are warning-toned, creations
// informational.
const (
	ColorCreated = "36A64F"
	ColorDeleted = "C43532"
)

// Placeholder is rendered in place of any missing optional value.
const Placeholder = "not available"

const docsURL = "https://docs.aws.amazon.com"

// consoleURL builds a console deep-link for kinds with a known console
// location; it returns the empty string otherwise.
func consoleURL(n *models.NormalizedEvent) string {
	region, id := n.Region, n.ResourceID
	if id == "" {
		return ""
	}
	switch n.Kind {
	case models.KindEC2Instance:
		return fmt.Sprintf("https://%s.console.aws.amazon.com/ec2/home?region=%s#InstanceDetails:instanceId=%s", region, region, id)
	case models.KindS3Bucket:
		return fmt.Sprintf("https://s3.console.aws.amazon.com/s3/buckets/%s", id)
	case models.KindRDSInstance:
		return fmt.Sprintf("https://%s.console.aws.amazon.com/rds/home?region=%s#database:id=%s", region, region, id)
	case models.KindLambdaFunction:
		return fmt.Sprintf("https://%s.console.aws.amazon.com/lambda/home?region=%s#/functions/%s", region, region, id)
	case models.KindSecurityGroup:
		return fmt.Sprintf("https://%s.console.aws.amazon.com/ec2/home?region=%s#SecurityGroup:groupId=%s", region, region, id)
	case models.KindVPC:
		return fmt.Sprintf("https://%s.console.aws.amazon.com/vpcconsole/home?region=%s#VpcDetails:VpcId=%s", region, region, id)
	case models.KindIAMUser:
		return fmt.Sprintf("https://console.aws.amazon.com/iam/home#/users/%s", id)
	case models.KindDNSRecord:
		return "https://console.aws.amazon.com/route53/v2/hostedzones"
	default:
		return ""
	}
}

func themeColor(action models.Action) string {
	if action == models.ActionDeleted {
		return ColorDeleted
	}
	return ColorCreated
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// Render builds the notification document for a normalized event. It
// never fails. Facts appear in fixed order: Resource ID, Region, Account,
// Actor, Timestamp, then the descriptor-declared extras.
func Render(n *models.NormalizedEvent) *MessageCard {
	ts := Placeholder
	if !n.Timestamp.IsZero() {
		ts = n.Timestamp.UTC().Format(time.RFC3339)
	}

	facts := []Fact{
		{Name: "Resource ID", Value: orPlaceholder(n.ResourceID)},
		{Name: "Region", Value: orPlaceholder(n.Region)},
		{Name: "Account", Value: orPlaceholder(n.AccountID)},
		{Name: "Actor", Value: orPlaceholder(n.Actor)},
		{Name: "Timestamp", Value: ts},
	}
	for _, extra := range n.ExtraFields {
		facts = append(facts, Fact{Name: extra.Label, Value: orPlaceholder(extra.Value)})
	}

	title := fmt.Sprintf("%s %s: %s", n.Kind, n.Action, orPlaceholder(n.DisplayName()))

	actions := make([]OpenURI, 0, 2)
	if console := consoleURL(n); console != "" {
		actions = append(actions, OpenURI{
			Type:    "OpenUri",
			Name:    "View in AWS Console",
			Targets: []Target{{OS: "default", URI: console}},
		})
	}
	actions = append(actions, OpenURI{
		Type:    "OpenUri",
		Name:    "View AWS Documentation",
		Targets: []Target{{OS: "default", URI: docsURL}},
	})

	return &MessageCard{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		ThemeColor: themeColor(n.Action),
		Summary:    fmt.Sprintf("%s %s", n.Kind, n.Action),
		Title:      title,
		Sections: []Section{{
			Facts:    facts,
			Markdown: true,
		}},
		PotentialAction: actions,
	}
}
