// Package extract turns a raw audit event and its registry descriptor
// into a normalized event. Extraction is total with respect to the
// descriptor: any field-path failure degrades to a documented default,
// except a missing resource identity, which is a reported error.
package extract

import (
	"time"

	"github.com/stackwatch/resource-notifier/internal/models"
	"github.com/stackwatch/resource-notifier/internal/registry"
)

// UnknownActor is the actor placeholder when the event carries no usable
// user identity.
const UnknownActor = "unknown"

// cloudTrailTimeLayout is the timestamp format of CloudTrail eventTime.
const cloudTrailTimeLayout = "2006-01-02T15:04:05Z"

// MissingIdentityError reports an event whose payload carries neither a
// resource ID nor a resource name.
type MissingIdentityError struct {
	Kind models.Kind
}

func (e *MissingIdentityError) Error() string {
	return "missing resource identity for kind " + string(e.Kind)
}

// NotApplicableError reports an event that matched a registry row but
// describes a change outside the supported action set. The entry point
// treats it as Ignored, not as a fault.
type NotApplicableError struct {
	Kind models.Kind
}

func (e *NotApplicableError) Error() string {
	return "event not applicable for kind " + string(e.Kind)
}

// Extract builds a NormalizedEvent from a raw event and its descriptor.
// It is deterministic: the same event and descriptor always produce the
// same normalized record.
func Extract(evt *models.Event, desc *registry.Descriptor) (*models.NormalizedEvent, error) {
	action, ok := desc.ResolveAction(evt.Detail)
	if !ok {
		return nil, &NotApplicableError{Kind: desc.Kind}
	}

	resourceID := desc.ID.Eval(evt.Detail)
	resourceName := desc.Name.Eval(evt.Detail)
	if resourceID == "" && resourceName == "" {
		return nil, &MissingIdentityError{Kind: desc.Kind}
	}
	if resourceName == "" {
		resourceName = resourceID
	}

	extras := make([]models.Field, 0, len(desc.Extras))
	for _, extra := range desc.Extras {
		extras = append(extras, models.Field{
			Label: extra.Label,
			Value: extra.Rule.Eval(evt.Detail),
		})
	}

	return &models.NormalizedEvent{
		Kind:         desc.Kind,
		Action:       action,
		ResourceID:   resourceID,
		ResourceName: resourceName,
		Region:       region(evt),
		AccountID:    accountID(evt),
		Actor:        actor(evt.Detail),
		Timestamp:    timestamp(evt),
		ExtraFields:  extras,
	}, nil
}

func region(evt *models.Event) string {
	if r := evt.DetailString("awsRegion"); r != "" {
		return r
	}
	return evt.Region
}

func accountID(evt *models.Event) string {
	if a := evt.DetailString("recipientAccountId"); a != "" {
		return a
	}
	return evt.Account
}

func timestamp(evt *models.Event) time.Time {
	if raw := evt.DetailString("eventTime"); raw != "" {
		if t, err := time.Parse(cloudTrailTimeLayout, raw); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
	}
	return evt.Time
}

// actor derives an identity string from the CloudTrail userIdentity
// block: IAM user names directly, assumed roles via their session issuer,
// root as a fixed label.
func actor(detail map[string]any) string {
	identity, _ := detail["userIdentity"].(map[string]any)
	if identity == nil {
		return UnknownActor
	}

	identityType, _ := identity["type"].(string)
	switch identityType {
	case "IAMUser":
		if name, _ := identity["userName"].(string); name != "" {
			return name
		}
	case "AssumedRole":
		session, _ := identity["sessionContext"].(map[string]any)
		issuer, _ := session["sessionIssuer"].(map[string]any)
		if name, _ := issuer["userName"].(string); name != "" {
			return name
		}
	case "Root":
		return "Root User"
	}
	return UnknownActor
}
