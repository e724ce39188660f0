package models

import (
	"errors"

	"github.com/streadway/amqp"
)

const (
	RHeaderTeam       = "team_id"
	RHeaderResource   = "resource"
	RHeaderEvent      = "event_type"
	RHeaderResourceID = "resource_id"
)

type Resource string

const (
	ResourceKeys     Resource = "keys"
	ResourceDatasets Resource = "datasets"
	ResourceTeams    Resource = "teams"
)

func (r Resource) Valid() bool {
	switch r {
	case ResourceKeys, ResourceDatasets, ResourceTeams:
		return true
	}
	return false
}

// ChangeNotice tells the console that a team resource changed upstream.
type ChangeNotice struct {
	TeamID     string
	Resource   Resource
	Event      string
	ResourceID string
}

func ParseChangeNotice(message amqp.Delivery) (ChangeNotice, error) {
	var ok bool
	var notice ChangeNotice

	notice.TeamID, ok = message.Headers[RHeaderTeam].(string)
	if !ok || notice.TeamID == "" {
		return notice, errors.New("message don't have RHeaderTeam")
	}

	resource, ok := message.Headers[RHeaderResource].(string)
	if !ok {
		return notice, errors.New("message don't have RHeaderResource")
	}
	notice.Resource = Resource(resource)
	if !notice.Resource.Valid() {
		return notice, errors.New("unknown resource " + resource)
	}

	notice.Event, _ = message.Headers[RHeaderEvent].(string)
	notice.ResourceID, _ = message.Headers[RHeaderResourceID].(string)
	return notice, nil
}

func (n ChangeNotice) Headers() amqp.Table {
	return amqp.Table{
		RHeaderTeam:       n.TeamID,
		RHeaderResource:   string(n.Resource),
		RHeaderEvent:      n.Event,
		RHeaderResourceID: n.ResourceID,
	}
}
