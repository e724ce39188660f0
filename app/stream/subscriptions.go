package stream

import "sync"

// WildcardSubscription matches any channel or event.
const WildcardSubscription = "***"

// Subscriptions filters the frames a connection receives.
type Subscriptions struct {
	sync.RWMutex
	channels    map[string]struct{}
	events      map[string]map[string]struct{}
	mutedEvents map[string]struct{}
}

// NewSubscriptions starts subscribed to everything.
func NewSubscriptions() *Subscriptions {
	subs := &Subscriptions{
		channels:    map[string]struct{}{},
		events:      map[string]map[string]struct{}{},
		mutedEvents: map[string]struct{}{},
	}
	subs.AddSubscription(WildcardSubscription, WildcardSubscription)
	return subs
}

func (subStore *Subscriptions) AddSubscription(channel, event string) {
	subStore.Lock()
	defer subStore.Unlock()

	if channel == "" {
		return
	}

	if event == "" {
		event = WildcardSubscription
	}

	subStore.channels[channel] = struct{}{}

	eventSubs := subStore.events[channel]
	if eventSubs == nil {
		eventSubs = make(map[string]struct{})
	}

	eventSubs[event] = struct{}{}
	subStore.events[channel] = eventSubs

	delete(subStore.mutedEvents, event)
}

func (subStore *Subscriptions) IsSubscribed(channel, event string) bool {
	subStore.RLock()
	defer subStore.RUnlock()

	if channel == ChannelStatus {
		return true
	}

	if _, ok := subStore.mutedEvents[event]; ok {
		return false
	}

	for _, ch := range []string{channel, WildcardSubscription} {
		if _, ok := subStore.channels[ch]; !ok {
			continue
		}
		eventSubs := subStore.events[ch]
		_, hasEventSub := eventSubs[event]
		_, hasWildcardSub := eventSubs[WildcardSubscription]
		if hasEventSub || hasWildcardSub {
			return true
		}
	}
	return false
}

func (subStore *Subscriptions) RmSubscription(channel string) {
	subStore.Lock()
	delete(subStore.channels, channel)
	delete(subStore.events, channel)
	subStore.Unlock()
}

func (subStore *Subscriptions) MuteEvent(event string) {
	subStore.Lock()
	subStore.mutedEvents[event] = struct{}{}
	subStore.Unlock()
}

func (subStore *Subscriptions) UnmuteEvent(event string) {
	subStore.Lock()
	delete(subStore.mutedEvents, event)
	subStore.Unlock()
}
